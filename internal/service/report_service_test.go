package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/approval-service/internal/domain"
)

func TestStatusSummaryCounts(t *testing.T) {
	env := newTestEnv(t)
	admin := env.store.addReviewer("ada", domain.ReviewerRoleAdmin, nil, true)
	reviewer := env.store.addReviewer("dana", domain.ReviewerRoleDirector, nil, true)

	open := env.submitted(t, "emp-1", RecipientInput{Type: domain.RecipientTypeReviewer, ID: reviewer.ID})
	_ = open
	approved := env.submitted(t, "emp-1", RecipientInput{Type: domain.RecipientTypeReviewer, ID: reviewer.ID})
	env.setStatus(t, approved.ID, domain.ArtifactStatusApproved)
	rejected := env.submitted(t, "emp-2", RecipientInput{Type: domain.RecipientTypeReviewer, ID: reviewer.ID})
	env.setStatus(t, rejected.ID, domain.ArtifactStatusRejected)

	svc := NewReportService(&fakeArtifactRepo{s: env.store}, nil, 0)

	summary, err := svc.StatusSummary(context.Background(), &admin)
	require.NoError(t, err)

	assert.Equal(t, int64(3), summary.Total)
	assert.Equal(t, int64(1), summary.Open)
	assert.Equal(t, int64(2), summary.Resolved)
	assert.Equal(t, int64(1), summary.ByStatus[domain.ArtifactStatusPending])
	assert.Equal(t, int64(1), summary.ByStatus[domain.ArtifactStatusApproved])
	assert.Equal(t, int64(1), summary.ByStatus[domain.ArtifactStatusRejected])
}

func TestStatusSummaryAdminOnly(t *testing.T) {
	env := newTestEnv(t)
	director := env.store.addReviewer("dana", domain.ReviewerRoleDirector, nil, true)

	svc := NewReportService(&fakeArtifactRepo{s: env.store}, nil, 0)

	_, err := svc.StatusSummary(context.Background(), &director)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	_, err = svc.StatusSummary(context.Background(), nil)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}
