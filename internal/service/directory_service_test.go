package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/approval-service/internal/domain"
)

func newDirectoryEnv(t *testing.T) (*DirectoryService, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewDirectoryService(testAuthConfig(), DirectoryDependencies{
		DepartmentRepo: &fakeDepartmentRepo{s: store},
		ReviewerRepo:   &fakeReviewerRepo{s: store},
	})
	return svc, store
}

func TestCreateDepartmentRequiresAdmin(t *testing.T) {
	svc, store := newDirectoryEnv(t)
	admin := store.addReviewer("ada", domain.ReviewerRoleAdmin, nil, true)
	director := store.addReviewer("dana", domain.ReviewerRoleDirector, nil, true)

	dept, err := svc.CreateDepartment(context.Background(), &admin, "Finance", "Budget approvals")
	require.NoError(t, err)
	assert.NotEmpty(t, dept.ID)
	assert.True(t, dept.IsActive)

	_, err = svc.CreateDepartment(context.Background(), &director, "Rogue", "")
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))

	_, err = svc.CreateDepartment(context.Background(), nil, "Anonymous", "")
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestListDepartmentsVisibility(t *testing.T) {
	svc, store := newDirectoryEnv(t)
	store.addDepartment("finance", true)
	store.addDepartment("dissolved", false)

	// Listing is open to any authenticated caller; submitters need the
	// active set to pick fan-out targets.
	active, err := svc.ListDepartments(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	all, err := svc.ListDepartments(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpdateDepartment(t *testing.T) {
	svc, store := newDirectoryEnv(t)
	admin := store.addReviewer("ada", domain.ReviewerRoleAdmin, nil, true)
	dept := store.addDepartment("finance", true)

	dept.Name = "Finance & Ops"
	dept.IsActive = false
	updated, err := svc.UpdateDepartment(context.Background(), &admin, &dept)
	require.NoError(t, err)
	assert.Equal(t, "Finance & Ops", updated.Name)
	assert.False(t, updated.IsActive)

	missing := domain.Department{ID: "missing", Name: "ghost"}
	_, err = svc.UpdateDepartment(context.Background(), &admin, &missing)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestCreateReviewerRules(t *testing.T) {
	svc, store := newDirectoryEnv(t)
	admin := store.addReviewer("ada", domain.ReviewerRoleAdmin, nil, true)
	dept := store.addDepartment("finance", true)
	inactiveDept := store.addDepartment("dissolved", false)

	created, err := svc.CreateReviewer(context.Background(), &admin, "Dana", "dana.new@example.com", "hunter2!", domain.ReviewerRoleDirector, &dept.ID)
	require.NoError(t, err)
	assert.True(t, created.Active)
	assert.NotEqual(t, "hunter2!", created.PasswordHash)

	_, err = svc.CreateReviewer(context.Background(), &admin, "Dupe", "dana.new@example.com", "x", domain.ReviewerRoleDirector, &dept.ID)
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	_, err = svc.CreateReviewer(context.Background(), &admin, "No Dept", "lost@example.com", "x", domain.ReviewerRoleDirector, nil)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.CreateReviewer(context.Background(), &admin, "Dead Dept", "dead@example.com", "x", domain.ReviewerRoleDirector, &inactiveDept.ID)
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	// Admins may be unscoped.
	_, err = svc.CreateReviewer(context.Background(), &admin, "Root", "root@example.com", "x", domain.ReviewerRoleAdmin, nil)
	require.NoError(t, err)
}

func TestListReviewersFilters(t *testing.T) {
	svc, store := newDirectoryEnv(t)
	admin := store.addReviewer("ada", domain.ReviewerRoleAdmin, nil, true)
	store.addReviewer("dana", domain.ReviewerRoleDirector, nil, true)
	store.addReviewer("gone", domain.ReviewerRoleDirector, nil, false)

	role := domain.ReviewerRoleDirector
	directors, err := svc.ListReviewers(context.Background(), &admin, ReviewerListFilters{Role: &role})
	require.NoError(t, err)
	assert.Len(t, directors, 2)

	active := true
	activeDirectors, err := svc.ListReviewers(context.Background(), &admin, ReviewerListFilters{Role: &role, Active: &active})
	require.NoError(t, err)
	assert.Len(t, activeDirectors, 1)

	nonAdmin := store.addReviewer("dave", domain.ReviewerRoleDirector, nil, true)
	_, err = svc.ListReviewers(context.Background(), &nonAdmin, ReviewerListFilters{})
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestUpdateReviewer(t *testing.T) {
	svc, store := newDirectoryEnv(t)
	admin := store.addReviewer("ada", domain.ReviewerRoleAdmin, nil, true)
	dept := store.addDepartment("finance", true)
	reviewer := store.addReviewer("dana", domain.ReviewerRoleDirector, &dept.ID, true)
	other := store.addReviewer("omar", domain.ReviewerRoleDirector, &dept.ID, true)

	updated, err := svc.UpdateReviewer(context.Background(), &admin, reviewer.ID, "Dana D.", "dana@example.com", domain.ReviewerRoleDirector, &dept.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Dana D.", updated.Name)
	assert.False(t, updated.Active)

	// Cannot take another reviewer's email.
	_, err = svc.UpdateReviewer(context.Background(), &admin, reviewer.ID, "Dana", other.Email, domain.ReviewerRoleDirector, &dept.ID, true)
	assert.Equal(t, "CONFLICT", domainCode(t, err))

	// Demoting a director to no department is rejected.
	_, err = svc.UpdateReviewer(context.Background(), &admin, reviewer.ID, "Dana", "dana@example.com", domain.ReviewerRoleDirector, nil, true)
	assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

	_, err = svc.UpdateReviewer(context.Background(), &admin, "missing", "Ghost", "ghost@example.com", domain.ReviewerRoleAdmin, nil, true)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
}

func TestGetReviewerByID(t *testing.T) {
	svc, store := newDirectoryEnv(t)
	admin := store.addReviewer("ada", domain.ReviewerRoleAdmin, nil, true)
	reviewer := store.addReviewer("dana", domain.ReviewerRoleDirector, nil, true)

	found, err := svc.GetReviewerByID(context.Background(), &admin, reviewer.ID)
	require.NoError(t, err)
	assert.Equal(t, reviewer.Email, found.Email)

	_, err = svc.GetReviewerByID(context.Background(), &reviewer, admin.ID)
	assert.Equal(t, "FORBIDDEN", domainCode(t, err))
}
