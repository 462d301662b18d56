package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/approval-service/internal/domain"
)

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   domain.ArtifactStatus
		action Action
		want   domain.ArtifactStatus
	}{
		{domain.ArtifactStatusDraft, ActionSubmit, domain.ArtifactStatusPending},
		{domain.ArtifactStatusPending, ActionApprove, domain.ArtifactStatusApproved},
		{domain.ArtifactStatusPending, ActionReject, domain.ArtifactStatusRejected},
		{domain.ArtifactStatusPending, ActionSendBack, domain.ArtifactStatusSentBack},
		{domain.ArtifactStatusPending, ActionRequestSignature, domain.ArtifactStatusNeedSignature},
		{domain.ArtifactStatusSentBack, ActionResubmit, domain.ArtifactStatusPending},
		{domain.ArtifactStatusNeedSignature, ActionProvideSignature, domain.ArtifactStatusApproved},
	}
	for _, tc := range cases {
		got, err := Transition(tc.from, tc.action)
		require.NoError(t, err, "%s from %s", tc.action, tc.from)
		assert.Equal(t, tc.want, got)
	}
}

func TestTransitionRejectsIllegalActions(t *testing.T) {
	illegal := []struct {
		from   domain.ArtifactStatus
		action Action
	}{
		{domain.ArtifactStatusDraft, ActionApprove},
		{domain.ArtifactStatusDraft, ActionResubmit},
		{domain.ArtifactStatusPending, ActionSubmit},
		{domain.ArtifactStatusPending, ActionProvideSignature},
		{domain.ArtifactStatusSentBack, ActionApprove},
		{domain.ArtifactStatusNeedSignature, ActionApprove},
		{domain.ArtifactStatusNeedSignature, ActionReject},
	}
	for _, tc := range illegal {
		_, err := Transition(tc.from, tc.action)
		require.Error(t, err, "%s from %s should fail", tc.action, tc.from)
		var invalidErr *ErrInvalidTransition
		assert.ErrorAs(t, err, &invalidErr)
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []domain.ArtifactStatus{domain.ArtifactStatusApproved, domain.ArtifactStatusRejected}
	actions := []Action{
		ActionSubmit, ActionApprove, ActionReject, ActionSendBack,
		ActionRequestSignature, ActionResubmit, ActionProvideSignature,
	}
	for _, status := range terminals {
		assert.True(t, IsTerminal(status))
		for _, action := range actions {
			assert.False(t, CanTransition(status, action), "%s from %s", action, status)
		}
	}
}

func TestTransitionTargetsAreValidStatuses(t *testing.T) {
	for from, actions := range transitions {
		assert.True(t, IsValidStatus(from))
		for action, to := range actions {
			assert.True(t, IsValidStatus(to), "%s + %s lands in unknown status %s", from, action, to)
		}
	}
}

func TestIsValidStatus(t *testing.T) {
	assert.True(t, IsValidStatus(domain.ArtifactStatusDraft))
	assert.False(t, IsValidStatus("CLOSED"))
	assert.False(t, IsValidStatus(""))
}

func TestCanEdit(t *testing.T) {
	assert.True(t, CanEdit(domain.ArtifactStatusDraft))
	assert.True(t, CanEdit(domain.ArtifactStatusPending))
	assert.True(t, CanEdit(domain.ArtifactStatusSentBack))
	assert.False(t, CanEdit(domain.ArtifactStatusNeedSignature))
	assert.False(t, CanEdit(domain.ArtifactStatusApproved))
	assert.False(t, CanEdit(domain.ArtifactStatusRejected))
}

func TestRequiresComment(t *testing.T) {
	assert.True(t, RequiresComment(ActionReject))
	assert.True(t, RequiresComment(ActionSendBack))
	assert.False(t, RequiresComment(ActionApprove))
	assert.False(t, RequiresComment(ActionRequestSignature))
}

func TestIsReviewerAction(t *testing.T) {
	for _, action := range ReviewerActions {
		assert.True(t, IsReviewerAction(action))
	}
	assert.False(t, IsReviewerAction(ActionSubmit))
	assert.False(t, IsReviewerAction(ActionResubmit))
	assert.False(t, IsReviewerAction(ActionProvideSignature))
}

func TestAggregate(t *testing.T) {
	p := domain.ReviewDecisionPending
	a := domain.ReviewDecisionApproved
	r := domain.ReviewDecisionRejected

	cases := []struct {
		name      string
		decisions []domain.ReviewDecision
		want      domain.ArtifactStatus
	}{
		{"no slots stays pending", nil, domain.ArtifactStatusPending},
		{"all pending", []domain.ReviewDecision{p, p}, domain.ArtifactStatusPending},
		{"partial approval", []domain.ReviewDecision{a, p}, domain.ArtifactStatusPending},
		{"all approved", []domain.ReviewDecision{a, a, a}, domain.ArtifactStatusApproved},
		{"single approval", []domain.ReviewDecision{a}, domain.ArtifactStatusApproved},
		{"any rejection wins", []domain.ReviewDecision{a, r, p}, domain.ArtifactStatusRejected},
		{"rejection beats full approval", []domain.ReviewDecision{a, a, r}, domain.ArtifactStatusRejected},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Aggregate(tc.decisions))
		})
	}
}
