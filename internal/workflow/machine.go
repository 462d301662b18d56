// Package workflow defines the artifact lifecycle state machine shared by
// every caller. States, actions, and the transition table live here and
// nowhere else.
package workflow

import (
	"fmt"

	"github.com/spec-kit/approval-service/internal/domain"
)

// Action identifies a lifecycle operation on an artifact.
type Action string

const (
	ActionSubmit           Action = "submit"
	ActionApprove          Action = "approve"
	ActionReject           Action = "reject"
	ActionSendBack         Action = "send_back"
	ActionRequestSignature Action = "request_signature"
	ActionResubmit         Action = "resubmit"
	ActionProvideSignature Action = "provide_signature"
)

// ReviewerActions are the actions a recipient may take on a pending artifact.
var ReviewerActions = []Action{
	ActionApprove,
	ActionReject,
	ActionSendBack,
	ActionRequestSignature,
}

// transitions maps (state, action) to the resulting state.
var transitions = map[domain.ArtifactStatus]map[Action]domain.ArtifactStatus{
	domain.ArtifactStatusDraft: {
		ActionSubmit: domain.ArtifactStatusPending,
	},
	domain.ArtifactStatusPending: {
		ActionApprove:          domain.ArtifactStatusApproved,
		ActionReject:           domain.ArtifactStatusRejected,
		ActionSendBack:         domain.ArtifactStatusSentBack,
		ActionRequestSignature: domain.ArtifactStatusNeedSignature,
	},
	domain.ArtifactStatusSentBack: {
		ActionResubmit: domain.ArtifactStatusPending,
	},
	domain.ArtifactStatusNeedSignature: {
		ActionProvideSignature: domain.ArtifactStatusApproved,
	},
	domain.ArtifactStatusApproved: {},
	domain.ArtifactStatusRejected: {},
}

// commentRequired lists actions that must carry a reviewer comment.
var commentRequired = map[Action]bool{
	ActionReject:   true,
	ActionSendBack: true,
}

// ErrInvalidTransition reports an action illegal from the current state.
type ErrInvalidTransition struct {
	From   domain.ArtifactStatus
	Action Action
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("action %q not allowed from status %q", e.Action, e.From)
}

// Transition resolves the target state for an action, or fails when the
// action is not legal from the current state.
func Transition(from domain.ArtifactStatus, action Action) (domain.ArtifactStatus, error) {
	next, ok := transitions[from][action]
	if !ok {
		return "", &ErrInvalidTransition{From: from, Action: action}
	}
	return next, nil
}

// CanTransition reports whether the action is legal from the given state.
func CanTransition(from domain.ArtifactStatus, action Action) bool {
	_, ok := transitions[from][action]
	return ok
}

// IsTerminal reports whether no further transition is possible.
func IsTerminal(status domain.ArtifactStatus) bool {
	return len(transitions[status]) == 0 && IsValidStatus(status)
}

// IsValidStatus reports whether the status is one of the six defined states.
func IsValidStatus(status domain.ArtifactStatus) bool {
	_, ok := transitions[status]
	return ok
}

// CanEdit reports whether the creator may still mutate artifact content.
func CanEdit(status domain.ArtifactStatus) bool {
	switch status {
	case domain.ArtifactStatusDraft, domain.ArtifactStatusPending, domain.ArtifactStatusSentBack:
		return true
	default:
		return false
	}
}

// RequiresComment reports whether the action must carry a comment.
func RequiresComment(action Action) bool {
	return commentRequired[action]
}

// IsReviewerAction reports whether the action belongs to a recipient.
func IsReviewerAction(action Action) bool {
	for _, a := range ReviewerActions {
		if a == action {
			return true
		}
	}
	return false
}

// Aggregate derives the parent artifact status from its review slots.
// Any rejection resolves the artifact immediately; approval requires every
// slot to have approved; otherwise the artifact stays pending.
func Aggregate(decisions []domain.ReviewDecision) domain.ArtifactStatus {
	if len(decisions) == 0 {
		return domain.ArtifactStatusPending
	}
	approved := 0
	for _, d := range decisions {
		switch d {
		case domain.ReviewDecisionRejected:
			return domain.ArtifactStatusRejected
		case domain.ReviewDecisionApproved:
			approved++
		}
	}
	if approved == len(decisions) {
		return domain.ArtifactStatusApproved
	}
	return domain.ArtifactStatusPending
}
