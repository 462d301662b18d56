package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/events"
	"github.com/spec-kit/approval-service/internal/repository"
	"github.com/spec-kit/approval-service/internal/workflow"
	apperrors "github.com/spec-kit/approval-service/pkg/util/errorutil"
)

// ReviewService owns the recipient-side workflow actions.
type ReviewService struct {
	artifacts  repository.ArtifactRepository
	reviews    repository.ReviewRepository
	dispatcher events.Dispatcher
	locker     ArtifactLocker
	detail     *ArtifactService
}

// ReviewDependencies bundles repositories for the review service.
type ReviewDependencies struct {
	ArtifactRepo    repository.ArtifactRepository
	ReviewRepo      repository.ReviewRepository
	Dispatcher      events.Dispatcher
	Locker          ArtifactLocker
	ArtifactService *ArtifactService
}

// ReviewInboxFilter describes recipient listing filters.
type ReviewInboxFilter struct {
	Statuses   []domain.ArtifactStatus
	Priorities []domain.ArtifactPriority
	SearchTerm *string
	Limit      int
	Offset     int
}

// NewReviewService constructs the service.
func NewReviewService(deps ReviewDependencies) *ReviewService {
	return &ReviewService{
		artifacts:  deps.ArtifactRepo,
		reviews:    deps.ReviewRepo,
		dispatcher: deps.Dispatcher,
		locker:     deps.Locker,
		detail:     deps.ArtifactService,
	}
}

// TakeAction applies a reviewer action to a pending artifact. The artifact
// status change, the review slot decision, the comment, and the history entry
// commit together or not at all.
func (s *ReviewService) TakeAction(ctx context.Context, reviewer *domain.Reviewer, artifactID string, action workflow.Action, comment string) (*domain.Artifact, error) {
	if reviewer == nil {
		return nil, apperrors.NewUnauthorized("reviewer required")
	}
	if !workflow.IsReviewerAction(action) {
		return nil, apperrors.NewValidationError("unknown reviewer action", map[string]any{"action": action})
	}
	comment = strings.TrimSpace(comment)
	if workflow.RequiresComment(action) && comment == "" {
		return nil, apperrors.NewValidationError("comment required for this action", map[string]any{"action": action})
	}

	artifact, err := s.artifacts.GetByID(ctx, artifactID)
	if err != nil {
		return nil, mapReadError(err, artifactID)
	}
	if !workflow.CanTransition(artifact.Status, action) {
		return nil, apperrors.NewInvalidTransition("action not allowed from current status", map[string]any{
			"status": artifact.Status,
			"action": action,
		})
	}

	assignments, err := s.reviews.ListByArtifact(ctx, artifact.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	slot := findSlot(assignments, reviewer)
	if slot == nil && reviewer.Role != domain.ReviewerRoleAdmin {
		return nil, apperrors.NewForbidden("not an authorized recipient")
	}

	unlock, err := s.lock(ctx, artifact.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	oldStatus := artifact.Status
	update := repository.TransitionUpdate{
		Artifact:        artifact,
		ExpectedVersion: artifact.Version,
	}

	switch action {
	case workflow.ActionApprove, workflow.ActionReject:
		decision := domain.ReviewDecisionApproved
		if action == workflow.ActionReject {
			decision = domain.ReviewDecisionRejected
		}
		next := s.aggregateWith(assignments, slot, decision)
		if slot != nil {
			update.Decision = &repository.DecisionUpdate{
				AssignmentID: slot.ID,
				Decision:     decision,
				DecidedBy:    reviewer.ID,
			}
		} else {
			// Admin without a slot decides the parent outcome directly.
			next, err = workflow.Transition(artifact.Status, action)
			if err != nil {
				return nil, apperrors.NewInvalidTransition(err.Error(), map[string]any{"status": artifact.Status})
			}
		}
		artifact.Status = next
	default:
		next, terr := workflow.Transition(artifact.Status, action)
		if terr != nil {
			return nil, apperrors.NewInvalidTransition(terr.Error(), map[string]any{"status": artifact.Status})
		}
		if action == workflow.ActionRequestSignature {
			artifact.RequiresSignature = true
		}
		artifact.Status = next
	}

	if workflow.IsTerminal(artifact.Status) && artifact.ResolvedAt == nil {
		now := time.Now()
		artifact.ResolvedAt = &now
	}

	if comment != "" {
		update.Comment = &domain.ArtifactComment{
			ArtifactID: artifact.ID,
			AuthorType: domain.AuthorTypeReviewer,
			AuthorID:   &reviewer.ID,
			Body:       comment,
		}
	}
	changeType := domain.ChangeTypeStatus
	if artifact.Status == oldStatus {
		changeType = domain.ChangeTypeDecision
	}
	update.History = &domain.ArtifactHistory{
		ArtifactID:    artifact.ID,
		ChangedByType: domain.AuthorTypeReviewer,
		ChangedByID:   &reviewer.ID,
		ChangeType:    changeType,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status":  artifact.Status,
			"action":  action,
			"comment": comment,
		},
	}

	if err := s.applyTransition(ctx, update); err != nil {
		return nil, err
	}

	if artifact.Status != oldStatus {
		s.publishStatusChanged(ctx, reviewerActor(reviewer.ID), artifact.ID, oldStatus, artifact.Status, comment)
	}
	return artifact, nil
}

// ListForRecipient returns the reviewer's inbox: artifacts fanned out to them
// directly or to their department. Admins see all artifacts.
func (s *ReviewService) ListForRecipient(ctx context.Context, reviewer *domain.Reviewer, filter ReviewInboxFilter) ([]domain.Artifact, error) {
	if reviewer == nil {
		return nil, apperrors.NewUnauthorized("reviewer required")
	}
	repoFilter := repository.ArtifactFilter{
		Statuses:   filter.Statuses,
		Priorities: filter.Priorities,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if reviewer.Role != domain.ReviewerRoleAdmin {
		if reviewer.DepartmentID != nil {
			recipientType := domain.RecipientTypeDepartment
			repoFilter.RecipientType = &recipientType
			repoFilter.RecipientID = reviewer.DepartmentID
		} else {
			recipientType := domain.RecipientTypeReviewer
			recipientID := reviewer.ID
			repoFilter.RecipientType = &recipientType
			repoFilter.RecipientID = &recipientID
		}
	}
	return s.artifacts.ListWithFilter(ctx, repoFilter)
}

// GetForReviewer fetches a detail view ensuring recipient access.
func (s *ReviewService) GetForReviewer(ctx context.Context, reviewer *domain.Reviewer, artifactID string) (*ArtifactDetail, error) {
	if reviewer == nil {
		return nil, apperrors.NewUnauthorized("reviewer required")
	}
	artifact, err := s.artifacts.GetByID(ctx, artifactID)
	if err != nil {
		return nil, mapReadError(err, artifactID)
	}
	assignments, err := s.reviews.ListByArtifact(ctx, artifact.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if reviewer.Role != domain.ReviewerRoleAdmin && findSlot(assignments, reviewer) == nil {
		return nil, apperrors.NewForbidden("not an authorized recipient")
	}
	return s.detail.loadDetail(ctx, artifact)
}

// aggregateWith derives the prospective parent status after recording the
// actor's decision on their slot.
func (s *ReviewService) aggregateWith(assignments []domain.ReviewAssignment, slot *domain.ReviewAssignment, decision domain.ReviewDecision) domain.ArtifactStatus {
	decisions := make([]domain.ReviewDecision, 0, len(assignments))
	for i := range assignments {
		current := assignments[i].Decision
		if slot != nil && assignments[i].ID == slot.ID {
			current = decision
		}
		decisions = append(decisions, current)
	}
	return workflow.Aggregate(decisions)
}

func (s *ReviewService) lock(ctx context.Context, artifactID string) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	token := uuid.NewString()
	acquired, err := s.locker.Acquire(ctx, artifactID, token)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !acquired {
		return nil, apperrors.NewConflict("artifact is being updated by another request", map[string]any{"artifact_id": artifactID})
	}
	return func() {
		_ = s.locker.Release(ctx, artifactID, token)
	}, nil
}

func (s *ReviewService) applyTransition(ctx context.Context, update repository.TransitionUpdate) error {
	if err := s.artifacts.ApplyTransition(ctx, update); err != nil {
		return mapWriteError(err, update.Artifact.ID)
	}
	return nil
}

func (s *ReviewService) publishStatusChanged(ctx context.Context, actor events.Actor, artifactID string, oldStatus, newStatus domain.ArtifactStatus, comment string) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:         uuid.NewString(),
		Type:       events.EventArtifactStatusChanged,
		ArtifactID: artifactID,
		Actor:      actor,
		Timestamp:  time.Now(),
		Payload: events.ArtifactStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
}
