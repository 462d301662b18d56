package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/events"
	"github.com/spec-kit/approval-service/internal/repository"
	"github.com/spec-kit/approval-service/internal/workflow"
	apperrors "github.com/spec-kit/approval-service/pkg/util/errorutil"
)

// ArtifactLocker serializes transition writers per artifact id.
type ArtifactLocker interface {
	Acquire(ctx context.Context, artifactID, ownerToken string) (bool, error)
	Release(ctx context.Context, artifactID, ownerToken string) error
}

// ArtifactService owns the creator-side artifact lifecycle.
type ArtifactService struct {
	artifacts       repository.ArtifactRepository
	reviews         repository.ReviewRepository
	comments        repository.CommentRepository
	attachments     repository.AttachmentRepository
	history         repository.HistoryRepository
	departments     repository.DepartmentRepository
	reviewers       repository.ReviewerRepository
	dispatcher      events.Dispatcher
	locker          ArtifactLocker
	maxAttachments  int
	maxCommentBytes int
}

// ArtifactDependencies bundles repositories for the artifact service.
type ArtifactDependencies struct {
	ArtifactRepo   repository.ArtifactRepository
	ReviewRepo     repository.ReviewRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	HistoryRepo    repository.HistoryRepository
	DepartmentRepo repository.DepartmentRepository
	ReviewerRepo   repository.ReviewerRepository
	Dispatcher     events.Dispatcher
	Locker         ArtifactLocker
}

// RecipientInput identifies one fan-out target at submission.
type RecipientInput struct {
	Type domain.RecipientType
	ID   string
}

// AttachmentInput defines attachment metadata.
type AttachmentInput struct {
	StorageKey string
	FileName   string
	MimeType   string
	SizeBytes  int64
}

// ArtifactCreateInput describes the creation payload.
type ArtifactCreateInput struct {
	Kind              domain.ArtifactKind
	Title             string
	Description       string
	Category          string
	Priority          domain.ArtifactPriority
	RequiresSignature bool
	Recipients        []RecipientInput
	Attachments       []AttachmentInput
	Draft             bool
}

// ArtifactPatch carries creator edits; nil fields are left untouched.
type ArtifactPatch struct {
	Title             *string
	Description       *string
	Category          *string
	Priority          *domain.ArtifactPriority
	RequiresSignature *bool
}

// SignatureInput carries the one-shot signature payload.
type SignatureInput struct {
	Type domain.SignatureType
	Data string
}

// ArtifactListFilter describes creator listing filters.
type ArtifactListFilter struct {
	Kind        *domain.ArtifactKind
	Statuses    []domain.ArtifactStatus
	Priorities  []domain.ArtifactPriority
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// ArtifactDetail aggregates everything a detail view needs.
type ArtifactDetail struct {
	Artifact    *domain.Artifact
	Assignments []domain.ReviewAssignment
	Comments    []domain.ArtifactComment
	Attachments []domain.AttachmentReference
	History     []domain.ArtifactHistory
}

// NewArtifactService constructs the service.
func NewArtifactService(cfg config.WorkflowConfig, deps ArtifactDependencies) *ArtifactService {
	return &ArtifactService{
		artifacts:       deps.ArtifactRepo,
		reviews:         deps.ReviewRepo,
		comments:        deps.CommentRepo,
		attachments:     deps.AttachmentRepo,
		history:         deps.HistoryRepo,
		departments:     deps.DepartmentRepo,
		reviewers:       deps.ReviewerRepo,
		dispatcher:      deps.Dispatcher,
		locker:          deps.Locker,
		maxAttachments:  cfg.MaxAttachments,
		maxCommentBytes: cfg.MaxCommentBytes,
	}
}

// Create creates an artifact as a draft or submits it immediately.
func (s *ArtifactService) Create(ctx context.Context, employeeID string, input ArtifactCreateInput) (*domain.Artifact, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)
	if !input.Draft {
		if err := s.validateSubmission(ctx, title, description, input.Recipients); err != nil {
			return nil, err
		}
	}

	if s.maxAttachments > 0 && len(input.Attachments) > s.maxAttachments {
		return nil, apperrors.NewValidationError("too many attachments", map[string]any{"max": s.maxAttachments})
	}

	kind := input.Kind
	if kind == "" {
		kind = domain.ArtifactKindRequest
	}

	artifact := &domain.Artifact{
		ExternalKey:       generateArtifactKey(kind),
		Kind:              kind,
		CreatedBy:         employeeID,
		Title:             title,
		Description:       description,
		Category:          strings.TrimSpace(input.Category),
		Status:            domain.ArtifactStatusDraft,
		Priority:          input.Priority,
		RequiresSignature: input.RequiresSignature,
	}
	if artifact.Priority == "" {
		artifact.Priority = domain.ArtifactPriorityMedium
	}
	if !input.Draft {
		artifact.Status = domain.ArtifactStatusPending
	}

	attachments := make([]domain.AttachmentReference, 0, len(input.Attachments))
	for _, att := range input.Attachments {
		attachments = append(attachments, domain.AttachmentReference{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	var assignments []domain.ReviewAssignment
	if !input.Draft {
		assignments = buildAssignments("", input.Recipients)
	}

	// The artifact row, its attachments, and the fan-out slots persist
	// together or not at all.
	if err := s.artifacts.Create(ctx, artifact, attachments, assignments); err != nil {
		return nil, apperrors.MapError(err)
	}

	if !input.Draft {
		s.publishSubmitted(ctx, employeeID, artifact, input.Recipients)
	}
	return artifact, nil
}

// Submit moves a draft into review, validating required fields and fan-out
// targets, and creates the review slots atomically with the transition.
func (s *ArtifactService) Submit(ctx context.Context, employeeID, artifactID string, recipients []RecipientInput) (*domain.Artifact, error) {
	artifact, err := s.ownedArtifact(ctx, employeeID, artifactID)
	if err != nil {
		return nil, err
	}

	if err := s.validateSubmission(ctx, artifact.Title, artifact.Description, recipients); err != nil {
		return nil, err
	}
	next, err := workflow.Transition(artifact.Status, workflow.ActionSubmit)
	if err != nil {
		return nil, apperrors.NewInvalidTransition(err.Error(), map[string]any{"status": artifact.Status})
	}

	unlock, err := s.lock(ctx, artifact.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	oldStatus := artifact.Status
	artifact.Status = next
	update := repository.TransitionUpdate{
		Artifact:        artifact,
		ExpectedVersion: artifact.Version,
		History:         statusHistory(domain.AuthorTypeEmployee, &employeeID, artifact.ID, oldStatus, next, "submitted"),
		NewAssignments:  buildAssignments(artifact.ID, recipients),
	}
	if err := s.applyTransition(ctx, update); err != nil {
		return nil, err
	}
	s.publishSubmitted(ctx, employeeID, artifact, recipients)
	return artifact, nil
}

// Edit applies a creator patch while the artifact is still mutable.
func (s *ArtifactService) Edit(ctx context.Context, employeeID, artifactID string, patch ArtifactPatch) (*domain.Artifact, error) {
	artifact, err := s.ownedArtifact(ctx, employeeID, artifactID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanEdit(artifact.Status) {
		return nil, apperrors.NewInvalidState("artifact is no longer editable", map[string]any{"status": artifact.Status})
	}

	old := map[string]any{
		"title":       artifact.Title,
		"description": artifact.Description,
		"category":    artifact.Category,
		"priority":    artifact.Priority,
	}
	if patch.Title != nil {
		artifact.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		artifact.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Category != nil {
		artifact.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Priority != nil {
		artifact.Priority = *patch.Priority
	}
	if patch.RequiresSignature != nil {
		artifact.RequiresSignature = *patch.RequiresSignature
	}
	if artifact.Title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}

	entry := &domain.ArtifactHistory{
		ArtifactID:    artifact.ID,
		ChangedByType: domain.AuthorTypeEmployee,
		ChangedByID:   &employeeID,
		ChangeType:    domain.ChangeTypeContent,
		OldValue:      old,
		NewValue: map[string]any{
			"title":       artifact.Title,
			"description": artifact.Description,
			"category":    artifact.Category,
			"priority":    artifact.Priority,
		},
	}
	if err := s.artifacts.UpdateContent(ctx, artifact, artifact.Version, entry); err != nil {
		return nil, mapWriteError(err, artifact.ID)
	}
	return artifact, nil
}

// Resubmit returns a sent-back artifact to review. It requires that the
// creator actually corrected something since the send-back; all previous
// review decisions are reset so every recipient reviews the new content.
func (s *ArtifactService) Resubmit(ctx context.Context, employeeID, artifactID string) (*domain.Artifact, error) {
	artifact, err := s.ownedArtifact(ctx, employeeID, artifactID)
	if err != nil {
		return nil, err
	}
	next, err := workflow.Transition(artifact.Status, workflow.ActionResubmit)
	if err != nil {
		return nil, apperrors.NewInvalidTransition(err.Error(), map[string]any{"status": artifact.Status})
	}
	edited, err := s.editedSinceSendBack(ctx, artifact.ID)
	if err != nil {
		return nil, err
	}
	if !edited {
		return nil, apperrors.NewValidationError("no correction made since send-back", nil)
	}

	unlock, err := s.lock(ctx, artifact.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	oldStatus := artifact.Status
	artifact.Status = next
	update := repository.TransitionUpdate{
		Artifact:        artifact,
		ExpectedVersion: artifact.Version,
		History:         statusHistory(domain.AuthorTypeEmployee, &employeeID, artifact.ID, oldStatus, next, "resubmitted"),
		ResetDecisions:  true,
	}
	if err := s.applyTransition(ctx, update); err != nil {
		return nil, err
	}
	s.publishStatusChanged(ctx, employeeActor(employeeID), artifact.ID, oldStatus, next, "resubmitted")
	return artifact, nil
}

// ProvideSignature records the one-shot signature and resolves the artifact.
func (s *ArtifactService) ProvideSignature(ctx context.Context, employeeID, artifactID string, input SignatureInput) (*domain.Artifact, error) {
	artifact, err := s.ownedArtifact(ctx, employeeID, artifactID)
	if err != nil {
		return nil, err
	}
	if artifact.SignatureProvided() {
		return nil, apperrors.NewDuplicateSignature(artifact.ID)
	}
	if strings.TrimSpace(input.Data) == "" {
		return nil, apperrors.NewValidationError("signature payload required", nil)
	}
	next, err := workflow.Transition(artifact.Status, workflow.ActionProvideSignature)
	if err != nil {
		return nil, apperrors.NewInvalidTransition(err.Error(), map[string]any{"status": artifact.Status})
	}

	unlock, err := s.lock(ctx, artifact.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := time.Now()
	oldStatus := artifact.Status
	artifact.Status = next
	artifact.ResolvedAt = &now
	artifact.Signature = &domain.Signature{
		Type:     input.Type,
		Data:     input.Data,
		SignedBy: employeeID,
		SignedAt: now,
	}

	comment := &domain.ArtifactComment{
		ArtifactID:  artifact.ID,
		AuthorType:  domain.AuthorTypeEmployee,
		AuthorID:    &employeeID,
		Body:        signatureBody(input),
		IsSignature: true,
	}
	history := &domain.ArtifactHistory{
		ArtifactID:    artifact.ID,
		ChangedByType: domain.AuthorTypeEmployee,
		ChangedByID:   &employeeID,
		ChangeType:    domain.ChangeTypeSignature,
		OldValue:      map[string]any{"status": oldStatus},
		NewValue:      map[string]any{"status": next, "signature_type": input.Type},
	}
	update := repository.TransitionUpdate{
		Artifact:        artifact,
		ExpectedVersion: artifact.Version,
		Comment:         comment,
		History:         history,
	}
	if err := s.applyTransition(ctx, update); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:       events.EventArtifactSignatureProvided,
		ArtifactID: artifact.ID,
		Actor:      employeeActor(employeeID),
		Payload: events.ArtifactSignatureProvidedPayload{
			SignatureType: input.Type,
			SignedBy:      employeeID,
		},
	})
	s.publishStatusChanged(ctx, employeeActor(employeeID), artifact.ID, oldStatus, next, "signature provided")
	return artifact, nil
}

// AddComment appends to the audit trail. Legal for any participant in any
// state and never mutates status.
func (s *ArtifactService) AddComment(ctx context.Context, actorType domain.CommentAuthorType, actorID, artifactID, body string) (*domain.ArtifactComment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("comment text required", nil)
	}
	if s.maxCommentBytes > 0 && len(body) > s.maxCommentBytes {
		return nil, apperrors.NewValidationError("comment too long", map[string]any{"max_bytes": s.maxCommentBytes})
	}
	artifact, err := s.artifacts.GetByID(ctx, artifactID)
	if err != nil {
		return nil, mapReadError(err, artifactID)
	}
	if err := s.requireParticipant(ctx, actorType, actorID, artifact); err != nil {
		return nil, err
	}

	comment := &domain.ArtifactComment{
		ArtifactID: artifact.ID,
		AuthorType: actorType,
		AuthorID:   &actorID,
		Body:       body,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventArtifactCommentAdded,
		ArtifactID: artifact.ID,
		Actor:      actorFor(actorType, actorID),
		Payload: events.ArtifactCommentAddedPayload{
			CommentID:   comment.ID,
			AuthorType:  comment.AuthorType,
			AuthorID:    comment.AuthorID,
			IsSignature: comment.IsSignature,
			BodyPreview: stringPreview(comment.Body, 120),
		},
	})
	return comment, nil
}

// AddAttachment appends a file to an artifact still in a mutable state.
func (s *ArtifactService) AddAttachment(ctx context.Context, employeeID, artifactID string, input AttachmentInput) (*domain.AttachmentReference, error) {
	artifact, err := s.ownedArtifact(ctx, employeeID, artifactID)
	if err != nil {
		return nil, err
	}
	if !workflow.CanEdit(artifact.Status) {
		return nil, apperrors.NewInvalidState("attachments are frozen in current status", map[string]any{"status": artifact.Status})
	}
	if s.maxAttachments > 0 {
		count, err := s.attachments.CountByArtifact(ctx, artifact.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if count >= s.maxAttachments {
			return nil, apperrors.NewValidationError("too many attachments", map[string]any{"max": s.maxAttachments})
		}
	}
	record := &domain.AttachmentReference{
		ArtifactID: artifact.ID,
		StorageKey: input.StorageKey,
		FileName:   input.FileName,
		MimeType:   input.MimeType,
		SizeBytes:  input.SizeBytes,
	}
	entry := &domain.ArtifactHistory{
		ArtifactID:    artifact.ID,
		ChangedByType: domain.AuthorTypeEmployee,
		ChangedByID:   &employeeID,
		ChangeType:    domain.ChangeTypeContent,
		OldValue:      map[string]any{},
		NewValue:      map[string]any{"attachment": record.FileName},
	}
	if err := s.attachments.Create(ctx, record, entry); err != nil {
		return nil, apperrors.MapError(err)
	}
	return record, nil
}

// ListForCreator returns artifacts submitted by the employee.
func (s *ArtifactService) ListForCreator(ctx context.Context, employeeID string, filter ArtifactListFilter) ([]domain.Artifact, error) {
	repoFilter := repository.ArtifactFilter{
		CreatedBy:   &employeeID,
		Kind:        filter.Kind,
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	return s.artifacts.ListWithFilter(ctx, repoFilter)
}

// GetForCreator fetches a detail view ensuring ownership. The reference may be
// the artifact id or its human-facing external key.
func (s *ArtifactService) GetForCreator(ctx context.Context, employeeID, ref string) (*ArtifactDetail, error) {
	artifact, err := s.ownedArtifact(ctx, employeeID, ref)
	if err != nil {
		return nil, err
	}
	return s.loadDetail(ctx, artifact)
}

func (s *ArtifactService) loadDetail(ctx context.Context, artifact *domain.Artifact) (*ArtifactDetail, error) {
	assignments, err := s.reviews.ListByArtifact(ctx, artifact.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	comments, err := s.comments.ListByArtifact(ctx, artifact.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	attachments, err := s.attachments.ListByArtifact(ctx, artifact.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	history, err := s.history.ListByArtifact(ctx, artifact.ID, 100, 0)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return &ArtifactDetail{
		Artifact:    artifact,
		Assignments: assignments,
		Comments:    comments,
		Attachments: attachments,
		History:     history,
	}, nil
}

func (s *ArtifactService) validateSubmission(ctx context.Context, title, description string, recipients []RecipientInput) error {
	details := map[string]any{}
	if strings.TrimSpace(title) == "" {
		details["title"] = "required"
	}
	if strings.TrimSpace(description) == "" {
		details["description"] = "required"
	}
	if len(recipients) == 0 {
		details["recipients"] = "at least one required"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("missing required fields", details)
	}

	seen := make(map[string]struct{}, len(recipients))
	for _, recipient := range recipients {
		key := string(recipient.Type) + ":" + recipient.ID
		if _, dup := seen[key]; dup {
			return apperrors.NewValidationError("duplicate recipient", map[string]any{"recipient": recipient.ID})
		}
		seen[key] = struct{}{}

		switch recipient.Type {
		case domain.RecipientTypeDepartment:
			dept, err := s.departments.GetByID(ctx, recipient.ID)
			if err != nil {
				return mapReadError(err, recipient.ID)
			}
			if !dept.IsActive {
				return apperrors.NewValidationError("department inactive", map[string]any{"department_id": recipient.ID})
			}
		case domain.RecipientTypeReviewer:
			reviewer, err := s.reviewers.GetByID(ctx, recipient.ID)
			if err != nil {
				return mapReadError(err, recipient.ID)
			}
			if !reviewer.Active {
				return apperrors.NewValidationError("reviewer inactive", map[string]any{"reviewer_id": recipient.ID})
			}
		default:
			return apperrors.NewValidationError("unknown recipient type", map[string]any{"type": recipient.Type})
		}
	}
	return nil
}

// editedSinceSendBack checks the history for a content change after the most
// recent send-back.
func (s *ArtifactService) editedSinceSendBack(ctx context.Context, artifactID string) (bool, error) {
	sentBack, err := s.history.LatestStatusChange(ctx, artifactID, domain.ArtifactStatusSentBack)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		return false, apperrors.MapError(err)
	}
	edited, err := s.history.HasContentChangeSince(ctx, artifactID, sentBack.CreatedAt)
	if err != nil {
		return false, apperrors.MapError(err)
	}
	return edited, nil
}

func (s *ArtifactService) ownedArtifact(ctx context.Context, employeeID, ref string) (*domain.Artifact, error) {
	artifact, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if artifact.CreatedBy != employeeID {
		return nil, apperrors.NewForbidden("not the artifact creator")
	}
	return artifact, nil
}

// resolve looks an artifact up by id, or by external key when the reference
// carries a key prefix.
func (s *ArtifactService) resolve(ctx context.Context, ref string) (*domain.Artifact, error) {
	if strings.HasPrefix(ref, "REQ-") || strings.HasPrefix(ref, "DOC-") {
		artifact, err := s.artifacts.GetByExternalKey(ctx, ref)
		if err != nil {
			return nil, mapReadError(err, ref)
		}
		return artifact, nil
	}
	artifact, err := s.artifacts.GetByID(ctx, ref)
	if err != nil {
		return nil, mapReadError(err, ref)
	}
	return artifact, nil
}

func (s *ArtifactService) requireParticipant(ctx context.Context, actorType domain.CommentAuthorType, actorID string, artifact *domain.Artifact) error {
	switch actorType {
	case domain.AuthorTypeEmployee:
		if artifact.CreatedBy != actorID {
			return apperrors.NewForbidden("not a participant")
		}
	case domain.AuthorTypeReviewer:
		reviewer, err := s.reviewers.GetByID(ctx, actorID)
		if err != nil {
			return mapReadError(err, actorID)
		}
		if reviewer.Role == domain.ReviewerRoleAdmin {
			return nil
		}
		assignments, err := s.reviews.ListByArtifact(ctx, artifact.ID)
		if err != nil {
			return apperrors.MapError(err)
		}
		if findSlot(assignments, reviewer) == nil {
			return apperrors.NewForbidden("not a participant")
		}
	default:
		return apperrors.NewForbidden("unknown actor")
	}
	return nil
}

func (s *ArtifactService) lock(ctx context.Context, artifactID string) (func(), error) {
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

func (s *ArtifactService) applyTransition(ctx context.Context, update repository.TransitionUpdate) error {
	if err := s.artifacts.ApplyTransition(ctx, update); err != nil {
		return mapWriteError(err, update.Artifact.ID)
	}
	return nil
}

func mapWriteError(err error, artifactID string) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		return apperrors.NewConflict("artifact was modified concurrently; refresh and retry", map[string]any{"artifact_id": artifactID})
	}
	return mapReadError(err, artifactID)
}

func mapReadError(err error, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("artifact", map[string]any{"id": id})
	}
	return apperrors.MapError(err)
}

func (s *ArtifactService) publishSubmitted(ctx context.Context, employeeID string, artifact *domain.Artifact, recipients []RecipientInput) {
	refs := make([]events.RecipientRef, 0, len(recipients))
	for _, recipient := range recipients {
		refs = append(refs, events.RecipientRef{Type: recipient.Type, ID: recipient.ID})
	}
	s.publishEvent(ctx, events.Event{
		Type:       events.EventArtifactSubmitted,
		ArtifactID: artifact.ID,
		Actor:      employeeActor(employeeID),
		Payload: events.ArtifactSubmittedPayload{
			Kind:       artifact.Kind,
			Title:      artifact.Title,
			Priority:   artifact.Priority,
			Recipients: refs,
		},
	})
}

func (s *ArtifactService) publishStatusChanged(ctx context.Context, actor events.Actor, artifactID string, oldStatus, newStatus domain.ArtifactStatus, comment string) {
	s.publishEvent(ctx, events.Event{
		Type:       events.EventArtifactStatusChanged,
		ArtifactID: artifactID,
		Actor:      actor,
		Payload: events.ArtifactStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
}

func (s *ArtifactService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func buildAssignments(artifactID string, recipients []RecipientInput) []domain.ReviewAssignment {
	assignments := make([]domain.ReviewAssignment, 0, len(recipients))
	for _, recipient := range recipients {
		assignments = append(assignments, domain.ReviewAssignment{
			ArtifactID:    artifactID,
			RecipientType: recipient.Type,
			RecipientID:   recipient.ID,
			Decision:      domain.ReviewDecisionPending,
		})
	}
	return assignments
}

// findSlot locates the review slot a reviewer may act through, either a slot
// addressed to them directly or to their department.
func findSlot(assignments []domain.ReviewAssignment, reviewer *domain.Reviewer) *domain.ReviewAssignment {
	for i := range assignments {
		slot := &assignments[i]
		if slot.RecipientType == domain.RecipientTypeReviewer && slot.RecipientID == reviewer.ID {
			return slot
		}
		if slot.RecipientType == domain.RecipientTypeDepartment && reviewer.DepartmentID != nil && slot.RecipientID == *reviewer.DepartmentID {
			return slot
		}
	}
	return nil
}

func statusHistory(actorType domain.CommentAuthorType, actorID *string, artifactID string, oldStatus, newStatus domain.ArtifactStatus, comment string) *domain.ArtifactHistory {
	return &domain.ArtifactHistory{
		ArtifactID:    artifactID,
		ChangedByType: actorType,
		ChangedByID:   actorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status":  newStatus,
			"comment": comment,
		},
	}
}

func signatureBody(input SignatureInput) string {
	if input.Type == domain.SignatureTypeText {
		return "Signed: " + strings.TrimSpace(input.Data)
	}
	return "Signature provided"
}

func employeeActor(employeeID string) events.Actor {
	return events.Actor{
		Type:       domain.SubjectTypeEmployee,
		EmployeeID: &employeeID,
	}
}

func reviewerActor(reviewerID string) events.Actor {
	return events.Actor{
		Type:       domain.SubjectTypeReviewer,
		ReviewerID: &reviewerID,
	}
}

func actorFor(actorType domain.CommentAuthorType, id string) events.Actor {
	if actorType == domain.AuthorTypeReviewer {
		return reviewerActor(id)
	}
	return employeeActor(id)
}

func generateArtifactKey(kind domain.ArtifactKind) string {
	prefix := "REQ-"
	if kind == domain.ArtifactKindFile {
		prefix = "DOC-"
	}
	return prefix + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
