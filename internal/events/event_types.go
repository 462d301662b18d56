package events

import (
	"time"

	"github.com/spec-kit/approval-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventArtifactSubmitted         EventType = "artifact_submitted"
	EventArtifactStatusChanged     EventType = "artifact_status_changed"
	EventArtifactCommentAdded      EventType = "artifact_comment_added"
	EventArtifactSignatureProvided EventType = "artifact_signature_provided"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Type       domain.SubjectType `json:"type"`
	EmployeeID *string            `json:"employee_id,omitempty"`
	ReviewerID *string            `json:"reviewer_id,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID         string      `json:"id"`
	Type       EventType   `json:"type"`
	ArtifactID string      `json:"artifact_id"`
	Actor      Actor       `json:"actor"`
	Timestamp  time.Time   `json:"timestamp"`
	Payload    interface{} `json:"payload"`
}

// ArtifactSubmittedPayload payload.
type ArtifactSubmittedPayload struct {
	Kind       domain.ArtifactKind     `json:"kind"`
	Title      string                  `json:"title"`
	Priority   domain.ArtifactPriority `json:"priority"`
	Recipients []RecipientRef          `json:"recipients"`
}

// RecipientRef identifies one fan-out target.
type RecipientRef struct {
	Type domain.RecipientType `json:"type"`
	ID   string               `json:"id"`
}

// ArtifactStatusChangedPayload payload.
type ArtifactStatusChangedPayload struct {
	OldStatus domain.ArtifactStatus `json:"old_status"`
	NewStatus domain.ArtifactStatus `json:"new_status"`
	Comment   string                `json:"comment,omitempty"`
}

// ArtifactCommentAddedPayload payload.
type ArtifactCommentAddedPayload struct {
	CommentID   string                   `json:"comment_id"`
	AuthorType  domain.CommentAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id,omitempty"`
	IsSignature bool                     `json:"is_signature"`
	BodyPreview string                   `json:"body_preview"`
}

// ArtifactSignatureProvidedPayload payload.
type ArtifactSignatureProvidedPayload struct {
	SignatureType domain.SignatureType `json:"signature_type"`
	SignedBy      string               `json:"signed_by"`
}
