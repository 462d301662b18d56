package dto

import (
	"time"

	"github.com/spec-kit/approval-service/internal/domain"
)

// CreateArtifactRequest payload.
type CreateArtifactRequest struct {
	Kind              domain.ArtifactKind     `json:"kind"`
	Title             string                  `json:"title"`
	Description       string                  `json:"description"`
	Category          string                  `json:"category"`
	Priority          domain.ArtifactPriority `json:"priority"`
	RequiresSignature bool                    `json:"requires_signature"`
	Recipients        []RecipientRequest      `json:"recipients"`
	Attachments       []AttachmentRequest     `json:"attachments"`
	Draft             bool                    `json:"draft"`
}

// RecipientRequest identifies one fan-out target.
type RecipientRequest struct {
	Type domain.RecipientType `json:"type"`
	ID   string               `json:"id"`
}

// SubmitArtifactRequest payload for submitting a draft.
type SubmitArtifactRequest struct {
	Recipients []RecipientRequest `json:"recipients"`
}

// EditArtifactRequest payload; omitted fields are left untouched.
type EditArtifactRequest struct {
	Title             *string                  `json:"title"`
	Description       *string                  `json:"description"`
	Category          *string                  `json:"category"`
	Priority          *domain.ArtifactPriority `json:"priority"`
	RequiresSignature *bool                    `json:"requires_signature"`
}

// SignatureRequest payload for the one-shot signature.
type SignatureRequest struct {
	Type domain.SignatureType `json:"type"`
	Data string               `json:"data"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Body string `json:"body"`
}

// AttachmentRequest describes attachment input.
type AttachmentRequest struct {
	StorageKey string `json:"storage_key"`
	FileName   string `json:"file_name"`
	MimeType   string `json:"mime_type"`
	SizeBytes  int64  `json:"size_bytes"`
}

// ArtifactSummary response.
type ArtifactSummary struct {
	ID                string                  `json:"id"`
	ExternalKey       string                  `json:"external_key"`
	Kind              domain.ArtifactKind     `json:"kind"`
	Title             string                  `json:"title"`
	Category          string                  `json:"category,omitempty"`
	Status            domain.ArtifactStatus   `json:"status"`
	Priority          domain.ArtifactPriority `json:"priority"`
	RequiresSignature bool                    `json:"requires_signature"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
	ResolvedAt        *time.Time              `json:"resolved_at,omitempty"`
}

// ArtifactDetailResponse provides full artifact info.
type ArtifactDetailResponse struct {
	ID                string                  `json:"id"`
	ExternalKey       string                  `json:"external_key"`
	Kind              domain.ArtifactKind     `json:"kind"`
	CreatedBy         string                  `json:"created_by"`
	Title             string                  `json:"title"`
	Description       string                  `json:"description"`
	Category          string                  `json:"category,omitempty"`
	Status            domain.ArtifactStatus   `json:"status"`
	Priority          domain.ArtifactPriority `json:"priority"`
	RequiresSignature bool                    `json:"requires_signature"`
	Signature         *SignatureResponse      `json:"signature,omitempty"`
	Version           int64                   `json:"version"`
	CreatedAt         time.Time               `json:"created_at"`
	UpdatedAt         time.Time               `json:"updated_at"`
	ResolvedAt        *time.Time              `json:"resolved_at,omitempty"`
	Assignments       []AssignmentResponse    `json:"assignments"`
	Comments          []CommentResponse       `json:"comments"`
	Attachments       []AttachmentResponse    `json:"attachments"`
	History           []HistoryResponse       `json:"history"`
}

// SignatureResponse omits the raw payload for image signatures.
type SignatureResponse struct {
	Type     domain.SignatureType `json:"type"`
	SignedBy string               `json:"signed_by"`
	SignedAt time.Time            `json:"signed_at"`
}

// AssignmentResponse represents one review slot.
type AssignmentResponse struct {
	ID            string                `json:"id"`
	RecipientType domain.RecipientType  `json:"recipient_type"`
	RecipientID   string                `json:"recipient_id"`
	Decision      domain.ReviewDecision `json:"decision"`
	DecidedBy     *string               `json:"decided_by,omitempty"`
	DecidedAt     *time.Time            `json:"decided_at,omitempty"`
}

// CommentResponse represents an audit trail comment.
type CommentResponse struct {
	ID          string                   `json:"id"`
	AuthorType  domain.CommentAuthorType `json:"author_type"`
	AuthorID    *string                  `json:"author_id,omitempty"`
	Body        string                   `json:"body"`
	IsSignature bool                     `json:"is_signature"`
	CreatedAt   time.Time                `json:"created_at"`
}

// AttachmentResponse metadata.
type AttachmentResponse struct {
	ID        string `json:"id"`
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

// HistoryResponse represents an audit trail entry.
type HistoryResponse struct {
	ID            string                    `json:"id"`
	ChangeType    domain.ArtifactChangeType `json:"change_type"`
	ChangedByType domain.CommentAuthorType  `json:"changed_by_type"`
	ChangedByID   *string                   `json:"changed_by_id,omitempty"`
	OldValue      map[string]any            `json:"old_value"`
	NewValue      map[string]any            `json:"new_value"`
	CreatedAt     time.Time                 `json:"created_at"`
}
