package domain

import "time"

// ArtifactChangeType captures what changed in a history entry.
type ArtifactChangeType string

const (
	ChangeTypeStatus    ArtifactChangeType = "STATUS_CHANGE"
	ChangeTypeContent   ArtifactChangeType = "CONTENT_CHANGE"
	ChangeTypePriority  ArtifactChangeType = "PRIORITY_CHANGE"
	ChangeTypeSignature ArtifactChangeType = "SIGNATURE_RECORDED"
	ChangeTypeDecision  ArtifactChangeType = "REVIEW_DECISION"
)

// ArtifactHistory is an immutable audit trail entry.
type ArtifactHistory struct {
	ID            string
	ArtifactID    string
	ChangedByType CommentAuthorType
	ChangedByID   *string
	ChangeType    ArtifactChangeType
	OldValue      map[string]any
	NewValue      map[string]any
	CreatedAt     time.Time
}
