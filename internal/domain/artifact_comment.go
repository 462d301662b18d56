package domain

import "time"

// CommentAuthorType indicates who authored a comment.
type CommentAuthorType string

const (
	AuthorTypeEmployee CommentAuthorType = "EMPLOYEE"
	AuthorTypeReviewer CommentAuthorType = "REVIEWER"
	AuthorTypeSystem   CommentAuthorType = "SYSTEM"
)

// ArtifactComment is one entry of the append-only audit trail.
// CreatedAt is assigned by the database so ordering is server-observed.
type ArtifactComment struct {
	ID          string
	ArtifactID  string
	AuthorType  CommentAuthorType
	AuthorID    *string
	Body        string
	IsSignature bool
	CreatedAt   time.Time
}
