package domain

import "time"

// RecipientType distinguishes department-level routing from named reviewers.
type RecipientType string

const (
	RecipientTypeDepartment RecipientType = "DEPARTMENT"
	RecipientTypeReviewer   RecipientType = "REVIEWER"
)

// ReviewDecision is the outcome recorded on a single review slot.
type ReviewDecision string

const (
	ReviewDecisionPending  ReviewDecision = "PENDING"
	ReviewDecisionApproved ReviewDecision = "APPROVED"
	ReviewDecisionRejected ReviewDecision = "REJECTED"
)

// ReviewAssignment is one fan-out slot created at submission.
// The parent artifact status is derived from the set of slots, never the
// other way around.
type ReviewAssignment struct {
	ID            string
	ArtifactID    string
	RecipientType RecipientType
	RecipientID   string
	Decision      ReviewDecision
	DecidedBy     *string
	DecidedAt     *time.Time
	CreatedAt     time.Time
}
