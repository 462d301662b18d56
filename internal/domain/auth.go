package domain

import "time"

// SubjectType differentiates employee vs reviewer tokens.
type SubjectType string

const (
	SubjectTypeEmployee SubjectType = "EMPLOYEE"
	SubjectTypeReviewer SubjectType = "REVIEWER"
)

// Token represents issued authentication token metadata.
type Token struct {
	ID        string
	SubjectID string
	Subject   SubjectType
	Role      *ReviewerRole
	ExpiresAt time.Time
	IssuedAt  time.Time
}
