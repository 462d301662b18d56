package domain

import "time"

// ReviewerRole enumerates reviewer privileges.
type ReviewerRole string

const (
	ReviewerRoleDirector ReviewerRole = "DIRECTOR"
	ReviewerRoleAdmin    ReviewerRole = "ADMIN"
)

// Reviewer models a director or administrator who acts on artifacts.
// Directors are scoped to a department; admins see everything.
type Reviewer struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         ReviewerRole
	DepartmentID *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
