package dto

import "github.com/spec-kit/approval-service/internal/domain"

// ReviewerLoginRequest payload.
type ReviewerLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateReviewerRequest payload for admin reviewer creation.
type CreateReviewerRequest struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Password     string              `json:"password"`
	Role         domain.ReviewerRole `json:"role"`
	DepartmentID *string             `json:"department_id"`
}

// UpdateReviewerRequest payload for admin reviewer updates.
type UpdateReviewerRequest struct {
	Name         string              `json:"name"`
	Email        string              `json:"email"`
	Role         domain.ReviewerRole `json:"role"`
	DepartmentID *string             `json:"department_id"`
	Active       bool                `json:"active"`
}

// CreateDepartmentRequest payload.
type CreateDepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateDepartmentRequest payload.
type UpdateDepartmentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsActive    bool   `json:"is_active"`
}
