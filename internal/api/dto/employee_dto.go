package dto

import "time"

// EmployeeRegisterRequest payload for new employees.
type EmployeeRegisterRequest struct {
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	DepartmentID *string `json:"department_id"`
}

// EmployeeLoginRequest payload for login.
type EmployeeLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}
