package domain

import "time"

// EmployeeStatus represents lifecycle states for an employee account.
type EmployeeStatus string

const (
	EmployeeStatusActive    EmployeeStatus = "ACTIVE"
	EmployeeStatusSuspended EmployeeStatus = "SUSPENDED"
)

// Employee is the domain model for staff who submit artifacts.
type Employee struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	DepartmentID *string
	Status       EmployeeStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
