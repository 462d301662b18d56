package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/approval-service/internal/api/dto"
	"github.com/spec-kit/approval-service/internal/service"
	apperrors "github.com/spec-kit/approval-service/pkg/util/errorutil"
)

// EmployeesHandler exposes auth endpoints for employees.
type EmployeesHandler struct {
	auth *service.AuthService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(authService *service.AuthService) *EmployeesHandler {
	return &EmployeesHandler{auth: authService}
}

// Register handles POST /auth/employees/register.
func (h *EmployeesHandler) Register(c *fiber.Ctx) error {
	var req dto.EmployeeRegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" || req.Name == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}

	employee, token, exp, err := h.auth.RegisterEmployee(c.Context(), req.Name, req.Email, req.Password, req.DepartmentID)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"employee": fiber.Map{
				"id":    employee.ID,
				"name":  employee.Name,
				"email": employee.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}

// Login handles POST /auth/employees/login.
func (h *EmployeesHandler) Login(c *fiber.Ctx) error {
	var req dto.EmployeeLoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	employee, token, exp, err := h.auth.LoginEmployee(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": fiber.Map{
			"employee": fiber.Map{
				"id":    employee.ID,
				"name":  employee.Name,
				"email": employee.Email,
			},
			"auth": dto.AuthResponse{Token: token, ExpiresAt: exp},
		},
	})
}
