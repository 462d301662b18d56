package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/approval-service/internal/api/dto"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/service"
	apperrors "github.com/spec-kit/approval-service/pkg/util/errorutil"
)

// DirectoryHandler exposes department and reviewer administration.
type DirectoryHandler struct {
	directory *service.DirectoryService
}

// NewDirectoryHandler constructs handler.
func NewDirectoryHandler(directoryService *service.DirectoryService) *DirectoryHandler {
	return &DirectoryHandler{directory: directoryService}
}

// ListDepartments GET /directory/departments. Open to any authenticated caller
// so employees can pick fan-out targets.
func (h *DirectoryHandler) ListDepartments(c *fiber.Ctx) error {
	includeInactive := c.Query("include_inactive") == "true"
	departments, err := h.directory.ListDepartments(c.Context(), includeInactive)
	if err != nil {
		return err
	}
	items := make([]fiber.Map, 0, len(departments))
	for i := range departments {
		items = append(items, departmentResponse(&departments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateDepartment POST /directory/departments.
func (h *DirectoryHandler) CreateDepartment(c *fiber.Ctx) error {
	admin, err := requireReviewer(c)
	if err != nil {
		return err
	}
	var req dto.CreateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Name) == "" {
		return apperrors.NewValidationError("name required", nil)
	}
	dept, err := h.directory.CreateDepartment(c.Context(), admin, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": departmentResponse(dept)})
}

// GetDepartment GET /directory/departments/:id.
func (h *DirectoryHandler) GetDepartment(c *fiber.Ctx) error {
	dept, err := h.directory.GetDepartmentByID(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(dept)})
}

// UpdateDepartment PUT /directory/departments/:id.
func (h *DirectoryHandler) UpdateDepartment(c *fiber.Ctx) error {
	admin, err := requireReviewer(c)
	if err != nil {
		return err
	}
	var req dto.UpdateDepartmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	dept := &domain.Department{
		ID:          c.Params("id"),
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	}
	updated, err := h.directory.UpdateDepartment(c.Context(), admin, dept)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": departmentResponse(updated)})
}

// CreateReviewer POST /directory/reviewers.
func (h *DirectoryHandler) CreateReviewer(c *fiber.Ctx) error {
	admin, err := requireReviewer(c)
	if err != nil {
		return err
	}
	var req dto.CreateReviewerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("name, email, password required", nil)
	}
	reviewer, err := h.directory.CreateReviewer(c.Context(), admin, req.Name, req.Email, req.Password, req.Role, req.DepartmentID)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": reviewerResponse(reviewer)})
}

// ListReviewers GET /directory/reviewers.
func (h *DirectoryHandler) ListReviewers(c *fiber.Ctx) error {
	admin, err := requireReviewer(c)
	if err != nil {
		return err
	}
	filters := service.ReviewerListFilters{
		Limit:  parseInt(c.Query("page_size"), 50),
		Offset: (parseInt(c.Query("page"), 1) - 1) * parseInt(c.Query("page_size"), 50),
	}
	if roleStr := c.Query("role"); roleStr != "" {
		role := domain.ReviewerRole(strings.ToUpper(strings.TrimSpace(roleStr)))
		filters.Role = &role
	}
	if deptID := c.Query("department_id"); deptID != "" {
		filters.DepartmentID = &deptID
	}
	if activeStr := c.Query("active"); activeStr != "" {
		active := activeStr == "true"
		filters.Active = &active
	}
	reviewers, err := h.directory.ListReviewers(c.Context(), admin, filters)
	if err != nil {
		return err
	}
	items := make([]fiber.Map, 0, len(reviewers))
	for i := range reviewers {
		items = append(items, reviewerResponse(&reviewers[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetReviewer GET /directory/reviewers/:id.
func (h *DirectoryHandler) GetReviewer(c *fiber.Ctx) error {
	admin, err := requireReviewer(c)
	if err != nil {
		return err
	}
	reviewer, err := h.directory.GetReviewerByID(c.Context(), admin, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reviewerResponse(reviewer)})
}

// UpdateReviewer PUT /directory/reviewers/:id.
func (h *DirectoryHandler) UpdateReviewer(c *fiber.Ctx) error {
	admin, err := requireReviewer(c)
	if err != nil {
		return err
	}
	var req dto.UpdateReviewerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reviewer, err := h.directory.UpdateReviewer(c.Context(), admin, c.Params("id"), req.Name, req.Email, req.Role, req.DepartmentID, req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": reviewerResponse(reviewer)})
}

func departmentResponse(dept *domain.Department) fiber.Map {
	return fiber.Map{
		"id":          dept.ID,
		"name":        dept.Name,
		"description": dept.Description,
		"is_active":   dept.IsActive,
		"created_at":  dept.CreatedAt,
		"updated_at":  dept.UpdatedAt,
	}
}
