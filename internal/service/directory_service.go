package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/approval-service/internal/auth"
	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/repository"
	apperrors "github.com/spec-kit/approval-service/pkg/util/errorutil"
)

// DirectoryService manages departments and reviewer accounts. Every operation
// requires an admin actor.
type DirectoryService struct {
	departments repository.DepartmentRepository
	reviewers   repository.ReviewerRepository
	bcryptCost  int
}

// DirectoryDependencies encapsulates repositories for directory management.
type DirectoryDependencies struct {
	DepartmentRepo repository.DepartmentRepository
	ReviewerRepo   repository.ReviewerRepository
}

// ReviewerListFilters define listing parameters.
type ReviewerListFilters struct {
	Role         *domain.ReviewerRole
	DepartmentID *string
	Active       *bool
	Limit        int
	Offset       int
}

// NewDirectoryService constructs the service.
func NewDirectoryService(cfg config.Config, deps DirectoryDependencies) *DirectoryService {
	return &DirectoryService{
		departments: deps.DepartmentRepo,
		reviewers:   deps.ReviewerRepo,
		bcryptCost:  cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor *domain.Reviewer) error {
	if actor == nil || actor.Role != domain.ReviewerRoleAdmin {
		return apperrors.NewForbidden("admin role required")
	}
	return nil
}

// CreateDepartment creates a new department.
func (s *DirectoryService) CreateDepartment(ctx context.Context, actor *domain.Reviewer, name, description string) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	dept := &domain.Department{
		Name:        name,
		Description: description,
		IsActive:    true,
	}
	if err := s.departments.Create(ctx, dept); err != nil {
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns departments, optionally including inactive ones.
// Any authenticated caller may list them; employees need the list to pick
// fan-out targets.
func (s *DirectoryService) ListDepartments(ctx context.Context, includeInactive bool) ([]domain.Department, error) {
	return s.departments.List(ctx, includeInactive)
}

// GetDepartmentByID fetches a department.
func (s *DirectoryService) GetDepartmentByID(ctx context.Context, id string) (*domain.Department, error) {
	dept, err := s.departments.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err, id)
	}
	return dept, nil
}

// UpdateDepartment modifies department metadata.
func (s *DirectoryService) UpdateDepartment(ctx context.Context, actor *domain.Reviewer, dept *domain.Department) (*domain.Department, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, dept); err != nil {
		return nil, mapReadError(err, dept.ID)
	}
	return dept, nil
}

// CreateReviewer adds a new reviewer account. Directors must belong to a
// department; admins may be unscoped.
func (s *DirectoryService) CreateReviewer(ctx context.Context, actor *domain.Reviewer, name, email, password string, role domain.ReviewerRole, departmentID *string) (*domain.Reviewer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if existing, err := s.reviewers.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, apperrors.NewConflict("reviewer email already exists", map[string]any{"email": email})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}
	if role == domain.ReviewerRoleDirector && (departmentID == nil || *departmentID == "") {
		return nil, apperrors.NewValidationError("directors require a department", nil)
	}

	if departmentID != nil && *departmentID != "" {
		dept, err := s.departments.GetByID(ctx, *departmentID)
		if err != nil {
			return nil, mapReadError(err, *departmentID)
		}
		if !dept.IsActive {
			return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": *departmentID})
		}
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	reviewer := &domain.Reviewer{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		DepartmentID: departmentID,
		Active:       true,
	}
	if err := s.reviewers.Create(ctx, reviewer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reviewer, nil
}

// ListReviewers lists reviewers with filters.
func (s *DirectoryService) ListReviewers(ctx context.Context, actor *domain.Reviewer, filters ReviewerListFilters) ([]domain.Reviewer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	repoFilter := repository.ReviewerFilter{
		Role:         filters.Role,
		DepartmentID: filters.DepartmentID,
		Active:       filters.Active,
		Limit:        filters.Limit,
		Offset:       filters.Offset,
	}
	return s.reviewers.List(ctx, repoFilter)
}

// GetReviewerByID fetches a reviewer.
func (s *DirectoryService) GetReviewerByID(ctx context.Context, actor *domain.Reviewer, id string) (*domain.Reviewer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reviewer, err := s.reviewers.GetByID(ctx, id)
	if err != nil {
		return nil, mapReadError(err, id)
	}
	return reviewer, nil
}

// UpdateReviewer updates reviewer details.
func (s *DirectoryService) UpdateReviewer(ctx context.Context, actor *domain.Reviewer, reviewerID, name, email string, role domain.ReviewerRole, departmentID *string, active bool) (*domain.Reviewer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	reviewer, err := s.reviewers.GetByID(ctx, reviewerID)
	if err != nil {
		return nil, mapReadError(err, reviewerID)
	}
	if email != "" && email != reviewer.Email {
		if existing, err := s.reviewers.GetByEmail(ctx, email); err == nil && existing != nil && existing.ID != reviewer.ID {
			return nil, apperrors.NewConflict("reviewer email already exists", map[string]any{"email": email})
		} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
	}
	if role == domain.ReviewerRoleDirector && (departmentID == nil || *departmentID == "") {
		return nil, apperrors.NewValidationError("directors require a department", nil)
	}
	if departmentID != nil && *departmentID != "" {
		dept, err := s.departments.GetByID(ctx, *departmentID)
		if err != nil {
			return nil, mapReadError(err, *departmentID)
		}
		if !dept.IsActive {
			return nil, apperrors.NewConflict("department inactive", map[string]any{"department_id": *departmentID})
		}
	}

	reviewer.Name = name
	reviewer.Email = email
	reviewer.Role = role
	reviewer.DepartmentID = departmentID
	reviewer.Active = active

	if err := s.reviewers.Update(ctx, reviewer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return reviewer, nil
}
