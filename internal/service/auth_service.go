package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/approval-service/internal/auth"
	"github.com/spec-kit/approval-service/internal/config"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/repository"
	apperrors "github.com/spec-kit/approval-service/pkg/util/errorutil"
)

// AuthSubject identifies the caller when changing password.
type AuthSubject struct {
	Type domain.SubjectType
	ID   string
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	employees  repository.EmployeeRepository
	reviewers  repository.ReviewerRepository
	resets     repository.PasswordResetRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
	resetTTL   time.Duration
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	EmployeeRepo      repository.EmployeeRepository
	ReviewerRepo      repository.ReviewerRepository
	PasswordResetRepo repository.PasswordResetRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		employees:  deps.EmployeeRepo,
		reviewers:  deps.ReviewerRepo,
		resets:     deps.PasswordResetRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   time.Duration(cfg.Auth.PasswordResetTTLMinutes) * time.Minute,
	}
}

// RegisterEmployee creates a new employee account.
func (s *AuthService) RegisterEmployee(ctx context.Context, name, email, password string, departmentID *string) (*domain.Employee, string, time.Time, error) {
	if _, err := s.employees.GetByEmail(ctx, email); err == nil {
		return nil, "", time.Time{}, apperrors.NewValidationError("email already registered", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	employee := &domain.Employee{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		DepartmentID: departmentID,
		Status:       domain.EmployeeStatusActive,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}

	token, exp, err := s.tokenMgr.GenerateToken(employee.ID, domain.SubjectTypeEmployee, nil)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return employee, token, exp, nil
}

// LoginEmployee authenticates an employee.
func (s *AuthService) LoginEmployee(ctx context.Context, email, password string) (*domain.Employee, string, time.Time, error) {
	employee, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, invalidCredentials(err)
	}
	if employee.Status != domain.EmployeeStatusActive {
		return nil, "", time.Time{}, apperrors.NewForbidden("account suspended")
	}
	if err := auth.ComparePassword(employee.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(employee.ID, domain.SubjectTypeEmployee, nil)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return employee, token, exp, nil
}

// LoginReviewer authenticates a reviewer and returns a role-bearing token.
func (s *AuthService) LoginReviewer(ctx context.Context, email, password string) (*domain.Reviewer, string, time.Time, error) {
	reviewer, err := s.reviewers.GetByEmail(ctx, email)
	if err != nil {
		return nil, "", time.Time{}, invalidCredentials(err)
	}
	if !reviewer.Active {
		return nil, "", time.Time{}, apperrors.NewForbidden("reviewer inactive")
	}
	if err := auth.ComparePassword(reviewer.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}
	token, exp, err := s.tokenMgr.GenerateToken(reviewer.ID, domain.SubjectTypeReviewer, &reviewer.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return reviewer, token, exp, nil
}

// Logout currently no-ops for the stateless JWT approach.
func (s *AuthService) Logout(_ context.Context, _ string) error {
	return nil
}

// RequestPasswordReset persists a reset token for either employee or reviewer email.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (*repository.PasswordResetToken, error) {
	subjectType := domain.SubjectTypeEmployee
	subjectID := ""

	if employee, err := s.employees.GetByEmail(ctx, email); err == nil {
		subjectID = employee.ID
	} else if errors.Is(err, pgx.ErrNoRows) {
		reviewer, revErr := s.reviewers.GetByEmail(ctx, email)
		if revErr != nil {
			return nil, mapReadError(revErr, email)
		}
		subjectType = domain.SubjectTypeReviewer
		subjectID = reviewer.ID
	} else {
		return nil, apperrors.MapError(err)
	}

	token := &repository.PasswordResetToken{
		SubjectType: string(subjectType),
		SubjectID:   subjectID,
		Token:       uuid.NewString(),
		ExpiresAt:   time.Now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return nil, apperrors.MapError(err)
	}
	return token, nil
}

// ConfirmPasswordReset validates the reset token and updates the password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, tokenStr, newPassword string) error {
	token, err := s.resets.GetByToken(ctx, tokenStr)
	if err != nil {
		return mapReadError(err, "reset token")
	}
	if token.UsedAt != nil || time.Now().After(token.ExpiresAt) {
		return apperrors.NewValidationError("token expired or used", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	switch domain.SubjectType(token.SubjectType) {
	case domain.SubjectTypeEmployee:
		employee, err := s.employees.GetByID(ctx, token.SubjectID)
		if err != nil {
			return mapReadError(err, token.SubjectID)
		}
		employee.PasswordHash = hash
		if err := s.employees.Update(ctx, employee); err != nil {
			return apperrors.MapError(err)
		}
	case domain.SubjectTypeReviewer:
		reviewer, err := s.reviewers.GetByID(ctx, token.SubjectID)
		if err != nil {
			return mapReadError(err, token.SubjectID)
		}
		reviewer.PasswordHash = hash
		if err := s.reviewers.Update(ctx, reviewer); err != nil {
			return apperrors.MapError(err)
		}
	default:
		return apperrors.NewValidationError("unknown subject type", nil)
	}

	return apperrors.MapError(s.resets.MarkUsed(ctx, token.ID))
}

// ChangePassword verifies the current password before updating to a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, subject AuthSubject, currentPassword, newPassword string) error {
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}

	switch subject.Type {
	case domain.SubjectTypeEmployee:
		employee, err := s.employees.GetByID(ctx, subject.ID)
		if err != nil {
			return mapReadError(err, subject.ID)
		}
		if err := auth.ComparePassword(employee.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		employee.PasswordHash = hash
		return apperrors.MapError(s.employees.Update(ctx, employee))
	case domain.SubjectTypeReviewer:
		reviewer, err := s.reviewers.GetByID(ctx, subject.ID)
		if err != nil {
			return mapReadError(err, subject.ID)
		}
		if err := auth.ComparePassword(reviewer.PasswordHash, currentPassword); err != nil {
			return apperrors.NewUnauthorized("invalid credentials")
		}
		reviewer.PasswordHash = hash
		return apperrors.MapError(s.reviewers.Update(ctx, reviewer))
	default:
		return apperrors.NewValidationError("unknown subject", nil)
	}
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

// invalidCredentials hides whether the account exists.
func invalidCredentials(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return apperrors.MapError(err)
}
