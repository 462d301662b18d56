package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/approval-service/internal/domain"
)

// RequireEmployee ensures an EMPLOYEE is authenticated.
func RequireEmployee() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeEmployee {
			return fiber.NewError(http.StatusForbidden, "employee required")
		}
		return c.Next()
	}
}

// RequireReviewerRole ensures the reviewer principal has one of the allowed roles.
func RequireReviewerRole(allowed ...domain.ReviewerRole) fiber.Handler {
	allowedSet := make(map[domain.ReviewerRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeReviewer || principal.Reviewer == nil {
			return fiber.NewError(http.StatusForbidden, "reviewer role required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Reviewer.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequireAnyRole ensures caller is authenticated (employee or reviewer).
func RequireAnyRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		return c.Next()
	}
}
