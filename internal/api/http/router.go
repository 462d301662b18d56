package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/approval-service/internal/api/http/handlers"
	"github.com/spec-kit/approval-service/internal/auth"
	"github.com/spec-kit/approval-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Employees      *handlers.EmployeesHandler
	Reviewers      *handlers.ReviewersHandler
	Artifacts      *handlers.ArtifactsHandler
	Reviews        *handlers.ReviewsHandler
	Directory      *handlers.DirectoryHandler
	Reports        *handlers.ReportsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/employees/register", cfg.Employees.Register)
	authGroup.Post("/employees/login", cfg.Employees.Login)
	authGroup.Post("/reviewers/login", cfg.Reviewers.Login)
	authGroup.Post("/password/reset/request", cfg.Reviewers.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Reviewers.ConfirmPasswordReset)

	protectedAuth := authGroup.Group("", cfg.AuthMiddleware.Handle, auth.RequireAnyRole())
	protectedAuth.Post("/password/change", cfg.Reviewers.ChangePassword)

	artifacts := app.Group("/artifacts", cfg.AuthMiddleware.Handle, auth.RequireEmployee())
	artifacts.Post("", cfg.Artifacts.Create)
	artifacts.Get("", cfg.Artifacts.List)
	artifacts.Get("/:id", cfg.Artifacts.Get)
	artifacts.Patch("/:id", cfg.Artifacts.Edit)
	artifacts.Post("/:id/submit", cfg.Artifacts.Submit)
	artifacts.Post("/:id/resubmit", cfg.Artifacts.Resubmit)
	artifacts.Post("/:id/signature", cfg.Artifacts.Sign)
	artifacts.Post("/:id/comments", cfg.Artifacts.AddComment)
	artifacts.Post("/:id/attachments", cfg.Artifacts.AddAttachment)

	reviews := app.Group("/reviews", cfg.AuthMiddleware.Handle, auth.RequireReviewerRole())
	reviews.Get("", cfg.Reviews.Inbox)
	reviews.Get("/:id", cfg.Reviews.Get)
	reviews.Post("/:id/action", cfg.Reviews.Action)
	reviews.Post("/:id/comments", cfg.Reviews.AddComment)

	directory := app.Group("/directory", cfg.AuthMiddleware.Handle)
	directory.Get("/departments", auth.RequireAnyRole(), cfg.Directory.ListDepartments)
	directory.Get("/departments/:id", auth.RequireAnyRole(), cfg.Directory.GetDepartment)

	adminDirectory := directory.Group("", auth.RequireReviewerRole(domain.ReviewerRoleAdmin))
	adminDirectory.Post("/departments", cfg.Directory.CreateDepartment)
	adminDirectory.Put("/departments/:id", cfg.Directory.UpdateDepartment)
	adminDirectory.Post("/reviewers", cfg.Directory.CreateReviewer)
	adminDirectory.Get("/reviewers", cfg.Directory.ListReviewers)
	adminDirectory.Get("/reviewers/:id", cfg.Directory.GetReviewer)
	adminDirectory.Put("/reviewers/:id", cfg.Directory.UpdateReviewer)

	reports := app.Group("/reports", cfg.AuthMiddleware.Handle, auth.RequireReviewerRole(domain.ReviewerRoleAdmin))
	reports.Get("/status-summary", cfg.Reports.StatusSummary)
}
