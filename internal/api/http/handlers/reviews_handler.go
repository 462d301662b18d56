package handlers

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/approval-service/internal/api/dto"
	"github.com/spec-kit/approval-service/internal/auth"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/service"
	"github.com/spec-kit/approval-service/internal/workflow"
	apperrors "github.com/spec-kit/approval-service/pkg/util/errorutil"
)

// ReviewsHandler manages reviewer-side endpoints.
type ReviewsHandler struct {
	reviews   *service.ReviewService
	artifacts *service.ArtifactService
}

// NewReviewsHandler constructs handler.
func NewReviewsHandler(reviewService *service.ReviewService, artifactService *service.ArtifactService) *ReviewsHandler {
	return &ReviewsHandler{reviews: reviewService, artifacts: artifactService}
}

// Inbox GET /reviews.
func (h *ReviewsHandler) Inbox(c *fiber.Ctx) error {
	reviewer, err := requireReviewer(c)
	if err != nil {
		return err
	}
	filter := parseInboxQuery(c)
	artifacts, err := h.reviews.ListForRecipient(c.Context(), reviewer, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ArtifactSummary, 0, len(artifacts))
	for i := range artifacts {
		items = append(items, artifactSummary(&artifacts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /reviews/:id.
func (h *ReviewsHandler) Get(c *fiber.Ctx) error {
	reviewer, err := requireReviewer(c)
	if err != nil {
		return err
	}
	detail, err := h.reviews.GetForReviewer(c.Context(), reviewer, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": artifactDetail(detail)})
}

// Action POST /reviews/:id/action.
func (h *ReviewsHandler) Action(c *fiber.Ctx) error {
	reviewer, err := requireReviewer(c)
	if err != nil {
		return err
	}
	var req dto.ReviewActionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	action := workflow.Action(strings.ToLower(strings.TrimSpace(req.Action)))
	artifact, err := h.reviews.TakeAction(c.Context(), reviewer, c.Params("id"), action, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": artifactSummary(artifact)})
}

// AddComment POST /reviews/:id/comments.
func (h *ReviewsHandler) AddComment(c *fiber.Ctx) error {
	reviewer, err := requireReviewer(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.artifacts.AddComment(c.Context(), domain.AuthorTypeReviewer, reviewer.ID, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

func requireReviewer(c *fiber.Ctx) (*domain.Reviewer, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Reviewer == nil {
		return nil, apperrors.NewUnauthorized("reviewer required")
	}
	return principal.Reviewer, nil
}

func parseInboxQuery(c *fiber.Ctx) service.ReviewInboxFilter {
	filter := service.ReviewInboxFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.ArtifactStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if priorityStr := c.Query("priority"); priorityStr != "" {
		for _, part := range strings.Split(priorityStr, ",") {
			filter.Priorities = append(filter.Priorities, domain.ArtifactPriority(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}
