package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/approval-service/internal/api/dto"
	"github.com/spec-kit/approval-service/internal/auth"
	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/service"
	apperrors "github.com/spec-kit/approval-service/pkg/util/errorutil"
)

// ArtifactsHandler manages creator-side artifact endpoints.
type ArtifactsHandler struct {
	service *service.ArtifactService
}

// NewArtifactsHandler constructs handler.
func NewArtifactsHandler(artifactService *service.ArtifactService) *ArtifactsHandler {
	return &ArtifactsHandler{service: artifactService}
}

// Create POST /artifacts.
func (h *ArtifactsHandler) Create(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.CreateArtifactRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ArtifactCreateInput{
		Kind:              req.Kind,
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Priority:          req.Priority,
		RequiresSignature: req.RequiresSignature,
		Recipients:        recipientInputs(req.Recipients),
		Attachments:       attachmentInputs(req.Attachments),
		Draft:             req.Draft,
	}
	artifact, err := h.service.Create(c.Context(), employee.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": artifactSummary(artifact)})
}

// List GET /artifacts.
func (h *ArtifactsHandler) List(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	filter := parseArtifactQuery(c)
	artifacts, err := h.service.ListForCreator(c.Context(), employee.ID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ArtifactSummary, 0, len(artifacts))
	for i := range artifacts {
		items = append(items, artifactSummary(&artifacts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /artifacts/:id.
func (h *ArtifactsHandler) Get(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetForCreator(c.Context(), employee.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": artifactDetail(detail)})
}

// Submit POST /artifacts/:id/submit.
func (h *ArtifactsHandler) Submit(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.SubmitArtifactRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	artifact, err := h.service.Submit(c.Context(), employee.ID, c.Params("id"), recipientInputs(req.Recipients))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": artifactSummary(artifact)})
}

// Edit PATCH /artifacts/:id.
func (h *ArtifactsHandler) Edit(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.EditArtifactRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	patch := service.ArtifactPatch{
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Priority:          req.Priority,
		RequiresSignature: req.RequiresSignature,
	}
	artifact, err := h.service.Edit(c.Context(), employee.ID, c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": artifactSummary(artifact)})
}

// Resubmit POST /artifacts/:id/resubmit.
func (h *ArtifactsHandler) Resubmit(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	artifact, err := h.service.Resubmit(c.Context(), employee.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": artifactSummary(artifact)})
}

// Sign POST /artifacts/:id/signature.
func (h *ArtifactsHandler) Sign(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.SignatureRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	artifact, err := h.service.ProvideSignature(c.Context(), employee.ID, c.Params("id"), service.SignatureInput{
		Type: req.Type,
		Data: req.Data,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": artifactSummary(artifact)})
}

// AddComment POST /artifacts/:id/comments.
func (h *ArtifactsHandler) AddComment(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.Context(), domain.AuthorTypeEmployee, employee.ID, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// AddAttachment POST /artifacts/:id/attachments.
func (h *ArtifactsHandler) AddAttachment(c *fiber.Ctx) error {
	employee, err := requireEmployee(c)
	if err != nil {
		return err
	}
	var req dto.AttachmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StorageKey == "" || req.FileName == "" {
		return apperrors.NewValidationError("storage_key and file_name required", nil)
	}
	record, err := h.service.AddAttachment(c.Context(), employee.ID, c.Params("id"), service.AttachmentInput{
		StorageKey: req.StorageKey,
		FileName:   req.FileName,
		MimeType:   req.MimeType,
		SizeBytes:  req.SizeBytes,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": attachmentResponse(record)})
}

func requireEmployee(c *fiber.Ctx) (*domain.Employee, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return nil, apperrors.NewUnauthorized("employee required")
	}
	return principal.Employee, nil
}

func recipientInputs(reqs []dto.RecipientRequest) []service.RecipientInput {
	recipients := make([]service.RecipientInput, 0, len(reqs))
	for _, r := range reqs {
		recipients = append(recipients, service.RecipientInput{Type: r.Type, ID: r.ID})
	}
	return recipients
}

func attachmentInputs(reqs []dto.AttachmentRequest) []service.AttachmentInput {
	attachments := make([]service.AttachmentInput, 0, len(reqs))
	for _, att := range reqs {
		attachments = append(attachments, service.AttachmentInput{
			StorageKey: att.StorageKey,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
		})
	}
	return attachments
}

func parseArtifactQuery(c *fiber.Ctx) service.ArtifactListFilter {
	filter := service.ArtifactListFilter{}
	if kindStr := c.Query("kind"); kindStr != "" {
		kind := domain.ArtifactKind(strings.ToUpper(strings.TrimSpace(kindStr)))
		filter.Kind = &kind
	}
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
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func artifactSummary(artifact *domain.Artifact) dto.ArtifactSummary {
	return dto.ArtifactSummary{
		ID:                artifact.ID,
		ExternalKey:       artifact.ExternalKey,
		Kind:              artifact.Kind,
		Title:             artifact.Title,
		Category:          artifact.Category,
		Status:            artifact.Status,
		Priority:          artifact.Priority,
		RequiresSignature: artifact.RequiresSignature,
		CreatedAt:         artifact.CreatedAt,
		UpdatedAt:         artifact.UpdatedAt,
		ResolvedAt:        artifact.ResolvedAt,
	}
}

func artifactDetail(detail *service.ArtifactDetail) dto.ArtifactDetailResponse {
	artifact := detail.Artifact
	resp := dto.ArtifactDetailResponse{
		ID:                artifact.ID,
		ExternalKey:       artifact.ExternalKey,
		Kind:              artifact.Kind,
		CreatedBy:         artifact.CreatedBy,
		Title:             artifact.Title,
		Description:       artifact.Description,
		Category:          artifact.Category,
		Status:            artifact.Status,
		Priority:          artifact.Priority,
		RequiresSignature: artifact.RequiresSignature,
		Version:           artifact.Version,
		CreatedAt:         artifact.CreatedAt,
		UpdatedAt:         artifact.UpdatedAt,
		ResolvedAt:        artifact.ResolvedAt,
		Assignments:       make([]dto.AssignmentResponse, 0, len(detail.Assignments)),
		Comments:          make([]dto.CommentResponse, 0, len(detail.Comments)),
		Attachments:       make([]dto.AttachmentResponse, 0, len(detail.Attachments)),
		History:           make([]dto.HistoryResponse, 0, len(detail.History)),
	}
	if artifact.Signature != nil {
		resp.Signature = &dto.SignatureResponse{
			Type:     artifact.Signature.Type,
			SignedBy: artifact.Signature.SignedBy,
			SignedAt: artifact.Signature.SignedAt,
		}
	}
	for i := range detail.Assignments {
		slot := detail.Assignments[i]
		resp.Assignments = append(resp.Assignments, dto.AssignmentResponse{
			ID:            slot.ID,
			RecipientType: slot.RecipientType,
			RecipientID:   slot.RecipientID,
			Decision:      slot.Decision,
			DecidedBy:     slot.DecidedBy,
			DecidedAt:     slot.DecidedAt,
		})
	}
	for i := range detail.Comments {
		resp.Comments = append(resp.Comments, commentResponse(&detail.Comments[i]))
	}
	for i := range detail.Attachments {
		resp.Attachments = append(resp.Attachments, attachmentResponse(&detail.Attachments[i]))
	}
	for _, entry := range detail.History {
		resp.History = append(resp.History, dto.HistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByType: entry.ChangedByType,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return resp
}

func commentResponse(comment *domain.ArtifactComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:          comment.ID,
		AuthorType:  comment.AuthorType,
		AuthorID:    comment.AuthorID,
		Body:        comment.Body,
		IsSignature: comment.IsSignature,
		CreatedAt:   comment.CreatedAt,
	}
}

func attachmentResponse(att *domain.AttachmentReference) dto.AttachmentResponse {
	return dto.AttachmentResponse{
		ID:        att.ID,
		FileName:  att.FileName,
		MimeType:  att.MimeType,
		SizeBytes: att.SizeBytes,
	}
}
