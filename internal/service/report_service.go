package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/repository"
	apperrors "github.com/spec-kit/approval-service/pkg/util/errorutil"
)

const statusSummaryCacheKey = "approval:report:status-summary"

// StatusSummary aggregates artifact counts for dashboards.
type StatusSummary struct {
	ByStatus map[domain.ArtifactStatus]int64 `json:"by_status"`
	Open     int64                           `json:"open"`
	Resolved int64                           `json:"resolved"`
	Total    int64                           `json:"total"`
}

// ReportService produces workload summaries for admins. Results are cached in
// Redis briefly since counts tolerate slight staleness.
type ReportService struct {
	artifacts repository.ArtifactRepository
	cache     *redis.Client
	cacheTTL  time.Duration
}

// NewReportService constructs the service. A nil cache client disables caching.
func NewReportService(artifacts repository.ArtifactRepository, cache *redis.Client, cacheTTL time.Duration) *ReportService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &ReportService{artifacts: artifacts, cache: cache, cacheTTL: cacheTTL}
}

// StatusSummary returns artifact counts grouped by status. Admin only.
func (s *ReportService) StatusSummary(ctx context.Context, actor *domain.Reviewer) (*StatusSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	if cached := s.fromCache(ctx); cached != nil {
		return cached, nil
	}

	counts, err := s.artifacts.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	summary := &StatusSummary{ByStatus: counts}
	for status, count := range counts {
		summary.Total += count
		switch status {
		case domain.ArtifactStatusApproved, domain.ArtifactStatusRejected:
			summary.Resolved += count
		default:
			summary.Open += count
		}
	}

	s.toCache(ctx, summary)
	return summary, nil
}

func (s *ReportService) fromCache(ctx context.Context) *StatusSummary {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, statusSummaryCacheKey).Bytes()
	if err != nil {
		return nil
	}
	var summary StatusSummary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return nil
	}
	return &summary
}

func (s *ReportService) toCache(ctx context.Context, summary *StatusSummary) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, statusSummaryCacheKey, raw, s.cacheTTL).Err()
}
