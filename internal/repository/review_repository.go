package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/approval-service/internal/domain"
)

// ReviewRepository reads fan-out review slots. Slots are inserted and decided
// inside the transactional artifact writes.
type ReviewRepository interface {
	ListByArtifact(ctx context.Context, artifactID string) ([]domain.ReviewAssignment, error)
}

type reviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository builds repository.
func NewReviewRepository(pool *pgxpool.Pool) ReviewRepository {
	return &reviewRepository{pool: pool}
}

func (r *reviewRepository) ListByArtifact(ctx context.Context, artifactID string) ([]domain.ReviewAssignment, error) {
	const query = `
        SELECT id, artifact_id, recipient_type, recipient_id, decision, decided_by, decided_at, created_at
        FROM review_assignments WHERE artifact_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, artifactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignments(rows)
}

func scanAssignments(rows pgx.Rows) ([]domain.ReviewAssignment, error) {
	var result []domain.ReviewAssignment
	for rows.Next() {
		var a domain.ReviewAssignment
		if err := rows.Scan(
			&a.ID,
			&a.ArtifactID,
			&a.RecipientType,
			&a.RecipientID,
			&a.Decision,
			&a.DecidedBy,
			&a.DecidedAt,
			&a.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}
