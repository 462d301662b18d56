package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/approval-service/internal/domain"
)

// HistoryRepository reads the audit trail. Entries are written inside the
// transactional artifact updates, never on their own.
type HistoryRepository interface {
	ListByArtifact(ctx context.Context, artifactID string, limit, offset int) ([]domain.ArtifactHistory, error)
	LatestStatusChange(ctx context.Context, artifactID string, status domain.ArtifactStatus) (*domain.ArtifactHistory, error)
	HasContentChangeSince(ctx context.Context, artifactID string, since time.Time) (bool, error)
}

type historyRepository struct {
	pool *pgxpool.Pool
}

// NewHistoryRepository builds repository.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{pool: pool}
}

// insertHistoryTx appends an audit entry within the caller's transaction.
func insertHistoryTx(ctx context.Context, tx pgx.Tx, history *domain.ArtifactHistory) error {
	const query = `
        INSERT INTO artifact_history (artifact_id, changed_by_type, changed_by_id, change_type, old_value, new_value)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return tx.QueryRow(ctx, query,
		history.ArtifactID,
		history.ChangedByType,
		history.ChangedByID,
		history.ChangeType,
		history.OldValue,
		history.NewValue,
	).Scan(&history.ID, &history.CreatedAt)
}

func (r *historyRepository) ListByArtifact(ctx context.Context, artifactID string, limit, offset int) ([]domain.ArtifactHistory, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, artifact_id, changed_by_type, changed_by_id, change_type, old_value, new_value, created_at
        FROM artifact_history WHERE artifact_id=$1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`
	rows, err := r.pool.Query(ctx, query, artifactID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ArtifactHistory
	for rows.Next() {
		var history domain.ArtifactHistory
		if err := rows.Scan(
			&history.ID,
			&history.ArtifactID,
			&history.ChangedByType,
			&history.ChangedByID,
			&history.ChangeType,
			&history.OldValue,
			&history.NewValue,
			&history.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, history)
	}
	return result, rows.Err()
}

// LatestStatusChange returns the most recent status-change entry that moved
// the artifact into the given status, or pgx.ErrNoRows when none exists.
func (r *historyRepository) LatestStatusChange(ctx context.Context, artifactID string, status domain.ArtifactStatus) (*domain.ArtifactHistory, error) {
	const query = `
        SELECT id, artifact_id, changed_by_type, changed_by_id, change_type, old_value, new_value, created_at
        FROM artifact_history
        WHERE artifact_id=$1 AND change_type=$2 AND new_value->>'status'=$3
        ORDER BY created_at DESC LIMIT 1`
	var history domain.ArtifactHistory
	err := r.pool.QueryRow(ctx, query, artifactID, domain.ChangeTypeStatus, string(status)).Scan(
		&history.ID,
		&history.ArtifactID,
		&history.ChangedByType,
		&history.ChangedByID,
		&history.ChangeType,
		&history.OldValue,
		&history.NewValue,
		&history.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &history, nil
}

func (r *historyRepository) HasContentChangeSince(ctx context.Context, artifactID string, since time.Time) (bool, error) {
	const query = `
        SELECT EXISTS(
            SELECT 1 FROM artifact_history
            WHERE artifact_id=$1 AND change_type=$2 AND created_at > $3)`
	var exists bool
	err := r.pool.QueryRow(ctx, query, artifactID, domain.ChangeTypeContent, since).Scan(&exists)
	return exists, err
}
