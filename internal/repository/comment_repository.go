package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/approval-service/internal/domain"
)

// CommentRepository manages the append-only audit trail. There is no update
// or delete; prior entries are immutable.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.ArtifactComment) error
	ListByArtifact(ctx context.Context, artifactID string) ([]domain.ArtifactComment, error)
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository builds repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

// Create appends the comment and refreshes the artifact's updated_at in one
// transaction.
func (r *commentRepository) Create(ctx context.Context, comment *domain.ArtifactComment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO artifact_comments (artifact_id, author_type, author_id, body, is_signature)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, query,
		comment.ArtifactID,
		comment.AuthorType,
		comment.AuthorID,
		comment.Body,
		comment.IsSignature,
	).Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE artifacts SET updated_at=NOW() WHERE id=$1`, comment.ArtifactID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ListByArtifact returns comments in server-observed append order.
func (r *commentRepository) ListByArtifact(ctx context.Context, artifactID string) ([]domain.ArtifactComment, error) {
	const query = `
        SELECT id, artifact_id, author_type, author_id, body, is_signature, created_at
        FROM artifact_comments WHERE artifact_id=$1 ORDER BY created_at ASC, id ASC`
	rows, err := r.pool.Query(ctx, query, artifactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ArtifactComment
	for rows.Next() {
		var comment domain.ArtifactComment
		if err := rows.Scan(
			&comment.ID,
			&comment.ArtifactID,
			&comment.AuthorType,
			&comment.AuthorID,
			&comment.Body,
			&comment.IsSignature,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
