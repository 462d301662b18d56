package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/approval-service/internal/domain"
)

// AttachmentRepository persists attachment metadata.
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *domain.AttachmentReference, history *domain.ArtifactHistory) error
	ListByArtifact(ctx context.Context, artifactID string) ([]domain.AttachmentReference, error)
	CountByArtifact(ctx context.Context, artifactID string) (int, error)
}

type attachmentRepository struct {
	pool *pgxpool.Pool
}

// NewAttachmentRepository constructs repository.
func NewAttachmentRepository(pool *pgxpool.Pool) AttachmentRepository {
	return &attachmentRepository{pool: pool}
}

// Create inserts the attachment and its audit entry in one transaction.
func (r *attachmentRepository) Create(ctx context.Context, attachment *domain.AttachmentReference, history *domain.ArtifactHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO attachment_references (artifact_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, query,
		attachment.ArtifactID,
		attachment.StorageKey,
		attachment.FileName,
		attachment.MimeType,
		attachment.SizeBytes,
	).Scan(&attachment.ID, &attachment.CreatedAt); err != nil {
		return err
	}

	if history != nil {
		if err := insertHistoryTx(ctx, tx, history); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func (r *attachmentRepository) ListByArtifact(ctx context.Context, artifactID string) ([]domain.AttachmentReference, error) {
	const query = `
        SELECT id, artifact_id, storage_key, file_name, mime_type, size_bytes, created_at
        FROM attachment_references WHERE artifact_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, artifactID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.AttachmentReference
	for rows.Next() {
		var attachment domain.AttachmentReference
		if err := rows.Scan(
			&attachment.ID,
			&attachment.ArtifactID,
			&attachment.StorageKey,
			&attachment.FileName,
			&attachment.MimeType,
			&attachment.SizeBytes,
			&attachment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, attachment)
	}
	return result, rows.Err()
}

func (r *attachmentRepository) CountByArtifact(ctx context.Context, artifactID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM attachment_references WHERE artifact_id=$1`, artifactID).Scan(&count)
	return count, err
}
