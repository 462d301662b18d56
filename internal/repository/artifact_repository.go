package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/approval-service/internal/domain"
)

// ErrVersionConflict signals that a concurrent writer already transitioned the
// artifact; the caller holds a stale version and must refetch.
var ErrVersionConflict = errors.New("artifact version conflict")

// ArtifactFilter captures listing parameters.
type ArtifactFilter struct {
	CreatedBy     *string
	Kind          *domain.ArtifactKind
	Statuses      []domain.ArtifactStatus
	Priorities    []domain.ArtifactPriority
	Category      *string
	RecipientType *domain.RecipientType
	RecipientID   *string
	SearchTerm    *string
	CreatedFrom   *time.Time
	CreatedTo     *time.Time
	Limit         int
	Offset        int
}

// TransitionUpdate bundles everything one lifecycle transition writes. The
// repository commits it atomically or not at all.
type TransitionUpdate struct {
	Artifact        *domain.Artifact
	ExpectedVersion int64
	Comment         *domain.ArtifactComment
	History         *domain.ArtifactHistory
	Decision        *DecisionUpdate
	NewAssignments  []domain.ReviewAssignment
	ResetDecisions  bool
}

// DecisionUpdate records a reviewer's outcome on one fan-out slot.
type DecisionUpdate struct {
	AssignmentID string
	Decision     domain.ReviewDecision
	DecidedBy    string
}

// ArtifactRepository encapsulates artifact persistence.
type ArtifactRepository interface {
	Create(ctx context.Context, artifact *domain.Artifact, attachments []domain.AttachmentReference, assignments []domain.ReviewAssignment) error
	GetByID(ctx context.Context, id string) (*domain.Artifact, error)
	GetByExternalKey(ctx context.Context, key string) (*domain.Artifact, error)
	ListWithFilter(ctx context.Context, filter ArtifactFilter) ([]domain.Artifact, error)
	UpdateContent(ctx context.Context, artifact *domain.Artifact, expectedVersion int64, history *domain.ArtifactHistory) error
	ApplyTransition(ctx context.Context, update TransitionUpdate) error
	CountByStatus(ctx context.Context) (map[domain.ArtifactStatus]int64, error)
}

type artifactRepository struct {
	pool *pgxpool.Pool
}

// NewArtifactRepository instantiates repository.
func NewArtifactRepository(pool *pgxpool.Pool) ArtifactRepository {
	return &artifactRepository{pool: pool}
}

const artifactColumns = `id, external_key, kind, created_by, title, description, category,
               status, priority, requires_signature, signature_type, signature_data,
               signature_signed_by, signature_signed_at, version, created_at, updated_at, resolved_at`

// Create inserts the artifact together with its attachments and fan-out
// review slots in one transaction, so a half-written submission never
// persists. Attachment and assignment rows get the generated artifact id.
func (r *artifactRepository) Create(ctx context.Context, artifact *domain.Artifact, attachments []domain.AttachmentReference, assignments []domain.ReviewAssignment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO artifacts (external_key, kind, created_by, title, description, category, status, priority, requires_signature, version)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,1)
        RETURNING id, version, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		artifact.ExternalKey,
		artifact.Kind,
		artifact.CreatedBy,
		artifact.Title,
		artifact.Description,
		artifact.Category,
		artifact.Status,
		artifact.Priority,
		artifact.RequiresSignature,
	).Scan(&artifact.ID, &artifact.Version, &artifact.CreatedAt, &artifact.UpdatedAt); err != nil {
		return err
	}

	const attachmentQuery = `
        INSERT INTO attachment_references (artifact_id, storage_key, file_name, mime_type, size_bytes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	for i := range attachments {
		a := &attachments[i]
		a.ArtifactID = artifact.ID
		if err := tx.QueryRow(ctx, attachmentQuery,
			a.ArtifactID,
			a.StorageKey,
			a.FileName,
			a.MimeType,
			a.SizeBytes,
		).Scan(&a.ID, &a.CreatedAt); err != nil {
			return err
		}
	}

	const assignQuery = `
        INSERT INTO review_assignments (artifact_id, recipient_type, recipient_id, decision)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	for i := range assignments {
		a := &assignments[i]
		a.ArtifactID = artifact.ID
		if err := tx.QueryRow(ctx, assignQuery,
			a.ArtifactID,
			a.RecipientType,
			a.RecipientID,
			a.Decision,
		).Scan(&a.ID, &a.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *artifactRepository) GetByID(ctx context.Context, id string) (*domain.Artifact, error) {
	query := fmt.Sprintf(`SELECT %s FROM artifacts WHERE id=$1`, artifactColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *artifactRepository) GetByExternalKey(ctx context.Context, key string) (*domain.Artifact, error) {
	query := fmt.Sprintf(`SELECT %s FROM artifacts WHERE external_key=$1`, artifactColumns)
	return r.fetchSingle(ctx, query, key)
}

func (r *artifactRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Artifact, error) {
	row := r.pool.QueryRow(ctx, query, arg)
	return scanArtifact(row)
}

// UpdateContent writes creator-editable fields guarded by the version check,
// recording the content-change audit entry in the same transaction.
func (r *artifactRepository) UpdateContent(ctx context.Context, artifact *domain.Artifact, expectedVersion int64, history *domain.ArtifactHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE artifacts SET title=$1, description=$2, category=$3, priority=$4, requires_signature=$5,
            version=version+1, updated_at=NOW()
        WHERE id=$6 AND version=$7
        RETURNING version, updated_at`
	err = tx.QueryRow(ctx, query,
		artifact.Title,
		artifact.Description,
		artifact.Category,
		artifact.Priority,
		artifact.RequiresSignature,
		artifact.ID,
		expectedVersion,
	).Scan(&artifact.Version, &artifact.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classifyMissingRow(ctx, artifact.ID)
		}
		return err
	}

	if history != nil {
		if err := insertHistoryTx(ctx, tx, history); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// ApplyTransition commits a status transition, its audit entries, and an
// optional review decision in a single transaction. The WHERE version clause
// is the concurrency guard: the losing writer of a race gets
// ErrVersionConflict and nothing is written.
func (r *artifactRepository) ApplyTransition(ctx context.Context, update TransitionUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	artifact := update.Artifact
	const updateQuery = `
        UPDATE artifacts SET status=$1, requires_signature=$2, signature_type=$3, signature_data=$4,
            signature_signed_by=$5, signature_signed_at=$6, resolved_at=$7,
            version=version+1, updated_at=NOW()
        WHERE id=$8 AND version=$9
        RETURNING version, updated_at`

	var sigType, sigData, sigBy *string
	var sigAt *time.Time
	if artifact.Signature != nil {
		t := string(artifact.Signature.Type)
		sigType = &t
		sigData = &artifact.Signature.Data
		sigBy = &artifact.Signature.SignedBy
		sigAt = &artifact.Signature.SignedAt
	}

	err = tx.QueryRow(ctx, updateQuery,
		artifact.Status,
		artifact.RequiresSignature,
		sigType,
		sigData,
		sigBy,
		sigAt,
		artifact.ResolvedAt,
		artifact.ID,
		update.ExpectedVersion,
	).Scan(&artifact.Version, &artifact.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return r.classifyMissingRow(ctx, artifact.ID)
		}
		return err
	}

	if len(update.NewAssignments) > 0 {
		const assignQuery = `
            INSERT INTO review_assignments (artifact_id, recipient_type, recipient_id, decision)
            VALUES ($1,$2,$3,$4)
            RETURNING id, created_at`
		for i := range update.NewAssignments {
			a := &update.NewAssignments[i]
			if err := tx.QueryRow(ctx, assignQuery,
				a.ArtifactID,
				a.RecipientType,
				a.RecipientID,
				a.Decision,
			).Scan(&a.ID, &a.CreatedAt); err != nil {
				return err
			}
		}
	}

	if update.ResetDecisions {
		const resetQuery = `
            UPDATE review_assignments SET decision=$1, decided_by=NULL, decided_at=NULL
            WHERE artifact_id=$2`
		if _, err := tx.Exec(ctx, resetQuery, domain.ReviewDecisionPending, artifact.ID); err != nil {
			return err
		}
	}

	if update.Decision != nil {
		const decisionQuery = `
            UPDATE review_assignments SET decision=$1, decided_by=$2, decided_at=NOW()
            WHERE id=$3`
		if _, err := tx.Exec(ctx, decisionQuery,
			update.Decision.Decision,
			update.Decision.DecidedBy,
			update.Decision.AssignmentID,
		); err != nil {
			return err
		}
	}

	if update.Comment != nil {
		const commentQuery = `
            INSERT INTO artifact_comments (artifact_id, author_type, author_id, body, is_signature)
            VALUES ($1,$2,$3,$4,$5)
            RETURNING id, created_at`
		if err := tx.QueryRow(ctx, commentQuery,
			update.Comment.ArtifactID,
			update.Comment.AuthorType,
			update.Comment.AuthorID,
			update.Comment.Body,
			update.Comment.IsSignature,
		).Scan(&update.Comment.ID, &update.Comment.CreatedAt); err != nil {
			return err
		}
	}

	if update.History != nil {
		if err := insertHistoryTx(ctx, tx, update.History); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// classifyMissingRow distinguishes a missing artifact from a stale version.
func (r *artifactRepository) classifyMissingRow(ctx context.Context, id string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM artifacts WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if exists {
		return ErrVersionConflict
	}
	return pgx.ErrNoRows
}

func (r *artifactRepository) ListWithFilter(ctx context.Context, filter ArtifactFilter) ([]domain.Artifact, error) {
	const qualifiedColumns = `a.id, a.external_key, a.kind, a.created_by, a.title, a.description, a.category,
               a.status, a.priority, a.requires_signature, a.signature_type, a.signature_data,
               a.signature_signed_by, a.signature_signed_at, a.version, a.created_at, a.updated_at, a.resolved_at`
	base := fmt.Sprintf(`SELECT %s FROM artifacts a`, qualifiedColumns)
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RecipientType != nil && filter.RecipientID != nil {
		base += ` JOIN review_assignments ra ON ra.artifact_id = a.id`
		args = append(args, *filter.RecipientType)
		clauses = append(clauses, fmt.Sprintf("ra.recipient_type=$%d", len(args)))
		args = append(args, *filter.RecipientID)
		clauses = append(clauses, fmt.Sprintf("ra.recipient_id=$%d", len(args)))
	}
	if filter.CreatedBy != nil {
		args = append(args, *filter.CreatedBy)
		clauses = append(clauses, fmt.Sprintf("a.created_by=$%d", len(args)))
	}
	if filter.Kind != nil {
		args = append(args, *filter.Kind)
		clauses = append(clauses, fmt.Sprintf("a.kind=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("a.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("a.priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("a.category=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("a.created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("a.created_at <= $%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf("(LOWER(a.title) LIKE %s OR LOWER(a.description) LIKE %s)", placeholder, placeholder))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY a.updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArtifacts(rows)
}

func (r *artifactRepository) CountByStatus(ctx context.Context) (map[domain.ArtifactStatus]int64, error) {
	const query = `SELECT status, COUNT(*) FROM artifacts GROUP BY status`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[domain.ArtifactStatus]int64)
	for rows.Next() {
		var status domain.ArtifactStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		result[status] = count
	}
	return result, rows.Err()
}

type artifactScanner interface {
	Scan(dest ...any) error
}

func scanArtifact(row artifactScanner) (*domain.Artifact, error) {
	var artifact domain.Artifact
	var sigType, sigData, sigBy *string
	var sigAt *time.Time
	if err := row.Scan(
		&artifact.ID,
		&artifact.ExternalKey,
		&artifact.Kind,
		&artifact.CreatedBy,
		&artifact.Title,
		&artifact.Description,
		&artifact.Category,
		&artifact.Status,
		&artifact.Priority,
		&artifact.RequiresSignature,
		&sigType,
		&sigData,
		&sigBy,
		&sigAt,
		&artifact.Version,
		&artifact.CreatedAt,
		&artifact.UpdatedAt,
		&artifact.ResolvedAt,
	); err != nil {
		return nil, err
	}
	if sigType != nil && sigData != nil && sigBy != nil && sigAt != nil {
		artifact.Signature = &domain.Signature{
			Type:     domain.SignatureType(*sigType),
			Data:     *sigData,
			SignedBy: *sigBy,
			SignedAt: *sigAt,
		}
	}
	return &artifact, nil
}

func scanArtifacts(rows pgx.Rows) ([]domain.Artifact, error) {
	var result []domain.Artifact
	for rows.Next() {
		artifact, err := scanArtifact(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *artifact)
	}
	return result, rows.Err()
}
