package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/approval-service/internal/domain"
	"github.com/spec-kit/approval-service/internal/repository"
)

// memStore backs the in-memory repository fakes used by service tests.
// Timestamps increase monotonically per insert so append order is observable.
type memStore struct {
	mu          sync.Mutex
	artifacts   map[string]domain.Artifact
	assignments []domain.ReviewAssignment
	comments    []domain.ArtifactComment
	history     []domain.ArtifactHistory
	attachments []domain.AttachmentReference
	departments map[string]domain.Department
	reviewers   map[string]domain.Reviewer
	employees   map[string]domain.Employee
	resets      map[string]repository.PasswordResetToken
	seq         int
	now         time.Time

	forceVersionConflict bool
	failNextCreate       bool
}

func newMemStore() *memStore {
	return &memStore{
		artifacts:   make(map[string]domain.Artifact),
		departments: make(map[string]domain.Department),
		reviewers:   make(map[string]domain.Reviewer),
		employees:   make(map[string]domain.Employee),
		resets:      make(map[string]repository.PasswordResetToken),
		now:         time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return prefix + "-" + strconv.Itoa(s.seq)
}

func (s *memStore) tick() time.Time {
	s.now = s.now.Add(time.Millisecond)
	return s.now
}

func (s *memStore) addDepartment(name string, active bool) domain.Department {
	s.mu.Lock()
	defer s.mu.Unlock()
	dept := domain.Department{ID: s.nextID("dept"), Name: name, IsActive: active, CreatedAt: s.tick(), UpdatedAt: s.now}
	s.departments[dept.ID] = dept
	return dept
}

func (s *memStore) addReviewer(name string, role domain.ReviewerRole, departmentID *string, active bool) domain.Reviewer {
	s.mu.Lock()
	defer s.mu.Unlock()
	reviewer := domain.Reviewer{
		ID:           s.nextID("rev"),
		Name:         name,
		Email:        strings.ToLower(name) + "@example.com",
		Role:         role,
		DepartmentID: departmentID,
		Active:       active,
		CreatedAt:    s.tick(),
		UpdatedAt:    s.now,
	}
	s.reviewers[reviewer.ID] = reviewer
	return reviewer
}

type fakeArtifactRepo struct {
	s *memStore
}

// Create mirrors the transactional insert: on failure nothing persists.
func (r *fakeArtifactRepo) Create(_ context.Context, artifact *domain.Artifact, attachments []domain.AttachmentReference, assignments []domain.ReviewAssignment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.failNextCreate {
		r.s.failNextCreate = false
		return errors.New("insert failed")
	}
	artifact.ID = r.s.nextID("art")
	artifact.Version = 1
	artifact.CreatedAt = r.s.tick()
	artifact.UpdatedAt = artifact.CreatedAt
	r.s.artifacts[artifact.ID] = *artifact
	for i := range attachments {
		a := attachments[i]
		a.ID = r.s.nextID("att")
		a.ArtifactID = artifact.ID
		a.CreatedAt = r.s.tick()
		r.s.attachments = append(r.s.attachments, a)
	}
	for i := range assignments {
		a := assignments[i]
		a.ID = r.s.nextID("slot")
		a.ArtifactID = artifact.ID
		a.CreatedAt = r.s.tick()
		r.s.assignments = append(r.s.assignments, a)
	}
	return nil
}

func (r *fakeArtifactRepo) GetByID(_ context.Context, id string) (*domain.Artifact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.artifacts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := stored
	return &copied, nil
}

func (r *fakeArtifactRepo) GetByExternalKey(_ context.Context, key string) (*domain.Artifact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, stored := range r.s.artifacts {
		if stored.ExternalKey == key {
			copied := stored
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeArtifactRepo) ListWithFilter(_ context.Context, filter repository.ArtifactFilter) ([]domain.Artifact, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Artifact
	for _, stored := range r.s.artifacts {
		if filter.CreatedBy != nil && stored.CreatedBy != *filter.CreatedBy {
			continue
		}
		if filter.Kind != nil && stored.Kind != *filter.Kind {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, stored.Status) {
			continue
		}
		if filter.RecipientType != nil && filter.RecipientID != nil {
			if !r.hasSlotLocked(stored.ID, *filter.RecipientType, *filter.RecipientID) {
				continue
			}
		}
		result = append(result, stored)
	}
	return result, nil
}

func (r *fakeArtifactRepo) hasSlotLocked(artifactID string, recipientType domain.RecipientType, recipientID string) bool {
	for _, slot := range r.s.assignments {
		if slot.ArtifactID == artifactID && slot.RecipientType == recipientType && slot.RecipientID == recipientID {
			return true
		}
	}
	return false
}

func (r *fakeArtifactRepo) UpdateContent(_ context.Context, artifact *domain.Artifact, expectedVersion int64, history *domain.ArtifactHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.artifacts[artifact.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.s.forceVersionConflict || stored.Version != expectedVersion {
		r.s.forceVersionConflict = false
		return repository.ErrVersionConflict
	}
	stored.Title = artifact.Title
	stored.Description = artifact.Description
	stored.Category = artifact.Category
	stored.Priority = artifact.Priority
	stored.RequiresSignature = artifact.RequiresSignature
	stored.Version++
	stored.UpdatedAt = r.s.tick()
	r.s.artifacts[artifact.ID] = stored
	artifact.Version = stored.Version
	artifact.UpdatedAt = stored.UpdatedAt
	if history != nil {
		history.ID = r.s.nextID("his")
		history.CreatedAt = r.s.tick()
		r.s.history = append(r.s.history, *history)
	}
	return nil
}

func (r *fakeArtifactRepo) ApplyTransition(_ context.Context, update repository.TransitionUpdate) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	artifact := update.Artifact
	stored, ok := r.s.artifacts[artifact.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	if r.s.forceVersionConflict || stored.Version != update.ExpectedVersion {
		r.s.forceVersionConflict = false
		return repository.ErrVersionConflict
	}

	stored.Status = artifact.Status
	stored.RequiresSignature = artifact.RequiresSignature
	stored.Signature = artifact.Signature
	stored.ResolvedAt = artifact.ResolvedAt
	stored.Version++
	stored.UpdatedAt = r.s.tick()
	r.s.artifacts[artifact.ID] = stored
	artifact.Version = stored.Version
	artifact.UpdatedAt = stored.UpdatedAt

	for i := range update.NewAssignments {
		a := update.NewAssignments[i]
		a.ID = r.s.nextID("slot")
		a.CreatedAt = r.s.tick()
		r.s.assignments = append(r.s.assignments, a)
	}
	if update.ResetDecisions {
		for i := range r.s.assignments {
			if r.s.assignments[i].ArtifactID == artifact.ID {
				r.s.assignments[i].Decision = domain.ReviewDecisionPending
				r.s.assignments[i].DecidedBy = nil
				r.s.assignments[i].DecidedAt = nil
			}
		}
	}
	if update.Decision != nil {
		for i := range r.s.assignments {
			if r.s.assignments[i].ID == update.Decision.AssignmentID {
				decidedAt := r.s.tick()
				r.s.assignments[i].Decision = update.Decision.Decision
				r.s.assignments[i].DecidedBy = &update.Decision.DecidedBy
				r.s.assignments[i].DecidedAt = &decidedAt
			}
		}
	}
	if update.Comment != nil {
		update.Comment.ID = r.s.nextID("cmt")
		update.Comment.CreatedAt = r.s.tick()
		r.s.comments = append(r.s.comments, *update.Comment)
	}
	if update.History != nil {
		update.History.ID = r.s.nextID("his")
		update.History.CreatedAt = r.s.tick()
		r.s.history = append(r.s.history, *update.History)
	}
	return nil
}

func (r *fakeArtifactRepo) CountByStatus(_ context.Context) (map[domain.ArtifactStatus]int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	result := make(map[domain.ArtifactStatus]int64)
	for _, stored := range r.s.artifacts {
		result[stored.Status]++
	}
	return result, nil
}

type fakeReviewRepo struct {
	s *memStore
}

func (r *fakeReviewRepo) ListByArtifact(_ context.Context, artifactID string) ([]domain.ReviewAssignment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.ReviewAssignment
	for _, slot := range r.s.assignments {
		if slot.ArtifactID == artifactID {
			result = append(result, slot)
		}
	}
	return result, nil
}

type fakeCommentRepo struct {
	s *memStore
}

func (r *fakeCommentRepo) Create(_ context.Context, comment *domain.ArtifactComment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	comment.ID = r.s.nextID("cmt")
	comment.CreatedAt = r.s.tick()
	r.s.comments = append(r.s.comments, *comment)
	if stored, ok := r.s.artifacts[comment.ArtifactID]; ok {
		stored.UpdatedAt = comment.CreatedAt
		r.s.artifacts[comment.ArtifactID] = stored
	}
	return nil
}

func (r *fakeCommentRepo) ListByArtifact(_ context.Context, artifactID string) ([]domain.ArtifactComment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.ArtifactComment
	for _, comment := range r.s.comments {
		if comment.ArtifactID == artifactID {
			result = append(result, comment)
		}
	}
	return result, nil
}

type fakeHistoryRepo struct {
	s *memStore
}

func (r *fakeHistoryRepo) ListByArtifact(_ context.Context, artifactID string, _, _ int) ([]domain.ArtifactHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.ArtifactHistory
	for _, entry := range r.s.history {
		if entry.ArtifactID == artifactID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func (r *fakeHistoryRepo) LatestStatusChange(_ context.Context, artifactID string, status domain.ArtifactStatus) (*domain.ArtifactHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := len(r.s.history) - 1; i >= 0; i-- {
		entry := r.s.history[i]
		if entry.ArtifactID != artifactID || entry.ChangeType != domain.ChangeTypeStatus {
			continue
		}
		if historyStatus(entry.NewValue["status"]) == status {
			copied := entry
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeHistoryRepo) HasContentChangeSince(_ context.Context, artifactID string, since time.Time) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, entry := range r.s.history {
		if entry.ArtifactID == artifactID && entry.ChangeType == domain.ChangeTypeContent && entry.CreatedAt.After(since) {
			return true, nil
		}
	}
	return false, nil
}

func historyStatus(v any) domain.ArtifactStatus {
	switch s := v.(type) {
	case domain.ArtifactStatus:
		return s
	case string:
		return domain.ArtifactStatus(s)
	default:
		return ""
	}
}

type fakeAttachmentRepo struct {
	s *memStore
}

func (r *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.AttachmentReference, history *domain.ArtifactHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	attachment.ID = r.s.nextID("att")
	attachment.CreatedAt = r.s.tick()
	r.s.attachments = append(r.s.attachments, *attachment)
	if history != nil {
		history.ID = r.s.nextID("his")
		history.CreatedAt = r.s.tick()
		r.s.history = append(r.s.history, *history)
	}
	return nil
}

func (r *fakeAttachmentRepo) ListByArtifact(_ context.Context, artifactID string) ([]domain.AttachmentReference, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.AttachmentReference
	for _, att := range r.s.attachments {
		if att.ArtifactID == artifactID {
			result = append(result, att)
		}
	}
	return result, nil
}

func (r *fakeAttachmentRepo) CountByArtifact(_ context.Context, artifactID string) (int, error) {
	list, _ := r.ListByArtifact(context.Background(), artifactID)
	return len(list), nil
}

type fakeDepartmentRepo struct {
	s *memStore
}

func (r *fakeDepartmentRepo) Create(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dept.ID = r.s.nextID("dept")
	dept.CreatedAt = r.s.tick()
	dept.UpdatedAt = dept.CreatedAt
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r *fakeDepartmentRepo) Update(_ context.Context, dept *domain.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.departments[dept.ID]; !ok {
		return pgx.ErrNoRows
	}
	dept.UpdatedAt = r.s.tick()
	r.s.departments[dept.ID] = *dept
	return nil
}

func (r *fakeDepartmentRepo) GetByID(_ context.Context, id string) (*domain.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	dept, ok := r.s.departments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := dept
	return &copied, nil
}

func (r *fakeDepartmentRepo) List(_ context.Context, includeInactive bool) ([]domain.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Department
	for _, dept := range r.s.departments {
		if !includeInactive && !dept.IsActive {
			continue
		}
		result = append(result, dept)
	}
	return result, nil
}

type fakeReviewerRepo struct {
	s *memStore
}

func (r *fakeReviewerRepo) Create(_ context.Context, reviewer *domain.Reviewer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reviewer.ID = r.s.nextID("rev")
	reviewer.CreatedAt = r.s.tick()
	reviewer.UpdatedAt = reviewer.CreatedAt
	r.s.reviewers[reviewer.ID] = *reviewer
	return nil
}

func (r *fakeReviewerRepo) Update(_ context.Context, reviewer *domain.Reviewer) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviewers[reviewer.ID]; !ok {
		return pgx.ErrNoRows
	}
	reviewer.UpdatedAt = r.s.tick()
	r.s.reviewers[reviewer.ID] = *reviewer
	return nil
}

func (r *fakeReviewerRepo) GetByID(_ context.Context, id string) (*domain.Reviewer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	reviewer, ok := r.s.reviewers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := reviewer
	return &copied, nil
}

func (r *fakeReviewerRepo) GetByEmail(_ context.Context, email string) (*domain.Reviewer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, reviewer := range r.s.reviewers {
		if reviewer.Email == email {
			copied := reviewer
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeReviewerRepo) List(_ context.Context, filter repository.ReviewerFilter) ([]domain.Reviewer, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var result []domain.Reviewer
	for _, reviewer := range r.s.reviewers {
		if filter.Role != nil && reviewer.Role != *filter.Role {
			continue
		}
		if filter.Active != nil && reviewer.Active != *filter.Active {
			continue
		}
		result = append(result, reviewer)
	}
	return result, nil
}

type fakeEmployeeRepo struct {
	s *memStore
}

func (r *fakeEmployeeRepo) Create(_ context.Context, employee *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	employee.ID = r.s.nextID("emp")
	employee.CreatedAt = r.s.tick()
	employee.UpdatedAt = employee.CreatedAt
	r.s.employees[employee.ID] = *employee
	return nil
}

func (r *fakeEmployeeRepo) Update(_ context.Context, employee *domain.Employee) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.employees[employee.ID]; !ok {
		return pgx.ErrNoRows
	}
	employee.UpdatedAt = r.s.tick()
	r.s.employees[employee.ID] = *employee
	return nil
}

func (r *fakeEmployeeRepo) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	employee, ok := r.s.employees[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := employee
	return &copied, nil
}

func (r *fakeEmployeeRepo) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, employee := range r.s.employees {
		if employee.Email == email {
			copied := employee
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type fakePasswordResetRepo struct {
	s *memStore
}

func (r *fakePasswordResetRepo) Create(_ context.Context, token *repository.PasswordResetToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token.ID = r.s.nextID("rst")
	token.CreatedAt = r.s.tick()
	r.s.resets[token.ID] = *token
	return nil
}

func (r *fakePasswordResetRepo) GetByToken(_ context.Context, tokenStr string) (*repository.PasswordResetToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, token := range r.s.resets {
		if token.Token == tokenStr {
			copied := token
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakePasswordResetRepo) MarkUsed(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	token, ok := r.s.resets[id]
	if !ok {
		return pgx.ErrNoRows
	}
	usedAt := r.s.tick()
	token.UsedAt = &usedAt
	r.s.resets[id] = token
	return nil
}

// fakeLocker models the per-artifact lock; held marks artifacts another
// writer currently owns.
type fakeLocker struct {
	mu   sync.Mutex
	held map[string]string
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]string)}
}

func (l *fakeLocker) Acquire(_ context.Context, artifactID, ownerToken string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, taken := l.held[artifactID]; taken {
		return false, nil
	}
	l.held[artifactID] = ownerToken
	return true, nil
}

func (l *fakeLocker) Release(_ context.Context, artifactID, ownerToken string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[artifactID] == ownerToken {
		delete(l.held, artifactID)
	}
	return nil
}

func containsStatus(statuses []domain.ArtifactStatus, status domain.ArtifactStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
