package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/survey-recon-api/internal/models"
)

// SubmissionRepository manages persistence for raw submission rows.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs a SubmissionRepository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// List returns submissions matching the provided filters, newest first.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, int, error) {
	base := "FROM submissions s"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.SubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("s.subject_id = $%d", len(args)+1))
		args = append(args, filter.SubjectID)
	}
	if filter.Source != "" {
		conditions = append(conditions, fmt.Sprintf("s.source = $%d", len(args)+1))
		args = append(args, filter.Source)
	}

	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.subject_id, s.external_id, s.source, s.session_key, s.answers, s.submitted_at, s.created_at
        %s ORDER BY s.submitted_at DESC LIMIT %d OFFSET %d`, base, size, offset)

	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}
	return submissions, total, nil
}

// ListBySubject fetches every submission for one subject in chronological
// order. Reconciliation reads the full history, not a page.
func (r *SubmissionRepository) ListBySubject(ctx context.Context, subjectID string) ([]models.Submission, error) {
	const query = `SELECT id, subject_id, external_id, source, session_key, answers, submitted_at, created_at
        FROM submissions WHERE subject_id = $1 ORDER BY submitted_at ASC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query, subjectID); err != nil {
		return nil, fmt.Errorf("list submissions for subject %s: %w", subjectID, err)
	}
	return submissions, nil
}

// ListAll fetches every stored submission in chronological order for a full
// reconciliation pass.
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]models.Submission, error) {
	const query = `SELECT id, subject_id, external_id, source, session_key, answers, submitted_at, created_at
        FROM submissions ORDER BY submitted_at ASC`
	var submissions []models.Submission
	if err := r.db.SelectContext(ctx, &submissions, query); err != nil {
		return nil, fmt.Errorf("list all submissions: %w", err)
	}
	return submissions, nil
}

// Create inserts a submission row. Re-ingesting the same external id from the
// same source is a no-op so upstream pulls stay idempotent.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO submissions (id, subject_id, external_id, source, session_key, answers, submitted_at, created_at)
        VALUES (:id, :subject_id, :external_id, :source, :session_key, :answers, :submitted_at, :created_at)
        ON CONFLICT (source, external_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// Delete removes a submission row by id.
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM submissions WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	return nil
}
