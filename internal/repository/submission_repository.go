package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jizzpi-arm/book-deposit-api/internal/models"
)

const submissionColumns = `id, full_name, institution, department, position, is_external,
       submission_date, books, status, submitted_at, received_at`

// SubmissionRepository is the durable store for BookSubmission records and
// the sole source of truth for status. It intentionally performs no field
// validation; the service layer owns the write-boundary gate.
type SubmissionRepository struct {
	db *sqlx.DB
}

// NewSubmissionRepository constructs the repository.
func NewSubmissionRepository(db *sqlx.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Create inserts a new submission row. The id, status and submitted_at are
// assigned here, server-side, exactly once. On error no record exists.
func (r *SubmissionRepository) Create(ctx context.Context, sub *models.BookSubmission) error {
	// Overwrite whatever the caller set; the id is never client-supplied.
	sub.ID = uuid.NewString()
	sub.Status = models.StatusPending
	sub.SubmittedAt = time.Now().UTC()
	sub.ReceivedAt = nil

	const query = `INSERT INTO submissions
	(id, full_name, institution, department, position, is_external, submission_date, books, status, submitted_at, received_at)
	VALUES (:id, :full_name, :institution, :department, :position, :is_external, :submission_date, :books, :status, :submitted_at, :received_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sub); err != nil {
		return fmt.Errorf("create submission: %w", err)
	}
	return nil
}

// GetByID fetches a submission by identifier. Callers translate
// sql.ErrNoRows into the NotFound outcome.
func (r *SubmissionRepository) GetByID(ctx context.Context, id string) (*models.BookSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE id = $1`
	var sub models.BookSubmission
	if err := r.db.GetContext(ctx, &sub, query, id); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateStatus applies a reviewer decision. The WHERE clause enforces the
// transition table: only PENDING records move, to RECEIVED or REJECTED.
// received_at is set when the target is RECEIVED and cleared otherwise, so
// it is present exactly when the record is accepted. Zero affected rows
// means the record is missing or already reviewed; callers map that to
// NotFound / InvalidTransition via a follow-up GetByID.
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id string, status models.SubmissionStatus) error {
	var receivedAt *time.Time
	if status == models.StatusReceived {
		now := time.Now().UTC()
		receivedAt = &now
	}
	const query = `UPDATE submissions SET status = $1, received_at = $2
	WHERE id = $3 AND status = $4`
	result, err := r.db.ExecContext(ctx, query, status, receivedAt, id, models.StatusPending)
	if err != nil {
		return fmt.Errorf("update submission status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check submission update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the record unconditionally. There is no tombstone; a
// deleted id verifies as NotFound from that point on.
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM submissions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete submission: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check submission delete rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns submissions matching the filter, newest submitted_at first.
func (r *SubmissionRepository) List(ctx context.Context, filter models.SubmissionFilter) ([]models.BookSubmission, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT ` + submissionColumns + ` FROM submissions`)

	conditions := buildSubmissionConditions(filter, &args)
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY submitted_at DESC")

	limit := filter.PageSize
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, (page-1)*limit))

	var subs []models.BookSubmission
	if err := r.db.SelectContext(ctx, &subs, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return subs, nil
}

// ListAll returns every submission newest first, without pagination. The
// feed broker snapshots the whole collection through it.
func (r *SubmissionRepository) ListAll(ctx context.Context) ([]models.BookSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions ORDER BY submitted_at DESC`
	var subs []models.BookSubmission
	if err := r.db.SelectContext(ctx, &subs, query); err != nil {
		return nil, fmt.Errorf("list all submissions: %w", err)
	}
	return subs, nil
}

// Count returns the number of submissions matching the filter.
func (r *SubmissionRepository) Count(ctx context.Context, filter models.SubmissionFilter) (int, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	builder.WriteString(`SELECT COUNT(*) FROM submissions`)

	conditions := buildSubmissionConditions(filter, &args)
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	var count int
	if err := r.db.GetContext(ctx, &count, builder.String(), args...); err != nil {
		return 0, fmt.Errorf("count submissions: %w", err)
	}
	return count, nil
}

// CountByStatus aggregates submissions per lifecycle stage within the
// optional time bounds.
func (r *SubmissionRepository) CountByStatus(ctx context.Context, from, until *time.Time) (*models.StatusCounts, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 2)
	builder.WriteString(`SELECT
	COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
	COUNT(*) FILTER (WHERE status = 'RECEIVED') AS received,
	COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected,
	COUNT(*) AS total
	FROM submissions`)

	conditions := make([]string, 0, 2)
	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, fmt.Sprintf("submitted_at >= $%d", len(args)))
	}
	if until != nil {
		args = append(args, *until)
		conditions = append(conditions, fmt.Sprintf("submitted_at < $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}

	var counts models.StatusCounts
	if err := r.db.GetContext(ctx, &counts, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("count submissions by status: %w", err)
	}
	return &counts, nil
}

func buildSubmissionConditions(filter models.SubmissionFilter, args *[]interface{}) []string {
	conditions := make([]string, 0, 4)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			*args = append(*args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(*args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.From != nil {
		*args = append(*args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("submitted_at >= $%d", len(*args)))
	}
	if filter.Until != nil {
		*args = append(*args, *filter.Until)
		conditions = append(conditions, fmt.Sprintf("submitted_at < $%d", len(*args)))
	}
	if filter.Search != "" {
		*args = append(*args, "%"+strings.ToLower(filter.Search)+"%")
		n := len(*args)
		conditions = append(conditions, fmt.Sprintf(
			"(LOWER(full_name) LIKE $%d OR LOWER(institution) LIKE $%d OR LOWER(department) LIKE $%d OR LOWER(books::text) LIKE $%d)",
			n, n, n, n))
	}
	return conditions
}
