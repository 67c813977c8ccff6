package sessionreports

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// ErrAlreadyGenerated is returned when a report already exists for a session.
// The unique session_id index makes regeneration fail rather than duplicate.
var ErrAlreadyGenerated = errors.New("session report already exists")

// Repository handles session report persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a session reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the report header and all student entries in one transaction.
func (r *Repository) Create(ctx context.Context, report *models.SessionReport) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO session_reports (session_id, session_name, host_id, host_email, session_ended_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		report.SessionID, report.SessionName, report.HostID, report.HostEmail, report.SessionEndedAt).
		Scan(&report.ID, &report.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyGenerated
		}
		return fmt.Errorf("insert report: %w", err)
	}

	for _, e := range report.StudentResults {
		_, err := tx.Exec(ctx,
			`INSERT INTO session_report_entries
			 (report_id, user_id, student_email, student_name, total_polls, polls_attempted,
			  correct_answers, total_points, streak, longest_streak, average_time, accuracy)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			report.ID, e.UserID, e.StudentEmail, e.StudentName, e.TotalPolls, e.PollsAttempted,
			e.CorrectAnswers, e.TotalPoints, e.Streak, e.LongestStreak, e.AverageTime, e.Accuracy)
		if err != nil {
			return fmt.Errorf("insert entry for %s: %w", e.UserID, err)
		}
	}

	return tx.Commit(ctx)
}

// GetBySessionID returns one session report with its entries.
func (r *Repository) GetBySessionID(ctx context.Context, sessionID uuid.UUID) (*models.SessionReport, error) {
	var report models.SessionReport
	err := r.pool.QueryRow(ctx,
		`SELECT id, session_id, session_name, host_id, host_email, session_ended_at, created_at
		 FROM session_reports WHERE session_id = $1`, sessionID).
		Scan(&report.ID, &report.SessionID, &report.SessionName, &report.HostID,
			&report.HostEmail, &report.SessionEndedAt, &report.CreatedAt)
	if err != nil {
		return nil, err
	}
	report.StudentResults, err = r.listEntries(ctx, report.ID)
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByHost returns a host's session reports (headers only), newest first.
func (r *Repository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]models.SessionReport, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, session_name, host_id, host_email, session_ended_at, created_at
		 FROM session_reports WHERE host_id = $1 ORDER BY session_ended_at DESC`, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.SessionReport
	for rows.Next() {
		var report models.SessionReport
		if err := rows.Scan(&report.ID, &report.SessionID, &report.SessionName, &report.HostID,
			&report.HostEmail, &report.SessionEndedAt, &report.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, report)
	}
	return list, rows.Err()
}

// ListByStudent returns the entries a student appears in, newest session first.
func (r *Repository) ListByStudent(ctx context.Context, userID uuid.UUID) ([]models.SessionReportEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT e.user_id, e.student_email, e.student_name, e.total_polls, e.polls_attempted,
		        e.correct_answers, e.total_points, e.streak, e.longest_streak, e.average_time, e.accuracy
		 FROM session_report_entries e
		 JOIN session_reports s ON s.id = e.report_id
		 WHERE e.user_id = $1 ORDER BY s.session_ended_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *Repository) listEntries(ctx context.Context, reportID uuid.UUID) ([]models.SessionReportEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, student_email, student_name, total_polls, polls_attempted,
		        correct_answers, total_points, streak, longest_streak, average_time, accuracy
		 FROM session_report_entries WHERE report_id = $1 ORDER BY total_points DESC`, reportID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}) ([]models.SessionReportEntry, error) {
	var list []models.SessionReportEntry
	for rows.Next() {
		var e models.SessionReportEntry
		if err := rows.Scan(&e.UserID, &e.StudentEmail, &e.StudentName, &e.TotalPolls, &e.PollsAttempted,
			&e.CorrectAnswers, &e.TotalPoints, &e.Streak, &e.LongestStreak, &e.AverageTime, &e.Accuracy); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
