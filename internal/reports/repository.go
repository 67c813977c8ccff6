package reports

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// ErrAlreadyVoted is returned when a second report arrives for the same
// (poll, user) pair. The unique index is the guard; the constraint violation,
// not a pre-check, signals the duplicate, so concurrent submits cannot both win.
var ErrAlreadyVoted = errors.New("already voted for this poll")

// Repository handles report (vote) persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a report. Maps the (poll_id, user_id) unique violation to
// ErrAlreadyVoted.
func (r *Repository) Create(ctx context.Context, rep *models.Report) error {
	const q = `INSERT INTO reports (room_id, poll_id, user_id, answer, is_correct, time_taken, points)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	err := r.pool.QueryRow(ctx, q, rep.RoomID, rep.PollID, rep.UserID, rep.Answer, rep.IsCorrect, rep.TimeTaken, rep.Points).
		Scan(&rep.ID, &rep.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyVoted
		}
		return err
	}
	return nil
}

// ListByRoom returns every report for a room in creation order.
func (r *Repository) ListByRoom(ctx context.Context, roomID uuid.UUID) ([]models.Report, error) {
	const q = `SELECT id, room_id, poll_id, user_id, answer, is_correct, time_taken, points, created_at
		FROM reports WHERE room_id = $1 ORDER BY created_at`
	return r.list(ctx, q, roomID)
}

// ListByRoomAndUser returns one user's reports for a room in creation order.
func (r *Repository) ListByRoomAndUser(ctx context.Context, roomID, userID uuid.UUID) ([]models.Report, error) {
	const q = `SELECT id, room_id, poll_id, user_id, answer, is_correct, time_taken, points, created_at
		FROM reports WHERE room_id = $1 AND user_id = $2 ORDER BY created_at`
	return r.list(ctx, q, roomID, userID)
}

func (r *Repository) list(ctx context.Context, q string, args ...any) ([]models.Report, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Report
	for rows.Next() {
		var rep models.Report
		if err := rows.Scan(&rep.ID, &rep.RoomID, &rep.PollID, &rep.UserID, &rep.Answer,
			&rep.IsCorrect, &rep.TimeTaken, &rep.Points, &rep.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, rep)
	}
	return list, rows.Err()
}

// Leaderboard aggregates points per user, descending. A nil roomID aggregates
// across all rooms.
func (r *Repository) Leaderboard(ctx context.Context, roomID *uuid.UUID) ([]models.LeaderboardEntry, error) {
	q := `SELECT rep.user_id, u.full_name, SUM(rep.points), COUNT(*) FILTER (WHERE rep.is_correct), COUNT(*)
		FROM reports rep JOIN users u ON u.id = rep.user_id`
	var args []any
	if roomID != nil {
		q += ` WHERE rep.room_id = $1`
		args = append(args, *roomID)
	}
	q += ` GROUP BY rep.user_id, u.full_name ORDER BY SUM(rep.points) DESC, u.full_name`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Name, &e.TotalPoints, &e.Correct, &e.Attempted); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}
