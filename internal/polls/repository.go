package polls

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// Repository handles poll persistence. Polls are immutable after creation.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a polls repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new poll.
func (r *Repository) Create(ctx context.Context, p *models.Poll) error {
	options, err := json.Marshal(p.Options)
	if err != nil {
		return err
	}
	const q = `INSERT INTO polls (host_id, room_id, title, type, options, correct_answer, timer_duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`
	return r.pool.QueryRow(ctx, q, p.HostID, p.RoomID, p.Title, string(p.Type), options, p.CorrectAnswer, p.TimerDuration).
		Scan(&p.ID, &p.CreatedAt)
}

// GetByID returns a poll by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Poll, error) {
	const q = `SELECT id, host_id, room_id, title, type, options, correct_answer, timer_duration, created_at
		FROM polls WHERE id = $1`
	var p models.Poll
	var typ string
	var options []byte
	err := r.pool.QueryRow(ctx, q, id).
		Scan(&p.ID, &p.HostID, &p.RoomID, &p.Title, &typ, &options, &p.CorrectAnswer, &p.TimerDuration, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Type = models.PollType(typ)
	if err := json.Unmarshal(options, &p.Options); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByHost returns a host's polls, newest first.
func (r *Repository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]models.Poll, error) {
	const q = `SELECT id, host_id, room_id, title, type, options, correct_answer, timer_duration, created_at
		FROM polls WHERE host_id = $1 ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, hostID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Poll
	for rows.Next() {
		var p models.Poll
		var typ string
		var options []byte
		if err := rows.Scan(&p.ID, &p.HostID, &p.RoomID, &p.Title, &typ, &options, &p.CorrectAnswer, &p.TimerDuration, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.Type = models.PollType(typ)
		if err := json.Unmarshal(options, &p.Options); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// CountDistinctByRoom returns how many distinct polls were ever launched to a
// room's voters, i.e. the poll IDs referenced by that room's reports.
func (r *Repository) CountDistinctByRoom(ctx context.Context, roomID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(DISTINCT poll_id) FROM reports WHERE room_id = $1`, roomID).Scan(&n)
	return n, err
}
