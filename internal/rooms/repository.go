package rooms

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

const roomColumns = `id, code, name, host_id, host_name, COALESCE(host_client_id,''),
	is_active, current_poll_id, created_at, updated_at`

// Repository handles room and participant persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a rooms repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanRoom(row pgx.Row) (*models.Room, error) {
	var r models.Room
	err := row.Scan(&r.ID, &r.Code, &r.Name, &r.HostID, &r.HostName, &r.HostClientID,
		&r.IsActive, &r.CurrentPoll, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Create deactivates any prior active rooms for the host, then inserts a new
// active room, in one transaction. At most one active room per host holds.
func (r *Repository) Create(ctx context.Context, hostID uuid.UUID, hostName, name, code string) (*models.Room, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE rooms SET is_active = FALSE, updated_at = NOW() WHERE host_id = $1 AND is_active`, hostID); err != nil {
		return nil, fmt.Errorf("deactivate prior rooms: %w", err)
	}

	room, err := scanRoom(tx.QueryRow(ctx,
		`INSERT INTO rooms (code, name, host_id, host_name) VALUES ($1, $2, $3, $4) RETURNING `+roomColumns,
		code, name, hostID, hostName))
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return room, nil
}

// GetByID returns a room by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Room, error) {
	return scanRoom(r.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id))
}

// GetActiveByCode returns the active room carrying a join code.
func (r *Repository) GetActiveByCode(ctx context.Context, code string) (*models.Room, error) {
	return scanRoom(r.pool.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE code = $1 AND is_active`, code))
}

// GetCurrentForHost returns the host's active room, if any.
func (r *Repository) GetCurrentForHost(ctx context.Context, hostID uuid.UUID) (*models.Room, error) {
	return scanRoom(r.pool.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE host_id = $1 AND is_active ORDER BY created_at DESC LIMIT 1`, hostID))
}

// SetHostClientID records the host's latest websocket client for direct messaging.
func (r *Repository) SetHostClientID(ctx context.Context, roomID uuid.UUID, clientID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE rooms SET host_client_id = $2, updated_at = NOW() WHERE id = $1`, roomID, clientID)
	return err
}

// SetCurrentPoll sets (or clears, with nil) the room's live poll.
func (r *Repository) SetCurrentPoll(ctx context.Context, roomID uuid.UUID, pollID *uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE rooms SET current_poll_id = $2, updated_at = NOW() WHERE id = $1`, roomID, pollID)
	return err
}

// Deactivate soft-deletes the room. Rooms are never hard-deleted.
func (r *Repository) Deactivate(ctx context.Context, roomID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE rooms SET is_active = FALSE, current_poll_id = NULL, updated_at = NOW() WHERE id = $1`, roomID)
	return err
}

// DeactivateStale flips is_active off for rooms idle past the cutoff.
// Returns the number of rooms swept.
func (r *Repository) DeactivateStale(ctx context.Context, idleFor time.Duration) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE rooms SET is_active = FALSE, current_poll_id = NULL, updated_at = NOW()
		 WHERE is_active AND updated_at < NOW() - $1::interval`,
		fmt.Sprintf("%d minutes", int(idleFor.Minutes())))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// UpsertParticipant adds a student to the room participant list. The composite
// primary key makes repeated joins idempotent.
func (r *Repository) UpsertParticipant(ctx context.Context, roomID uuid.UUID, p models.Participant) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO room_participants (room_id, user_id, name, email, avatar_url)
		 VALUES ($1, $2, $3, $4, NULLIF($5,''))
		 ON CONFLICT (room_id, user_id) DO NOTHING`,
		roomID, p.UserID, p.Name, p.Email, p.AvatarURL)
	return err
}

// RemoveParticipant drops a student from the room participant list.
func (r *Repository) RemoveParticipant(ctx context.Context, roomID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM room_participants WHERE room_id = $1 AND user_id = $2`, roomID, userID)
	return err
}

// RemoveParticipantEverywhere drops a user from every active room they are in,
// returning the affected room IDs. Used on websocket disconnect.
func (r *Repository) RemoveParticipantEverywhere(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`DELETE FROM room_participants rp USING rooms rm
		 WHERE rp.user_id = $1 AND rm.id = rp.room_id AND rm.is_active
		 RETURNING rp.room_id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListParticipants returns the room's participant list ordered by join time.
func (r *Repository) ListParticipants(ctx context.Context, roomID uuid.UUID) ([]models.Participant, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, name, email, COALESCE(avatar_url,''), joined_at
		 FROM room_participants WHERE room_id = $1 ORDER BY joined_at`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.UserID, &p.Name, &p.Email, &p.AvatarURL, &p.JoinedAt); err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
