package models

import (
	"time"

	"github.com/google/uuid"
)

// Report is one student's answer to one poll. At most one per (poll, user),
// enforced by a unique index; never mutated after insert.
type Report struct {
	ID        uuid.UUID `json:"id"`
	RoomID    uuid.UUID `json:"room_id"`
	PollID    uuid.UUID `json:"poll_id"`
	UserID    uuid.UUID `json:"user_id"`
	Answer    string    `json:"answer"`
	IsCorrect bool      `json:"is_correct"`
	TimeTaken float64   `json:"time_taken"` // seconds
	Points    int       `json:"points"`
	CreatedAt time.Time `json:"created_at"`
}

// LeaderboardEntry is a per-user aggregate of points within a room (or globally).
type LeaderboardEntry struct {
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"name"`
	TotalPoints int       `json:"total_points"`
	Correct     int       `json:"correct"`
	Attempted   int       `json:"attempted"`
}
