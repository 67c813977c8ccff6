package models

import (
	"time"

	"github.com/google/uuid"
)

// Room represents a live classroom session. Join codes are reused across
// sessions, so realtime channels are keyed by the room ID, never the code.
type Room struct {
	ID           uuid.UUID  `json:"id"`
	Code         string     `json:"code"`
	Name         string     `json:"name"`
	HostID       uuid.UUID  `json:"host_id"`
	HostName     string     `json:"host_name"`
	HostClientID string     `json:"-"` // latest websocket client id for direct host messaging
	IsActive     bool       `json:"is_active"`
	CurrentPoll  *uuid.UUID `json:"current_poll,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Participant is one student present in a room.
type Participant struct {
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	AvatarURL string    `json:"avatar_url"`
	JoinedAt  time.Time `json:"joined_at"`
}
