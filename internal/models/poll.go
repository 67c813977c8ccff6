package models

import (
	"time"

	"github.com/google/uuid"
)

// PollType is the question format of a poll.
type PollType string

const (
	PollTypeMCQ       PollType = "mcq"
	PollTypeTrueFalse PollType = "truefalse"
)

// Poll is one question instance launched into a room. Immutable after creation.
type Poll struct {
	ID            uuid.UUID `json:"id"`
	HostID        uuid.UUID `json:"host_id"`
	RoomID        uuid.UUID `json:"room_id"`
	Title         string    `json:"title"`
	Type          PollType  `json:"type"`
	Options       []string  `json:"options"`
	CorrectAnswer string    `json:"correct_answer"`
	TimerDuration int       `json:"timer_duration"` // seconds
	CreatedAt     time.Time `json:"created_at"`
}
