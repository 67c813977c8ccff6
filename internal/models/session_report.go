package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionReport is the immutable summary of one ended room. The unique
// session_id index makes regeneration fail rather than duplicate.
type SessionReport struct {
	ID             uuid.UUID            `json:"id"`
	SessionID      uuid.UUID            `json:"session_id"`
	SessionName    string               `json:"session_name"`
	HostID         uuid.UUID            `json:"host_id"`
	HostEmail      string               `json:"host_email"`
	SessionEndedAt time.Time            `json:"session_ended_at"`
	StudentResults []SessionReportEntry `json:"student_results"`
	CreatedAt      time.Time            `json:"created_at"`
}

// SessionReportEntry holds one student's aggregated results for a session.
// Streak is the trailing run of correct answers at session end; LongestStreak
// is the global maximum run, so LongestStreak >= Streak always.
type SessionReportEntry struct {
	UserID         uuid.UUID `json:"user_id"`
	StudentEmail   string    `json:"student_email"`
	StudentName    string    `json:"student_name"`
	TotalPolls     int       `json:"total_polls"`
	PollsAttempted int       `json:"polls_attempted"`
	CorrectAnswers int       `json:"correct_answers"`
	TotalPoints    int       `json:"total_points"`
	Streak         int       `json:"streak"`
	LongestStreak  int       `json:"longest_streak"`
	AverageTime    float64   `json:"average_time"`
	Accuracy       float64   `json:"accuracy"` // percent
}
