package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// BatchStatus is the lifecycle of a generated question batch.
type BatchStatus string

const (
	BatchDraft     BatchStatus = "draft"
	BatchPublished BatchStatus = "published"
	BatchArchived  BatchStatus = "archived"
)

// QuestionStatus is the per-question review state within a batch.
type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionApproved QuestionStatus = "approved"
	QuestionRejected QuestionStatus = "rejected"
	QuestionLaunched QuestionStatus = "launched" // converted into a Poll
)

// QuestionBatch is one AI-generation run tied to a meeting (and optionally a
// single transcript segment for auto-generated batches).
type QuestionBatch struct {
	ID        uuid.UUID           `json:"id"`
	MeetingID uuid.UUID           `json:"meeting_id"`
	SegmentID *uuid.UUID          `json:"segment_id,omitempty"`
	Config    json.RawMessage     `json:"config"`
	Summary   string              `json:"summary"`
	Status    BatchStatus         `json:"status"`
	Questions []GeneratedQuestion `json:"questions"`
	CreatedAt time.Time           `json:"created_at"`
}

// GeneratedQuestion is one AI-produced question inside a batch.
type GeneratedQuestion struct {
	ID           uuid.UUID      `json:"id"`
	BatchID      uuid.UUID      `json:"batch_id"`
	Position     int            `json:"position"`
	Type         string         `json:"type"` // multiple_choice | true_false
	Difficulty   string         `json:"difficulty"`
	QuestionText string         `json:"question_text"`
	Options      []string       `json:"options,omitempty"`
	CorrectIndex int            `json:"correct_index"`
	Explanation  string         `json:"explanation"`
	Status       QuestionStatus `json:"status"`
}

// GenerationConfig controls a question-generation run.
type GenerationConfig struct {
	NumQuestions int    `json:"num_questions"`
	Difficulty   string `json:"difficulty"`
	Language     string `json:"language,omitempty"`
}
