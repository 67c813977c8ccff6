package models

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptSegment is one finalized chunk of recognized speech for a meeting.
// Recognition happens client-side; the backend stores the text it is handed.
type TranscriptSegment struct {
	ID            uuid.UUID `json:"id"`
	MeetingID     uuid.UUID `json:"meeting_id"`
	ParticipantID string    `json:"participant_id"`
	Role          string    `json:"role"` // host | participant | guest
	DisplayName   string    `json:"display_name"`
	Text          string    `json:"text"`
	WordCount     int       `json:"word_count"`
	CreatedAt     time.Time `json:"created_at"`
}

// ArchiveStatus is the upload state of a captured audio buffer.
type ArchiveStatus string

const (
	ArchivePending  ArchiveStatus = "pending"
	ArchiveUploaded ArchiveStatus = "uploaded"
	ArchiveFailed   ArchiveStatus = "failed"
)

// AudioArchive records one finalized audio capture from the ASR gateway.
// Bytes are staged locally and shipped to S3 by the background worker.
type AudioArchive struct {
	ID         uuid.UUID     `json:"id"`
	MeetingID  uuid.UUID     `json:"meeting_id"`
	SessionID  string        `json:"session_id"` // gateway connection session
	SampleRate int           `json:"sample_rate"`
	Channels   int           `json:"channels"`
	ByteSize   int64         `json:"byte_size"`
	LocalPath  string        `json:"-"`
	S3Key      string        `json:"s3_key,omitempty"`
	Status     ArchiveStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
}
