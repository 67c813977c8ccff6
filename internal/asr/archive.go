package asr

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// ErrArchiveNotFound indicates a missing audio archive row.
var ErrArchiveNotFound = errors.New("audio archive not found")

// ArchiveRepository persists finalized audio captures.
type ArchiveRepository struct {
	pool *pgxpool.Pool
}

// NewArchiveRepository creates an audio archive repository.
func NewArchiveRepository(pool *pgxpool.Pool) *ArchiveRepository {
	return &ArchiveRepository{pool: pool}
}

// Create inserts a pending archive row.
func (r *ArchiveRepository) Create(ctx context.Context, a *models.AudioArchive) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO audio_archives (meeting_id, session_id, sample_rate, channels, byte_size, local_path, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		a.MeetingID, a.SessionID, a.SampleRate, a.Channels, a.ByteSize, a.LocalPath, a.Status,
	).Scan(&a.ID, &a.CreatedAt)
}

// GetByID loads one archive row.
func (r *ArchiveRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.AudioArchive, error) {
	var a models.AudioArchive
	err := r.pool.QueryRow(ctx, `
		SELECT id, meeting_id, session_id, sample_rate, channels, byte_size,
		       COALESCE(local_path,''), COALESCE(s3_key,''), status, created_at
		FROM audio_archives WHERE id = $1`, id,
	).Scan(&a.ID, &a.MeetingID, &a.SessionID, &a.SampleRate, &a.Channels,
		&a.ByteSize, &a.LocalPath, &a.S3Key, &a.Status, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrArchiveNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByMeeting returns a meeting's archives, newest first.
func (r *ArchiveRepository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]models.AudioArchive, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, meeting_id, session_id, sample_rate, channels, byte_size,
		       COALESCE(local_path,''), COALESCE(s3_key,''), status, created_at
		FROM audio_archives WHERE meeting_id = $1
		ORDER BY created_at DESC`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.AudioArchive
	for rows.Next() {
		var a models.AudioArchive
		if err := rows.Scan(&a.ID, &a.MeetingID, &a.SessionID, &a.SampleRate, &a.Channels,
			&a.ByteSize, &a.LocalPath, &a.S3Key, &a.Status, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// MarkUploaded records the S3 key after a successful upload.
func (r *ArchiveRepository) MarkUploaded(ctx context.Context, id uuid.UUID, s3Key string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE audio_archives SET status = $2, s3_key = $3 WHERE id = $1`,
		id, models.ArchiveUploaded, s3Key)
	return err
}

// MarkFailed flags an archive whose upload exhausted its retries.
func (r *ArchiveRepository) MarkFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE audio_archives SET status = $2 WHERE id = $1`, id, models.ArchiveFailed)
	return err
}
