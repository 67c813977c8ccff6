package segments

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// ErrNoSegments indicates a meeting has no saved transcript segments yet.
var ErrNoSegments = errors.New("no transcript segments for meeting")

const segmentColumns = `id, meeting_id, participant_id, role, COALESCE(display_name,''), text, word_count, created_at`

// Repository persists transcript segments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a transcript segment repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanSegment(row pgx.Row) (*models.TranscriptSegment, error) {
	var s models.TranscriptSegment
	err := row.Scan(&s.ID, &s.MeetingID, &s.ParticipantID, &s.Role, &s.DisplayName,
		&s.Text, &s.WordCount, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts one segment.
func (r *Repository) Create(ctx context.Context, s *models.TranscriptSegment) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO transcript_segments (meeting_id, participant_id, role, display_name, text, word_count)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		s.MeetingID, s.ParticipantID, s.Role, s.DisplayName, s.Text, s.WordCount,
	).Scan(&s.ID, &s.CreatedAt)
}

// CreateBatch inserts segments one by one so a single bad row does not sink
// the batch. Returns how many rows made it in.
func (r *Repository) CreateBatch(ctx context.Context, segs []models.TranscriptSegment) (int, []error) {
	saved := 0
	var errs []error
	for i := range segs {
		if err := r.Create(ctx, &segs[i]); err != nil {
			errs = append(errs, err)
			continue
		}
		saved++
	}
	return saved, errs
}

// GetLast returns the most recent segment for a meeting.
func (r *Repository) GetLast(ctx context.Context, meetingID uuid.UUID) (*models.TranscriptSegment, error) {
	s, err := scanSegment(r.pool.QueryRow(ctx, `
		SELECT `+segmentColumns+` FROM transcript_segments
		WHERE meeting_id = $1 ORDER BY created_at DESC LIMIT 1`, meetingID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoSegments
	}
	return s, err
}

// ListByMeeting returns all segments for a meeting in creation order.
func (r *Repository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]models.TranscriptSegment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+segmentColumns+` FROM transcript_segments
		WHERE meeting_id = $1 ORDER BY created_at`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.TranscriptSegment
	for rows.Next() {
		s, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
