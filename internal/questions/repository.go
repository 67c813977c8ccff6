package questions

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/classpulse/backend/internal/models"
)

// ErrBatchNotFound indicates a missing question batch.
var ErrBatchNotFound = errors.New("question batch not found")

// ErrQuestionNotFound indicates a missing generated question.
var ErrQuestionNotFound = errors.New("generated question not found")

// Repository persists question batches and their questions.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a question repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateBatch inserts a batch and its questions atomically.
func (r *Repository) CreateBatch(ctx context.Context, b *models.QuestionBatch) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cfg := b.Config
	if len(cfg) == 0 {
		cfg = json.RawMessage(`{}`)
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO generated_question_batches (meeting_id, segment_id, config, summary, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		b.MeetingID, b.SegmentID, cfg, b.Summary, b.Status,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return err
	}

	for i := range b.Questions {
		q := &b.Questions[i]
		q.BatchID = b.ID
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return err
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO generated_questions
				(batch_id, position, type, difficulty, question_text, options, correct_index, explanation, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING id`,
			q.BatchID, q.Position, q.Type, q.Difficulty, q.QuestionText,
			opts, q.CorrectIndex, q.Explanation, q.Status,
		).Scan(&q.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// GetBatch loads a batch with its questions.
func (r *Repository) GetBatch(ctx context.Context, id uuid.UUID) (*models.QuestionBatch, error) {
	var b models.QuestionBatch
	err := r.pool.QueryRow(ctx, `
		SELECT id, meeting_id, segment_id, config, COALESCE(summary,''), status, created_at
		FROM generated_question_batches WHERE id = $1`, id,
	).Scan(&b.ID, &b.MeetingID, &b.SegmentID, &b.Config, &b.Summary, &b.Status, &b.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrBatchNotFound
	}
	if err != nil {
		return nil, err
	}
	b.Questions, err = r.listQuestions(ctx, b.ID)
	return &b, err
}

// ListByMeeting returns all batches for a meeting, questions included, newest first.
func (r *Repository) ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]models.QuestionBatch, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, meeting_id, segment_id, config, COALESCE(summary,''), status, created_at
		FROM generated_question_batches
		WHERE meeting_id = $1 ORDER BY created_at DESC`, meetingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.QuestionBatch
	for rows.Next() {
		var b models.QuestionBatch
		if err := rows.Scan(&b.ID, &b.MeetingID, &b.SegmentID, &b.Config, &b.Summary, &b.Status, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Questions, err = r.listQuestions(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) listQuestions(ctx context.Context, batchID uuid.UUID) ([]models.GeneratedQuestion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, batch_id, position, type, difficulty, question_text, options, correct_index, COALESCE(explanation,''), status
		FROM generated_questions WHERE batch_id = $1 ORDER BY position`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.GeneratedQuestion
	for rows.Next() {
		var q models.GeneratedQuestion
		var opts []byte
		if err := rows.Scan(&q.ID, &q.BatchID, &q.Position, &q.Type, &q.Difficulty,
			&q.QuestionText, &opts, &q.CorrectIndex, &q.Explanation, &q.Status); err != nil {
			return nil, err
		}
		if len(opts) > 0 {
			if err := json.Unmarshal(opts, &q.Options); err != nil {
				return nil, err
			}
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

// GetQuestion loads a single generated question.
func (r *Repository) GetQuestion(ctx context.Context, id uuid.UUID) (*models.GeneratedQuestion, error) {
	var q models.GeneratedQuestion
	var opts []byte
	err := r.pool.QueryRow(ctx, `
		SELECT id, batch_id, position, type, difficulty, question_text, options, correct_index, COALESCE(explanation,''), status
		FROM generated_questions WHERE id = $1`, id,
	).Scan(&q.ID, &q.BatchID, &q.Position, &q.Type, &q.Difficulty,
		&q.QuestionText, &opts, &q.CorrectIndex, &q.Explanation, &q.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, err
	}
	if len(opts) > 0 {
		if err := json.Unmarshal(opts, &q.Options); err != nil {
			return nil, err
		}
	}
	return &q, nil
}

// SetBatchStatus moves a batch through its lifecycle.
func (r *Repository) SetBatchStatus(ctx context.Context, id uuid.UUID, status models.BatchStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE generated_question_batches SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBatchNotFound
	}
	return nil
}

// SetQuestionStatus updates one question's review state.
func (r *Repository) SetQuestionStatus(ctx context.Context, id uuid.UUID, status models.QuestionStatus) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE generated_questions SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrQuestionNotFound
	}
	return nil
}
