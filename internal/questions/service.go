package questions

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
)

// Broadcaster pushes events to the realtime channel for a meeting.
type Broadcaster interface {
	BroadcastToRoomAndPublish(roomID uuid.UUID, event string, payload interface{})
}

// AutoService turns saved transcript segments into published question
// batches without host interaction. Failures are logged and swallowed; the
// transcript save that triggered the run has already succeeded.
type AutoService struct {
	gemini *GeminiService
	repo   *Repository
	hub    Broadcaster
	logger *zap.Logger
}

// NewAutoService wires the auto-generation pipeline.
func NewAutoService(gemini *GeminiService, repo *Repository, hub Broadcaster, logger *zap.Logger) *AutoService {
	return &AutoService{gemini: gemini, repo: repo, hub: hub, logger: logger}
}

// QuestionCountFor sizes the batch from the transcript length: short
// fragments get 2 questions, a full segment up to 5.
func QuestionCountFor(wordCount int) int {
	switch {
	case wordCount < 40:
		return 2
	case wordCount < 80:
		return 3
	case wordCount < 150:
		return 4
	default:
		return 5
	}
}

// GenerateForSegment runs one auto-generation pass for a saved segment.
// Intended to be called in a goroutine, fire and forget.
func (s *AutoService) GenerateForSegment(seg models.TranscriptSegment) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	cfg := models.GenerationConfig{
		NumQuestions: QuestionCountFor(seg.WordCount),
		Difficulty:   "medium",
	}

	qs, summary, err := s.gemini.GenerateQuestions(ctx, seg.Text, cfg)
	if err != nil {
		s.logger.Error("auto question generation failed",
			zap.String("meeting_id", seg.MeetingID.String()),
			zap.String("segment_id", seg.ID.String()),
			zap.Error(err))
		return
	}

	rawCfg, _ := json.Marshal(cfg)
	segID := seg.ID
	batch := &models.QuestionBatch{
		MeetingID: seg.MeetingID,
		SegmentID: &segID,
		Config:    rawCfg,
		Summary:   summary,
		Status:    models.BatchPublished, // auto batches skip review
		Questions: qs,
	}
	if err := s.repo.CreateBatch(ctx, batch); err != nil {
		s.logger.Error("persist question batch failed",
			zap.String("meeting_id", seg.MeetingID.String()), zap.Error(err))
		return
	}

	s.logger.Info("auto-generated question batch",
		zap.String("meeting_id", seg.MeetingID.String()),
		zap.String("batch_id", batch.ID.String()),
		zap.Int("questions", len(batch.Questions)))

	if s.hub != nil {
		s.hub.BroadcastToRoomAndPublish(seg.MeetingID, "questions-generated", batch)
	}
}
