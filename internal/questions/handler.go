package questions

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/middleware"
	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/polls"
	"github.com/classpulse/backend/internal/rooms"
	"github.com/classpulse/backend/pkg/response"
)

// TranscriptSource lists saved transcript segments for a meeting.
type TranscriptSource interface {
	ListByMeeting(ctx context.Context, meetingID uuid.UUID) ([]models.TranscriptSegment, error)
}

// Handler handles the meeting question endpoints.
type Handler struct {
	repo        *Repository
	gemini      *GeminiService
	transcripts TranscriptSource
	pollRepo    *polls.Repository
	roomRepo    *rooms.Repository
	hub         Broadcaster
	logger      *zap.Logger
}

// NewHandler creates a questions handler.
func NewHandler(repo *Repository, gemini *GeminiService, transcripts TranscriptSource,
	pollRepo *polls.Repository, roomRepo *rooms.Repository, hub Broadcaster, logger *zap.Logger) *Handler {
	return &Handler{
		repo:        repo,
		gemini:      gemini,
		transcripts: transcripts,
		pollRepo:    pollRepo,
		roomRepo:    roomRepo,
		hub:         hub,
		logger:      logger,
	}
}

// Transcripts handles GET /api/meetings/:id/transcripts.
func (h *Handler) Transcripts(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	segs, err := h.transcripts.ListByMeeting(c.Request.Context(), meetingID)
	if err != nil {
		response.Internal(c, "failed to list transcripts")
		return
	}
	response.OK(c, segs)
}

// GenerateRequest is the body for POST /api/meetings/:id/generate-questions.
type GenerateRequest struct {
	NumQuestions int    `json:"num_questions" binding:"required,min=1,max=15"`
	Difficulty   string `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Language     string `json:"language"`
}

// Generate handles POST /api/meetings/:id/generate-questions: a host-driven
// run over the meeting's full transcript, saved as a draft batch for review.
func (h *Handler) Generate(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	if h.gemini == nil {
		response.Internal(c, "question generation is not configured")
		return
	}
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	segs, err := h.transcripts.ListByMeeting(c.Request.Context(), meetingID)
	if err != nil {
		response.Internal(c, "failed to load transcripts")
		return
	}
	if len(segs) == 0 {
		response.BadRequest(c, "meeting has no transcripts to generate from")
		return
	}

	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = s.Text
	}
	cfg := models.GenerationConfig{
		NumQuestions: req.NumQuestions,
		Difficulty:   req.Difficulty,
		Language:     req.Language,
	}

	qs, summary, err := h.gemini.GenerateQuestions(c.Request.Context(), strings.Join(texts, "\n"), cfg)
	if err != nil {
		h.logger.Error("question generation failed",
			zap.String("meeting_id", meetingID.String()), zap.Error(err))
		response.Internal(c, "question generation failed")
		return
	}

	rawCfg, _ := json.Marshal(cfg)
	batch := &models.QuestionBatch{
		MeetingID: meetingID,
		Config:    rawCfg,
		Summary:   summary,
		Status:    models.BatchDraft,
		Questions: qs,
	}
	if err := h.repo.CreateBatch(c.Request.Context(), batch); err != nil {
		response.Internal(c, "failed to save question batch")
		return
	}
	response.Created(c, batch)
}

// Summarize handles POST /api/meetings/:id/summarize: a plain-text summary of
// everything transcribed so far, without generating questions.
func (h *Handler) Summarize(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	if h.gemini == nil {
		response.Internal(c, "summarization is not configured")
		return
	}

	segs, err := h.transcripts.ListByMeeting(c.Request.Context(), meetingID)
	if err != nil {
		response.Internal(c, "failed to load transcripts")
		return
	}
	if len(segs) == 0 {
		response.BadRequest(c, "meeting has no transcripts to summarize")
		return
	}

	texts := make([]string, len(segs))
	for i, s := range segs {
		texts[i] = s.Text
	}
	summary, err := h.gemini.GenerateSummary(c.Request.Context(), strings.Join(texts, "\n"))
	if err != nil {
		h.logger.Error("summary generation failed",
			zap.String("meeting_id", meetingID.String()), zap.Error(err))
		response.Internal(c, "summary generation failed")
		return
	}
	response.OK(c, gin.H{"meeting_id": meetingID, "summary": summary})
}

// List handles GET /api/meetings/:id/questions.
func (h *Handler) List(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	batches, err := h.repo.ListByMeeting(c.Request.Context(), meetingID)
	if err != nil {
		response.Internal(c, "failed to list question batches")
		return
	}
	response.OK(c, batches)
}

// Publish handles PUT /api/meetings/:id/publish-questions.
func (h *Handler) Publish(c *gin.Context) {
	var req struct {
		BatchID uuid.UUID `json:"batch_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "batch_id is required")
		return
	}
	if err := h.repo.SetBatchStatus(c.Request.Context(), req.BatchID, models.BatchPublished); err != nil {
		if errors.Is(err, ErrBatchNotFound) {
			response.NotFound(c, "question batch not found")
			return
		}
		response.Internal(c, "failed to publish question batch")
		return
	}
	response.OK(c, gin.H{"batch_id": req.BatchID, "status": models.BatchPublished})
}

// LaunchRequest is the body for POST /api/meetings/:id/launch-question.
type LaunchRequest struct {
	QuestionID    uuid.UUID `json:"question_id" binding:"required"`
	RoomID        uuid.UUID `json:"room_id" binding:"required"`
	TimerDuration int       `json:"timer_duration" binding:"required,min=5,max=600"`
}

// Launch handles POST /api/meetings/:id/launch-question: converts a generated
// question into a live poll in the host's room.
func (h *Handler) Launch(c *gin.Context) {
	var req LaunchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	hostID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	room, err := h.roomRepo.GetByID(c.Request.Context(), req.RoomID)
	if err != nil {
		response.NotFound(c, "room not found")
		return
	}
	if room.HostID != hostID {
		response.Forbidden(c, "only the room host can launch questions")
		return
	}
	if !room.IsActive {
		response.BadRequest(c, "room is not active")
		return
	}

	q, err := h.repo.GetQuestion(c.Request.Context(), req.QuestionID)
	if err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			response.NotFound(c, "question not found")
			return
		}
		response.Internal(c, "failed to load question")
		return
	}

	options := q.Options
	pollType := models.PollTypeMCQ
	if q.Type == "true_false" {
		pollType = models.PollTypeTrueFalse
		if len(options) == 0 {
			options = []string{"True", "False"}
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(options) {
		response.BadRequest(c, "question has no valid correct option")
		return
	}

	poll := &models.Poll{
		HostID:        hostID,
		RoomID:        room.ID,
		Title:         q.QuestionText,
		Type:          pollType,
		Options:       options,
		CorrectAnswer: options[q.CorrectIndex],
		TimerDuration: req.TimerDuration,
	}
	if err := h.pollRepo.Create(c.Request.Context(), poll); err != nil {
		response.Internal(c, "failed to create poll")
		return
	}
	if err := h.roomRepo.SetCurrentPoll(c.Request.Context(), room.ID, &poll.ID); err != nil {
		response.Internal(c, "failed to launch poll")
		return
	}
	if err := h.repo.SetQuestionStatus(c.Request.Context(), q.ID, models.QuestionLaunched); err != nil {
		h.logger.Warn("mark question launched failed",
			zap.String("question_id", q.ID.String()), zap.Error(err))
	}

	if h.hub != nil {
		h.hub.BroadcastToRoomAndPublish(room.ID, "poll-started", gin.H{
			"id":             poll.ID,
			"title":          poll.Title,
			"type":           poll.Type,
			"options":        poll.Options,
			"timer_duration": poll.TimerDuration,
		})
	}
	response.Created(c, poll)
}
