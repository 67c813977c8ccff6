package segments

import (
	"errors"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/questions"
	"github.com/classpulse/backend/pkg/response"
)

// Handler handles the transcript segment endpoints. Saves pass through the
// duplicate guard before hitting the database, and an accepted save triggers
// question generation in the background.
type Handler struct {
	repo      *Repository
	questions *questions.Repository
	auto      *questions.AutoService
	logger    *zap.Logger

	mu     sync.Mutex
	guards map[uuid.UUID]*SaveGuard // per-meeting guard state
}

// NewHandler creates a segments handler.
func NewHandler(repo *Repository, questionRepo *questions.Repository,
	auto *questions.AutoService, logger *zap.Logger) *Handler {
	return &Handler{
		repo:      repo,
		questions: questionRepo,
		auto:      auto,
		logger:    logger,
		guards:    make(map[uuid.UUID]*SaveGuard),
	}
}

func (h *Handler) guardFor(meetingID uuid.UUID) *SaveGuard {
	h.mu.Lock()
	defer h.mu.Unlock()
	g, ok := h.guards[meetingID]
	if !ok {
		g = NewSaveGuard()
		h.guards[meetingID] = g
	}
	return g
}

// SaveRequest is the body for POST /api/segments/save.
type SaveRequest struct {
	MeetingID     uuid.UUID `json:"meeting_id" binding:"required"`
	ParticipantID string    `json:"participant_id" binding:"required"`
	Role          string    `json:"role" binding:"required,oneof=host participant guest"`
	DisplayName   string    `json:"display_name"`
	Text          string    `json:"text" binding:"required"`
}

// Save handles POST /api/segments/save.
func (h *Handler) Save(c *gin.Context) {
	var req SaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	lastText := ""
	last, err := h.repo.GetLast(c.Request.Context(), req.MeetingID)
	if err != nil && !errors.Is(err, ErrNoSegments) {
		response.Internal(c, "failed to load last segment")
		return
	}
	if last != nil {
		lastText = last.Text
	}

	if reason := h.guardFor(req.MeetingID).Check(req.Text, lastText); reason != RejectNone {
		h.logger.Debug("segment save rejected",
			zap.String("meeting_id", req.MeetingID.String()),
			zap.String("reason", string(reason)))
		response.OK(c, gin.H{"saved": false, "reason": reason})
		return
	}

	seg := &models.TranscriptSegment{
		MeetingID:     req.MeetingID,
		ParticipantID: req.ParticipantID,
		Role:          req.Role,
		DisplayName:   req.DisplayName,
		Text:          strings.TrimSpace(req.Text),
		WordCount:     len(strings.Fields(req.Text)),
	}
	if err := h.repo.Create(c.Request.Context(), seg); err != nil {
		response.Internal(c, "failed to save segment")
		return
	}

	if h.auto != nil {
		go h.auto.GenerateForSegment(*seg)
	}
	response.Created(c, gin.H{"saved": true, "segment": seg})
}

// Last handles GET /api/segments/last/:meetingId.
func (h *Handler) Last(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("meetingId"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	seg, err := h.repo.GetLast(c.Request.Context(), meetingID)
	if err != nil {
		if errors.Is(err, ErrNoSegments) {
			response.NotFound(c, "no segments for meeting")
			return
		}
		response.Internal(c, "failed to load segment")
		return
	}
	response.OK(c, seg)
}

// List handles GET /api/segments/:meetingId.
func (h *Handler) List(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("meetingId"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	segs, err := h.repo.ListByMeeting(c.Request.Context(), meetingID)
	if err != nil {
		response.Internal(c, "failed to list segments")
		return
	}
	response.OK(c, segs)
}

// Questions handles GET /api/segments/:meetingId/questions: every question
// batch generated from this meeting's segments.
func (h *Handler) Questions(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("meetingId"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	batches, err := h.questions.ListByMeeting(c.Request.Context(), meetingID)
	if err != nil {
		response.Internal(c, "failed to list question batches")
		return
	}
	response.OK(c, batches)
}
