package polls

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/middleware"
	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/rooms"
	"github.com/classpulse/backend/pkg/response"
)

// CreateRequest is the body for POST /api/polls.
type CreateRequest struct {
	RoomID        uuid.UUID `json:"room_id" binding:"required"`
	Title         string    `json:"title" binding:"required"`
	Type          string    `json:"type" binding:"required,oneof=mcq truefalse"`
	Options       []string  `json:"options" binding:"required,min=2"`
	CorrectAnswer string    `json:"correct_answer" binding:"required"`
	TimerDuration int       `json:"timer_duration" binding:"required,min=5,max=600"`
}

// Handler handles poll HTTP endpoints.
type Handler struct {
	repo     *Repository
	roomRepo *rooms.Repository
}

// NewHandler creates a polls handler.
func NewHandler(repo *Repository, roomRepo *rooms.Repository) *Handler {
	return &Handler{repo: repo, roomRepo: roomRepo}
}

// Create handles POST /api/polls (host only).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
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
		response.Forbidden(c, "only the room host can create polls")
		return
	}
	if !containsOption(req.Options, req.CorrectAnswer) {
		response.BadRequest(c, "correct_answer must be one of options")
		return
	}

	p := &models.Poll{
		HostID:        hostID,
		RoomID:        req.RoomID,
		Title:         req.Title,
		Type:          models.PollType(req.Type),
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		TimerDuration: req.TimerDuration,
	}
	if err := h.repo.Create(c.Request.Context(), p); err != nil {
		response.Internal(c, "failed to create poll")
		return
	}
	response.Created(c, p)
}

// List handles GET /api/polls (host only): the caller's polls.
func (h *Handler) List(c *gin.Context) {
	hostID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	list, err := h.repo.ListByHost(c.Request.Context(), hostID)
	if err != nil {
		response.Internal(c, "failed to list polls")
		return
	}
	response.OK(c, list)
}

func containsOption(options []string, answer string) bool {
	for _, o := range options {
		if o == answer {
			return true
		}
	}
	return false
}
