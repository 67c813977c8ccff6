package rooms

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/auth"
	"github.com/classpulse/backend/internal/middleware"
	"github.com/classpulse/backend/pkg/queue"
	"github.com/classpulse/backend/pkg/response"
)

// CreateRequest is the body for POST /api/rooms.
type CreateRequest struct {
	Name string `json:"name" binding:"required"`
}

// InviteRequest is the body for POST /api/rooms/:id/invite.
type InviteRequest struct {
	Emails []string `json:"emails" binding:"required,min=1"`
}

// Handler handles room HTTP endpoints.
type Handler struct {
	repo        *Repository
	users       *auth.Repository
	jobs        *queue.Queue
	frontendURL string
	logger      *zap.Logger
}

// NewHandler creates a rooms handler.
func NewHandler(repo *Repository, users *auth.Repository, jobs *queue.Queue, frontendURL string, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, users: users, jobs: jobs, frontendURL: frontendURL, logger: logger}
}

// Create handles POST /api/rooms (host only). A host can have at most one
// active room; the repository deactivates prior ones inside the transaction.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	hostID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	host, err := h.users.GetByID(c.Request.Context(), hostID)
	if err != nil {
		response.Internal(c, "failed to load host profile")
		return
	}

	code, err := NewJoinCode()
	if err != nil {
		response.Internal(c, "failed to generate join code")
		return
	}

	room, err := h.repo.Create(c.Request.Context(), hostID, host.FullName, req.Name, code)
	if err != nil {
		h.logger.Error("create room", zap.Error(err))
		response.Internal(c, "failed to create room")
		return
	}
	response.Created(c, room)
}

// Current handles GET /api/rooms/current (host only).
func (h *Handler) Current(c *gin.Context) {
	hostID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	room, err := h.repo.GetCurrentForHost(c.Request.Context(), hostID)
	if err != nil {
		response.NotFound(c, "no active room")
		return
	}
	room.Participants, _ = h.repo.ListParticipants(c.Request.Context(), room.ID)
	response.OK(c, room)
}

// GetByCode handles GET /api/rooms/:code. Students use this to preview a room
// before joining over the realtime channel.
func (h *Handler) GetByCode(c *gin.Context) {
	room, err := h.repo.GetActiveByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		response.NotFound(c, "room not found")
		return
	}
	response.OK(c, gin.H{
		"id":        room.ID,
		"code":      room.Code,
		"name":      room.Name,
		"host_name": room.HostName,
	})
}

// Invite handles POST /api/rooms/:id/invite (host only): enqueues one invite
// email per address carrying the join code.
func (h *Handler) Invite(c *gin.Context) {
	roomID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid room id")
		return
	}
	hostID := c.MustGet(middleware.ContextUserID).(uuid.UUID)

	room, err := h.repo.GetByID(c.Request.Context(), roomID)
	if err != nil {
		response.NotFound(c, "room not found")
		return
	}
	if room.HostID != hostID {
		response.Forbidden(c, "only the room host can send invites")
		return
	}

	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	link := fmt.Sprintf("%s/join?code=%s", h.frontendURL, room.Code)
	sent := 0
	for _, email := range req.Emails {
		err := h.jobs.EnqueueEmail(c.Request.Context(), queue.EmailPayload{
			EmailType:      "room_invite",
			RecipientEmail: email,
			Subject:        fmt.Sprintf("%s invited you to %s", room.HostName, room.Name),
			BodyHTML:       fmt.Sprintf(`<p>Join with code <b>%s</b> or open <a href="%s">this link</a>.</p>`, room.Code, link),
		})
		if err != nil {
			h.logger.Warn("enqueue invite email", zap.String("email", email), zap.Error(err))
			continue
		}
		sent++
	}
	response.OK(c, gin.H{"invited": sent})
}
