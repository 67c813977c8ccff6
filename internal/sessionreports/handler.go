package sessionreports

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/middleware"
	"github.com/classpulse/backend/pkg/response"
)

// Handler handles session report HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a session reports handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// List handles GET /api/session-reports: a host sees their session summaries,
// a student sees their own entries across sessions.
func (h *Handler) List(c *gin.Context) {
	userID := c.MustGet(middleware.ContextUserID).(uuid.UUID)
	role, _ := c.MustGet(middleware.ContextUserRole).(string)

	if role == "host" {
		list, err := h.repo.ListByHost(c.Request.Context(), userID)
		if err != nil {
			response.Internal(c, "failed to list session reports")
			return
		}
		response.OK(c, list)
		return
	}

	list, err := h.repo.ListByStudent(c.Request.Context(), userID)
	if err != nil {
		response.Internal(c, "failed to list session results")
		return
	}
	response.OK(c, list)
}

// GetBySession handles GET /api/session-reports/:sessionId.
func (h *Handler) GetBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("sessionId"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	report, err := h.repo.GetBySessionID(c.Request.Context(), sessionID)
	if err != nil {
		response.NotFound(c, "session report not found")
		return
	}
	response.OK(c, report)
}
