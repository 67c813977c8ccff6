package reports

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/classpulse/backend/pkg/response"
)

// Handler handles report HTTP endpoints.
type Handler struct {
	repo *Repository
}

// NewHandler creates a reports handler.
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo}
}

// Leaderboard handles GET /api/reports/leaderboard and
// GET /api/reports/leaderboard/:roomId.
func (h *Handler) Leaderboard(c *gin.Context) {
	var roomID *uuid.UUID
	if raw := c.Param("roomId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid room id")
			return
		}
		roomID = &id
	}
	list, err := h.repo.Leaderboard(c.Request.Context(), roomID)
	if err != nil {
		response.Internal(c, "failed to load leaderboard")
		return
	}
	response.OK(c, list)
}
