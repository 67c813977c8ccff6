package asr

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/pkg/response"
	"github.com/classpulse/backend/pkg/storage"
)

// RecordingsHandler serves archived meeting audio over REST.
type RecordingsHandler struct {
	archives *ArchiveRepository
	s3       *storage.S3
	logger   *zap.Logger
}

// NewRecordingsHandler creates the recordings handler. s3 may be nil when
// object storage is not configured; download URLs are then omitted.
func NewRecordingsHandler(archives *ArchiveRepository, s3 *storage.S3, logger *zap.Logger) *RecordingsHandler {
	return &RecordingsHandler{archives: archives, s3: s3, logger: logger}
}

type recordingItem struct {
	models.AudioArchive
	DownloadURL string `json:"download_url,omitempty"`
}

// List handles GET /api/meetings/:id/recordings: a meeting's audio archives,
// with a temporary download URL for each uploaded one.
func (h *RecordingsHandler) List(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}

	archives, err := h.archives.ListByMeeting(c.Request.Context(), meetingID)
	if err != nil {
		response.Internal(c, "failed to list recordings")
		return
	}

	items := make([]recordingItem, 0, len(archives))
	for _, a := range archives {
		item := recordingItem{AudioArchive: a}
		if h.s3 != nil && a.Status == models.ArchiveUploaded && a.S3Key != "" {
			url, err := h.s3.PresignAudioDownload(c.Request.Context(), a.S3Key)
			if err != nil {
				h.logger.Warn("presign recording failed",
					zap.String("archive_id", a.ID.String()), zap.Error(err))
			} else {
				item.DownloadURL = url
			}
		}
		items = append(items, item)
	}
	response.OK(c, items)
}
