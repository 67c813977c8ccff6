package asr

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/questions"
	"github.com/classpulse/backend/internal/segments"
	"github.com/classpulse/backend/pkg/queue"
)

const (
	defaultSampleRate = 16000
	defaultChannels   = 1
	// voiceRMSThreshold separates speech from noise for activity logging.
	voiceRMSThreshold = 500
)

var asrUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// controlMessage is the JSON envelope for text frames on the audio socket.
type controlMessage struct {
	Type        string           `json:"type"`
	Text        string           `json:"text,omitempty"`
	IsFinal     bool             `json:"is_final,omitempty"`
	Transcripts []transcriptItem `json:"transcripts,omitempty"`
}

type transcriptItem struct {
	Text          string `json:"text"`
	ParticipantID string `json:"participant_id,omitempty"`
	Role          string `json:"role,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
}

// Gateway is the raw WebSocket audio/transcript relay. No speech recognition
// happens here; clients recognize locally and this end persists text and
// stages audio for archival.
type Gateway struct {
	registry *Registry
	segments *segments.Repository
	archives *ArchiveRepository
	jobs     *queue.Queue
	auto     *questions.AutoService
	audioDir string
	logger   *zap.Logger
}

// NewGateway creates the ASR gateway.
func NewGateway(registry *Registry, segmentRepo *segments.Repository, archiveRepo *ArchiveRepository,
	jobs *queue.Queue, auto *questions.AutoService, audioDir string, logger *zap.Logger) *Gateway {
	return &Gateway{
		registry: registry,
		segments: segmentRepo,
		archives: archiveRepo,
		jobs:     jobs,
		auto:     auto,
		audioDir: audioDir,
		logger:   logger,
	}
}

// Handle serves GET /ws/asr. Identity rides in the query string; connections
// missing meeting_id, role or participant_id are closed with policy violation.
func (g *Gateway) Handle(c *gin.Context) {
	meetingID, err := uuid.Parse(c.Query("meeting_id"))
	role := c.Query("role")
	participantID := c.Query("participant_id")
	if err != nil || role == "" || participantID == "" {
		conn, upErr := asrUpgrader.Upgrade(c.Writer, c.Request, nil)
		if upErr != nil {
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation,
				"meeting_id, role and participant_id are required"),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return
	}

	conn, err := asrUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		g.logger.Warn("asr upgrade failed", zap.Error(err))
		return
	}

	sess := &Session{
		ID:            uuid.New().String(),
		MeetingID:     meetingID,
		ParticipantID: participantID,
		Role:          role,
		DisplayName:   c.Query("display_name"),
		SampleRate:    defaultSampleRate,
		Channels:      defaultChannels,
		Active:        true,
		conn:          conn,
	}
	g.registry.Add(sess)
	g.logger.Info("asr session opened",
		zap.String("session_id", sess.ID),
		zap.String("meeting_id", meetingID.String()),
		zap.String("role", role))

	_ = sess.WriteJSON(gin.H{"type": "session_started", "session_id": sess.ID})

	defer func() {
		g.registry.Remove(sess.ID)
		_ = conn.Close()
		g.logger.Info("asr session closed", zap.String("session_id", sess.ID))
	}()

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.TextMessage:
			g.handleControl(sess, data)
		case websocket.BinaryMessage:
			g.handleAudio(sess, data)
		}
	}
}

func (g *Gateway) handleControl(sess *Session, data []byte) {
	var msg controlMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		_ = sess.WriteJSON(gin.H{"type": "error", "message": "invalid control message"})
		return
	}

	switch msg.Type {
	case "start_session":
		// Sessions auto-initialize on connect; keep the explicit ack for
		// clients that send it anyway.
		_ = sess.WriteJSON(gin.H{"type": "session_started", "session_id": sess.ID})
	case "transcript":
		g.handleTranscript(sess, msg)
	case "save_transcripts":
		g.handleSaveTranscripts(sess, msg)
	case "finalize":
		g.handleFinalize(sess)
	default:
		_ = sess.WriteJSON(gin.H{"type": "error", "message": "unknown message type " + msg.Type})
	}
}

// handleTranscript relays one live utterance. Guest speech is fanned out to
// every other connection in the meeting and persisted; host and participant
// lines are recognized locally on every client already, so they only get an
// echo back.
func (g *Gateway) handleTranscript(sess *Session, msg controlMessage) {
	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	if sess.Role != "guest" {
		_ = sess.WriteJSON(gin.H{"type": "transcript_ack", "session_id": sess.ID})
		return
	}

	out := gin.H{
		"type":           "transcript",
		"text":           msg.Text,
		"is_final":       msg.IsFinal,
		"participant_id": sess.ParticipantID,
		"display_name":   sess.DisplayName,
		"role":           sess.Role,
	}
	for _, peer := range g.registry.ByMeeting(sess.MeetingID, sess.ID) {
		if err := peer.WriteJSON(out); err != nil {
			g.logger.Debug("guest transcript relay failed",
				zap.String("peer_session", peer.ID), zap.Error(err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	seg := &models.TranscriptSegment{
		MeetingID:     sess.MeetingID,
		ParticipantID: sess.ParticipantID,
		Role:          sess.Role,
		DisplayName:   sess.DisplayName,
		Text:          strings.TrimSpace(msg.Text),
		WordCount:     len(strings.Fields(msg.Text)),
	}
	if err := g.segments.Create(ctx, seg); err != nil {
		g.logger.Error("persist guest transcript failed", zap.Error(err))
	}
}

// handleSaveTranscripts bulk-persists client-recognized segments. Rows fail
// individually so one bad record cannot sink the batch; accepted text then
// feeds question generation in the background.
func (g *Gateway) handleSaveTranscripts(sess *Session, msg controlMessage) {
	if len(msg.Transcripts) == 0 {
		_ = sess.WriteJSON(gin.H{"type": "transcripts_saved", "saved": 0, "failed": 0})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	rows := make([]models.TranscriptSegment, 0, len(msg.Transcripts))
	var combined []string
	for _, t := range msg.Transcripts {
		text := strings.TrimSpace(t.Text)
		if text == "" {
			continue
		}
		participantID := t.ParticipantID
		if participantID == "" {
			participantID = sess.ParticipantID
		}
		role := t.Role
		if role == "" {
			role = sess.Role
		}
		name := t.DisplayName
		if name == "" {
			name = sess.DisplayName
		}
		rows = append(rows, models.TranscriptSegment{
			MeetingID:     sess.MeetingID,
			ParticipantID: participantID,
			Role:          role,
			DisplayName:   name,
			Text:          text,
			WordCount:     len(strings.Fields(text)),
		})
		combined = append(combined, text)
	}

	saved, errs := g.segments.CreateBatch(ctx, rows)
	for _, err := range errs {
		g.logger.Warn("transcript batch row failed", zap.Error(err))
	}
	_ = sess.WriteJSON(gin.H{"type": "transcripts_saved", "saved": saved, "failed": len(errs)})

	if saved > 0 && g.auto != nil {
		text := strings.Join(combined, "\n")
		anchor := rows[len(rows)-1]
		go g.auto.GenerateForSegment(models.TranscriptSegment{
			ID:            anchor.ID,
			MeetingID:     sess.MeetingID,
			ParticipantID: anchor.ParticipantID,
			Role:          anchor.Role,
			DisplayName:   anchor.DisplayName,
			Text:          text,
			WordCount:     len(strings.Fields(text)),
		})
	}
}

// handleFinalize stages buffered audio as a WAV file, records the archive
// row and hands the upload to the background worker.
func (g *Gateway) handleFinalize(sess *Session) {
	sess.Active = false
	pcm := sess.TakeAudio()
	if len(pcm) == 0 {
		_ = sess.WriteJSON(gin.H{"type": "finalized", "archived": false})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := os.MkdirAll(g.audioDir, 0o755); err != nil {
		g.logger.Error("create audio dir failed", zap.Error(err))
		_ = sess.WriteJSON(gin.H{"type": "error", "message": "could not stage audio"})
		return
	}
	localPath := filepath.Join(g.audioDir, fmt.Sprintf("%s-%s.wav", sess.MeetingID, sess.ID))
	if err := writeWAV(localPath, pcm, sess.SampleRate, sess.Channels); err != nil {
		g.logger.Error("write wav failed", zap.String("path", localPath), zap.Error(err))
		_ = sess.WriteJSON(gin.H{"type": "error", "message": "could not stage audio"})
		return
	}

	archive := &models.AudioArchive{
		MeetingID:  sess.MeetingID,
		SessionID:  sess.ID,
		SampleRate: sess.SampleRate,
		Channels:   sess.Channels,
		ByteSize:   int64(len(pcm)),
		LocalPath:  localPath,
		Status:     models.ArchivePending,
	}
	if err := g.archives.Create(ctx, archive); err != nil {
		g.logger.Error("persist audio archive failed", zap.Error(err))
		_ = sess.WriteJSON(gin.H{"type": "error", "message": "could not record archive"})
		return
	}

	if g.jobs != nil {
		err := g.jobs.EnqueueAudioUpload(ctx, queue.AudioUploadPayload{
			ArchiveID: archive.ID,
			MeetingID: sess.MeetingID,
			LocalPath: localPath,
		})
		if err != nil {
			g.logger.Error("enqueue audio upload failed", zap.Error(err))
		}
	}
	_ = sess.WriteJSON(gin.H{"type": "finalized", "archived": true, "archive_id": archive.ID})
}

// handleAudio buffers a PCM16 chunk and logs coarse voice activity.
func (g *Gateway) handleAudio(sess *Session, chunk []byte) {
	if !sess.Active {
		return
	}
	sess.AppendAudio(chunk)

	rms := rmsAmplitude(chunk)
	g.logger.Debug("audio chunk",
		zap.String("session_id", sess.ID),
		zap.Int("bytes", len(chunk)),
		zap.Float64("rms", rms),
		zap.Bool("voice", rms >= voiceRMSThreshold))
}
