package sessionreports

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/auth"
	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/polls"
	"github.com/classpulse/backend/internal/reports"
	"github.com/classpulse/backend/internal/rooms"
)

// Generator materializes the immutable end-of-session report for a room.
type Generator struct {
	rooms    *rooms.Repository
	reports  *reports.Repository
	polls    *polls.Repository
	users    *auth.Repository
	sessions *Repository
	logger   *zap.Logger
}

// NewGenerator creates a session report generator.
func NewGenerator(roomRepo *rooms.Repository, reportRepo *reports.Repository, pollRepo *polls.Repository,
	userRepo *auth.Repository, sessionRepo *Repository, logger *zap.Logger) *Generator {
	return &Generator{
		rooms:    roomRepo,
		reports:  reportRepo,
		polls:    pollRepo,
		users:    userRepo,
		sessions: sessionRepo,
		logger:   logger,
	}
}

// Generate builds and persists the session report for an ended room. A room
// with no votes is skipped (returns nil, nil). Re-running for a session that
// already has a report fails with ErrAlreadyGenerated via the unique index.
func (g *Generator) Generate(ctx context.Context, roomID uuid.UUID) (*models.SessionReport, error) {
	room, err := g.rooms.GetByID(ctx, roomID)
	if err != nil {
		return nil, err
	}
	host, err := g.users.GetByID(ctx, room.HostID)
	if err != nil {
		return nil, err
	}

	rows, err := g.reports.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		g.logger.Info("session ended with no votes, skipping report",
			zap.String("room_id", roomID.String()))
		return nil, nil
	}

	totalPolls, err := g.polls.CountDistinctByRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	entries := AggregateEntries(rows, totalPolls)
	for i := range entries {
		student, err := g.users.GetByID(ctx, entries[i].UserID)
		if err != nil {
			g.logger.Warn("session report: unknown student",
				zap.String("user_id", entries[i].UserID.String()), zap.Error(err))
			continue
		}
		entries[i].StudentName = student.FullName
		entries[i].StudentEmail = student.Email
	}

	report := &models.SessionReport{
		SessionID:      room.ID,
		SessionName:    room.Name,
		HostID:         room.HostID,
		HostEmail:      host.Email,
		SessionEndedAt: time.Now(),
		StudentResults: entries,
	}
	if err := g.sessions.Create(ctx, report); err != nil {
		return nil, err
	}
	return report, nil
}

// AggregateEntries groups reports (already in creation order) by user and
// computes the per-student summary. Entries are ranked by total points
// descending. totalPolls is the count of distinct polls launched in the
// session, independent of how many any one student answered.
func AggregateEntries(rows []models.Report, totalPolls int) []models.SessionReportEntry {
	byUser := make(map[uuid.UUID][]models.Report)
	var order []uuid.UUID
	for _, r := range rows {
		if _, seen := byUser[r.UserID]; !seen {
			order = append(order, r.UserID)
		}
		byUser[r.UserID] = append(byUser[r.UserID], r)
	}

	entries := make([]models.SessionReportEntry, 0, len(order))
	for _, userID := range order {
		userRows := byUser[userID]
		correct := make([]bool, len(userRows))
		points, correctCount := 0, 0
		var totalTime float64
		for i, r := range userRows {
			correct[i] = r.IsCorrect
			points += r.Points
			totalTime += r.TimeTaken
			if r.IsCorrect {
				correctCount++
			}
		}
		attempted := len(userRows)
		entries = append(entries, models.SessionReportEntry{
			UserID:         userID,
			TotalPolls:     totalPolls,
			PollsAttempted: attempted,
			CorrectAnswers: correctCount,
			TotalPoints:    points,
			Streak:         reports.CurrentStreak(correct),
			LongestStreak:  reports.LongestStreak(correct),
			AverageTime:    totalTime / float64(attempted),
			Accuracy:       float64(correctCount) / float64(attempted) * 100,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].TotalPoints > entries[j].TotalPoints
	})
	return entries
}
