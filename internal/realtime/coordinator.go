package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/classpulse/backend/internal/auth"
	"github.com/classpulse/backend/internal/models"
	"github.com/classpulse/backend/internal/polls"
	"github.com/classpulse/backend/internal/reports"
	"github.com/classpulse/backend/internal/rooms"
	"github.com/classpulse/backend/internal/sessionreports"
)

const requestTimeout = 10 * time.Second

// Coordinator owns the live session flow: join / launch / vote / end. All
// handlers run on the owning client's read loop, so per-client state (roomID)
// needs no locking. Every failed request gets an explicit error event back.
type Coordinator struct {
	hub      *Hub
	rooms    *rooms.Repository
	polls    *polls.Repository
	reports  *reports.Repository
	users    *auth.Repository
	sessions *sessionreports.Generator
	logger   *zap.Logger
}

// NewCoordinator wires the realtime event handlers.
func NewCoordinator(hub *Hub, roomRepo *rooms.Repository, pollRepo *polls.Repository,
	reportRepo *reports.Repository, userRepo *auth.Repository,
	gen *sessionreports.Generator, logger *zap.Logger) *Coordinator {
	return &Coordinator{
		hub:      hub,
		rooms:    roomRepo,
		polls:    pollRepo,
		reports:  reportRepo,
		users:    userRepo,
		sessions: gen,
		logger:   logger,
	}
}

func reqCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), requestTimeout)
}

// pollPublic is the poll shape broadcast to students. The correct answer
// never leaves the server while a poll is live.
type pollPublic struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	Options       []string  `json:"options"`
	TimerDuration int       `json:"timer_duration"`
}

func toPollPublic(p *models.Poll) pollPublic {
	return pollPublic{
		ID:            p.ID,
		Title:         p.Title,
		Type:          string(p.Type),
		Options:       p.Options,
		TimerDuration: p.TimerDuration,
	}
}

// StudentJoinRoom handles "student-join-room": resolves the join code to the
// active room, registers the participant and announces them.
func (co *Coordinator) StudentJoinRoom(c *Client, raw json.RawMessage) {
	var req struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.Code == "" {
		c.SendError("student-join-room", "room code is required")
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	room, err := co.rooms.GetActiveByCode(ctx, req.Code)
	if err != nil {
		c.SendError("student-join-room", "room not found or inactive")
		return
	}

	user, err := co.users.GetByID(ctx, c.UserID)
	if err != nil {
		c.SendError("student-join-room", "account not found")
		return
	}

	p := models.Participant{
		UserID:    user.ID,
		Name:      user.FullName,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
		JoinedAt:  time.Now(),
	}
	if err := co.rooms.UpsertParticipant(ctx, room.ID, p); err != nil {
		co.logger.Error("join room failed", zap.Error(err))
		c.SendError("student-join-room", "could not join room")
		return
	}

	// Rejoin moves the client into the new room channel.
	if c.roomID != uuid.Nil && c.roomID != room.ID {
		co.hub.Leave(c.roomID, c)
	}
	c.roomID = room.ID
	co.hub.Join(room.ID, c)

	joined := struct {
		RoomID      uuid.UUID   `json:"room_id"`
		RoomName    string      `json:"room_name"`
		HostName    string      `json:"host_name"`
		CurrentPoll *pollPublic `json:"current_poll,omitempty"`
	}{RoomID: room.ID, RoomName: room.Name, HostName: room.HostName}

	// Late joiners see the live poll immediately.
	if room.CurrentPoll != nil {
		if poll, err := co.polls.GetByID(ctx, *room.CurrentPoll); err == nil {
			pub := toPollPublic(poll)
			joined.CurrentPoll = &pub
		}
	}
	c.Send("room-joined", joined)

	co.hub.SendToClient(room.ID, room.HostClientID, "student-joined", p)
	co.broadcastParticipants(ctx, room.ID)
}

// HostJoinRoom handles "host-join-room": binds the host connection to their
// current active room so direct host messages have a destination.
func (co *Coordinator) HostJoinRoom(c *Client, raw json.RawMessage) {
	if c.Role != string(models.RoleHost) {
		c.SendError("host-join-room", "host role required")
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	room, err := co.rooms.GetCurrentForHost(ctx, c.UserID)
	if err != nil {
		c.SendError("host-join-room", "no active room for host")
		return
	}
	if err := co.rooms.SetHostClientID(ctx, room.ID, c.ID); err != nil {
		co.logger.Error("set host client id failed", zap.Error(err))
		c.SendError("host-join-room", "could not join room")
		return
	}

	if c.roomID != uuid.Nil && c.roomID != room.ID {
		co.hub.Leave(c.roomID, c)
	}
	c.roomID = room.ID
	co.hub.Join(room.ID, c)

	participants, err := co.rooms.ListParticipants(ctx, room.ID)
	if err != nil {
		participants = nil
	}
	c.Send("room-joined", struct {
		RoomID       uuid.UUID            `json:"room_id"`
		RoomName     string               `json:"room_name"`
		Code         string               `json:"code"`
		Participants []models.Participant `json:"participants"`
	}{RoomID: room.ID, RoomName: room.Name, Code: room.Code, Participants: participants})
}

// HostLaunchPoll handles "host-launch-poll": marks an existing poll as the
// room's current one and broadcasts it without the correct answer. Polls are
// created ahead of time over REST.
func (co *Coordinator) HostLaunchPoll(c *Client, raw json.RawMessage) {
	var req struct {
		PollID uuid.UUID `json:"poll_id"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.PollID == uuid.Nil {
		c.SendError("host-launch-poll", "poll_id is required")
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	room, ok := co.requireOwnRoom(ctx, c, "host-launch-poll")
	if !ok {
		return
	}

	poll, err := co.polls.GetByID(ctx, req.PollID)
	if err != nil {
		c.SendError("host-launch-poll", "poll not found")
		return
	}
	if poll.HostID != c.UserID {
		c.SendError("host-launch-poll", "not your poll")
		return
	}

	if err := co.rooms.SetCurrentPoll(ctx, room.ID, &poll.ID); err != nil {
		co.logger.Error("set current poll failed", zap.Error(err))
		c.SendError("host-launch-poll", "could not launch poll")
		return
	}

	co.hub.BroadcastToRoomAndPublish(room.ID, "poll-started", toPollPublic(poll))
}

// StudentSubmitVote handles "student-submit-vote": scores the answer server
// side and records it, exactly once per (poll, user).
func (co *Coordinator) StudentSubmitVote(c *Client, raw json.RawMessage) {
	var req struct {
		PollID    uuid.UUID `json:"poll_id"`
		Answer    string    `json:"answer"`
		TimeTaken float64   `json:"time_taken"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.PollID == uuid.Nil {
		c.SendError("student-submit-vote", "invalid payload")
		return
	}
	if c.roomID == uuid.Nil {
		c.SendError("student-submit-vote", "join a room first")
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	room, err := co.rooms.GetByID(ctx, c.roomID)
	if err != nil || !room.IsActive {
		c.SendError("student-submit-vote", "room is not active")
		return
	}
	if room.CurrentPoll == nil || *room.CurrentPoll != req.PollID {
		c.SendError("student-submit-vote", "poll is not open for voting")
		return
	}

	poll, err := co.polls.GetByID(ctx, req.PollID)
	if err != nil {
		c.SendError("student-submit-vote", "poll not found")
		return
	}

	correct := reports.AnswersMatch(req.Answer, poll.CorrectAnswer)
	points := reports.Score(correct, poll.TimerDuration, req.TimeTaken)

	rep := &models.Report{
		RoomID:    room.ID,
		PollID:    poll.ID,
		UserID:    c.UserID,
		Answer:    req.Answer,
		IsCorrect: correct,
		TimeTaken: req.TimeTaken,
		Points:    points,
	}
	if err := co.reports.Create(ctx, rep); err != nil {
		if errors.Is(err, reports.ErrAlreadyVoted) {
			c.SendError("student-submit-vote", "already voted for this poll")
		} else {
			co.logger.Error("record vote failed", zap.Error(err))
			c.SendError("student-submit-vote", "could not record vote")
		}
		return
	}

	// Totals and current streak come from re-reading the user's votes in
	// creation order, the new one included.
	totalPoints, streak := 0, 0
	if mine, err := co.reports.ListByRoomAndUser(ctx, room.ID, c.UserID); err == nil {
		outcomes := make([]bool, len(mine))
		for i, m := range mine {
			totalPoints += m.Points
			outcomes[i] = m.IsCorrect
		}
		streak = reports.CurrentStreak(outcomes)
	}

	c.Send("vote-result", struct {
		PollID      uuid.UUID `json:"poll_id"`
		IsCorrect   bool      `json:"is_correct"`
		Points      int       `json:"points"`
		TotalPoints int       `json:"total_points"`
		Streak      int       `json:"streak"`
	}{PollID: poll.ID, IsCorrect: correct, Points: points, TotalPoints: totalPoints, Streak: streak})

	co.hub.SendToClient(room.ID, room.HostClientID, "new-vote-received", struct {
		PollID    uuid.UUID `json:"poll_id"`
		UserID    uuid.UUID `json:"user_id"`
		Answer    string    `json:"answer"`
		IsCorrect bool      `json:"is_correct"`
		Points    int       `json:"points"`
		TimeTaken float64   `json:"time_taken"`
	}{PollID: poll.ID, UserID: c.UserID, Answer: req.Answer, IsCorrect: correct,
		Points: points, TimeTaken: req.TimeTaken})
}

// HostEndPoll handles "host-end-poll": clears the current poll and broadcasts
// the per-option tally with the revealed correct answer.
func (co *Coordinator) HostEndPoll(c *Client, raw json.RawMessage) {
	ctx, cancel := reqCtx()
	defer cancel()

	room, ok := co.requireOwnRoom(ctx, c, "host-end-poll")
	if !ok {
		return
	}
	if room.CurrentPoll == nil {
		c.SendError("host-end-poll", "no poll is running")
		return
	}
	pollID := *room.CurrentPoll

	if err := co.rooms.SetCurrentPoll(ctx, room.ID, nil); err != nil {
		co.logger.Error("clear current poll failed", zap.Error(err))
		c.SendError("host-end-poll", "could not end poll")
		return
	}

	poll, err := co.polls.GetByID(ctx, pollID)
	if err != nil {
		c.SendError("host-end-poll", "poll not found")
		return
	}
	votes, err := co.reports.ListByRoom(ctx, room.ID)
	if err != nil {
		co.logger.Error("list votes failed", zap.Error(err))
		votes = nil
	}

	tally := make(map[string]int, len(poll.Options))
	for _, opt := range poll.Options {
		tally[opt] = 0
	}
	total := 0
	for _, v := range votes {
		if v.PollID != pollID {
			continue
		}
		total++
		if _, ok := tally[v.Answer]; ok {
			tally[v.Answer]++
		}
	}

	co.hub.BroadcastToRoomAndPublish(room.ID, "poll-ended", struct {
		PollID        uuid.UUID      `json:"poll_id"`
		CorrectAnswer string         `json:"correct_answer"`
		Tally         map[string]int `json:"tally"`
		TotalVotes    int            `json:"total_votes"`
	}{PollID: pollID, CorrectAnswer: poll.CorrectAnswer, Tally: tally, TotalVotes: total})
}

// HostGetParticipants handles "host-get-participants".
func (co *Coordinator) HostGetParticipants(c *Client, raw json.RawMessage) {
	ctx, cancel := reqCtx()
	defer cancel()

	room, ok := co.requireOwnRoom(ctx, c, "host-get-participants")
	if !ok {
		return
	}
	participants, err := co.rooms.ListParticipants(ctx, room.ID)
	if err != nil {
		co.logger.Error("list participants failed", zap.Error(err))
		c.SendError("host-get-participants", "could not list participants")
		return
	}
	c.Send("participants-updated", participants)
}

// HostKickParticipant handles "host-kick-participant": removes the student
// from the roster, tells them, and drops their connection.
func (co *Coordinator) HostKickParticipant(c *Client, raw json.RawMessage) {
	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := json.Unmarshal(raw, &req); err != nil || req.UserID == uuid.Nil {
		c.SendError("host-kick-participant", "user_id is required")
		return
	}

	ctx, cancel := reqCtx()
	defer cancel()

	room, ok := co.requireOwnRoom(ctx, c, "host-kick-participant")
	if !ok {
		return
	}
	if err := co.rooms.RemoveParticipant(ctx, room.ID, req.UserID); err != nil {
		co.logger.Error("remove participant failed", zap.Error(err))
		c.SendError("host-kick-participant", "could not remove participant")
		return
	}

	if victim := co.hub.FindClientByUser(room.ID, req.UserID); victim != nil {
		victim.Send("kicked", struct {
			RoomID uuid.UUID `json:"room_id"`
		}{RoomID: room.ID})
		victim.CloseSend()
	}

	co.broadcastParticipants(ctx, room.ID)
}

// HostEndSession handles "host-end-session": deactivates the room, generates
// the immutable session report, notifies everyone and drops the students.
func (co *Coordinator) HostEndSession(c *Client, raw json.RawMessage) {
	ctx, cancel := reqCtx()
	defer cancel()

	room, ok := co.requireOwnRoom(ctx, c, "host-end-session")
	if !ok {
		return
	}
	if err := co.rooms.Deactivate(ctx, room.ID); err != nil {
		co.logger.Error("deactivate room failed", zap.Error(err))
		c.SendError("host-end-session", "could not end session")
		return
	}

	report, err := co.sessions.Generate(ctx, room.ID)
	if err != nil && !errors.Is(err, sessionreports.ErrAlreadyGenerated) {
		co.logger.Error("generate session report failed",
			zap.String("room_id", room.ID.String()), zap.Error(err))
	}

	co.hub.BroadcastToRoomAndPublish(room.ID, "session-ended", struct {
		RoomID uuid.UUID `json:"room_id"`
	}{RoomID: room.ID})
	c.Send("session-ended-host", struct {
		RoomID uuid.UUID             `json:"room_id"`
		Report *models.SessionReport `json:"report,omitempty"`
	}{RoomID: room.ID, Report: report})

	co.hub.DisconnectRoomExcept(room.ID, c.ID)
}

// Disconnect runs when a client's read loop ends. Students are pulled from
// every roster they appear on; host rooms stay up for reconnect and are
// reclaimed by the stale sweep if the host never returns.
func (co *Coordinator) Disconnect(c *Client) {
	ctx, cancel := reqCtx()
	defer cancel()

	if c.Role != string(models.RoleHost) {
		roomIDs, err := co.rooms.RemoveParticipantEverywhere(ctx, c.UserID)
		if err != nil {
			co.logger.Error("remove participant on disconnect failed",
				zap.String("user_id", c.UserID.String()), zap.Error(err))
		}
		for _, id := range roomIDs {
			co.broadcastParticipants(ctx, id)
		}
	}

	if c.roomID != uuid.Nil {
		co.hub.Leave(c.roomID, c)
	}
	// Closing the conn unwinds the write pump; the send channel stays open
	// so stray broadcasts racing the teardown cannot panic.
	c.CloseSend()
}

// requireOwnRoom resolves the client's joined room and checks host ownership.
// Failures produce an explicit error event.
func (co *Coordinator) requireOwnRoom(ctx context.Context, c *Client, event string) (*models.Room, bool) {
	if c.Role != string(models.RoleHost) {
		c.SendError(event, "host role required")
		return nil, false
	}
	if c.roomID == uuid.Nil {
		c.SendError(event, "join a room first")
		return nil, false
	}
	room, err := co.rooms.GetByID(ctx, c.roomID)
	if err != nil {
		c.SendError(event, "room not found")
		return nil, false
	}
	if room.HostID != c.UserID {
		c.SendError(event, "not your room")
		return nil, false
	}
	if !room.IsActive {
		c.SendError(event, "room is not active")
		return nil, false
	}
	return room, true
}

func (co *Coordinator) broadcastParticipants(ctx context.Context, roomID uuid.UUID) {
	participants, err := co.rooms.ListParticipants(ctx, roomID)
	if err != nil {
		co.logger.Error("list participants failed",
			zap.String("room_id", roomID.String()), zap.Error(err))
		return
	}
	co.hub.BroadcastToRoomAndPublish(roomID, "participants-updated", participants)
}
