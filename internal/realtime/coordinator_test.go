package realtime

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/models"
)

func TestPollPublicOmitsCorrectAnswer(t *testing.T) {
	poll := &models.Poll{
		ID:            uuid.New(),
		HostID:        uuid.New(),
		RoomID:        uuid.New(),
		Title:         "Capital of France?",
		Type:          models.PollTypeMCQ,
		Options:       []string{"Paris", "Lyon", "Nice"},
		CorrectAnswer: "Paris",
		TimerDuration: 30,
	}

	raw, err := json.Marshal(toPollPublic(poll))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := fields["correct_answer"]; ok {
		t.Fatal("broadcast payload contains correct_answer")
	}
	if strings.Contains(string(raw), "correct_answer") {
		t.Fatalf("payload leaks correct answer key: %s", raw)
	}

	got := toPollPublic(poll)
	if got.Title != poll.Title || len(got.Options) != 3 || got.TimerDuration != 30 {
		t.Fatalf("unexpected public poll: %+v", got)
	}
}
