package sessionreports

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/classpulse/backend/internal/models"
)

func report(userID uuid.UUID, correct bool, timeTaken float64, points int) models.Report {
	return models.Report{
		ID:        uuid.New(),
		RoomID:    uuid.New(),
		PollID:    uuid.New(),
		UserID:    userID,
		IsCorrect: correct,
		TimeTaken: timeTaken,
		Points:    points,
	}
}

func TestAggregateEntriesEmpty(t *testing.T) {
	if got := AggregateEntries(nil, 3); len(got) != 0 {
		t.Fatalf("expected no entries for no reports, got %d", len(got))
	}
}

func TestAggregateEntriesSingleStudent(t *testing.T) {
	alice := uuid.New()
	rows := []models.Report{
		report(alice, true, 10, 133),
		report(alice, false, 25, 0),
		report(alice, true, 5, 141),
	}

	entries := AggregateEntries(rows, 4)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.UserID != alice {
		t.Errorf("entry user = %s, want %s", e.UserID, alice)
	}
	if e.TotalPolls != 4 {
		t.Errorf("TotalPolls = %d, want 4", e.TotalPolls)
	}
	if e.PollsAttempted != 3 {
		t.Errorf("PollsAttempted = %d, want 3", e.PollsAttempted)
	}
	if e.CorrectAnswers != 2 {
		t.Errorf("CorrectAnswers = %d, want 2", e.CorrectAnswers)
	}
	if e.TotalPoints != 274 {
		t.Errorf("TotalPoints = %d, want 274", e.TotalPoints)
	}
	if e.Streak != 1 {
		t.Errorf("Streak = %d, want 1", e.Streak)
	}
	if e.LongestStreak != 1 {
		t.Errorf("LongestStreak = %d, want 1", e.LongestStreak)
	}
	if want := (10.0 + 25.0 + 5.0) / 3.0; math.Abs(e.AverageTime-want) > 1e-9 {
		t.Errorf("AverageTime = %v, want %v", e.AverageTime, want)
	}
	if want := 2.0 / 3.0 * 100; math.Abs(e.Accuracy-want) > 1e-9 {
		t.Errorf("Accuracy = %v, want %v", e.Accuracy, want)
	}
}

func TestAggregateEntriesRankedByPoints(t *testing.T) {
	alice, bob, carol := uuid.New(), uuid.New(), uuid.New()
	rows := []models.Report{
		report(alice, true, 20, 116),
		report(bob, true, 5, 141),
		report(carol, false, 10, 0),
		report(alice, false, 15, 0),
		report(bob, true, 8, 136),
	}

	entries := AggregateEntries(rows, 2)
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].UserID != bob {
		t.Errorf("rank 1 = %s, want bob %s", entries[0].UserID, bob)
	}
	if entries[1].UserID != alice {
		t.Errorf("rank 2 = %s, want alice %s", entries[1].UserID, alice)
	}
	if entries[2].UserID != carol {
		t.Errorf("rank 3 = %s, want carol %s", entries[2].UserID, carol)
	}

	for _, e := range entries {
		if e.LongestStreak < e.Streak {
			t.Errorf("user %s: LongestStreak %d < Streak %d", e.UserID, e.LongestStreak, e.Streak)
		}
	}
}

func TestAggregateEntriesStreaks(t *testing.T) {
	dave := uuid.New()
	// correct, correct, correct, wrong, correct, correct
	rows := []models.Report{
		report(dave, true, 5, 140),
		report(dave, true, 6, 140),
		report(dave, true, 7, 138),
		report(dave, false, 8, 0),
		report(dave, true, 9, 135),
		report(dave, true, 10, 133),
	}

	entries := AggregateEntries(rows, 6)
	e := entries[0]
	if e.Streak != 2 {
		t.Errorf("Streak = %d, want 2", e.Streak)
	}
	if e.LongestStreak != 3 {
		t.Errorf("LongestStreak = %d, want 3", e.LongestStreak)
	}
}
