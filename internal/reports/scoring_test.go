package reports

import "testing"

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		correct  bool
		duration int
		taken    float64
		want     int
	}{
		{"correct at 10 of 30", true, 30, 10, 133},
		{"wrong answer scores zero", false, 30, 5, 0},
		{"instant answer gets full bonus", true, 30, 0, 150},
		{"answer at the buzzer", true, 30, 30, 100},
		{"over time has no bonus", true, 30, 45, 100},
		{"zero duration falls back to base", true, 0, 3, 100},
		{"half the timer used", true, 20, 10, 125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Score(tt.correct, tt.duration, tt.taken); got != tt.want {
				t.Errorf("Score(%v, %d, %v) = %d, want %d",
					tt.correct, tt.duration, tt.taken, got, tt.want)
			}
		})
	}
}

func TestScoreNeverBelowBaseWhenCorrect(t *testing.T) {
	for taken := 0.0; taken <= 120; taken += 7.5 {
		got := Score(true, 30, taken)
		if got < BasePoints || got > BasePoints+MaxTimeBonus {
			t.Fatalf("Score(true, 30, %v) = %d, outside [%d,%d]",
				taken, got, BasePoints, BasePoints+MaxTimeBonus)
		}
	}
}

func TestAnswersMatch(t *testing.T) {
	tests := []struct {
		submitted, correct string
		want               bool
	}{
		{"Paris", "Paris", true},
		{"paris", "Paris", true},
		{"  Paris ", "Paris", true},
		{"PARIS  FRANCE", "paris france", true},
		{"London", "Paris", false},
		{"", "Paris", false},
	}
	for _, tt := range tests {
		if got := AnswersMatch(tt.submitted, tt.correct); got != tt.want {
			t.Errorf("AnswersMatch(%q, %q) = %v, want %v",
				tt.submitted, tt.correct, got, tt.want)
		}
	}
}

func TestStreaks(t *testing.T) {
	tests := []struct {
		name    string
		seq     []bool
		current int
		longest int
	}{
		{"empty", nil, 0, 0},
		{"all correct", []bool{true, true, true}, 3, 3},
		{"all wrong", []bool{false, false}, 0, 0},
		{"miss in the middle", []bool{true, true, false, true}, 1, 2},
		{"ends on a miss", []bool{true, true, true, false}, 0, 3},
		{"recovers at the end", []bool{false, true, false, true, true}, 2, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CurrentStreak(tt.seq); got != tt.current {
				t.Errorf("CurrentStreak(%v) = %d, want %d", tt.seq, got, tt.current)
			}
			if got := LongestStreak(tt.seq); got != tt.longest {
				t.Errorf("LongestStreak(%v) = %d, want %d", tt.seq, got, tt.longest)
			}
			if LongestStreak(tt.seq) < CurrentStreak(tt.seq) {
				t.Errorf("LongestStreak(%v) < CurrentStreak(%v)", tt.seq, tt.seq)
			}
		})
	}
}
