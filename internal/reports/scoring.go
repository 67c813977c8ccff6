package reports

import (
	"math"
	"strings"
)

// BasePoints is awarded for any correct answer.
const BasePoints = 100

// MaxTimeBonus is the extra points for an instant correct answer; the bonus
// shrinks linearly with time used and is 0 once the timer is exhausted.
const MaxTimeBonus = 50

// Score returns the points for an answer: 100 + floor((duration-timeTaken)/duration*50)
// when correct, 0 otherwise. The bonus never goes negative for slow answers.
func Score(correct bool, timerDuration int, timeTaken float64) int {
	if !correct {
		return 0
	}
	if timerDuration <= 0 {
		return BasePoints
	}
	remaining := float64(timerDuration) - timeTaken
	if remaining < 0 {
		remaining = 0
	}
	bonus := int(math.Floor(remaining / float64(timerDuration) * MaxTimeBonus))
	return BasePoints + bonus
}

// AnswersMatch compares a submitted answer to the correct one with two tiers:
// exact match first, then case/whitespace-normalized. Absorbs minor formatting
// drift between client option rendering and the stored answer.
func AnswersMatch(submitted, correct string) bool {
	if submitted == correct {
		return true
	}
	return normalize(submitted) == normalize(correct)
}

func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// CurrentStreak returns the trailing run of correct answers: how many of the
// most recent answers, scanning backward, were correct before the first miss.
func CurrentStreak(correct []bool) int {
	n := 0
	for i := len(correct) - 1; i >= 0; i-- {
		if !correct[i] {
			break
		}
		n++
	}
	return n
}

// LongestStreak returns the maximum run of consecutive correct answers.
// Always >= CurrentStreak for the same sequence.
func LongestStreak(correct []bool) int {
	best, run := 0, 0
	for _, c := range correct {
		if c {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	return best
}
