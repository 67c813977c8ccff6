package segments

import "strings"

// Scorer rates how alike two transcript texts are, in [0,1].
type Scorer interface {
	Score(a, b string) float64
}

// SaveGuard decides whether an incoming transcript segment should be
// persisted. Segments nearly identical to the last saved one are dropped, as
// are fragments too short to carry content. The scorer is pluggable.
type SaveGuard struct {
	Scorer        Scorer
	MaxSimilarity float64 // reject at or above, default 0.9
	MinWords      int     // default 3
	MinLength     int     // characters, default 12
	SampleEvery   int     // keep only every Nth accepted segment; 0 disables
	counter       int
}

// NewSaveGuard returns a guard with the default thresholds.
func NewSaveGuard() *SaveGuard {
	return &SaveGuard{
		Scorer:        OverlapScorer{},
		MaxSimilarity: 0.9,
		MinWords:      3,
		MinLength:     12,
	}
}

// RejectReason explains why a segment was dropped, empty when accepted.
type RejectReason string

const (
	RejectNone     RejectReason = ""
	RejectTooShort RejectReason = "too_short"
	RejectFiller   RejectReason = "filler"
	RejectDupe     RejectReason = "duplicate"
	RejectSampled  RejectReason = "sampled_out"
)

// fillerPhrases are recognizer chatter, never real speech content.
var fillerPhrases = []string{
	"listening", "microphone on", "microphone off", "no speech detected",
	"speech recognition started", "speech recognition stopped",
}

// Check evaluates one candidate text against the last persisted text.
func (g *SaveGuard) Check(text, lastSaved string) RejectReason {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < g.MinLength || len(strings.Fields(trimmed)) < g.MinWords {
		return RejectTooShort
	}
	lower := strings.ToLower(trimmed)
	for _, f := range fillerPhrases {
		if lower == f {
			return RejectFiller
		}
	}
	if lastSaved != "" && g.Scorer.Score(trimmed, lastSaved) >= g.MaxSimilarity {
		return RejectDupe
	}
	if g.SampleEvery > 1 {
		g.counter++
		if g.counter%g.SampleEvery != 0 {
			return RejectSampled
		}
	}
	return RejectNone
}

// OverlapScorer scores similarity by character-position agreement plus
// substring containment. Cheap and good enough to catch the re-sends a
// client-side recognizer produces for the same utterance.
type OverlapScorer struct{}

func (OverlapScorer) Score(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	// One text fully containing the other counts as near-duplicate, scaled
	// by the length ratio.
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if strings.Contains(longer, shorter) {
		return float64(len(shorter)) / float64(len(longer))
	}

	match := 0
	for i := 0; i < len(shorter); i++ {
		if shorter[i] == longer[i] {
			match++
		}
	}
	return float64(match) / float64(len(longer))
}
