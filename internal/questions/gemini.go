package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/classpulse/backend/internal/models"
)

// ErrNoValidQuestions means the model response contained nothing usable.
// Parse failures are hard failures, there is no repair loop.
var ErrNoValidQuestions = errors.New("model response contained no valid questions")

// GeminiService wraps the generative model behind a token-bucket limiter so
// concurrent auto-generation runs cannot stampede the API.
type GeminiService struct {
	client   *genai.Client
	model    *genai.GenerativeModel
	rateChan chan struct{}
	logger   *zap.Logger
}

// NewGeminiService dials the API and configures the model.
func NewGeminiService(ctx context.Context, apiKey, modelName string, concurrentReqs int, logger *zap.Logger) (*GeminiService, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0.3)
	model.SetTopP(0.95)

	if concurrentReqs <= 0 {
		concurrentReqs = 2
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{client: client, model: model, rateChan: rateChan, logger: logger}, nil
}

// Close releases the underlying API client.
func (s *GeminiService) Close() {
	s.client.Close()
}

func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(2 * time.Minute):
		return errors.New("timeout waiting for gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// rawQuestion is the shape we ask the model to emit.
type rawQuestion struct {
	Type         string   `json:"type"`
	Difficulty   string   `json:"difficulty"`
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

// GenerateQuestions asks the model for quiz questions over the transcript
// text and returns the validated results plus a one-line topic summary.
func (s *GeminiService) GenerateQuestions(ctx context.Context, transcript string, cfg models.GenerationConfig) ([]models.GeneratedQuestion, string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return nil, "", err
	}
	defer s.releaseRate()

	prompt := buildQuestionPrompt(transcript, cfg)
	resp, err := s.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, "", fmt.Errorf("gemini api error: %w", err)
	}

	rawText := extractText(resp)
	if rawText == "" {
		return nil, "", ErrNoValidQuestions
	}

	parsed, err := parseQuestionJSON(rawText)
	if err != nil {
		s.logger.Warn("gemini response not parseable", zap.Error(err))
		return nil, "", err
	}

	questions := make([]models.GeneratedQuestion, 0, len(parsed.Questions))
	for i, q := range parsed.Questions {
		if err := validateQuestion(q); err != nil {
			s.logger.Warn("dropping invalid generated question",
				zap.Int("position", i), zap.Error(err))
			continue
		}
		questions = append(questions, models.GeneratedQuestion{
			Position:     len(questions),
			Type:         q.Type,
			Difficulty:   q.Difficulty,
			QuestionText: q.QuestionText,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Explanation:  q.Explanation,
			Status:       models.QuestionPending,
		})
	}
	if len(questions) == 0 {
		return nil, "", ErrNoValidQuestions
	}
	return questions, parsed.Summary, nil
}

// GenerateSummary asks the model for a short standalone summary of the
// transcript, used when a segment is archived without a question batch.
func (s *GeminiService) GenerateSummary(ctx context.Context, transcript string) (string, error) {
	if err := s.acquireRate(ctx); err != nil {
		return "", err
	}
	defer s.releaseRate()

	resp, err := s.model.GenerateContent(ctx, genai.Text(buildSummaryPrompt(transcript)))
	if err != nil {
		return "", fmt.Errorf("gemini api error: %w", err)
	}

	summary := strings.TrimSpace(stripCodeFences(extractText(resp)))
	if summary == "" {
		return "", errors.New("empty summary from model")
	}
	return summary, nil
}

type questionResponse struct {
	Summary   string        `json:"summary"`
	Questions []rawQuestion `json:"questions"`
}

// parseQuestionJSON handles the model wrapping its JSON in code fences or
// prose: strip fences, then fall back to slicing the outermost object.
func parseQuestionJSON(raw string) (*questionResponse, error) {
	cleaned := stripCodeFences(raw)

	var out questionResponse
	if err := json.Unmarshal([]byte(cleaned), &out); err == nil {
		return &out, nil
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &out); err == nil {
			return &out, nil
		}
	}

	// Some responses are a bare array of questions with no wrapper.
	start = strings.Index(cleaned, "[")
	end = strings.LastIndex(cleaned, "]")
	if start >= 0 && end > start {
		var qs []rawQuestion
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &qs); err == nil {
			return &questionResponse{Questions: qs}, nil
		}
	}
	return nil, fmt.Errorf("no JSON found in model response")
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx >= 0 {
			s = s[idx+1:]
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func validateQuestion(q rawQuestion) error {
	if strings.TrimSpace(q.QuestionText) == "" {
		return errors.New("empty question text")
	}
	switch q.Type {
	case "multiple_choice":
		if len(q.Options) < 2 {
			return errors.New("multiple_choice needs at least two options")
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return errors.New("correct_index out of range")
		}
	case "true_false":
		if q.CorrectIndex != 0 && q.CorrectIndex != 1 {
			return errors.New("true_false correct_index must be 0 or 1")
		}
	default:
		return fmt.Errorf("unknown question type %q", q.Type)
	}
	return nil
}

func buildQuestionPrompt(transcript string, cfg models.GenerationConfig) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are generating quiz questions from a live lecture transcript.\n")
	fmt.Fprintf(&b, "Generate exactly %d questions at %s difficulty.\n", cfg.NumQuestions, cfg.Difficulty)
	if cfg.Language != "" {
		fmt.Fprintf(&b, "Write the questions in %s.\n", cfg.Language)
	}
	b.WriteString(`Return ONLY valid JSON, no prose, in this shape:
{"summary": "<one sentence topic summary>",
 "questions": [{"type": "multiple_choice"|"true_false",
   "difficulty": "easy"|"medium"|"hard",
   "question_text": "...",
   "options": ["..."],
   "correct_index": 0,
   "explanation": "..."}]}
For true_false questions use options ["True","False"].
Base every question strictly on the transcript content.

Transcript:
`)
	b.WriteString(transcript)
	return b.String()
}

func buildSummaryPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString("Summarize the following lecture transcript in two or three sentences.\n")
	b.WriteString("Return plain text only, no markdown.\n\nTranscript:\n")
	b.WriteString(transcript)
	return b.String()
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return text.String()
}
