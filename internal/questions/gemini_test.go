package questions

import "testing"

const wrappedResponse = "```json\n" + `{"summary": "Photosynthesis basics.",
 "questions": [
   {"type": "multiple_choice", "difficulty": "easy",
    "question_text": "What gas do plants absorb?",
    "options": ["Oxygen", "Carbon dioxide", "Nitrogen"],
    "correct_index": 1, "explanation": "Plants take in CO2."},
   {"type": "true_false", "difficulty": "medium",
    "question_text": "Chlorophyll is green.",
    "options": ["True", "False"],
    "correct_index": 0, "explanation": "It reflects green light."}
 ]}` + "\n```"

func TestParseQuestionJSONFenced(t *testing.T) {
	out, err := parseQuestionJSON(wrappedResponse)
	if err != nil {
		t.Fatalf("parse fenced response: %v", err)
	}
	if out.Summary != "Photosynthesis basics." {
		t.Errorf("summary = %q", out.Summary)
	}
	if len(out.Questions) != 2 {
		t.Fatalf("questions = %d, want 2", len(out.Questions))
	}
	if out.Questions[0].CorrectIndex != 1 {
		t.Errorf("correct_index = %d, want 1", out.Questions[0].CorrectIndex)
	}
}

func TestParseQuestionJSONWithProse(t *testing.T) {
	raw := `Here are your questions!

{"summary": "s", "questions": [{"type": "true_false", "difficulty": "easy",
 "question_text": "Water boils at 100C at sea level.", "options": ["True","False"],
 "correct_index": 0, "explanation": ""}]}

Hope these help.`
	out, err := parseQuestionJSON(raw)
	if err != nil {
		t.Fatalf("parse prose-wrapped response: %v", err)
	}
	if len(out.Questions) != 1 {
		t.Fatalf("questions = %d, want 1", len(out.Questions))
	}
}

func TestParseQuestionJSONBareArray(t *testing.T) {
	raw := `[{"type": "true_false", "difficulty": "hard",
 "question_text": "Entropy decreases in closed systems.", "options": ["True","False"],
 "correct_index": 1, "explanation": "Second law."}]`
	out, err := parseQuestionJSON(raw)
	if err != nil {
		t.Fatalf("parse bare array: %v", err)
	}
	if len(out.Questions) != 1 || out.Summary != "" {
		t.Fatalf("got %d questions, summary %q", len(out.Questions), out.Summary)
	}
}

func TestParseQuestionJSONGarbage(t *testing.T) {
	if _, err := parseQuestionJSON("I could not generate questions for this."); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n[1,2]\n```", "[1,2]"},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name    string
		q       rawQuestion
		wantErr bool
	}{
		{"valid mcq", rawQuestion{Type: "multiple_choice", QuestionText: "Q?",
			Options: []string{"a", "b", "c"}, CorrectIndex: 2}, false},
		{"valid true_false", rawQuestion{Type: "true_false", QuestionText: "Q?",
			Options: []string{"True", "False"}, CorrectIndex: 1}, false},
		{"empty text", rawQuestion{Type: "multiple_choice",
			Options: []string{"a", "b"}, CorrectIndex: 0}, true},
		{"index out of range", rawQuestion{Type: "multiple_choice", QuestionText: "Q?",
			Options: []string{"a", "b"}, CorrectIndex: 2}, true},
		{"one option", rawQuestion{Type: "multiple_choice", QuestionText: "Q?",
			Options: []string{"a"}, CorrectIndex: 0}, true},
		{"bad true_false index", rawQuestion{Type: "true_false", QuestionText: "Q?",
			CorrectIndex: 3}, true},
		{"unknown type", rawQuestion{Type: "essay", QuestionText: "Q?"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateQuestion(tt.q)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateQuestion() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestQuestionCountFor(t *testing.T) {
	tests := []struct {
		words int
		want  int
	}{
		{0, 2},
		{39, 2},
		{40, 3},
		{79, 3},
		{80, 4},
		{149, 4},
		{150, 5},
		{5000, 5},
	}
	for _, tt := range tests {
		if got := QuestionCountFor(tt.words); got != tt.want {
			t.Errorf("QuestionCountFor(%d) = %d, want %d", tt.words, got, tt.want)
		}
	}
}
