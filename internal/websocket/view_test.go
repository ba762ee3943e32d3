package websocket

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stemsi/studyguide/internal/assessment"
)

func TestReadyResponseHidesAnswerKey(t *testing.T) {
	qs := []assessment.Question{
		assessment.ChoiceQuestion{
			ID:          "q1",
			Prompt:      "Pick two",
			Options:     []string{"A", "B", "C"},
			Correct:     assessment.NewAnswerSet("A", "C"),
			Explanation: "secret-explanation",
		},
	}
	s, err := assessment.NewSession(assessment.KindQuiz, qs)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	ready := NewReadyResponse(s, 90*time.Second)
	if ready.DurationSeconds != 90 || len(ready.Questions) != 1 {
		t.Fatalf("ready = %+v", ready)
	}
	if !ready.Questions[0].MultiSelect || ready.Questions[0].Type != "choice" {
		t.Fatalf("view = %+v", ready.Questions[0])
	}

	raw, _ := json.Marshal(ready)
	if strings.Contains(string(raw), "secret-explanation") {
		t.Fatalf("answer material leaked: %s", raw)
	}
}

func TestGradedResponsePassedLabel(t *testing.T) {
	score := 69
	g := NewGradedResponse(assessment.Result{Score: &score, Elapsed: 1500 * time.Millisecond}, "")
	if g.Passed == nil || *g.Passed {
		t.Fatalf("69 should not pass: %+v", g)
	}
	if g.ElapsedSeconds != 2 {
		t.Fatalf("elapsed = %d, want 2", g.ElapsedSeconds)
	}

	g = NewGradedResponse(assessment.Result{Feedback: "grader unavailable"}, "model")
	if g.Score != nil || g.Passed != nil {
		t.Fatalf("missing grade must not be labeled: %+v", g)
	}
	if g.ModelAnswer != "model" {
		t.Fatalf("model answer = %q", g.ModelAnswer)
	}
}
