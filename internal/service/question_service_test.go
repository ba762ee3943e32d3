package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/model"
)

func TestToAssessmentQuizUsesCorrectAnswers(t *testing.T) {
	q := model.Question{
		QuestionID:     "q1",
		Question:       "Which ports?",
		Options:        []string{"22", "80", "443"},
		CorrectAnswers: []string{"80", "443"},
		Explanation:    "web",
	}

	got, err := ToAssessment(assessment.KindQuiz, q)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	cq, ok := got.(assessment.ChoiceQuestion)
	if !ok {
		t.Fatalf("got %T, want ChoiceQuestion", got)
	}
	if !cq.Correct.Equal(assessment.NewAnswerSet("443", "80")) {
		t.Fatalf("correct = %v", cq.Correct.Values())
	}
	if !cq.MultiSelect() {
		t.Fatal("two correct answers should be multi-select")
	}
	if cq.Prompt != "Which ports?" {
		t.Fatalf("prompt = %q", cq.Prompt)
	}
}

func TestToAssessmentExamUsesSingleAnswer(t *testing.T) {
	q := model.Question{
		QuestionID: "e1",
		Content:    "Pick the default SSH port",
		Options:    []string{"21", "22"},
		Answer:     "22",
	}

	got, err := ToAssessment(assessment.KindPracticeExam, q)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	cq := got.(assessment.ChoiceQuestion)
	if !cq.Correct.Equal(assessment.NewAnswerSet("22")) {
		t.Fatalf("correct = %v", cq.Correct.Values())
	}
	if cq.Prompt != "Pick the default SSH port" {
		t.Fatalf("prompt should fall back to content, got %q", cq.Prompt)
	}
}

func TestToAssessmentRejectsMalformed(t *testing.T) {
	cases := []struct {
		name string
		kind assessment.Kind
		q    model.Question
	}{
		{"no options", assessment.KindQuiz, model.Question{QuestionID: "x", CorrectAnswers: []string{"A"}}},
		{"no key", assessment.KindPracticeExam, model.Question{QuestionID: "x", Options: []string{"A"}}},
		{"empty scenario", assessment.KindScenario, model.Question{QuestionID: "x"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ToAssessment(tc.kind, tc.q); !errors.Is(err, ErrUnsupportedQuestion) {
				t.Fatalf("got %v, want ErrUnsupportedQuestion", err)
			}
		})
	}
}

func TestToAssessmentScenario(t *testing.T) {
	limit := 300
	q := model.Question{
		QuestionID:  "s1",
		Title:       "Outage",
		Description: "The VPN is down",
		Answer:      "Check the tunnel",
		TimeLimit:   &limit,
	}

	got, err := ToAssessment(assessment.KindScenario, q)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	sq := got.(assessment.ScenarioQuestion)
	if sq.Content != "The VPN is down" {
		t.Fatalf("content = %q", sq.Content)
	}
	if sq.ModelAnswer != "Check the tunnel" {
		t.Fatalf("model answer = %q", sq.ModelAnswer)
	}
	if sq.TimeLimit != 5*time.Minute {
		t.Fatalf("time limit = %v", sq.TimeLimit)
	}
}

func TestWireType(t *testing.T) {
	if WireType(assessment.KindQuiz) != model.QuestionTypeMultipleChoice {
		t.Fatal("quiz should fetch multiple_choice")
	}
	if WireType(assessment.KindPracticeExam) != model.QuestionTypePracticeExam {
		t.Fatal("exam should fetch practice_exam")
	}
	if WireType(assessment.KindScenario) != model.QuestionTypeScenario {
		t.Fatal("scenario should fetch scenario")
	}
}
