package service

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/config"
	"github.com/stemsi/studyguide/internal/model"
)

type fakePool struct {
	choices   []assessment.Question
	scenarios map[string]assessment.Question
	err       error
	gotKind   assessment.Kind
}

func (f *fakePool) Pool(_ context.Context, _ string, kind assessment.Kind, _ string) ([]assessment.Question, error) {
	f.gotKind = kind
	if f.err != nil {
		return nil, f.err
	}
	if kind == assessment.KindScenario {
		out := make([]assessment.Question, 0, len(f.scenarios))
		for _, q := range f.scenarios {
			out = append(out, q)
		}
		return out, nil
	}
	return f.choices, nil
}

func (f *fakePool) Scenario(_ context.Context, _ string, id string) (assessment.Question, error) {
	q, ok := f.scenarios[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return q, nil
}

type nopGrader struct{}

func (nopGrader) GradeScenario(context.Context, assessment.ScenarioSubmission) (assessment.ScenarioGrade, error) {
	return assessment.ScenarioGrade{}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		ExamDuration:           90 * time.Minute,
		ScenarioDuration:       7 * time.Minute,
		QuizDefaultCount:       3,
		QuizSecondsPerQuestion: 60,
	}
}

func choicePool(n int) []assessment.Question {
	out := make([]assessment.Question, n)
	for i := range out {
		out[i] = assessment.ChoiceQuestion{
			ID:      string(rune('a' + i)),
			Options: []string{"A", "B"},
			Correct: assessment.NewAnswerSet("A"),
		}
	}
	return out
}

func newPracticeService(pool QuestionPool) *PracticeService {
	graders := func(string) assessment.ScenarioGrader { return nopGrader{} }
	return NewPracticeService(testConfig(), pool, graders, zerolog.New(io.Discard))
}

func TestPrepareQuizSamplesDefaultCount(t *testing.T) {
	svc := newPracticeService(&fakePool{choices: choicePool(10)})

	s, d, err := svc.Prepare(context.Background(), "dev", model.PracticeRequest{Kind: string(assessment.KindQuiz)})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if s.Len() != 3 {
		t.Fatalf("questions = %d, want 3", s.Len())
	}
	if d != 3*time.Minute {
		t.Fatalf("duration = %v, want 3m", d)
	}
	if st := s.Snapshot().Status; st != assessment.StatusNotStarted {
		t.Fatalf("status = %s, want not_started", st)
	}
}

func TestPrepareExamUsesWholePool(t *testing.T) {
	pool := &fakePool{choices: choicePool(5)}
	svc := newPracticeService(pool)

	s, d, err := svc.Prepare(context.Background(), "dev", model.PracticeRequest{Kind: string(assessment.KindPracticeExam), Count: 2})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if s.Len() != 5 {
		t.Fatalf("questions = %d, want 5", s.Len())
	}
	if d != 90*time.Minute {
		t.Fatalf("duration = %v, want 90m", d)
	}
	if pool.gotKind != assessment.KindPracticeExam {
		t.Fatalf("pool kind = %s", pool.gotKind)
	}
	for i := 0; i < 5; i++ {
		q, _ := s.Question(i)
		if q.QuestionID() != string(rune('a'+i)) {
			t.Fatalf("question %d out of upstream order: %s", i, q.QuestionID())
		}
	}
}

func TestPrepareScenarioTimeLimit(t *testing.T) {
	pool := &fakePool{scenarios: map[string]assessment.Question{
		"s1": assessment.ScenarioQuestion{ID: "s1", Content: "x", TimeLimit: 5 * time.Minute},
		"s2": assessment.ScenarioQuestion{ID: "s2", Content: "y"},
	}}
	svc := newPracticeService(pool)

	_, d, err := svc.Prepare(context.Background(), "dev", model.PracticeRequest{Kind: string(assessment.KindScenario), QuestionID: "s1"})
	if err != nil {
		t.Fatalf("prepare s1: %v", err)
	}
	if d != 5*time.Minute {
		t.Fatalf("s1 duration = %v, want 5m", d)
	}

	_, d, err = svc.Prepare(context.Background(), "dev", model.PracticeRequest{Kind: string(assessment.KindScenario), QuestionID: "s2"})
	if err != nil {
		t.Fatalf("prepare s2: %v", err)
	}
	if d != 7*time.Minute {
		t.Fatalf("s2 duration = %v, want default 7m", d)
	}
}

func TestPrepareEmptyPool(t *testing.T) {
	svc := newPracticeService(&fakePool{})

	_, _, err := svc.Prepare(context.Background(), "dev", model.PracticeRequest{Kind: string(assessment.KindPracticeExam)})
	if !errors.Is(err, assessment.ErrNoQuestions) {
		t.Fatalf("got %v, want ErrNoQuestions", err)
	}
	_, _, err = svc.Prepare(context.Background(), "dev", model.PracticeRequest{Kind: string(assessment.KindScenario)})
	if !errors.Is(err, assessment.ErrNoQuestions) {
		t.Fatalf("scenario: got %v, want ErrNoQuestions", err)
	}
}

func TestPrepareRejectsUnknownKind(t *testing.T) {
	svc := newPracticeService(&fakePool{})
	_, _, err := svc.Prepare(context.Background(), "dev", model.PracticeRequest{Kind: "essay"})
	if !assessment.IsValidation(err) {
		t.Fatalf("got %v, want validation error", err)
	}
}

func TestPreparePropagatesPoolError(t *testing.T) {
	boom := errors.New("upstream down")
	svc := newPracticeService(&fakePool{err: boom})
	_, _, err := svc.Prepare(context.Background(), "dev", model.PracticeRequest{Kind: string(assessment.KindQuiz)})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want %v", err, boom)
	}
}
