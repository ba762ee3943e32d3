package assessment

import (
	"context"
	"math"
	"time"
)

// PassingScore is the percentage at or above which a result is labeled passed.
const PassingScore = 70

// Passed labels a score for display. It is not session state.
func Passed(score int) bool {
	return score >= PassingScore
}

// Result is the outcome of grading a session.
type Result struct {
	Kind  Kind
	Score *int // rounded percentage; nil when the grader returned no number
	// RawGrade is the unrounded external grade for scenarios.
	RawGrade      *float64
	Correct       int
	Total         int
	Breakdown     []bool
	Feedback      string
	ResponseID    string
	Elapsed       time.Duration
	AutoSubmitted bool
}

// clone returns a copy that shares no memory with r.
func (r Result) clone() Result {
	c := r
	c.Breakdown = append([]bool(nil), r.Breakdown...)
	if r.Score != nil {
		score := *r.Score
		c.Score = &score
	}
	if r.RawGrade != nil {
		raw := *r.RawGrade
		c.RawGrade = &raw
	}
	return c
}

// ScenarioSubmission is what the grading service receives.
type ScenarioSubmission struct {
	QuestionID string
	Response   string
	Elapsed    time.Duration
}

// ScenarioGrade is what the grading service returns. Grade is nil when the
// service could not produce a number.
type ScenarioGrade struct {
	Grade      *float64
	Feedback   string
	ResponseID string
}

// ScenarioGrader evaluates free-text responses remotely.
type ScenarioGrader interface {
	GradeScenario(ctx context.Context, sub ScenarioSubmission) (ScenarioGrade, error)
}

// GradeChoices scores choice questions by exact set equality. Unanswered
// questions count as incorrect. It is a pure function of its inputs.
func GradeChoices(questions []Question, answers map[int]Answer) Result {
	res := Result{Total: len(questions), Breakdown: make([]bool, len(questions))}

	for i, q := range questions {
		cq, ok := q.(ChoiceQuestion)
		if !ok {
			continue
		}
		a, ok := answers[i].(ChoiceAnswer)
		if !ok {
			continue
		}
		if a.Selected.Equal(cq.Correct) {
			res.Breakdown[i] = true
			res.Correct++
		}
	}

	score := percent(res.Correct, res.Total)
	res.Score = &score
	return res
}

// percent computes round(100*k/n) rounding halves up. n == 0 yields 0.
func percent(k, n int) int {
	if n == 0 {
		return 0
	}
	return roundHalfUp(100 * float64(k) / float64(n))
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
