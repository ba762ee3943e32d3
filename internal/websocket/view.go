package websocket

import (
	"time"

	"github.com/stemsi/studyguide/internal/assessment"
)

// NewReadyResponse lists the session's questions without answer keys.
func NewReadyResponse(s *assessment.Session, duration time.Duration) ReadyResponse {
	views := make([]QuestionView, 0, s.Len())
	for i := 0; i < s.Len(); i++ {
		q, _ := s.Question(i)
		views = append(views, NewQuestionView(i, q))
	}
	return ReadyResponse{
		Event:           EventReady,
		SessionID:       s.ID(),
		Kind:            string(s.Kind()),
		DurationSeconds: int(duration / time.Second),
		Questions:       views,
	}
}

// NewQuestionView strips the answer key from q.
func NewQuestionView(index int, q assessment.Question) QuestionView {
	v := QuestionView{Index: index, ID: q.QuestionID()}
	switch q := q.(type) {
	case assessment.ChoiceQuestion:
		v.Type = "choice"
		v.Prompt = q.Prompt
		v.Options = q.Options
		v.MultiSelect = q.MultiSelect()
		v.Category = q.Category
		v.Difficulty = q.Difficulty
	case assessment.ScenarioQuestion:
		v.Type = "scenario"
		v.Title = q.Title
		v.Content = q.Content
		v.Category = q.Category
		v.Difficulty = q.Difficulty
	}
	return v
}

func NewStateResponse(snap assessment.Snapshot) StateResponse {
	return StateResponse{
		Event:            EventState,
		Status:           string(snap.Status),
		CurrentIndex:     snap.CurrentIndex,
		Total:            snap.Total,
		Answered:         snap.Answered,
		RemainingSeconds: snap.RemainingSeconds,
		Grading:          snap.Grading,
	}
}

// NewGradedResponse reports res. modelAnswer is shown for scenarios once graded.
func NewGradedResponse(res assessment.Result, modelAnswer string) GradedResponse {
	out := GradedResponse{
		Event:          EventGraded,
		Score:          res.Score,
		Correct:        res.Correct,
		Total:          res.Total,
		Breakdown:      res.Breakdown,
		Feedback:       res.Feedback,
		ModelAnswer:    modelAnswer,
		ResponseID:     res.ResponseID,
		ElapsedSeconds: int(res.Elapsed.Round(time.Second) / time.Second),
		AutoSubmitted:  res.AutoSubmitted,
	}
	if res.Score != nil {
		passed := assessment.Passed(*res.Score)
		out.Passed = &passed
	}
	return out
}

func NewRevealedResponse(fb assessment.Feedback) RevealedResponse {
	return RevealedResponse{
		Event:       EventRevealed,
		Index:       fb.Index,
		Correct:     fb.Correct,
		Expected:    fb.Expected,
		Explanation: fb.Explanation,
		Reference:   fb.Reference,
	}
}
