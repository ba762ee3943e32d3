package apiclient

import (
	"context"
	"net/http"

	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/model"
)

var _ assessment.ScenarioGrader = (*Client)(nil)

// SubmitScenario sends a free-text response for AI grading.
func (c *Client) SubmitScenario(ctx context.Context, req model.ScenarioSubmitRequest) (model.ScenarioGrade, error) {
	var out model.ScenarioGrade
	err := c.Do(ctx, http.MethodPost, "/scenarios/submit", req, &out)
	return out, err
}

func (c *Client) ScenarioHistory(ctx context.Context) ([]model.ScenarioResponse, error) {
	var out []model.ScenarioResponse
	err := c.Do(ctx, http.MethodGet, "/scenarios/history", nil, &out)
	return out, err
}

// GradeScenario adapts SubmitScenario to the session's grader contract.
func (c *Client) GradeScenario(ctx context.Context, sub assessment.ScenarioSubmission) (assessment.ScenarioGrade, error) {
	g, err := c.SubmitScenario(ctx, model.ScenarioSubmitRequest{
		QuestionID:   sub.QuestionID,
		UserResponse: sub.Response,
		TimeTaken:    int(sub.Elapsed.Seconds()),
	})
	if err != nil {
		return assessment.ScenarioGrade{}, err
	}
	return assessment.ScenarioGrade{
		Grade:      g.Grade,
		Feedback:   g.Feedback,
		ResponseID: g.ResponseID,
	}, nil
}
