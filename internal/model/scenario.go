package model

import "time"

// ScenarioSubmitRequest is sent to the backend for AI grading.
type ScenarioSubmitRequest struct {
	QuestionID   string `json:"question_id"`
	UserResponse string `json:"user_response"`
	TimeTaken    int    `json:"time_taken"`
}

// ScenarioGrade is the backend's grading verdict. Grade is null when the
// grader could not produce a number.
type ScenarioGrade struct {
	ResponseID  string   `json:"response_id,omitempty"`
	Grade       *float64 `json:"grade"`
	Feedback    string   `json:"feedback"`
	ModelAnswer string   `json:"model_answer,omitempty"`
}

// ScenarioResponse is a past graded submission.
type ScenarioResponse struct {
	ResponseID   string    `json:"response_id"`
	QuestionID   string    `json:"question_id"`
	UserResponse string    `json:"user_response"`
	AIGrade      *float64  `json:"ai_grade"`
	AIFeedback   string    `json:"ai_feedback"`
	TimeTaken    int       `json:"time_taken"`
	SubmittedAt  time.Time `json:"submitted_at"`
}
