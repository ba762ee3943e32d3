package model

import (
	"time"

	"github.com/google/uuid"
)

// PracticeResult is a graded practice attempt kept in the gateway ledger.
type PracticeResult struct {
	ID             uuid.UUID `json:"id"`
	DeviceID       uuid.UUID `json:"device_id"`
	SessionID      string    `json:"session_id"`
	Kind           string    `json:"kind"`
	Score          *int      `json:"score,omitempty"`
	RawGrade       *float64  `json:"raw_grade,omitempty"`
	Correct        int       `json:"correct"`
	Total          int       `json:"total"`
	Passed         bool      `json:"passed"`
	AutoSubmitted  bool      `json:"auto_submitted"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	ResponseID     string    `json:"response_id,omitempty"`
	StartedAt      time.Time `json:"started_at"`
	GradedAt       time.Time `json:"graded_at"`
}

// ResultSummary aggregates a device's attempts of one kind.
type ResultSummary struct {
	Kind         string   `json:"kind"`
	Attempts     int      `json:"attempts"`
	AverageScore *float64 `json:"average_score"`
	BestScore    *int     `json:"best_score"`
	PassedCount  int      `json:"passed_count"`
}

// PracticeRequest is the query string that opens a practice socket.
type PracticeRequest struct {
	Kind       string `form:"kind" binding:"required,oneof=multiple_choice_quiz practice_exam scenario"`
	Count      int    `form:"count" binding:"omitempty,min=1,max=500"`
	CategoryID string `form:"category_id" binding:"omitempty,max=64"`
	QuestionID string `form:"question_id" binding:"omitempty,max=64"`
}

// ResultListQuery is the query string for listing results.
type ResultListQuery struct {
	Page    int    `form:"page" binding:"omitempty,min=1"`
	PerPage int    `form:"per_page" binding:"omitempty,min=1,max=100"`
	Kind    string `form:"kind" binding:"omitempty,oneof=multiple_choice_quiz practice_exam scenario"`
}
