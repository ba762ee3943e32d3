package model

import "time"

// QuestionType is the upstream content type filter.
type QuestionType string

const (
	QuestionTypeFlashcard      QuestionType = "flashcard"
	QuestionTypeMultipleChoice QuestionType = "multiple_choice"
	QuestionTypePracticeExam   QuestionType = "practice_exam"
	QuestionTypeScenario       QuestionType = "scenario"
)

// Question is a content item as served by the study backend. Which fields are
// set depends on Type.
type Question struct {
	QuestionID     string       `json:"question_id"`
	Type           QuestionType `json:"type"`
	CategoryID     string       `json:"category_id"`
	CategoryName   string       `json:"category_name"`
	Title          string       `json:"title,omitempty"`
	Content        string       `json:"content,omitempty"`
	Description    string       `json:"description,omitempty"`
	Question       string       `json:"question,omitempty"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswers []string     `json:"correct_answers,omitempty"`
	Answer         string       `json:"answer,omitempty"`
	ModelAnswer    string       `json:"model_answer,omitempty"`
	Explanation    string       `json:"explanation,omitempty"`
	Difficulty     string       `json:"difficulty,omitempty"`
	Reference      string       `json:"reference,omitempty"`
	TimeLimit      *int         `json:"time_limit,omitempty"`
	IsComplex      bool         `json:"is_complex,omitempty"`
	Parts          int          `json:"parts,omitempty"`
	StudyTip       string       `json:"study_tip,omitempty"`
	CreatedAt      *time.Time   `json:"created_at,omitempty"`
	UpdatedAt      *time.Time   `json:"updated_at,omitempty"`
}

// Public returns a copy safe to show before an attempt: answer keys,
// explanations and model answers are removed.
func (q Question) Public() Question {
	q.CorrectAnswers = nil
	q.Answer = ""
	q.ModelAnswer = ""
	q.Explanation = ""
	return q
}

// Category groups questions by topic.
type Category struct {
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// QuestionFilter narrows a question listing.
type QuestionFilter struct {
	Type       QuestionType `form:"type" binding:"omitempty,oneof=flashcard multiple_choice practice_exam scenario"`
	CategoryID string       `form:"category_id" binding:"omitempty,max=64"`
}

// SaveQuestionRequest is the admin payload for creating or replacing a question.
type SaveQuestionRequest struct {
	Type         QuestionType `json:"type" binding:"required,oneof=flashcard multiple_choice practice_exam scenario"`
	CategoryID   string       `json:"category_id" binding:"required,max=64"`
	CategoryName string       `json:"category_name" binding:"required,max=200"`
	Title        string       `json:"title" binding:"required,min=1,max=500"`
	Content      string       `json:"content" binding:"required,min=1"`
	Answer       string       `json:"answer,omitempty"`
	Explanation  string       `json:"explanation,omitempty"`
	Difficulty   string       `json:"difficulty,omitempty" binding:"omitempty,oneof=easy medium hard"`
	Reference    string       `json:"reference,omitempty" binding:"omitempty,max=500"`
}
