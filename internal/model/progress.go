package model

import (
	"encoding/json"
	"time"
)

// BookmarkToggleRequest flips the bookmark on a question.
type BookmarkToggleRequest struct {
	QuestionID string `json:"question_id" binding:"required,max=64"`
}

// BookmarkState is the bookmark flag after a toggle.
type BookmarkState struct {
	Bookmarked bool `json:"bookmarked"`
}

// Progress is the per-question record the backend keeps for a user.
type Progress struct {
	ProgressID    string     `json:"progress_id,omitempty"`
	QuestionID    string     `json:"question_id,omitempty"`
	Bookmarked    bool       `json:"bookmarked"`
	Attempts      int        `json:"attempts"`
	LastScore     *float64   `json:"last_score,omitempty"`
	LastAttempted *time.Time `json:"last_attempted,omitempty"`
}

// Stats is the user's dashboard summary.
type Stats struct {
	TotalFlashcards     int      `json:"total_flashcards"`
	TotalScenarios      int      `json:"total_scenarios"`
	AttemptedFlashcards int      `json:"attempted_flashcards"`
	AttemptedScenarios  int      `json:"attempted_scenarios"`
	Bookmarks           int      `json:"bookmarks"`
	AverageScore        *float64 `json:"average_score"`
	TotalResponses      int      `json:"total_responses"`
}

// LeaderboardEntry is one ranked participant.
type LeaderboardEntry struct {
	Rank          int     `json:"rank"`
	Name          string  `json:"name"`
	AvgScore      float64 `json:"avg_score"`
	BestScore     float64 `json:"best_score"`
	TotalAttempts int     `json:"total_attempts"`
	IsCurrentUser bool    `json:"is_current_user"`
}

// Leaderboard is the ranking view. Guests get an empty board and a message.
type Leaderboard struct {
	Leaderboard       []LeaderboardEntry `json:"leaderboard"`
	UserRank          *int               `json:"user_rank"`
	UserStats         *LeaderboardEntry  `json:"user_stats"`
	TotalParticipants int                `json:"total_participants,omitempty"`
	Message           string             `json:"message,omitempty"`
}

// ResetScoresResult reports what a score reset removed.
type ResetScoresResult struct {
	Message          string `json:"message"`
	ResponsesDeleted int    `json:"responses_deleted,omitempty"`
	ProgressReset    int    `json:"progress_reset,omitempty"`
}

// Analytics is the admin dashboard payload. Its shape is owned by the
// backend and passed through untouched.
type Analytics = json.RawMessage

// Message is a bare acknowledgement body.
type Message struct {
	Message string `json:"message"`
}
