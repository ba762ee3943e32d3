package websocket

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart   Action = "start"
	ActionAnswer  Action = "answer"
	ActionAdvance Action = "advance"
	ActionReveal  Action = "reveal"
	ActionSubmit  Action = "submit"
	ActionGrade   Action = "grade"
	ActionState   Action = "state"
	ActionPing    Action = "ping"
)

// Request carries every client action. Fields unused by an action are ignored.
type Request struct {
	Action Action `json:"action"`
	// Index addresses a question for answer and reveal.
	Index int `json:"index"`
	// Selected is the chosen option set for a choice question.
	Selected []string `json:"selected,omitempty"`
	// Text is the free-text response for a scenario.
	Text string `json:"text,omitempty"`
	// Delta is +1 or -1 for advance.
	Delta int `json:"delta,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady     Event = "ready"
	EventState     Event = "state"
	EventTick      Event = "tick"
	EventSubmitted Event = "submitted"
	EventGraded    Event = "graded"
	EventRevealed  Event = "revealed"
	EventError     Event = "error"
	EventPong      Event = "pong"
)

// QuestionView is a question with its answer key removed.
type QuestionView struct {
	Index       int      `json:"index"`
	ID          string   `json:"id"`
	Type        string   `json:"type"` // "choice" or "scenario"
	Prompt      string   `json:"prompt,omitempty"`
	Options     []string `json:"options,omitempty"`
	MultiSelect bool     `json:"multi_select,omitempty"`
	Title       string   `json:"title,omitempty"`
	Content     string   `json:"content,omitempty"`
	Category    string   `json:"category,omitempty"`
	Difficulty  string   `json:"difficulty,omitempty"`
}

// ReadyResponse is sent once the session has been assembled.
type ReadyResponse struct {
	Event           Event          `json:"event"`
	SessionID       string         `json:"session_id"`
	Kind            string         `json:"kind"`
	DurationSeconds int            `json:"duration_seconds"`
	Questions       []QuestionView `json:"questions"`
}

// StateResponse mirrors the session snapshot.
type StateResponse struct {
	Event            Event  `json:"event"`
	Status           string `json:"status"`
	CurrentIndex     int    `json:"current_index"`
	Total            int    `json:"total"`
	Answered         int    `json:"answered"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Grading          bool   `json:"grading"`
}

type TickResponse struct {
	Event            Event `json:"event"`
	RemainingSeconds int   `json:"remaining_seconds"`
}

type SubmittedResponse struct {
	Event   Event  `json:"event"`
	Trigger string `json:"trigger"`
}

type GradedResponse struct {
	Event          Event  `json:"event"`
	Score          *int   `json:"score"`
	Passed         *bool  `json:"passed,omitempty"`
	Correct        int    `json:"correct"`
	Total          int    `json:"total"`
	Breakdown      []bool `json:"breakdown,omitempty"`
	Feedback       string `json:"feedback,omitempty"`
	ModelAnswer    string `json:"model_answer,omitempty"`
	ResponseID     string `json:"response_id,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds"`
	AutoSubmitted  bool   `json:"auto_submitted"`
}

type RevealedResponse struct {
	Event       Event    `json:"event"`
	Index       int      `json:"index"`
	Correct     bool     `json:"correct"`
	Expected    []string `json:"expected"`
	Explanation string   `json:"explanation,omitempty"`
	Reference   string   `json:"reference,omitempty"`
}

// ErrorResponse reports a rejected action. Retryable means the same action
// may succeed if sent again.
type ErrorResponse struct {
	Event     Event  `json:"event"`
	Code      string `json:"code"`
	Error     string `json:"error"`
	Retryable bool   `json:"retryable"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
