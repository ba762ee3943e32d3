package assessment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/stemsi/studyguide/internal/clock"
)

// Status is the lifecycle position of a session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusSubmitted  Status = "submitted"
	StatusGraded     Status = "graded"
)

// Trigger records what moved a session to submitted.
type Trigger string

const (
	TriggerManual  Trigger = "manual"
	TriggerTimeout Trigger = "timeout"
)

const (
	// TickInterval is how often an active session recomputes its remaining time.
	TickInterval = time.Second

	// MinScenarioResponse is the shortest accepted manual scenario response, in characters.
	MinScenarioResponse = 50

	// ExpiredResponse is sent for a scenario that timed out with nothing written.
	ExpiredResponse = "No response provided - time expired"
)

// ErrGradingInProgress is returned when Grade is called while a previous
// scenario grading call has not resolved.
var ErrGradingInProgress = errors.New("grading already in progress")

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c clock.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithGrader sets the external grader used by scenario sessions.
func WithGrader(g ScenarioGrader) Option {
	return func(s *Session) { s.grader = g }
}

// WithTickHook is called after every tick with the fresh snapshot.
func WithTickHook(fn func(Snapshot)) Option {
	return func(s *Session) { s.onTick = fn }
}

// WithSubmitHook is called once when the session becomes submitted.
func WithSubmitHook(fn func(Snapshot, Trigger)) Option {
	return func(s *Session) { s.onSubmit = fn }
}

// Session is one timed attempt at a quiz, practice exam or scenario.
// Questions are fixed at construction. All methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	kind      Kind
	questions []Question
	answers   map[int]Answer
	current   int
	status    Status

	duration    time.Duration
	startedAt   time.Time
	deadline    time.Time
	submittedAt time.Time
	remaining   int
	trigger     Trigger

	result   *Result
	grading  bool
	closed   bool
	stopTick func()

	clock    clock.Clock
	grader   ScenarioGrader
	onTick   func(Snapshot)
	onSubmit func(Snapshot, Trigger)
}

// NewSession validates the question set for kind and returns a not-started session.
func NewSession(kind Kind, questions []Question, opts ...Option) (*Session, error) {
	if !kind.Valid() {
		return nil, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown kind %q", kind)}
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}

	for i, q := range questions {
		switch q.(type) {
		case ChoiceQuestion:
			if !kind.IsChoice() {
				return nil, &ValidationError{Field: "questions", Reason: fmt.Sprintf("question %d is multiple choice in a %s session", i, kind)}
			}
		case ScenarioQuestion:
			if kind != KindScenario {
				return nil, &ValidationError{Field: "questions", Reason: fmt.Sprintf("question %d is a scenario in a %s session", i, kind)}
			}
		default:
			return nil, &ValidationError{Field: "questions", Reason: fmt.Sprintf("question %d has unsupported type %T", i, q)}
		}
	}
	if kind == KindScenario && len(questions) != 1 {
		return nil, &ValidationError{Field: "questions", Reason: "scenario sessions hold exactly one question"}
	}

	s := &Session{
		id:        uuid.New().String(),
		kind:      kind,
		questions: append([]Question(nil), questions...),
		answers:   make(map[int]Answer),
		status:    StatusNotStarted,
		clock:     clock.System(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Kind returns the session kind.
func (s *Session) Kind() Kind { return s.kind }

// Len returns the number of questions.
func (s *Session) Len() int { return len(s.questions) }

// Question returns the question at index i.
func (s *Session) Question(i int) (Question, bool) {
	if i < 0 || i >= len(s.questions) {
		return nil, false
	}
	return s.questions[i], true
}

// Answer returns the recorded answer at index i.
func (s *Session) Answer(i int) (Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[i]
	return a, ok
}

// Start opens the answering window for duration and begins ticking.
func (s *Session) Start(duration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.status != StatusNotStarted {
		return invalidState("start", s.status)
	}
	if duration <= 0 {
		return &ValidationError{Field: "duration", Reason: "must be positive"}
	}

	now := s.clock.Now()
	s.duration = duration
	s.startedAt = now
	s.deadline = now.Add(duration)
	s.remaining = s.secondsLeft(now)
	s.status = StatusActive
	s.stopTick = s.clock.Every(TickInterval, s.tick)
	return nil
}

// RecordAnswer stores the answer for a question, replacing any earlier one.
func (s *Session) RecordAnswer(index int, a Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if s.status != StatusActive {
		return invalidState("record answer", s.status)
	}
	if index < 0 || index >= len(s.questions) {
		return &ValidationError{Field: "index", Reason: fmt.Sprintf("out of range [0,%d)", len(s.questions))}
	}

	switch q := s.questions[index].(type) {
	case ChoiceQuestion:
		ca, ok := a.(ChoiceAnswer)
		if !ok {
			return &ValidationError{Field: "answer", Reason: "multiple choice question needs selected options"}
		}
		if len(ca.Selected) == 0 {
			return &ValidationError{Field: "answer", Reason: "select at least one option"}
		}
		if len(q.Options) > 0 {
			for v := range ca.Selected {
				if !containsOption(q.Options, v) {
					return &ValidationError{Field: "answer", Reason: fmt.Sprintf("%q is not an option", v)}
				}
			}
		}
		s.answers[index] = ChoiceAnswer{Selected: NewAnswerSet(ca.Selected.Values()...)}
	case ScenarioQuestion:
		sa, ok := a.(ScenarioAnswer)
		if !ok {
			return &ValidationError{Field: "answer", Reason: "scenario question needs a text response"}
		}
		s.answers[index] = sa
	}
	return nil
}

// Advance moves the current question by delta (-1 or +1), clamped to the
// question range. It returns the resulting index.
func (s *Session) Advance(delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return s.current, ErrSessionClosed
	}
	if delta != -1 && delta != 1 {
		return s.current, &ValidationError{Field: "delta", Reason: "must be -1 or 1"}
	}

	next := s.current + delta
	if next >= 0 && next < len(s.questions) {
		s.current = next
	}
	return s.current, nil
}

// Submit closes the answering window on explicit user request. Calling it
// again after submission is a no-op.
func (s *Session) Submit() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	switch s.status {
	case StatusSubmitted, StatusGraded:
		s.mu.Unlock()
		return nil
	case StatusNotStarted:
		s.mu.Unlock()
		return invalidState("submit", s.status)
	}

	if s.kind == KindScenario {
		if n := utf8.RuneCountInString(strings.TrimSpace(s.responseLocked())); n < MinScenarioResponse {
			s.mu.Unlock()
			return &ValidationError{
				Field:  "response",
				Reason: fmt.Sprintf("at least %d characters required, got %d", MinScenarioResponse, n),
			}
		}
	}

	s.submitLocked(s.clock.Now(), TriggerManual)
	snap := s.snapshotLocked()
	onSubmit := s.onSubmit
	s.mu.Unlock()

	if onSubmit != nil {
		onSubmit(snap, TriggerManual)
	}
	return nil
}

// Grade computes the result. Choice sessions are graded synchronously;
// scenario sessions call the external grader and stay submitted if it fails.
// Grading an already graded session returns the stored result.
func (s *Session) Grade(ctx context.Context) (Result, error) {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return Result{}, ErrSessionClosed
	}
	switch s.status {
	case StatusGraded:
		res := s.result.clone()
		s.mu.Unlock()
		return res, nil
	case StatusNotStarted, StatusActive:
		st := s.status
		s.mu.Unlock()
		return Result{}, invalidState("grade", st)
	}

	if s.kind.IsChoice() {
		res := GradeChoices(s.questions, s.answers)
		s.finishLocked(&res)
		s.mu.Unlock()
		return res.clone(), nil
	}

	if s.grading {
		s.mu.Unlock()
		return Result{}, ErrGradingInProgress
	}
	if s.grader == nil {
		s.mu.Unlock()
		return Result{}, &GradingError{Err: errors.New("no scenario grader configured")}
	}

	sub := ScenarioSubmission{
		QuestionID: s.questions[0].QuestionID(),
		Response:   s.responseLocked(),
		Elapsed:    s.elapsedLocked().Round(time.Second),
	}
	if s.trigger == TriggerTimeout && strings.TrimSpace(sub.Response) == "" {
		sub.Response = ExpiredResponse
	}
	s.grading = true
	grader := s.grader
	s.mu.Unlock()

	g, err := grader.GradeScenario(ctx, sub)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.grading = false

	if s.closed {
		return Result{}, ErrSessionClosed
	}
	if err != nil {
		return Result{}, &GradingError{Err: err}
	}

	res := Result{
		RawGrade:   g.Grade,
		Total:      1,
		Feedback:   g.Feedback,
		ResponseID: g.ResponseID,
	}
	if g.Grade != nil {
		score := roundHalfUp(*g.Grade)
		res.Score = &score
	}
	s.finishLocked(&res)
	return res.clone(), nil
}

// Feedback is the instant answer check offered by quiz sessions.
type Feedback struct {
	Index       int
	Correct     bool
	Expected    []string
	Explanation string
	Reference   string
}

// Reveal checks the recorded answer at index against the key. Only quiz
// sessions support it. The answer stays editable while the session is active.
func (s *Session) Reveal(index int) (Feedback, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Feedback{}, ErrSessionClosed
	}
	if s.kind != KindQuiz || s.status == StatusNotStarted {
		return Feedback{}, invalidState("reveal", s.status)
	}
	if index < 0 || index >= len(s.questions) {
		return Feedback{}, &ValidationError{Field: "index", Reason: fmt.Sprintf("out of range [0,%d)", len(s.questions))}
	}
	a, ok := s.answers[index].(ChoiceAnswer)
	if !ok {
		return Feedback{}, &ValidationError{Field: "answer", Reason: "select an answer first"}
	}

	q := s.questions[index].(ChoiceQuestion)
	return Feedback{
		Index:       index,
		Correct:     a.Selected.Equal(q.Correct),
		Expected:    q.Correct.Values(),
		Explanation: q.Explanation,
		Reference:   q.Reference,
	}, nil
}

// Close discards the session: the ticker stops and any grading call that
// resolves afterwards is ignored. Close is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.cancelTickLocked()
}

// Snapshot returns a consistent view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Snapshot is a point-in-time copy of session state.
type Snapshot struct {
	ID               string
	Kind             Kind
	Status           Status
	CurrentIndex     int
	Total            int
	Answered         int
	Duration         time.Duration
	StartedAt        time.Time
	Deadline         time.Time
	RemainingSeconds int
	Trigger          Trigger
	Grading          bool
	Closed           bool
	Result           *Result
}

func (s *Session) tick() {
	s.mu.Lock()
	if s.closed || s.status != StatusActive {
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()
	s.remaining = s.secondsLeft(now)
	expired := s.remaining == 0
	if expired {
		s.submitLocked(now, TriggerTimeout)
	}

	snap := s.snapshotLocked()
	onTick, onSubmit := s.onTick, s.onSubmit
	s.mu.Unlock()

	if onTick != nil {
		onTick(snap)
	}
	if expired && onSubmit != nil {
		onSubmit(snap, TriggerTimeout)
	}
}

func (s *Session) submitLocked(now time.Time, trigger Trigger) {
	s.status = StatusSubmitted
	s.submittedAt = now
	s.trigger = trigger
	s.remaining = s.secondsLeft(now)
	s.cancelTickLocked()
}

func (s *Session) finishLocked(res *Result) {
	res.Kind = s.kind
	res.Elapsed = s.elapsedLocked()
	res.AutoSubmitted = s.trigger == TriggerTimeout
	s.result = res
	s.status = StatusGraded
}

func (s *Session) cancelTickLocked() {
	if s.stopTick != nil {
		s.stopTick()
		s.stopTick = nil
	}
}

// secondsLeft rounds up so the display only reads 0 once the deadline passed.
func (s *Session) secondsLeft(now time.Time) int {
	d := s.deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

func (s *Session) elapsedLocked() time.Duration {
	if s.startedAt.IsZero() || s.submittedAt.IsZero() {
		return 0
	}
	d := s.submittedAt.Sub(s.startedAt)
	if d > s.duration {
		d = s.duration
	}
	return d
}

func (s *Session) responseLocked() string {
	if a, ok := s.answers[0].(ScenarioAnswer); ok {
		return a.Text
	}
	return ""
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:               s.id,
		Kind:             s.kind,
		Status:           s.status,
		CurrentIndex:     s.current,
		Total:            len(s.questions),
		Answered:         len(s.answers),
		Duration:         s.duration,
		StartedAt:        s.startedAt,
		Deadline:         s.deadline,
		RemainingSeconds: s.remaining,
		Trigger:          s.trigger,
		Grading:          s.grading,
		Closed:           s.closed,
	}
	if s.result != nil {
		res := s.result.clone()
		snap.Result = &res
	}
	return snap
}

func containsOption(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}
