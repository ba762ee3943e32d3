package handler

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/clock"
	"github.com/stemsi/studyguide/internal/middleware"
	"github.com/stemsi/studyguide/internal/model"
	"github.com/stemsi/studyguide/internal/service"
)

type quizPreparer struct {
	clock    *clock.Manual
	duration time.Duration
	grader   assessment.ScenarioGrader // set for a scenario session

	mu   sync.Mutex
	last *assessment.Session
}

func (p *quizPreparer) Prepare(_ context.Context, _ string, _ model.PracticeRequest, opts ...assessment.Option) (*assessment.Session, time.Duration, error) {
	kind := assessment.KindQuiz
	qs := []assessment.Question{
		assessment.ChoiceQuestion{ID: "q1", Prompt: "one", Options: []string{"A", "B"}, Correct: assessment.NewAnswerSet("A")},
		assessment.ChoiceQuestion{ID: "q2", Prompt: "two", Options: []string{"A", "B"}, Correct: assessment.NewAnswerSet("B")},
	}
	opts = append(opts, assessment.WithClock(p.clock))
	if p.grader != nil {
		kind = assessment.KindScenario
		qs = []assessment.Question{assessment.ScenarioQuestion{ID: "s1", Title: "Outage", Content: "The primary is down."}}
		opts = append(opts, assessment.WithGrader(p.grader))
	}
	s, err := assessment.NewSession(kind, qs, opts...)

	p.mu.Lock()
	p.last = s
	p.mu.Unlock()
	return s, p.duration, err
}

func (p *quizPreparer) session() *assessment.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// blockingGrader holds every grading call until release is closed.
type blockingGrader struct {
	entered  chan struct{}
	release  chan struct{}
	returned chan struct{}
}

func newBlockingGrader() *blockingGrader {
	return &blockingGrader{
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
		returned: make(chan struct{}),
	}
}

func (g *blockingGrader) GradeScenario(context.Context, assessment.ScenarioSubmission) (assessment.ScenarioGrade, error) {
	close(g.entered)
	defer close(g.returned)
	<-g.release
	grade := 90.0
	return assessment.ScenarioGrade{Grade: &grade, Feedback: "late"}, nil
}

type memRecorder struct {
	mu    sync.Mutex
	snaps []assessment.Snapshot
}

func (r *memRecorder) Record(_ context.Context, _ string, snap assessment.Snapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snaps = append(r.snaps, snap)
	return nil
}

func (r *memRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snaps)
}

type event map[string]any

func dialPractice(t *testing.T, prep SessionPreparer, rec ResultRecorder) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)

	claims := &service.Claims{Role: model.RoleGuest}
	claims.Subject = "device-1"

	h := NewWSHandler(prep, rec, zerolog.New(io.Discard), nil)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, claims)
		c.Next()
	}, h.PracticeStream)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?kind=multiple_choice_quiz"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	resp.Body.Close()
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg map[string]any) {
	t.Helper()
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func next(t *testing.T, conn *websocket.Conn) event {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read: %v", err)
	}
	return ev
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func wait(t *testing.T, what string, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func expect(t *testing.T, conn *websocket.Conn, name string) event {
	t.Helper()
	ev := next(t, conn)
	if ev["event"] != name {
		t.Fatalf("got %v, want %s event", ev, name)
	}
	return ev
}

func TestPracticeStreamManualFlow(t *testing.T) {
	rec := &memRecorder{}
	conn := dialPractice(t, &quizPreparer{clock: clock.NewManual(time.Now()), duration: time.Minute}, rec)

	ready := expect(t, conn, "ready")
	if qs, _ := ready["questions"].([]any); len(qs) != 2 {
		t.Fatalf("ready questions = %v", ready["questions"])
	}
	if ready["duration_seconds"] != float64(60) {
		t.Fatalf("duration = %v", ready["duration_seconds"])
	}

	send(t, conn, map[string]any{"action": "start"})
	if st := expect(t, conn, "state"); st["status"] != "active" || st["remaining_seconds"] != float64(60) {
		t.Fatalf("state after start = %v", st)
	}

	send(t, conn, map[string]any{"action": "answer", "index": 0, "selected": []string{"A"}})
	if st := expect(t, conn, "state"); st["answered"] != float64(1) {
		t.Fatalf("answered = %v", st["answered"])
	}

	send(t, conn, map[string]any{"action": "reveal", "index": 0})
	if rv := expect(t, conn, "revealed"); rv["correct"] != true {
		t.Fatalf("reveal = %v", rv)
	}

	send(t, conn, map[string]any{"action": "answer", "index": 1, "selected": []string{"Z"}})
	if ev := expect(t, conn, "error"); ev["code"] != "VALIDATION_ERROR" || ev["retryable"] != false {
		t.Fatalf("unknown option = %v", ev)
	}

	send(t, conn, map[string]any{"action": "dance"})
	if ev := expect(t, conn, "error"); ev["code"] != "UNKNOWN_ACTION" {
		t.Fatalf("unknown action = %v", ev)
	}

	send(t, conn, map[string]any{"action": "submit"})
	if sub := expect(t, conn, "submitted"); sub["trigger"] != "manual" {
		t.Fatalf("submitted = %v", sub)
	}
	expect(t, conn, "state")

	send(t, conn, map[string]any{"action": "grade"})
	graded := expect(t, conn, "graded")
	if graded["score"] != float64(50) || graded["passed"] != false {
		t.Fatalf("graded = %v", graded)
	}

	send(t, conn, map[string]any{"action": "grade"})
	expect(t, conn, "graded")
	waitFor(t, "result recorded", func() bool { return rec.count() > 0 })
	time.Sleep(20 * time.Millisecond)
	if n := rec.count(); n != 1 {
		t.Fatalf("recorded %d results, want 1", n)
	}

	send(t, conn, map[string]any{"action": "ping"})
	expect(t, conn, "pong")
}

func TestPracticeStreamTimeoutAutoGrades(t *testing.T) {
	rec := &memRecorder{}
	mc := clock.NewManual(time.Now())
	conn := dialPractice(t, &quizPreparer{clock: mc, duration: 2 * time.Second}, rec)

	expect(t, conn, "ready")
	send(t, conn, map[string]any{"action": "start"})
	expect(t, conn, "state")

	mc.Advance(2 * time.Second)

	var ticks []float64
	for {
		ev := next(t, conn)
		if ev["event"] == "tick" {
			ticks = append(ticks, ev["remaining_seconds"].(float64))
			continue
		}
		if ev["event"] != "submitted" || ev["trigger"] != "timeout" {
			t.Fatalf("got %v, want timeout submission", ev)
		}
		break
	}
	if len(ticks) != 2 || ticks[0] != 1 || ticks[1] != 0 {
		t.Fatalf("ticks = %v, want [1 0]", ticks)
	}

	graded := expect(t, conn, "graded")
	if graded["auto_submitted"] != true || graded["score"] != float64(0) {
		t.Fatalf("graded = %v", graded)
	}

	// Recording happens after the graded event is written.
	waitFor(t, "result recorded", func() bool { return rec.count() > 0 })
	if rec.count() != 1 {
		t.Fatalf("recorded %d results, want 1", rec.count())
	}

	send(t, conn, map[string]any{"action": "answer", "index": 0, "selected": []string{"A"}})
	if ev := expect(t, conn, "error"); ev["code"] != "INVALID_SESSION_STATE" {
		t.Fatalf("answer after grading = %v", ev)
	}
}

func TestPracticeStreamRejectsBadQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewWSHandler(&quizPreparer{clock: clock.NewManual(time.Now()), duration: time.Minute}, &memRecorder{}, zerolog.New(io.Discard), nil)

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		claims := &service.Claims{}
		claims.Subject = "device-1"
		c.Set(middleware.ContextKeyClaims, claims)
	}, h.PracticeStream)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws?kind=essay", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("got %d, want 400", w.Code)
	}
}

func TestPracticeStreamCloseStopsTimer(t *testing.T) {
	rec := &memRecorder{}
	mc := clock.NewManual(time.Now())
	prep := &quizPreparer{clock: mc, duration: time.Minute}
	conn := dialPractice(t, prep, rec)

	expect(t, conn, "ready")
	send(t, conn, map[string]any{"action": "start"})
	expect(t, conn, "state")

	mc.Advance(time.Second)
	if tick := expect(t, conn, "tick"); tick["remaining_seconds"] != float64(59) {
		t.Fatalf("tick = %v", tick)
	}

	conn.Close()
	waitFor(t, "session closed", func() bool { return prep.session().Snapshot().Closed })
	if n := mc.Active(); n != 0 {
		t.Fatalf("%d tickers still running after close", n)
	}

	mc.Advance(time.Minute)
	snap := prep.session().Snapshot()
	if snap.Status != assessment.StatusActive || snap.RemainingSeconds != 59 {
		t.Fatalf("closed session kept counting: status %s remaining %d", snap.Status, snap.RemainingSeconds)
	}
	if rec.count() != 0 {
		t.Fatalf("recorded %d results for a discarded session", rec.count())
	}
}

func TestPracticeStreamCloseDiscardsLateGrade(t *testing.T) {
	rec := &memRecorder{}
	grader := newBlockingGrader()
	prep := &quizPreparer{clock: clock.NewManual(time.Now()), duration: time.Minute, grader: grader}
	conn := dialPractice(t, prep, rec)

	expect(t, conn, "ready")
	send(t, conn, map[string]any{"action": "start"})
	expect(t, conn, "state")

	send(t, conn, map[string]any{"action": "answer", "index": 0, "text": strings.Repeat("fail over ", 6)})
	expect(t, conn, "state")
	send(t, conn, map[string]any{"action": "submit"})
	expect(t, conn, "submitted")
	expect(t, conn, "state")

	send(t, conn, map[string]any{"action": "grade"})
	wait(t, "grader call", grader.entered)

	conn.Close()
	waitFor(t, "session closed", func() bool { return prep.session().Snapshot().Closed })

	close(grader.release)
	wait(t, "grader return", grader.returned)
	time.Sleep(50 * time.Millisecond)

	snap := prep.session().Snapshot()
	if snap.Status != assessment.StatusSubmitted || snap.Result != nil {
		t.Fatalf("late grade was applied: status %s result %v", snap.Status, snap.Result)
	}
	if n := rec.count(); n != 0 {
		t.Fatalf("recorded %d results after disconnect, want 0", n)
	}
}
