package cli

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/model"
)

func TestTimerColorBands(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, colorRed},
		{60, colorRed},
		{61, colorAmber},
		{180, colorAmber},
		{181, colorGreen},
		{5400, colorGreen},
	}
	for _, tc := range cases {
		if got := timerColor(tc.seconds); got != tc.want {
			t.Errorf("timerColor(%d) = %s, want %s", tc.seconds, got, tc.want)
		}
	}
}

func TestTimerWithoutColor(t *testing.T) {
	p := palette{noColor: true}
	if got := p.timer(125); got != "02:05" {
		t.Fatalf("timer = %q", got)
	}
	if got := p.timer(-3); got != "00:00" {
		t.Fatalf("negative timer = %q", got)
	}
}

func TestParseSelection(t *testing.T) {
	q := assessment.ChoiceQuestion{Options: []string{"red", "green", "blue"}}

	got, err := parseSelection(q, "A, c")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 2 || got[0] != "red" || got[1] != "blue" {
		t.Fatalf("selection = %v", got)
	}

	for _, bad := range []string{"d", "ab", ",", "1"} {
		if _, err := parseSelection(q, bad); err == nil {
			t.Errorf("parseSelection(%q) accepted", bad)
		}
	}
}

func TestLoadProfileDefaults(t *testing.T) {
	t.Setenv("STUDYCTL_PROFILE", filepath.Join(t.TempDir(), "missing.yml"))

	p, err := loadProfile("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.UpstreamURL != "http://localhost:8001/api" || p.TimeoutSeconds != 45 || p.Quiz.Count != 25 || p.ExamMinutes != 90 {
		t.Fatalf("defaults = %+v", p)
	}
	if p.BootstrapAttempts != 3 || p.BootstrapDelaySeconds != 5 || p.ScenarioSeconds != 420 {
		t.Fatalf("defaults = %+v", p)
	}
}

func TestLoadProfileExplicitMissing(t *testing.T) {
	if _, err := loadProfile(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Fatal("expected error for missing explicit profile")
	}
}

func TestLoadProfileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	writeFile(t, path, `
upstream_url: https://study.example.com/api/
timeout_seconds: 10
quiz:
  count: 5
  seconds_per_question: 30
no_color: true
`)
	p, err := loadProfile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.UpstreamURL != "https://study.example.com/api" {
		t.Fatalf("upstream = %q", p.UpstreamURL)
	}
	if p.TimeoutSeconds != 10 || p.Quiz.Count != 5 || p.Quiz.SecondsPerQuestion != 30 || !p.NoColor {
		t.Fatalf("profile = %+v", p)
	}

	cfg := p.practiceConfig()
	if cfg.QuizDefaultCount != 5 || cfg.QuizSecondsPerQuestion != 30 {
		t.Fatalf("practice config = %+v", cfg)
	}
}

func TestLoadProfileRejectsBadURL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yml")
	writeFile(t, path, "upstream_url: study.example.com\n")
	if _, err := loadProfile(path); err == nil {
		t.Fatal("expected error for non-http upstream")
	}
}

func TestRunUsage(t *testing.T) {
	var out, errOut bytes.Buffer
	s := Streams{In: strings.NewReader(""), Out: &out, Err: &errOut}

	if code := Run(nil, s); code != ExitUsage {
		t.Fatalf("no args = %d", code)
	}
	if code := Run([]string{"--help"}, s); code != ExitOK {
		t.Fatalf("help = %d", code)
	}
	if code := Run([]string{"dance"}, s); code != ExitUsage {
		t.Fatalf("unknown = %d", code)
	}
	if !strings.Contains(errOut.String(), "Unknown command: dance") {
		t.Fatalf("stderr = %q", errOut.String())
	}
	if code := Run([]string{"quiz", "--help"}, s); code != ExitOK {
		t.Fatalf("quiz help = %d", code)
	}
	if code := Run([]string{"login"}, s); code != ExitUsage {
		t.Fatalf("login without email = %d", code)
	}
}

// ─── End to end against a fake backend ─────────────────────────────────

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func fakeBackend(t *testing.T, mux *http.ServeMux) string {
	t.Helper()
	mux.HandleFunc("/api/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.User{UserID: "guest-1", Role: model.RoleGuest, SessionToken: "guest-token"})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	path := filepath.Join(dir, "profile.yml")
	writeFile(t, path, "upstream_url: "+srv.URL+"/api\n"+
		"credentials_path: "+filepath.Join(dir, "credentials.json")+"\n"+
		"no_color: true\n"+
		"log_level: error\n")
	return path
}

func TestQuizRunsToGrade(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/questions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("type") != "multiple_choice" {
			t.Errorf("type = %q", r.URL.Query().Get("type"))
		}
		writeJSON(w, http.StatusOK, []model.Question{
			{QuestionID: "q1", Type: model.QuestionTypeMultipleChoice, Question: "First?", Options: []string{"yes", "no"}, CorrectAnswers: []string{"yes"}},
			{QuestionID: "q2", Type: model.QuestionTypeMultipleChoice, Question: "Second?", Options: []string{"up", "down"}, CorrectAnswers: []string{"up"}},
			{QuestionID: "bad", Type: model.QuestionTypeMultipleChoice, Question: "No key"},
		})
	})
	profile := fakeBackend(t, mux)

	var out, errOut bytes.Buffer
	code := Run([]string{"quiz", "--count", "5", "--profile", profile}, Streams{
		In:  strings.NewReader("a\na\ns\n"),
		Out: &out,
		Err: &errOut,
	})
	if code != ExitOK {
		t.Fatalf("exit = %d\nstdout:\n%s\nstderr:\n%s", code, out.String(), errOut.String())
	}

	got := out.String()
	for _, want := range []string{"Quiz: 2 questions, 02:00 on the clock", "Last question answered", "Score: 100% PASSED", "Correct: 2/2"} {
		if !strings.Contains(got, want) {
			t.Errorf("stdout missing %q:\n%s", want, got)
		}
	}
	if !strings.Contains(errOut.String(), "continuing as guest") {
		t.Errorf("stderr = %q", errOut.String())
	}
}

func TestQuizDiscardedOnEOF(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/questions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []model.Question{
			{QuestionID: "q1", Question: "Only?", Options: []string{"a", "b"}, CorrectAnswers: []string{"a"}},
		})
	})
	profile := fakeBackend(t, mux)

	var out, errOut bytes.Buffer
	code := Run([]string{"quiz", "--profile", profile}, Streams{In: strings.NewReader(""), Out: &out, Err: &errOut})
	if code != ExitError {
		t.Fatalf("exit = %d", code)
	}
	if !strings.Contains(out.String(), "session discarded") {
		t.Fatalf("stdout = %q", out.String())
	}
}

func TestScenarioRetriesFailedGrading(t *testing.T) {
	var submits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/api/questions/s1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, model.Question{
			QuestionID:  "s1",
			Type:        model.QuestionTypeScenario,
			Title:       "Outage",
			Content:     "The primary database is down.",
			ModelAnswer: "Fail over to the replica.",
		})
	})
	mux.HandleFunc("/api/scenarios/submit", func(w http.ResponseWriter, r *http.Request) {
		var req model.ScenarioSubmitRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.QuestionID != "s1" || !strings.Contains(req.UserResponse, "replica") {
			t.Errorf("submission = %+v", req)
		}
		if submits.Add(1) == 1 {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"detail": "grader down"})
			return
		}
		grade := 82.4
		writeJSON(w, http.StatusOK, model.ScenarioGrade{ResponseID: "r1", Grade: &grade, Feedback: "Solid plan."})
	})
	profile := fakeBackend(t, mux)

	input := strings.Join([]string{
		"short",
		".",
		"Promote the replica, repoint the application, then rebuild the primary.",
		".",
		"y",
	}, "\n") + "\n"

	var out, errOut bytes.Buffer
	code := Run([]string{"scenario", "--id", "s1", "--profile", profile}, Streams{In: strings.NewReader(input), Out: &out, Err: &errOut})
	if code != ExitOK {
		t.Fatalf("exit = %d\nstdout:\n%s\nstderr:\n%s", code, out.String(), errOut.String())
	}

	got := out.String()
	for _, want := range []string{"at least 50 characters required", "Grading failed", "Score: 82% PASSED", "Solid plan.", "Fail over to the replica."} {
		if !strings.Contains(got, want) {
			t.Errorf("stdout missing %q:\n%s", want, got)
		}
	}
	if n := submits.Load(); n != 2 {
		t.Fatalf("submits = %d, want 2", n)
	}
}
