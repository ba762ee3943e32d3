package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/apiclient"
	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/config"
	"github.com/stemsi/studyguide/internal/model"
	"github.com/stemsi/studyguide/internal/service"
)

const (
	choiceQuiz = assessment.KindQuiz
	choiceExam = assessment.KindPracticeExam
)

// Countdown reminders printed while a session runs, in seconds remaining.
var reminders = map[int]bool{warningSeconds: true, urgentSeconds: true, 30: true, 10: true}

// clientPool serves session questions straight from the backend.
type clientPool struct {
	client *apiclient.Client
	log    zerolog.Logger
}

func (p clientPool) Pool(ctx context.Context, _ string, kind assessment.Kind, categoryID string) ([]assessment.Question, error) {
	wire, err := p.client.Questions(ctx, model.QuestionFilter{Type: service.WireType(kind), CategoryID: categoryID})
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	pool := make([]assessment.Question, 0, len(wire))
	for _, q := range wire {
		aq, err := service.ToAssessment(kind, q)
		if err != nil {
			p.log.Debug().Err(err).Str("question_id", q.QuestionID).Msg("Skipping question")
			continue
		}
		pool = append(pool, aq)
	}
	return pool, nil
}

func (p clientPool) Scenario(ctx context.Context, _ string, questionID string) (assessment.Question, error) {
	q, err := p.client.Question(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	return service.ToAssessment(assessment.KindScenario, q)
}

func (p Profile) practiceConfig() *config.Config {
	return &config.Config{
		ExamDuration:           time.Duration(p.ExamMinutes) * time.Minute,
		ScenarioDuration:       time.Duration(p.ScenarioSeconds) * time.Second,
		QuizDefaultCount:       p.Quiz.Count,
		QuizSecondsPerQuestion: p.Quiz.SecondsPerQuestion,
	}
}

// syncWriter serializes output from the ticker goroutine and the prompt loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}

// run is one interactive practice session.
type run struct {
	session *assessment.Session
	colors  palette
	out     io.Writer
	lines   <-chan string
	expired chan struct{}
}

func runChoice(kind assessment.Kind) func(cmd *Command) func(args []string, s Streams) int {
	return func(cmd *Command) func(args []string, s Streams) int {
		return func(args []string, s Streams) int {
			req := model.PracticeRequest{Kind: string(kind)}
			profilePath, code, ok := parseFlags(cmd, args, s, func(f *flag.FlagSet) {
				if kind == assessment.KindQuiz {
					f.IntVar(&req.Count, "count", 0, "Number of questions (default from profile)")
				}
				f.StringVar(&req.CategoryID, "category", "", "Restrict to a category ID")
			})
			if !ok {
				return code
			}
			return practice(profilePath, req, s)
		}
	}
}

func runScenario(cmd *Command) func(args []string, s Streams) int {
	return func(args []string, s Streams) int {
		req := model.PracticeRequest{Kind: string(assessment.KindScenario)}
		profilePath, code, ok := parseFlags(cmd, args, s, func(f *flag.FlagSet) {
			f.StringVar(&req.QuestionID, "id", "", "Scenario question ID (default: random)")
			f.StringVar(&req.CategoryID, "category", "", "Restrict the random pick to a category ID")
		})
		if !ok {
			return code
		}
		return practice(profilePath, req, s)
	}
}

func practice(profilePath string, req model.PracticeRequest, s Streams) int {
	sess, code, ok := openSession(profilePath, s)
	if !ok {
		return code
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := sess.ensureSignedIn(ctx, s.Err); err != nil {
		return reportError(s.Err, "sign in", err)
	}

	out := &syncWriter{w: s.Out}
	r := &run{
		colors:  sess.colors,
		out:     out,
		expired: make(chan struct{}),
	}
	var expireOnce sync.Once

	practices := service.NewPracticeService(
		sess.profile.practiceConfig(),
		clientPool{client: sess.client, log: sess.log},
		func(string) assessment.ScenarioGrader { return sess.client },
		sess.log,
	)
	session, duration, err := practices.Prepare(ctx, "", req,
		assessment.WithTickHook(func(snap assessment.Snapshot) {
			if snap.Status == assessment.StatusActive && reminders[snap.RemainingSeconds] {
				fmt.Fprintf(out, "\n%s remaining\n", r.colors.timer(snap.RemainingSeconds))
			}
		}),
		assessment.WithSubmitHook(func(_ assessment.Snapshot, trigger assessment.Trigger) {
			if trigger == assessment.TriggerTimeout {
				expireOnce.Do(func() { close(r.expired) })
			}
		}),
	)
	if errors.Is(err, assessment.ErrNoQuestions) {
		fmt.Fprintln(s.Err, "No questions available for this selection.")
		return ExitError
	}
	if err != nil {
		return reportError(s.Err, "prepare session", err)
	}
	r.session = session
	defer session.Close()

	r.lines = readLines(sess.in)
	if err := session.Start(duration); err != nil {
		return reportError(s.Err, "start session", err)
	}

	if session.Kind() == assessment.KindScenario {
		return r.scenario(ctx)
	}
	return r.choices(ctx)
}

func (s *session) ensureSignedIn(ctx context.Context, stderr io.Writer) error {
	_, err := s.client.Restore(ctx)
	if errors.Is(err, apiclient.ErrNoCredentials) {
		fmt.Fprintln(stderr, "No stored session, continuing as guest.")
		_, err = s.client.GuestLogin(ctx)
	}
	return err
}

// readLines feeds stdin lines to the prompt loop so it can also wait on the
// countdown. The channel closes at EOF.
func readLines(in *bufio.Reader) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		for {
			line, err := in.ReadString('\n')
			if line != "" || err == nil {
				ch <- strings.TrimRight(line, "\r\n")
			}
			if err != nil {
				return
			}
		}
	}()
	return ch
}

// ─── Choice sessions ───────────────────────────────────────────────────

func (r *run) choices(ctx context.Context) int {
	snap := r.session.Snapshot()
	fmt.Fprintf(r.out, "%s: %d questions, %s on the clock\n",
		r.colors.heading(kindTitle(snap.Kind)), snap.Total, r.colors.timer(snap.RemainingSeconds))
	fmt.Fprintln(r.out, r.colors.muted(choiceHelp(snap.Kind)))
	r.showChoice(snap.CurrentIndex)

	for {
		snap = r.session.Snapshot()
		fmt.Fprintf(r.out, "[%s] > ", r.colors.timer(snap.RemainingSeconds))

		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out, "\nSession discarded.")
			return ExitError
		case <-r.expired:
			fmt.Fprintln(r.out, "\n"+r.colors.stylize("Time is up.", colorRed, true))
			return r.grade(ctx)
		case line, ok := <-r.lines:
			if !ok {
				fmt.Fprintln(r.out, "\nInput closed, session discarded.")
				return ExitError
			}
			if done, code := r.choiceCommand(ctx, strings.TrimSpace(line)); done {
				return code
			}
		}
	}
}

func (r *run) choiceCommand(ctx context.Context, input string) (bool, int) {
	idx := r.session.Snapshot().CurrentIndex

	switch strings.ToLower(input) {
	case "":
		r.showChoice(idx)
	case "n":
		next, _ := r.session.Advance(1)
		r.showChoice(next)
	case "p":
		prev, _ := r.session.Advance(-1)
		r.showChoice(prev)
	case "r":
		fb, err := r.session.Reveal(idx)
		if err != nil {
			fmt.Fprintf(r.out, "%s\n", r.colors.muted(revealError(err)))
			return false, 0
		}
		fmt.Fprintf(r.out, "%s, expected %s\n", r.colors.verdict(fb.Correct), strings.Join(fb.Expected, ", "))
		if fb.Explanation != "" {
			fmt.Fprintln(r.out, fb.Explanation)
		}
		if fb.Reference != "" {
			fmt.Fprintln(r.out, r.colors.muted("Reference: "+fb.Reference))
		}
	case "s":
		if err := r.session.Submit(); err != nil {
			fmt.Fprintf(r.out, "Cannot submit: %v\n", err)
			return false, 0
		}
		return true, r.grade(ctx)
	case "q":
		r.session.Close()
		fmt.Fprintln(r.out, "Session discarded.")
		return true, ExitOK
	case "h", "?":
		fmt.Fprintln(r.out, choiceHelp(r.session.Kind()))
	default:
		q, _ := r.session.Question(idx)
		cq := q.(assessment.ChoiceQuestion)
		selected, err := parseSelection(cq, input)
		if err != nil {
			fmt.Fprintf(r.out, "%v\n", err)
			return false, 0
		}
		err = r.session.RecordAnswer(idx, assessment.ChoiceAnswer{Selected: assessment.NewAnswerSet(selected...)})
		if errors.Is(err, assessment.ErrInvalidState) {
			// The countdown won the race; grade what was recorded.
			fmt.Fprintln(r.out, r.colors.stylize("Time is up.", colorRed, true))
			return true, r.grade(ctx)
		}
		if err != nil {
			fmt.Fprintf(r.out, "%v\n", err)
			return false, 0
		}
		if idx < r.session.Len()-1 {
			next, _ := r.session.Advance(1)
			r.showChoice(next)
		} else {
			fmt.Fprintln(r.out, r.colors.muted("Last question answered. Type s to submit."))
		}
	}
	return false, 0
}

func (r *run) showChoice(i int) {
	q, ok := r.session.Question(i)
	if !ok {
		return
	}
	cq := q.(assessment.ChoiceQuestion)

	fmt.Fprintf(r.out, "\n%s %s\n", r.colors.heading(fmt.Sprintf("Question %d/%d", i+1, r.session.Len())),
		r.colors.muted(strings.TrimSpace(cq.Category+" "+cq.Difficulty)))
	fmt.Fprintln(r.out, cq.Prompt)
	if cq.MultiSelect() {
		fmt.Fprintln(r.out, r.colors.muted("Select all that apply, e.g. a,c"))
	}

	var chosen assessment.AnswerSet
	if a, ok := r.session.Answer(i); ok {
		chosen = a.(assessment.ChoiceAnswer).Selected
	}
	for j, opt := range cq.Options {
		mark := " "
		if _, ok := chosen[opt]; ok {
			mark = "*"
		}
		fmt.Fprintf(r.out, " %s %s) %s\n", mark, optionLabel(j), opt)
	}
}

func choiceHelp(kind assessment.Kind) string {
	help := "Answer with option letters. n next, p previous, s submit, q quit."
	if kind == assessment.KindQuiz {
		help = "Answer with option letters. n next, p previous, r check answer, s submit, q quit."
	}
	return help
}

func revealError(err error) string {
	if assessment.IsValidation(err) {
		return "Answer the question first."
	}
	return err.Error()
}

// ─── Scenario sessions ─────────────────────────────────────────────────

func (r *run) scenario(ctx context.Context) int {
	q, _ := r.session.Question(0)
	sq := q.(assessment.ScenarioQuestion)
	snap := r.session.Snapshot()

	fmt.Fprintf(r.out, "%s %s\n", r.colors.heading(orDefault(sq.Title, "Scenario")),
		r.colors.muted(strings.TrimSpace(sq.Category+" "+sq.Difficulty)))
	fmt.Fprintln(r.out, sq.Content)
	fmt.Fprintf(r.out, "\nYou have %s. Write your response below.\n", r.colors.timer(snap.RemainingSeconds))
	fmt.Fprintln(r.out, r.colors.muted(fmt.Sprintf(
		"Finish with a line containing only \".\" (at least %d characters). \":q\" discards the attempt.",
		assessment.MinScenarioResponse)))

	var text []string
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(r.out, "\nSession discarded.")
			return ExitError
		case <-r.expired:
			fmt.Fprintln(r.out, "\n"+r.colors.stylize("Time is up, submitting what you wrote.", colorRed, true))
			return r.grade(ctx)
		case line, ok := <-r.lines:
			if !ok {
				fmt.Fprintln(r.out, "\nInput closed, session discarded.")
				return ExitError
			}
			switch strings.TrimSpace(line) {
			case ":q":
				r.session.Close()
				fmt.Fprintln(r.out, "Session discarded.")
				return ExitOK
			case ".":
				err := r.session.Submit()
				if assessment.IsValidation(err) {
					fmt.Fprintf(r.out, "%v\n", err)
					continue
				}
				if err != nil && !errors.Is(err, assessment.ErrInvalidState) {
					fmt.Fprintf(r.out, "Cannot submit: %v\n", err)
					continue
				}
				return r.grade(ctx)
			}

			text = append(text, line)
			err := r.session.RecordAnswer(0, assessment.ScenarioAnswer{Text: strings.Join(text, "\n")})
			if errors.Is(err, assessment.ErrInvalidState) {
				fmt.Fprintln(r.out, r.colors.stylize("Time is up, submitting what you wrote.", colorRed, true))
				return r.grade(ctx)
			}
		}
	}
}

// grade resolves the submitted session. A failed scenario grading leaves the
// session submitted, so the user may retry.
func (r *run) grade(ctx context.Context) int {
	for {
		if r.session.Kind() == assessment.KindScenario {
			fmt.Fprintln(r.out, r.colors.muted("Grading your response..."))
		}
		res, err := r.session.Grade(ctx)
		if err == nil {
			fmt.Fprint(r.out, "\n"+r.colors.renderResult(res))
			r.showModelAnswer()
			return ExitOK
		}

		var gradingErr *assessment.GradingError
		if !errors.As(err, &gradingErr) {
			fmt.Fprintf(r.out, "Grading failed: %v\n", err)
			return ExitError
		}
		fmt.Fprintf(r.out, "Grading failed: %v\nRetry? [Y/n] ", gradingErr.Err)

		var answer string
		select {
		case <-ctx.Done():
			return ExitError
		case line, ok := <-r.lines:
			if !ok {
				return ExitError
			}
			answer = strings.ToLower(strings.TrimSpace(line))
		}
		if answer != "" && answer != "y" && answer != "yes" {
			return ExitError
		}
	}
}

func (r *run) showModelAnswer() {
	if r.session.Kind() != assessment.KindScenario {
		return
	}
	q, _ := r.session.Question(0)
	sq := q.(assessment.ScenarioQuestion)
	if sq.ModelAnswer != "" {
		fmt.Fprintf(r.out, "\n%s\n%s\n", r.colors.heading("Model answer"), sq.ModelAnswer)
	}
	if sq.StudyTip != "" {
		fmt.Fprintf(r.out, "\n%s %s\n", r.colors.heading("Study tip:"), sq.StudyTip)
	}
	if sq.Reference != "" {
		fmt.Fprintln(r.out, r.colors.muted("Reference: "+sq.Reference))
	}
}

func kindTitle(kind assessment.Kind) string {
	switch kind {
	case assessment.KindQuiz:
		return "Quiz"
	case assessment.KindPracticeExam:
		return "Practice exam"
	default:
		return "Scenario"
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
