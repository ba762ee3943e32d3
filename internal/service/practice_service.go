package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/config"
	"github.com/stemsi/studyguide/internal/model"
)

// QuestionPool supplies session questions for a device.
type QuestionPool interface {
	Pool(ctx context.Context, deviceID string, kind assessment.Kind, categoryID string) ([]assessment.Question, error)
	Scenario(ctx context.Context, deviceID, questionID string) (assessment.Question, error)
}

// GraderFunc returns the scenario grader acting for a device.
type GraderFunc func(deviceID string) assessment.ScenarioGrader

// PracticeService assembles timed sessions from upstream content.
type PracticeService struct {
	cfg       *config.Config
	questions QuestionPool
	graders   GraderFunc
	log       zerolog.Logger
}

// NewPracticeService creates a new PracticeService.
func NewPracticeService(cfg *config.Config, questions QuestionPool, graders GraderFunc, log zerolog.Logger) *PracticeService {
	return &PracticeService{
		cfg:       cfg,
		questions: questions,
		graders:   graders,
		log:       log.With().Str("component", "practice_service").Logger(),
	}
}

// Prepare builds a not-started session and the duration it should run for.
//   - quiz: a random sample of Count questions (default QUIZ_DEFAULT_COUNT),
//     QUIZ_SECONDS_PER_QUESTION each
//   - practice exam: the whole pool in upstream order, EXAM_DURATION_MINUTES
//   - scenario: QuestionID or one random scenario, its time_limit or
//     SCENARIO_DURATION_SECONDS
func (s *PracticeService) Prepare(ctx context.Context, deviceID string, req model.PracticeRequest, opts ...assessment.Option) (*assessment.Session, time.Duration, error) {
	kind := assessment.Kind(req.Kind)
	if !kind.Valid() {
		return nil, 0, &assessment.ValidationError{Field: "kind", Reason: "unknown practice kind"}
	}

	var (
		questions []assessment.Question
		duration  time.Duration
	)

	switch kind {
	case assessment.KindQuiz:
		pool, err := s.questions.Pool(ctx, deviceID, kind, req.CategoryID)
		if err != nil {
			return nil, 0, err
		}
		count := req.Count
		if count <= 0 {
			count = s.cfg.QuizDefaultCount
		}
		questions = assessment.Sample(pool, count)
		duration = time.Duration(len(questions)*s.cfg.QuizSecondsPerQuestion) * time.Second

	case assessment.KindPracticeExam:
		pool, err := s.questions.Pool(ctx, deviceID, kind, req.CategoryID)
		if err != nil {
			return nil, 0, err
		}
		questions = pool
		duration = s.cfg.ExamDuration

	case assessment.KindScenario:
		var q assessment.Question
		if req.QuestionID != "" {
			var err error
			if q, err = s.questions.Scenario(ctx, deviceID, req.QuestionID); err != nil {
				return nil, 0, err
			}
		} else {
			pool, err := s.questions.Pool(ctx, deviceID, kind, req.CategoryID)
			if err != nil {
				return nil, 0, err
			}
			if picked := assessment.Sample(pool, 1); len(picked) == 1 {
				q = picked[0]
			}
		}
		if q != nil {
			questions = []assessment.Question{q}
			duration = s.cfg.ScenarioDuration
			if sq, ok := q.(assessment.ScenarioQuestion); ok && sq.TimeLimit > 0 {
				duration = sq.TimeLimit
			}
		}
		opts = append([]assessment.Option{assessment.WithGrader(s.graders(deviceID))}, opts...)
	}

	session, err := assessment.NewSession(kind, questions, opts...)
	if err != nil {
		return nil, 0, err
	}

	s.log.Debug().
		Str("device_id", deviceID).
		Str("session_id", session.ID()).
		Str("kind", string(kind)).
		Int("questions", session.Len()).
		Dur("duration", duration).
		Msg("Practice session prepared")

	return session, duration, nil
}
