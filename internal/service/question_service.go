package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/config"
	"github.com/stemsi/studyguide/internal/model"
)

// ErrUnsupportedQuestion marks content that cannot be turned into a practice item.
var ErrUnsupportedQuestion = errors.New("question cannot be practiced")

// QuestionService reads question content from upstream through a shared
// Redis cache.
type QuestionService struct {
	clients *ClientFactory
	rdb     redis.Cmdable
	ttl     time.Duration
	log     zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(cfg *config.Config, rdb redis.Cmdable, clients *ClientFactory, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		clients: clients,
		rdb:     rdb,
		ttl:     cfg.QuestionCacheTTL,
		log:     log.With().Str("component", "question_service").Logger(),
	}
}

// List returns full question records, answer keys included. Callers that
// expose them must strip keys with model.Question.Public.
func (s *QuestionService) List(ctx context.Context, deviceID string, f model.QuestionFilter) ([]model.Question, error) {
	key := config.CacheKey.QuestionPoolKey(string(f.Type), f.CategoryID)

	if data, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
		var cached []model.Question
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		s.log.Warn().Str("key", key).Msg("Discarding unreadable question cache entry")
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Str("key", key).Msg("Question cache read failed")
	}

	questions, err := s.clients.ForDevice(deviceID).Questions(ctx, f)
	if err != nil {
		return nil, err
	}
	if questions == nil {
		questions = []model.Question{}
	}

	if data, err := json.Marshal(questions); err == nil {
		if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Question cache write failed")
		}
	}
	return questions, nil
}

// Get fetches one question from upstream.
func (s *QuestionService) Get(ctx context.Context, deviceID, questionID string) (model.Question, error) {
	return s.clients.ForDevice(deviceID).Question(ctx, questionID)
}

// Invalidate drops every cached question listing.
func (s *QuestionService) Invalidate(ctx context.Context) error {
	iter := s.rdb.Scan(ctx, 0, config.CacheKey.QuestionPoolKey("*", "*"), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan question cache: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.rdb.Del(ctx, keys...).Err()
}

// Pool returns every practicable question for kind, skipping malformed items.
func (s *QuestionService) Pool(ctx context.Context, deviceID string, kind assessment.Kind, categoryID string) ([]assessment.Question, error) {
	wire, err := s.List(ctx, deviceID, model.QuestionFilter{Type: WireType(kind), CategoryID: categoryID})
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	pool := make([]assessment.Question, 0, len(wire))
	for _, q := range wire {
		aq, err := ToAssessment(kind, q)
		if err != nil {
			s.log.Warn().Err(err).Str("question_id", q.QuestionID).Msg("Skipping question")
			continue
		}
		pool = append(pool, aq)
	}
	return pool, nil
}

// Scenario fetches a single scenario by ID.
func (s *QuestionService) Scenario(ctx context.Context, deviceID, questionID string) (assessment.Question, error) {
	q, err := s.Get(ctx, deviceID, questionID)
	if err != nil {
		return nil, fmt.Errorf("load scenario: %w", err)
	}
	return ToAssessment(assessment.KindScenario, q)
}

// WireType maps a session kind to the upstream content type.
func WireType(kind assessment.Kind) model.QuestionType {
	switch kind {
	case assessment.KindQuiz:
		return model.QuestionTypeMultipleChoice
	case assessment.KindPracticeExam:
		return model.QuestionTypePracticeExam
	default:
		return model.QuestionTypeScenario
	}
}

// ToAssessment converts upstream content into a session question. Quiz items
// carry a correct_answers list; practice exam items carry a single answer.
func ToAssessment(kind assessment.Kind, q model.Question) (assessment.Question, error) {
	switch kind {
	case assessment.KindQuiz, assessment.KindPracticeExam:
		var correct assessment.AnswerSet
		if kind == assessment.KindQuiz {
			correct = assessment.NewAnswerSet(q.CorrectAnswers...)
		} else {
			correct = assessment.NewAnswerSet(q.Answer)
		}
		if len(q.Options) == 0 || len(correct) == 0 {
			return nil, fmt.Errorf("%s: %w: missing options or answer key", q.QuestionID, ErrUnsupportedQuestion)
		}

		prompt := q.Question
		if prompt == "" {
			prompt = q.Content
		}
		return assessment.ChoiceQuestion{
			ID:          q.QuestionID,
			Prompt:      prompt,
			Options:     q.Options,
			Correct:     correct,
			Explanation: q.Explanation,
			Reference:   q.Reference,
			Category:    q.CategoryName,
			Difficulty:  q.Difficulty,
		}, nil

	case assessment.KindScenario:
		if q.Content == "" && q.Description == "" {
			return nil, fmt.Errorf("%s: %w: empty scenario", q.QuestionID, ErrUnsupportedQuestion)
		}
		content := q.Content
		if content == "" {
			content = q.Description
		}
		modelAnswer := q.ModelAnswer
		if modelAnswer == "" {
			modelAnswer = q.Answer
		}
		sq := assessment.ScenarioQuestion{
			ID:          q.QuestionID,
			Title:       q.Title,
			Content:     content,
			ModelAnswer: modelAnswer,
			StudyTip:    q.StudyTip,
			Reference:   q.Reference,
			Category:    q.CategoryName,
			Difficulty:  q.Difficulty,
		}
		if q.TimeLimit != nil && *q.TimeLimit > 0 {
			sq.TimeLimit = time.Duration(*q.TimeLimit) * time.Second
		}
		return sq, nil
	}
	return nil, fmt.Errorf("%w: unknown kind %q", ErrUnsupportedQuestion, kind)
}

// Create adds a question upstream and drops cached listings.
func (s *QuestionService) Create(ctx context.Context, deviceID string, req model.SaveQuestionRequest) (model.Question, error) {
	q, err := s.clients.ForDevice(deviceID).CreateQuestion(ctx, req)
	if err != nil {
		return model.Question{}, err
	}
	s.invalidateQuietly(ctx)
	return q, nil
}

// Update replaces a question upstream and drops cached listings.
func (s *QuestionService) Update(ctx context.Context, deviceID, questionID string, req model.SaveQuestionRequest) (model.Question, error) {
	q, err := s.clients.ForDevice(deviceID).UpdateQuestion(ctx, questionID, req)
	if err != nil {
		return model.Question{}, err
	}
	s.invalidateQuietly(ctx)
	return q, nil
}

// Delete removes a question upstream and drops cached listings.
func (s *QuestionService) Delete(ctx context.Context, deviceID, questionID string) error {
	if err := s.clients.ForDevice(deviceID).DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.invalidateQuietly(ctx)
	return nil
}

// invalidateQuietly logs cache failures; entries expire on their own.
func (s *QuestionService) invalidateQuietly(ctx context.Context) {
	if err := s.Invalidate(ctx); err != nil {
		s.log.Warn().Err(err).Msg("Question cache invalidation failed")
	}
}
