package service

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/model"
)

// StudyService forwards per-user study data (bookmarks, progress, stats and
// rankings) to the upstream backend under the device's identity.
type StudyService struct {
	clients *ClientFactory
	log     zerolog.Logger
}

// NewStudyService creates a new StudyService.
func NewStudyService(clients *ClientFactory, log zerolog.Logger) *StudyService {
	return &StudyService{
		clients: clients,
		log:     log.With().Str("component", "study_service").Logger(),
	}
}

func (s *StudyService) Categories(ctx context.Context, deviceID string) ([]model.Category, error) {
	return s.clients.ForDevice(deviceID).Categories(ctx)
}

func (s *StudyService) ToggleBookmark(ctx context.Context, deviceID, questionID string) (model.BookmarkState, error) {
	return s.clients.ForDevice(deviceID).ToggleBookmark(ctx, questionID)
}

// Bookmarks returns bookmarked questions with answer keys stripped.
func (s *StudyService) Bookmarks(ctx context.Context, deviceID string) ([]model.Question, error) {
	qs, err := s.clients.ForDevice(deviceID).Bookmarks(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Question, len(qs))
	for i, q := range qs {
		out[i] = q.Public()
	}
	return out, nil
}

func (s *StudyService) Progress(ctx context.Context, deviceID, questionID string) (model.Progress, error) {
	return s.clients.ForDevice(deviceID).Progress(ctx, questionID)
}

func (s *StudyService) Stats(ctx context.Context, deviceID string) (model.Stats, error) {
	return s.clients.ForDevice(deviceID).Stats(ctx)
}

func (s *StudyService) Leaderboard(ctx context.Context, deviceID string) (model.Leaderboard, error) {
	return s.clients.ForDevice(deviceID).Leaderboard(ctx)
}

func (s *StudyService) ScenarioHistory(ctx context.Context, deviceID string) ([]model.ScenarioResponse, error) {
	return s.clients.ForDevice(deviceID).ScenarioHistory(ctx)
}

// ResetScores wipes the user's graded responses and progress upstream.
func (s *StudyService) ResetScores(ctx context.Context, deviceID string) (model.ResetScoresResult, error) {
	res, err := s.clients.ForDevice(deviceID).ResetScores(ctx)
	if err != nil {
		return model.ResetScoresResult{}, err
	}
	s.log.Info().
		Str("device_id", deviceID).
		Int("responses_deleted", res.ResponsesDeleted).
		Int("progress_reset", res.ProgressReset).
		Msg("Scores reset")
	return res, nil
}

func (s *StudyService) Analytics(ctx context.Context, deviceID string) (model.Analytics, error) {
	return s.clients.ForDevice(deviceID).AdminAnalytics(ctx)
}
