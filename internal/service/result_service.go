package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/assessment"
	"github.com/stemsi/studyguide/internal/config"
	"github.com/stemsi/studyguide/internal/model"
	"github.com/stemsi/studyguide/internal/repository"
	"github.com/stemsi/studyguide/internal/response"
)

// ErrNotGraded is returned when recording a session without a result.
var ErrNotGraded = errors.New("session has no result")

// ResultService keeps the local ledger of graded practice sessions.
type ResultService struct {
	repo *repository.ResultRepository
	rdb  redis.Cmdable
	log  zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(repo *repository.ResultRepository, rdb redis.Cmdable, log zerolog.Logger) *ResultService {
	return &ResultService{
		repo: repo,
		rdb:  rdb,
		log:  log.With().Str("component", "result_service").Logger(),
	}
}

// Record queues a graded session for the result worker.
func (s *ResultService) Record(ctx context.Context, deviceID string, snap assessment.Snapshot) error {
	devID, err := uuid.Parse(deviceID)
	if err != nil {
		return fmt.Errorf("device id: %w", err)
	}
	r, err := BuildResult(devID, snap, time.Now())
	if err != nil {
		return err
	}

	raw, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistResultsQueue, raw).Err(); err != nil {
		return fmt.Errorf("queue result: %w", err)
	}
	return nil
}

// BuildResult turns a graded snapshot into a ledger row.
func BuildResult(deviceID uuid.UUID, snap assessment.Snapshot, gradedAt time.Time) (model.PracticeResult, error) {
	if snap.Status != assessment.StatusGraded || snap.Result == nil {
		return model.PracticeResult{}, ErrNotGraded
	}
	res := snap.Result

	r := model.PracticeResult{
		ID:             uuid.New(),
		DeviceID:       deviceID,
		SessionID:      snap.ID,
		Kind:           string(snap.Kind),
		Score:          res.Score,
		RawGrade:       res.RawGrade,
		Correct:        res.Correct,
		Total:          res.Total,
		AutoSubmitted:  res.AutoSubmitted,
		ElapsedSeconds: int(res.Elapsed.Round(time.Second) / time.Second),
		ResponseID:     res.ResponseID,
		StartedAt:      snap.StartedAt,
		GradedAt:       gradedAt,
	}
	if res.Score != nil {
		r.Passed = assessment.Passed(*res.Score)
	}
	return r, nil
}

// List returns a page of a device's results.
func (s *ResultService) List(ctx context.Context, deviceID string, q model.ResultListQuery) ([]model.PracticeResult, *response.Pagination, error) {
	devID, err := uuid.Parse(deviceID)
	if err != nil {
		return nil, nil, fmt.Errorf("device id: %w", err)
	}

	page, perPage := q.Page, q.PerPage
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	results, total, err := s.repo.ListByDevice(ctx, devID, q.Kind, page, perPage)
	if err != nil {
		return nil, nil, err
	}
	return results, response.NewPagination(page, perPage, int(total)), nil
}

// Summary aggregates a device's results per kind.
func (s *ResultService) Summary(ctx context.Context, deviceID string) ([]model.ResultSummary, error) {
	devID, err := uuid.Parse(deviceID)
	if err != nil {
		return nil, fmt.Errorf("device id: %w", err)
	}
	out, err := s.repo.Summary(ctx, devID, assessment.PassingScore)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.ResultSummary{}
	}
	return out, nil
}
