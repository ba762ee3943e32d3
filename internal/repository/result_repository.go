package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/studyguide/internal/model"
)

// ResultRepository handles practice result data access.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// ListByDevice returns a page of a device's results, newest first, and the
// total row count. An empty kind matches every kind.
func (r *ResultRepository) ListByDevice(ctx context.Context, deviceID uuid.UUID, kind string, page, perPage int) ([]model.PracticeResult, int64, error) {
	args := []any{deviceID}
	baseQuery := `FROM practice_results WHERE device_id = $1`
	if kind != "" {
		args = append(args, kind)
		baseQuery += fmt.Sprintf(" AND kind = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) "+baseQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * perPage
	query := `
		SELECT id, device_id, session_id, kind, score, raw_grade, correct, total,
		       passed, auto_submitted, elapsed_seconds, COALESCE(response_id, ''), started_at, graded_at
		` + baseQuery + `
		ORDER BY graded_at DESC
		LIMIT $` + fmt.Sprintf("%d", len(args)+1) + ` OFFSET $` + fmt.Sprintf("%d", len(args)+2)
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	results := make([]model.PracticeResult, 0, perPage)
	for rows.Next() {
		var p model.PracticeResult
		if err := rows.Scan(
			&p.ID, &p.DeviceID, &p.SessionID, &p.Kind, &p.Score, &p.RawGrade, &p.Correct, &p.Total,
			&p.Passed, &p.AutoSubmitted, &p.ElapsedSeconds, &p.ResponseID, &p.StartedAt, &p.GradedAt,
		); err != nil {
			return nil, 0, err
		}
		results = append(results, p)
	}
	return results, total, rows.Err()
}

// Summary aggregates a device's results per kind.
func (r *ResultRepository) Summary(ctx context.Context, deviceID uuid.UUID, passingScore int) ([]model.ResultSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT kind,
		       COUNT(*),
		       AVG(score)::float8,
		       MAX(score),
		       COUNT(*) FILTER (WHERE score >= $2)
		FROM practice_results
		WHERE device_id = $1
		GROUP BY kind
		ORDER BY kind`, deviceID, passingScore)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ResultSummary
	for rows.Next() {
		var s model.ResultSummary
		if err := rows.Scan(&s.Kind, &s.Attempts, &s.AverageScore, &s.BestScore, &s.PassedCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
