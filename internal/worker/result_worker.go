package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/studyguide/internal/config"
	"github.com/stemsi/studyguide/internal/model"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultWorker drains graded practice results from Redis into Postgres.
type ResultWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewResultWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "result_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	batch := make([]*model.PracticeResult, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}
			if len(item) < 2 {
				continue
			}

			var r model.PracticeResult
			if err := json.Unmarshal([]byte(item[1]), &r); err != nil {
				w.log.Error().Err(err).Msg("Invalid result payload, moving to dead letter list")
				w.push(ctx, config.WorkerKey.PersistResultsDeadLetter, item[1])
				continue
			}
			batch = append(batch, &r)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert with single-row fallback
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []*model.PracticeResult) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk result insert failed, using fallback")

		for _, r := range batch {
			err := w.persistSingle(ctx, r)
			if err == nil {
				continue
			}
			raw, _ := json.Marshal(r)
			if isPermanent(err) {
				w.log.Error().Err(err).Str("result_id", r.ID.String()).Msg("Result rejected by database, moving to dead letter list")
				w.push(ctx, config.WorkerKey.PersistResultsDeadLetter, raw)
				continue
			}
			w.log.Error().Err(err).Str("result_id", r.ID.String()).Msg("persistSingle failed, requeueing")
			w.push(ctx, config.WorkerKey.PersistResultsQueue, raw)
		}
		return
	}

	w.log.Debug().Int("size", len(batch)).Msg("Results persisted")
}

func (w *ResultWorker) push(ctx context.Context, key string, payload any) {
	if err := w.rdb.RPush(ctx, key, payload).Err(); err != nil {
		w.log.Error().Err(err).Str("key", key).Msg("RPush failed, result dropped")
	}
}

// isPermanent reports whether retrying the insert cannot succeed: the row
// itself breaks a constraint or carries bad data (SQLSTATE class 22 or 23).
func isPermanent(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	class := pgErr.Code[:min(2, len(pgErr.Code))]
	return class == "22" || class == "23"
}

// resultColumns is a batch pivoted into one slice per column for UNNEST.
type resultColumns struct {
	ids, devices    []uuid.UUID
	sessions        []string
	kinds           []string
	scores          []*int32
	rawGrades       []*float64
	correct, total  []int32
	passed, auto    []bool
	elapsed         []int32
	responseIDs     []*string
	started, graded []time.Time
}

func pivot(batch []*model.PracticeResult) resultColumns {
	n := len(batch)
	c := resultColumns{
		ids:         make([]uuid.UUID, n),
		devices:     make([]uuid.UUID, n),
		sessions:    make([]string, n),
		kinds:       make([]string, n),
		scores:      make([]*int32, n),
		rawGrades:   make([]*float64, n),
		correct:     make([]int32, n),
		total:       make([]int32, n),
		passed:      make([]bool, n),
		auto:        make([]bool, n),
		elapsed:     make([]int32, n),
		responseIDs: make([]*string, n),
		started:     make([]time.Time, n),
		graded:      make([]time.Time, n),
	}
	for i, r := range batch {
		c.ids[i] = r.ID
		c.devices[i] = r.DeviceID
		c.sessions[i] = r.SessionID
		c.kinds[i] = r.Kind
		if r.Score != nil {
			s := int32(*r.Score)
			c.scores[i] = &s
		}
		c.rawGrades[i] = r.RawGrade
		c.correct[i] = int32(r.Correct)
		c.total[i] = int32(r.Total)
		c.passed[i] = r.Passed
		c.auto[i] = r.AutoSubmitted
		c.elapsed[i] = int32(r.ElapsedSeconds)
		if r.ResponseID != "" {
			id := r.ResponseID
			c.responseIDs[i] = &id
		}
		c.started[i] = r.StartedAt
		c.graded[i] = r.GradedAt
	}
	return c
}

const insertResultsSQL = `
	INSERT INTO practice_results (
		id, device_id, session_id, kind, score, raw_grade, correct, total,
		passed, auto_submitted, elapsed_seconds, response_id, started_at, graded_at
	)
	SELECT * FROM UNNEST(
		$1::uuid[],
		$2::uuid[],
		$3::text[],
		$4::text[],
		$5::int[],
		$6::float8[],
		$7::int[],
		$8::int[],
		$9::bool[],
		$10::bool[],
		$11::int[],
		$12::text[],
		$13::timestamptz[],
		$14::timestamptz[]
	)
	ON CONFLICT (id) DO NOTHING
`

func (w *ResultWorker) bulkInsert(ctx context.Context, batch []*model.PracticeResult) error {
	c := pivot(batch)
	_, err := w.pool.Exec(ctx, insertResultsSQL,
		c.ids, c.devices, c.sessions, c.kinds, c.scores, c.rawGrades, c.correct, c.total,
		c.passed, c.auto, c.elapsed, c.responseIDs, c.started, c.graded,
	)
	return err
}

func (w *ResultWorker) persistSingle(ctx context.Context, r *model.PracticeResult) error {
	return w.bulkInsert(ctx, []*model.PracticeResult{r})
}
