package worker

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stemsi/studyguide/internal/model"
)

func TestPivotKeepsNulls(t *testing.T) {
	score := 80
	grade := 79.6
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	batch := []*model.PracticeResult{
		{ID: uuid.New(), DeviceID: uuid.New(), Kind: "practice_exam", Score: &score, Correct: 4, Total: 5, Passed: true, StartedAt: now, GradedAt: now},
		{ID: uuid.New(), DeviceID: uuid.New(), Kind: "scenario", RawGrade: &grade, ResponseID: "resp_1", AutoSubmitted: true, ElapsedSeconds: 420},
		{ID: uuid.New(), DeviceID: uuid.New(), Kind: "scenario"},
	}

	c := pivot(batch)
	if len(c.ids) != 3 || len(c.graded) != 3 {
		t.Fatalf("column lengths differ from batch size")
	}
	if c.scores[0] == nil || *c.scores[0] != 80 {
		t.Fatalf("score[0] = %v, want 80", c.scores[0])
	}
	if c.scores[1] != nil || c.scores[2] != nil {
		t.Fatalf("missing scores were not encoded as NULL")
	}
	if c.responseIDs[0] != nil || c.responseIDs[1] == nil || *c.responseIDs[1] != "resp_1" {
		t.Fatalf("response ids = %v", c.responseIDs)
	}
	if !c.auto[1] || c.elapsed[1] != 420 {
		t.Fatalf("row 1 flags lost: auto=%v elapsed=%d", c.auto[1], c.elapsed[1])
	}
}

func TestIsPermanent(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{&pgconn.PgError{Code: "23505"}, true},
		{fmt.Errorf("insert: %w", &pgconn.PgError{Code: "22P02"}), true},
		{&pgconn.PgError{Code: "40001"}, false},
		{&pgconn.PgError{Code: "57P01"}, false},
		{&pgconn.PgError{}, false},
		{context.DeadlineExceeded, false},
		{errors.New("connection refused"), false},
	}
	for _, tc := range cases {
		if got := isPermanent(tc.err); got != tc.want {
			t.Errorf("isPermanent(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
