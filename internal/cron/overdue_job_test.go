package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
)

type fakeSweeper struct {
	ids   []uuid.UUID
	err   error
	calls []time.Time
}

func (f *fakeSweeper) SweepOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	f.calls = append(f.calls, now)
	return f.ids, f.err
}

func TestOverdueJobSweeps(t *testing.T) {
	sweeper := &fakeSweeper{ids: []uuid.UUID{uuid.New(), uuid.New()}}
	job, err := NewOverdueJob(OverdueJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "cron-test"}),
		Transactions: sweeper,
	})
	if err != nil {
		t.Fatalf("NewOverdueJob: %v", err)
	}
	if job.Name() != "overdue-transactions" {
		t.Fatalf("name = %s", job.Name())
	}
	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sweeper.calls) != 1 {
		t.Fatalf("sweeps = %d, want 1", len(sweeper.calls))
	}
}

func TestOverdueJobPropagatesError(t *testing.T) {
	sweeper := &fakeSweeper{err: errors.New("db down")}
	job, err := NewOverdueJob(OverdueJobParams{
		Logger:       logger.New(logger.Options{ServiceName: "cron-test"}),
		Transactions: sweeper,
	})
	if err != nil {
		t.Fatalf("NewOverdueJob: %v", err)
	}
	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error to propagate")
	}
}
