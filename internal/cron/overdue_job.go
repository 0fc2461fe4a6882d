package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmarquezluna/stockroom-backend/pkg/logger"
)

// overdueSweeper is the slice of the transaction service this job needs.
type overdueSweeper interface {
	SweepOverdue(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// OverdueJobParams configure the overdue transaction sweep.
type OverdueJobParams struct {
	Logger       *logger.Logger
	Transactions overdueSweeper
}

// NewOverdueJob builds the job that flips past-due active checkouts to
// overdue. The sweep is idempotent, so a cycle that overlaps a crashed
// predecessor does no harm.
func NewOverdueJob(params OverdueJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Transactions == nil {
		return nil, fmt.Errorf("transaction service required")
	}
	return &overdueJob{
		logg:         params.Logger,
		transactions: params.Transactions,
		now:          time.Now,
	}, nil
}

type overdueJob struct {
	logg         *logger.Logger
	transactions overdueSweeper
	now          func() time.Time
}

func (j *overdueJob) Name() string { return "overdue-transactions" }

func (j *overdueJob) Run(ctx context.Context) error {
	ids, err := j.transactions.SweepOverdue(ctx, j.now().UTC())
	if err != nil {
		return fmt.Errorf("sweep overdue transactions: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"count": len(ids)})
	j.logg.Info(logCtx, "overdue sweep complete")
	return nil
}
