package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// TargetRunner runs a single target; *Runner implements it
type TargetRunner interface {
	Run(ctx context.Context, t Target) (*Report, error)
}

type runIDKey struct{}

func withRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

func runIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}

// Driver runs every target in the fixed order, one after another
type Driver struct {
	runner  TargetRunner
	targets []Target
	logger  *slog.Logger
}

// NewDriver creates a driver for Targets()
func NewDriver(runner TargetRunner, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		runner:  runner,
		targets: Targets(),
		logger:  logger,
	}
}

// Run executes all targets. The first failing target aborts the pipeline.
// The returned flag is the success of the last target run. The run id is
// passed to the runner through ctx so its logs can be correlated.
func (d *Driver) Run(ctx context.Context) (bool, error) {
	runID := uuid.NewString()
	ctx = withRunID(ctx, runID)
	logger := d.logger.With("run_id", runID)
	start := time.Now()

	logger.Info("forecast pipeline started", "targets", len(d.targets))

	ok := false
	for _, t := range d.targets {
		if _, err := d.runner.Run(ctx, t); err != nil {
			logger.Error("forecast run failed", "target", t.String(), "error", err)
			return false, fmt.Errorf("%s run: %w", t, err)
		}
		ok = true
	}

	logger.Info("forecast pipeline finished", "duration", time.Since(start).String())
	return ok, nil
}
