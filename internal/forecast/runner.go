package forecast

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/smukkama/solar-forecast/internal/model"
)

// Store is the persistence collaborator
type Store interface {
	FetchWindow(ctx context.Context, t Target) (Window, error)
	SaveForecast(ctx context.Context, procedure string, year, month, day, hour int, value float64) error
}

// ModelSource loads a trained model artifact by file name
type ModelSource interface {
	Load(file string) (model.Predictor, error)
}

// Publisher hands an energy bundle to downstream consumers
type Publisher interface {
	Publish(ctx context.Context, bundle Bundle) error
}

// Report summarizes one completed target run
type Report struct {
	Target    Target
	Forecasts int
	Gated     int
	Bundle    Bundle
}

// Runner performs one forecast run for a target
type Runner struct {
	store      Store
	models     ModelSource
	publisher  Publisher
	modelFiles map[Target]string
	logger     *slog.Logger
}

// NewRunner creates a runner. modelFiles maps each target to its artifact.
func NewRunner(store Store, models ModelSource, publisher Publisher, modelFiles map[Target]string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:      store,
		models:     models,
		publisher:  publisher,
		modelFiles: modelFiles,
		logger:     logger,
	}
}

// Run fetches the target's window, predicts it in one batch, persists every
// pending row and, for a publishing target, publishes the bundle once.
// Reaching a row with ground truth is a normal end of the walk.
func (r *Runner) Run(ctx context.Context, t Target) (*Report, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrUnknownTarget, t)
	}
	logger := r.logger.With("target", t.String())
	if id := runIDFrom(ctx); id != "" {
		logger = logger.With("run_id", id)
	}
	profile := t.Profile()

	window, err := r.store.FetchWindow(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s window: %w", ErrPersistence, t, err)
	}
	logger.Info("window fetched", "rows", len(window))

	x, err := Encode(window, t)
	if err != nil {
		return nil, err
	}

	var predictions []float64
	if x != nil {
		predictor, err := r.models.Load(r.modelFiles[t])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, t, err)
		}
		predictions, err = predictor.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrModelLoad, t, err)
		}
	}

	report := &Report{Target: t}
	var bundle Bundle
	if profile.Publishes {
		bundle = Bundle{}
		report.Bundle = bundle
	}

	emit := func(f Forecast) error {
		value := f.Value.InexactFloat64()
		if err := r.store.SaveForecast(ctx, profile.Procedure, f.Year, f.Month, f.Day, f.Hour, value); err != nil {
			return fmt.Errorf("%w: %s %04d-%02d-%02d %02d:00: %w",
				ErrPersistence, profile.Procedure, f.Year, f.Month, f.Day, f.Hour, err)
		}
		if bundle != nil {
			bundle[f.Key()] = f.BundleValue()
		}
		if f.Gated {
			report.Gated++
		}
		logger.Debug("forecast", "key", f.Key(), "value", f.BundleValue(),
			"date", fmt.Sprintf("%04d-%02d-%02d", f.Year, f.Month, f.Day), "gated", f.Gated)
		return nil
	}

	n, err := Walk(window, predictions, t, emit)
	report.Forecasts = n
	if err != nil {
		return report, err
	}

	if profile.Publishes {
		if err := r.publisher.Publish(ctx, bundle); err != nil {
			return report, fmt.Errorf("%w: %w", ErrPublication, err)
		}
		logger.Info("forecast published", "entries", len(bundle))
	}

	logger.Info("run complete", "forecasts", report.Forecasts, "gated", report.Gated)
	return report, nil
}
