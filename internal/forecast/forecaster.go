package forecast

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/metrics"
)

// SequenceForecaster runs the loaded LSTM over a normalized window.
// It holds no per-call state.
type SequenceForecaster struct {
	artifacts *Artifacts
	sem       *semaphore.Weighted
}

// NewSequenceForecaster bounds concurrent forward passes to workers
// (runtime.NumCPU when workers < 1).
func NewSequenceForecaster(artifacts *Artifacts, workers int) *SequenceForecaster {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return &SequenceForecaster{
		artifacts: artifacts,
		sem:       semaphore.NewWeighted(int64(workers)),
	}
}

// Predict returns the scaled sales estimate for the day after the window.
func (f *SequenceForecaster) Predict(ctx context.Context, normalized Window) (value float64, err error) {
	model, _, err := f.artifacts.Get(ctx)
	if err != nil {
		return 0, err
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return 0, fmt.Errorf("%w: acquire inference slot: %w", domain.ErrInference, err)
	}
	defer f.sem.Release(1)

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			value = 0
			err = fmt.Errorf("%w: forward pass panicked: %v", domain.ErrInference, r)
		}
		metrics.ObserveInference(time.Since(start), err)
	}()

	value = model.Forward(normalized)
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: non-finite model output %v", domain.ErrInference, value)
	}
	return value, nil
}
