package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// Worker forecasts every active product on a fixed-size pool.
type Worker struct {
	forecaster Forecaster
	products   ProductLister
	runs       RunStore
	config     BatchConfig
	now        func() time.Time
}

// NewWorker creates a batch worker. runs may be nil to skip run bookkeeping.
func NewWorker(forecaster Forecaster, products ProductLister, runs RunStore, config BatchConfig) *Worker {
	return &Worker{
		forecaster: forecaster,
		products:   products,
		runs:       runs,
		config:     config,
		now:        time.Now,
	}
}

// Run forecasts all active products. Individual product failures are recorded
// in the outcomes and do not stop the batch; the run fails only when every
// product failed or the context was cancelled.
func (w *Worker) Run(ctx context.Context) (*ForecastRun, []domain.BatchOutcome, error) {
	products, err := w.products.ListActiveProducts(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list active products: %w", err)
	}

	run := &ForecastRun{
		Status:        StatusPending,
		DaysAhead:     w.config.DaysAhead,
		TotalProducts: len(products),
		StartedAt:     w.now(),
	}
	if err := w.createRun(ctx, run); err != nil {
		return nil, nil, fmt.Errorf("failed to create forecast run: %w", err)
	}

	log.Info().Int64("run_id", run.ID).Int("products", len(products)).Msg("batch forecast started")

	run.Status = StatusProcessing
	w.updateRun(ctx, run)

	outcomes, runErr := w.processParallel(ctx, products)
	for _, o := range outcomes {
		if o.Err != nil {
			run.FailedProducts++
		} else {
			run.ProcessedProducts++
		}
	}

	now := w.now()
	run.CompletedAt = &now
	switch {
	case runErr != nil:
		run.Status = StatusFailed
		run.ErrorMessage = runErr.Error()
	case len(products) > 0 && run.ProcessedProducts == 0:
		run.Status = StatusFailed
		run.ErrorMessage = "every product failed"
		runErr = errors.New(run.ErrorMessage)
	default:
		run.Status = StatusCompleted
	}
	w.updateRun(ctx, run)

	log.Info().
		Int64("run_id", run.ID).
		Str("status", string(run.Status)).
		Int("processed", run.ProcessedProducts).
		Int("failed", run.FailedProducts).
		Msg("batch forecast finished")

	return run, outcomes, runErr
}

// processParallel processes products using a worker pool. Outcomes keep the
// product order.
func (w *Worker) processParallel(ctx context.Context, products []domain.Product) ([]domain.BatchOutcome, error) {
	workerCount := w.config.WorkerCount
	if workerCount < 1 {
		workerCount = 1
	}

	outcomes := make([]domain.BatchOutcome, len(products))
	jobChan := make(chan int, len(products))
	var wg sync.WaitGroup

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for idx := range jobChan {
				outcomes[idx] = w.processProduct(ctx, workerID, products[idx])
			}
		}(i)
	}

	var ctxErr error
	for i := range products {
		if ctxErr = ctx.Err(); ctxErr != nil {
			break
		}
		jobChan <- i
	}
	close(jobChan)
	wg.Wait()

	if ctxErr != nil {
		for i := range outcomes {
			if outcomes[i].ProductID == 0 {
				outcomes[i] = domain.BatchOutcome{ProductID: products[i].ID, Product: products[i].Name, Err: ctxErr}
			}
		}
	}

	return outcomes, ctxErr
}

func (w *Worker) processProduct(ctx context.Context, workerID int, p domain.Product) domain.BatchOutcome {
	outcome := domain.BatchOutcome{ProductID: p.ID, Product: p.Name}

	daysAhead := w.config.DaysAhead
	result, err := w.forecaster.Forecast(ctx, domain.ForecastRequest{ProductID: p.ID, DaysAhead: &daysAhead})
	if err != nil {
		log.Warn().Err(err).Int("worker", workerID).Int64("product_id", p.ID).Msg("batch forecast failed for product")
		outcome.Err = err
		return outcome
	}

	outcome.PerDay = result.PredictedDemandPerDay
	return outcome
}

func (w *Worker) createRun(ctx context.Context, run *ForecastRun) error {
	if w.runs == nil {
		return nil
	}
	return w.runs.CreateRun(ctx, run)
}

func (w *Worker) updateRun(ctx context.Context, run *ForecastRun) {
	if w.runs == nil {
		return
	}
	// bookkeeping must survive a cancelled batch context
	if err := w.runs.UpdateRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn().Err(err).Int64("run_id", run.ID).Msg("failed to update forecast run")
	}
}
