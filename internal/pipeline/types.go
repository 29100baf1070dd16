package pipeline

import (
	"context"
	"time"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// Forecaster produces and stores a forecast for one product.
type Forecaster interface {
	Forecast(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResult, error)
}

// ProductLister enumerates the products a batch run covers.
type ProductLister interface {
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
}

// RunStore persists batch run bookkeeping.
type RunStore interface {
	CreateRun(ctx context.Context, run *ForecastRun) error
	UpdateRun(ctx context.Context, run *ForecastRun) error
}

// BatchConfig holds configuration for a batch forecast run
type BatchConfig struct {
	WorkerCount int // Number of concurrent forecasts
	DaysAhead   int // Horizon written for every product
}

// DefaultBatchConfig returns sensible defaults
func DefaultBatchConfig() BatchConfig {
	return BatchConfig{
		WorkerCount: 4,
		DaysAhead:   7,
	}
}

// RunStatus represents the current state of a batch run
type RunStatus string

const (
	StatusPending    RunStatus = "pending"
	StatusProcessing RunStatus = "processing"
	StatusCompleted  RunStatus = "completed"
	StatusFailed     RunStatus = "failed"
)

// ForecastRun tracks a single batch execution over all active products
type ForecastRun struct {
	ID                int64
	Status            RunStatus
	DaysAhead         int
	TotalProducts     int
	ProcessedProducts int
	FailedProducts    int
	StartedAt         time.Time
	CompletedAt       *time.Time
	ErrorMessage      string
}
