package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// Repository handles database operations for batch run tracking
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new run repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CreateRun inserts a new batch run record
func (r *Repository) CreateRun(ctx context.Context, run *ForecastRun) error {
	query := `
		INSERT INTO forecast_runs (
			status, days_ahead, total_products,
			processed_products, failed_products, started_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	return r.db.QueryRowContext(
		ctx, query,
		run.Status, run.DaysAhead, run.TotalProducts,
		run.ProcessedProducts, run.FailedProducts, run.StartedAt,
	).Scan(&run.ID)
}

// UpdateRun updates an existing batch run
func (r *Repository) UpdateRun(ctx context.Context, run *ForecastRun) error {
	query := `
		UPDATE forecast_runs
		SET status = $1, total_products = $2, processed_products = $3,
		    failed_products = $4, completed_at = $5, error_message = $6
		WHERE id = $7
	`

	_, err := r.db.ExecContext(
		ctx, query,
		run.Status, run.TotalProducts, run.ProcessedProducts,
		run.FailedProducts, run.CompletedAt, run.ErrorMessage, run.ID,
	)

	return err
}

// GetRun retrieves a batch run by ID
func (r *Repository) GetRun(ctx context.Context, id int64) (*ForecastRun, error) {
	query := `
		SELECT id, status, days_ahead, total_products, processed_products,
		       failed_products, started_at, completed_at, COALESCE(error_message, '')
		FROM forecast_runs
		WHERE id = $1
	`

	run := &ForecastRun{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&run.ID, &run.Status, &run.DaysAhead, &run.TotalProducts,
		&run.ProcessedProducts, &run.FailedProducts,
		&run.StartedAt, &run.CompletedAt, &run.ErrorMessage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("forecast run %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return run, nil
}
