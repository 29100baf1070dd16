package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) *forecastRepository {
	return &forecastRepository{db: db}
}

// UpsertForecasts writes all rows in one transaction. Re-running it for the
// same (product_id, prediction_date) overwrites the previous value.
func (r *forecastRepository) UpsertForecasts(ctx context.Context, forecasts []domain.Forecast) ([]domain.Forecast, error) {
	stored := make([]domain.Forecast, 0, len(forecasts))

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO predictions (
				product_id, prediction_date, predicted_demand, confidence, created_at
			) VALUES ($1, $2::date, $3, $4, NOW())
			ON CONFLICT (product_id, prediction_date)
			DO UPDATE SET
				predicted_demand = EXCLUDED.predicted_demand,
				confidence = EXCLUDED.confidence
			RETURNING id, product_id, prediction_date, predicted_demand, confidence, created_at
		`

		stmt, err := tx.PreparexContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, f := range forecasts {
			var row domain.Forecast
			err := stmt.QueryRowxContext(
				ctx,
				f.ProductID,
				f.PredictionDate.Format(dateLayout),
				f.PredictedDemand,
				f.Confidence,
			).StructScan(&row)
			if err != nil {
				return fmt.Errorf("failed to upsert forecast for %s: %w", f.PredictionDate.Format(dateLayout), err)
			}
			row.ProductName = f.ProductName
			stored = append(stored, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return stored, nil
}

func (r *forecastRepository) ListForecasts(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, int, error) {
	countQuery := `
		SELECT COUNT(*)
		FROM predictions p
		WHERE 1=1
	`

	query := `
		SELECT
			p.id, p.product_id, pr.name AS product_name, p.prediction_date,
			p.predicted_demand, p.confidence, p.created_at
		FROM predictions p
		JOIN products pr ON pr.id = p.product_id
		WHERE 1=1
	`

	var args []interface{}
	var conditions []string
	argCounter := 1

	if filter.ProductID != nil {
		conditions = append(conditions, fmt.Sprintf("p.product_id = $%d", argCounter))
		args = append(args, *filter.ProductID)
		argCounter++
	}

	if len(conditions) > 0 {
		whereClause := " AND " + strings.Join(conditions, " AND ")
		query += whereClause
		countQuery += whereClause
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("error counting forecasts: %w", err)
	}

	query += " ORDER BY p.created_at DESC, p.prediction_date ASC"

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argCounter, argCounter+1)
		args = append(args, filter.PageSize, (page-1)*filter.PageSize)
	}

	var forecasts []domain.Forecast
	if err := r.db.SelectContext(ctx, &forecasts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("error listing forecasts: %w", err)
	}

	return forecasts, total, nil
}

func (r *forecastRepository) LatestForecasts(ctx context.Context, productIDs []int64) (map[int64]domain.Forecast, error) {
	latest := make(map[int64]domain.Forecast, len(productIDs))
	if len(productIDs) == 0 {
		return latest, nil
	}

	query := `
		SELECT DISTINCT ON (p.product_id)
			p.id, p.product_id, pr.name AS product_name, p.prediction_date,
			p.predicted_demand, p.confidence, p.created_at
		FROM predictions p
		JOIN products pr ON pr.id = p.product_id
		WHERE p.product_id = ANY($1::bigint[])
		ORDER BY p.product_id, p.prediction_date DESC
	`

	var rows []domain.Forecast
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(productIDs)); err != nil {
		return nil, fmt.Errorf("error getting latest forecasts: %w", err)
	}

	for _, f := range rows {
		latest[f.ProductID] = f
	}
	return latest, nil
}
