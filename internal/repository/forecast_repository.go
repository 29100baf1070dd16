// backend-go/internal/repository/forecast_repository.go
package repository

import (
	"context"
	"time"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// ProductRepository reads product snapshots.
type ProductRepository interface {
	// GetActiveProduct returns domain.ErrNotFound for unknown or inactive products.
	GetActiveProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListActiveProducts(ctx context.Context) ([]domain.Product, error)
}

// SalesRepository is the sales-history provider.
type SalesRepository interface {
	// DailySales returns quantities aggregated per calendar day in [from, to].
	DailySales(ctx context.Context, productID int64, from, to time.Time) ([]domain.SalesObservation, error)
}

// PromotionRepository reports which days a product was on promotion.
type PromotionRepository interface {
	PromoDays(ctx context.Context, productID int64, from, to time.Time) (map[time.Time]int, error)
}

// ForecastRepository persists forecast rows keyed by (product_id, prediction_date).
type ForecastRepository interface {
	// UpsertForecasts writes every row or none and returns the stored rows.
	UpsertForecasts(ctx context.Context, forecasts []domain.Forecast) ([]domain.Forecast, error)
	ListForecasts(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, int, error)
	// LatestForecasts returns the forecast with the greatest prediction date per product.
	LatestForecasts(ctx context.Context, productIDs []int64) (map[int64]domain.Forecast, error)
}
