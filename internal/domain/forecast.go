// backend-go/internal/domain/forecast.go
package domain

import "time"

// Product is the read-only snapshot of a catalog item the forecaster needs.
type Product struct {
	ID                int64   `json:"id" db:"id"`
	Name              string  `json:"name" db:"name"`
	SKU               *string `json:"sku,omitempty" db:"sku"`
	Price             float64 `json:"price" db:"price"`
	Quantity          int     `json:"quantity" db:"quantity"`
	LowStockThreshold int     `json:"low_stock_threshold" db:"low_stock_threshold"`
	IsActive          bool    `json:"is_active" db:"is_active"`
}

// IsLowStock reports whether the current quantity is at or below the threshold.
func (p Product) IsLowStock() bool {
	return p.Quantity <= p.LowStockThreshold
}

// SalesObservation is one day of aggregated sales for a product.
type SalesObservation struct {
	Date     time.Time `json:"date" db:"sale_date"`
	Quantity float64   `json:"total_qty" db:"total_qty"`
}

// Forecast is a stored demand prediction for a single product and day.
// At most one row exists per (ProductID, PredictionDate).
type Forecast struct {
	ID              int64     `json:"id" db:"id"`
	ProductID       int64     `json:"product" db:"product_id"`
	ProductName     string    `json:"product_name" db:"product_name"`
	PredictionDate  time.Time `json:"prediction_date" db:"prediction_date"`
	PredictedDemand float64   `json:"predicted_demand" db:"predicted_demand"`
	Confidence      *float64  `json:"confidence" db:"confidence"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

// ForecastRequest triggers a forecast for one product. A nil DaysAhead means
// the field was omitted and the configured default applies; an explicit value
// must be within [1, 30].
type ForecastRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	DaysAhead *int  `json:"days_ahead,omitempty" binding:"omitempty,min=1,max=30"`
}

// ForecastResult is returned after a forecast has been generated and stored.
type ForecastResult struct {
	Product               string     `json:"product"`
	PredictedDemandPerDay int        `json:"predicted_demand_per_day"`
	DaysAhead             int        `json:"days_ahead"`
	TotalPredicted        int        `json:"total_predicted"`
	Forecasts             []Forecast `json:"predictions"`
	Message               string     `json:"message"`
}

// ForecastFilter narrows stored forecast queries.
type ForecastFilter struct {
	ProductID *int64 `json:"product_id"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
}

// Recommendation is a restock suggestion derived from the latest forecast.
// It is computed on demand and never stored.
type Recommendation struct {
	ProductID          int64   `json:"product_id"`
	ProductName        string  `json:"product_name"`
	CurrentStock       int     `json:"current_stock"`
	PredictedDemand    float64 `json:"predicted_demand"`
	RecommendedRestock int     `json:"recommended_restock"`
	Urgency            Urgency `json:"urgency"`
}

// BatchOutcome reports the result of forecasting one product in a batch run.
type BatchOutcome struct {
	ProductID int64
	Product   string
	PerDay    int
	Err       error
}
