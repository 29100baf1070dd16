package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/restock"
)

func TestRecommendationsUseLatestForecast(t *testing.T) {
	products := newFakeProducts(
		domain.Product{ID: 1, Name: "plenty", Quantity: 50, LowStockThreshold: 10, IsActive: true},
		domain.Product{ID: 2, Name: "low", Quantity: 5, LowStockThreshold: 10, IsActive: true},
		domain.Product{ID: 3, Name: "mid", Quantity: 15, LowStockThreshold: 10, IsActive: true},
		domain.Product{ID: 4, Name: "inactive", Quantity: 0, LowStockThreshold: 10, IsActive: false},
	)
	forecasts := newMemForecasts()
	day := func(d int) time.Time { return time.Date(2024, 5, d, 0, 0, 0, 0, time.UTC) }
	_, err := forecasts.UpsertForecasts(context.Background(), []domain.Forecast{
		{ProductID: 1, PredictionDate: day(21), PredictedDemand: 20},
		{ProductID: 2, PredictionDate: day(21), PredictedDemand: 99},
		{ProductID: 2, PredictionDate: day(22), PredictedDemand: 20},
		{ProductID: 3, PredictionDate: day(22), PredictedDemand: 20},
		{ProductID: 4, PredictionDate: day(22), PredictedDemand: 20},
	})
	require.NoError(t, err)

	svc := NewRecommendationService(products, forecasts, restock.NewEngine())

	recs, err := svc.Recommendations(context.Background())
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, int64(2), recs[0].ProductID)
	assert.Equal(t, domain.UrgencyCritical, recs[0].Urgency)
	assert.Equal(t, 18, recs[0].RecommendedRestock)

	assert.Equal(t, int64(3), recs[1].ProductID)
	assert.Equal(t, domain.UrgencyWarning, recs[1].Urgency)
	assert.Equal(t, 6, recs[1].RecommendedRestock)

	assert.Equal(t, int64(1), recs[2].ProductID)
	assert.Equal(t, domain.UrgencyOK, recs[2].Urgency)
	assert.Zero(t, recs[2].RecommendedRestock)
}

func TestRecommendationsNoProducts(t *testing.T) {
	svc := NewRecommendationService(newFakeProducts(), newMemForecasts(), nil)

	recs, err := svc.Recommendations(context.Background())

	require.NoError(t, err)
	assert.Empty(t, recs)
}
