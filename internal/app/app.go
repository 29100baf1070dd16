// Package app wires repositories, the forecasting core and services from config.
package app

import (
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/cache"
	"github.com/andresuchdata/demandcast/backend-go/internal/config"
	"github.com/andresuchdata/demandcast/backend-go/internal/forecast"
	"github.com/andresuchdata/demandcast/backend-go/internal/pipeline"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/demandcast/backend-go/internal/restock"
	"github.com/andresuchdata/demandcast/backend-go/internal/service"
)

type App struct {
	Products        repository.ProductRepository
	Artifacts       *forecast.Artifacts
	Forecasts       *service.ForecastService
	Recommendations *service.RecommendationService
	Runs            *pipeline.Repository
}

// New builds the service graph on top of db. A redis failure falls back to the
// noop cache.
func New(cfg *config.Config, db *postgres.DB) *App {
	forecastCache, err := cache.NewForecastCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("forecast cache unavailable, continuing without cache")
		forecastCache = cache.NewNoopForecastCache()
	}

	products := postgres.NewProductRepository(db)
	forecasts := postgres.NewForecastRepository(db)

	artifacts := forecast.NewArtifacts(forecast.ArtifactPaths{
		ModelPath:  cfg.Forecast.ModelPath,
		ScalerPath: cfg.Forecast.ScalerPath,
	}, nil)

	forecastService := service.NewForecastService(service.ForecastDeps{
		Products:   products,
		Sales:      postgres.NewSalesRepository(db),
		Promotions: postgres.NewPromotionRepository(db),
		Forecasts:  forecasts,
		Cache:      forecastCache,
		Scaler:     forecast.NewScalerAdapter(artifacts),
		Predictor:  forecast.NewSequenceForecaster(artifacts, cfg.Forecast.InferenceWorkers),
	}, service.ForecastOptions{
		HistoryDays:      cfg.Forecast.HistoryDays,
		DefaultDaysAhead: cfg.Forecast.DefaultDaysAhead,
	})

	recommendationService := service.NewRecommendationService(
		products, forecasts, restock.NewEngine(),
	)

	return &App{
		Products:        products,
		Artifacts:       artifacts,
		Forecasts:       forecastService,
		Recommendations: recommendationService,
		Runs:            pipeline.NewRepository(db.DB.DB),
	}
}

// BatchWorker returns a worker that forecasts every active product.
func (a *App) BatchWorker(cfg *config.Config, daysAhead int) *pipeline.Worker {
	batch := pipeline.DefaultBatchConfig()
	if cfg.Forecast.BatchWorkers > 0 {
		batch.WorkerCount = cfg.Forecast.BatchWorkers
	}
	if daysAhead > 0 {
		batch.DaysAhead = daysAhead
	} else if cfg.Forecast.DefaultDaysAhead > 0 {
		batch.DaysAhead = cfg.Forecast.DefaultDaysAhead
	}
	return pipeline.NewWorker(a.Forecasts, a.Products, a.Runs, batch)
}
