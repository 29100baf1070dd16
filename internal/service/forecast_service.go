package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/demandcast/backend-go/internal/cache"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/forecast"
	"github.com/andresuchdata/demandcast/backend-go/internal/metrics"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository"
)

const (
	MinDaysAhead = 1
	MaxDaysAhead = 30
)

// WindowScaler normalizes model input and inverts model output.
type WindowScaler interface {
	Transform(ctx context.Context, w forecast.Window) (forecast.Window, error)
	InverseTransform(ctx context.Context, scaled float64) (float64, error)
}

// Predictor runs the sequence model on a normalized window.
type Predictor interface {
	Predict(ctx context.Context, normalized forecast.Window) (float64, error)
}

// ForecastDeps are the collaborators of ForecastService. Promotions and Cache are optional.
type ForecastDeps struct {
	Products   repository.ProductRepository
	Sales      repository.SalesRepository
	Promotions repository.PromotionRepository
	Forecasts  repository.ForecastRepository
	Cache      cache.ForecastCache
	Windows    *forecast.WindowBuilder
	Scaler     WindowScaler
	Predictor  Predictor
}

type ForecastOptions struct {
	HistoryDays      int
	DefaultDaysAhead int
	Now              func() time.Time
}

type ForecastService struct {
	deps ForecastDeps
	opts ForecastOptions
}

func NewForecastService(deps ForecastDeps, opts ForecastOptions) *ForecastService {
	if deps.Cache == nil {
		deps.Cache = cache.NewNoopForecastCache()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if deps.Windows == nil {
		deps.Windows = forecast.NewWindowBuilder(opts.Now)
	}
	if opts.HistoryDays < forecast.SequenceLength {
		opts.HistoryDays = forecast.SequenceLength
	}
	if opts.DefaultDaysAhead < MinDaysAhead || opts.DefaultDaysAhead > MaxDaysAhead {
		opts.DefaultDaysAhead = 7
	}
	return &ForecastService{deps: deps, opts: opts}
}

// Forecast predicts daily demand for one product and stores a row for each of
// the next DaysAhead days. Every row carries the same single-step estimate.
func (s *ForecastService) Forecast(ctx context.Context, req domain.ForecastRequest) (*domain.ForecastResult, error) {
	daysAhead := s.opts.DefaultDaysAhead
	if req.DaysAhead != nil {
		daysAhead = *req.DaysAhead
	}
	if req.ProductID <= 0 {
		return nil, s.fail(req.ProductID, daysAhead, fmt.Errorf("%w: product_id must be positive", domain.ErrValidation))
	}
	if daysAhead < MinDaysAhead || daysAhead > MaxDaysAhead {
		return nil, s.fail(req.ProductID, daysAhead, fmt.Errorf("%w: days_ahead must be between %d and %d",
			domain.ErrValidation, MinDaysAhead, MaxDaysAhead))
	}

	product, err := s.deps.Products.GetActiveProduct(ctx, req.ProductID)
	if err != nil {
		return nil, s.fail(req.ProductID, daysAhead, err)
	}

	today := forecast.CivilDay(s.opts.Now())
	perDay, err := s.predictPerDay(ctx, product, today)
	if err != nil {
		return nil, s.fail(req.ProductID, daysAhead, err)
	}

	rows := make([]domain.Forecast, 0, daysAhead)
	for i := 1; i <= daysAhead; i++ {
		rows = append(rows, domain.Forecast{
			ProductID:       product.ID,
			ProductName:     product.Name,
			PredictionDate:  today.AddDate(0, 0, i),
			PredictedDemand: float64(perDay),
		})
	}

	stored, err := s.deps.Forecasts.UpsertForecasts(ctx, rows)
	if err != nil {
		return nil, s.fail(req.ProductID, daysAhead, err)
	}
	metrics.ForecastRowsWritten.Add(float64(len(stored)))

	if err := s.deps.Cache.InvalidateProduct(ctx, product.ID); err != nil {
		log.Warn().Err(err).Int64("product_id", product.ID).Msg("forecast: cache invalidate failed")
	}

	metrics.RecordForecast("ok")
	log.Info().
		Int64("product_id", product.ID).
		Int("days_ahead", daysAhead).
		Int("per_day", perDay).
		Msg("forecast generated")

	return &domain.ForecastResult{
		Product:               product.Name,
		PredictedDemandPerDay: perDay,
		DaysAhead:             daysAhead,
		TotalPredicted:        perDay * daysAhead,
		Forecasts:             stored,
		Message:               "Forecast generated successfully.",
	}, nil
}

// predictPerDay builds and scales the window, runs the model, inverts the
// scaling and rounds the non-negative result up to whole units.
func (s *ForecastService) predictPerDay(ctx context.Context, product *domain.Product, today time.Time) (int, error) {
	from := today.AddDate(0, 0, -s.opts.HistoryDays)

	observations, err := s.deps.Sales.DailySales(ctx, product.ID, from, today)
	if err != nil {
		return 0, err
	}

	var promo forecast.PromoFlags
	if s.deps.Promotions != nil {
		promo, err = s.deps.Promotions.PromoDays(ctx, product.ID, from, today)
		if err != nil {
			return 0, err
		}
	}

	window := s.deps.Windows.Build(observations, product.Price, promo)

	normalized, err := s.deps.Scaler.Transform(ctx, window)
	if err != nil {
		return 0, err
	}

	scaled, err := s.deps.Predictor.Predict(ctx, normalized)
	if err != nil {
		return 0, err
	}

	units, err := s.deps.Scaler.InverseTransform(ctx, scaled)
	if err != nil {
		return 0, err
	}

	return RoundDemand(units), nil
}

// RoundDemand clamps to zero and rounds up; fractional units cannot be sold.
func RoundDemand(units float64) int {
	if math.IsNaN(units) {
		return 0
	}
	return int(math.Ceil(math.Max(units, 0)))
}

// fail maps a pipeline error to its surfaced kind and logs it.
func (s *ForecastService) fail(productID int64, daysAhead int, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrNotFound):
		metrics.RecordForecast("rejected")
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		metrics.RecordForecast("cancelled")
		log.Warn().Err(err).Int64("product_id", productID).Msg("forecast: request abandoned")
		return err
	case errors.Is(err, domain.ErrArtifactMissing):
		metrics.RecordForecast("unavailable")
		log.Warn().Err(err).Int64("product_id", productID).Msg("forecast: artifacts unavailable")
		return fmt.Errorf("%w: %w", domain.ErrServiceUnavailable, err)
	default:
		metrics.RecordForecast("error")
		log.Error().
			Stack().
			Err(pkgerrors.WithStack(err)).
			Int64("product_id", productID).
			Int("days_ahead", daysAhead).
			Msg("forecast: prediction failed")
		return fmt.Errorf("%w: %w", domain.ErrInternal, err)
	}
}

// ListForecasts returns stored forecasts, newest first.
func (s *ForecastService) ListForecasts(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, int, error) {
	if page, ok, err := s.deps.Cache.GetList(ctx, filter); err == nil && ok {
		return page.Items, page.Total, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("forecast: cache get list failed")
	}

	items, total, err := s.deps.Forecasts.ListForecasts(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if items == nil {
		items = make([]domain.Forecast, 0)
	}

	if err := s.deps.Cache.SetList(ctx, filter, &cache.ForecastPage{Items: items, Total: total}); err != nil {
		log.Warn().Err(err).Msg("forecast: cache set list failed")
	}

	return items, total, nil
}
