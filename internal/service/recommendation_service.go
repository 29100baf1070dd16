package service

import (
	"context"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/metrics"
	"github.com/andresuchdata/demandcast/backend-go/internal/repository"
	"github.com/andresuchdata/demandcast/backend-go/internal/restock"
)

// RecommendationService computes restock recommendations on every call.
type RecommendationService struct {
	products  repository.ProductRepository
	forecasts repository.ForecastRepository
	engine    *restock.Engine
}

func NewRecommendationService(products repository.ProductRepository, forecasts repository.ForecastRepository, engine *restock.Engine) *RecommendationService {
	if engine == nil {
		engine = restock.NewEngine()
	}
	return &RecommendationService{products: products, forecasts: forecasts, engine: engine}
}

// Recommendations returns one entry per active product, critical first.
func (s *RecommendationService) Recommendations(ctx context.Context) ([]domain.Recommendation, error) {
	products, err := s.products.ListActiveProducts(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	latest, err := s.forecasts.LatestForecasts(ctx, ids)
	if err != nil {
		return nil, err
	}

	recs := s.engine.Recommend(products, latest)
	for _, r := range recs {
		metrics.Recommendations.WithLabelValues(r.Urgency.String()).Inc()
	}
	return recs, nil
}
