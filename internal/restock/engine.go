package restock

import (
	"math"
	"sort"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

// SafetyBuffer is the fixed 20% multiplier applied to a demand shortfall.
const SafetyBuffer = 1.2

// Engine turns the latest forecast per product into restock recommendations.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate computes the recommendation for a single product.
func (e *Engine) Evaluate(p domain.Product, demand float64) domain.Recommendation {
	rec := domain.Recommendation{
		ProductID:       p.ID,
		ProductName:     p.Name,
		CurrentStock:    p.Quantity,
		PredictedDemand: demand,
		Urgency:         domain.UrgencyOK,
	}

	gap := demand - float64(p.Quantity)
	if gap <= 0 {
		return rec
	}

	rec.RecommendedRestock = int(math.Ceil(gap * SafetyBuffer))
	if p.IsLowStock() {
		rec.Urgency = domain.UrgencyCritical
	} else {
		rec.Urgency = domain.UrgencyWarning
	}
	return rec
}

// Recommend evaluates products in order and sorts by urgency rank.
// Products with equal urgency keep their input order. Products without a
// forecast in latest are treated as zero demand.
func (e *Engine) Recommend(products []domain.Product, latest map[int64]domain.Forecast) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, len(products))
	for _, p := range products {
		var demand float64
		if f, ok := latest[p.ID]; ok {
			demand = f.PredictedDemand
		}
		recs = append(recs, e.Evaluate(p, demand))
	}

	SortByUrgency(recs)
	return recs
}

// SortByUrgency stable-sorts critical, then warning, then ok.
func SortByUrgency(recs []domain.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Urgency.Rank() < recs[j].Urgency.Rank()
	})
}
