package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/andresuchdata/demandcast/backend-go/internal/cache"
	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
	"github.com/andresuchdata/demandcast/backend-go/internal/forecast"
)

type fakeProducts struct {
	products map[int64]domain.Product
	order    []int64
}

func newFakeProducts(ps ...domain.Product) *fakeProducts {
	f := &fakeProducts{products: map[int64]domain.Product{}}
	for _, p := range ps {
		f.products[p.ID] = p
		f.order = append(f.order, p.ID)
	}
	return f
}

func (f *fakeProducts) GetActiveProduct(ctx context.Context, id int64) (*domain.Product, error) {
	p, ok := f.products[id]
	if !ok || !p.IsActive {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (f *fakeProducts) ListActiveProducts(ctx context.Context) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range f.order {
		if p := f.products[id]; p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeSales struct {
	obs      []domain.SalesObservation
	gotFrom  time.Time
	gotTo    time.Time
	failWith error
}

func (f *fakeSales) DailySales(ctx context.Context, productID int64, from, to time.Time) ([]domain.SalesObservation, error) {
	f.gotFrom, f.gotTo = from, to
	return f.obs, f.failWith
}

type fakePromotions struct {
	days map[time.Time]int
}

func (f *fakePromotions) PromoDays(ctx context.Context, productID int64, from, to time.Time) (map[time.Time]int, error) {
	return f.days, nil
}

type forecastKey struct {
	productID int64
	date      time.Time
}

// memForecasts mimics the unique (product_id, prediction_date) upsert.
type memForecasts struct {
	mu       sync.Mutex
	rows     map[forecastKey]domain.Forecast
	nextID   int64
	failWith error
}

func newMemForecasts() *memForecasts {
	return &memForecasts{rows: map[forecastKey]domain.Forecast{}}
}

func (m *memForecasts) UpsertForecasts(ctx context.Context, forecasts []domain.Forecast) ([]domain.Forecast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}

	stored := make([]domain.Forecast, 0, len(forecasts))
	for _, f := range forecasts {
		key := forecastKey{f.ProductID, f.PredictionDate}
		if existing, ok := m.rows[key]; ok {
			existing.PredictedDemand = f.PredictedDemand
			m.rows[key] = existing
			stored = append(stored, existing)
			continue
		}
		m.nextID++
		f.ID = m.nextID
		m.rows[key] = f
		stored = append(stored, f)
	}
	return stored, nil
}

func (m *memForecasts) ListForecasts(ctx context.Context, filter domain.ForecastFilter) ([]domain.Forecast, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.Forecast
	for _, f := range m.rows {
		if filter.ProductID != nil && f.ProductID != *filter.ProductID {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, len(out), nil
}

func (m *memForecasts) LatestForecasts(ctx context.Context, productIDs []int64) (map[int64]domain.Forecast, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	latest := map[int64]domain.Forecast{}
	for _, f := range m.rows {
		if cur, ok := latest[f.ProductID]; !ok || f.PredictionDate.After(cur.PredictionDate) {
			latest[f.ProductID] = f
		}
	}
	return latest, nil
}

// stubScaler applies the identity scaler and can be made to fail.
type stubScaler struct {
	failWith error
	seen     forecast.Window
}

func (s *stubScaler) Transform(ctx context.Context, w forecast.Window) (forecast.Window, error) {
	s.seen = w
	return w, s.failWith
}

func (s *stubScaler) InverseTransform(ctx context.Context, scaled float64) (float64, error) {
	return scaled, s.failWith
}

type stubPredictor struct {
	value    float64
	failWith error
	calls    int
}

func (p *stubPredictor) Predict(ctx context.Context, normalized forecast.Window) (float64, error) {
	p.calls++
	return p.value, p.failWith
}

type recordingCache struct {
	pages       map[string]*cache.ForecastPage
	invalidated []int64
}

func newRecordingCache() *recordingCache {
	return &recordingCache{pages: map[string]*cache.ForecastPage{}}
}

func cacheKey(filter domain.ForecastFilter) string {
	if filter.ProductID == nil {
		return "all"
	}
	return strconv.FormatInt(*filter.ProductID, 10)
}

func (c *recordingCache) GetList(ctx context.Context, filter domain.ForecastFilter) (*cache.ForecastPage, bool, error) {
	p, ok := c.pages[cacheKey(filter)]
	return p, ok, nil
}

func (c *recordingCache) SetList(ctx context.Context, filter domain.ForecastFilter, page *cache.ForecastPage) error {
	c.pages[cacheKey(filter)] = page
	return nil
}

func (c *recordingCache) InvalidateProduct(ctx context.Context, productID int64) error {
	c.invalidated = append(c.invalidated, productID)
	c.pages = map[string]*cache.ForecastPage{}
	return nil
}

func (c *recordingCache) InvalidateAll(ctx context.Context) error {
	c.pages = map[string]*cache.ForecastPage{}
	return nil
}
