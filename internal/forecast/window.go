package forecast

import (
	"time"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

const (
	// SequenceLength is the number of days the model looks back.
	SequenceLength = 30
	// FeatureCount is the width of each window row.
	FeatureCount = 5
)

// Feature column indexes within a window row.
const (
	FeatureSales = iota
	FeaturePrice
	FeaturePromo
	FeatureWeekday
	FeatureMonth
)

// Row is one day of model input: [sales, price, promo, weekday, month].
type Row [FeatureCount]float64

// Window is the fixed-length model input, oldest day first.
type Window [SequenceLength]Row

// PromoFlags maps a civil day to a promotion flag. Missing days mean no promotion.
type PromoFlags map[time.Time]int

// WindowBuilder turns sparse daily sales into a dense Window.
type WindowBuilder struct {
	now func() time.Time
}

// NewWindowBuilder returns a builder that uses now as the fallback end date
// when there is no sales history. A nil now defaults to time.Now.
func NewWindowBuilder(now func() time.Time) *WindowBuilder {
	if now == nil {
		now = time.Now
	}
	return &WindowBuilder{now: now}
}

// Build creates the 30-day window ending on the latest observed date.
// Gaps are filled with zero sales; price is the current price on every row.
func (b *WindowBuilder) Build(observations []domain.SalesObservation, currentPrice float64, promo PromoFlags) Window {
	sales := make(map[time.Time]float64, len(observations))
	var latest time.Time
	for _, obs := range observations {
		day := CivilDay(obs.Date)
		sales[day] = obs.Quantity
		if day.After(latest) {
			latest = day
		}
	}

	if len(sales) == 0 {
		latest = CivilDay(b.now())
	}

	start := latest.AddDate(0, 0, -(SequenceLength - 1))

	var w Window
	for i := range w {
		day := start.AddDate(0, 0, i)
		w[i] = Row{
			FeatureSales:   sales[day],
			FeaturePrice:   currentPrice,
			FeaturePromo:   promoFlag(promo, day),
			FeatureWeekday: float64(Weekday(day)),
			FeatureMonth:   float64(day.Month()),
		}
	}
	return w
}

func promoFlag(promo PromoFlags, day time.Time) float64 {
	if promo[day] != 0 {
		return 1
	}
	return 0
}

// CivilDay truncates t to midnight UTC of its calendar date.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Weekday returns 0 for Monday through 6 for Sunday.
func Weekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}
