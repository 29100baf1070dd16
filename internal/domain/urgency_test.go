package domain

import (
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUrgencyRankOrder(t *testing.T) {
	assert.Less(t, UrgencyCritical.Rank(), UrgencyWarning.Rank())
	assert.Less(t, UrgencyWarning.Rank(), UrgencyOK.Rank())
}

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		in     string
		want   Urgency
		wantOK bool
	}{
		{"critical", UrgencyCritical, true},
		{" Warning ", UrgencyWarning, true},
		{"OK", UrgencyOK, true},
		{"urgent", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseUrgency(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestUrgencyJSON(t *testing.T) {
	rec := Recommendation{ProductID: 1, Urgency: UrgencyWarning}

	b, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"urgency":"warning"`)

	var back Recommendation
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, UrgencyWarning, back.Urgency)

	_, err = json.Marshal(Recommendation{Urgency: Urgency(7)})
	assert.Error(t, err)
	assert.Equal(t, "unknown", Urgency(7).String())
}

func TestProductIsLowStock(t *testing.T) {
	assert.True(t, Product{Quantity: 10, LowStockThreshold: 10}.IsLowStock())
	assert.False(t, Product{Quantity: 11, LowStockThreshold: 10}.IsLowStock())
}
