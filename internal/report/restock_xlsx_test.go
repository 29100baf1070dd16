package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

func TestWriteRestockXLSX(t *testing.T) {
	recs := []domain.Recommendation{
		{ProductID: 1, ProductName: "Rice", CurrentStock: 5, PredictedDemand: 10, RecommendedRestock: 6, Urgency: domain.UrgencyCritical},
		{ProductID: 2, ProductName: "Oil", CurrentStock: 20, PredictedDemand: 10, RecommendedRestock: 0, Urgency: domain.UrgencyOK},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRestockXLSX(&buf, recs))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(restockSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Product", rows[0][1])
	assert.Equal(t, []string{"1", "Rice", "5", "10", "6", "critical"}, rows[1])
	assert.Equal(t, []string{"2", "Oil", "20", "10", "0", "ok"}, rows[2])
}

func TestSaveRestockXLSXEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "restock.xlsx")

	require.NoError(t, SaveRestockXLSX(path, nil))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(restockSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
