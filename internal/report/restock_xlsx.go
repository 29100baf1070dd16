package report

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/demandcast/backend-go/internal/domain"
)

const restockSheet = "Restock"

var restockHeader = []interface{}{
	"Product ID", "Product", "Current Stock", "Predicted Demand", "Recommended Restock", "Urgency",
}

// WriteRestockXLSX renders recommendations as a single-sheet workbook in the
// order given.
func WriteRestockXLSX(w io.Writer, recs []domain.Recommendation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), restockSheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(restockSheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}

	if err := sw.SetRow("A1", restockHeader); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, r := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			r.ProductID,
			r.ProductName,
			r.CurrentStock,
			r.PredictedDemand,
			r.RecommendedRestock,
			r.Urgency.String(),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("failed to write row for product %d: %w", r.ProductID, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush sheet: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveRestockXLSX writes the workbook to path.
func SaveRestockXLSX(path string, recs []domain.Recommendation) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create xlsx file %s: %w", path, err)
	}

	if err := WriteRestockXLSX(out, recs); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
