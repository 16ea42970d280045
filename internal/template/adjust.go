package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Template workbook layout (1-based columns).
const (
	ColProductID   = 3  // C: nmID
	ColPrice       = 10 // J: price to submit
	ColRecommended = 14 // N: marketplace recommended price
)

// AdjustPrices writes referenceCol-1 into targetCol for every row whose
// reference cell is numeric, leaving other rows untouched, and returns the
// number of rows changed.
//
// The transform works on raw reference values. Running it twice against the
// same file decrements twice; acquire a fresh template before reapplying.
func AdjustPrices(path string, referenceCol, targetCol int) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return 0, nil
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, fmt.Errorf("read template rows: %w", err)
	}

	changed := 0
	for i := range rows {
		rowNum := i + 1
		refCell, err := excelize.CoordinatesToCellName(referenceCol, rowNum)
		if err != nil {
			return changed, err
		}
		raw, err := f.GetCellValue(sheet, refCell)
		if err != nil || strings.TrimSpace(raw) == "" {
			continue
		}
		value, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(raw), ",", "."), 64)
		if err != nil {
			continue
		}

		targetCell, err := excelize.CoordinatesToCellName(targetCol, rowNum)
		if err != nil {
			return changed, err
		}
		if err := f.SetCellValue(sheet, targetCell, value-1); err != nil {
			return changed, err
		}
		changed++
	}

	if err := f.Save(); err != nil {
		return changed, fmt.Errorf("save template: %w", err)
	}
	return changed, nil
}
