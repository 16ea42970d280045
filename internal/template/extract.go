package template

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ExtractPrices reads (nmID, price) pairs from a template workbook into a
// map, skipping the header row and any row whose cells do not both convert.
// Cell values are the computed ones, not formulas. Prices are rounded to
// whole currency units.
func ExtractPrices(path string, idCol, priceCol int) (map[int64]int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return map[int64]int{}, nil
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read template rows: %w", err)
	}

	prices := make(map[int64]int)
	for i := range rows {
		if i == 0 {
			continue
		}
		rowNum := i + 1

		id, ok := numericCell(f, sheet, idCol, rowNum)
		if !ok {
			continue
		}
		price, ok := numericCell(f, sheet, priceCol, rowNum)
		if !ok {
			continue
		}

		nmID := int64(id)
		rounded := int(math.Round(price))
		if nmID <= 0 || rounded <= 0 {
			continue
		}
		prices[nmID] = rounded
	}
	return prices, nil
}

func numericCell(f *excelize.File, sheet string, col, row int) (float64, bool) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return 0, false
	}
	raw, err := f.GetCellValue(sheet, cell)
	if err != nil {
		return 0, false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
