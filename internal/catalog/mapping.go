package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Mapping table layout ("Баркоды.xlsx"): four metadata rows, then data.
// Column B holds the manufacturer article, column C the nmID, column G the
// barcode.
const (
	mappingDataStartRow = 5
	mappingArticleCol   = 1
	mappingProductCol   = 2
	mappingBarcodeCol   = 6

	// Anything this short cannot be a real barcode.
	minMappingBarcodeLen = 6
)

var ErrMappingNotFound = errors.New("mapping file not found")

var articleHeaderLabels = map[string]struct{}{
	"артикул":               {},
	"артикул производителя": {},
	"nan":                   {},
}

var barcodeHeaderLabels = map[string]struct{}{
	"баркод":           {},
	"barcode":          {},
	"баркод в системе": {},
	"nan":              {},
}

// FindMappingFile locates the barcode mapping workbook in dir by its
// conventional name.
func FindMappingFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.Contains(name, "Баркоды") && strings.HasSuffix(name, ".xlsx") {
			return filepath.Join(dir, name), nil
		}
	}
	return "", ErrMappingNotFound
}

// LoadMapping reads the mapping workbook into an Index. Rows with empty,
// header-label or unparseable cells are skipped; a structurally empty table
// yields an empty index, not an error.
func LoadMapping(path string) (*Index, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return NewIndex(), nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read mapping rows: %w", err)
	}

	idx := NewIndex()
	for i, row := range rows {
		if i < mappingDataStartRow-1 {
			continue
		}

		article := cellAt(row, mappingArticleCol)
		if article == "" {
			continue
		}
		if _, isHeader := articleHeaderLabels[strings.ToLower(article)]; isHeader {
			continue
		}

		barcode := cellAt(row, mappingBarcodeCol)
		if barcode == "" || len(barcode) < minMappingBarcodeLen {
			continue
		}
		if _, isHeader := barcodeHeaderLabels[strings.ToLower(barcode)]; isHeader {
			continue
		}

		productID, ok := parseProductID(cellAt(row, mappingProductCol))
		if !ok {
			continue
		}

		idx.Register(article, barcode, productID)
	}
	return idx, nil
}

func cellAt(row []string, col int) string {
	if col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// parseProductID accepts both "12345" and the "12345.0" spelling a
// spreadsheet export produces for numeric cells.
func parseProductID(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return id, id > 0
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	id := int64(v)
	if float64(id) != v || id <= 0 {
		return 0, false
	}
	return id, true
}
