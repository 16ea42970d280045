package pricelist

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
)

// Brand price lists are delimited text exported by hand from whatever tool
// the supplier uses that week. Encoding, delimiter and cell quoting all
// vary, so the loader detects both and skips rows it cannot make sense of,
// reporting why.

// Record is one usable line of a brand price list.
type Record struct {
	// Article is the manufacturer article with inner spaces removed
	// ("AG 01007" -> "AG01007"). Empty when the cell held a header label
	// or an implausible value.
	Article string
	// Barcode is set only when the source row carried an EAN-13-class
	// value; otherwise it is resolved later through the mapping index.
	Barcode  string
	Price    decimal.Decimal
	Quantity int
}

type SkipReason int

const (
	SkipTooFewCells SkipReason = iota
	SkipBadPrice
	SkipBadQuantity
)

func (r SkipReason) String() string {
	switch r {
	case SkipTooFewCells:
		return "too few cells"
	case SkipBadPrice:
		return "unparseable price"
	case SkipBadQuantity:
		return "unparseable quantity"
	default:
		return "unknown"
	}
}

// Result carries the parsed records plus per-reason skip counts. Skips are
// row-local and never abort the load.
type Result struct {
	Records []Record
	Skipped map[SkipReason]int
}

// Total rows considered minus the header.
func (r Result) SkippedTotal() int {
	n := 0
	for _, c := range r.Skipped {
		n += c
	}
	return n
}

const (
	minCells    = 5
	articleCol  = 1
	barcodeCol  = 2
	priceCol    = 3
	quantityCol = 4

	minArticleLen = 2
	maxArticleLen = 20
	minBarcodeLen = 13

	sniffSampleLen = 1000
)

var ErrBrandFileNotFound = errors.New("brand file not found")

var priceHeaderLabels = map[string]struct{}{
	"nan":   {},
	"цена":  {},
	"price": {},
}

var quantityHeaderLabels = map[string]struct{}{
	"nan":        {},
	"количество": {},
	"amount":     {},
	"остаток":    {},
}

var articleHeaderLabels = map[string]struct{}{
	"бренд":            {},
	"brand":            {},
	"артикул":          {},
	"артикул продавца": {},
	"название":         {},
	"name":             {},
	"nan":              {},
	"none":             {},
}

// FindBrandFile locates brand_<BRAND>.csv, preferring baseDir when it
// exists (the server layout) and falling back to targetDir.
func FindBrandFile(baseDir, targetDir, brand string) (string, error) {
	name := "brand_" + brand + ".csv"
	if baseDir != "" {
		p := filepath.Join(baseDir, name)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	p := filepath.Join(targetDir, name)
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return "", ErrBrandFileNotFound
}

// Load parses one brand price list.
func Load(path string) (Result, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}

	text, err := decodeText(raw)
	if err != nil {
		return Result{}, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = detectDelimiter(text)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := Result{Skipped: make(map[SkipReason]int)}
	rowNum := 0
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Malformed line; same treatment as a row with bad cells.
			result.Skipped[SkipTooFewCells]++
			continue
		}
		rowNum++
		if rowNum == 1 {
			continue
		}

		rec, reason, ok := parseRow(row)
		if !ok {
			result.Skipped[reason]++
			continue
		}
		result.Records = append(result.Records, rec)
	}
	return result, nil
}

func parseRow(row []string) (Record, SkipReason, bool) {
	if len(row) < minCells {
		return Record{}, SkipTooFewCells, false
	}

	price, ok := parsePrice(row[priceCol])
	if !ok {
		return Record{}, SkipBadPrice, false
	}
	qty, ok := parseQuantity(row[quantityCol])
	if !ok {
		return Record{}, SkipBadQuantity, false
	}

	rec := Record{Price: price, Quantity: qty}
	rec.Article = extractArticle(row[articleCol])
	rec.Barcode = extractBarcode(row[barcodeCol])
	return rec, 0, true
}

func cleanNumeric(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, `"`, "")
	return s
}

func parsePrice(cell string) (decimal.Decimal, bool) {
	s := cleanNumeric(cell)
	if s == "" {
		return decimal.Zero, false
	}
	if _, isHeader := priceHeaderLabels[strings.ToLower(s)]; isHeader {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

func parseQuantity(cell string) (int, bool) {
	s := cleanNumeric(cell)
	if s == "" {
		return 0, false
	}
	if _, isHeader := quantityHeaderLabels[strings.ToLower(s)]; isHeader {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() {
		return 0, false
	}
	return int(d.IntPart()), true
}

func extractArticle(cell string) string {
	s := strings.TrimSpace(cell)
	s = strings.ReplaceAll(s, `"`, "")
	s = strings.ReplaceAll(s, "'", "")
	if s == "" {
		return ""
	}
	if _, isHeader := articleHeaderLabels[strings.ToLower(s)]; isHeader {
		return ""
	}
	if len(s) < minArticleLen || len(s) > maxArticleLen {
		return ""
	}
	return strings.ReplaceAll(s, " ", "")
}

func extractBarcode(cell string) string {
	s := strings.TrimSpace(cell)
	for _, drop := range []string{`"`, "'", " ", "-"} {
		s = strings.ReplaceAll(s, drop, "")
	}
	if len(s) < minBarcodeLen {
		return ""
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return ""
		}
	}
	return s
}

// decodeText returns raw as UTF-8 text, reinterpreting it as Windows-1251
// when it does not already validate.
func decodeText(raw []byte) (string, error) {
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(decoded), nil
}

// detectDelimiter samples the head of the file and picks the most frequent
// of the three delimiters these exports use. Comma is the fallback.
func detectDelimiter(text string) rune {
	sample := text
	if len(sample) > sniffSampleLen {
		sample = sample[:sniffSampleLen]
	}
	best := ','
	bestCount := strings.Count(sample, ",")
	for _, cand := range []rune{';', '\t'} {
		if n := bytes.Count([]byte(sample), []byte(string(cand))); n > bestCount {
			best = cand
			bestCount = n
		}
	}
	return best
}
