package catalog

// Index maps the identifiers found in supplier price lists onto marketplace
// product IDs (nmID) and stock SKUs (barcodes). It is built once per run
// from the mapping table and read-only afterwards.
type Index struct {
	articleToProduct map[string]int64
	barcodeToProduct map[string]int64
	articleToBarcode map[string]string

	// Conflicts counts keys that were re-registered with a different
	// product ID. The mapping table carries no uniqueness guarantee, so
	// the last row wins, but callers should surface the count.
	Conflicts int
}

func NewIndex() *Index {
	return &Index{
		articleToProduct: make(map[string]int64),
		barcodeToProduct: make(map[string]int64),
		articleToBarcode: make(map[string]string),
	}
}

// Register adds one mapping-table row under every article variant.
func (x *Index) Register(article, barcode string, productID int64) {
	for _, key := range ArticleVariants(article) {
		if prev, ok := x.articleToProduct[key]; ok && prev != productID {
			x.Conflicts++
		}
		x.articleToProduct[key] = productID
		x.articleToBarcode[key] = barcode
	}
	if barcode != "" {
		if prev, ok := x.barcodeToProduct[barcode]; ok && prev != productID {
			x.Conflicts++
		}
		x.barcodeToProduct[barcode] = productID
	}
}

// ProductByArticle resolves an article code, trying the exact spelling
// first and the normalized form last.
func (x *Index) ProductByArticle(article string) (int64, bool) {
	for _, key := range ArticleVariants(article) {
		if id, ok := x.articleToProduct[key]; ok {
			return id, true
		}
	}
	return 0, false
}

func (x *Index) ProductByBarcode(barcode string) (int64, bool) {
	id, ok := x.barcodeToProduct[barcode]
	return id, ok
}

// BarcodeByArticle returns the stock SKU recorded for an article code.
func (x *Index) BarcodeByArticle(article string) (string, bool) {
	for _, key := range ArticleVariants(article) {
		if bc, ok := x.articleToBarcode[key]; ok && bc != "" {
			return bc, true
		}
	}
	return "", false
}

// Articles reports how many distinct article keys are registered.
func (x *Index) Articles() int {
	return len(x.articleToProduct)
}

// Barcodes reports how many distinct barcodes are registered.
func (x *Index) Barcodes() int {
	return len(x.barcodeToProduct)
}
