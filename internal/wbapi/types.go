package wbapi

// PriceChange sets the listed price for one marketplace product. Prices are
// whole currency units, not minor units.
type PriceChange struct {
	ProductID int64 `json:"nmID"`
	Price     int   `json:"price"`
	Discount  int   `json:"discount"`
}

// StockChange overwrites the absolute quantity for one SKU at a warehouse.
// Resubmitting the same change reasserts the same final state.
type StockChange struct {
	SKU    string `json:"sku"`
	Amount int    `json:"amount"`
}

type Warehouse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type priceUploadRequest struct {
	Data []PriceChange `json:"data"`
}

type stockUpdateRequest struct {
	Stocks []StockChange `json:"stocks"`
}

type errorResponse struct {
	ErrorText string `json:"errorText"`
}
