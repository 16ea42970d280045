package submit

import "wb-updater/internal/wbapi"

// DedupPrices collapses repeated product IDs keeping the last-seen entry at
// the key's first position, so batch order stays deterministic. Returns the
// number of entries removed.
func DedupPrices(changes []wbapi.PriceChange) ([]wbapi.PriceChange, int) {
	out := make([]wbapi.PriceChange, 0, len(changes))
	at := make(map[int64]int, len(changes))
	for _, ch := range changes {
		if idx, seen := at[ch.ProductID]; seen {
			out[idx] = ch
			continue
		}
		at[ch.ProductID] = len(out)
		out = append(out, ch)
	}
	return out, len(changes) - len(out)
}

// DedupStocks is the same collapse keyed by SKU.
func DedupStocks(changes []wbapi.StockChange) ([]wbapi.StockChange, int) {
	out := make([]wbapi.StockChange, 0, len(changes))
	at := make(map[string]int, len(changes))
	for _, ch := range changes {
		if idx, seen := at[ch.SKU]; seen {
			out[idx] = ch
			continue
		}
		at[ch.SKU] = len(out)
		out = append(out, ch)
	}
	return out, len(changes) - len(out)
}

// Chunk splits items into size-limited batches preserving order.
// Concatenating the batches reconstructs the input.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
