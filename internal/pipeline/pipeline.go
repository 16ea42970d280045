// Package pipeline wires one full update run: load the identifier mapping,
// read brand price lists, reconcile prices against the acquired template
// and push the resulting change-sets to the marketplace.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"wb-updater/internal/catalog"
	"wb-updater/internal/config"
	"wb-updater/internal/logger"
	"wb-updater/internal/pricelist"
	"wb-updater/internal/reconcile"
	"wb-updater/internal/report"
	"wb-updater/internal/submit"
	"wb-updater/internal/template"
	"wb-updater/internal/wbapi"
)

// MarketplaceAPI is what the pipeline needs from the remote side;
// *wbapi.Client implements it.
type MarketplaceAPI interface {
	Warehouses(ctx context.Context) ([]wbapi.Warehouse, error)
	UploadPrices(ctx context.Context, changes []wbapi.PriceChange) error
	UpdateStocks(ctx context.Context, warehouseID int64, changes []wbapi.StockChange) error
}

type Deps struct {
	API MarketplaceAPI
	// Acquirer fetches a fresh recommended-price template. Nil disables
	// acquisition; any template already on disk is still used.
	Acquirer template.Acquirer
	Engine   *submit.Engine
	Log      logger.LoggerService
}

// candidate is a matched product awaiting price reconciliation.
type candidate struct {
	productID int64
	basePrice int
}

// Run executes one synchronous update pass. The returned error covers hard
// preconditions only; partial submission failures are reported through the
// report's OK flag.
func Run(ctx context.Context, cfg config.Config, deps Deps) (*report.Report, error) {
	log := deps.Log
	rep := report.New()

	// Credential/connectivity check before any file work.
	warehouses, err := deps.API.Warehouses(ctx)
	if err != nil {
		return nil, fmt.Errorf("warehouse check: %w", err)
	}
	log.Info(fmt.Sprintf("found %d warehouses", len(warehouses)))
	if !hasWarehouse(warehouses, cfg.WarehouseID) {
		log.Warn(fmt.Sprintf("target warehouse %d not in seller's warehouse list", cfg.WarehouseID))
	}

	idx := loadMapping(cfg, log, rep)

	candidates, stockChanges := collectChanges(cfg, idx, log, rep)
	if len(candidates) == 0 && len(stockChanges) == 0 {
		log.Warn("no matched products; nothing to submit")
		rep.Finish()
		writeReport(cfg, rep, log)
		return rep, nil
	}

	recommended := recommendedPrices(ctx, cfg, deps, log, rep)

	priceChanges := make([]wbapi.PriceChange, 0, len(candidates))
	for _, c := range candidates {
		priceChanges = append(priceChanges, wbapi.PriceChange{
			ProductID: c.productID,
			Price:     reconcile.Price(c.productID, c.basePrice, recommended),
			Discount:  0,
		})
	}

	log.Info(fmt.Sprintf("submitting: %d stock changes, %d price changes", len(stockChanges), len(priceChanges)))

	stockRes := deps.Engine.SubmitStocks(ctx, deps.API, cfg.WarehouseID, stockChanges)
	rep.AddSubmission("stocks", stockRes)

	priceRes := deps.Engine.SubmitPrices(ctx, deps.API, priceChanges)
	rep.AddSubmission("prices", priceRes)

	rep.Finish()
	writeReport(cfg, rep, log)

	if rep.OK() {
		log.Success("update finished")
	} else {
		log.Warn(fmt.Sprintf("update finished with failures: %d stock batches, %d price batches failed",
			stockRes.FailedBatches(), priceRes.FailedBatches()))
	}
	return rep, nil
}

func loadMapping(cfg config.Config, log logger.LoggerService, rep *report.Report) *catalog.Index {
	mappingPath, err := catalog.FindMappingFile(cfg.TargetDir)
	if err != nil {
		log.Warn("mapping file not found; no products will match")
		return catalog.NewIndex()
	}

	idx, err := catalog.LoadMapping(mappingPath)
	if err != nil {
		log.Error("failed to read mapping file", err)
		return catalog.NewIndex()
	}

	rep.MappingArticles = idx.Articles()
	rep.MappingBarcodes = idx.Barcodes()
	rep.MappingConflicts = idx.Conflicts
	log.Info(fmt.Sprintf("mapping loaded: %d articles, %d barcodes", idx.Articles(), idx.Barcodes()))
	if idx.Conflicts > 0 {
		// The mapping table has no uniqueness guarantee; last row wins.
		log.Warn(fmt.Sprintf("mapping has %d conflicting keys (last occurrence kept)", idx.Conflicts))
	}
	return idx
}

func collectChanges(cfg config.Config, idx *catalog.Index, log logger.LoggerService, rep *report.Report) ([]candidate, []wbapi.StockChange) {
	var candidates []candidate
	var stockChanges []wbapi.StockChange

	for _, brand := range cfg.Brands {
		path, err := pricelist.FindBrandFile(cfg.BaseDir, cfg.TargetDir, brand)
		if err != nil {
			log.Warn(fmt.Sprintf("%s: brand file not found", brand))
			continue
		}

		res, err := pricelist.Load(path)
		if err != nil {
			log.Error(fmt.Sprintf("%s: failed to load brand file", brand), err)
			continue
		}

		matched := 0
		for _, rec := range res.Records {
			if rec.Article == "" {
				continue
			}
			productID, ok := idx.ProductByArticle(rec.Article)
			if !ok {
				// No marketplace card for this article yet.
				continue
			}
			matched++

			candidates = append(candidates, candidate{
				productID: productID,
				basePrice: reconcile.BasePrice(rec.Price, cfg.PriceMultiplier),
			})

			// The mapping table's barcode is authoritative; the price
			// list's own barcode column is a fallback.
			barcode, ok := idx.BarcodeByArticle(rec.Article)
			if !ok {
				barcode = rec.Barcode
			}
			if barcode != "" {
				stockChanges = append(stockChanges, wbapi.StockChange{
					SKU:    barcode,
					Amount: rec.Quantity,
				})
			}
		}

		skipped := make(map[string]int, len(res.Skipped))
		for reason, count := range res.Skipped {
			skipped[reason.String()] = count
		}
		rep.AddBrand(brand, len(res.Records), matched, skipped)
		log.Info(fmt.Sprintf("%s: %d records, %d matched, %d rows skipped", brand, len(res.Records), matched, res.SkippedTotal()))
	}
	return candidates, stockChanges
}

// recommendedPrices acquires (or finds) the template, applies the
// column-shift adjustment and extracts the recommendation table. Every
// failure here degrades to base prices with a warning.
func recommendedPrices(ctx context.Context, cfg config.Config, deps Deps, log logger.LoggerService, rep *report.Report) map[int64]int {
	if !cfg.AutoAdjustPrices {
		log.Info("price adjustment disabled; using base prices")
		return nil
	}

	if cfg.AcquireTemplate && deps.Acquirer != nil {
		path, err := deps.Acquirer.Acquire(ctx)
		switch {
		case err == nil:
			log.Info(fmt.Sprintf("template acquired: %s", path))
		case errors.Is(err, template.ErrTemplateUnavailable):
			log.Warn("template acquisition failed; falling back to existing files")
		default:
			log.Error("template acquisition failed", err)
		}
	}

	files := template.FindTemplateFiles(cfg.TargetDir)
	if len(files) == 0 {
		log.Warn("no template found; prices will not be adjusted")
		return nil
	}
	newest := files[0]
	rep.TemplateFile = newest

	adjusted, err := template.AdjustPrices(newest, template.ColRecommended, template.ColPrice)
	if err != nil {
		log.Error("template adjustment failed", err)
	} else {
		rep.TemplateAdjusted = adjusted
		log.Info(fmt.Sprintf("template adjusted: %d rows", adjusted))
	}

	recommended, err := template.ExtractPrices(newest, template.ColProductID, template.ColRecommended)
	if err != nil {
		log.Error("failed to read recommended prices", err)
		return nil
	}
	rep.RecommendedPrices = len(recommended)
	log.Info(fmt.Sprintf("recommended prices loaded: %d", len(recommended)))
	return recommended
}

func writeReport(cfg config.Config, rep *report.Report, log logger.LoggerService) {
	if cfg.ReportPath == "" {
		return
	}
	if err := rep.WriteSQLite(cfg.ReportPath); err != nil {
		log.Error("failed to write run report", err)
	}
}

func hasWarehouse(warehouses []wbapi.Warehouse, id int64) bool {
	for _, w := range warehouses {
		if w.ID == id {
			return true
		}
	}
	return false
}
