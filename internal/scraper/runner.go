package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/suppscan/suppscan/internal/models"
)

// Sink persists one retailer's products. Implemented by the database layer
// in production; a run without persistence passes nil.
type Sink interface {
	SaveProducts(ctx context.Context, products []*models.Product, category models.Category) error
}

// Runner drives every registered extractor for one category, in the
// canonical retailer order. One retailer's failure — error or panic —
// never stops the others; it is recorded as that retailer's result.
type Runner struct {
	extractors map[models.Retailer]Extractor
	sink       Sink
	logger     *slog.Logger
}

func NewRunner(extractors []Extractor, sink Sink) *Runner {
	byRetailer := make(map[models.Retailer]Extractor, len(extractors))
	for _, ex := range extractors {
		byRetailer[ex.Retailer()] = ex
	}
	return &Runner{
		extractors: byRetailer,
		sink:       sink,
		logger:     slog.Default().With("component", "runner"),
	}
}

// Run scrapes the category across all registered retailers and returns the
// per-retailer results keyed by retailer name.
func (r *Runner) Run(ctx context.Context, category models.Category) map[models.Retailer]*models.ScrapeResult {
	results := make(map[models.Retailer]*models.ScrapeResult, len(r.extractors))

	for _, retailer := range models.Retailers() {
		ex, ok := r.extractors[retailer]
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			results[retailer] = &models.ScrapeResult{Errors: []string{err.Error()}}
			continue
		}

		r.logger.Info("scraping retailer", "retailer", retailer, "category", category)
		result := r.runOne(ctx, ex, category)
		result.Products = dedupe(result.Products)
		results[retailer] = result

		if r.sink != nil && len(result.Products) > 0 {
			if err := r.sink.SaveProducts(ctx, result.Products, category); err != nil {
				r.logger.Error("failed to save products", "retailer", retailer, "error", err)
				result.Errors = append(result.Errors, fmt.Sprintf("save: %v", err))
			}
		}

		r.logger.Info("retailer done",
			"retailer", retailer,
			"products", len(result.Products),
			"errors", len(result.Errors))
	}

	return results
}

// runOne isolates a single extractor: an error or a panic becomes a
// one-error result for that retailer.
func (r *Runner) runOne(ctx context.Context, ex Extractor, category models.Category) (result *models.ScrapeResult) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("extractor panicked", "retailer", ex.Retailer(), "panic", rec)
			result = &models.ScrapeResult{
				Errors: []string{fmt.Sprintf("extractor panicked: %v", rec)},
			}
		}
	}()

	result, err := ex.Scrape(ctx, category)
	if err != nil {
		return &models.ScrapeResult{Errors: []string{err.Error()}}
	}
	if result == nil {
		result = &models.ScrapeResult{}
	}
	return result
}

// dedupe drops repeated listings within one retailer's result, keyed by
// product ID plus URL so distinct listings sharing an ID both survive.
func dedupe(products []*models.Product) []*models.Product {
	if len(products) < 2 {
		return products
	}

	seen := make(map[string]bool, len(products))
	out := products[:0]
	for _, p := range products {
		key := p.ID + "|" + p.URL
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
	}
	return out
}
