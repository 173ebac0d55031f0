// Package scraper implements the per-retailer extractors and the runner
// that orchestrates them. Each extractor encapsulates one retailer's DOM
// structure, pagination strategy and stock heuristics; all of them share
// the normalisation pipeline and the record-and-continue failure model.
package scraper

import (
	"context"
	"errors"
	"time"

	"github.com/suppscan/suppscan/internal/models"
)

var (
	// ErrNoPrice marks a card without a parseable price; the card is
	// skipped, never emitted with a null price.
	ErrNoPrice = errors.New("no price")
	// ErrNoHref marks a card without a product link.
	ErrNoHref = errors.New("missing href on product card")
	// ErrNoName marks a card without a product title; the card is skipped
	// rather than emitted with an empty name.
	ErrNoName = errors.New("no name")
	// ErrCategoryUnsupported is returned when an extractor has no source
	// configured for the requested category.
	ErrCategoryUnsupported = errors.New("category not supported by this extractor")
)

// Extractor is one retailer's scraping unit. Scrape never fails on a
// single bad card; per-item problems land in the result's error list and
// a page-level fetch failure just ends pagination early.
type Extractor interface {
	Retailer() models.Retailer
	Scrape(ctx context.Context, category models.Category) (*models.ScrapeResult, error)
}

// Fetcher is the static-HTML network primitive extractors consume.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

// FlavourLister enumerates a product page's flavour variants. Implemented
// by browser.FlavourCollector in production and stubbed in tests.
type FlavourLister interface {
	Collect(ctx context.Context, url string) ([]string, error)
}

// budget is the wall-clock early-exit used by test and smoke runs. A zero
// max disables it. Extractors consult it before each page and each card;
// exceeding the budget breaks the loop, keeping what was collected.
type budget struct {
	start time.Time
	max   time.Duration
}

func newBudget(max time.Duration) budget {
	return budget{start: time.Now(), max: max}
}

func (b budget) exceeded() bool {
	return b.max > 0 && time.Since(b.start) > b.max
}
