package scraper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suppscan/suppscan/internal/models"
)

type stubExtractor struct {
	retailer models.Retailer
	result   *models.ScrapeResult
	err      error
	panics   bool
}

func (s *stubExtractor) Retailer() models.Retailer { return s.retailer }

func (s *stubExtractor) Scrape(ctx context.Context, category models.Category) (*models.ScrapeResult, error) {
	if s.panics {
		panic("selector exploded")
	}
	return s.result, s.err
}

type recordingSink struct {
	saved map[models.Retailer]int
	fail  models.Retailer
}

func (s *recordingSink) SaveProducts(ctx context.Context, products []*models.Product, category models.Category) error {
	if s.saved == nil {
		s.saved = make(map[models.Retailer]int)
	}
	retailer := products[0].Retailer
	if retailer == s.fail {
		return errors.New("db down")
	}
	s.saved[retailer] += len(products)
	return nil
}

func makeProduct(retailer models.Retailer, id, url string) *models.Product {
	return &models.Product{
		ID:        id,
		Brand:     "Brand",
		Name:      "Name",
		Price:     models.Money{AmountCents: 100, Currency: models.CurrencyNZD},
		URL:       url,
		ScrapedAt: time.Now().UTC(),
		Retailer:  retailer,
	}
}

func TestRunner_IsolatesFailures(t *testing.T) {
	good := &stubExtractor{
		retailer: models.RetailerNZProtein,
		result: &models.ScrapeResult{
			Products: []*models.Product{makeProduct(models.RetailerNZProtein, "p1", "u1")},
		},
	}
	failing := &stubExtractor{
		retailer: models.RetailerXplosiv,
		err:      errors.New("fetch listing: HTTP 503"),
	}
	panicking := &stubExtractor{
		retailer: models.RetailerSprintFit,
		panics:   true,
	}

	sink := &recordingSink{}
	runner := NewRunner([]Extractor{good, failing, panicking}, sink)
	results := runner.Run(context.Background(), models.CategoryProtein)

	require.Len(t, results, 3)

	assert.Len(t, results[models.RetailerNZProtein].Products, 1)
	assert.Empty(t, results[models.RetailerNZProtein].Errors)

	require.Len(t, results[models.RetailerXplosiv].Errors, 1)
	assert.Contains(t, results[models.RetailerXplosiv].Errors[0], "HTTP 503")
	assert.Empty(t, results[models.RetailerXplosiv].Products)

	require.Len(t, results[models.RetailerSprintFit].Errors, 1)
	assert.Contains(t, results[models.RetailerSprintFit].Errors[0], "panicked")

	assert.Equal(t, 1, sink.saved[models.RetailerNZProtein])
}

func TestRunner_DeduplicatesWithinRetailer(t *testing.T) {
	ex := &stubExtractor{
		retailer: models.RetailerNoWhey,
		result: &models.ScrapeResult{
			Products: []*models.Product{
				makeProduct(models.RetailerNoWhey, "p1", "u1"),
				makeProduct(models.RetailerNoWhey, "p1", "u1"),
				makeProduct(models.RetailerNoWhey, "p1", "u2"), // same id, distinct listing
			},
		},
	}

	runner := NewRunner([]Extractor{ex}, nil)
	results := runner.Run(context.Background(), models.CategoryProtein)

	assert.Len(t, results[models.RetailerNoWhey].Products, 2)
}

func TestRunner_SinkFailureIsRecorded(t *testing.T) {
	ex := &stubExtractor{
		retailer: models.RetailerNZProtein,
		result: &models.ScrapeResult{
			Products: []*models.Product{makeProduct(models.RetailerNZProtein, "p1", "u1")},
		},
	}

	sink := &recordingSink{fail: models.RetailerNZProtein}
	runner := NewRunner([]Extractor{ex}, sink)
	results := runner.Run(context.Background(), models.CategoryProtein)

	result := results[models.RetailerNZProtein]
	// Products survive; the save failure is reported alongside them.
	assert.Len(t, result.Products, 1)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "save")
}

func TestRunner_CanonicalOrder(t *testing.T) {
	var order []models.Retailer
	sink := &orderSink{order: &order}

	extractors := []Extractor{
		&stubExtractor{
			retailer: models.RetailerChemistWarehouse,
			result:   &models.ScrapeResult{Products: []*models.Product{makeProduct(models.RetailerChemistWarehouse, "c", "u")}},
		},
		&stubExtractor{
			retailer: models.RetailerNZProtein,
			result:   &models.ScrapeResult{Products: []*models.Product{makeProduct(models.RetailerNZProtein, "n", "u")}},
		},
	}

	NewRunner(extractors, sink).Run(context.Background(), models.CategoryProtein)

	assert.Equal(t, []models.Retailer{models.RetailerNZProtein, models.RetailerChemistWarehouse}, order)
}

type orderSink struct {
	order *[]models.Retailer
}

func (s *orderSink) SaveProducts(ctx context.Context, products []*models.Product, category models.Category) error {
	*s.order = append(*s.order, products[0].Retailer)
	return nil
}
