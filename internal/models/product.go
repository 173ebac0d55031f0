package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Currency codes accepted by the persistence layer.
type Currency string

const (
	CurrencyNZD Currency = "NZD"
	CurrencyAUD Currency = "AUD"
	CurrencyUSD Currency = "USD"
)

// Money is a price in minor units. AmountCents is always > 0 for an
// emitted product; records without a parseable price are dropped upstream.
type Money struct {
	AmountCents int      `json:"amountCents"`
	Currency    Currency `json:"currency"`
}

// Retailer is the closed set of supported NZ retail sites.
type Retailer string

const (
	RetailerNZProtein        Retailer = "NZProtein"
	RetailerXplosiv          Retailer = "Xplosiv"
	RetailerNoWhey           Retailer = "NoWhey"
	RetailerSprintFit        Retailer = "SprintFit"
	RetailerChemistWarehouse Retailer = "Chemist Warehouse"
)

// Retailers lists every supported retailer in the canonical run order.
func Retailers() []Retailer {
	return []Retailer{
		RetailerNZProtein,
		RetailerXplosiv,
		RetailerSprintFit,
		RetailerNoWhey,
		RetailerChemistWarehouse,
	}
}

// Category of supplement a scrape run targets.
type Category string

const (
	CategoryProtein  Category = "protein"
	CategoryCreatine Category = "creatine"
)

func ParseCategory(s string) (Category, error) {
	switch Category(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryProtein:
		return CategoryProtein, nil
	case CategoryCreatine:
		return CategoryCreatine, nil
	}
	return "", fmt.Errorf("unknown category: %q", s)
}

// Product is one normalised listing snapshot. A product is assembled once,
// fully, inside an extractor and is immutable afterwards.
//
// Optional fields carry an explicit absent-vs-empty contract:
//   - Flavours == nil means flavour lookup was not applicable (creatine);
//     an empty non-nil slice means lookup ran but found nothing.
//   - WeightGrams == nil means the weight was unparseable.
type Product struct {
	ID          string    `json:"id"`
	Brand       string    `json:"brand"`
	Name        string    `json:"name"`
	Flavours    []string  `json:"flavours,omitempty"`
	WeightGrams *int      `json:"weight_grams,omitempty"`
	Price       Money     `json:"price"`
	InStock     bool      `json:"inStock"`
	URL         string    `json:"url"`
	ScrapedAt   time.Time `json:"scrapedAt"`
	Retailer    Retailer  `json:"retailer"`
}

var idGaps = regexp.MustCompile(`\s+`)

// ProductID builds the deterministic composite key for a listing:
// lowercased, underscore-joined brand:name:weight, "na" when the weight is
// unknown. Not globally unique across retailers; collisions are tolerated
// downstream since rows are stored per retailer snapshot.
func ProductID(brand, name string, weightGrams *int) string {
	weight := "na"
	if weightGrams != nil {
		weight = fmt.Sprintf("%d", *weightGrams)
	}
	id := fmt.Sprintf("%s:%s:%s", brand, name, weight)
	return idGaps.ReplaceAllString(strings.ToLower(id), "_")
}

// Validate reports the invariant violations of an assembled product.
func (p *Product) Validate() []string {
	var problems []string

	if p.ID == "" {
		problems = append(problems, "id is required")
	}
	if p.Brand == "" {
		problems = append(problems, "brand is required")
	}
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if p.URL == "" {
		problems = append(problems, "url is required")
	}
	if p.Price.AmountCents <= 0 {
		problems = append(problems, "price must be positive")
	}
	if p.ScrapedAt.IsZero() {
		problems = append(problems, "scrapedAt is required")
	}

	return problems
}

// ScrapeResult is the output of one extractor run. Errors are per-item and
// non-fatal: a card that contributed an error never also appears in Products.
type ScrapeResult struct {
	Products []*Product `json:"products"`
	Errors   []string   `json:"errors"`
}
