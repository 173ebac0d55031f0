package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/suppscan/suppscan/internal/brands"
	"github.com/suppscan/suppscan/internal/models"
	"github.com/suppscan/suppscan/internal/normalise"
)

// NoWheyConfig carries the retailer's page addresses.
type NoWheyConfig struct {
	ProteinURL  string
	CreatineURL string
	MaxRuntime  time.Duration
}

func DefaultNoWheyConfig() NoWheyConfig {
	return NoWheyConfig{
		ProteinURL:  "https://www.nowheyofficial.co.nz/collections/protein",
		CreatineURL: "https://www.nowheyofficial.co.nz/collections/creatine",
	}
}

// NoWhey scrapes deal-style cards. The current price lives in one of
// three places depending on whether the card is discounted, so extraction
// walks a fallback chain; stock is signalled by the price wrap having any
// content at all.
type NoWhey struct {
	fetch    Fetcher
	flavours FlavourLister
	cfg      NoWheyConfig
	logger   *slog.Logger
}

func NewNoWhey(fetch Fetcher, flavours FlavourLister, cfg NoWheyConfig) *NoWhey {
	return &NoWhey{
		fetch:    fetch,
		flavours: flavours,
		cfg:      cfg,
		logger:   slog.Default().With("component", "nowhey"),
	}
}

func (e *NoWhey) Retailer() models.Retailer { return models.RetailerNoWhey }

func (e *NoWhey) Scrape(ctx context.Context, category models.Category) (*models.ScrapeResult, error) {
	var listingURL string
	var withFlavours bool
	switch category {
	case models.CategoryProtein:
		listingURL, withFlavours = e.cfg.ProteinURL, true
	case models.CategoryCreatine:
		listingURL, withFlavours = e.cfg.CreatineURL, false
	default:
		return nil, ErrCategoryUnsupported
	}

	result := &models.ScrapeResult{}
	bud := newBudget(e.cfg.MaxRuntime)

	html, err := e.fetch.FetchHTML(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	// No brand directory of its own; the Xplosiv directory covers the
	// same distributors and anything unmatched is house brand.
	known := brands.CollectXplosiv(ctx, e.fetch)

	cards := doc.Find(".deal_body")
	e.logger.Info("product cards found", "count", cards.Length())

	cards.EachWithBreak(func(index int, card *goquery.Selection) bool {
		if bud.exceeded() {
			return false
		}

		product, err := e.extractCard(ctx, index, card, listingURL, known, withFlavours)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			return true
		}
		result.Products = append(result.Products, product)
		return true
	})

	return result, nil
}

// dealPrice walks the card's price placements in priority order:
// discounted now-price, then the pre-discount wrap, then the plain
// price area.
func dealPrice(card *goquery.Selection) string {
	for _, sel := range []string{
		".deal_price_now .price",
		".deal_price_before_wrap .price",
		".price-area .price",
	} {
		if text := strings.TrimSpace(card.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

func (e *NoWhey) extractCard(ctx context.Context, index int, card *goquery.Selection, listingURL string, known []string, withFlavours bool) (*models.Product, error) {
	href, ok := card.Find("a").First().Attr("href")
	if !ok || href == "" {
		return nil, fmt.Errorf("%w, skipping #%d", ErrNoHref, index)
	}
	productURL, err := resolveURL(listingURL, href)
	if err != nil {
		return nil, fmt.Errorf("skipping #%d: %w", index, err)
	}

	scrapedName := strings.TrimSpace(card.Find(".deal_title").First().Text())
	if scrapedName == "" {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoName, index, productURL)
	}

	scrapedPrice := dealPrice(card)
	if scrapedPrice == "" {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoPrice, index, productURL)
	}

	price, err := normalise.Price(lastDollarAmount(scrapedPrice))
	if err != nil {
		return nil, fmt.Errorf("skipping #%d url=%s: %w", index, productURL, err)
	}

	// Sold-out cards render an empty price wrap rather than a badge.
	inStock := strings.TrimSpace(card.Find(".deal_price_wrap").Text()) != ""

	brand, base, found := brands.Split(scrapedName, known)
	if !found {
		brand, base = "NoWhey", scrapedName
	}
	name := normaliseName(base)
	weight := optionalWeight(scrapedName)

	var flavourList []string
	if withFlavours {
		flavourList = collectFlavours(ctx, e.flavours, productURL)
	}

	return &models.Product{
		ID:          models.ProductID(brand, name, weight),
		Brand:       brand,
		Name:        name,
		Flavours:    flavourList,
		WeightGrams: weight,
		Price:       price,
		InStock:     inStock,
		URL:         productURL,
		ScrapedAt:   time.Now().UTC(),
		Retailer:    models.RetailerNoWhey,
	}, nil
}
