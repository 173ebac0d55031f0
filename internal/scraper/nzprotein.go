package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/suppscan/suppscan/internal/models"
	"github.com/suppscan/suppscan/internal/normalise"
)

var creatineName = regexp.MustCompile(`(?i)creatine|creapure|mono\s*hydrate`)

// NZProteinConfig carries the retailer's page addresses and selectors.
type NZProteinConfig struct {
	ProteinURL  string
	CreatineURL string
	MaxRuntime  time.Duration
}

func DefaultNZProteinConfig() NZProteinConfig {
	return NZProteinConfig{
		ProteinURL:  "https://www.nzprotein.co.nz/category/protein-powders",
		CreatineURL: "https://www.nzprotein.co.nz/category/supplements",
	}
}

// NZProtein scrapes the house-brand store. Protein listings are a single
// static page of cards with a browser flavour lookup per product; creatine
// products sit on a mixed supplements page and are found by heading scan.
type NZProtein struct {
	fetch    Fetcher
	flavours FlavourLister
	cfg      NZProteinConfig
	logger   *slog.Logger
}

func NewNZProtein(fetch Fetcher, flavours FlavourLister, cfg NZProteinConfig) *NZProtein {
	return &NZProtein{
		fetch:    fetch,
		flavours: flavours,
		cfg:      cfg,
		logger:   slog.Default().With("component", "nzprotein"),
	}
}

func (e *NZProtein) Retailer() models.Retailer { return models.RetailerNZProtein }

func (e *NZProtein) Scrape(ctx context.Context, category models.Category) (*models.ScrapeResult, error) {
	switch category {
	case models.CategoryProtein:
		return e.scrapeProtein(ctx)
	case models.CategoryCreatine:
		return e.scrapeCreatine(ctx)
	}
	return nil, ErrCategoryUnsupported
}

func (e *NZProtein) scrapeProtein(ctx context.Context) (*models.ScrapeResult, error) {
	result := &models.ScrapeResult{}
	bud := newBudget(e.cfg.MaxRuntime)

	html, err := e.fetch.FetchHTML(ctx, e.cfg.ProteinURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	cards := doc.Find(".product-wrap")
	e.logger.Info("product cards found", "count", cards.Length())

	cards.EachWithBreak(func(index int, card *goquery.Selection) bool {
		if bud.exceeded() {
			return false
		}

		product, err := e.extractProteinCard(ctx, index, card)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			return true
		}
		result.Products = append(result.Products, product)
		return true
	})

	return result, nil
}

func (e *NZProtein) extractProteinCard(ctx context.Context, index int, card *goquery.Selection) (*models.Product, error) {
	href, ok := card.Find("a").First().Attr("href")
	if !ok || href == "" {
		return nil, fmt.Errorf("%w, skipping #%d", ErrNoHref, index)
	}
	productURL, err := resolveURL(e.cfg.ProteinURL, href)
	if err != nil {
		return nil, fmt.Errorf("skipping #%d: %w", index, err)
	}

	scrapedName := strings.TrimSpace(card.Find(`h3[data-mh="product-title"]`).Text())
	if scrapedName == "" {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoName, index, productURL)
	}

	// The price div wraps a "(NZD)" span; only its direct text is the
	// price, e.g. <div class="product-price h3"> $42.00 <span>(NZD)</span></div>.
	scrapedPrice := ownText(card.Find(".product-price.h3").First())
	if scrapedPrice == "" {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoPrice, index, productURL)
	}

	price, err := normalise.Price(lastDollarAmount(scrapedPrice))
	if err != nil {
		return nil, fmt.Errorf("skipping #%d url=%s: %w", index, productURL, err)
	}

	inStock := card.Find(".btn-no-stock").Length() == 0
	name := normaliseName(scrapedName)
	weight := optionalWeight(scrapedName)
	flavours := collectFlavours(ctx, e.flavours, productURL)

	const brand = "NZProtein"
	return &models.Product{
		ID:          models.ProductID(brand, name, weight),
		Brand:       brand,
		Name:        name,
		Flavours:    flavours,
		WeightGrams: weight,
		Price:       price,
		InStock:     inStock,
		URL:         productURL,
		ScrapedAt:   time.Now().UTC(),
		Retailer:    models.RetailerNZProtein,
	}, nil
}

func (e *NZProtein) scrapeCreatine(ctx context.Context) (*models.ScrapeResult, error) {
	result := &models.ScrapeResult{}
	bud := newBudget(e.cfg.MaxRuntime)

	html, err := e.fetch.FetchHTML(ctx, e.cfg.CreatineURL)
	if err != nil {
		return nil, fmt.Errorf("fetch listing: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing: %w", err)
	}

	headings := doc.Find("h3").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return creatineName.MatchString(strings.TrimSpace(s.Text()))
	})
	e.logger.Info("creatine headings found", "count", headings.Length())

	headings.EachWithBreak(func(index int, heading *goquery.Selection) bool {
		if bud.exceeded() {
			return false
		}

		product, err := e.extractCreatineHeading(index, heading)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			return true
		}
		result.Products = append(result.Products, product)
		return true
	})

	return result, nil
}

func (e *NZProtein) extractCreatineHeading(index int, heading *goquery.Selection) (*models.Product, error) {
	scrapedName := strings.TrimSpace(heading.Text())
	if scrapedName == "" {
		return nil, fmt.Errorf("%w, skipping creatine #%d", ErrNoName, index)
	}

	// The supplements page mixes products; take the heading's enclosing
	// card, falling back to its parent when no known wrapper matches.
	card := heading.Closest("article, li, .productgrid--item, .productgrid__item, .ProductItem")
	if card.Length() == 0 {
		card = heading.Parent()
	}

	href, ok := card.Find(`a[href*="creatine"]`).First().Attr("href")
	if !ok {
		href, ok = heading.Find("a[href]").First().Attr("href")
	}
	if !ok {
		href, ok = card.Find("a[href]").First().Attr("href")
	}
	if !ok || href == "" {
		return nil, fmt.Errorf("no href for creatine #%d (title=%q)", index, scrapedName)
	}

	productURL, err := resolveURL(e.cfg.CreatineURL, href)
	if err != nil {
		return nil, fmt.Errorf("skipping creatine #%d: %w", index, err)
	}

	scrapedPrice := lastDollarAmount(card.Text())
	if !strings.ContainsRune(scrapedPrice, '$') {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoPrice, index, productURL)
	}

	price, err := normalise.Price(scrapedPrice)
	if err != nil {
		return nil, fmt.Errorf("skipping creatine #%d url=%s: %w", index, productURL, err)
	}

	name := normaliseName(scrapedName)
	weight := optionalWeight(scrapedName)

	const brand = "NZProtein"
	return &models.Product{
		ID:          models.ProductID(brand, name, weight),
		Brand:       brand,
		Name:        name,
		WeightGrams: weight,
		Price:       price,
		InStock:     true, // a visible price block is the only stock cue here
		URL:         productURL,
		ScrapedAt:   time.Now().UTC(),
		Retailer:    models.RetailerNZProtein,
	}, nil
}
