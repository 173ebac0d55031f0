package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/suppscan/suppscan/internal/brands"
	"github.com/suppscan/suppscan/internal/models"
	"github.com/suppscan/suppscan/internal/normalise"
)

// ListingPager opens browser-driven category listings whose pagination is
// JS-only. Implemented by browser.ListingPager in production and stubbed
// with fixture pages in tests.
type ListingPager interface {
	Open(ctx context.Context, url string) (ListingSession, error)
}

// ListingSession is one open listing. Content returns the current page's
// rendered HTML; Next advances to the following page and reports whether
// there was one. Callers must Close the session.
type ListingSession interface {
	Content(ctx context.Context) (string, error)
	Next(ctx context.Context) (bool, error)
	Close() error
}

var soldOutText = regexp.MustCompile(`(?i)sold out|out of stock|unavailable`)

// flavoursPending is the placeholder flavour set for listings whose variants
// require a per-product browser visit that this pipeline defers.
func flavoursPending() []string { return []string{"to be processed"} }

// ChemistWarehouseConfig carries the category addresses and pagination cap.
type ChemistWarehouseConfig struct {
	ProteinURL  string
	CreatineURL string
	MaxPages    int
	MaxRuntime  time.Duration
}

func DefaultChemistWarehouseConfig() ChemistWarehouseConfig {
	return ChemistWarehouseConfig{
		ProteinURL:  "https://www.chemistwarehouse.co.nz/shop-online/2332/protein-powder",
		CreatineURL: "https://www.chemistwarehouse.co.nz/shop-online/1255/sports-nutrition",
		MaxPages:    50,
	}
}

// ChemistWarehouse scrapes a pharmacy chain whose category pages paginate
// with a JS next button and re-render tiles in place. The whole category is
// walked in one browser session; tiles already seen on earlier pages are
// skipped, and a page contributing nothing new ends the walk.
type ChemistWarehouse struct {
	fetch  Fetcher
	pager  ListingPager
	cfg    ChemistWarehouseConfig
	logger *slog.Logger
}

func NewChemistWarehouse(fetch Fetcher, pager ListingPager, cfg ChemistWarehouseConfig) *ChemistWarehouse {
	return &ChemistWarehouse{
		fetch:  fetch,
		pager:  pager,
		cfg:    cfg,
		logger: slog.Default().With("component", "chemistwarehouse"),
	}
}

func (e *ChemistWarehouse) Retailer() models.Retailer { return models.RetailerChemistWarehouse }

func (e *ChemistWarehouse) Scrape(ctx context.Context, category models.Category) (*models.ScrapeResult, error) {
	var listingURL string
	var withFlavours, creatineOnly bool
	switch category {
	case models.CategoryProtein:
		listingURL, withFlavours = e.cfg.ProteinURL, true
	case models.CategoryCreatine:
		// The creatine range lives inside the general sports-nutrition
		// category, filtered by name.
		listingURL, creatineOnly = e.cfg.CreatineURL, true
	default:
		return nil, ErrCategoryUnsupported
	}

	result := &models.ScrapeResult{}
	bud := newBudget(e.cfg.MaxRuntime)

	known := brands.CollectChemistWarehouse(ctx, e.fetch)

	session, err := e.pager.Open(ctx, listingURL)
	if err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}
	defer session.Close()

	seen := make(map[string]bool)

	for page := 1; page <= e.cfg.MaxPages; page++ {
		if bud.exceeded() {
			break
		}

		html, err := session.Content(ctx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("read page %d: %v", page, err))
			break
		}

		added, errs, fresh := e.extractPage(html, listingURL, known, seen, withFlavours, creatineOnly, &bud)
		result.Products = append(result.Products, added...)
		result.Errors = append(result.Errors, errs...)
		e.logger.Info("page processed", "page", page, "new", fresh, "products", len(added), "errors", len(errs))

		// A page of entirely known tiles means the pager has looped.
		if fresh == 0 {
			break
		}

		more, err := session.Next(ctx)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("advance from page %d: %v", page, err))
			break
		}
		if !more {
			break
		}
	}

	return result, nil
}

func (e *ChemistWarehouse) extractPage(html, listingURL string, known []string, seen map[string]bool, withFlavours, creatineOnly bool, bud *budget) ([]*models.Product, []string, int) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, []string{fmt.Sprintf("parse listing page: %v", err)}, 0
	}

	var products []*models.Product
	var errs []string
	var fresh int

	tiles := doc.Find("a.product__container")
	tiles.EachWithBreak(func(index int, tile *goquery.Selection) bool {
		if bud.exceeded() {
			return false
		}

		href, ok := tile.Attr("href")
		if !ok || href == "" {
			errs = append(errs, fmt.Errorf("%w, skipping #%d", ErrNoHref, index).Error())
			return true
		}
		productURL, err := resolveURL(listingURL, href)
		if err != nil {
			errs = append(errs, fmt.Sprintf("skipping #%d: %v", index, err))
			return true
		}

		// Page progress is counted on unseen URLs before any category
		// filtering; a page of new-but-filtered tiles must still advance
		// the walk.
		if seen[productURL] {
			return true
		}
		seen[productURL] = true
		fresh++

		product, err := e.extractTile(index, tile, productURL, known, withFlavours, creatineOnly)
		if err != nil {
			errs = append(errs, err.Error())
			return true
		}
		if product != nil {
			products = append(products, product)
		}
		return true
	})

	return products, errs, fresh
}

// tilePrice reads the display price, falling back to the analytics
// attribute when the visible node is missing (a rendering race on slow
// pages).
func tilePrice(tile *goquery.Selection) string {
	if text := strings.TrimSpace(tile.Find(".product__price-current").First().Text()); text != "" {
		return text
	}
	if amount, ok := tile.Attr("data-analytics-price"); ok {
		return strings.TrimSpace(amount)
	}
	return ""
}

func (e *ChemistWarehouse) extractTile(index int, tile *goquery.Selection, productURL string, known []string, withFlavours, creatineOnly bool) (*models.Product, error) {
	scrapedName := strings.TrimSpace(tile.Find(".product__title").First().Text())
	if scrapedName == "" {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoName, index, productURL)
	}

	if creatineOnly && !creatineName.MatchString(scrapedName) {
		return nil, nil
	}

	scrapedPrice := tilePrice(tile)
	if scrapedPrice == "" {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoPrice, index, productURL)
	}

	price, err := normalise.Price(lastDollarAmount(scrapedPrice))
	if err != nil {
		return nil, fmt.Errorf("skipping #%d url=%s: %w", index, productURL, err)
	}

	inStock := tile.Find(".product-buy-button, button.add-to-cart").Length() > 0 &&
		!soldOutText.MatchString(tile.Text())

	brand, base, found := brands.Split(scrapedName, known)
	if !found {
		brand, base = "Chemist Warehouse", scrapedName
	}
	name := normaliseName(base)
	weight := optionalWeight(scrapedName)

	var flavourList []string
	if withFlavours {
		flavourList = flavoursPending()
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
		Retailer:    models.RetailerChemistWarehouse,
	}, nil
}
