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

var ownBrandXplosiv = regexp.MustCompile(`(?i)xplosiv`)

// XplosivConfig carries the retailer's page addresses and pagination cap.
type XplosivConfig struct {
	ProteinURL  string
	CreatineURL string
	MaxPages    int
	MaxRuntime  time.Duration
}

func DefaultXplosivConfig() XplosivConfig {
	return XplosivConfig{
		ProteinURL:  "https://xplosiv.nz/protein-powder.html",
		CreatineURL: "https://xplosiv.nz/creatine.html",
		MaxPages:    50,
	}
}

// Xplosiv scrapes a Magento storefront: numbered `?p=N` pagination until an
// empty page or a fetch failure, brand detection against the site's own
// brand directory, and flavour variants behind `super_attribute` selects.
type Xplosiv struct {
	fetch    Fetcher
	flavours FlavourLister
	cfg      XplosivConfig
	logger   *slog.Logger
}

func NewXplosiv(fetch Fetcher, flavours FlavourLister, cfg XplosivConfig) *Xplosiv {
	return &Xplosiv{
		fetch:    fetch,
		flavours: flavours,
		cfg:      cfg,
		logger:   slog.Default().With("component", "xplosiv"),
	}
}

func (e *Xplosiv) Retailer() models.Retailer { return models.RetailerXplosiv }

func (e *Xplosiv) Scrape(ctx context.Context, category models.Category) (*models.ScrapeResult, error) {
	var baseURL string
	var withFlavours bool
	switch category {
	case models.CategoryProtein:
		baseURL, withFlavours = e.cfg.ProteinURL, true
	case models.CategoryCreatine:
		baseURL, withFlavours = e.cfg.CreatineURL, false
	default:
		return nil, ErrCategoryUnsupported
	}

	result := &models.ScrapeResult{}
	bud := newBudget(e.cfg.MaxRuntime)

	known := e.knownBrands(ctx)

	for p := 1; p <= e.cfg.MaxPages; p++ {
		if bud.exceeded() {
			break
		}

		pageURL := baseURL
		if p > 1 {
			pageURL = fmt.Sprintf("%s?p=%d", baseURL, p)
		}

		html, err := e.fetch.FetchHTML(ctx, pageURL)
		if err != nil {
			// A failed page fetch ends pagination; what we have stands.
			e.logger.Warn("page fetch failed, stopping pagination", "page", p, "error", err)
			break
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("parse page %d: %v", p, err))
			break
		}

		cards := doc.Find("li.product-item")
		e.logger.Info("product cards found", "page", p, "count", cards.Length())
		if cards.Length() == 0 {
			break
		}

		cards.EachWithBreak(func(index int, card *goquery.Selection) bool {
			if bud.exceeded() {
				return false
			}

			product, err := e.extractCard(ctx, index, card, baseURL, known, withFlavours)
			if err != nil {
				result.Errors = append(result.Errors, err.Error())
				return true
			}
			result.Products = append(result.Products, product)
			return true
		})
	}

	return result, nil
}

// knownBrands loads the site brand directory, dropping the store's own
// label so house listings fall through to the default brand.
func (e *Xplosiv) knownBrands(ctx context.Context) []string {
	all := brands.CollectXplosiv(ctx, e.fetch)
	out := make([]string, 0, len(all))
	for _, b := range all {
		if !ownBrandXplosiv.MatchString(b) {
			out = append(out, b)
		}
	}
	return out
}

func (e *Xplosiv) extractCard(ctx context.Context, index int, card *goquery.Selection, baseURL string, known []string, withFlavours bool) (*models.Product, error) {
	href, ok := card.Find("a").First().Attr("href")
	if !ok || href == "" {
		return nil, fmt.Errorf("%w, skipping #%d", ErrNoHref, index)
	}
	productURL, err := resolveURL(baseURL, href)
	if err != nil {
		return nil, fmt.Errorf("skipping #%d: %w", index, err)
	}

	scrapedName := strings.TrimSpace(card.Find(".product-item-link").Text())
	if scrapedName == "" {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoName, index, productURL)
	}

	// Magento exposes the effective price as a data attribute:
	// <span data-price-type="finalPrice" data-price-amount="72.95">.
	scrapedPrice, _ := card.Find(`[data-role="priceBox"]`).First().
		Find(`[data-price-type="finalPrice"]`).Attr("data-price-amount")
	if scrapedPrice == "" {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoPrice, index, productURL)
	}

	price, err := normalise.Price(lastDollarAmount(scrapedPrice))
	if err != nil {
		return nil, fmt.Errorf("skipping #%d url=%s: %w", index, productURL, err)
	}

	inStock := card.Find("button.action.tocart, #product-addtocart-button").Length() > 0

	brand, base, found := brands.Split(scrapedName, known)
	if !found {
		brand, base = "Xplosiv", scrapedName
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
		Retailer:    models.RetailerXplosiv,
	}, nil
}
