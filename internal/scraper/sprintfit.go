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

var (
	brTag     = regexp.MustCompile(`(?i)<br\s*/?>`)
	strongTag = regexp.MustCompile(`(?i)</?strong[^>]*>`)
)

// SprintFitConfig carries the retailer's page addresses. The listing URLs
// request one oversized page, so there is no pagination.
type SprintFitConfig struct {
	ProteinURL  string
	CreatineURL string
	MaxRuntime  time.Duration
}

func DefaultSprintFitConfig() SprintFitConfig {
	return SprintFitConfig{
		ProteinURL:  "https://www.sprintfit.co.nz/products/category/321/protein-powder?pgNmbr=9&pgSize=999999999",
		CreatineURL: "https://www.sprintfit.co.nz/products/category/315/creatine",
	}
}

// SprintFit scrapes a storefront whose cards stack brand, name and weight
// as <br>-separated lines inside one name block, with sale prices marked
// by a strike-through original next to the current figure.
type SprintFit struct {
	fetch    Fetcher
	flavours FlavourLister
	cfg      SprintFitConfig
	logger   *slog.Logger
}

func NewSprintFit(fetch Fetcher, flavours FlavourLister, cfg SprintFitConfig) *SprintFit {
	return &SprintFit{
		fetch:    fetch,
		flavours: flavours,
		cfg:      cfg,
		logger:   slog.Default().With("component", "sprintfit"),
	}
}

func (e *SprintFit) Retailer() models.Retailer { return models.RetailerSprintFit }

func (e *SprintFit) Scrape(ctx context.Context, category models.Category) (*models.ScrapeResult, error) {
	var listingURL string
	var withFlavours, creatineOnly bool
	switch category {
	case models.CategoryProtein:
		listingURL, withFlavours = e.cfg.ProteinURL, true
	case models.CategoryCreatine:
		listingURL, creatineOnly = e.cfg.CreatineURL, true
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

	cards := doc.Find(".product")
	e.logger.Info("product cards found", "count", cards.Length())

	cards.EachWithBreak(func(index int, card *goquery.Selection) bool {
		if bud.exceeded() {
			return false
		}

		product, err := e.extractCard(ctx, index, card, listingURL, withFlavours, creatineOnly)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			return true
		}
		if product != nil {
			result.Products = append(result.Products, product)
		}
		return true
	})

	return result, nil
}

// nameLines splits the card's name block into its visual lines:
// brand / product name / weight.
func nameLines(card *goquery.Selection) []string {
	raw, err := card.Find(".name").First().Html()
	if err != nil {
		return nil
	}

	raw = brTag.ReplaceAllString(raw, "\n")
	raw = strongTag.ReplaceAllString(raw, "")

	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// salePrice reads the current price, excluding the struck-through
// original when the card is on special:
//
//	<span class="price special"><span class="line-through">$59.95</span> $50.96</span>
func salePrice(card *goquery.Selection) string {
	priceEl := card.Find(".price-area").Find(".price").First()
	if priceEl.HasClass("special") {
		return ownText(priceEl)
	}
	return strings.TrimSpace(priceEl.Text())
}

func (e *SprintFit) extractCard(ctx context.Context, index int, card *goquery.Selection, listingURL string, withFlavours, creatineOnly bool) (*models.Product, error) {
	href, ok := card.Find("a").First().Attr("href")
	if !ok || href == "" {
		return nil, fmt.Errorf("%w, skipping #%d", ErrNoHref, index)
	}
	productURL, err := resolveURL(listingURL, href)
	if err != nil {
		return nil, fmt.Errorf("skipping #%d: %w", index, err)
	}

	// Cards render as brand line then product line; fewer than two lines
	// means no usable name.
	lines := nameLines(card)
	if len(lines) < 2 {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoName, index, productURL)
	}
	combined := strings.Join(lines, " ")

	// The creatine listing carries accessories too; keep creatine only.
	if creatineOnly && !creatineName.MatchString(combined) {
		return nil, nil
	}

	scrapedPrice := salePrice(card)
	if scrapedPrice == "" {
		return nil, fmt.Errorf("%w, skipping #%d url=%s", ErrNoPrice, index, productURL)
	}

	price, err := normalise.Price(lastDollarAmount(scrapedPrice))
	if err != nil {
		return nil, fmt.Errorf("skipping #%d url=%s: %w", index, productURL, err)
	}

	inStock := card.Find(".product-tag.tag-out-of-stock").Length() == 0

	brand := normalise.Capitalise(lines[0])
	name := normaliseName(lines[1])
	weight := optionalWeight(combined)

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
		Retailer:    models.RetailerSprintFit,
	}, nil
}
