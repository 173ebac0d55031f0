package brands

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// brandPath matches brand detail links like /brand/foo or /brands/foo,
// not unrelated pages such as /brand-guidelines.
var brandPath = regexp.MustCompile(`(?i)/brands?/`)

// Fetcher is the slice of the HTML fetcher the collectors need.
type Fetcher interface {
	FetchHTML(ctx context.Context, url string) (string, error)
}

const (
	xplosivBrandsURL          = "https://xplosiv.nz/brands"
	chemistWarehouseBrandsURL = "https://www.chemistwarehouse.co.nz/v1/shop-online/1255/category"
)

// CollectXplosiv scrapes the Xplosiv brand listing page. Failures degrade
// to an empty list; a missing brand list only weakens brand detection, it
// never aborts a scrape.
func CollectXplosiv(ctx context.Context, f Fetcher) []string {
	html, err := f.FetchHTML(ctx, xplosivBrandsURL)
	if err != nil {
		slog.Warn("brand collection failed", "source", "xplosiv", "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("brand collection failed", "source", "xplosiv", "error", err)
		return nil
	}

	seen := make(map[string]bool)
	var names []string

	doc.Find(".ambrands-brand-item a.ambrands-inner").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if !brandPath.MatchString(href) {
			return
		}

		// The label span carries a product count child we don't want.
		label := s.Find(".ambrands-label").First().Clone()
		label.Find(".ambrands-count").Remove()

		name := strings.TrimSpace(label.Text())
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	})

	return Canonicalise(names)
}

// CollectChemistWarehouse scrapes the Chemist Warehouse sports-nutrition
// brand listing. Same degrade-to-empty failure contract as CollectXplosiv.
func CollectChemistWarehouse(ctx context.Context, f Fetcher) []string {
	html, err := f.FetchHTML(ctx, chemistWarehouseBrandsURL)
	if err != nil {
		slog.Warn("brand collection failed", "source", "chemistwarehouse", "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		slog.Warn("brand collection failed", "source", "chemistwarehouse", "error", err)
		return nil
	}

	var names []string
	doc.Find(".DataListCategory a.category-entry .category-name").Each(func(_ int, s *goquery.Selection) {
		if name := strings.TrimSpace(s.Text()); name != "" {
			names = append(names, name)
		}
	})

	return Canonicalise(names)
}
