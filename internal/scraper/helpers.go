package scraper

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/suppscan/suppscan/internal/normalise"
)

// dollarAmounts finds "$12.34" / "NZ$1,299" style substrings.
var dollarAmounts = regexp.MustCompile(`(?:NZ\$|\$)\s*\d[\d,]*(?:\.\d{1,2})?`)

// lastDollarAmount picks the final dollar figure out of a price string.
// Ranges like "$34.00 - $40.00" resolve to the upper bound and sale markup
// that leaked both prices resolves to the current one. Falls back to the
// input when no dollar figure is present (some sources yield a bare
// numeral attribute).
func lastDollarAmount(s string) string {
	matches := dollarAmounts.FindAllString(s, -1)
	if len(matches) == 0 {
		return s
	}
	return matches[len(matches)-1]
}

// resolveURL makes href absolute against the listing page URL.
func resolveURL(base, href string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("bad base url %q: %w", base, err)
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("bad href %q: %w", href, err)
	}
	return b.ResolveReference(h).String(), nil
}

// ownText returns the element's direct text nodes only, skipping child
// elements. Used where a price node wraps currency or strike-through
// children that must not leak into the extracted text.
func ownText(s *goquery.Selection) string {
	var b strings.Builder
	for _, node := range s.Nodes {
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.TextNode {
				b.WriteString(child.Data)
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// collectFlavours runs the retailer's flavour lookup for one product and
// degrades to an empty set on any failure; a blocked or broken product
// page never fails the card.
func collectFlavours(ctx context.Context, lister FlavourLister, productURL string) []string {
	if lister == nil {
		return nil
	}

	labels, err := lister.Collect(ctx, productURL)
	if err != nil {
		return []string{}
	}

	out := make([]string, 0, len(labels))
	seen := make(map[string]bool)
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}

// normaliseName strips the weight suffix from a scraped title and
// capitalises the remainder.
func normaliseName(scraped string) string {
	return normalise.Capitalise(normalise.StripWeightSuffix(scraped))
}

// optionalWeight parses a weight out of the scraped title, nil when the
// title carries none.
func optionalWeight(scraped string) *int {
	if grams, ok := normalise.WeightGrams(scraped); ok {
		return &grams
	}
	return nil
}
