package browser

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

var placeholderOption = regexp.MustCompile(`(?i)choose an option`)

const flavourAttachTimeout = 5 * time.Second

// FlavourCollector visits product pages and reads the texts of a
// retailer-specific variant control (a <select> of flavours or a list of
// flavour headings). Visits are paced to stay under anti-bot thresholds.
type FlavourCollector struct {
	pool     *Pool
	selector string
	pacing   time.Duration
	logger   *slog.Logger
}

// NewFlavourCollector builds a collector for one retailer's variant
// selector. pacing is slept before every visit.
func NewFlavourCollector(pool *Pool, selector string, pacing time.Duration) *FlavourCollector {
	return &FlavourCollector{
		pool:     pool,
		selector: selector,
		pacing:   pacing,
		logger:   slog.Default().With("component", "flavour_collector"),
	}
}

// Collect opens the product page and returns the deduplicated flavour
// labels found, with "choose an option" placeholders removed. An empty
// slice means the page rendered but exposed no variants; any failure is
// returned so the caller can decide to degrade.
func (fc *FlavourCollector) Collect(ctx context.Context, url string) ([]string, error) {
	if err := fc.pace(ctx); err != nil {
		return nil, err
	}

	page, err := fc.pool.Acquire()
	if err != nil {
		return nil, err
	}
	defer page.Close()

	if err := fc.pool.Navigate(page, url); err != nil {
		return nil, err
	}

	options := page.Locator(fc.selector)

	// The variant UI is often injected after load; give it a short window
	// to attach, then read whatever is there.
	_ = options.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(flavourAttachTimeout.Milliseconds())),
	})

	labels, err := options.AllInnerTexts()
	if err != nil {
		fc.logger.Debug("no flavour options read", "url", url, "error", err)
		labels = nil
	}

	seen := make(map[string]bool)
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" || placeholderOption.MatchString(label) || seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}

	return out, nil
}

func (fc *FlavourCollector) pace(ctx context.Context) error {
	if fc.pacing <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(fc.pacing):
		return nil
	}
}
