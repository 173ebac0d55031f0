package browser

import (
	"fmt"
	"log/slog"

	"github.com/playwright-community/playwright-go"
)

// Pool hands out pages against a single browser context and recycles the
// whole context once a lease-count threshold is hit. Long flavour-lookup
// runs leak renderer memory; relaunching every N product pages bounds it.
// One pool per extractor run; not safe for concurrent use.
type Pool struct {
	browser   *Browser
	maxLeases int
	leases    int
	logger    *slog.Logger
}

// NewPool wraps a browser with a lease-count eviction policy. maxLeases
// values below 1 fall back to 40.
func NewPool(b *Browser, maxLeases int) *Pool {
	if maxLeases < 1 {
		maxLeases = 40
	}
	return &Pool{
		browser:   b,
		maxLeases: maxLeases,
		logger:    slog.Default().With("component", "page_pool"),
	}
}

// Acquire returns a fresh page, recycling the browser context first when
// the lease budget is spent. The caller must Close the page when done.
func (p *Pool) Acquire() (playwright.Page, error) {
	if p.leases >= p.maxLeases {
		p.logger.Info("recycling browser context", "leases", p.leases)
		if err := p.browser.Recycle(); err != nil {
			return nil, fmt.Errorf("failed to recycle browser: %w", err)
		}
		p.leases = 0
	}

	page, err := p.browser.NewPage()
	if err != nil {
		return nil, err
	}

	p.leases++
	return page, nil
}

// Navigate proxies to the underlying browser's interstitial-aware goto.
func (p *Pool) Navigate(page playwright.Page, url string) error {
	return p.browser.Navigate(page, url)
}
