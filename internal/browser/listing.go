package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	tileSelector    = "a.product__container"
	nextSelector    = "button.pager__button--next"
	tileWait        = 15 * time.Second
	pageSettleDelay = 2500 * time.Millisecond
)

// ListingPager opens JS-paginated category listings in a real page. It
// satisfies the scraper package's pager contract.
type ListingPager struct {
	browser *Browser
	logger  *slog.Logger
}

func NewListingPager(b *Browser) *ListingPager {
	return &ListingPager{
		browser: b,
		logger:  slog.Default().With("component", "listing_pager"),
	}
}

// Open navigates to the category page and waits for the first batch of
// product tiles to render.
func (p *ListingPager) Open(ctx context.Context, url string) (*ListingSession, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page, err := p.browser.NewPage()
	if err != nil {
		return nil, err
	}

	if err := p.browser.Navigate(page, url); err != nil {
		page.Close()
		return nil, err
	}

	if _, err := page.WaitForSelector(tileSelector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(float64(tileWait.Milliseconds())),
	}); err != nil {
		page.Close()
		return nil, fmt.Errorf("no product tiles on %s: %w", url, err)
	}

	return &ListingSession{page: page, logger: p.logger}, nil
}

// ListingSession is one open category listing; the same page object is
// reused across Next calls since pagination re-renders in place.
type ListingSession struct {
	page   playwright.Page
	logger *slog.Logger
}

func (s *ListingSession) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("read page content: %w", err)
	}
	return html, nil
}

// Next clicks the pager's next button and waits for the listing to
// re-render. Returns false with no error when the button is absent or
// disabled, which is the listing's end-of-pages signal.
func (s *ListingSession) Next(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	next := s.page.Locator(nextSelector).First()

	count, err := next.Count()
	if err != nil || count == 0 {
		return false, nil
	}

	disabled, err := next.IsDisabled()
	if err != nil {
		return false, fmt.Errorf("inspect next button: %w", err)
	}
	if disabled {
		return false, nil
	}

	if err := next.Click(); err != nil {
		return false, fmt.Errorf("click next button: %w", err)
	}

	// The pager swaps tiles in place with no navigation event to await.
	s.page.WaitForTimeout(float64(pageSettleDelay.Milliseconds()))
	return true, nil
}

func (s *ListingSession) Close() error {
	return s.page.Close()
}
