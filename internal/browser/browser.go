// Package browser wraps playwright for the extractors that need a real
// rendering engine: flavour-variant lookups and JS-paginated category
// listings on defended sites.
package browser

import (
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Interstitial page titles used by common anti-bot front doors.
var interstitialTitle = regexp.MustCompile(`(?i)just a moment|verify you are human|attention required`)

const (
	interstitialWait = 12 * time.Second
	navigateTimeout  = 30 * time.Second
	retryTimeout     = 60 * time.Second
)

type Options struct {
	Headless       bool
	Timeout        time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:       true,
		Timeout:        30 * time.Second,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122 Safari/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,
		AcceptLanguage: "en-NZ,en;q=0.9",
		TimezoneID:     "Pacific/Auckland",
		Locale:         "en-NZ",
	}
}

// Browser owns one playwright process plus a context and is not safe for
// concurrent use; extractors run sequentially and share a single instance.
type Browser struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	opts    *Options
	logger  *slog.Logger
}

func New(opts *Options) (*Browser, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	b := &Browser{
		pw:     pw,
		opts:   opts,
		logger: slog.Default().With("component", "browser"),
	}

	if err := b.launch(); err != nil {
		pw.Stop()
		return nil, err
	}

	return b, nil
}

func (b *Browser) launch() error {
	browser, err := b.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: &b.opts.Headless,
		Args: []string{
			"--no-sandbox",
			"--disable-setuid-sandbox",
			"--disable-dev-shm-usage",
			"--disable-gpu",
			"--disable-blink-features=AutomationControlled",
		},
	})
	if err != nil {
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:  &b.opts.UserAgent,
		Locale:     &b.opts.Locale,
		TimezoneId: &b.opts.TimezoneID,
		Viewport: &playwright.Size{
			Width:  b.opts.ViewportWidth,
			Height: b.opts.ViewportHeight,
		},
		ExtraHttpHeaders: map[string]string{
			"Accept-Language": b.opts.AcceptLanguage,
		},
	})
	if err != nil {
		browser.Close()
		return fmt.Errorf("failed to create browser context: %w", err)
	}

	b.browser = browser
	b.context = context
	return nil
}

// Recycle tears down the current context and browser process and launches
// fresh ones. Used by the page pool to bound memory growth on long runs.
func (b *Browser) Recycle() error {
	if b.context != nil {
		if err := b.context.Close(); err != nil {
			b.logger.Warn("failed to close context during recycle", "error", err)
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			b.logger.Warn("failed to close browser during recycle", "error", err)
		}
	}

	return b.launch()
}

func (b *Browser) NewPage() (playwright.Page, error) {
	page, err := b.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	page.SetDefaultTimeout(float64(b.opts.Timeout.Milliseconds()))
	return page, nil
}

func (b *Browser) Close() error {
	var errs []error

	if b.context != nil {
		if err := b.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}
	if b.pw != nil {
		if err := b.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}

// Navigate opens the URL and waits for DOM content. When the page lands on
// an anti-bot interstitial (detected by title), it waits ~12s for the
// check to clear and retries the navigation exactly once. A second
// interstitial is not an error; downstream extraction simply finds no data.
func (b *Browser) Navigate(page playwright.Page, url string) error {
	_, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(navigateTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}

	title, err := page.Title()
	if err != nil {
		title = ""
	}

	if interstitialTitle.MatchString(title) {
		b.logger.Info("interstitial detected, retrying once", "url", url, "title", title)
		page.WaitForTimeout(float64(interstitialWait.Milliseconds()))

		if _, err := page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateDomcontentloaded,
			Timeout:   playwright.Float(float64(retryTimeout.Milliseconds())),
		}); err != nil {
			return fmt.Errorf("navigate %s after interstitial: %w", url, err)
		}
	}

	return nil
}
