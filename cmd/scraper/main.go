package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/suppscan/suppscan/internal/browser"
	"github.com/suppscan/suppscan/internal/config"
	"github.com/suppscan/suppscan/internal/database"
	"github.com/suppscan/suppscan/internal/fetch"
	"github.com/suppscan/suppscan/internal/models"
	"github.com/suppscan/suppscan/internal/ratelimit"
	"github.com/suppscan/suppscan/internal/scraper"
	"github.com/suppscan/suppscan/pkg/logger"
)

func main() {
	var (
		categoryFlag = flag.String("category", "protein", "Category to scrape: protein or creatine")
		retailerFlag = flag.String("retailer", "", "Scrape a single retailer only (by name)")
		dryRun       = flag.Bool("dry-run", false, "Scrape without persisting results")
		headless     = flag.Bool("headless", true, "Run browser in headless mode")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	category, err := models.ParseCategory(*categoryFlag)
	if err != nil {
		log.Fatalf("Invalid category: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logg.Info("Shutdown signal received")
		cancel()
	}()

	client := fetch.New()
	if cfg.Scraper.RateLimitMin > 0 {
		client.WithLimiter(ratelimit.New(cfg.Scraper.RateLimitMin, cfg.Scraper.RateLimitMax))
	}

	browserOpts := browser.DefaultOptions()
	browserOpts.Headless = *headless && cfg.Browser.Headless
	browserOpts.Timeout = cfg.Browser.Timeout
	browserOpts.ViewportWidth = cfg.Browser.ViewportWidth
	browserOpts.ViewportHeight = cfg.Browser.ViewportHeight
	browserOpts.AcceptLanguage = cfg.Browser.AcceptLanguage
	browserOpts.TimezoneID = cfg.Browser.TimezoneID
	browserOpts.Locale = cfg.Browser.Locale

	b, err := browser.New(browserOpts)
	if err != nil {
		logg.Error("Failed to initialize browser", "error", err)
		os.Exit(1)
	}
	defer b.Close()

	extractors := buildExtractors(client, b, cfg)
	if *retailerFlag != "" {
		extractors = filterRetailer(extractors, *retailerFlag)
		if len(extractors) == 0 {
			log.Fatalf("Unknown retailer: %q", *retailerFlag)
		}
	}

	var sink scraper.Sink
	if !*dryRun {
		db, err := database.New(ctx, database.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Database: cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			logg.Error("Failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		sink = database.NewProductRepository(db, cfg.Redis.Stream)
	}

	runner := scraper.NewRunner(extractors, sink)
	results := runner.Run(ctx, category)

	if *dryRun {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			logg.Error("Failed to print results", "error", err)
		}
	}

	var totalProducts, totalErrors int
	for retailer, result := range results {
		totalProducts += len(result.Products)
		totalErrors += len(result.Errors)
		for _, msg := range result.Errors {
			logg.Warn("scrape error", "retailer", retailer, "error", msg)
		}
	}
	logg.Info("Run complete", "products", totalProducts, "errors", totalErrors)

	if totalErrors > 0 {
		os.Exit(1)
	}
}

func buildExtractors(client *fetch.Client, b *browser.Browser, cfg *config.Config) []scraper.Extractor {
	pool := browser.NewPool(b, cfg.Scraper.PageLeases)
	pacing := cfg.Scraper.FlavourPacing

	flavours := func(selector string) *browser.FlavourCollector {
		return browser.NewFlavourCollector(pool, selector, pacing)
	}

	nzCfg := scraper.DefaultNZProteinConfig()
	nzCfg.MaxRuntime = cfg.Scraper.MaxRuntime
	xpCfg := scraper.DefaultXplosivConfig()
	xpCfg.MaxPages = cfg.Scraper.MaxPages
	xpCfg.MaxRuntime = cfg.Scraper.MaxRuntime
	sfCfg := scraper.DefaultSprintFitConfig()
	sfCfg.MaxRuntime = cfg.Scraper.MaxRuntime
	nwCfg := scraper.DefaultNoWheyConfig()
	nwCfg.MaxRuntime = cfg.Scraper.MaxRuntime
	cwCfg := scraper.DefaultChemistWarehouseConfig()
	cwCfg.MaxPages = cfg.Scraper.MaxPages
	cwCfg.MaxRuntime = cfg.Scraper.MaxRuntime

	return []scraper.Extractor{
		scraper.NewNZProtein(client, flavours(".flavours-selection .flavour-info h5"), nzCfg),
		scraper.NewXplosiv(client, flavours(`select[name^="super_attribute"] option`), xpCfg),
		scraper.NewSprintFit(client, flavours(`.variation-group select option:not([value="null"])`), sfCfg),
		scraper.NewNoWhey(client, flavours(`select[name^="super_attribute"] option`), nwCfg),
		scraper.NewChemistWarehouse(client, pagerAdapter{browser.NewListingPager(b)}, cwCfg),
	}
}

func filterRetailer(extractors []scraper.Extractor, name string) []scraper.Extractor {
	var out []scraper.Extractor
	for _, ex := range extractors {
		if string(ex.Retailer()) == name {
			out = append(out, ex)
		}
	}
	return out
}

// pagerAdapter narrows the browser pager to the scraper's interface.
type pagerAdapter struct {
	pager *browser.ListingPager
}

func (a pagerAdapter) Open(ctx context.Context, url string) (scraper.ListingSession, error) {
	return a.pager.Open(ctx, url)
}
