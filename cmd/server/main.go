package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/suppscan/suppscan/internal/api"
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
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logg := logger.New(cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

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

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	defer redisClient.Close()

	relay := database.NewRelay(db, redisClient, database.RelayConfig{})
	go func() {
		if err := relay.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logg.Error("Relay stopped unexpectedly", "error", err)
		}
	}()

	repo := database.NewProductRepository(db, cfg.Redis.Stream)
	trigger := &scrapeService{cfg: cfg, sink: repo}

	server := &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      api.NewServer(repo, trigger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logg.Info("Server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error("Server failed", "error", err)
			cancel()
		}
	}()

	select {
	case <-sigChan:
		logg.Info("Shutdown signal received")
	case <-ctx.Done():
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error("Server shutdown failed", "error", err)
	}
}

// scrapeService runs at most one scrape at a time, each in its own browser
// session.
type scrapeService struct {
	cfg     *config.Config
	sink    scraper.Sink
	running sync.Mutex
}

func (s *scrapeService) StartScrape(category models.Category) error {
	if !s.running.TryLock() {
		return errors.New("a scrape run is already in progress")
	}

	go func() {
		defer s.running.Unlock()
		s.run(category)
	}()

	return nil
}

func (s *scrapeService) run(category models.Category) {
	logg := slog.Default().With("component", "scrape_service")

	client := fetch.New()
	if s.cfg.Scraper.RateLimitMin > 0 {
		client.WithLimiter(ratelimit.New(s.cfg.Scraper.RateLimitMin, s.cfg.Scraper.RateLimitMax))
	}

	browserOpts := browser.DefaultOptions()
	browserOpts.Headless = s.cfg.Browser.Headless
	browserOpts.Timeout = s.cfg.Browser.Timeout
	browserOpts.AcceptLanguage = s.cfg.Browser.AcceptLanguage
	browserOpts.TimezoneID = s.cfg.Browser.TimezoneID
	browserOpts.Locale = s.cfg.Browser.Locale

	b, err := browser.New(browserOpts)
	if err != nil {
		logg.Error("Failed to initialize browser for scrape run", "error", err)
		return
	}
	defer b.Close()

	pool := browser.NewPool(b, s.cfg.Scraper.PageLeases)
	pacing := s.cfg.Scraper.FlavourPacing

	flavours := func(selector string) *browser.FlavourCollector {
		return browser.NewFlavourCollector(pool, selector, pacing)
	}

	nzCfg := scraper.DefaultNZProteinConfig()
	xpCfg := scraper.DefaultXplosivConfig()
	xpCfg.MaxPages = s.cfg.Scraper.MaxPages
	sfCfg := scraper.DefaultSprintFitConfig()
	nwCfg := scraper.DefaultNoWheyConfig()
	cwCfg := scraper.DefaultChemistWarehouseConfig()
	cwCfg.MaxPages = s.cfg.Scraper.MaxPages

	extractors := []scraper.Extractor{
		scraper.NewNZProtein(client, flavours(".flavours-selection .flavour-info h5"), nzCfg),
		scraper.NewXplosiv(client, flavours(`select[name^="super_attribute"] option`), xpCfg),
		scraper.NewSprintFit(client, flavours(`.variation-group select option:not([value="null"])`), sfCfg),
		scraper.NewNoWhey(client, flavours(`select[name^="super_attribute"] option`), nwCfg),
		scraper.NewChemistWarehouse(client, pagerAdapter{browser.NewListingPager(b)}, cwCfg),
	}

	runner := scraper.NewRunner(extractors, s.sink)
	results := runner.Run(context.Background(), category)

	var totalProducts, totalErrors int
	for _, result := range results {
		totalProducts += len(result.Products)
		totalErrors += len(result.Errors)
	}
	logg.Info("Scrape run complete", "category", category, "products", totalProducts, "errors", totalErrors)
}

type pagerAdapter struct {
	pager *browser.ListingPager
}

func (a pagerAdapter) Open(ctx context.Context, url string) (scraper.ListingSession, error) {
	return a.pager.Open(ctx, url)
}
