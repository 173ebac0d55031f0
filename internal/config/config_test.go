package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.FlavourPacing)
	assert.Equal(t, 50, cfg.Scraper.MaxPages)
	assert.Equal(t, 40, cfg.Scraper.PageLeases)
	assert.Equal(t, "Pacific/Auckland", cfg.Browser.TimezoneID)
	assert.Equal(t, "stream:scrape_batches", cfg.Redis.Stream)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SCRAPER_MAX_PAGES", "3")
	t.Setenv("SCRAPER_FLAVOUR_PACING", "1s")
	t.Setenv("BROWSER_HEADLESS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Scraper.MaxPages)
	assert.Equal(t, time.Second, cfg.Scraper.FlavourPacing)
	assert.False(t, cfg.Browser.Headless)
}

func TestValidate(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	cfg.Scraper.MaxPages = 0
	assert.Error(t, cfg.Validate())

	cfg.Scraper.MaxPages = 1
	cfg.Scraper.PageLeases = 0
	assert.Error(t, cfg.Validate())
}
