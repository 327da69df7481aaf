// Package config loads tracker configuration from the environment and an
// optional .env file in the working directory.
package config

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigdotenv"
)

// Table file names inside DataDir. The dashboard page reads these by name,
// so they are fixed rather than configurable.
const (
	videosFile  = "videos.csv"
	viewsFile   = "allvideoviews.csv"
	totalFile   = "sumtotal.txt"
	historyFile = "tubepulse.db"
)

// Config holds everything the tracker and dashboard need. Precedence:
// defaults, then .env file values, then real environment variables.
type Config struct {
	APIKey        string        `env:"API_KEY" required:"true"`
	ChannelID     string        `env:"CHANNEL_ID" default:"UCe9xwdRW2D7RYwlp6pRGOvQ"`
	DataDir       string        `env:"DATA_DIR" default:"."`
	PollInterval  time.Duration `env:"POLL_INTERVAL" default:"5m"`
	DashboardPort int           `env:"DASHBOARD_PORT" default:"8000"`
	DashboardPage string        `env:"DASHBOARD_PAGE" default:"views_progress.html"`
	BrowserPath   string        `env:"BROWSER_PATH"`
	LogLevel      string        `env:"LOG_LEVEL" default:"info"`
}

// Load reads the configuration. A missing API_KEY fails the load; the
// tracker cannot reach the API without it.
func Load() (Config, error) {
	var cfg Config

	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		SkipFlags:          true,
		AllowUnknownFields: true,
		Files:              []string{".env"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".env": aconfigdotenv.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// VideosCSV is the catalog table path.
func (c Config) VideosCSV() string { return filepath.Join(c.DataDir, videosFile) }

// ViewsCSV is the view-record table path.
func (c Config) ViewsCSV() string { return filepath.Join(c.DataDir, viewsFile) }

// TotalFile is the cumulative-total path.
func (c Config) TotalFile() string { return filepath.Join(c.DataDir, totalFile) }

// HistoryDB is the run-history database path.
func (c Config) HistoryDB() string { return filepath.Join(c.DataDir, historyFile) }

// Addr is the dashboard listen address.
func (c Config) Addr() string { return fmt.Sprintf(":%d", c.DashboardPort) }

// DashboardURL is the page the shutdown hook opens in the browser.
func (c Config) DashboardURL() string {
	return fmt.Sprintf("http://localhost:%d/%s", c.DashboardPort, c.DashboardPage)
}
