// Command tubepulse tracks view-count growth for a YouTube channel's
// uploads, persisting per-video counts and a running total to flat files.
//
// Usage:
//
//	tubepulse          Track indefinitely; Ctrl-C stops and opens the dashboard
//	tubepulse once     Single tracking pass, then exit
//	tubepulse serve    Run the dashboard server in the foreground
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tubepulse/internal/catalog"
	"tubepulse/internal/config"
	"tubepulse/internal/dashboard"
	"tubepulse/internal/history"
	"tubepulse/internal/ledger"
	"tubepulse/internal/logging"
	"tubepulse/internal/track"
	"tubepulse/internal/ui"
	"tubepulse/internal/youtube"
)

const usage = `tubepulse — channel view-count tracker

Usage:
  tubepulse [command]

Commands:
  (none)      Track indefinitely on the poll interval; an interrupt stops
              tracking and opens the dashboard
  once        Single tracking pass, then exit (no dashboard)
  serve       Run the dashboard server in the foreground

Environment:
  API_KEY          YouTube Data API v3 key (required)
  CHANNEL_ID       Channel to track
  DATA_DIR         Directory holding the tables (default .)
  POLL_INTERVAL    Time between passes (default 5m)
  DASHBOARD_PORT   Dashboard listen port (default 8000)
  DASHBOARD_PAGE   Page opened on shutdown (default views_progress.html)
  BROWSER_PATH     Browser binary; empty uses the OS default
  LOG_LEVEL        debug, info, warn, error (default info)

Values may also come from a .env file in the working directory.
`

func main() {
	cmd := ""
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "":
		runTrack()
	case "once":
		runOnce()
	case "serve":
		runServe()
	case "-h", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "tubepulse: unknown command %q\n\n", cmd)
		fmt.Print(usage)
		os.Exit(1)
	}
}

// mustConfig loads configuration and initializes logging. A missing
// API_KEY fails here, before anything runs.
func mustConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "tubepulse: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		logging.Fatal("create data directory", "dir", cfg.DataDir, "error", err)
	}
	return cfg
}

// newTracker wires the real pipeline. History is optional: if the
// database cannot be opened the tracker runs without it.
func newTracker(cfg config.Config) (*track.Tracker, *history.Store) {
	hist, err := history.Open(cfg.HistoryDB())
	if err != nil {
		logging.Warn("run history disabled", "error", err)
		hist = nil
	}

	client := youtube.New(cfg.APIKey)
	cat := catalog.New(cfg.VideosCSV())
	led := ledger.New(cfg.ViewsCSV(), cfg.TotalFile())

	return track.New(client, cat, led, hist, cfg.ChannelID, cfg.PollInterval), hist
}

func runTrack() {
	cfg := mustConfig()
	tracker, hist := newTracker(cfg)
	if hist != nil {
		defer hist.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println(ui.Banner.Render("tubepulse tracking " + cfg.ChannelID))
	logging.Info("tracking started", "channel", cfg.ChannelID, "interval", cfg.PollInterval)

	err := tracker.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Fatal("tracking failed", "error", err)
	}

	// Interrupt path: hand off to the dashboard and exit clean.
	stop()
	fmt.Println(ui.Done.Render("tracking stopped, opening dashboard"))
	dashboard.Launch(cfg)
}

func runOnce() {
	cfg := mustConfig()
	tracker, hist := newTracker(cfg)
	if hist != nil {
		defer hist.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := tracker.RunOnce(ctx)
	if err != nil {
		logging.Fatal("tracking pass failed", "error", err)
	}
	track.Report(sum)
}

func runServe() {
	cfg := mustConfig()

	hist, err := history.Open(cfg.HistoryDB())
	if err != nil {
		logging.Warn("run history unavailable", "error", err)
		hist = nil
	} else {
		defer hist.Close()
	}

	app := dashboard.New(cfg, hist)
	logging.Info("dashboard listening", "addr", cfg.Addr(), "dir", cfg.DataDir)
	if err := app.Listen(cfg.Addr()); err != nil {
		logging.Fatal("dashboard server failed", "error", err)
	}
}
