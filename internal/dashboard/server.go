// Package dashboard serves the persisted tables over HTTP and launches
// the post-shutdown viewer.
package dashboard

import (
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/static"

	"tubepulse/internal/catalog"
	"tubepulse/internal/config"
	"tubepulse/internal/history"
	"tubepulse/internal/ledger"
)

// defaultRunLimit caps /api/runs when no limit parameter is given.
const defaultRunLimit = 50

// viewsResponse is the /api/views payload: the full view table plus the
// running total.
type viewsResponse struct {
	Entries    []ledger.Entry `json:"entries"`
	Cumulative int64          `json:"cumulative"`
}

// New builds the dashboard app. It reads the tables fresh on every
// request and never writes them; hist may be nil, in which case
// /api/runs serves an empty list.
func New(cfg config.Config, hist *history.Store) *fiber.App {
	cat := catalog.New(cfg.VideosCSV())
	led := ledger.New(cfg.ViewsCSV(), cfg.TotalFile())

	app := fiber.New(fiber.Config{
		AppName: "tubepulse dashboard",
	})

	app.Get("/api/runs", func(c fiber.Ctx) error {
		limit := defaultRunLimit
		if q := c.Query("limit"); q != "" {
			n, err := strconv.Atoi(q)
			if err != nil || n <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "invalid limit")
			}
			limit = n
		}

		runs := []history.Run{}
		if hist != nil {
			var err error
			runs, err = hist.RecentRuns(limit)
			if err != nil {
				return err
			}
			if runs == nil {
				runs = []history.Run{}
			}
		}
		return c.JSON(runs)
	})

	app.Get("/api/videos", func(c fiber.Ctx) error {
		videos, err := cat.Videos()
		if err != nil {
			return err
		}
		return c.JSON(videos)
	})

	app.Get("/api/views", func(c fiber.Ctx) error {
		entries, err := led.Entries()
		if err != nil {
			return err
		}
		if entries == nil {
			entries = []ledger.Entry{}
		}
		return c.JSON(viewsResponse{Entries: entries, Cumulative: led.Total()})
	})

	// The dashboard page and the raw table files, served as-is from the
	// data directory.
	app.Get("/*", static.New(cfg.DataDir))

	return app
}
