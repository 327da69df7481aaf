// Package track orchestrates the poll-compute-persist tracking loop.
package track

import (
	"context"
	"fmt"
	"time"

	"tubepulse/internal/catalog"
	"tubepulse/internal/history"
	"tubepulse/internal/ledger"
	"tubepulse/internal/logging"
	"tubepulse/internal/ui"
	"tubepulse/internal/youtube"
)

// API is the slice of the YouTube client the tracker calls. An interface
// so tests can substitute a fake.
type API interface {
	DiscoverUploads(ctx context.Context, channelID string) ([]youtube.Video, error)
	ViewCounts(ctx context.Context, ids []string) ([]youtube.ViewStat, error)
}

// Tracker runs the pipeline: discover uploads, append new ones to the
// catalog, fetch current view counts, reconcile them into the ledger.
// Single-threaded and synchronous; context cancellation is the only stop
// mechanism.
type Tracker struct {
	api      API
	catalog  *catalog.Store
	ledger   *ledger.Ledger
	history  *history.Store // optional: nil disables run history
	channel  string
	interval time.Duration
}

// New creates a Tracker. hist may be nil; every other dependency is
// required.
func New(api API, cat *catalog.Store, led *ledger.Ledger, hist *history.Store, channelID string, interval time.Duration) *Tracker {
	return &Tracker{
		api:      api,
		catalog:  cat,
		ledger:   led,
		history:  hist,
		channel:  channelID,
		interval: interval,
	}
}

// RunOnce performs one full tracking pass and returns its summary. Any
// upstream or persistence error aborts the pass; only history recording
// is non-fatal.
func (t *Tracker) RunOnce(ctx context.Context) (ledger.Summary, error) {
	started := time.Now()

	videos, err := t.api.DiscoverUploads(ctx, t.channel)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("discover uploads: %w", err)
	}
	logging.Debug("discovered uploads", "channel", t.channel, "videos", len(videos))

	added, err := t.catalog.Append(videos)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("update catalog: %w", err)
	}
	if added > 0 {
		logging.Info("new videos cataloged", "count", added)
	}

	ids := make([]string, len(videos))
	for i, v := range videos {
		ids[i] = v.ID
	}
	stats, err := t.api.ViewCounts(ctx, ids)
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("fetch view counts: %w", err)
	}

	sum, err := t.ledger.Reconcile(stats, time.Now())
	if err != nil {
		return ledger.Summary{}, fmt.Errorf("reconcile views: %w", err)
	}

	t.recordRun(started, len(videos), added, sum)
	return sum, nil
}

// Run performs a pass immediately, reports it, then sleeps the fixed
// interval and repeats until ctx is cancelled. The sleep starts after
// the pass finishes, so a slow pass delays the next one by its own
// duration plus the interval. An interrupt during the sleep or an
// in-flight request returns ctx.Err(); any other error is fatal to the
// loop and returned as-is.
func (t *Tracker) Run(ctx context.Context) error {
	for {
		sum, err := t.RunOnce(ctx)
		if err != nil {
			return err
		}
		Report(sum)

		timer := time.NewTimer(t.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Report prints one run's summary lines for the operator.
func Report(sum ledger.Summary) {
	fmt.Println(ui.NewViewsLine(sum.NewViews))
	fmt.Println(ui.CumulativeLine(sum.Cumulative))
}

// recordRun appends the pass to run history. Failures are logged and
// swallowed: history never stops tracking.
func (t *Tracker) recordRun(started time.Time, videos, added int, sum ledger.Summary) {
	if t.history == nil {
		return
	}
	run := history.Run{
		StartedAt:  started,
		FinishedAt: time.Now(),
		Videos:     videos,
		NewVideos:  added,
		NewViews:   sum.NewViews,
		Cumulative: sum.Cumulative,
	}
	if err := t.history.RecordRun(run); err != nil {
		logging.Warn("run history not recorded", "error", err)
	}
}
