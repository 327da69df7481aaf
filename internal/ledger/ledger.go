// Package ledger folds fetched view counts into the persisted view table
// and the cumulative running total.
package ledger

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"tubepulse/internal/youtube"
)

// timestampLayout is the wall-clock format stored in last_checked: local
// time, microsecond precision, no zone suffix. Existing files use it, so
// it is not configurable.
const timestampLayout = "2006-01-02T15:04:05.000000"

// header matches the historical allvideoviews.csv layout.
var header = []string{"video_id", "last_views", "last_checked"}

// Entry is the last recorded observation for one video.
type Entry struct {
	VideoID     string `json:"video_id"`
	LastViews   int64  `json:"last_views"`
	LastChecked string `json:"last_checked"`
}

// Summary reports one reconcile pass.
type Summary struct {
	NewViews   int64 // this run's aggregate delta
	Cumulative int64 // running total after this run
	Tracked    int   // rows in the view table after the rewrite
}

// Ledger owns the view table and the total file. Both are rewritten
// whole each run via temp-and-rename; they are not transactional with
// each other, so a crash between the two writes leaves the table ahead
// of the total.
type Ledger struct {
	viewsPath string
	totalPath string
}

// New creates a Ledger over the given view-table and total paths.
func New(viewsPath, totalPath string) *Ledger {
	return &Ledger{viewsPath: viewsPath, totalPath: totalPath}
}

// Reconcile folds one batch of measurements into persisted state and
// returns the run's summary.
//
// Per measurement, in batch order: the delta is current minus the stored
// count for a known id, or the full current count on first observation,
// clamped at zero so an upstream decrease never subtracts. Every
// measured entry is stamped with now; entries absent from the batch keep
// their stored values byte-for-byte through the rewrite. Ids never seen
// before append to the table in batch order.
func (l *Ledger) Reconcile(stats []youtube.ViewStat, now time.Time) (Summary, error) {
	entries, index, err := l.loadEntries()
	if err != nil {
		return Summary{}, err
	}
	cumulative := l.Total()

	stamp := now.Format(timestampLayout)
	var newViews int64

	for _, stat := range stats {
		delta := stat.Views
		if i, ok := index[stat.VideoID]; ok {
			delta = stat.Views - entries[i].LastViews
		}
		if delta < 0 {
			delta = 0
		}
		newViews += delta
		cumulative += delta

		entry := Entry{VideoID: stat.VideoID, LastViews: stat.Views, LastChecked: stamp}
		if i, ok := index[stat.VideoID]; ok {
			entries[i] = entry
		} else {
			index[stat.VideoID] = len(entries)
			entries = append(entries, entry)
		}
	}

	if err := l.writeEntries(entries); err != nil {
		return Summary{}, err
	}
	if err := writeFileAtomic(l.totalPath, []byte(strconv.FormatInt(cumulative, 10))); err != nil {
		return Summary{}, fmt.Errorf("write total: %w", err)
	}

	return Summary{NewViews: newViews, Cumulative: cumulative, Tracked: len(entries)}, nil
}

// Entries returns the view table in file order. A missing file is an
// empty table.
func (l *Ledger) Entries() ([]Entry, error) {
	entries, _, err := l.loadEntries()
	return entries, err
}

// Total returns the persisted cumulative total. A missing file or
// non-integer content loads as 0, silently.
func (l *Ledger) Total() int64 {
	data, err := os.ReadFile(l.totalPath)
	if err != nil {
		return 0
	}
	total, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0
	}
	return total
}

// loadEntries reads the view table preserving file order, with an id →
// position index for upserts.
func (l *Ledger) loadEntries() ([]Entry, map[string]int, error) {
	index := make(map[string]int)

	f, err := os.Open(l.viewsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, index, nil
		}
		return nil, nil, fmt.Errorf("open view table: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read view table: %w", err)
	}
	if len(rows) <= 1 {
		return nil, index, nil
	}

	entries := make([]Entry, 0, len(rows)-1)
	for _, row := range rows[1:] {
		views, err := strconv.ParseInt(row[1], 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("view table: bad last_views %q for %s", row[1], row[0])
		}
		index[row[0]] = len(entries)
		entries = append(entries, Entry{VideoID: row[0], LastViews: views, LastChecked: row[2]})
	}
	return entries, index, nil
}

// writeEntries rewrites the whole view table.
func (l *Ledger) writeEntries(entries []Entry) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(header); err != nil {
		return fmt.Errorf("write view table header: %w", err)
	}
	for _, e := range entries {
		row := []string{e.VideoID, strconv.FormatInt(e.LastViews, 10), e.LastChecked}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write view table row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush view table: %w", err)
	}

	if err := writeFileAtomic(l.viewsPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write view table: %w", err)
	}
	return nil
}

// writeFileAtomic replaces path via a temp file in the same directory,
// so an interrupt mid-write cannot truncate the table. Final bytes match
// a direct write.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
