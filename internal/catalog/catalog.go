// Package catalog persists discovered videos to an append-only CSV table.
package catalog

import (
	"encoding/csv"
	"fmt"
	"os"

	"tubepulse/internal/youtube"
)

// header matches the historical videos.csv layout; column order is fixed.
var header = []string{"video_id", "title", "published_at"}

// Store is the catalog of every video ever discovered. Rows are appended
// once per unique id and never rewritten, pruned, or re-synced when a
// title changes upstream. Single-writer: the tracking loop is sequential
// and nothing else writes the table.
type Store struct {
	path string
}

// New creates a Store for the given CSV path. The file is created lazily
// on the first Append.
func New(path string) *Store {
	return &Store{path: path}
}

// KnownIDs reads the table into a set of video ids. A missing file is an
// empty catalog, not an error.
func (s *Store) KnownIDs() (map[string]struct{}, error) {
	ids := make(map[string]struct{})

	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		ids[row[0]] = struct{}{}
	}
	return ids, nil
}

// Videos returns every catalog row in file order.
func (s *Store) Videos() ([]youtube.Video, error) {
	rows, err := s.readRows()
	if err != nil {
		return nil, err
	}

	videos := make([]youtube.Video, 0, len(rows))
	for _, row := range rows {
		videos = append(videos, youtube.Video{
			ID:          row[0],
			Title:       row[1],
			PublishedAt: row[2],
		})
	}
	return videos, nil
}

// Append writes one row per video not already in the table, in discovery
// order, and returns how many rows were added. A new or empty file gets
// the header row first.
func (s *Store) Append(videos []youtube.Video) (int, error) {
	known, err := s.KnownIDs()
	if err != nil {
		return 0, err
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat catalog: %w", err)
	}

	w := csv.NewWriter(f)
	w.UseCRLF = true

	if info.Size() == 0 {
		if err := w.Write(header); err != nil {
			return 0, fmt.Errorf("write catalog header: %w", err)
		}
	}

	added := 0
	for _, v := range videos {
		if _, ok := known[v.ID]; ok {
			continue
		}
		if err := w.Write([]string{v.ID, v.Title, v.PublishedAt}); err != nil {
			return added, fmt.Errorf("write catalog row: %w", err)
		}
		known[v.ID] = struct{}{}
		added++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return added, fmt.Errorf("flush catalog: %w", err)
	}
	return added, nil
}

// readRows returns the data rows of the table, skipping the header.
// A missing file yields no rows.
func (s *Store) readRows() ([][]string, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	if len(rows) <= 1 {
		return nil, nil
	}
	return rows[1:], nil
}
