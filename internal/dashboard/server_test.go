package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"

	"tubepulse/internal/config"
	"tubepulse/internal/history"
	"tubepulse/internal/ledger"
	"tubepulse/internal/youtube"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		DataDir:       t.TempDir(),
		DashboardPort: 8000,
		DashboardPage: "views_progress.html",
	}
}

func get(t *testing.T, app *fiber.App, path string) (*http.Response, []byte) {
	t.Helper()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	// Fiber's default 1s test timeout flakes on cold starts.
	resp, err := app.Test(req, fiber.TestConfig{Timeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("GET %s failed: %v", path, err)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	resp.Body.Close()
	return resp, body
}

func TestVideosRoute(t *testing.T) {
	cfg := testConfig(t)
	table := "video_id,title,published_at\r\nA,first,2024-05-01T00:00:00Z\r\n"
	if err := os.WriteFile(cfg.VideosCSV(), []byte(table), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	app := New(cfg, nil)
	resp, body := get(t, app, "/api/videos")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}

	var videos []youtube.Video
	if err := json.Unmarshal(body, &videos); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(videos) != 1 || videos[0].ID != "A" || videos[0].Title != "first" {
		t.Errorf("unexpected videos: %+v", videos)
	}
}

func TestViewsRoute(t *testing.T) {
	cfg := testConfig(t)
	led := ledger.New(cfg.ViewsCSV(), cfg.TotalFile())
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if _, err := led.Reconcile([]youtube.ViewStat{{VideoID: "A", Views: 100}}, now); err != nil {
		t.Fatalf("seed ledger: %v", err)
	}

	app := New(cfg, nil)
	resp, body := get(t, app, "/api/views")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}

	var payload viewsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Cumulative != 100 {
		t.Errorf("cumulative = %d, want 100", payload.Cumulative)
	}
	if len(payload.Entries) != 1 || payload.Entries[0].LastViews != 100 {
		t.Errorf("unexpected entries: %+v", payload.Entries)
	}
}

func TestViewsRouteEmptyState(t *testing.T) {
	app := New(testConfig(t), nil)
	resp, body := get(t, app, "/api/views")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}

	var payload viewsResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if payload.Cumulative != 0 || len(payload.Entries) != 0 {
		t.Errorf("expected empty payload, got %+v", payload)
	}
}

func TestRunsRoute(t *testing.T) {
	hist, err := history.Open(":memory:")
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer hist.Close()

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		run := history.Run{
			StartedAt:  base.Add(time.Duration(i) * 5 * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*5*time.Minute + time.Second),
			Videos:     10,
			NewViews:   int64(i * 100),
			Cumulative: int64(i * 100),
		}
		if err := hist.RecordRun(run); err != nil {
			t.Fatalf("record run %d: %v", i, err)
		}
	}

	app := New(testConfig(t), hist)
	resp, body := get(t, app, "/api/runs?limit=2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}

	var runs []history.Run
	if err := json.Unmarshal(body, &runs); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	// Newest first.
	if runs[0].NewViews != 200 || runs[1].NewViews != 100 {
		t.Errorf("unexpected order: %+v", runs)
	}
}

func TestRunsRouteWithoutHistory(t *testing.T) {
	app := New(testConfig(t), nil)
	resp, body := get(t, app, "/api/runs")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, body %s", resp.StatusCode, body)
	}
	if string(body) != "[]" {
		t.Errorf("expected empty list, got %s", body)
	}
}

func TestRunsRouteBadLimit(t *testing.T) {
	app := New(testConfig(t), nil)
	resp, _ := get(t, app, "/api/runs?limit=nope")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestStaticRouteServesTables(t *testing.T) {
	cfg := testConfig(t)
	page := "<html><body>views</body></html>"
	if err := os.WriteFile(filepath.Join(cfg.DataDir, "views_progress.html"), []byte(page), 0o644); err != nil {
		t.Fatalf("write page: %v", err)
	}
	if err := os.WriteFile(cfg.TotalFile(), []byte("12345"), 0o644); err != nil {
		t.Fatalf("write total: %v", err)
	}

	app := New(cfg, nil)

	resp, body := get(t, app, "/views_progress.html")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("page status = %d", resp.StatusCode)
	}
	if string(body) != page {
		t.Errorf("page body = %q", body)
	}

	resp, body = get(t, app, "/sumtotal.txt")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("total status = %d", resp.StatusCode)
	}
	if string(body) != "12345" {
		t.Errorf("total body = %q", body)
	}
}
