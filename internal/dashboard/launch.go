package dashboard

import (
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pkg/browser"

	"tubepulse/internal/config"
	"tubepulse/internal/logging"
)

// startupWait gives the spawned server time to bind before the browser
// asks for the page.
const startupWait = 1500 * time.Millisecond

// Launch spawns the dashboard server as a detached process and opens the
// dashboard page. Fire-and-forget: the server child outlives the tracker,
// neither process is supervised, and failures are debug-logged only —
// invisible at the default log level. Launch never blocks shutdown beyond
// the fixed startup wait.
func Launch(cfg config.Config) {
	exe, err := os.Executable()
	if err != nil {
		logging.Debug("dashboard server not spawned", "error", err)
		return
	}

	srv := exec.Command(exe, "serve")
	srv.Env = serveEnv(cfg)
	if err := srv.Start(); err != nil {
		logging.Debug("dashboard server not spawned", "error", err)
		return
	}
	logging.Debug("dashboard server spawned", "pid", srv.Process.Pid)

	time.Sleep(startupWait)

	url := cfg.DashboardURL()
	if cfg.BrowserPath != "" {
		if err := exec.Command(cfg.BrowserPath, url).Start(); err != nil {
			logging.Debug("browser not opened", "path", cfg.BrowserPath, "error", err)
		}
		return
	}
	if err := browser.OpenURL(url); err != nil {
		logging.Debug("browser not opened", "error", err)
	}
}

// serveEnv hands the child the resolved configuration explicitly. Values
// loaded from the tracker's .env file live only in this process, not in
// its environment, so inheritance alone would strand the child without
// the required key. DATA_DIR is made absolute so the child finds the
// tables no matter where it starts. Appended entries win over inherited
// duplicates (os/exec keeps the last value per key).
func serveEnv(cfg config.Config) []string {
	dataDir := cfg.DataDir
	if abs, err := filepath.Abs(dataDir); err == nil {
		dataDir = abs
	}
	return append(os.Environ(),
		"API_KEY="+cfg.APIKey,
		"CHANNEL_ID="+cfg.ChannelID,
		"DATA_DIR="+dataDir,
		"POLL_INTERVAL="+cfg.PollInterval.String(),
		"DASHBOARD_PORT="+strconv.Itoa(cfg.DashboardPort),
		"DASHBOARD_PAGE="+cfg.DashboardPage,
		"BROWSER_PATH="+cfg.BrowserPath,
		"LOG_LEVEL="+cfg.LogLevel,
	)
}
