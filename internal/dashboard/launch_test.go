package dashboard

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"tubepulse/internal/config"
)

// lastEnv resolves a key the way os/exec does for duplicate entries:
// the last value in the slice wins.
func lastEnv(env []string, key string) (string, bool) {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			return env[i][len(prefix):], true
		}
	}
	return "", false
}

func TestServeEnvCarriesDotenvOnlyValues(t *testing.T) {
	// Values that reached the config through a .env file exist only on
	// the struct, not in the process environment. The child must still
	// see them.
	cfg := config.Config{
		APIKey:        "key-from-dotenv",
		ChannelID:     "UCchannel",
		DataDir:       t.TempDir(),
		PollInterval:  5 * time.Minute,
		DashboardPort: 8000,
		DashboardPage: "views_progress.html",
		LogLevel:      "info",
	}

	env := serveEnv(cfg)

	if got, ok := lastEnv(env, "API_KEY"); !ok || got != "key-from-dotenv" {
		t.Errorf("API_KEY = %q, %v; want key-from-dotenv", got, ok)
	}
	if got, _ := lastEnv(env, "CHANNEL_ID"); got != "UCchannel" {
		t.Errorf("CHANNEL_ID = %q", got)
	}
	if got, _ := lastEnv(env, "POLL_INTERVAL"); got != "5m0s" {
		t.Errorf("POLL_INTERVAL = %q", got)
	}
	if got, _ := lastEnv(env, "DASHBOARD_PORT"); got != "8000" {
		t.Errorf("DASHBOARD_PORT = %q", got)
	}
}

func TestServeEnvResolvesDataDirAbsolute(t *testing.T) {
	cfg := config.Config{APIKey: "k", DataDir: "data"}

	env := serveEnv(cfg)

	got, ok := lastEnv(env, "DATA_DIR")
	if !ok {
		t.Fatal("DATA_DIR not set")
	}
	if !filepath.IsAbs(got) {
		t.Errorf("DATA_DIR = %q, want an absolute path", got)
	}
	if filepath.Base(got) != "data" {
		t.Errorf("DATA_DIR = %q, want it to end in data", got)
	}
}

func TestServeEnvOverridesInheritedValues(t *testing.T) {
	// A stale inherited value must lose to the resolved config under the
	// last-entry-wins rule.
	t.Setenv("API_KEY", "stale-inherited")
	t.Setenv("DATA_DIR", "relative-and-stale")

	dir := t.TempDir()
	cfg := config.Config{APIKey: "resolved", DataDir: dir}

	env := serveEnv(cfg)

	if got, _ := lastEnv(env, "API_KEY"); got != "resolved" {
		t.Errorf("API_KEY = %q, want resolved", got)
	}
	if got, _ := lastEnv(env, "DATA_DIR"); got != dir {
		t.Errorf("DATA_DIR = %q, want %q", got, dir)
	}
}
