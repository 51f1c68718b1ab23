package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("ADREC_RECOMMENDATIONS_URL", "")
	t.Setenv("ADREC_BUDGET_URL", "")
	t.Setenv("ADREC_PAUSE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.RecommendationsURL != DefaultRecommendationsURL {
		t.Errorf("recommendations url = %q", cfg.Service.RecommendationsURL)
	}
	if cfg.Service.HoursBack != 24 {
		t.Errorf("hours back = %d, want 24", cfg.Service.HoursBack)
	}
	if cfg.RefreshInterval() != 3*time.Hour {
		t.Errorf("refresh interval = %v, want 3h", cfg.RefreshInterval())
	}
	if cfg.TUI.ExpandCount != 2 {
		t.Errorf("expand count = %d, want 2", cfg.TUI.ExpandCount)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("ADREC_PAUSE_URL", "")

	cfg := DefaultConfig()
	cfg.Service.HoursBack = 48
	cfg.TUI.ExpandCount = 4
	cfg.Appearance.Theme = "tokyo-night"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, "adrec", "config.toml"))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Service.HoursBack != 48 || got.TUI.ExpandCount != 4 || got.Appearance.Theme != "tokyo-night" {
		t.Fatalf("round trip lost values: %+v", got)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	if err := Save(DefaultConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	t.Setenv("ADREC_PAUSE_URL", "http://localhost:9000/pause")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Service.PauseURL != "http://localhost:9000/pause" {
		t.Fatalf("pause url = %q", cfg.Service.PauseURL)
	}
}

func TestLoad_ParseError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, "adrec"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "adrec", "config.toml"), []byte("[service\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestRefreshInterval_Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TUI.RefreshIntervalSec = 0
	if cfg.RefreshInterval() != 0 {
		t.Fatal("zero seconds should disable refresh")
	}
	cfg = DefaultConfig()
	cfg.TUI.AutoRefresh = false
	if cfg.RefreshInterval() != 0 {
		t.Fatal("auto_refresh=false should disable refresh")
	}
}

func TestLogFile_DefaultsUnderCacheDir(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)
	if got := DefaultConfig().LogFile(); got != filepath.Join(dir, "adrec", "adrec.log") {
		t.Fatalf("log file = %q", got)
	}
}
