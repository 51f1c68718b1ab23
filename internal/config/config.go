package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const appName = "adrec"

// Observed production endpoints.
const (
	DefaultRecommendationsURL = "https://campaign-recommendations-backend.onrender.com/api/prediction-run"
	DefaultBudgetURL          = "https://app.wijte.me/api/campaign/budget"
	DefaultPauseURL           = "https://app.wijte.me/api/adset/pause"
	DefaultHoursBack          = 24
	DefaultRefreshIntervalSec = 3 * 60 * 60
)

// Config holds all adrec configuration.
type Config struct {
	Service    ServiceConfig    `toml:"service"`
	TUI        TUIConfig        `toml:"tui"`
	Appearance AppearanceConfig `toml:"appearance"`
	Log        LogConfig        `toml:"log"`
}

// ServiceConfig locates the recommendation service and the mutation endpoints.
type ServiceConfig struct {
	RecommendationsURL string `toml:"recommendations_url"`
	BudgetURL          string `toml:"budget_url"`
	PauseURL           string `toml:"pause_url"`
	HoursBack          int    `toml:"hours_back"`
	RequestTimeoutSec  int    `toml:"request_timeout_sec"`
}

// TUIConfig holds dashboard behaviour.
type TUIConfig struct {
	AutoRefresh        bool `toml:"auto_refresh"`
	RefreshIntervalSec int  `toml:"refresh_interval_sec"`
	ExpandCount        int  `toml:"expand_count"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	File  string `toml:"file,omitempty"`
	Level string `toml:"level"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Service: ServiceConfig{
			RecommendationsURL: DefaultRecommendationsURL,
			BudgetURL:          DefaultBudgetURL,
			PauseURL:           DefaultPauseURL,
			HoursBack:          DefaultHoursBack,
			RequestTimeoutSec:  30,
		},
		TUI: TUIConfig{
			AutoRefresh:        true,
			RefreshIntervalSec: DefaultRefreshIntervalSec,
			ExpandCount:        2,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// RefreshInterval returns the TUI refresh period; 0 means fetch once.
func (c Config) RefreshInterval() time.Duration {
	if !c.TUI.AutoRefresh || c.TUI.RefreshIntervalSec <= 0 {
		return 0
	}
	return time.Duration(c.TUI.RefreshIntervalSec) * time.Second
}

// RequestTimeout returns the per-request HTTP timeout.
func (c Config) RequestTimeout() time.Duration {
	if c.Service.RequestTimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Service.RequestTimeoutSec) * time.Second
}

// LogFile returns the configured log file or the default under the cache dir.
func (c Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(CacheDir(), appName+".log")
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the XDG-compliant cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", appName)
}

// StorePath returns the path of the SQLite action log and snapshot cache.
func StorePath() string {
	return filepath.Join(CacheDir(), appName+".db")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(ConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	for env, dst := range map[string]*string{
		"ADREC_RECOMMENDATIONS_URL": &cfg.Service.RecommendationsURL,
		"ADREC_BUDGET_URL":          &cfg.Service.BudgetURL,
		"ADREC_PAUSE_URL":           &cfg.Service.PauseURL,
	} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			*dst = v
		}
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
