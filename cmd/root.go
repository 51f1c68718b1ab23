package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/theirongolddev/adrec/internal/config"
	"github.com/theirongolddev/adrec/internal/logging"
	"github.com/theirongolddev/adrec/internal/model"
	"github.com/theirongolddev/adrec/internal/recapi"
	"github.com/theirongolddev/adrec/internal/store"
)

var (
	flagHoursBack int
	flagQuiet     bool
	flagOffline   bool
	flagNoCache   bool
)

var rootCmd = &cobra.Command{
	Use:          "adrec",
	Short:        "Ad recommendation operator dashboard",
	Long:         "Review campaign recommendations, adjust budgets, and pause underperforming adsets.",
	RunE:         runSummary,
	SilenceUsage: true,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVarP(&flagHoursBack, "hours-back", "H", 0, "Aggregation window in hours (default from config, 24)")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
	rootCmd.PersistentFlags().BoolVar(&flagOffline, "offline", false, "Use the last cached snapshot instead of fetching")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Do not read or write the local snapshot cache")
}

// loadConfig reads the config and applies global flag overrides.
func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "  Warning: %s; using defaults\n", err)
		cfg = config.DefaultConfig()
	}
	if flagHoursBack > 0 {
		cfg.Service.HoursBack = flagHoursBack
	}
	if cfg.Service.HoursBack <= 0 {
		cfg.Service.HoursBack = config.DefaultHoursBack
	}
	return cfg
}

// newLogger logs to the configured file so command output stays clean.
func newLogger(cfg config.Config) *zap.Logger {
	return logging.Must(logging.Options{File: cfg.LogFile(), Level: cfg.Log.Level})
}

func newClient(cfg config.Config, log *zap.Logger) *recapi.Client {
	return recapi.New(recapi.Options{
		RecommendationsURL: cfg.Service.RecommendationsURL,
		BudgetURL:          cfg.Service.BudgetURL,
		PauseURL:           cfg.Service.PauseURL,
		Timeout:            cfg.RequestTimeout(),
		Logger:             log,
	})
}

// openStore opens the local action log and snapshot cache. A nil store
// with a nil error means caching is disabled.
func openStore() (*store.Cache, error) {
	if flagNoCache {
		return nil, nil
	}
	return store.Open(config.StorePath())
}

// loadSnapshot is the shared data loading path used by the read commands.
func loadSnapshot(ctx context.Context, cfg config.Config, log *zap.Logger) (*model.Snapshot, error) {
	cache, err := openStore()
	if err != nil {
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Cache unavailable: %s\n", err)
		}
	}
	if cache != nil {
		defer cache.Close()
	}

	if flagOffline {
		if cache == nil {
			return nil, errors.New("--offline needs the snapshot cache")
		}
		snap, err := cache.LatestSnapshot(cfg.Service.HoursBack)
		if err != nil {
			return nil, fmt.Errorf("loading cached snapshot: %w", err)
		}
		if !flagQuiet {
			fmt.Fprintf(os.Stderr, "  Using cached snapshot from %s\n", snap.FetchedAt.Local().Format(time.RFC822))
		}
		return snap, nil
	}

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Fetching recommendations (last %dh)...\n", cfg.Service.HoursBack)
	}

	snap, err := newClient(cfg, log).FetchSnapshot(ctx, cfg.Service.HoursBack)
	if err != nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.SaveSnapshot(snap); err != nil {
			log.Warn("caching snapshot", zap.Error(err))
		}
	}
	return snap, nil
}

// recordAction appends to the action log; failures are logged, not returned.
func recordAction(log *zap.Logger, a store.Action) {
	cache, err := store.Open(config.StorePath())
	if err != nil {
		log.Warn("opening action log", zap.Error(err))
		return
	}
	defer cache.Close()
	if _, err := cache.RecordAction(a); err != nil {
		log.Warn("recording action", zap.Error(err))
	}
}
