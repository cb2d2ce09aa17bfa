package main

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mitheta/moneyclub/cmd/cli/commands"
	"github.com/mitheta/moneyclub/internal/config"
	"github.com/mitheta/moneyclub/pkg/cache"
	"github.com/mitheta/moneyclub/pkg/clients/sheetsclient"
	"github.com/mitheta/moneyclub/pkg/core/gateway"
	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/metrics"
	"github.com/mitheta/moneyclub/pkg/utils/logging"
)

var (
	env     string
	logDir  string
	verbose bool
	app     = &commands.AppContext{}
	closers []func()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "moneyclub",
		Short: "Money Club CLI - Donor recognition for the chapter",
		Long:  `A CLI tool for looking up member giving levels, leaderboards and fundraising progress from the chapter spreadsheet.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			for _, c := range closers {
				c()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (selects moneyclub_config.<env>.yaml)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "Also write JSON logs to this directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging on the console")

	rootCmd.AddCommand(commands.SearchCmd(app))
	rootCmd.AddCommand(commands.MemberCmd(app))
	rootCmd.AddCommand(commands.LevelsCmd(app))
	rootCmd.AddCommand(commands.TopDonorsCmd(app))
	rootCmd.AddCommand(commands.DecadesCmd(app))
	rootCmd.AddCommand(commands.MonthlyDonorsCmd(app))
	rootCmd.AddCommand(commands.FundsCmd(app))
	rootCmd.AddCommand(commands.ScholarshipsCmd(app))
	rootCmd.AddCommand(commands.RefreshCmd(app))
	rootCmd.AddCommand(commands.ServeCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, cache and the data gateway
func initApp() error {
	var err error
	app.Ctx = context.Background()
	app.Levels = levels.Default

	app.Logger, err = logging.InitLogger(logging.Options{Env: env, Dir: logDir, Verbose: verbose})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Debug("Starting application", zap.String("environment", env))

	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	app.Logger.Debug("Configuration loaded successfully")

	if err := app.Levels.Validate(); err != nil {
		return fmt.Errorf("invalid giving levels: %w", err)
	}

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.Metrics = metrics.New(app.Registry)

	backend, err := newCacheBackend(app.Cfg.Cache)
	if err != nil {
		return err
	}
	store := cache.NewStore(backend, app.Cfg.Cache.Version, app.Logger)
	app.Logger.Debug("Cache initialized",
		zap.String("backend", app.Cfg.Cache.Backend),
		zap.Duration("ttl", app.Cfg.Cache.TTL))

	sheetsClient, err := sheetsclient.NewClient(app.Ctx, app.Cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create sheets client: %w", err)
	}
	if !app.Cfg.HasAPIKey() {
		app.Logger.Warn("No API key configured, set apiKey in config or MONEYCLUB_API_KEY")
	}

	app.Gateway = gateway.New(sheetsClient, store, app.Cfg, app.Logger, gateway.WithMetrics(app.Metrics))
	return nil
}

func newCacheBackend(cfg config.CacheConfig) (cache.Backend, error) {
	if cfg.Backend == "memory" {
		return cache.NewMemoryBackend(cfg.MemoryMB * 1024 * 1024), nil
	}

	fb, err := cache.NewFileBackend(cfg.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache directory: %w", err)
	}
	closers = append(closers, fb.Close)
	return fb, nil
}
