package commands

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mitheta/moneyclub/internal/config"
	"github.com/mitheta/moneyclub/pkg/core/gateway"
	"github.com/mitheta/moneyclub/pkg/core/levels"
	"github.com/mitheta/moneyclub/pkg/core/search"
	"github.com/mitheta/moneyclub/pkg/core/services"
	"github.com/mitheta/moneyclub/pkg/metrics"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Gateway  *gateway.Gateway
	Levels   levels.Table
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Logger   *zap.Logger
	Ctx      context.Context
}

// SearchOptions returns the search tuning from config
func (app *AppContext) SearchOptions() search.Options {
	return searchOptions(app.Cfg, app.Metrics)
}

// LoadState runs one cache-first load cycle and reports a stale fallback on stdout
func (app *AppContext) LoadState() (*services.State, error) {
	return app.loadFrom(app.Gateway)
}

// RefreshState refetches every dataset, falling back to the cache when the spreadsheet is unreachable
func (app *AppContext) RefreshState() (*services.State, error) {
	return app.loadFrom(app.Gateway.Forced())
}

func (app *AppContext) loadFrom(loader services.DatasetLoader) (*services.State, error) {
	state, err := services.Load(app.Ctx, loader, app.SearchOptions(), app.Logger)
	if err != nil {
		return nil, fmt.Errorf("%w\n%s", err, gateway.Remediation(err))
	}

	if notice := staleNotice(state); notice != "" {
		fmt.Println(notice)
	}
	return state, nil
}

func searchOptions(cfg *config.Config, m *metrics.Metrics) search.Options {
	opts := search.DefaultOptions()
	opts.Threshold = cfg.Search.Threshold
	opts.Distance = cfg.Search.Distance
	opts.IdentifierThreshold = cfg.Search.IdentifierThreshold
	opts.IdentifierDistance = cfg.Search.IdentifierDistance
	opts.MaxResults = cfg.Search.MaxResults
	opts.RollPrefix = cfg.Members.RollPrefix
	opts.Weights = search.Weights{
		FirstName: cfg.Search.Weights.FirstName,
		LastName:  cfg.Search.Weights.LastName,
		FullName:  cfg.Search.Weights.FullName,
		RollShort: cfg.Search.Weights.RollShort,
		RollFull:  cfg.Search.Weights.RollFull,
	}
	opts.Metrics = m
	return opts
}

// excludedDecades returns the cohort labels left out of the decade board
func excludedDecades(cfg *config.Config) []string {
	if cfg.Summary == nil || cfg.Summary.Decades == nil {
		return nil
	}
	return cfg.Summary.Decades.Excluded
}
