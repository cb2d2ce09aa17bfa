package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mitheta/moneyclub/pkg/core/gateway"
	"github.com/mitheta/moneyclub/pkg/core/model"
	"github.com/mitheta/moneyclub/pkg/core/search"
)

// DatasetLoader defines the dataset reads needed for a load cycle
type DatasetLoader interface {
	GetMembers(ctx context.Context) (*gateway.Result[[]model.Member], error)
	GetFundProgress(ctx context.Context) (*gateway.Result[model.FundProgress], error)
	GetScholarships(ctx context.Context) (*gateway.Result[[]model.Scholarship], error)
	GetDecades(ctx context.Context) (*gateway.Result[[]model.DecadeTotal], error)
	GetMonthlyDonors(ctx context.Context) (*gateway.Result[[]model.MonthlyDonor], error)
}

// State is the outcome of one load cycle. It is never modified after Load returns.
// A nil auxiliary field means that dataset could not be loaded.
type State struct {
	LoadID    string
	LoadedAt  time.Time
	Members   []model.Member
	Stale     bool
	CacheDate time.Time
	Index     *search.Index

	Funds        *model.FundProgress
	Scholarships []model.Scholarship
	Decades      []model.DecadeTotal
	Monthly      []model.MonthlyDonor
}

// Load fetches members and every auxiliary dataset concurrently and waits for all of them.
// Only a members failure fails the cycle.
func Load(ctx context.Context, loader DatasetLoader, searchOpts search.Options, logger *zap.Logger) (*State, error) {
	state := &State{LoadID: uuid.NewString()}
	logger = logger.With(zap.String("load_id", state.LoadID))
	logger.Debug("Starting load cycle")

	// A plain group: one dataset failing must not cancel the others
	var g errgroup.Group

	var membersResult *gateway.Result[[]model.Member]
	g.Go(func() error {
		result, err := loader.GetMembers(ctx)
		if err != nil {
			return fmt.Errorf("failed to load members: %w", err)
		}
		membersResult = result
		return nil
	})

	g.Go(func() error {
		if result, ok := auxiliary(logger, gateway.DatasetFunds, func() (*gateway.Result[model.FundProgress], error) {
			return loader.GetFundProgress(ctx)
		}); ok {
			state.Funds = &result.Data
		}
		return nil
	})
	g.Go(func() error {
		if result, ok := auxiliary(logger, gateway.DatasetScholarships, func() (*gateway.Result[[]model.Scholarship], error) {
			return loader.GetScholarships(ctx)
		}); ok {
			state.Scholarships = nonNil(result.Data)
		}
		return nil
	})
	g.Go(func() error {
		if result, ok := auxiliary(logger, gateway.DatasetDecades, func() (*gateway.Result[[]model.DecadeTotal], error) {
			return loader.GetDecades(ctx)
		}); ok {
			state.Decades = nonNil(result.Data)
		}
		return nil
	})
	g.Go(func() error {
		if result, ok := auxiliary(logger, gateway.DatasetMonthly, func() (*gateway.Result[[]model.MonthlyDonor], error) {
			return loader.GetMonthlyDonors(ctx)
		}); ok {
			state.Monthly = nonNil(result.Data)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Load cycle failed", zap.Error(err))
		return nil, err
	}

	state.Members = nonNil(membersResult.Data)
	state.Stale = membersResult.Stale
	state.CacheDate = membersResult.CacheDate
	state.Index = search.Build(state.Members, searchOpts)
	state.LoadedAt = time.Now()

	logger.Info("Load cycle complete",
		zap.Int("members", len(state.Members)),
		zap.Bool("stale", state.Stale),
		zap.Time("cache_date", state.CacheDate),
		zap.Bool("funds", state.Funds != nil),
		zap.Bool("scholarships", state.Scholarships != nil),
		zap.Bool("decades", state.Decades != nil),
		zap.Bool("monthly", state.Monthly != nil))

	return state, nil
}

// auxiliary runs one auxiliary read and turns its failure into "unavailable"
func auxiliary[T any](logger *zap.Logger, dataset string, read func() (*gateway.Result[T], error)) (*gateway.Result[T], bool) {
	result, err := read()
	if err == nil {
		if result.Stale {
			logger.Warn("Serving stale auxiliary dataset", zap.String("dataset", dataset), zap.Time("cache_date", result.CacheDate))
		}
		return result, true
	}

	if errors.Is(err, gateway.ErrNotConfigured) {
		logger.Debug("Auxiliary dataset not configured", zap.String("dataset", dataset))
	} else {
		logger.Warn("Auxiliary dataset unavailable", zap.String("dataset", dataset), zap.Error(err))
	}
	return nil, false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Holder keeps the current State. Readers always see a complete load cycle.
type Holder struct {
	current atomic.Pointer[State]
	reload  sync.Mutex
}

// Current returns the last successfully loaded state, or nil before the first load
func (h *Holder) Current() *State {
	return h.current.Load()
}

// Set replaces the current state
func (h *Holder) Set(s *State) {
	h.current.Store(s)
}

// Reload runs a load cycle and swaps it in on success. Concurrent reloads are serialized;
// on failure the previous state is kept.
func (h *Holder) Reload(ctx context.Context, loader DatasetLoader, searchOpts search.Options, logger *zap.Logger) (*State, error) {
	h.reload.Lock()
	defer h.reload.Unlock()

	state, err := Load(ctx, loader, searchOpts, logger)
	if err != nil {
		return nil, err
	}
	h.Set(state)
	return state, nil
}
