package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mitheta/moneyclub/internal/config"
	"github.com/mitheta/moneyclub/pkg/cache"
	"github.com/mitheta/moneyclub/pkg/metrics"
)

// Cache keys, one per dataset
const (
	DatasetMembers      = "members"
	DatasetFunds        = "fund_progress"
	DatasetScholarships = "scholarships"
	DatasetDecades      = "decades"
	DatasetMonthly      = "monthly_donors"
)

// ValuesSource reads spreadsheet ranges. It is satisfied by *sheetsclient.Client.
type ValuesSource interface {
	BatchGet(ctx context.Context, spreadsheetID string, ranges []string) ([][][]interface{}, error)
}

// Result is a dataset together with where it came from
type Result[T any] struct {
	Data T
	// Stale is set when the remote fetch failed and a previously cached copy was served
	Stale bool
	// CacheDate is when Data was captured from the remote source
	CacheDate time.Time
}

// Gateway serves datasets from the local cache when fresh and from the
// spreadsheet otherwise, falling back to stale cache when the fetch fails
type Gateway struct {
	source  ValuesSource
	store   *cache.Store
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	// force skips the freshness check; cached entries still back a failed fetch
	force bool
}

// Option configures a Gateway
type Option func(*Gateway)

// WithClock overrides the time source used for year columns and fetch timing
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		g.now = now
	}
}

// WithMetrics records load outcomes and fetch durations
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// New creates a Gateway
func New(source ValuesSource, store *cache.Store, cfg *config.Config, logger *zap.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		source: source,
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Forced returns a copy of g that fetches every dataset regardless of cache age.
// A failed fetch still falls back to the cached copy and a successful one replaces it.
func (g *Gateway) Forced() *Gateway {
	forced := *g
	forced.force = true
	return &forced
}

// load is the read path shared by every dataset
func load[T any](ctx context.Context, g *Gateway, dataset string, fetch func(ctx context.Context) (T, error)) (*Result[T], error) {
	if !g.cfg.HasAPIKey() {
		g.metrics.DatasetLoaded(dataset, metrics.OutcomeFailed)
		return nil, &Error{Kind: KindConfiguration, Dataset: dataset, Message: "no API key", Err: ErrAPIKeyMissing}
	}

	env := g.store.Load(dataset)
	if env != nil && !g.force && g.store.IsFresh(env, g.cfg.Cache.TTL) {
		var data T
		err := env.Decode(&data)
		if err == nil {
			g.logger.Debug("Serving dataset from cache",
				zap.String("dataset", dataset),
				zap.Time("cachedAt", env.Timestamp))
			g.metrics.DatasetLoaded(dataset, metrics.OutcomeFresh)
			return &Result[T]{Data: data, CacheDate: env.Timestamp}, nil
		}
		g.logger.Warn("Discarding undecodable cache entry", zap.String("dataset", dataset), zap.Error(err))
		g.store.Delete(dataset)
		env = nil
	}

	g.logger.Debug("Fetching dataset", zap.String("dataset", dataset))
	start := g.now()
	data, err := fetch(ctx)
	g.metrics.FetchObserved(dataset, g.now().Sub(start))

	if err != nil {
		gwErr := classifyFetchError(dataset, err)
		if gwErr.Kind != KindConfiguration && env != nil {
			var stale T
			if decErr := env.Decode(&stale); decErr == nil {
				g.logger.Warn("Fetch failed, serving stale cache",
					zap.String("dataset", dataset),
					zap.Stringer("kind", gwErr.Kind),
					zap.Time("cachedAt", env.Timestamp),
					zap.Error(err))
				g.metrics.DatasetLoaded(dataset, metrics.OutcomeStale)
				return &Result[T]{Data: stale, Stale: true, CacheDate: env.Timestamp}, nil
			}
		}

		logFailure := g.logger.Warn
		if errors.Is(err, ErrNotConfigured) {
			logFailure = g.logger.Debug
		}
		logFailure("Failed to load dataset",
			zap.String("dataset", dataset),
			zap.Stringer("kind", gwErr.Kind),
			zap.Error(err))
		g.metrics.DatasetLoaded(dataset, metrics.OutcomeFailed)
		return nil, gwErr
	}

	g.store.Save(dataset, data)
	g.metrics.DatasetLoaded(dataset, metrics.OutcomeFetched)

	return &Result[T]{Data: data, CacheDate: g.now()}, nil
}

// batch reads ranges from one spreadsheet and checks the response shape
func (g *Gateway) batch(ctx context.Context, spreadsheetID string, ranges []string) ([][][]interface{}, error) {
	values, err := g.source.BatchGet(ctx, spreadsheetID, ranges)
	if err != nil {
		return nil, err
	}
	if len(values) != len(ranges) {
		return nil, fmt.Errorf("%w: requested %d ranges, got %d", ErrMalformedResponse, len(ranges), len(values))
	}
	return values, nil
}
