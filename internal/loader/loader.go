// Package loader fetches the per-location layer datasets of the active
// location concurrently, tolerating missing and failed resources.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/geoguess-service/internal/domain"
	"github.com/couchcryptid/geoguess-service/internal/geo"
	"github.com/couchcryptid/geoguess-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds the number of in-flight fetches per Load.
const DefaultConcurrency = 5

// Tiers lists the candidate files per layer kind, most preferred first.
type Tiers map[domain.LayerKind][]string

// DefaultTiers prefers high-resolution rivers and elevation when published.
func DefaultTiers() Tiers {
	return Tiers{
		domain.LayerOutline:   {"outline.geojson"},
		domain.LayerRivers:    {"rivers_hd.geojson", "rivers.geojson"},
		domain.LayerCities:    {"cities.geojson"},
		domain.LayerRoads:     {"roads.geojson"},
		domain.LayerElevation: {"elevation_hd.geojson", "elevation.geojson"},
	}
}

// Result is the outcome of loading one layer kind. Data is never nil: a
// kind with no usable tier yields an empty FeatureCollection.
type Result struct {
	Kind   domain.LayerKind
	Data   *geo.Object
	Source string // file that served Data, empty when none did
	Err    error  // last failure other than not-found, if any
}

// Config tunes a Loader.
type Config struct {
	Concurrency int
	Tiers       Tiers
}

// Loader fetches layer datasets through a DatasetFetcher.
type Loader struct {
	fetcher     domain.DatasetFetcher
	tiers       Tiers
	concurrency int
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// New creates a Loader. Zero config values select the defaults.
func New(fetcher domain.DatasetFetcher, cfg Config, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.Tiers == nil {
		cfg.Tiers = DefaultTiers()
	}
	return &Loader{
		fetcher:     fetcher,
		tiers:       cfg.Tiers,
		concurrency: cfg.Concurrency,
		logger:      logger,
		metrics:     metrics,
	}
}

// Load fetches every kind for code and hands each result to deliver as it
// completes, in no particular order. deliver may run on several goroutines
// at once. Once ctx is done no further results are delivered and Load
// returns the context error after in-flight fetches settle.
func (l *Loader) Load(ctx context.Context, code string, kinds []domain.LayerKind, deliver func(Result)) error {
	var g errgroup.Group
	g.SetLimit(l.concurrency)

	for _, kind := range kinds {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res := l.fetchKind(ctx, code, kind)
			if ctx.Err() != nil {
				l.logger.Debug("dropping result after cancellation", "code", code, "kind", kind)
				return nil
			}
			deliver(res)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

// fetchKind walks the tier list of kind and returns the first payload that
// fetches and decodes.
func (l *Loader) fetchKind(ctx context.Context, code string, kind domain.LayerKind) Result {
	start := time.Now()
	defer func() {
		l.metrics.DatasetFetchDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for i, file := range l.tiers[kind] {
		path := code + "/" + file

		data, err := l.fetcher.FetchDataset(ctx, path)
		if err != nil {
			if ctx.Err() != nil {
				return Result{Kind: kind, Data: geo.NewFeatureCollection(), Err: ctx.Err()}
			}
			if errors.Is(err, domain.ErrDatasetNotFound) {
				l.logger.Debug("dataset not published", "path", path)
				continue
			}
			l.logger.Warn("dataset fetch failed", "path", path, "error", err)
			lastErr = err
			continue
		}

		obj, err := geo.Decode(data)
		if err != nil {
			l.logger.Warn("dataset decode failed", "path", path, "error", err)
			lastErr = err
			continue
		}

		outcome := "ok"
		if i > 0 {
			outcome = "fallback"
		}
		l.metrics.DatasetFetches.WithLabelValues(string(kind), outcome).Inc()
		return Result{Kind: kind, Data: obj, Source: file}
	}

	outcome := "missing"
	if lastErr != nil {
		outcome = "error"
		l.logger.Warn("no usable dataset, using empty layer", "code", code, "kind", kind, "error", lastErr)
	}
	l.metrics.DatasetFetches.WithLabelValues(string(kind), outcome).Inc()
	return Result{Kind: kind, Data: geo.NewFeatureCollection(), Err: lastErr}
}

// LoadCatalog reads the location catalog at path.
func LoadCatalog(ctx context.Context, fetcher domain.DatasetFetcher, path string) (*domain.Catalog, error) {
	data, err := fetcher.FetchDataset(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog: %w", err)
	}
	catalog, err := domain.ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("load catalog %s: %w", path, err)
	}
	return catalog, nil
}
