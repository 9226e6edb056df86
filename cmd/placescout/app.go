package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/placescout/internal/config"
	dbValkey "github.com/kailas-cloud/placescout/internal/db/valkey"
	"github.com/kailas-cloud/placescout/internal/domain"
	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/domain/search"
	"github.com/kailas-cloud/placescout/internal/kml"
	logpkg "github.com/kailas-cloud/placescout/internal/logger"
	"github.com/kailas-cloud/placescout/internal/metrics"
	"github.com/kailas-cloud/placescout/internal/report"
	"github.com/kailas-cloud/placescout/internal/repository/cache"
	"github.com/kailas-cloud/placescout/internal/repository/filecache"
	"github.com/kailas-cloud/placescout/internal/repository/kvcache"
	"github.com/kailas-cloud/placescout/internal/transport/brave"
	"github.com/kailas-cloud/placescout/internal/transport/usaspending"
	"github.com/kailas-cloud/placescout/internal/usagelog"
	"github.com/kailas-cloud/placescout/internal/usecase/analyze"
	"github.com/kailas-cloud/placescout/internal/usecase/fetch"
	"github.com/kailas-cloud/placescout/internal/usecase/health"
	"github.com/kailas-cloud/placescout/internal/version"
)

// caches bundles both result stores and the backend they share.
type caches struct {
	searches  cache.Store[search.Result]
	contracts cache.Store[contract.Award]
	ping      health.CheckerFunc
	close     func()
}

// openCaches connects the configured backend. With readOnly set, file caches
// are loaded with filecache.Inspect and left untouched on disk.
func openCaches(ctx context.Context, cfg config.Config, readOnly bool, logger *zap.Logger) (caches, error) {
	switch cfg.Cache.Driver {
	case config.DriverValkey:
		store, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Cache.Addrs,
			Password: cfg.Cache.Password,
		})
		if err != nil {
			return caches{}, domain.NewConfigError("valkey cache: %v", err)
		}
		timeout := time.Duration(cfg.Cache.ReadinessTimeout) * time.Second
		if err := store.WaitForReady(ctx, timeout); err != nil {
			store.Close()
			return caches{}, domain.NewConfigError("valkey cache not ready: %v", err)
		}
		logger.Info("Connected to valkey cache", zap.Strings("addrs", cfg.Cache.Addrs))
		searches := kvcache.New[search.Result](store, cfg.Cache.KeyPrefix, domain.KindSearch.String(), logger)
		contracts := kvcache.New[contract.Award](store, cfg.Cache.KeyPrefix, domain.KindContract.String(), logger)
		return caches{
			searches:  searches.WithTTL(cfg.Cache.TTL),
			contracts: contracts.WithTTL(cfg.Cache.TTL),
			ping:      store.Ping,
			close:     store.Close,
		}, nil
	default:
		if readOnly {
			return caches{
				searches:  filecache.Inspect[search.Result](cfg.CachePath(domain.KindSearch), logger),
				contracts: filecache.Inspect[contract.Award](cfg.CachePath(domain.KindContract), logger),
				ping:      statPath(cfg.Cache.Dir),
				close:     func() {},
			}, nil
		}
		return caches{
			searches:  filecache.Open[search.Result](cfg.CachePath(domain.KindSearch), logger),
			contracts: filecache.Open[contract.Award](cfg.CachePath(domain.KindContract), logger),
			ping:      statPath(cfg.Cache.Dir),
			close:     func() {},
		}, nil
	}
}

func runAnalyze(ctx context.Context, out io.Writer, cfg config.Config, env string) error {
	logger, err := logpkg.NewLogger(env, cfg.Logging.Level, cfg.Run.Debug)
	if err != nil {
		return domain.NewConfigError("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logpkg.ContextWithLogger(ctx, logger)

	start, end, err := cfg.Window()
	if err != nil {
		return err
	}

	logger.Info("Starting placescout",
		zap.String("version", version.Version),
		zap.String("env", env),
		zap.String("kml_file", cfg.Run.KMLFile),
		zap.String("cache_driver", cfg.Cache.Driver),
		zap.Float64("radius_miles", cfg.Contracts.RadiusMiles),
		zap.Bool("bust_cache", cfg.Run.BustCache),
		zap.Bool("contracts_only", cfg.Run.SkipSearch),
		zap.Int("workers", cfg.Run.Workers),
	)

	// Parse input before touching the network so a bad path aborts cleanly.
	locations, err := kml.ParseFile(cfg.Run.KMLFile, logger)
	if err != nil {
		return err
	}
	if len(locations) == 0 {
		logger.Warn("No placemarks found", zap.String("kml_file", cfg.Run.KMLFile))
		return nil
	}

	cs, err := openCaches(ctx, cfg, false, logger)
	if err != nil {
		return err
	}
	defer cs.close()

	usage, err := usagelog.Open(cfg.UsageLog.Path)
	if err != nil {
		return domain.NewConfigError("usage log: %v", err)
	}
	defer func() {
		if err := usage.Close(); err != nil {
			logger.Warn("Usage log close failed", zap.Error(err))
		}
	}()
	logger.Debug("Usage log opened", zap.String("path", cfg.UsageLog.Path), zap.String("run_id", usage.RunID()))

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	if cfg.Metrics.Addr != "" {
		probes := health.New().
			Register("cache", cs.ping).
			Register("usage_log", statPath(cfg.UsageLog.Path))
		shutdown := metrics.Serve(cfg.Metrics.Addr, reg, healthHandler(probes), logger)
		defer shutdown()
	}

	policy := fetch.RetryPolicy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		BaseDelay:      cfg.Retry.BaseDelay,
		MaxDelay:       cfg.Retry.MaxDelay,
		Multiplier:     cfg.Retry.Multiplier,
		Jitter:         cfg.Retry.JitterFraction(),
		AttemptTimeout: cfg.Retry.AttemptTimeout,
	}
	newRetrier := func(kind domain.QueryKind, rps float64) *fetch.Retrier {
		return fetch.NewRetrier(kind, policy,
			fetch.WithLimiter(fetch.NewLimiter(rps)),
			fetch.WithUsage(usage),
			fetch.WithMetrics(m),
			fetch.WithLogger(logger),
		)
	}
	searchR := newRetrier(domain.KindSearch, cfg.Search.RPS)
	contractR := newRetrier(domain.KindContract, cfg.Contracts.RPS)

	// Pass a nil interface, not a typed nil pointer, when search is off.
	var searchProvider fetch.SearchProvider
	if !cfg.Run.SkipSearch {
		searchProvider = brave.New(cfg.Search.BaseURL, cfg.Search.APIKey, &http.Client{
			Transport: m.RoundTripper(brave.Provider, http.DefaultTransport),
		})
	}
	contractProvider := usaspending.New(usaspending.Config{
		BaseURL: cfg.Contracts.BaseURL,
		HTTPClient: &http.Client{
			Transport: m.RoundTripper(usaspending.Provider, http.DefaultTransport),
		},
		WindowYears: cfg.Contracts.WindowYears,
		Logger:      logger,
	})

	fetcher := fetch.New(
		searchProvider, searchR,
		contractProvider, contractR,
		fetch.Config{PageSize: cfg.Contracts.PageSize},
		logger,
	)

	printer := report.NewPrinter(out)
	svc := analyze.New(fetcher, cs.searches, cs.contracts, analyze.Options{
		MaxLocations:       cfg.Run.MaxPlaces,
		MaxResults:         cfg.Search.MaxResults,
		SkipSearch:         cfg.Run.SkipSearch,
		BustCache:          cfg.Run.BustCache,
		Workers:            cfg.Run.Workers,
		RadiusMiles:        cfg.Contracts.RadiusMiles,
		State:              cfg.Contracts.State,
		ZipPrefixes:        cfg.Contracts.ZipPrefixes,
		Window:             contract.TimeWindow{Start: start, End: end},
		MaxContractResults: cfg.Contracts.MaxResults,
	}, logger).
		WithReporter(printer).
		WithMetrics(m)

	rep := svc.Run(ctx, locations)
	printer.Footer(rep)

	for kind, r := range map[domain.QueryKind]*fetch.Retrier{
		domain.KindSearch:   searchR,
		domain.KindContract: contractR,
	} {
		c := r.Counters()
		logger.Info("Upstream usage",
			zap.String("kind", kind.String()),
			zap.Int64("attempts", c.Attempts),
			zap.Int64("succeeded", c.Succeeded),
			zap.Int64("throttled", c.Throttled),
			zap.Int64("transient", c.Transient),
			zap.Int64("failed", c.Failed),
			zap.Int64("exhausted", c.Exhausted),
		)
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	return nil
}
