// Package analyze drives the per-location pipeline: fingerprint, cache
// lookup, fetch on miss, persist, aggregate, report.
package analyze

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/placescout/internal/domain"
	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/domain/fingerprint"
	"github.com/kailas-cloud/placescout/internal/domain/location"
	"github.com/kailas-cloud/placescout/internal/domain/search"
	"github.com/kailas-cloud/placescout/internal/logger"
	"github.com/kailas-cloud/placescout/internal/metrics"
	"github.com/kailas-cloud/placescout/internal/repository/cache"
)

// Cache lookup results as recorded in metrics.
const (
	lookupHit  = "hit"
	lookupMiss = "miss"
	lookupBust = "bust"
)

// Options control a run. Zero values mean "no cap".
type Options struct {
	MaxLocations int
	// MaxResults caps results per search query.
	MaxResults int
	SkipSearch bool
	BustCache  bool
	Workers    int

	RadiusMiles        float64
	State              string
	ZipPrefixes        []string
	Window             contract.TimeWindow
	MaxContractResults int
}

// Service processes locations against the caches and the fetcher.
type Service struct {
	fetcher   Fetcher
	searches  cache.Store[search.Result]
	contracts cache.Store[contract.Award]
	reporter  Reporter
	metrics   *metrics.Metrics
	opts      Options
	logger    *zap.Logger
}

// New creates an analysis service.
func New(
	fetcher Fetcher,
	searches cache.Store[search.Result],
	contracts cache.Store[contract.Award],
	opts Options,
	logger *zap.Logger,
) *Service {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		fetcher:   fetcher,
		searches:  searches,
		contracts: contracts,
		opts:      opts,
		logger:    logger,
	}
}

// WithReporter sets the collaborator that receives outcomes as they complete.
func (s *Service) WithReporter(r Reporter) *Service {
	s.reporter = r
	return s
}

// WithMetrics enables cache and location metrics.
func (s *Service) WithMetrics(m *metrics.Metrics) *Service {
	s.metrics = m
	return s
}

// Run processes locations and returns the run report. A failure at one
// location never stops the others; cancellation stops scheduling new ones.
func (s *Service) Run(ctx context.Context, locations []location.Location) Report {
	if s.opts.MaxLocations > 0 && len(locations) > s.opts.MaxLocations {
		s.logger.Info("Capping locations",
			zap.Int("available", len(locations)),
			zap.Int("max", s.opts.MaxLocations),
		)
		locations = locations[:s.opts.MaxLocations]
	}

	var report Report
	em := newEmitter(func(o Outcome) {
		report.add(o)
		if s.reporter != nil {
			s.reporter.Report(o)
		}
	})

	g := new(errgroup.Group)
	g.SetLimit(s.opts.Workers)

	scheduled := 0
	for i, loc := range locations {
		if ctx.Err() != nil {
			s.logger.Warn("Run canceled, not scheduling remaining locations",
				zap.Int("remaining", len(locations)-i))
			break
		}
		scheduled++
		g.Go(func() error {
			em.complete(i, s.process(ctx, loc))
			return nil
		})
	}
	_ = g.Wait()

	report.Skipped = len(locations) - scheduled
	s.flush()

	s.logger.Info("Run finished",
		zap.Int("processed", report.Processed),
		zap.Int("failed", report.Failed),
		zap.Int("skipped", report.Skipped),
	)
	return report
}

func (s *Service) process(ctx context.Context, loc location.Location) Outcome {
	log := s.logger.With(zap.Int("index", loc.Index()), zap.String("location", loc.Name()))
	ctx = logger.ContextWithLogger(ctx, log)

	out := Outcome{Location: loc}

	if !s.opts.SkipSearch {
		var coords *fingerprint.Coordinates
		if loc.HasCoordinates() {
			coords = &fingerprint.Coordinates{Latitude: loc.Latitude(), Longitude: loc.Longitude()}
		}
		key := fingerprint.Search(loc.Name(), coords)
		q := search.BuildQueries(loc, s.opts.MaxResults)

		out.SearchKey = key
		out.Snippets, out.SearchCached, out.SearchErr = resolve(ctx, s, s.searches, domain.KindSearch, key,
			func(ctx context.Context) ([]search.Result, error) {
				return s.fetcher.Search(ctx, key, q)
			})
		if out.SearchErr != nil {
			log.Error("Search failed", zap.Error(out.SearchErr))
		}
	}

	if loc.HasCoordinates() {
		key := fingerprint.Contract(loc.Latitude(), loc.Longitude(), s.opts.RadiusMiles, s.opts.Window)
		q := contract.Query{
			Latitude:    loc.Latitude(),
			Longitude:   loc.Longitude(),
			RadiusMiles: s.opts.RadiusMiles,
			State:       s.opts.State,
			ZipPrefixes: s.opts.ZipPrefixes,
			Window:      s.opts.Window,
			MaxResults:  s.opts.MaxContractResults,
		}

		out.ContractKey = key
		var awards []contract.Award
		awards, out.ContractCached, out.ContractErr = resolve(ctx, s, s.contracts, domain.KindContract, key,
			func(ctx context.Context) ([]contract.Award, error) {
				return s.fetcher.Contracts(ctx, key, q)
			})
		if out.ContractErr != nil {
			log.Error("Contract search failed", zap.Error(out.ContractErr))
		} else {
			summary := contract.Summarize(key.String(), awards, log)
			out.Summary = &summary
		}
	} else {
		log.Debug("No coordinates, skipping contract search")
	}

	status := metrics.StatusComplete
	if out.Incomplete() {
		status = metrics.StatusIncomplete
	}
	s.metrics.IncLocation(status)
	return out
}

// resolve returns cached results for key, or fetches and stores them. A
// failed fetch never touches the cache; a failed store is logged and the
// fresh results are still returned.
func resolve[T any](
	ctx context.Context,
	s *Service,
	store cache.Store[T],
	kind domain.QueryKind,
	key fingerprint.Key,
	fetch func(ctx context.Context) ([]T, error),
) ([]T, bool, error) {
	log := logger.FromContext(ctx).With(zap.String("kind", kind.String()), zap.String("key", key.String()))

	if s.opts.BustCache {
		s.metrics.IncCache(kind.String(), lookupBust)
		log.Debug("Cache bust, fetching")
	} else if results, ok := store.Get(ctx, key); ok {
		s.metrics.IncCache(kind.String(), lookupHit)
		log.Debug("Cache hit", zap.Int("results", len(results)))
		return results, true, nil
	} else {
		s.metrics.IncCache(kind.String(), lookupMiss)
	}

	results, err := fetch(ctx)
	if err != nil {
		return nil, false, err
	}

	if err := store.Put(ctx, key, results); err != nil {
		log.Warn("Cache write failed", zap.Error(err))
	}
	log.Debug("Fetched", zap.Int("results", len(results)))
	return results, false, nil
}

func (s *Service) flush() {
	if err := s.searches.Flush(); err != nil {
		s.logger.Warn("Search cache flush failed", zap.Error(err))
	}
	if err := s.contracts.Flush(); err != nil {
		s.logger.Warn("Contract cache flush failed", zap.Error(err))
	}
}

// emitter delivers outcomes in input order regardless of completion order.
// Scheduling is in order, so never-scheduled indices are always a suffix.
type emitter struct {
	mu      sync.Mutex
	next    int
	pending map[int]Outcome
	emit    func(Outcome)
}

func newEmitter(emit func(Outcome)) *emitter {
	return &emitter{pending: make(map[int]Outcome), emit: emit}
}

func (e *emitter) complete(i int, o Outcome) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.pending[i] = o
	for {
		o, ok := e.pending[e.next]
		if !ok {
			return
		}
		delete(e.pending, e.next)
		e.emit(o)
		e.next++
	}
}
