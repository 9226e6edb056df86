package fetch

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/domain/fingerprint"
	"github.com/kailas-cloud/placescout/internal/domain/search"
)

// SearchProvider runs one web search query.
type SearchProvider interface {
	Search(ctx context.Context, query string, count int) ([]search.Result, error)
}

// ContractProvider fetches one page of procurement awards.
type ContractProvider interface {
	SearchAwards(ctx context.Context, q contract.Query, page, pageSize int) (contract.Page, error)
}

// Config bounds contract pagination.
type Config struct {
	PageSize int
	MaxPages int
}

// Fetcher performs the logical search and contract fetches. It never writes
// to a cache.
type Fetcher struct {
	search    SearchProvider
	contracts ContractProvider
	searchR   *Retrier
	contractR *Retrier
	cfg       Config
	logger    *zap.Logger
}

// New creates a Fetcher. Either provider may be nil when that kind is not used.
func New(
	sp SearchProvider, searchR *Retrier,
	cp ContractProvider, contractR *Retrier,
	cfg Config, logger *zap.Logger,
) *Fetcher {
	if cfg.PageSize <= 0 || cfg.PageSize > 100 {
		cfg.PageSize = 100
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		search:    sp,
		contracts: cp,
		searchR:   searchR,
		contractR: contractR,
		cfg:       cfg,
		logger:    logger,
	}
}

// Search runs every term of q, each capped at q.MaxResults, and returns the
// concatenation deduplicated by link. Any term failing fails the whole fetch.
func (f *Fetcher) Search(ctx context.Context, key fingerprint.Key, q search.Query) ([]search.Result, error) {
	if f.search == nil {
		return nil, fmt.Errorf("search provider not configured")
	}

	var all []search.Result
	for _, term := range q.Terms {
		var got []search.Result
		err := f.searchR.Do(ctx, key.String(), func(ctx context.Context) error {
			res, err := f.search.Search(ctx, term, q.MaxResults)
			if err != nil {
				return err
			}
			got = res
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", term, err)
		}
		if q.MaxResults > 0 && len(got) > q.MaxResults {
			got = got[:q.MaxResults]
		}
		f.logger.Debug("Search query done", zap.String("query", term), zap.Int("results", len(got)))
		all = append(all, got...)
	}

	return search.Dedupe(all), nil
}

// Contracts follows pagination until the upstream reports no further page,
// q.MaxResults awards were collected or MaxPages was reached. Each page is
// retried independently; any page failing fails the whole fetch.
func (f *Fetcher) Contracts(ctx context.Context, key fingerprint.Key, q contract.Query) ([]contract.Award, error) {
	if f.contracts == nil {
		return nil, fmt.Errorf("contract provider not configured")
	}

	awards := []contract.Award{}
	for page := 1; page <= f.cfg.MaxPages; page++ {
		var p contract.Page
		err := f.contractR.Do(ctx, key.String(), func(ctx context.Context) error {
			res, err := f.contracts.SearchAwards(ctx, q, page, f.cfg.PageSize)
			if err != nil {
				return err
			}
			p = res
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("contracts page %d: %w", page, err)
		}

		awards = append(awards, p.Awards...)
		if q.MaxResults > 0 && len(awards) >= q.MaxResults {
			awards = awards[:q.MaxResults]
			break
		}
		if !p.HasNext {
			break
		}
	}

	f.logger.Debug("Contract fetch done", zap.String("key", key.String()), zap.Int("awards", len(awards)))
	return awards, nil
}
