package analyze

import (
	"context"

	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/domain/fingerprint"
	"github.com/kailas-cloud/placescout/internal/domain/search"
)

// Fetcher performs logical upstream fetches with retries.
type Fetcher interface {
	Search(ctx context.Context, key fingerprint.Key, q search.Query) ([]search.Result, error)
	Contracts(ctx context.Context, key fingerprint.Key, q contract.Query) ([]contract.Award, error)
}

// Reporter receives per-location outcomes in input order.
type Reporter interface {
	Report(o Outcome)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(o Outcome)

// Report implements Reporter.
func (f ReporterFunc) Report(o Outcome) { f(o) }
