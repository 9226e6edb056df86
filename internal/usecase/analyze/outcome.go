package analyze

import (
	"errors"

	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/domain/fingerprint"
	"github.com/kailas-cloud/placescout/internal/domain/location"
	"github.com/kailas-cloud/placescout/internal/domain/search"
)

// Outcome is the result of processing one location. A failed fetch leaves
// the other kind intact and marks the outcome incomplete.
type Outcome struct {
	Location location.Location

	SearchKey    fingerprint.Key
	Snippets     []search.Result
	SearchCached bool
	SearchErr    error

	ContractKey    fingerprint.Key
	Summary        *contract.Summary
	ContractCached bool
	ContractErr    error
}

// Incomplete reports whether any fetch for the location failed.
func (o Outcome) Incomplete() bool {
	return o.SearchErr != nil || o.ContractErr != nil
}

// Err joins the per-kind errors.
func (o Outcome) Err() error {
	return errors.Join(o.SearchErr, o.ContractErr)
}

// Report summarizes a run.
type Report struct {
	Outcomes []Outcome

	// Processed counts locations that completed, incomplete ones included.
	Processed int
	Failed    int
	// Skipped counts locations never started because the run was canceled.
	Skipped int

	SearchHits     int
	SearchMisses   int
	ContractHits   int
	ContractMisses int
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	r.Processed++
	if o.Incomplete() {
		r.Failed++
	}
	if o.SearchKey != "" {
		if o.SearchCached {
			r.SearchHits++
		} else {
			r.SearchMisses++
		}
	}
	if o.ContractKey != "" {
		if o.ContractCached {
			r.ContractHits++
		} else {
			r.ContractMisses++
		}
	}
}
