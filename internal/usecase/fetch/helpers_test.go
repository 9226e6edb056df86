package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/placescout/internal/domain"
	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/domain/search"
	"github.com/kailas-cloud/placescout/internal/usagelog"
)

// fakeSleeper records requested waits without sleeping.
type fakeSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *fakeSleeper) Sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return nil
}

func testPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    time.Second,
		Multiplier:  2,
	}
}

func newTestRetrier(kind domain.QueryKind, maxAttempts int) (*Retrier, *fakeSleeper, *usagelog.Memory) {
	sl := &fakeSleeper{}
	mem := &usagelog.Memory{}
	r := NewRetrier(kind, testPolicy(maxAttempts),
		WithSleeper(sl.Sleep),
		WithRand(func() float64 { return 0 }),
		WithUsage(mem),
	)
	return r, sl, mem
}

// scriptedCall returns errs in order, then nil.
func scriptedCall(errs ...error) (Call, *int) {
	n := 0
	return func(context.Context) error {
		n++
		if n <= len(errs) {
			return errs[n-1]
		}
		return nil
	}, &n
}

// mockSearch implements SearchProvider.
type mockSearch struct {
	results map[string][]search.Result
	errs    []error
	queries []string
}

func (m *mockSearch) Search(_ context.Context, q string, _ int) ([]search.Result, error) {
	m.queries = append(m.queries, q)
	if len(m.errs) > 0 {
		err := m.errs[0]
		m.errs = m.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return m.results[q], nil
}

// mockContracts implements ContractProvider with a fixed set of pages.
type mockContracts struct {
	pages    []contract.Page
	pageErrs map[int][]error
	calls    []int
}

func (m *mockContracts) SearchAwards(_ context.Context, _ contract.Query, page, _ int) (contract.Page, error) {
	m.calls = append(m.calls, page)
	if errs := m.pageErrs[page]; len(errs) > 0 {
		m.pageErrs[page] = errs[1:]
		return contract.Page{}, errs[0]
	}
	if page < 1 || page > len(m.pages) {
		return contract.Page{Number: page}, nil
	}
	return m.pages[page-1], nil
}
