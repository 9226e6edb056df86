package fetch

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/placescout/internal/domain"
	"github.com/kailas-cloud/placescout/internal/domain/contract"
	"github.com/kailas-cloud/placescout/internal/domain/search"
)

func awards(ids ...string) []contract.Award {
	out := make([]contract.Award, len(ids))
	for i, id := range ids {
		out[i] = contract.Award{AwardID: id}
	}
	return out
}

func newContractFetcher(cp ContractProvider, pageSize int) (*Fetcher, *fakeSleeper) {
	r, sl, _ := newTestRetrier(domain.KindContract, 3)
	return New(nil, nil, cp, r, Config{PageSize: pageSize}, zap.NewNop()), sl
}

func TestContracts_FollowsPagination(t *testing.T) {
	cp := &mockContracts{pages: []contract.Page{
		{Number: 1, Awards: awards("a", "b"), HasNext: true},
		{Number: 2, Awards: awards("c", "d"), HasNext: true},
		{Number: 3, Awards: awards("e"), HasNext: false},
	}}
	f, _ := newContractFetcher(cp, 2)

	got, err := f.Contracts(context.Background(), "contract:k", contract.Query{MaxResults: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 5 || got[0].AwardID != "a" || got[4].AwardID != "e" {
		t.Errorf("awards = %+v", got)
	}
	if len(cp.calls) != 3 {
		t.Errorf("pages requested = %v", cp.calls)
	}
}

func TestContracts_StopsAtMaxResults(t *testing.T) {
	cp := &mockContracts{pages: []contract.Page{
		{Awards: awards("a", "b"), HasNext: true},
		{Awards: awards("c", "d"), HasNext: true},
		{Awards: awards("e", "f"), HasNext: true},
	}}
	f, _ := newContractFetcher(cp, 2)

	got, err := f.Contracts(context.Background(), "contract:k", contract.Query{MaxResults: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected truncation to 3, got %d", len(got))
	}
	if len(cp.calls) != 2 {
		t.Errorf("should stop paging once the cap is reached, pages = %v", cp.calls)
	}
}

func TestContracts_EmptyIsSuccess(t *testing.T) {
	f, _ := newContractFetcher(&mockContracts{}, 100)

	got, err := f.Contracts(context.Background(), "contract:k", contract.Query{MaxResults: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestContracts_PageRetriedIndependently(t *testing.T) {
	cp := &mockContracts{
		pages: []contract.Page{
			{Awards: awards("a"), HasNext: true},
			{Awards: awards("b"), HasNext: false},
		},
		pageErrs: map[int][]error{2: {throttle(), throttle()}},
	}
	f, sl := newContractFetcher(cp, 1)

	got, err := f.Contracts(context.Background(), "contract:k", contract.Query{MaxResults: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("awards = %+v", got)
	}
	if want := []int{1, 2, 2, 2}; len(cp.calls) != len(want) {
		t.Errorf("calls = %v, want %v", cp.calls, want)
	}
	if len(sl.waits) != 2 {
		t.Errorf("waits = %v", sl.waits)
	}
}

func TestContracts_PageExhaustionFailsFetch(t *testing.T) {
	cp := &mockContracts{
		pages:    []contract.Page{{Awards: awards("a"), HasNext: true}},
		pageErrs: map[int][]error{2: {throttle(), throttle(), throttle()}},
	}
	f, _ := newContractFetcher(cp, 1)

	got, err := f.Contracts(context.Background(), "contract:k", contract.Query{MaxResults: 10})
	if !errors.Is(err, domain.ErrExhaustedRetries) {
		t.Fatalf("expected ErrExhaustedRetries, got %v", err)
	}
	if got != nil {
		t.Errorf("partial results must not be returned, got %+v", got)
	}
}

func TestContracts_MaxPagesBound(t *testing.T) {
	pages := make([]contract.Page, 20)
	for i := range pages {
		pages[i] = contract.Page{Awards: awards("x"), HasNext: true}
	}
	cp := &mockContracts{pages: pages}
	r, _, _ := newTestRetrier(domain.KindContract, 1)
	f := New(nil, nil, cp, r, Config{PageSize: 1, MaxPages: 4}, nil)

	got, err := f.Contracts(context.Background(), "contract:k", contract.Query{MaxResults: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 4 || len(cp.calls) != 4 {
		t.Errorf("awards = %d, calls = %d, want 4/4", len(got), len(cp.calls))
	}
}

func TestSearch_RunsTermsCapsAndDedupes(t *testing.T) {
	sp := &mockSearch{results: map[string][]search.Result{
		"q1": {{Link: "a"}, {Link: "b"}, {Link: "c"}},
		"q2": {{Link: "b"}, {Link: "d"}},
	}}
	r, _, mem := newTestRetrier(domain.KindSearch, 3)
	f := New(sp, r, nil, nil, Config{}, nil)

	got, err := f.Search(context.Background(), "search:k", search.Query{Terms: []string{"q1", "q2"}, MaxResults: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	links := make([]string, len(got))
	for i, res := range got {
		links[i] = res.Link
	}
	if want := []string{"a", "b", "d"}; len(links) != 3 || links[0] != want[0] || links[1] != want[1] || links[2] != want[2] {
		t.Errorf("links = %v, want %v", links, want)
	}
	if mem.Len() != 2 {
		t.Errorf("usage entries = %d, want 2", mem.Len())
	}
}

func TestSearch_TermFailureFailsFetch(t *testing.T) {
	sp := &mockSearch{errs: []error{nil, &domain.UpstreamError{Provider: "brave", Status: 422}}}
	r, _, _ := newTestRetrier(domain.KindSearch, 3)
	f := New(sp, r, nil, nil, Config{}, nil)

	_, err := f.Search(context.Background(), "search:k", search.Query{Terms: []string{"q1", "q2"}, MaxResults: 5})
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
}

func TestFetcher_MissingProvider(t *testing.T) {
	f := New(nil, nil, nil, nil, Config{}, nil)
	if _, err := f.Search(context.Background(), "search:k", search.Query{}); err == nil {
		t.Error("expected error without search provider")
	}
	if _, err := f.Contracts(context.Background(), "contract:k", contract.Query{}); err == nil {
		t.Error("expected error without contract provider")
	}
}
