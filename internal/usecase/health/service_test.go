package health

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Check(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New().
		Register("cache", &mockPinger{}).
		Register("usage_log", CheckerFunc(func(context.Context) error { return nil }))
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["cache"] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks["cache"])
	}
	if r.Checks["usage_log"] != CheckOK {
		t.Errorf("expected usage_log %q, got %q", CheckOK, r.Checks["usage_log"])
	}
}

func TestCheck_PartialFailureIsDegraded(t *testing.T) {
	svc := New().
		Register("cache", &mockPinger{err: errors.New("conn refused")}).
		Register("usage_log", &mockPinger{})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
	if r.Errors["cache"] != "conn refused" {
		t.Errorf("unexpected error text %q", r.Errors["cache"])
	}
}

func TestCheck_AllFailingIsUnhealthy(t *testing.T) {
	svc := New().Register("cache", &mockPinger{err: errors.New("down")})
	r := svc.Check(context.Background())

	if r.Status != Unhealthy {
		t.Errorf("expected %q, got %q", Unhealthy, r.Status)
	}
}

func TestCheck_NilCheckerIgnored(t *testing.T) {
	svc := New().Register("cache", nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy || len(r.Checks) != 0 {
		t.Errorf("expected empty healthy report, got %+v", r)
	}
}

func TestReport_Names(t *testing.T) {
	r := Report{Checks: map[string]CheckResult{"usage_log": CheckOK, "cache": CheckOK}}
	if got := r.Names(); !reflect.DeepEqual(got, []string{"cache", "usage_log"}) {
		t.Errorf("Names() = %v", got)
	}
}
