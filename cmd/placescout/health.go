package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/kailas-cloud/placescout/internal/usecase/health"
)

type healthResponse struct {
	Status health.Status                 `json:"status"`
	Checks map[string]health.CheckResult `json:"checks"`
	Errors map[string]string             `json:"errors,omitempty"`
}

// healthHandler serves the aggregated probe report; anything but ok is 503.
func healthHandler(svc *health.Service) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rep := svc.Check(r.Context())

		code := http.StatusOK
		if rep.Status != health.Healthy {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(healthResponse{
			Status: rep.Status,
			Checks: rep.Checks,
			Errors: rep.Errors,
		})
	})
}

// statPath probes that a file or directory exists.
func statPath(path string) health.CheckerFunc {
	return func(context.Context) error {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		return nil
	}
}
