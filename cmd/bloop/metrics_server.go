package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bloop/internal/resilience/circuitbreaker"
)

// CollaboratorHealthResponse reports the breaker state of every collaborator.
type CollaboratorHealthResponse struct {
	Healthy       bool                 `json:"healthy"`
	Collaborators []CollaboratorStatus `json:"collaborators"`
}

type CollaboratorStatus struct {
	Name               string `json:"name"`
	State              string `json:"state"`
	CircuitBreakerOpen bool   `json:"circuit_breaker_open"`
}

// newMetricsMux serves:
//   - GET /metrics: Prometheus metrics
//   - GET /health/collaborators: breaker states, 503 when any is open
func newMetricsMux(breakers *circuitbreaker.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health/collaborators", collaboratorHealthHandler(breakers))
	return mux
}

// startMetricsServer serves newMetricsMux on port until ctx is cancelled.
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, breakers *circuitbreaker.Registry) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      newMetricsMux(breakers),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		errChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("metrics server shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Info("metrics server stopped")
		return nil
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func collaboratorHealthHandler(breakers *circuitbreaker.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		states := breakers.States()

		names := make([]string, 0, len(states))
		for name := range states {
			names = append(names, name)
		}
		sort.Strings(names)

		open := breakers.Open()
		isOpen := make(map[string]bool, len(open))
		for _, name := range open {
			isOpen[name] = true
		}

		healthy := len(open) == 0
		collaborators := make([]CollaboratorStatus, 0, len(names))
		for _, name := range names {
			collaborators = append(collaborators, CollaboratorStatus{
				Name:               name,
				State:              states[name],
				CircuitBreakerOpen: isOpen[name],
			})
		}

		statusCode := http.StatusOK
		if !healthy {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(CollaboratorHealthResponse{
			Healthy:       healthy,
			Collaborators: collaborators,
		})
	}
}
