package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestChecker_BasicHealth(t *testing.T) {
	checker := NewChecker(&CheckerConfig{
		Version: "1.0.0",
		Timeout: 5 * time.Second,
	})

	response := checker.Check(context.Background())

	if response.Status != StatusHealthy {
		t.Errorf("expected status healthy, got %s", response.Status)
	}
	if response.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %s", response.Version)
	}
}

func TestChecker_DeepCheck_AllHealthy(t *testing.T) {
	checker := NewChecker(&CheckerConfig{
		PersistCheck: func(ctx context.Context) error { return nil },
		WorkerCheck:  func(ctx context.Context) error { return nil },
		Timeout:      5 * time.Second,
	})

	response := checker.DeepCheck(context.Background())

	if response.Status != StatusHealthy {
		t.Errorf("expected overall healthy, got %s", response.Status)
	}
	if response.Components["persistence"].Status != StatusHealthy {
		t.Errorf("persistence = %s", response.Components["persistence"].Status)
	}
	if response.Components["worker"].Status != StatusHealthy {
		t.Errorf("worker = %s", response.Components["worker"].Status)
	}
}

func TestChecker_DeepCheck_PersistenceDown(t *testing.T) {
	checker := NewChecker(&CheckerConfig{
		PersistCheck: func(ctx context.Context) error { return errors.New("connection refused") },
		WorkerCheck:  func(ctx context.Context) error { return nil },
		Timeout:      5 * time.Second,
	})

	response := checker.DeepCheck(context.Background())

	if response.Status != StatusUnhealthy {
		t.Errorf("expected overall unhealthy, got %s", response.Status)
	}
	if response.Components["persistence"].Status != StatusUnhealthy {
		t.Errorf("persistence = %s", response.Components["persistence"].Status)
	}
}

func TestChecker_DeepCheck_PersistenceDisabled(t *testing.T) {
	checker := NewChecker(&CheckerConfig{
		WorkerCheck: func(ctx context.Context) error { return nil },
		Timeout:     5 * time.Second,
	})

	response := checker.DeepCheck(context.Background())

	// Disabled persistence degrades but does not fail readiness.
	if response.Status != StatusDegraded {
		t.Errorf("expected overall degraded, got %s", response.Status)
	}
}

func TestHandler_Liveness(t *testing.T) {
	handler := NewHandler(NewChecker(&CheckerConfig{Version: "1.0.0"}))

	rec := httptest.NewRecorder()
	handler.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("invalid body: %v", err)
	}
	if resp.Status != StatusHealthy {
		t.Errorf("body status = %s", resp.Status)
	}
	if len(resp.Components) != 0 {
		t.Error("liveness should not run component checks")
	}
}

func TestHandler_DeepQueryParam(t *testing.T) {
	handler := NewHandler(NewChecker(&CheckerConfig{
		PersistCheck: func(ctx context.Context) error { return errors.New("down") },
		WorkerCheck:  func(ctx context.Context) error { return nil },
	}))

	rec := httptest.NewRecorder()
	handler.HealthHandler(rec, httptest.NewRequest(http.MethodGet, "/health?deep=true", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
