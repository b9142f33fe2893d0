package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/flashcat/flash/internal/catalog"
)

func openHealthTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	cat, err := catalog.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("catalog.Open() error = %v", err)
	}
	return cat
}

func TestHealthCheckHealthy(t *testing.T) {
	t.Parallel()

	cat := openHealthTestCatalog(t)
	defer cat.Close()

	h := &Handlers{Cat: cat}

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "healthy" {
		t.Errorf("expected status %q, got %q", "healthy", resp.Status)
	}
	if resp.Database != "ok" {
		t.Errorf("expected database %q, got %q", "ok", resp.Database)
	}
	if resp.Version == "" {
		t.Error("expected non-empty version")
	}
	if len(resp.BackendLibraries) == 0 {
		t.Error("expected at least one backend library reported")
	}
}

func TestHealthCheckDegradedOnClosedCatalog(t *testing.T) {
	t.Parallel()

	cat := openHealthTestCatalog(t)
	if err := cat.Close(); err != nil {
		t.Fatalf("catalog.Close() error = %v", err)
	}

	h := &Handlers{Cat: cat}

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", w.Code)
	}

	var resp HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if resp.Status != "degraded" {
		t.Errorf("expected status %q, got %q", "degraded", resp.Status)
	}
	if resp.Database != "unreachable" {
		t.Errorf("expected database %q, got %q", "unreachable", resp.Database)
	}
}

func TestHealthCheckContentType(t *testing.T) {
	t.Parallel()

	cat := openHealthTestCatalog(t)
	defer cat.Close()

	h := &Handlers{Cat: cat}

	req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
	w := httptest.NewRecorder()

	h.HealthCheck(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %q", ct)
	}
}

func TestHealthCheckConcurrent(t *testing.T) {
	t.Parallel()

	cat := openHealthTestCatalog(t)
	defer cat.Close()

	h := &Handlers{Cat: cat}

	const numRequests = 10
	done := make(chan bool, numRequests)

	for i := 0; i < numRequests; i++ {
		go func() {
			req := httptest.NewRequest(http.MethodGet, "/health", http.NoBody)
			w := httptest.NewRecorder()
			h.HealthCheck(w, req)
			done <- w.Code == http.StatusOK
		}()
	}

	for i := 0; i < numRequests; i++ {
		if ok := <-done; !ok {
			t.Error("expected status 200 for concurrent health check")
		}
	}
}
