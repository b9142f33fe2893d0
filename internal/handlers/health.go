package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/flashcat/flash/internal/startup"
)

// HealthResponse is the `GET /health` payload, per §6.
type HealthResponse struct {
	Status           string   `json:"status"`
	Version          string   `json:"version"`
	Database         string   `json:"database"`
	BackendLibraries []string `json:"backend_libraries"`
}

// backendLibraries lists the third-party stack the health check reports on,
// mirroring the ecosystem the catalog and media toolchain actually use.
var backendLibraries = []string{
	"mattn/go-sqlite3",
	"zeebo/xxh3",
	"davidbyttow/govips",
	"disintegration/imaging",
	"fsnotify/fsnotify",
}

// HealthCheck reports overall service health: 200 when the catalog
// connection is live, 503 when it cannot be reached.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	status := "healthy"
	code := http.StatusOK
	if _, err := h.Cat.Count(ctx); err != nil {
		dbStatus = "unreachable"
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, HealthResponse{
		Status:           status,
		Version:          startup.GetBuildInfo().Version,
		Database:         dbStatus,
		BackendLibraries: backendLibraries,
	})
}
