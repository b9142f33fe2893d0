package handlers

import (
	"net/http"

	"github.com/flashcat/flash/internal/startup"
)

// GetVersion returns build/version information.
func (h *Handlers) GetVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
