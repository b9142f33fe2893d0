package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/flashcat/flash/internal/apierr"
	"github.com/flashcat/flash/internal/filesystem"
)

type pathInfo struct {
	Path      string `json:"path"`
	IsDefault bool   `json:"is_default"`
	HostPath  string `json:"host_path,omitempty"`
}

// ListPaths serves `GET /paths`.
func (h *Handlers) ListPaths(w http.ResponseWriter, r *http.Request) {
	roots, err := h.Cat.ListScanRoots(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]pathInfo, 0, len(roots))
	for _, root := range roots {
		pi := pathInfo{Path: root.Path, IsDefault: root.Path == h.DefaultRoot}
		if h.RootHost != "" {
			pi.HostPath = h.RootHost
		}
		out = append(out, pi)
	}
	writeJSON(w, http.StatusOK, out)
}

type pathRequest struct {
	Path string `json:"path"`
}

func decodePathRequest(r *http.Request) (string, error) {
	var req pathRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", apierr.BadRequest("invalid request body: %v", err)
	}
	if !filepath.IsAbs(req.Path) {
		return "", apierr.BadRequest("path must be absolute")
	}
	return filepath.Clean(req.Path), nil
}

// AddPath serves `POST /paths {path}`: declares and begins scanning a root.
func (h *Handlers) AddPath(w http.ResponseWriter, r *http.Request) {
	path, err := decodePathRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Sup.AddRoot(r.Context(), path); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RemovePath serves `DELETE /paths?path=`.
func (h *Handlers) RemovePath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, apierr.BadRequest("path query parameter required"))
		return
	}
	n, err := h.Sup.Remove(r.Context(), path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"assets_deleted": n})
}

// ScanPath serves `POST /paths/scan {path}`.
func (h *Handlers) ScanPath(w http.ResponseWriter, r *http.Request) {
	path, err := decodePathRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Sup.Scan(r.Context(), path); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// PausePath serves `POST /paths/pause {path}`.
func (h *Handlers) PausePath(w http.ResponseWriter, r *http.Request) {
	path, err := decodePathRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Sup.Pause(path); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ResumePath serves `POST /paths/resume {path}`.
func (h *Handlers) ResumePath(w http.ResponseWriter, r *http.Request) {
	path, err := decodePathRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Sup.Resume(path); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// PathStatus serves `GET /paths/status?path=`.
func (h *Handlers) PathStatus(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, apierr.BadRequest("path query parameter required"))
		return
	}
	scanning, paused := h.Sup.Status(path)
	writeJSON(w, http.StatusOK, map[string]bool{"scanning": scanning, "paused": paused})
}

// ClearAll serves `DELETE /clear`.
func (h *Handlers) ClearAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Sup.ClearAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"assets_deleted": n})
}

type browseEntry struct {
	Name  string `json:"name"`
	IsDir bool   `json:"is_dir"`
}

// Browse serves `GET /browse?path=`: a directory listing for UI path
// pickers. Relative paths are rejected, per §6.
func (h *Handlers) Browse(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		path = "/"
	}
	if !filepath.IsAbs(path) || strings.Contains(path, "..") {
		writeError(w, apierr.BadRequest("path must be absolute and contain no '..' segments"))
		return
	}

	entries, err := filesystem.ReadDirWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		writeError(w, apierr.Wrap(apierr.KindStorage, err, "read directory"))
		return
	}

	out := make([]browseEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, browseEntry{Name: e.Name(), IsDir: e.IsDir()})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"path": path, "entries": out})
}
