package handlers

import (
	"net/http"

	"github.com/flashcat/flash/internal/apierr"
)

// GetStats serves `GET /stats`.
func (h *Handlers) GetStats(w http.ResponseWriter, r *http.Request) {
	total, err := h.Cat.Count(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	snap := h.Stats.Snapshot()

	w.Header().Set("Cache-Control", "private, max-age=5")
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime_seconds":               snap.UptimeSeconds,
		"total_assets":                 total,
		"files_discovered":             snap.FilesDiscovered,
		"files_committed":              snap.FilesCommitted,
		"bytes_committed":              snap.BytesCommitted,
		"bytes_committed_human":        snap.BytesCommittedHuman,
		"discovery_rate_files_per_sec": snap.DiscoveryRateFilesPerSec,
		"discovery_mbps":               snap.DiscoveryMBps,
		"commit_rate_files_per_sec":    snap.CommitRateFilesPerSec,
		"throughput_mbps":              snap.ThroughputMBps,
		"status":                       snap.Status,
		"queue_depths":                 snap.QueueDepths,
		"scanning":                     h.Sup.IsAnyScanning(),
	})
}

// ResetStats serves `POST /stats/reset`, refused while any root is
// scanning per §6.
func (h *Handlers) ResetStats(w http.ResponseWriter, r *http.Request) {
	if h.Sup.IsAnyScanning() {
		writeError(w, apierr.Conflict("cannot reset statistics while a scan is running"))
		return
	}
	h.Stats.Reset()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// GetFileTypes serves `GET /file-types`.
func (h *Handlers) GetFileTypes(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Cat.FileTypeStats(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetPerformance serves `GET /performance`: current rates plus media
// toolchain diagnostics.
func (h *Handlers) GetPerformance(w http.ResponseWriter, r *http.Request) {
	snap := h.Stats.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"discovery_rate_files_per_sec": snap.DiscoveryRateFilesPerSec,
		"commit_rate_files_per_sec":    snap.CommitRateFilesPerSec,
		"throughput_mbps":              snap.ThroughputMBps,
		"status":                       snap.Status,
		"media_toolchain":              h.GW.Diag(),
	})
}

// DiagFFmpeg serves `GET /diag/ffmpeg`.
func (h *Handlers) DiagFFmpeg(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.GW.Diag())
}
