package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/flashcat/flash/internal/apierr"
	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/media"
)

// ListAssets serves `GET /assets?offset=&limit=&sort=&order=`.
func (h *Handlers) ListAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := catalog.ListOptions{
		Offset: atoiDefault(q.Get("offset"), 0),
		Limit:  atoiDefault(q.Get("limit"), 100),
		Sort:   catalog.SortField(q.Get("sort")),
		Desc:   q.Get("order") == "desc",
	}
	assets, err := h.Cat.List(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assets": assets})
}

// SearchAssets serves `GET /assets/search`.
func (h *Handlers) SearchAssets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := catalog.SearchOptions{
		Query:       q.Get("q"),
		CameraMake:  q.Get("camera_make"),
		CameraModel: q.Get("camera_model"),
		Platform:    catalog.PlatformTag(q.Get("platform_type")),
		Offset:      atoiDefault(q.Get("offset"), 0),
		Limit:       atoiDefault(q.Get("limit"), 100),
	}
	if from, err := strconv.ParseInt(q.Get("from"), 10, 64); err == nil {
		opts.From = &from
	}
	if to, err := strconv.ParseInt(q.Get("to"), 10, 64); err == nil {
		opts.To = &to
	}

	result, err := h.Cat.Search(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetAsset serves `GET /asset/{id}`.
func (h *Handlers) GetAsset(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	a, err := h.Cat.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// ServeThumb serves `GET /thumb/{id}`.
func (h *Handlers) ServeThumb(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	h.Deriv.ServeThumb(w, r, id)
}

// ServePreview serves `GET /preview/{id}`.
func (h *Handlers) ServePreview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	h.Deriv.ServePreview(w, r, id)
}

// ServeVideo serves `GET /asset/{id}/video`.
func (h *Handlers) ServeVideo(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	h.Deriv.ServeVideo(w, r, id)
}

// ServeAudio serves `GET /asset/{id}/audio.mp3`.
func (h *Handlers) ServeAudio(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	h.Deriv.ServeAudio(w, r, id)
}

// ServeDownload serves `GET /asset/{id}/download`.
func (h *Handlers) ServeDownload(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	h.Deriv.ServeDownload(w, r, id)
}

// DeleteAsset serves `DELETE /asset/{id}` (soft delete).
func (h *Handlers) DeleteAsset(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Deriv.DeleteSoft(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// DeleteAssetPermanent serves `DELETE /asset/{id}/permanent`.
func (h *Handlers) DeleteAssetPermanent(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Deriv.DeletePermanent(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type bulkDeleteRequest struct {
	IDs []int64 `json:"ids"`
}

// DeleteAssetsPermanentBulk serves `POST /assets/permanent {ids:[]}`.
func (h *Handlers) DeleteAssetsPermanentBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkDeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}
	if len(req.IDs) == 0 {
		writeError(w, apierr.BadRequest("ids must not be empty"))
		return
	}
	results := h.Deriv.DeletePermanentBulk(r.Context(), req.IDs)
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

type orientationRequest struct {
	Rotation int `json:"rotation"`
}

// SetOrientation serves `POST /asset/{id}/orientation {rotation}`.
func (h *Handlers) SetOrientation(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req orientationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}

	a, err := h.Cat.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := media.RotateOriginal(a.Path, req.Rotation); err != nil {
		writeError(w, apierr.BadRequest("%v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
