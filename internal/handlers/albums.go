package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/flashcat/flash/internal/apierr"
	"github.com/flashcat/flash/internal/catalog"
)

type albumRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ListAlbums serves `GET /albums`.
func (h *Handlers) ListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.Cat.ListAlbums(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}

// CreateAlbum serves `POST /albums`.
func (h *Handlers) CreateAlbum(w http.ResponseWriter, r *http.Request) {
	var req albumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}
	if req.Name == "" {
		writeError(w, apierr.BadRequest("name must not be empty"))
		return
	}
	album, err := h.Cat.CreateAlbum(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// GetAlbum serves `GET /albums/{id}`.
func (h *Handlers) GetAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	album, err := h.Cat.GetAlbum(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// UpdateAlbum serves `PUT /albums/{id}`.
func (h *Handlers) UpdateAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req albumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}
	album, err := h.Cat.UpdateAlbum(r.Context(), id, req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// DeleteAlbum serves `DELETE /albums/{id}`.
func (h *Handlers) DeleteAlbum(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Cat.DeleteAlbum(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type assetIDsRequest struct {
	AssetIDs []int64 `json:"asset_ids"`
}

// AddAlbumAssets serves `POST /albums/{id}/assets {asset_ids}`.
func (h *Handlers) AddAlbumAssets(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req assetIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}
	if err := h.Cat.AddAssetsToAlbum(r.Context(), id, req.AssetIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RemoveAlbumAssets serves `DELETE /albums/{id}/assets {asset_ids}`.
func (h *Handlers) RemoveAlbumAssets(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req assetIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}
	if err := h.Cat.RemoveAssetsFromAlbum(r.Context(), id, req.AssetIDs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListAlbumAssets serves `GET /albums/{id}/assets`.
func (h *Handlers) ListAlbumAssets(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	q := r.URL.Query()
	opts := catalog.ListOptions{
		Offset: atoiDefault(q.Get("offset"), 0),
		Limit:  atoiDefault(q.Get("limit"), 100),
	}
	assets, err := h.Cat.ListAlbumAssets(r.Context(), id, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"assets": assets})
}

// AlbumsForAsset serves `GET /albums/for-asset/{asset_id}`.
func (h *Handlers) AlbumsForAsset(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "asset_id")
	if err != nil {
		writeError(w, err)
		return
	}
	albums, err := h.Cat.AlbumsForAsset(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, albums)
}
