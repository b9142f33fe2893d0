package handlers

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/flashcat/flash/internal/apierr"
	"github.com/flashcat/flash/internal/catalog"
)

// FaceEngine tracks the detect/cluster job lifecycle for the face-related
// routes. Face detection and clustering are explicitly out of scope (per
// §1: "a pluggable downstream consumer ... its model loading and
// clustering heuristics are not specified here") — this engine owns the
// job bookkeeping the API surface needs (running/progress/settings) and
// leaves the actual detector as an external integration point nothing in
// this repository implements.
type FaceEngine struct {
	cat *catalog.Catalog

	mu       sync.Mutex
	running  bool
	progress int
	settings map[string]interface{}
}

// NewFaceEngine constructs a face job tracker over cat.
func NewFaceEngine(cat *catalog.Catalog) *FaceEngine {
	return &FaceEngine{
		cat:      cat,
		settings: map[string]interface{}{"min_confidence": 0.6, "batch_size": 32},
	}
}

// Detect starts the job's "running" state. No detector is wired in;
// callers that need real detection must plug one in via Catalog.InsertFace.
func (f *FaceEngine) Detect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	f.progress = 0
}

// Stop clears the running state.
func (f *FaceEngine) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
}

// Status reports whether a detect/cluster job is running and its progress.
func (f *FaceEngine) Status() (running bool, progress int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running, f.progress
}

// Settings returns the current threshold/batch-size configuration.
func (f *FaceEngine) Settings() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]interface{}, len(f.settings))
	for k, v := range f.settings {
		out[k] = v
	}
	return out
}

// SetSettings merges new threshold/batch-size values.
func (f *FaceEngine) SetSettings(updates map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for k, v := range updates {
		f.settings[k] = v
	}
}

// FacesDetect serves `POST /faces/detect`.
func (h *Handlers) FacesDetect(w http.ResponseWriter, r *http.Request) {
	h.Faces.Detect()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// FacesStop serves `POST /faces/stop`.
func (h *Handlers) FacesStop(w http.ResponseWriter, r *http.Request) {
	h.Faces.Stop()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// FacesStatus serves `GET /faces/status`.
func (h *Handlers) FacesStatus(w http.ResponseWriter, r *http.Request) {
	running, progress := h.Faces.Status()
	writeJSON(w, http.StatusOK, map[string]interface{}{"running": running, "progress": progress})
}

// FacesProgress serves `GET /faces/progress`.
func (h *Handlers) FacesProgress(w http.ResponseWriter, r *http.Request) {
	_, progress := h.Faces.Status()
	writeJSON(w, http.StatusOK, map[string]int{"progress": progress})
}

// FacesGetSettings serves `GET /faces/settings`.
func (h *Handlers) FacesGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Faces.Settings())
}

// FacesSetSettings serves `POST /faces/settings`.
func (h *Handlers) FacesSetSettings(w http.ResponseWriter, r *http.Request) {
	var updates map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}
	h.Faces.SetSettings(updates)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// FacesUnassigned serves `GET /faces/unassigned`.
func (h *Handlers) FacesUnassigned(w http.ResponseWriter, r *http.Request) {
	faces, err := h.Cat.ListUnassignedFaces(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, faces)
}

// FaceThumb serves `GET /faces/{id}/thumb`: the face's asset thumbnail,
// since no separate cropped-face artifact store exists — the bounding box
// in the face row lets a client crop client-side.
func (h *Handlers) FaceThumb(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	faces, err := h.Cat.FacesForAsset(r.Context(), id)
	if err != nil || len(faces) == 0 {
		writeError(w, apierr.NotFound("no face thumbnail for id %d", id))
		return
	}
	h.Deriv.ServeThumb(w, r, faces[0].AssetID)
}

type faceAssignRequest struct {
	PersonID *int64 `json:"person_id"`
}

// FaceAssign serves `POST /faces/{id}/assign {person_id}`.
func (h *Handlers) FaceAssign(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	var req faceAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}
	if err := h.Cat.AssignFaceToPerson(r.Context(), id, req.PersonID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// FacesCluster serves `POST /faces/cluster`. No clustering heuristic is
// implemented here (out of scope); it rebuilds every existing person's
// profile from its current member faces, which is the one piece of
// cluster maintenance this repository does own.
func (h *Handlers) FacesCluster(w http.ResponseWriter, r *http.Request) {
	persons, err := h.Cat.ListPersons(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	for _, p := range persons {
		if err := h.Cat.RebuildPersonProfile(r.Context(), p.ID); err != nil {
			writeError(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]int{"persons_rebuilt": len(persons)})
}

// FacesRecluster serves `POST /faces/recluster`; aliases FacesCluster.
func (h *Handlers) FacesRecluster(w http.ResponseWriter, r *http.Request) {
	h.FacesCluster(w, r)
}

type smartMergeRequest struct {
	SourcePersonID int64 `json:"source_person_id"`
	TargetPersonID int64 `json:"target_person_id"`
}

// FacesSmartMerge serves `POST /faces/smart-merge`: reassigns every face
// from the source person to the target and rebuilds both profiles.
func (h *Handlers) FacesSmartMerge(w http.ResponseWriter, r *http.Request) {
	var req smartMergeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}
	faces, err := h.Cat.FacesForPerson(r.Context(), req.SourcePersonID)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, f := range faces {
		if err := h.Cat.AssignFaceToPerson(r.Context(), f.ID, &req.TargetPersonID); err != nil {
			writeError(w, err)
			return
		}
	}
	if err := h.Cat.DeletePerson(r.Context(), req.SourcePersonID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// FacesClear serves `POST /faces/clear`.
func (h *Handlers) FacesClear(w http.ResponseWriter, r *http.Request) {
	if err := h.Cat.ClearFaces(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// ListPersons serves `GET /persons`.
func (h *Handlers) ListPersons(w http.ResponseWriter, r *http.Request) {
	persons, err := h.Cat.ListPersons(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, persons)
}

type personRequest struct {
	Name string `json:"name"`
}

// CreatePerson serves `POST /persons`.
func (h *Handlers) CreatePerson(w http.ResponseWriter, r *http.Request) {
	var req personRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.BadRequest("invalid request body: %v", err))
		return
	}
	id, err := h.Cat.CreatePerson(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"id": id})
}

// DeletePerson serves `DELETE /persons/{id}`.
func (h *Handlers) DeletePerson(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Cat.DeletePerson(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// PersonFaces serves `GET /persons/{id}/faces`: the asset-linkage surface
// for a person.
func (h *Handlers) PersonFaces(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	faces, err := h.Cat.FacesForPerson(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, faces)
}
