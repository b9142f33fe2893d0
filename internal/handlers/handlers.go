package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/flashcat/flash/internal/apierr"
	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/derive"
	"github.com/flashcat/flash/internal/mediatool"
	"github.com/flashcat/flash/internal/startup"
	"github.com/flashcat/flash/internal/stats"
	"github.com/flashcat/flash/internal/supervisor"
)

// Handlers holds every component the route set delegates to.
type Handlers struct {
	Cat   *catalog.Catalog
	Sup   *supervisor.Supervisor
	Stats *stats.Collector
	GW    *mediatool.Gateway
	Deriv *derive.Server
	Faces *FaceEngine

	HEVCPolicy  mediatool.HEVCPolicy
	RootHost    string
	DefaultRoot string
}

// New constructs the full handler set.
func New(cat *catalog.Catalog, sup *supervisor.Supervisor, st *stats.Collector, gw *mediatool.Gateway, deriv *derive.Server, hevcPolicy mediatool.HEVCPolicy, rootHost, defaultRoot string) *Handlers {
	return &Handlers{
		Cat:         cat,
		Sup:         sup,
		Stats:       st,
		GW:          gw,
		Deriv:       deriv,
		Faces:       NewFaceEngine(cat),
		HEVCPolicy:  hevcPolicy,
		RootHost:    rootHost,
		DefaultRoot: defaultRoot,
	}
}

// writeJSON marshals v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err through apierr's taxonomy to a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, apierr.StatusFor(err), map[string]string{"error": err.Error()})
}

// idParam parses the {id} path variable shared by most asset/album routes.
func idParam(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierr.BadRequest("invalid %s %q", name, raw)
	}
	return id, nil
}

// CORS applies the permissive CORS policy §6 requires on every response.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetBuildInfo re-exports startup's build info. The /version and /health
// handlers call startup.GetBuildInfo directly.
func GetBuildInfo() startup.BuildInfo {
	return startup.GetBuildInfo()
}
