package handlers

import (
	"github.com/gorilla/mux"
)

// NewRouter builds the full route table of §6.
func NewRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(CORS)

	r.HandleFunc("/health", h.HealthCheck).Methods("GET", "OPTIONS")
	r.HandleFunc("/version", h.GetVersion).Methods("GET", "OPTIONS")
	r.HandleFunc("/stats", h.GetStats).Methods("GET", "OPTIONS")
	r.HandleFunc("/stats/reset", h.ResetStats).Methods("POST", "OPTIONS")
	r.HandleFunc("/clear", h.ClearAll).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/file-types", h.GetFileTypes).Methods("GET", "OPTIONS")
	r.HandleFunc("/performance", h.GetPerformance).Methods("GET", "OPTIONS")
	r.HandleFunc("/diag/ffmpeg", h.DiagFFmpeg).Methods("GET", "OPTIONS")

	r.HandleFunc("/assets", h.ListAssets).Methods("GET", "OPTIONS")
	r.HandleFunc("/assets/search", h.SearchAssets).Methods("GET", "OPTIONS")
	r.HandleFunc("/assets/permanent", h.DeleteAssetsPermanentBulk).Methods("POST", "OPTIONS")
	r.HandleFunc("/asset/{id}", h.GetAsset).Methods("GET", "OPTIONS")
	r.HandleFunc("/asset/{id}", h.DeleteAsset).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/asset/{id}/permanent", h.DeleteAssetPermanent).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/asset/{id}/orientation", h.SetOrientation).Methods("POST", "OPTIONS")
	r.HandleFunc("/asset/{id}/video", h.ServeVideo).Methods("GET", "OPTIONS")
	r.HandleFunc("/asset/{id}/audio.mp3", h.ServeAudio).Methods("GET", "OPTIONS")
	r.HandleFunc("/asset/{id}/download", h.ServeDownload).Methods("GET", "OPTIONS")
	r.HandleFunc("/thumb/{id}", h.ServeThumb).Methods("GET", "OPTIONS")
	r.HandleFunc("/preview/{id}", h.ServePreview).Methods("GET", "OPTIONS")

	r.HandleFunc("/paths", h.ListPaths).Methods("GET", "OPTIONS")
	r.HandleFunc("/paths", h.AddPath).Methods("POST", "OPTIONS")
	r.HandleFunc("/paths", h.RemovePath).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/paths/scan", h.ScanPath).Methods("POST", "OPTIONS")
	r.HandleFunc("/paths/pause", h.PausePath).Methods("POST", "OPTIONS")
	r.HandleFunc("/paths/resume", h.ResumePath).Methods("POST", "OPTIONS")
	r.HandleFunc("/paths/status", h.PathStatus).Methods("GET", "OPTIONS")
	r.HandleFunc("/browse", h.Browse).Methods("GET", "OPTIONS")

	r.HandleFunc("/albums", h.ListAlbums).Methods("GET", "OPTIONS")
	r.HandleFunc("/albums", h.CreateAlbum).Methods("POST", "OPTIONS")
	r.HandleFunc("/albums/for-asset/{asset_id}", h.AlbumsForAsset).Methods("GET", "OPTIONS")
	r.HandleFunc("/albums/{id}", h.GetAlbum).Methods("GET", "OPTIONS")
	r.HandleFunc("/albums/{id}", h.UpdateAlbum).Methods("PUT", "OPTIONS")
	r.HandleFunc("/albums/{id}", h.DeleteAlbum).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/albums/{id}/assets", h.ListAlbumAssets).Methods("GET", "OPTIONS")
	r.HandleFunc("/albums/{id}/assets", h.AddAlbumAssets).Methods("POST", "OPTIONS")
	r.HandleFunc("/albums/{id}/assets", h.RemoveAlbumAssets).Methods("DELETE", "OPTIONS")

	r.HandleFunc("/faces/detect", h.FacesDetect).Methods("POST", "OPTIONS")
	r.HandleFunc("/faces/stop", h.FacesStop).Methods("POST", "OPTIONS")
	r.HandleFunc("/faces/status", h.FacesStatus).Methods("GET", "OPTIONS")
	r.HandleFunc("/faces/progress", h.FacesProgress).Methods("GET", "OPTIONS")
	r.HandleFunc("/faces/settings", h.FacesGetSettings).Methods("GET", "OPTIONS")
	r.HandleFunc("/faces/settings", h.FacesSetSettings).Methods("POST", "OPTIONS")
	r.HandleFunc("/faces/unassigned", h.FacesUnassigned).Methods("GET", "OPTIONS")
	r.HandleFunc("/faces/{id}/thumb", h.FaceThumb).Methods("GET", "OPTIONS")
	r.HandleFunc("/faces/{id}/assign", h.FaceAssign).Methods("POST", "OPTIONS")
	r.HandleFunc("/faces/cluster", h.FacesCluster).Methods("POST", "OPTIONS")
	r.HandleFunc("/faces/recluster", h.FacesRecluster).Methods("POST", "OPTIONS")
	r.HandleFunc("/faces/smart-merge", h.FacesSmartMerge).Methods("POST", "OPTIONS")
	r.HandleFunc("/faces/clear", h.FacesClear).Methods("POST", "OPTIONS")
	r.HandleFunc("/persons", h.ListPersons).Methods("GET", "OPTIONS")
	r.HandleFunc("/persons", h.CreatePerson).Methods("POST", "OPTIONS")
	r.HandleFunc("/persons/{id}", h.DeletePerson).Methods("DELETE", "OPTIONS")
	r.HandleFunc("/persons/{id}/faces", h.PersonFaces).Methods("GET", "OPTIONS")

	r.Handle("/metrics", h.MetricsHandler()).Methods("GET", "OPTIONS")

	return r
}
