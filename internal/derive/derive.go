package derive

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/flashcat/flash/internal/apierr"
	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/filesystem"
	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/media"
	"github.com/flashcat/flash/internal/mediatool"
	"github.com/flashcat/flash/internal/mediatypes"
)

// singleRangeRegex matches the one-range form net/http's Range parser
// accepts ("bytes=start-end"); suffix-length and multi-range requests are
// left to http.ServeFile unmodified.
var singleRangeRegex = regexp.MustCompile(`^bytes=(\d+)-(\d+)$`)

// serveFile serves path via http.ServeFile, first validating any
// single-range Range request against §8: start > end or end >= size must
// fall through to a full 200 response, not net/http's default 416 (for
// start > end) or a silently clamped 206 (for end >= size).
func serveFile(w http.ResponseWriter, r *http.Request, path string) {
	if m := singleRangeRegex.FindStringSubmatch(r.Header.Get("Range")); m != nil {
		start, errStart := strconv.ParseInt(m[1], 10, 64)
		end, errEnd := strconv.ParseInt(m[2], 10, 64)
		if errStart == nil && errEnd == nil {
			if info, statErr := os.Stat(path); statErr == nil && (start > end || end >= info.Size()) {
				r = r.Clone(r.Context())
				r.Header.Del("Range")
			}
		}
	}
	http.ServeFile(w, r, path)
}

// browserCompatibleMIME is the default-playable set, per §4.10 step 2.
var browserCompatibleMIME = map[string]bool{
	"video/mp4":  true,
	"video/webm": true,
	"video/ogg":  true,
}

// Server is the derived-artifact server (C10): thumbnail/preview lookup,
// video streaming with on-demand transcode, audio extraction, and
// soft/hard delete.
type Server struct {
	cat        *catalog.Catalog
	gw         *mediatool.Gateway
	derivedDir string
	hevcPolicy mediatool.HEVCPolicy
}

// New constructs a derived-artifact server.
func New(cat *catalog.Catalog, gw *mediatool.Gateway, derivedDir string, hevcPolicy mediatool.HEVCPolicy) *Server {
	return &Server{cat: cat, gw: gw, derivedDir: derivedDir, hevcPolicy: hevcPolicy}
}

func (s *Server) assetSHAHex(a *catalog.Asset) (string, error) {
	if !a.HasSHA256() {
		return "", apierr.NotFound("asset %d has no derived artifacts yet", a.ID)
	}
	return hex.EncodeToString(a.SHA256), nil
}

// ServeThumb serves the 256px WebP thumbnail for assetID, per §4.10 step 1.
func (s *Server) ServeThumb(w http.ResponseWriter, r *http.Request, assetID int64) {
	s.serveWebP(w, r, assetID, "256")
}

// ServePreview serves the 1600px WebP preview for assetID.
func (s *Server) ServePreview(w http.ResponseWriter, r *http.Request, assetID int64) {
	s.serveWebP(w, r, assetID, "1600")
}

func (s *Server) serveWebP(w http.ResponseWriter, r *http.Request, assetID int64, suffix string) {
	a, err := s.cat.GetByID(r.Context(), assetID)
	if err != nil {
		http.Error(w, err.Error(), apierr.StatusFor(err))
		return
	}
	shaHex, err := s.assetSHAHex(a)
	if err != nil {
		http.Error(w, err.Error(), apierr.StatusFor(err))
		return
	}

	path := media.DerivedPath(s.derivedDir, shaHex, suffix, "webp")
	if _, statErr := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig()); statErr != nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "image/webp")
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	serveFile(w, r, path)
}

// ServeVideo serves a browser-compatible stream for assetID, transcoding
// on demand when the original is not directly playable, per §4.10.
func (s *Server) ServeVideo(w http.ResponseWriter, r *http.Request, assetID int64) {
	a, err := s.cat.GetByID(r.Context(), assetID)
	if err != nil {
		http.Error(w, err.Error(), apierr.StatusFor(err))
		return
	}

	if s.playableAsIs(a) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		serveFile(w, r, a.Path)
		return
	}

	shaHex, shaErr := s.assetSHAHex(a)
	if shaErr == nil {
		for _, ext := range []string{"mp4", "webm"} {
			cached := media.DerivedPath(s.derivedDir, shaHex, "transcoded", ext)
			if _, statErr := filesystem.StatWithRetry(cached, filesystem.DefaultRetryConfig()); statErr == nil {
				w.Header().Set("Access-Control-Allow-Origin", "*")
				serveFile(w, r, cached)
				return
			}
		}
	}

	out, transcodeErr := s.gw.Transcode(r.Context(), a.Path, os.TempDir())
	if transcodeErr != nil {
		logging.Warn("derive: transcode failed for asset %d, serving original: %v", assetID, transcodeErr)
		w.Header().Set("Access-Control-Allow-Origin", "*")
		serveFile(w, r, a.Path)
		return
	}
	defer os.Remove(out)

	if shaErr == nil {
		ext := filepath.Ext(out)
		finalPath := media.DerivedPath(s.derivedDir, shaHex, "transcoded", ext[1:])
		if moveErr := os.Rename(out, finalPath); moveErr == nil {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			serveFile(w, r, finalPath)
			return
		}
	}
	w.Header().Set("Access-Control-Allow-Origin", "*")
	serveFile(w, r, out)
}

// playableAsIs decides whether a's original file can be served directly,
// per §4.10 step 2: MIME in {mp4, webm, ogg} is the default yes, except
// MP4 is gated by the HEVC transcode policy.
func (s *Server) playableAsIs(a *catalog.Asset) bool {
	if !browserCompatibleMIME[a.MIME] {
		return false
	}
	if a.MIME == "video/mp4" && mediatool.ShouldTranscode(s.hevcPolicy, a.VideoCodec) {
		return false
	}
	return true
}

// ServeAudio extracts (or passes through) an MP3/M4A audio stream for
// assetID, per §4.10's audio extraction rule.
func (s *Server) ServeAudio(w http.ResponseWriter, r *http.Request, assetID int64) {
	a, err := s.cat.GetByID(r.Context(), assetID)
	if err != nil {
		http.Error(w, err.Error(), apierr.StatusFor(err))
		return
	}
	kind := mediatypes.KindFromMIME(a.MIME)
	if a.MIME == "audio/mpeg" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		serveFile(w, r, a.Path)
		return
	}
	if kind != mediatypes.KindVideo {
		http.Error(w, "asset has no audio track to extract", http.StatusBadRequest)
		return
	}

	tempOut := filepath.Join(os.TempDir(), fmt.Sprintf("flash-audio-%d.mp3", assetID))
	outPath, extractErr := s.gw.ExtractAudio(r.Context(), a.Path, tempOut)
	if extractErr != nil {
		http.Error(w, extractErr.Error(), http.StatusBadGateway)
		return
	}
	defer os.Remove(outPath)

	w.Header().Set("Access-Control-Allow-Origin", "*")
	serveFile(w, r, outPath)
}

// ServeDownload serves the original file as an attachment.
func (s *Server) ServeDownload(w http.ResponseWriter, r *http.Request, assetID int64) {
	a, err := s.cat.GetByID(r.Context(), assetID)
	if err != nil {
		http.Error(w, err.Error(), apierr.StatusFor(err))
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, a.Filename))
	serveFile(w, r, a.Path)
}

// DeleteSoft removes the catalog row and any derived artifacts, leaving
// the original file on disk untouched.
func (s *Server) DeleteSoft(ctx context.Context, assetID int64) error {
	a, err := s.cat.GetByID(ctx, assetID)
	if err != nil {
		if apierr.Is(err, apierr.KindNotFound) {
			return nil
		}
		return err
	}
	s.removeDerived(a)
	return s.cat.DeleteByID(ctx, assetID)
}

// DeletePermanent removes the original file, then the catalog row and
// derived artifacts. A read-only original surfaces as KindConflict,
// distinct from a generic I/O failure, per §4.10.
func (s *Server) DeletePermanent(ctx context.Context, assetID int64) error {
	a, err := s.cat.GetByID(ctx, assetID)
	if err != nil {
		if apierr.Is(err, apierr.KindNotFound) {
			return nil
		}
		return err
	}

	if rmErr := os.Remove(a.Path); rmErr != nil && !os.IsNotExist(rmErr) {
		if os.IsPermission(rmErr) {
			return apierr.Conflict("asset %d: original file is read-only: %v", assetID, rmErr)
		}
		return apierr.Wrap(apierr.KindStorage, rmErr, "remove original file")
	}

	s.removeDerived(a)
	return s.cat.DeleteByID(ctx, assetID)
}

// BulkDeleteResult is one entry of the per-id result vector POST
// /assets/permanent returns, per §4.10.
type BulkDeleteResult struct {
	AssetID  int64  `json:"asset_id"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
	ReadOnly bool   `json:"read_only,omitempty"`
}

// DeletePermanentBulk runs DeletePermanent for each id, aggregating
// per-id outcomes rather than failing the whole batch on the first error.
func (s *Server) DeletePermanentBulk(ctx context.Context, ids []int64) []BulkDeleteResult {
	results := make([]BulkDeleteResult, 0, len(ids))
	for _, id := range ids {
		err := s.DeletePermanent(ctx, id)
		res := BulkDeleteResult{AssetID: id, OK: err == nil}
		if err != nil {
			res.Error = err.Error()
			res.ReadOnly = apierr.Is(err, apierr.KindConflict)
		}
		results = append(results, res)
	}
	return results
}

func (s *Server) removeDerived(a *catalog.Asset) {
	if !a.HasSHA256() {
		return
	}
	shaHex := hex.EncodeToString(a.SHA256)
	for _, suffix := range []string{"256", "1600"} {
		_ = os.Remove(media.DerivedPath(s.derivedDir, shaHex, suffix, "webp"))
	}
	for _, ext := range []string{"mp4", "webm"} {
		_ = os.Remove(media.DerivedPath(s.derivedDir, shaHex, "transcoded", ext))
	}
}
