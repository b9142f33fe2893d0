package mediatypes

import (
	"mime"
	"strings"
)

// Kind is the coarse discriminator every pipeline stage dispatches on.
// The spec calls for an enumerated discriminator rather than dynamic
// dispatch (§9 "Dynamic dispatch") — a MIME type is the single source of
// truth and Kind is derived from it.
type Kind string

const (
	// KindImage is a still image asset.
	KindImage Kind = "image"
	// KindVideo is a video asset.
	KindVideo Kind = "video"
	// KindOther is neither — never enters the catalog.
	KindOther Kind = "other"
)

// imageExtensions is the fast-path extension table for images.
var imageExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
}

// videoExtensions is the fast-path extension table for videos.
var videoExtensions = map[string]string{
	".mp4":  "video/mp4",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
	".webm": "video/webm",
	".m4v":  "video/x-m4v",
	".mpeg": "video/mpeg",
	".mpg":  "video/mpeg",
	".3gp":  "video/3gpp",
	".ts":   "video/mp2t",
}

// CompatibleVideoCodecs are codecs a browser can typically play directly.
var CompatibleVideoCodecs = map[string]bool{
	"h264": true,
	"vp8":  true,
	"vp9":  true,
	"av1":  true,
}

// CompatibleContainers are container extensions (no dot) a browser can
// typically play directly once the codec is also compatible.
var CompatibleContainers = map[string]bool{
	"mp4":  true,
	"webm": true,
	"ogg":  true,
}

// GuessMIME resolves the MIME type for ext (including the leading dot),
// trying the fast extension table first and falling back to the standard
// library's general resolver (§4.4).
func GuessMIME(ext string) (mimeType string, ok bool) {
	ext = strings.ToLower(ext)
	if m, found := imageExtensions[ext]; found {
		return m, true
	}
	if m, found := videoExtensions[ext]; found {
		return m, true
	}
	if m := mime.TypeByExtension(ext); m != "" {
		t := m
		if i := strings.IndexByte(t, ';'); i >= 0 {
			t = strings.TrimSpace(t[:i])
		}
		if strings.HasPrefix(t, "image/") || strings.HasPrefix(t, "video/") {
			return t, true
		}
	}
	return "", false
}

// KindFromMIME returns the Kind discriminator for a MIME type.
func KindFromMIME(m string) Kind {
	switch {
	case strings.HasPrefix(m, "image/"):
		return KindImage
	case strings.HasPrefix(m, "video/"):
		return KindVideo
	default:
		return KindOther
	}
}
