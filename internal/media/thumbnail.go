package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/davidbyttow/govips/v2/vips"

	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/mediatypes"
	"github.com/flashcat/flash/internal/metrics"
	"github.com/flashcat/flash/internal/pipeline"
)

// webpQuality is used for both thumb and preview exports.
const webpQuality = 82

// frameExtractTimeout bounds the ffmpeg single-frame extraction used for
// video thumbnails, per §4.11's "thumbnail CPU 15s" typical timeout.
const frameExtractTimeout = 15 * time.Second

// ThumbPool is the thumbnailer pool (C9) of §4.9: for every job it produces
// both the thumb (256px) and preview (1600px) WebP artifacts in one task.
type ThumbPool struct {
	fab         *pipeline.Fabric
	workers     int
	derivedDir  string
	thumbSize   int
	previewSize int
}

// NewThumbPool constructs a thumbnailer pool.
func NewThumbPool(fab *pipeline.Fabric, workers int, derivedDir string, thumbSize, previewSize int) *ThumbPool {
	if workers <= 0 {
		workers = 1
	}
	return &ThumbPool{fab: fab, workers: workers, derivedDir: derivedDir, thumbSize: thumbSize, previewSize: previewSize}
}

// Run starts the worker goroutines and blocks until the thumbnail queue is
// closed and drained. Call in its own goroutine.
func (p *ThumbPool) Run() {
	done := make(chan struct{})
	for i := 0; i < p.workers; i++ {
		go func() {
			for {
				job, ok := p.fab.RecvThumb()
				if !ok {
					break
				}
				p.process(job)
			}
			done <- struct{}{}
		}()
	}
	for i := 0; i < p.workers; i++ {
		<-done
	}
}

// DerivedPath computes the content-addressed path for a derived artifact,
// per §4.9: <derived>/<sha[0..2]>/<sha>-<suffix>.<ext>.
func DerivedPath(derivedDir, shaHex, suffix, ext string) string {
	prefix := shaHex
	if len(prefix) > 2 {
		prefix = prefix[:2]
	}
	return filepath.Join(derivedDir, prefix, fmt.Sprintf("%s-%s.%s", shaHex, suffix, ext))
}

func (p *ThumbPool) process(job pipeline.ThumbJob) {
	thumbPath := DerivedPath(p.derivedDir, job.SHAHex, "256", "webp")
	previewPath := DerivedPath(p.derivedDir, job.SHAHex, "1600", "webp")

	// Existing target files are kept, per §4.9.
	_, thumbErr := os.Stat(thumbPath)
	_, previewErr := os.Stat(previewPath)
	if thumbErr == nil && previewErr == nil {
		return
	}

	kind := mediatypes.KindFromMIME(job.MIME)
	var srcJPEG []byte
	var err error

	if kind == mediatypes.KindVideo {
		srcJPEG, err = extractVideoFrame(job.Path)
	}

	if thumbErr != nil {
		p.generate(job, "thumb", thumbPath, p.thumbSize, kind, srcJPEG, err)
	}
	if previewErr != nil {
		p.generate(job, "preview", previewPath, p.previewSize, kind, srcJPEG, err)
	}
}

func (p *ThumbPool) generate(job pipeline.ThumbJob, artifact, outPath string, size int, kind mediatypes.Kind, videoFrame []byte, frameErr error) {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.ThumbnailGenerationDuration.WithLabelValues(artifact).Observe(time.Since(start).Seconds())
		metrics.ThumbnailGenerationsTotal.WithLabelValues(artifact, status).Inc()
	}()

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		status = "error"
		logging.Warn("thumbnail: mkdir for %s: %v", outPath, err)
		return
	}

	var ref *vips.ImageRef
	var err error
	decodeStart := time.Now()

	importParams := vips.NewImportParams()
	switch kind {
	case mediatypes.KindVideo:
		if frameErr != nil {
			status = "error"
			logging.Warn("thumbnail: extract frame for %s: %v", job.Path, frameErr)
			return
		}
		ref, err = vips.LoadImageFromBuffer(videoFrame, importParams)
		metrics.ThumbnailImageDecodeByFormat.WithLabelValues("jpeg").Inc()
	default:
		ref, err = vips.LoadImageFromFile(job.Path, importParams)
		metrics.ThumbnailImageDecodeByFormat.WithLabelValues(filepath.Ext(job.Path)).Inc()
	}
	metrics.ThumbnailGenerationDurationDetailed.WithLabelValues(artifact, "decode").Observe(time.Since(decodeStart).Seconds())
	if err != nil {
		status = "error"
		logging.Warn("thumbnail: decode %s: %v", job.Path, err)
		return
	}
	defer ref.Close()

	resizeStart := time.Now()
	if err := ref.Thumbnail(size, size, vips.InterestingNone); err != nil {
		status = "error"
		logging.Warn("thumbnail: resize %s: %v", job.Path, err)
		return
	}
	metrics.ThumbnailGenerationDurationDetailed.WithLabelValues(artifact, "resize").Observe(time.Since(resizeStart).Seconds())

	encodeStart := time.Now()
	webpBytes, _, err := ref.ExportWebp(&vips.WebpExportParams{Quality: webpQuality})
	metrics.ThumbnailGenerationDurationDetailed.WithLabelValues(artifact, "encode").Observe(time.Since(encodeStart).Seconds())
	if err != nil {
		status = "error"
		logging.Warn("thumbnail: encode %s: %v", job.Path, err)
		return
	}
	metrics.ThumbnailMemoryUsageBytes.WithLabelValues(artifact).Set(float64(len(webpBytes)))

	if err := writeAtomically(outPath, webpBytes); err != nil {
		status = "error"
		logging.Warn("thumbnail: write %s: %v", outPath, err)
	}
}

// writeAtomically writes data to a temp file in the same directory then
// renames over path, removing the partial file on any failure, per §4.9
// "on any write failure the partial output is removed."
func writeAtomically(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// extractVideoFrame pulls a single MJPEG frame at 1s into memory via ffmpeg,
// per §4.9. GPU seek-before-input vs. CPU seek-after-input is §4.11's
// concern; this always uses the portable seek-after-input form since the
// thumbnailer itself has no GPU affinity.
func extractVideoFrame(path string) ([]byte, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), frameExtractTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-i", path,
		"-ss", "1",
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	)
	out, err := cmd.Output()
	metrics.ThumbnailFFmpegDuration.WithLabelValues("video").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction: %w", err)
	}
	return out, nil
}

// RotateOriginal rewrites the original file in place, rotated by degrees
// (which must be a multiple of 90), per §4/Open-Question-2: no backup is
// kept.
func RotateOriginal(path string, degrees int) error {
	normalized := ((degrees % 360) + 360) % 360
	if normalized%90 != 0 {
		return fmt.Errorf("rotation %d is not a multiple of 90 degrees", degrees)
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return fmt.Errorf("load for rotation: %w", err)
	}
	defer ref.Close()

	var angle vips.Angle
	switch normalized {
	case 90:
		angle = vips.Angle90
	case 180:
		angle = vips.Angle180
	case 270:
		angle = vips.Angle270
	default:
		angle = vips.Angle0
	}
	if angle != vips.Angle0 {
		if err := ref.Rotate(angle); err != nil {
			return fmt.Errorf("rotate: %w", err)
		}
	}

	ext := filepath.Ext(path)
	var out []byte
	switch ext {
	case ".png":
		out, _, err = ref.ExportPng(&vips.PngExportParams{})
	default:
		out, _, err = ref.ExportJpeg(&vips.JpegExportParams{Quality: 95})
	}
	if err != nil {
		return fmt.Errorf("export rotated image: %w", err)
	}

	return writeAtomically(path, out)
}
