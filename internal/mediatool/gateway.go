package mediatool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/metrics"
)

// Typical timeouts, per §4.11.
const (
	ThumbnailGPUTimeout = 2500 * time.Millisecond
	ThumbnailCPUTimeout = 15 * time.Second
	TranscodeTimeout    = 600 * time.Second
	AudioExtractTimeout = 600 * time.Second
)

// cpuEncoders is the prioritized fallback list for CPU-only transcoding,
// per §4.11.
var cpuEncoders = []string{"libx264", "h264_v4l2m2m", "libx265", "h264_qsv", "libvpx-vp9", "libvpx", "mpeg4"}

// gpuEncoderFor maps an Accel to its ffmpeg encoder name.
var gpuEncoderFor = map[Accel]string{
	AccelCUDA:         "h264_nvenc",
	AccelQSV:          "h264_qsv",
	AccelVideoToolbox: "h264_videotoolbox",
}

// HEVCPolicy selects when an MP4 with hevc/h265 gets transcoded, per §4.10.
type HEVCPolicy string

const (
	HEVCAuto   HEVCPolicy = "auto"
	HEVCNever  HEVCPolicy = "never"
	HEVCAlways HEVCPolicy = "always"
)

// Gateway is the media toolchain gateway (C11): process-global accel
// selection plus a GPU circuit breaker shared by every transcode/audio
// job.
type Gateway struct {
	detect  DetectResult
	breaker *breaker
	tempDir string
}

// New detects the accelerator once at startup and constructs the gateway.
func New(accelOverride, tempDir string) *Gateway {
	detect := Detect(accelOverride)
	logging.Info("mediatool: selected accelerator=%s hwaccels=%v nvidia_devices=%d dri_render_nodes=%d opencl=%v",
		detect.Selected, detect.Hwaccels, detect.NvidiaDevices, detect.DRIRenderNodes, detect.OpenCLPresent)
	return &Gateway{detect: detect, breaker: newBreaker(string(detect.Selected)), tempDir: tempDir}
}

// Diag returns the /diag/ffmpeg payload described in SPEC_FULL.md §4.
type Diag struct {
	Hwaccels              []string `json:"hwaccels"`
	NvidiaDevices         int      `json:"nvidia_devices"`
	DRIRenderNodes        int      `json:"dri_render_nodes"`
	OpenCLPresent         bool     `json:"opencl_present"`
	SelectedAccelerator   string   `json:"selected_accelerator"`
	GPUDisabled           bool     `json:"gpu_disabled"`
	ScaleFilterAvailable  bool     `json:"scale_filter_available"`
}

// Diag reports the current toolchain state.
func (g *Gateway) Diag() Diag {
	return Diag{
		Hwaccels:             g.detect.Hwaccels,
		NvidiaDevices:        g.detect.NvidiaDevices,
		DRIRenderNodes:       g.detect.DRIRenderNodes,
		OpenCLPresent:        g.detect.OpenCLPresent,
		SelectedAccelerator:  string(g.detect.Selected),
		GPUDisabled:          g.breaker.isDisabled(),
		ScaleFilterAvailable: g.detect.Selected == AccelCUDA || g.detect.Selected == AccelQSV,
	}
}

// ShouldTranscode decides whether a stored MP4 with codec needs transcoding
// per the HEVC policy, §4.10.
func ShouldTranscode(policy HEVCPolicy, codec string) bool {
	switch policy {
	case HEVCNever:
		return false
	case HEVCAlways:
		return true
	default:
		lower := strings.ToLower(codec)
		return strings.Contains(lower, "hevc") || strings.Contains(lower, "h265")
	}
}

// Transcode produces an H.264/VP9 MP4 or WebM from src at outDir, trying
// the GPU encoder first (if the breaker allows it) and falling back to the
// CPU encoder list, per §4.11. It returns the produced file's path.
func (g *Gateway) Transcode(ctx context.Context, src, outDir string) (string, error) {
	metrics.MediaToolJobsInProgress.Inc()
	defer metrics.MediaToolJobsInProgress.Dec()
	start := time.Now()
	status := "success"
	defer func() {
		metrics.MediaToolJobDuration.WithLabelValues("transcode").Observe(time.Since(start).Seconds())
		metrics.MediaToolJobsTotal.WithLabelValues("transcode", status).Inc()
	}()

	tempName := uuid.NewString()
	if g.breaker.allowGPU() {
		if enc, ok := gpuEncoderFor[g.detect.Selected]; ok {
			out := filepath.Join(outDir, tempName+".mp4")
			if err := g.runTranscode(ctx, src, out, enc, "mp4"); err == nil {
				g.breaker.recordGPUSuccess()
				return out, nil
			}
			g.breaker.recordGPUFailure()
			logging.Warn("mediatool: gpu transcode failed for %s, falling back to cpu", src)
		}
	}
	g.breaker.recordCPUJob()

	for _, enc := range cpuEncoders {
		ext := "mp4"
		if enc == "libvpx-vp9" || enc == "libvpx" {
			ext = "webm"
		}
		out := filepath.Join(outDir, tempName+"."+ext)
		if err := g.runTranscode(ctx, src, out, enc, ext); err == nil {
			return out, nil
		}
		_ = os.Remove(out)
	}
	status = "error"
	return "", fmt.Errorf("transcode %s: all encoders failed", src)
}

func (g *Gateway) runTranscode(ctx context.Context, src, out, encoder, ext string) error {
	args := []string{"-y", "-i", src, "-c:v", encoder, "-pix_fmt", "yuv420p"}
	if ext == "mp4" {
		args = append(args, "-c:a", "aac", "-b:a", "192k", "-movflags", "+faststart")
	} else {
		args = append(args, "-c:a", "libopus", "-b:a", "128k")
	}
	args = append(args, out)

	if _, err := run(ctx, TranscodeTimeout, "ffmpeg", args...); err != nil {
		return err
	}
	info, err := os.Stat(out)
	if err != nil || info.Size() == 0 {
		return fmt.Errorf("transcode produced empty output")
	}
	return nil
}

// audioEncoders is the preference order for MP3 extraction, per §4.10.
var audioEncoders = []string{"libmp3lame", "libshine", "mp3"}

// ExtractAudio transcodes src to MP3 (falling back to AAC/M4A if every MP3
// encoder fails) at outPath, per §4.10.
func (g *Gateway) ExtractAudio(ctx context.Context, src, outPath string) (string, error) {
	metrics.MediaToolJobsInProgress.Inc()
	defer metrics.MediaToolJobsInProgress.Dec()
	start := time.Now()
	status := "success"
	defer func() {
		metrics.MediaToolJobDuration.WithLabelValues("audio_extract").Observe(time.Since(start).Seconds())
		metrics.MediaToolJobsTotal.WithLabelValues("audio_extract", status).Inc()
	}()

	for _, enc := range audioEncoders {
		args := []string{"-y", "-i", src, "-vn", "-c:a", enc, outPath}
		if _, err := run(ctx, AudioExtractTimeout, "ffmpeg", args...); err == nil {
			if info, statErr := os.Stat(outPath); statErr == nil && info.Size() > 0 {
				return outPath, nil
			}
		}
		_ = os.Remove(outPath)
	}

	m4aPath := trimExt(outPath) + ".m4a"
	args := []string{"-y", "-i", src, "-vn", "-c:a", "aac", m4aPath}
	if _, err := run(ctx, AudioExtractTimeout, "ffmpeg", args...); err != nil {
		status = "error"
		return "", fmt.Errorf("audio extraction failed for %s: %w", src, err)
	}
	return m4aPath, nil
}

func trimExt(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)]
}
