// Package metaextract implements the metadata extractor pool (C7, §4.7):
// width/height for images, width/height/duration/codec for videos via
// ffprobe.
package metaextract

import (
	"context"
	"encoding/json"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/media"
	"github.com/flashcat/flash/internal/mediatypes"
	"github.com/flashcat/flash/internal/metrics"
	"github.com/flashcat/flash/internal/pipeline"
)

const probeTimeout = 15 * time.Second

// Extracted holds the fields metadata extraction can add to an asset.
type Extracted struct {
	TakenAt     *int64
	Width       *int
	Height      *int
	DurationMS  *int64
	CameraMake  string
	CameraModel string
	Lens        string
	ISO         *int
	FNumber     *float64
	Exposure    string
	VideoCodec  string
}

// Pool is a round-robin distributed metadata extractor pool, default 2 workers.
type Pool struct {
	fab     *pipeline.Fabric
	workers int
}

// New constructs a metadata extractor pool (default 2 workers when n <= 0).
func New(fab *pipeline.Fabric, n int) *Pool {
	if n <= 0 {
		n = 2
	}
	return &Pool{fab: fab, workers: n}
}

// Run starts the worker goroutines and blocks until the metadata queue is
// closed and drained. Call in its own goroutine.
func (p *Pool) Run() {
	done := make(chan struct{})
	for i := 0; i < p.workers; i++ {
		go func() {
			p.worker()
			done <- struct{}{}
		}()
	}
	for i := 0; i < p.workers; i++ {
		<-done
	}
}

func (p *Pool) worker() {
	for {
		job, ok := p.fab.RecvMetadata()
		if !ok {
			return
		}
		p.process(job)
	}
}

func (p *Pool) process(job pipeline.MetadataJob) {
	kind := mediatypes.KindFromMIME(job.Item.MIME)
	start := time.Now()

	var extracted Extracted
	var err error
	kindLabel := "image"
	if kind == mediatypes.KindVideo {
		kindLabel = "video"
		extracted, err = extractVideo(job.Item.Path)
	} else {
		extracted, err = extractImage(job.Item.Path)
	}

	status := "success"
	if err != nil {
		status = "error"
		logging.Warn("metadata extraction failed for %s: %v", job.Item.Path, err)
		// §4.7/§7: metadata failures log and proceed with partial attributes.
		extracted = Extracted{}
	}
	metrics.MetaExtractTotal.WithLabelValues(kindLabel, status).Inc()
	metrics.MetaExtractDuration.WithLabelValues(kindLabel).Observe(time.Since(start).Seconds())

	if extracted.TakenAt == nil {
		// No extractor sets TakenAt (EXIF is not read), so capture time is
		// always the file's mtime in seconds.
		t := job.Item.MtimeNS / int64(time.Second)
		extracted.TakenAt = &t
	}

	asset := buildAsset(job, extracted)
	p.fab.SendWrite(pipeline.WriteItem{Asset: asset})
}

func extractImage(path string) (Extracted, error) {
	dims, err := media.GetImageDimensions(path)
	if err != nil {
		return Extracted{}, err
	}
	w, h := dims.Width, dims.Height
	return Extracted{Width: &w, Height: &h}, nil
}

// ffprobeStream mirrors the subset of ffprobe's JSON stream object this
// package needs.
type ffprobeStream struct {
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
	Format  ffprobeFormat   `json:"format"`
}

func extractVideo(path string) (Extracted, error) {
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-show_streams", "-show_format", "-print_format", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return Extracted{}, err
	}

	var probe ffprobeOutput
	if err := json.Unmarshal(out, &probe); err != nil {
		return Extracted{}, err
	}

	var result Extracted
	for _, s := range probe.Streams {
		if s.CodecType == "video" {
			w, h := s.Width, s.Height
			result.Width = &w
			result.Height = &h
			result.VideoCodec = strings.ToLower(s.CodecName)
			break
		}
	}

	if probe.Format.Duration != "" {
		if secs, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
			ms := int64(secs * 1000)
			result.DurationMS = &ms
		}
	}

	return result, nil
}

func buildAsset(job pipeline.MetadataJob, e Extracted) catalog.Asset {
	filename := filepath.Base(job.Item.Path)
	ext := strings.ToLower(filepath.Ext(filename))
	return catalog.Asset{
		ID:          job.AssetID,
		Path:        job.Item.Path,
		ParentDir:   filepath.Dir(job.Item.Path),
		Filename:    filename,
		Ext:         strings.TrimPrefix(ext, "."),
		SizeBytes:   job.Item.SizeBytes,
		MtimeNS:     job.Item.MtimeNS,
		CreatedNS:   job.Item.CreatedNS,
		SHA256:      job.SHA256,
		XXH3:        job.XXH3,
		HasXXH3:     job.HasXXH3,
		MIME:        job.Item.MIME,
		TakenAt:     e.TakenAt,
		Width:       e.Width,
		Height:      e.Height,
		DurationMS:  e.DurationMS,
		CameraMake:  e.CameraMake,
		CameraModel: e.CameraModel,
		Lens:        e.Lens,
		ISO:         e.ISO,
		FNumber:     e.FNumber,
		Exposure:    e.Exposure,
		VideoCodec:  e.VideoCodec,
	}
}
