// Package hash implements the hasher pool (C6, §4.6): xxh3-64 always, plus
// SHA-256 for videos or files under 64 MiB, using mmap for files ≥8 MiB and
// a buffered reader otherwise.
package hash

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/edsrzf/mmap-go"
	"github.com/zeebo/xxh3"

	"github.com/flashcat/flash/internal/filesystem"
	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/mediatypes"
	"github.com/flashcat/flash/internal/memory"
	"github.com/flashcat/flash/internal/metrics"
	"github.com/flashcat/flash/internal/pipeline"
)

const (
	// mmapThreshold is the size at which the mmap strategy replaces the
	// buffered reader, §4.6.
	mmapThreshold = 8 * 1024 * 1024
	// sha256SizeLimit is the size under which non-video files still get a
	// SHA-256 digest, §4.6.
	sha256SizeLimit = 64 * 1024 * 1024
	// chunkSize is the working buffer size for both strategies, §4.6.
	chunkSize = 4 * 1024 * 1024
)

// Result is the outcome of hashing one file.
type Result struct {
	XXH3    uint64
	HasXXH3 bool
	SHA256  []byte // nil when not computed
}

// Pool is a round-robin distributed hasher pool, N workers by default 2.
type Pool struct {
	fab     *pipeline.Fabric
	workers int
	monitor *memory.Monitor
}

// New constructs a hasher pool of the given worker count (default 2 when n <= 0).
func New(fab *pipeline.Fabric, n int) *Pool {
	if n <= 0 {
		n = 2
	}
	return &Pool{fab: fab, workers: n}
}

// SetMonitor attaches a memory monitor; workers block between jobs while it
// reports critical memory pressure (mmap'd hashing is the pipeline's
// largest per-job address-space consumer). Optional.
func (p *Pool) SetMonitor(m *memory.Monitor) {
	p.monitor = m
}

// Run starts the worker goroutines and blocks until the hash queue is
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
		job, ok := p.fab.RecvHash()
		if !ok {
			return
		}
		if p.monitor != nil && !p.monitor.WaitIfPaused() {
			return
		}
		p.process(job)
	}
}

func (p *Pool) process(job pipeline.HashJob) {
	if job.MetadataOnly {
		// Skip-gate bypass: forward straight through with the stored digests.
		p.fab.SendMetadata(pipeline.MetadataJob{
			Item:    job.Item,
			AssetID: job.AssetID,
			XXH3:    job.XXH3,
			HasXXH3: job.HasXXH3,
			SHA256:  job.SHA256,
		})
		return
	}

	kind := mediatypes.KindFromMIME(job.Item.MIME)
	wantSHA256 := kind == mediatypes.KindVideo || job.Item.SizeBytes < sha256SizeLimit

	result, err := HashFile(job.Item.Path, job.Item.SizeBytes, wantSHA256)
	if err != nil {
		logging.Warn("hash failed for %s: %v", job.Item.Path, err)
		// §4.6: hash failures log and proceed with zero xxh3, absent SHA-256.
		result = Result{}
	}

	p.fab.SendMetadata(pipeline.MetadataJob{
		Item:    job.Item,
		AssetID: job.AssetID,
		XXH3:    result.XXH3,
		HasXXH3: result.HasXXH3,
		SHA256:  result.SHA256,
	})
}

// HashFile computes xxh3-64 (always) and, if wantSHA256, SHA-256 over path,
// selecting mmap vs. buffered I/O by size per §4.6.
func HashFile(path string, size int64, wantSHA256 bool) (Result, error) {
	if size >= mmapThreshold {
		return hashMmap(path, wantSHA256)
	}
	return hashBuffered(path, wantSHA256)
}

func hashMmap(path string, wantSHA256 bool) (Result, error) {
	start := time.Now()
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return Result{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return Result{}, fmt.Errorf("mmap: %w", err)
	}
	defer m.Unmap()

	h3 := xxh3.New()
	var sh256 = sha256.New()

	for off := 0; off < len(m); off += chunkSize {
		end := off + chunkSize
		if end > len(m) {
			end = len(m)
		}
		chunk := m[off:end]
		h3.Write(chunk)
		if wantSHA256 {
			sh256.Write(chunk)
		}
	}

	recordHashMetrics("mmap", time.Since(start), int64(len(m)))
	return buildResult(h3.Sum64(), wantSHA256, sh256), nil
}

func hashBuffered(path string, wantSHA256 bool) (Result, error) {
	start := time.Now()
	f, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return Result{}, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	h3 := xxh3.New()
	var sh256 = sha256.New()
	buf := make([]byte, chunkSize)
	var total int64

	for {
		n, err := f.Read(buf)
		if n > 0 {
			h3.Write(buf[:n])
			if wantSHA256 {
				sh256.Write(buf[:n])
			}
			total += int64(n)
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return Result{}, fmt.Errorf("read: %w", err)
		}
	}

	recordHashMetrics("buffered", time.Since(start), total)
	return buildResult(h3.Sum64(), wantSHA256, sh256), nil
}

func buildResult(xxh uint64, wantSHA256 bool, sh256 interface {
	Sum([]byte) []byte
}) Result {
	r := Result{XXH3: xxh, HasXXH3: true}
	if wantSHA256 {
		r.SHA256 = sh256.Sum(nil)
	}
	return r
}

func recordHashMetrics(strategy string, elapsed time.Duration, bytesRead int64) {
	metrics.HashOperationsTotal.WithLabelValues("xxh3", "success").Inc()
	metrics.HashDuration.WithLabelValues("xxh3").Observe(elapsed.Seconds())
	metrics.HashBytesTotal.WithLabelValues(strategy).Add(float64(bytesRead))
}
