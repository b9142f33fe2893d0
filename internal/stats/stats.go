package stats

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/flashcat/flash/internal/metrics"
	"github.com/flashcat/flash/internal/pipeline"
)

// Status classifies a live files/sec rate, per §4.13's thresholds
// {0.1, 10, 20, 50}.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusSlow      Status = "slow"
	StatusAverage   Status = "average"
	StatusGood      Status = "good"
	StatusExcellent Status = "excellent"
)

// Classify maps a files/sec rate to a Status.
func Classify(filesPerSec float64) Status {
	switch {
	case filesPerSec < 0.1:
		return StatusIdle
	case filesPerSec < 10:
		return StatusSlow
	case filesPerSec < 20:
		return StatusAverage
	case filesPerSec < 50:
		return StatusGood
	default:
		return StatusExcellent
	}
}

// scanSnapshot holds the baseline counters and frozen rates for the
// current (or most recently completed) scan, per §4.13.
type scanSnapshot struct {
	scanStart          time.Time
	baselineDiscovered int64
	baselineCommitted  int64
	baselineBytes      int64

	discoveryFrozen     bool
	frozenDiscoveryRate float64
	frozenDiscoveryMBps float64

	processingFrozen     bool
	frozenCommitRate     float64
	frozenThroughputMBps float64
}

// Collector accumulates the per-process counters and per-scan snapshots
// described in §4.13. It implements supervisor.StatsSink structurally (no
// import of that package is needed).
type Collector struct {
	started time.Time
	fab     *pipeline.Fabric

	filesDiscovered int64
	filesCommitted  int64
	bytesCommitted  int64

	mu   sync.Mutex
	snap scanSnapshot
}

// New constructs a collector. fab is optional and is only used to report
// live queue depths from Snapshot; pass nil if unavailable.
func New(fab *pipeline.Fabric) *Collector {
	return &Collector{started: time.Now(), fab: fab}
}

// RecordDiscovered implements discover.DiscoveryRecorder.
func (c *Collector) RecordDiscovered() {
	atomic.AddInt64(&c.filesDiscovered, 1)
}

// RecordCommitted implements catalogwriter.CommitRecorder.
func (c *Collector) RecordCommitted(files int, bytes int64) {
	atomic.AddInt64(&c.filesCommitted, int64(files))
	totalBytes := atomic.AddInt64(&c.bytesCommitted, bytes)
	metrics.AssetsBytesTotal.Set(float64(totalBytes))
}

// StartScan implements supervisor.StatsSink: it records the baseline
// counters a scan's live rates are computed against.
func (c *Collector) StartScan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snap = scanSnapshot{
		scanStart:          time.Now(),
		baselineDiscovered: atomic.LoadInt64(&c.filesDiscovered),
		baselineCommitted:  atomic.LoadInt64(&c.filesCommitted),
		baselineBytes:      atomic.LoadInt64(&c.bytesCommitted),
	}
}

// FinishScan implements supervisor.StatsSink: it freezes the discovery
// rate and MB/s before elapsed time keeps climbing, so an idle UI reports
// the last-completed rate rather than decaying toward zero.
func (c *Collector) FinishScan() {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := time.Since(c.snap.scanStart).Seconds()
	if elapsed <= 0 {
		return
	}
	discovered := atomic.LoadInt64(&c.filesDiscovered) - c.snap.baselineDiscovered
	committedBytes := atomic.LoadInt64(&c.bytesCommitted) - c.snap.baselineBytes
	c.snap.frozenDiscoveryRate = float64(discovered) / elapsed
	c.snap.frozenDiscoveryMBps = float64(committedBytes) / elapsed / (1024 * 1024)
	c.snap.discoveryFrozen = true
	metrics.StatsDiscoveryRate.Set(c.snap.frozenDiscoveryRate)
}

// FinishProcessing implements supervisor.StatsSink: it freezes the commit
// rate and throughput once the pipeline has drained.
func (c *Collector) FinishProcessing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	elapsed := time.Since(c.snap.scanStart).Seconds()
	if elapsed <= 0 {
		return
	}
	committed := atomic.LoadInt64(&c.filesCommitted) - c.snap.baselineCommitted
	committedBytes := atomic.LoadInt64(&c.bytesCommitted) - c.snap.baselineBytes
	c.snap.frozenCommitRate = float64(committed) / elapsed
	c.snap.frozenThroughputMBps = float64(committedBytes) / elapsed / (1024 * 1024)
	c.snap.processingFrozen = true
	metrics.StatsCommitRate.Set(c.snap.frozenCommitRate)
}

// Snapshot is the point-in-time payload served by GET /stats and used to
// render /performance.
type Snapshot struct {
	UptimeSeconds        float64
	FilesDiscovered      int64
	FilesCommitted       int64
	BytesCommitted       int64
	BytesCommittedHuman  string

	DiscoveryRateFilesPerSec float64
	DiscoveryMBps            float64
	CommitRateFilesPerSec    float64
	ThroughputMBps           float64
	Status                   Status

	QueueDepths pipeline.Depths
}

// Snapshot reports the live-or-frozen rates per §4.13: while a scan or
// the drain-out after it is still running, rates are computed live
// against the current baseline; once finish_scan/finish_processing has
// fired, the frozen value is reported until the next scan starts.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		UptimeSeconds:   time.Since(c.started).Seconds(),
		FilesDiscovered: atomic.LoadInt64(&c.filesDiscovered),
		FilesCommitted:  atomic.LoadInt64(&c.filesCommitted),
		BytesCommitted:  atomic.LoadInt64(&c.bytesCommitted),
	}
	s.BytesCommittedHuman = humanize.Bytes(uint64(s.BytesCommitted))

	elapsed := time.Since(c.snap.scanStart).Seconds()

	if c.snap.discoveryFrozen {
		s.DiscoveryRateFilesPerSec = c.snap.frozenDiscoveryRate
		s.DiscoveryMBps = c.snap.frozenDiscoveryMBps
	} else if elapsed > 0 {
		discovered := atomic.LoadInt64(&c.filesDiscovered) - c.snap.baselineDiscovered
		bytes := atomic.LoadInt64(&c.bytesCommitted) - c.snap.baselineBytes
		s.DiscoveryRateFilesPerSec = float64(discovered) / elapsed
		s.DiscoveryMBps = float64(bytes) / elapsed / (1024 * 1024)
	}

	if c.snap.processingFrozen {
		s.CommitRateFilesPerSec = c.snap.frozenCommitRate
		s.ThroughputMBps = c.snap.frozenThroughputMBps
	} else if elapsed > 0 {
		committed := atomic.LoadInt64(&c.filesCommitted) - c.snap.baselineCommitted
		bytes := atomic.LoadInt64(&c.bytesCommitted) - c.snap.baselineBytes
		s.CommitRateFilesPerSec = float64(committed) / elapsed
		s.ThroughputMBps = float64(bytes) / elapsed / (1024 * 1024)
	}

	s.Status = Classify(s.DiscoveryRateFilesPerSec)

	if c.fab != nil {
		s.QueueDepths = c.fab.Depths()
	}
	return s
}

// Reset zeroes every counter and snapshot. Callers (the /stats/reset
// handler) must refuse this while any root is scanning.
func (c *Collector) Reset() {
	atomic.StoreInt64(&c.filesDiscovered, 0)
	atomic.StoreInt64(&c.filesCommitted, 0)
	atomic.StoreInt64(&c.bytesCommitted, 0)
	c.mu.Lock()
	c.snap = scanSnapshot{}
	c.mu.Unlock()
	metrics.AssetsBytesTotal.Set(0)
	metrics.StatsDiscoveryRate.Set(0)
	metrics.StatsCommitRate.Set(0)
}
