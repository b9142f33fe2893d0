package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/flashcat/flash/internal/apierr"
	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/discover"
	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/metrics"
	"github.com/flashcat/flash/internal/pipeline"
)

// drainPollInterval is how often Supervisor polls the fabric for the
// pipeline to drain after a scan completes, approximating §4.13's
// finish_processing event.
const drainPollInterval = 500 * time.Millisecond

// StatsSink receives the three lifecycle events §4.13 freezes rate
// snapshots around.
type StatsSink interface {
	StartScan()
	FinishScan()
	FinishProcessing()
}

type rootState struct {
	scanning bool
	paused   bool
	cancel   context.CancelFunc
}

// Supervisor owns per-root scan/watch lifecycle and the global aggregate
// scanning flag.
type Supervisor struct {
	mu    sync.Mutex
	cat   *catalog.Catalog
	fab   *pipeline.Fabric
	disc  *discover.Discoverer
	stats StatsSink

	roots       map[string]*rootState
	activeScans int
}

// New constructs a supervisor.
func New(cat *catalog.Catalog, fab *pipeline.Fabric, disc *discover.Discoverer, stats StatsSink) *Supervisor {
	return &Supervisor{cat: cat, fab: fab, disc: disc, stats: stats, roots: make(map[string]*rootState)}
}

// AddRoot declares a new root and starts scanning it, refusing if the root
// is already declared or already scanning, per §4.12.
func (s *Supervisor) AddRoot(ctx context.Context, path string) error {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.ScannerOperationDuration.WithLabelValues("add_root").Observe(time.Since(start).Seconds())
		metrics.ScannerOperationsTotal.WithLabelValues("add_root", status).Inc()
	}()

	if _, err := s.cat.AddScanRoot(ctx, path); err != nil {
		status = "error"
		return err
	}
	metrics.ScannerRootsTotal.Inc()
	return s.startRoot(path)
}

// Scan (re)starts scanning an already-declared root, per §4.12.
func (s *Supervisor) Scan(ctx context.Context, path string) error {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.ScannerOperationDuration.WithLabelValues("scan").Observe(time.Since(start).Seconds())
		metrics.ScannerOperationsTotal.WithLabelValues("scan", status).Inc()
	}()

	if _, err := s.cat.GetScanRoot(ctx, path); err != nil {
		status = "error"
		return err
	}
	if err := s.startRoot(path); err != nil {
		status = "error"
		return err
	}
	return nil
}

func (s *Supervisor) startRoot(path string) error {
	s.mu.Lock()
	rs, exists := s.roots[path]
	if !exists {
		rs = &rootState{}
		s.roots[path] = rs
	}
	if rs.scanning {
		s.mu.Unlock()
		return apierr.Conflict("root %q is already scanning", path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	rs.cancel = cancel
	rs.scanning = true
	s.activeScans++
	firstActive := s.activeScans == 1
	s.mu.Unlock()

	metrics.ScannerIsScanning.WithLabelValues(path).Set(1)
	metrics.ScannerGlobalScanning.Set(1)
	if firstActive && s.stats != nil {
		s.stats.StartScan()
	}

	go s.runWatcher(ctx, path, rs)
	go s.runScan(ctx, path, rs)
	return nil
}

func (s *Supervisor) runWatcher(ctx context.Context, path string, rs *rootState) {
	paused := func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return rs.paused
	}
	if err := s.disc.Watch(ctx, path, paused); err != nil && ctx.Err() == nil {
		logging.Warn("supervisor: watcher for %s exited: %v", path, err)
	}
}

func (s *Supervisor) runScan(ctx context.Context, path string, rs *rootState) {
	if err := s.disc.FullScan(ctx, path); err != nil && ctx.Err() == nil {
		logging.Warn("supervisor: full scan of %s failed: %v", path, err)
	}

	s.mu.Lock()
	rs.scanning = false
	s.activeScans--
	lastActive := s.activeScans == 0
	s.mu.Unlock()

	metrics.ScannerIsScanning.WithLabelValues(path).Set(0)
	if lastActive {
		metrics.ScannerGlobalScanning.Set(0)
	}
	if s.stats != nil {
		s.stats.FinishScan()
	}

	if lastActive {
		go s.awaitDrain()
	}
}

// awaitDrain polls the fabric until every queue is empty, then fires
// FinishProcessing, per §4.13: "On finish_processing, freeze the commit
// rate and throughput."
func (s *Supervisor) awaitDrain() {
	if s.fab == nil {
		if s.stats != nil {
			s.stats.FinishProcessing()
		}
		return
	}
	ticker := time.NewTicker(drainPollInterval)
	defer ticker.Stop()
	for range ticker.C {
		if s.fab.Depths().Idle() {
			if s.stats != nil {
				s.stats.FinishProcessing()
			}
			return
		}
	}
}

// Pause clears the per-root running flag and sets the paused flag; watch
// events are dropped while paused, per §4.12.
func (s *Supervisor) Pause(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.roots[path]
	if !ok {
		return apierr.NotFound("root %q is not active", path)
	}
	rs.paused = true
	return nil
}

// Resume clears the paused flag.
func (s *Supervisor) Resume(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.roots[path]
	if !ok {
		return apierr.NotFound("root %q is not active", path)
	}
	rs.paused = false
	return nil
}

// Remove aborts the watcher, deletes every asset under the root, and
// drops the root declaration, per §4.12.
func (s *Supervisor) Remove(ctx context.Context, path string) (assetsDeleted int64, err error) {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.ScannerOperationDuration.WithLabelValues("remove_root").Observe(time.Since(start).Seconds())
		metrics.ScannerOperationsTotal.WithLabelValues("remove_root", status).Inc()
	}()

	s.mu.Lock()
	rs, ok := s.roots[path]
	if ok && rs.cancel != nil {
		rs.cancel()
	}
	delete(s.roots, path)
	s.mu.Unlock()

	n, delErr := s.cat.DeleteByPathPrefix(ctx, path)
	if delErr != nil {
		status = "error"
		err = delErr
		return 0, err
	}
	if remErr := s.cat.RemoveScanRoot(ctx, path); remErr != nil {
		status = "error"
		err = remErr
		return 0, err
	}
	metrics.ScannerRootsTotal.Dec()
	return n, nil
}

// ClearAll wipes every asset and scan root, refused while any scan is
// running, per §4.12.
func (s *Supervisor) ClearAll(ctx context.Context) (int64, error) {
	s.mu.Lock()
	running := s.activeScans > 0
	s.mu.Unlock()
	if running {
		return 0, apierr.Conflict("cannot clear while a scan is running")
	}

	n, err := s.cat.ClearAll(ctx)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	s.roots = make(map[string]*rootState)
	s.mu.Unlock()
	metrics.ScannerRootsTotal.Set(0)
	return n, nil
}

// Status reports whether path is currently scanning and/or paused, per
// `GET /paths/status`. A path never added returns scanning=false,
// paused=false rather than an error: the caller just hasn't scanned it yet.
func (s *Supervisor) Status(path string) (scanning, paused bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rs, ok := s.roots[path]
	if !ok {
		return false, false
	}
	return rs.scanning, rs.paused
}

// IsAnyScanning reports the global aggregate scanning flag.
func (s *Supervisor) IsAnyScanning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeScans > 0
}
