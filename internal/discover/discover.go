package discover

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/filesystem"
	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/mediatypes"
	"github.com/flashcat/flash/internal/metrics"
	"github.com/flashcat/flash/internal/pipeline"
)

// batchSize is a discovery batch size. Nothing in this package uses it:
// FullScan and the watcher send discovered items one at a time.
const batchSize = 1000

// cancelCheckInterval is how often (in enumerated entries) the cancellation
// flag is consulted during traversal, per §4.4.
const cancelCheckInterval = 100

// DiscoveryRecorder receives one notification per discovered candidate
// file, counted independently of whether it was actually enqueued, per
// §4.13: "files discovered (incremented on each discovered image/video,
// not on queue send)."
type DiscoveryRecorder interface {
	RecordDiscovered()
}

// Discoverer walks a root in full-scan mode and watches it in fsnotify
// mode, emitting candidate files onto the discover queue.
type Discoverer struct {
	fab   *pipeline.Fabric
	cat   *catalog.Catalog
	stats DiscoveryRecorder
}

// New constructs a discoverer.
func New(fab *pipeline.Fabric, cat *catalog.Catalog) *Discoverer {
	return &Discoverer{fab: fab, cat: cat}
}

// SetStats attaches the runtime statistics collector. Optional; discovery
// works without one.
func (d *Discoverer) SetStats(s DiscoveryRecorder) {
	d.stats = s
}

func (d *Discoverer) recordDiscovered() {
	if d.stats != nil {
		d.stats.RecordDiscovered()
	}
}

// FullScan performs a breadth-first walk under root, skipping hidden
// entries and .flashignore matches, pre-filtering by extension before any
// stat call, and emitting items whose resolved MIME begins with image/ or
// video/. It returns when the walk completes or ctx is cancelled.
func (d *Discoverer) FullScan(ctx context.Context, root string) error {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.ScannerOperationDuration.WithLabelValues("full_scan").Observe(time.Since(start).Seconds())
		metrics.ScannerOperationsTotal.WithLabelValues("full_scan", status).Inc()
	}()
	metrics.DiscoverRunsTotal.WithLabelValues(root).Inc()

	ignores := loadIgnoreSet(root)
	queue := []string{root}
	entryCount := 0
	dirsWalked := int64(0)

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]
		dirsWalked++

		entries, err := filesystem.ReadDirWithRetry(dir, filesystem.DefaultRetryConfig())
		if err != nil {
			logging.Warn("discover: read dir %s: %v", dir, err)
			continue
		}

		for _, entry := range entries {
			entryCount++
			if entryCount%cancelCheckInterval == 0 {
				select {
				case <-ctx.Done():
					status = "cancelled"
					return ctx.Err()
				default:
				}
			}

			name := entry.Name()
			if strings.HasPrefix(name, ".") {
				continue
			}
			full := filepath.Join(dir, name)
			rel, relErr := filepath.Rel(root, full)
			if relErr != nil {
				rel = name
			}
			if ignores.Matches(rel) {
				continue
			}

			if entry.IsDir() {
				queue = append(queue, full)
				continue
			}

			ext := strings.ToLower(filepath.Ext(name))
			mimeType, ok := mediatypes.GuessMIME(ext)
			if !ok {
				continue
			}
			kind := mediatypes.KindFromMIME(mimeType)
			if kind == mediatypes.KindOther {
				continue
			}

			info, statErr := filesystem.StatWithRetry(full, filesystem.DefaultRetryConfig())
			if statErr != nil {
				logging.Warn("discover: stat %s: %v", full, statErr)
				continue
			}

			item := pipeline.DiscoverItem{
				Path:      full,
				SizeBytes: info.Size(),
				MtimeNS:   info.ModTime().UnixNano(),
				MIME:      mimeType,
			}
			d.recordDiscovered()
			d.emit(ctx, item)
			metrics.DiscoverFilesEmitted.WithLabelValues(root).Inc()
		}
	}

	metrics.DiscoverDirsWalked.WithLabelValues(root).Add(float64(dirsWalked))
	return nil
}

// emit sends item onto the discover queue, trying a non-blocking send
// first and downgrading to a blocking send when the queue is full, per
// §4.4's batching rule.
func (d *Discoverer) emit(ctx context.Context, item pipeline.DiscoverItem) {
	if d.fab.TrySendDiscover(item) {
		return
	}
	select {
	case <-ctx.Done():
	default:
		d.fab.SendDiscover(item)
	}
}

// Watch runs an fsnotify-based recursive watch under root until ctx is
// cancelled. paused, when non-nil, is consulted before processing any
// event — set it to suspend watching without tearing down the watcher.
func (d *Discoverer) Watch(ctx context.Context, root string, paused func() bool) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := d.addRecursive(watcher, root); err != nil {
		return err
	}
	metrics.DiscoverWatchedRoots.Inc()
	defer metrics.DiscoverWatchedRoots.Dec()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if paused != nil && paused() {
				continue
			}
			d.handleEvent(ctx, watcher, event)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			metrics.DiscoverWatchErrors.WithLabelValues(root).Inc()
			logging.Warn("discover: watch error for %s: %v", root, err)
		}
	}
}

func (d *Discoverer) addRecursive(watcher *fsnotify.Watcher, root string) error {
	entries, err := filesystem.ReadDirWithRetry(root, filesystem.DefaultRetryConfig())
	if err != nil {
		return watcher.Add(root)
	}
	if err := watcher.Add(root); err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			_ = d.addRecursive(watcher, filepath.Join(root, entry.Name()))
		}
	}
	return nil
}

func (d *Discoverer) handleEvent(ctx context.Context, watcher *fsnotify.Watcher, event fsnotify.Event) {
	op := "other"
	switch {
	case event.Op&fsnotify.Create != 0:
		op = "create"
	case event.Op&fsnotify.Write != 0:
		op = "write"
	case event.Op&fsnotify.Remove != 0:
		op = "remove"
	case event.Op&fsnotify.Rename != 0:
		op = "rename"
	}
	metrics.DiscoverWatchEventsTotal.WithLabelValues(filepath.Dir(event.Name), op).Inc()

	if op == "remove" || op == "rename" {
		if d.cat != nil {
			if err := d.cat.DeleteByPath(ctx, event.Name); err != nil {
				logging.Warn("discover: delete-by-path %s: %v", event.Name, err)
			}
		}
		return
	}

	info, err := filesystem.StatWithRetry(event.Name, filesystem.DefaultRetryConfig())
	if err != nil {
		return
	}
	if info.IsDir() {
		if op == "create" {
			_ = d.addRecursive(watcher, event.Name)
		}
		return
	}

	name := filepath.Base(event.Name)
	ext := strings.ToLower(filepath.Ext(name))
	mimeType, ok := mediatypes.GuessMIME(ext)
	if !ok || mediatypes.KindFromMIME(mimeType) == mediatypes.KindOther {
		return
	}

	d.recordDiscovered()
	d.emit(ctx, pipeline.DiscoverItem{
		Path:      event.Name,
		SizeBytes: info.Size(),
		MtimeNS:   info.ModTime().UnixNano(),
		MIME:      mimeType,
	})
}
