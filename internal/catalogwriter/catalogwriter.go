package catalogwriter

import (
	"context"
	"encoding/hex"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/logging"
	"github.com/flashcat/flash/internal/mediatypes"
	"github.com/flashcat/flash/internal/metrics"
	"github.com/flashcat/flash/internal/pipeline"
)

const (
	batchMaxRows  = 500
	batchMaxDelay = 2 * time.Second

	// dispatchConcurrency bounds the parallel per-row derived-job dispatch
	// below, since each face-detect row does a blocking AssetHasFaces
	// round-trip and a 500-row batch shouldn't serialize on it.
	dispatchConcurrency = 8
)

// CommitRecorder receives per-batch commit totals, per §4.13's "files
// committed" and "bytes total (from committed rows)" counters.
type CommitRecorder interface {
	RecordCommitted(files int, bytes int64)
}

// Writer is the single catalog-write consumer described in §4.8.
type Writer struct {
	cat          *catalog.Catalog
	fab          *pipeline.Fabric
	facesEnabled bool
	stats        CommitRecorder
}

// New constructs a catalog writer.
func New(cat *catalog.Catalog, fab *pipeline.Fabric, facesEnabled bool) *Writer {
	return &Writer{cat: cat, fab: fab, facesEnabled: facesEnabled}
}

// SetStats attaches the runtime statistics collector. Optional.
func (w *Writer) SetStats(s CommitRecorder) {
	w.stats = s
}

// Run drains the write queue, batching by size or time, until the queue is
// closed and drained. Call in its own goroutine. A commit failure is fatal:
// the fatalFn callback (typically the process exit path) is invoked after
// logging and incrementing the fatal-error counter.
func (w *Writer) Run(fatalFn func(error)) {
	batch := make([]*catalog.Asset, 0, batchMaxRows)
	timer := time.NewTimer(batchMaxDelay)
	defer timer.Stop()

	flush := func(trigger string) {
		if len(batch) == 0 {
			return
		}
		if err := w.commit(batch, trigger); err != nil {
			metrics.CatalogWriterFatalErrors.Inc()
			logging.Error("catalog writer: commit failed, exiting: %v", err)
			if fatalFn != nil {
				fatalFn(err)
			}
		}
		batch = make([]*catalog.Asset, 0, batchMaxRows)
	}

	for {
		select {
		case item, ok := <-w.fab.Write:
			if !ok {
				flush("shutdown")
				return
			}
			asset := item.Asset
			batch = append(batch, &asset)
			if len(batch) >= batchMaxRows {
				flush("size")
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(batchMaxDelay)
			}
		case <-timer.C:
			flush("time")
			timer.Reset(batchMaxDelay)
		}
	}
}

func (w *Writer) commit(batch []*catalog.Asset, trigger string) error {
	ctx := context.Background()
	start := time.Now()
	ids, err := w.cat.BatchUpsert(ctx, batch)
	metrics.CatalogWriterCommitDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return err
	}
	metrics.CatalogWriterBatchesTotal.WithLabelValues(trigger).Inc()
	metrics.CatalogWriterBatchSize.Observe(float64(len(batch)))

	if w.stats != nil {
		var bytes int64
		for _, a := range batch {
			bytes += a.SizeBytes
		}
		w.stats.RecordCommitted(len(batch), bytes)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(dispatchConcurrency)
	for i, a := range batch {
		i, a := i, a
		g.Go(func() error {
			w.dispatchDerivedJobs(gCtx, ids[i], a)
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

// dispatchDerivedJobs enqueues the thumbnail job and, when eligible, the
// face-detect job for one committed row. Errors are logged, not returned:
// a derived-job dispatch failure never fails the batch commit it followed.
func (w *Writer) dispatchDerivedJobs(ctx context.Context, id int64, a *catalog.Asset) {
	if !a.HasSHA256() {
		logging.Warn("catalog writer: asset %s committed without sha256, skipping derived-artifact jobs", a.Path)
		return
	}
	shaHex := hex.EncodeToString(a.SHA256)
	if !w.fab.SendThumbNonBlocking(pipeline.ThumbJob{AssetID: id, Path: a.Path, SHAHex: shaHex, MIME: a.MIME}) {
		logging.Warn("catalog writer: thumbnail queue full, dropping job for %s", a.Path)
	}
	if w.facesEnabled && mediatypes.KindFromMIME(a.MIME) == mediatypes.KindImage {
		hasFaces, faceErr := w.cat.AssetHasFaces(ctx, id)
		if faceErr != nil {
			logging.Warn("catalog writer: face existence check failed for %s: %v", a.Path, faceErr)
		} else if !hasFaces {
			if !w.fab.SendFaceNonBlocking(pipeline.FaceJob{AssetID: id, Path: a.Path}) {
				logging.Warn("catalog writer: face queue full, dropping job for %s", a.Path)
			}
		}
	}
}
