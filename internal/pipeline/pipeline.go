// Package pipeline owns the bounded channels of §4.3/C3 — discover, hash,
// metadata, catalog-write, and thumbnail (plus an optional face queue when
// face detection is compiled in) — along with their depth gauges. It is the
// queue fabric other packages send to and receive from; it does not itself
// run any worker goroutines.
package pipeline

import (
	"sync/atomic"

	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/metrics"
)

// Queue name labels, matching the comment on metrics.QueueDepth.
const (
	QueueDiscover     = "discover"
	QueueHash         = "hash"
	QueueMetadata     = "metaextract"
	QueueCatalogWrite = "catalog_write"
	QueueThumbnail    = "thumbnail"
	QueueFace         = "face"
)

// Capacities, per §4.3.
const (
	discoverCapacity = 100_000
	hashCapacity     = 4_096
	metadataCapacity = 4_096
	writeCapacity    = 65_536
	thumbCapacity    = 16_384
	faceCapacity     = 16_384
)

// DiscoverItem is one candidate file emitted by the discoverer, per §4.4.
type DiscoverItem struct {
	Path      string
	SizeBytes int64
	MtimeNS   int64
	CreatedNS int64
	MIME      string
}

// HashJob is a unit of work for the hasher pool, per §4.6. MetadataOnly
// distinguishes the skip-gate bypass case (§4.5: row exists with SHA-256 but
// incomplete metadata) from a normal hash-then-extract job.
type HashJob struct {
	Item         DiscoverItem
	AssetID      int64 // 0 when the asset is not yet in the catalog
	MetadataOnly bool
	XXH3         uint64
	HasXXH3      bool
	SHA256       []byte
}

// MetadataJob carries a hashed (or skip-gate-bypassed) item into the
// metadata extractor pool, per §4.7.
type MetadataJob struct {
	Item    DiscoverItem
	AssetID int64
	XXH3    uint64
	HasXXH3 bool
	SHA256  []byte
}

// WriteItem is a fully-extracted asset ready for the catalog writer, §4.8.
type WriteItem struct {
	Asset catalog.Asset
}

// ThumbJob is a derived-artifact generation request, §4.9.
type ThumbJob struct {
	AssetID int64
	Path    string
	SHAHex  string
	MIME    string
}

// FaceJob is a face-detection request for the optional downstream consumer,
// per §3's "pluggable downstream consumer" description.
type FaceJob struct {
	AssetID int64
	Path    string
}

// Fabric is the queue fabric: five (or six) bounded multi-producer,
// single-or-multi-consumer channels plus their atomic depth gauges.
type Fabric struct {
	Discover chan DiscoverItem
	Hash     chan HashJob
	Metadata chan MetadataJob
	Write    chan WriteItem
	Thumb    chan ThumbJob
	Face     chan FaceJob // nil unless faces are enabled

	depths struct {
		discover, hash, metadata, write, thumb, face int64
	}
}

// NewFabric constructs the fabric. facesEnabled controls whether the sixth
// (face) queue is allocated at all.
func NewFabric(facesEnabled bool) *Fabric {
	f := &Fabric{
		Discover: make(chan DiscoverItem, discoverCapacity),
		Hash:     make(chan HashJob, hashCapacity),
		Metadata: make(chan MetadataJob, metadataCapacity),
		Write:    make(chan WriteItem, writeCapacity),
		Thumb:    make(chan ThumbJob, thumbCapacity),
	}
	if facesEnabled {
		f.Face = make(chan FaceJob, faceCapacity)
	}

	metrics.QueueCapacity.WithLabelValues(QueueDiscover).Set(discoverCapacity)
	metrics.QueueCapacity.WithLabelValues(QueueHash).Set(hashCapacity)
	metrics.QueueCapacity.WithLabelValues(QueueMetadata).Set(metadataCapacity)
	metrics.QueueCapacity.WithLabelValues(QueueCatalogWrite).Set(writeCapacity)
	metrics.QueueCapacity.WithLabelValues(QueueThumbnail).Set(thumbCapacity)
	if facesEnabled {
		metrics.QueueCapacity.WithLabelValues(QueueFace).Set(faceCapacity)
	}

	return f
}

// SendDiscover blocks until the item is enqueued, providing the backpressure
// the spec calls for: a saturated hash queue eventually blocks discovery.
func (f *Fabric) SendDiscover(item DiscoverItem) {
	f.Discover <- item
	n := atomic.AddInt64(&f.depths.discover, 1)
	metrics.QueueDepth.WithLabelValues(QueueDiscover).Set(float64(n))
}

// TrySendDiscover attempts a non-blocking send, reporting whether it
// succeeded. Per §4.4, discovery batches use non-blocking sends and
// downgrade to SendDiscover's blocking send only once the queue is full.
func (f *Fabric) TrySendDiscover(item DiscoverItem) bool {
	select {
	case f.Discover <- item:
		n := atomic.AddInt64(&f.depths.discover, 1)
		metrics.QueueDepth.WithLabelValues(QueueDiscover).Set(float64(n))
		return true
	default:
		return false
	}
}

// RecvDiscover receives from the discover queue. ok is false once the
// channel is closed and drained.
func (f *Fabric) RecvDiscover() (item DiscoverItem, ok bool) {
	item, ok = <-f.Discover
	if ok {
		n := atomic.AddInt64(&f.depths.discover, -1)
		metrics.QueueDepth.WithLabelValues(QueueDiscover).Set(float64(n))
	}
	return item, ok
}

func (f *Fabric) SendHash(job HashJob) {
	f.Hash <- job
	n := atomic.AddInt64(&f.depths.hash, 1)
	metrics.QueueDepth.WithLabelValues(QueueHash).Set(float64(n))
}

func (f *Fabric) RecvHash() (job HashJob, ok bool) {
	job, ok = <-f.Hash
	if ok {
		n := atomic.AddInt64(&f.depths.hash, -1)
		metrics.QueueDepth.WithLabelValues(QueueHash).Set(float64(n))
	}
	return job, ok
}

func (f *Fabric) SendMetadata(job MetadataJob) {
	f.Metadata <- job
	n := atomic.AddInt64(&f.depths.metadata, 1)
	metrics.QueueDepth.WithLabelValues(QueueMetadata).Set(float64(n))
}

func (f *Fabric) RecvMetadata() (job MetadataJob, ok bool) {
	job, ok = <-f.Metadata
	if ok {
		n := atomic.AddInt64(&f.depths.metadata, -1)
		metrics.QueueDepth.WithLabelValues(QueueMetadata).Set(float64(n))
	}
	return job, ok
}

func (f *Fabric) SendWrite(item WriteItem) {
	f.Write <- item
	n := atomic.AddInt64(&f.depths.write, 1)
	metrics.QueueDepth.WithLabelValues(QueueCatalogWrite).Set(float64(n))
}

func (f *Fabric) RecvWrite() (item WriteItem, ok bool) {
	item, ok = <-f.Write
	if ok {
		n := atomic.AddInt64(&f.depths.write, -1)
		metrics.QueueDepth.WithLabelValues(QueueCatalogWrite).Set(float64(n))
	}
	return item, ok
}

// SendThumbNonBlocking is the catalog writer's fan-out to the thumbnailer,
// per §4.8/§5: a full channel drops the job silently rather than blocking
// the single writer. Returns false if the job was dropped.
func (f *Fabric) SendThumbNonBlocking(job ThumbJob) bool {
	select {
	case f.Thumb <- job:
		n := atomic.AddInt64(&f.depths.thumb, 1)
		metrics.QueueDepth.WithLabelValues(QueueThumbnail).Set(float64(n))
		return true
	default:
		metrics.QueueDropsTotal.WithLabelValues(QueueThumbnail).Inc()
		return false
	}
}

func (f *Fabric) RecvThumb() (job ThumbJob, ok bool) {
	job, ok = <-f.Thumb
	if ok {
		n := atomic.AddInt64(&f.depths.thumb, -1)
		metrics.QueueDepth.WithLabelValues(QueueThumbnail).Set(float64(n))
	}
	return job, ok
}

// SendFaceNonBlocking mirrors SendThumbNonBlocking for the optional face
// queue. Returns false (without panicking) when faces are disabled.
func (f *Fabric) SendFaceNonBlocking(job FaceJob) bool {
	if f.Face == nil {
		return false
	}
	select {
	case f.Face <- job:
		n := atomic.AddInt64(&f.depths.face, 1)
		metrics.QueueDepth.WithLabelValues(QueueFace).Set(float64(n))
		return true
	default:
		metrics.QueueDropsTotal.WithLabelValues(QueueFace).Inc()
		return false
	}
}

func (f *Fabric) RecvFace() (job FaceJob, ok bool) {
	if f.Face == nil {
		return FaceJob{}, false
	}
	job, ok = <-f.Face
	if ok {
		n := atomic.AddInt64(&f.depths.face, -1)
		metrics.QueueDepth.WithLabelValues(QueueFace).Set(float64(n))
	}
	return job, ok
}

// Depths is a point-in-time snapshot of every queue's depth gauge.
type Depths struct {
	Discover, Hash, Metadata, Write, Thumb, Face int64
}

// Depths snapshots every queue depth, used by the supervisor to detect
// when the pipeline has drained after a scan completes (§4.13
// finish_processing).
func (f *Fabric) Depths() Depths {
	return Depths{
		Discover: atomic.LoadInt64(&f.depths.discover),
		Hash:     atomic.LoadInt64(&f.depths.hash),
		Metadata: atomic.LoadInt64(&f.depths.metadata),
		Write:    atomic.LoadInt64(&f.depths.write),
		Thumb:    atomic.LoadInt64(&f.depths.thumb),
		Face:     atomic.LoadInt64(&f.depths.face),
	}
}

// Idle reports whether every queue is currently empty.
func (d Depths) Idle() bool {
	return d.Discover == 0 && d.Hash == 0 && d.Metadata == 0 && d.Write == 0 && d.Thumb == 0 && d.Face == 0
}

// Close closes every channel this fabric owns. Call once, after all
// producers have stopped sending.
func (f *Fabric) Close() {
	close(f.Discover)
	close(f.Hash)
	close(f.Metadata)
	close(f.Write)
	close(f.Thumb)
	if f.Face != nil {
		close(f.Face)
	}
}
