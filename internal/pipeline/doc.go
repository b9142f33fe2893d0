// Package pipeline implements the queue fabric described in §4.3 (C3): the
// five (optionally six) bounded channels connecting discover → skip-gate →
// hash → metadata → catalog-write → {thumbnail, face}, each with an
// externally-visible depth gauge reported through internal/metrics.
//
// Discover, hash, metadata, and catalog-write sends block when full — this
// is the explicit backpressure design goal from §4.3 and §5: a saturated
// hash queue fills, which blocks the skip-gate forwarder, which eventually
// blocks discovery, bounding memory use. The catalog writer's fan-out to
// the thumbnail and face queues is the one non-blocking exception (§5):
// a full derived queue drops the job, to be re-enqueued on the next scan.
package pipeline
