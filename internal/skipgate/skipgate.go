package skipgate

import (
	"context"

	"github.com/flashcat/flash/internal/catalog"
	"github.com/flashcat/flash/internal/mediatypes"
	"github.com/flashcat/flash/internal/metrics"
	"github.com/flashcat/flash/internal/pipeline"
)

const (
	decisionForwardHash = "forward_hash"
	decisionBypassMeta  = "bypass_metadata"
	decisionSkip        = "skip"
	decisionRehash      = "force_rehash"
)

// Gate is the single consumer of the discover queue that decides, per item,
// whether to skip it, bypass straight to metadata, or forward to hashing.
type Gate struct {
	cat *catalog.Catalog
	fab *pipeline.Fabric
}

// New constructs a skip-gate forwarder.
func New(cat *catalog.Catalog, fab *pipeline.Fabric) *Gate {
	return &Gate{cat: cat, fab: fab}
}

// Run drains the discover queue until it is closed, forwarding each item per
// §4.5. Call in its own goroutine.
func (g *Gate) Run(ctx context.Context) {
	for {
		item, ok := g.fab.RecvDiscover()
		if !ok {
			return
		}
		g.process(ctx, item)
	}
}

func (g *Gate) process(ctx context.Context, item pipeline.DiscoverItem) {
	asset, tupleMatches, err := g.cat.LookupForSkipGate(ctx, catalog.SkipGateKey{
		Path:      item.Path,
		MtimeNS:   item.MtimeNS,
		SizeBytes: item.SizeBytes,
	})
	if err != nil || asset == nil || !tupleMatches {
		metrics.SkipGateDecisionsTotal.WithLabelValues(decisionForwardHash).Inc()
		g.fab.SendHash(pipeline.HashJob{Item: item})
		return
	}

	if !asset.HasSHA256() {
		// Videos require SHA-256 for thumbnail addressing, per §4.5/§9.
		metrics.SkipGateDecisionsTotal.WithLabelValues(decisionRehash).Inc()
		g.fab.SendHash(pipeline.HashJob{Item: item, AssetID: asset.ID})
		return
	}

	isVideo := mediatypes.KindFromMIME(item.MIME) == mediatypes.KindVideo
	if asset.MetadataComplete(isVideo) {
		metrics.SkipGateDecisionsTotal.WithLabelValues(decisionSkip).Inc()
		return
	}

	metrics.SkipGateDecisionsTotal.WithLabelValues(decisionBypassMeta).Inc()
	g.fab.SendMetadata(pipeline.MetadataJob{
		Item:    item,
		AssetID: asset.ID,
		XXH3:    asset.XXH3,
		HasXXH3: asset.HasXXH3,
		SHA256:  asset.SHA256,
	})
}
