// Package skipgate implements the skip-gate forwarder (C5) of §4.5: the
// re-scan efficiency mechanism standing between the discover queue and the
// hash queue.
//
// For each discovered item it looks up the catalog by (path, mtime_ns,
// size_bytes). An unchanged row with complete metadata is skipped entirely;
// an unchanged row missing only metadata bypasses hashing and carries its
// stored xxh3/SHA-256 straight to the metadata queue; anything else (no
// row, or a row with no SHA-256) is forwarded to the hasher. size_bytes is
// never omitted from the lookup key and a missing SHA-256 always forces a
// re-hash, per §9's invariant.
package skipgate
