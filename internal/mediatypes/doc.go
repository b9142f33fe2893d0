// Package mediatypes provides shared type definitions and utilities for media
// file classification across the flash indexer.
//
// It exists as a dependency-free foundation other packages can import without
// creating import cycles: pure functions and constants, nothing beyond the
// standard library.
//
// # Kind
//
// Kind is the coarse image/video/other discriminator every pipeline stage
// dispatches on, derived from a MIME type rather than carried around
// separately:
//
//	k := mediatypes.KindFromMIME(mime) // KindImage, KindVideo, or KindOther
//
// # MIME resolution
//
// GuessMIME tries a fast extension table first, then falls back to the
// standard library's general resolver, matching the discoverer's two-pass
// MIME strategy (§4.4 of the spec: "MIME is guessed from extension first
// ... falling back to a general resolver").
package mediatypes
