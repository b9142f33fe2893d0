// Package mediatool implements the media toolchain gateway (C11) of §4.11:
// one process-global hardware-acceleration mode, a GPU circuit breaker, an
// external-process invocation wrapper (drained pipes, progress polling,
// timeout kill-and-reap), transcode/audio-extraction argument
// construction, and the richer /diag/ffmpeg probe payload described in
// SPEC_FULL.md's supplemented-features section.
package mediatool
