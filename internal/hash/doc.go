// Package hash implements the hasher pool (C6) of §4.6: for every job it
// always computes xxh3-64 over the full file, and additionally computes
// SHA-256 when the file is a video or its size is under 64 MiB (videos
// require SHA-256 for derived-artifact addressing regardless of size).
//
// The I/O strategy is chosen by size: files at or above 8 MiB are processed
// through a read-only mmap in 4 MiB chunks; smaller files use a 4 MiB
// buffered reader. Both digests are updated from the same chunk to avoid a
// second pass over the data.
//
// Hash failures are logged, not fatal: per §4.6 the job still proceeds with
// a zero xxh3 and absent SHA-256, leaving metadata extraction and the
// catalog write to carry on with partial information.
package hash
