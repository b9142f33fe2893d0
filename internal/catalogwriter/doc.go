// Package catalogwriter implements the single catalog-writer consumer (C8)
// of §4.8: it batches incoming write items by size (500 rows) or time
// (every 2 seconds), whichever comes first, and commits each batch in one
// transaction via catalog.BatchUpsert.
//
// After a batch commits, every asset with a non-empty SHA-256 is enqueued
// for thumbnail generation (non-blocking; dropped with a warning if the
// thumbnail queue is full). A commit failure is treated as fatal per §4.8
// and §7: the process cannot make progress with an unwritable catalog, so
// the writer logs, increments the fatal-error counter, and exits.
package catalogwriter
