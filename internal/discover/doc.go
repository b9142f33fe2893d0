// Package discover implements the discoverer (C4) of §4.4: full-scan and
// watch modes that emit candidate files whose MIME type begins with
// "image/" or "video/" onto the discover queue.
//
// Full scan walks a root breadth-first, skipping hidden entries and
// anything matching a .flashignore pattern, applying the extension
// pre-filter before any stat call, and resolving MIME only for entries
// that pass it. Each discovery is sent onto the discover queue on its own,
// with a non-blocking send that downgrades to a blocking send once the
// queue fills; discoveries are not grouped into batches.
//
// Watch mode layers fsnotify on top: create/modify events are re-stat-ed
// and forwarded when they are still image/video; remove events are handled
// outside the pipeline via a direct catalog delete-by-path. A pause flag
// lets the caller suspend event processing without tearing down the
// watcher.
package discover
