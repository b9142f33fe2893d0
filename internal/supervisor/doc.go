// Package supervisor implements the scan/watcher supervisor (C12) of
// §4.12: per-root scan-running and watcher-paused flags plus the running
// watcher task handle, and a global aggregate scan-running flag that is
// the logical OR of every root's flag.
//
// Add/Scan start a full-scan goroutine (refusing if the root is already
// scanning); Pause/Resume gate watch-event processing without tearing the
// watcher down; Remove aborts the watcher, deletes every asset under the
// root (with FTS sync via the catalog layer), and drops the root
// declaration. ClearAll and a stats reset are refused with Conflict while
// any root is scanning.
package supervisor
