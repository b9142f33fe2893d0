// Package stats implements the runtime statistics collector (C13) of
// §4.13: per-process counters for files discovered, bytes committed, and
// files committed; per-scan snapshots that freeze the discovery rate at
// finish_scan and the commit rate at finish_processing so an idle UI does
// not decay toward zero; and a live/frozen rate classification into
// idle/slow/average/good/excellent.
package stats
