// Package handlers implements the HTTP API of §6: catalog/ops endpoints,
// asset listing/search/derived-artifact serving/deletion, scan-root
// lifecycle, album CRUD, and a thin face-assignment surface. It is a
// routing and JSON-shaping layer only — every operation it exposes is
// delegated to catalog, derive, supervisor, stats, or mediatool.
package handlers
