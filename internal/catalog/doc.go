// Package catalog is the persistent backing store for the indexer: one row
// per absolute path (Asset), an external full-text index over filename,
// directory and path, scan roots, albums, and the optional face/person
// tables. It owns the connection pool and its shared pragmas (§4.1, §4.2 of
// the spec) and is the only package that talks SQL.
//
// Every write that must also keep the FTS index honest (upsert, delete,
// delete-by-prefix) does so inside a single transaction — see the comment
// on deleteFTSRow in assets.go for why that matters.
package catalog
