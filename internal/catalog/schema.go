package catalog

// schema is applied idempotently on every pool open, per §4.1 "open-or-create
// (applies pragmas and DDL idempotently)".
//
// The FTS index is kept contentless (content='') rather than a true
// external-content table: an external-content table's automatic
// highlight/snippet integration requires the companion table's columns to
// line up positionally with the FTS definition, which assets.* does not
// (assets carries two dozen columns, fts needs three). Contentless still
// gives us the invariant the spec cares about — §9 "FTS5 contentless
// invariant": deletes must name the rowid *and* the old column values, or
// the index accumulates ghost hits. A contentless index cannot return the
// values it indexed, so the filename, parent_dir and path columns of assets
// are where deletes read them from.
const schema = `
CREATE TABLE IF NOT EXISTS assets (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	path         TEXT NOT NULL UNIQUE,
	parent_dir   TEXT NOT NULL,
	filename     TEXT NOT NULL,
	ext          TEXT NOT NULL,
	size_bytes   INTEGER NOT NULL,
	mtime_ns     INTEGER NOT NULL,
	created_ns   INTEGER NOT NULL,
	sha256       BLOB,
	xxh3         INTEGER,
	taken_at     INTEGER,
	width        INTEGER,
	height       INTEGER,
	duration_ms  INTEGER,
	camera_make  TEXT,
	camera_model TEXT,
	lens         TEXT,
	iso          INTEGER,
	f_number     REAL,
	exposure     TEXT,
	video_codec  TEXT,
	mime         TEXT NOT NULL,
	flags        INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_assets_mtime      ON assets(mtime_ns DESC);
CREATE INDEX IF NOT EXISTS idx_assets_taken_at    ON assets(taken_at DESC);
CREATE INDEX IF NOT EXISTS idx_assets_size        ON assets(size_bytes);
CREATE INDEX IF NOT EXISTS idx_assets_filename    ON assets(filename COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_assets_parent_dir  ON assets(parent_dir);
CREATE INDEX IF NOT EXISTS idx_assets_mime        ON assets(mime);
CREATE INDEX IF NOT EXISTS idx_assets_camera      ON assets(camera_make, camera_model);
CREATE INDEX IF NOT EXISTS idx_assets_sha256      ON assets(sha256);

CREATE VIRTUAL TABLE IF NOT EXISTS assets_fts USING fts5(
	filename,
	dirname,
	path,
	tokenize = 'unicode61',
	content = ''
);

CREATE TABLE IF NOT EXISTS scan_roots (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	path       TEXT NOT NULL UNIQUE,
	created_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS albums (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	description TEXT,
	created_ns  INTEGER NOT NULL,
	updated_ns  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS album_assets (
	album_id INTEGER NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
	asset_id INTEGER NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
	PRIMARY KEY (album_id, asset_id)
);
CREATE INDEX IF NOT EXISTS idx_album_assets_asset ON album_assets(asset_id);

CREATE TABLE IF NOT EXISTS persons (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT,
	created_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS person_profiles (
	person_id  INTEGER PRIMARY KEY REFERENCES persons(id) ON DELETE CASCADE,
	centroid   BLOB NOT NULL,
	face_count INTEGER NOT NULL,
	updated_ns INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS faces (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	asset_id   INTEGER NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
	person_id  INTEGER REFERENCES persons(id) ON DELETE SET NULL,
	embedding  BLOB NOT NULL,
	bbox       TEXT NOT NULL,
	confidence REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_faces_asset  ON faces(asset_id);
CREATE INDEX IF NOT EXISTS idx_faces_person ON faces(person_id);
`
