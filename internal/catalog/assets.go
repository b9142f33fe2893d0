package catalog

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"

	"github.com/flashcat/flash/internal/apierr"
)

// Upsert writes the full asset row on path conflict and maintains the FTS
// index in the same transaction, per §4.1: "The upsert writes the full row
// on path conflict... every upsert also inserts into the FTS index in the
// same transaction." Returns the row id (newly assigned or the existing
// one on conflict).
func (c *Catalog) Upsert(ctx context.Context, a *Asset) (int64, error) {
	done := observeQuery("upsert_asset")
	var err error
	defer func() { done(err) }()

	tx, txErr := c.db.BeginTx(ctx, nil)
	if txErr != nil {
		err = apierr.Wrap(apierr.KindStorage, txErr, "begin upsert")
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	var oldID int64
	hadRow := false
	if scanErr := tx.QueryRowContext(ctx, `SELECT id FROM assets WHERE path = ?`, a.Path).Scan(&oldID); scanErr == nil {
		hadRow = true
	} else if !errors.Is(scanErr, sql.ErrNoRows) {
		err = apierr.Wrap(apierr.KindStorage, scanErr, "lookup existing asset")
		return 0, err
	}

	id, upsertErr := c.execUpsert(ctx, tx, a)
	if upsertErr != nil {
		err = apierr.Wrap(apierr.KindStorage, upsertErr, "upsert asset row")
		return 0, err
	}

	if hadRow {
		if delErr := deleteFTSRow(ctx, tx, oldID); delErr != nil {
			err = apierr.Wrap(apierr.KindStorage, delErr, "delete stale fts row")
			return 0, err
		}
	}
	if insErr := insertFTSRow(ctx, tx, id, a.Filename, a.ParentDir, a.Path); insErr != nil {
		err = apierr.Wrap(apierr.KindStorage, insErr, "insert fts row")
		return 0, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = apierr.Wrap(apierr.KindStorage, commitErr, "commit upsert")
		return 0, err
	}
	return id, nil
}

// BatchUpsert writes an entire batch in a single transaction, per §4.8:
// "Each batch runs in one transaction: upsert all rows, then insert
// corresponding FTS rows." Returns the row id for each asset in order; a
// failure on any row rolls back the whole batch.
func (c *Catalog) BatchUpsert(ctx context.Context, assets []*Asset) ([]int64, error) {
	done := observeQuery("batch_upsert_assets")
	var err error
	defer func() { done(err) }()

	if len(assets) == 0 {
		return nil, nil
	}

	tx, txErr := c.db.BeginTx(ctx, nil)
	if txErr != nil {
		err = apierr.Wrap(apierr.KindStorage, txErr, "begin batch upsert")
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	ids := make([]int64, len(assets))
	type staleFTS struct {
		id int64
	}
	stale := make([]staleFTS, 0, len(assets))

	for i, a := range assets {
		var oldID int64
		hadRow := false
		if scanErr := tx.QueryRowContext(ctx, `SELECT id FROM assets WHERE path = ?`, a.Path).Scan(&oldID); scanErr == nil {
			hadRow = true
		} else if !errors.Is(scanErr, sql.ErrNoRows) {
			err = apierr.Wrap(apierr.KindStorage, scanErr, "lookup existing asset")
			return nil, err
		}

		id, upsertErr := c.execUpsert(ctx, tx, a)
		if upsertErr != nil {
			err = apierr.Wrap(apierr.KindStorage, upsertErr, "upsert asset row")
			return nil, err
		}
		ids[i] = id

		if hadRow {
			stale = append(stale, staleFTS{id: oldID})
		}
	}

	for _, s := range stale {
		if delErr := deleteFTSRow(ctx, tx, s.id); delErr != nil {
			err = apierr.Wrap(apierr.KindStorage, delErr, "delete stale fts row")
			return nil, err
		}
	}
	for i, a := range assets {
		if insErr := insertFTSRow(ctx, tx, ids[i], a.Filename, a.ParentDir, a.Path); insErr != nil {
			err = apierr.Wrap(apierr.KindStorage, insErr, "insert fts row")
			return nil, err
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = apierr.Wrap(apierr.KindStorage, commitErr, "commit batch upsert")
		return nil, err
	}
	return ids, nil
}

// execUpsert performs the INSERT ... ON CONFLICT DO UPDATE and returns the
// row id. go-sqlite3 supports RETURNING as of recent releases; if the
// linked SQLite library predates it, fall back to a post-insert lookup by
// path, per §4.1 "under a fallback path for older engines, the RETURNING id
// clause is replaced by a post-insert lookup."
func (c *Catalog) execUpsert(ctx context.Context, tx *sql.Tx, a *Asset) (int64, error) {
	const stmt = `
INSERT INTO assets (
	path, parent_dir, filename, ext, size_bytes, mtime_ns, created_ns,
	sha256, xxh3, taken_at, width, height, duration_ms,
	camera_make, camera_model, lens, iso, f_number, exposure,
	video_codec, mime, flags
) VALUES (?,?,?,?,?,?,?, ?,?,?,?,?,?, ?,?,?,?,?,?, ?,?,?)
ON CONFLICT(path) DO UPDATE SET
	parent_dir=excluded.parent_dir, filename=excluded.filename, ext=excluded.ext,
	size_bytes=excluded.size_bytes, mtime_ns=excluded.mtime_ns,
	sha256=excluded.sha256, xxh3=excluded.xxh3, taken_at=excluded.taken_at,
	width=excluded.width, height=excluded.height, duration_ms=excluded.duration_ms,
	camera_make=excluded.camera_make, camera_model=excluded.camera_model, lens=excluded.lens,
	iso=excluded.iso, f_number=excluded.f_number, exposure=excluded.exposure,
	video_codec=excluded.video_codec, mime=excluded.mime, flags=excluded.flags
RETURNING id`

	var xxh3Val interface{}
	if a.HasXXH3 {
		xxh3Val = int64(a.XXH3) //nolint:gosec // bit-identical reinterpretation, not a value truncation
	}

	args := []interface{}{
		a.Path, a.ParentDir, a.Filename, a.Ext, a.SizeBytes, a.MtimeNS, a.CreatedNS,
		nullBytes(a.SHA256), xxh3Val, a.TakenAt, a.Width, a.Height, a.DurationMS,
		nullStr(a.CameraMake), nullStr(a.CameraModel), nullStr(a.Lens), a.ISO, a.FNumber, nullStr(a.Exposure),
		nullStr(a.VideoCodec), a.MIME, a.Flags,
	}

	var id int64
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&id); err != nil {
		if isNoReturningSupport(err) {
			if _, execErr := tx.ExecContext(ctx, strings.TrimSuffix(stmt, "RETURNING id"), args...); execErr != nil {
				return 0, execErr
			}
			if scanErr := tx.QueryRowContext(ctx, `SELECT id FROM assets WHERE path = ?`, a.Path).Scan(&id); scanErr != nil {
				return 0, scanErr
			}
			return id, nil
		}
		return 0, err
	}
	return id, nil
}

// isNoReturningSupport is a conservative heuristic: any syntax error
// mentioning RETURNING means the linked SQLite predates 3.35.
func isNoReturningSupport(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "returning")
}

func nullStr(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}

func insertFTSRow(ctx context.Context, tx *sql.Tx, id int64, filename, dirname, path string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO assets_fts(rowid, filename, dirname, path) VALUES (?,?,?,?)`,
		id, filename, dirname, path)
	return err
}

// deleteFTSRow removes a contentless FTS5 row. Both the rowid and the
// original column values must be supplied, per §9 "FTS5 contentless
// invariant" — omit either and the index silently desyncs. The contentless
// index returns NULL for its columns, so the values are read from the
// current assets row with the same id.
func deleteFTSRow(ctx context.Context, tx *sql.Tx, id int64) error {
	var filename, dirname, path string
	err := tx.QueryRowContext(ctx, `SELECT filename, parent_dir, path FROM assets WHERE id = ?`, id).
		Scan(&filename, &dirname, &path)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO assets_fts(assets_fts, rowid, filename, dirname, path) VALUES ('delete', ?, ?, ?, ?)`,
		id, filename, dirname, path)
	return err
}

// SkipGateKey is the change-detection tuple consulted by the skip-gate
// forwarder, per §4.5 and §9: "size_bytes must never be omitted."
type SkipGateKey struct {
	Path      string
	MtimeNS   int64
	SizeBytes int64
}

// LookupForSkipGate resolves the existing row (if any) matching key.Path,
// reporting whether the (mtime, size) tuple still matches, per §4.5.
func (c *Catalog) LookupForSkipGate(ctx context.Context, key SkipGateKey) (asset *Asset, tupleMatches bool, err error) {
	done := observeQuery("skipgate_lookup")
	defer func() { done(err) }()

	a, lookupErr := c.GetByPath(ctx, key.Path)
	if apierr.Is(lookupErr, apierr.KindNotFound) {
		return nil, false, nil
	}
	if lookupErr != nil {
		err = lookupErr
		return nil, false, err
	}
	return a, a.MtimeNS == key.MtimeNS && a.SizeBytes == key.SizeBytes, nil
}

// GetByPath returns the asset at path, or a NotFound error.
func (c *Catalog) GetByPath(ctx context.Context, path string) (*Asset, error) {
	row := c.db.QueryRowContext(ctx, selectAssetColumns+` WHERE path = ?`, path)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NotFound("no asset at path %q", path)
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "get by path")
	}
	return a, nil
}

// GetByID returns the asset with the given id, or a NotFound error.
func (c *Catalog) GetByID(ctx context.Context, id int64) (*Asset, error) {
	row := c.db.QueryRowContext(ctx, selectAssetColumns+` WHERE id = ?`, id)
	a, err := scanAsset(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NotFound("no asset with id %d", id)
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "get by id")
	}
	return a, nil
}

// Count returns the total number of catalog rows.
func (c *Catalog) Count(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets`).Scan(&n)
	if err != nil {
		return 0, apierr.Wrap(apierr.KindStorage, err, "count assets")
	}
	return n, nil
}

// List returns a page of assets ordered per opts, per §4.1. Unknown sort
// fields fall back to mtime descending.
func (c *Catalog) List(ctx context.Context, opts ListOptions) ([]Asset, error) {
	order := orderClauseFor(opts.Sort, opts.Desc)
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := c.db.QueryContext(ctx, selectAssetColumns+` ORDER BY `+order+` LIMIT ? OFFSET ?`, limit, opts.Offset)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "list assets")
	}
	defer rows.Close()
	return scanAssets(rows)
}

func orderClauseFor(field SortField, desc bool) string {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	switch field {
	case SortFilename:
		return "filename COLLATE NOCASE " + dir
	case SortSizeBytes:
		return "size_bytes " + dir
	case SortMtime, SortMtimeNS:
		return "mtime_ns " + dir
	case SortTakenAt:
		return "taken_at IS NULL, taken_at " + dir
	case SortNone, "":
		return "mtime_ns DESC"
	default:
		return "mtime_ns DESC"
	}
}

// DeleteByID removes the asset and its FTS row in one transaction.
func (c *Catalog) DeleteByID(ctx context.Context, id int64) error {
	done := observeQuery("delete_asset_by_id")
	var err error
	defer func() { done(err) }()

	tx, txErr := c.db.BeginTx(ctx, nil)
	if txErr != nil {
		err = apierr.Wrap(apierr.KindStorage, txErr, "begin delete")
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if delErr := deleteFTSRow(ctx, tx, id); delErr != nil {
		err = apierr.Wrap(apierr.KindStorage, delErr, "delete fts row")
		return err
	}
	res, execErr := tx.ExecContext(ctx, `DELETE FROM assets WHERE id = ?`, id)
	if execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "delete asset row")
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Idempotent delete: a missing row is success, per §7.
		return tx.Commit()
	}
	if commitErr := tx.Commit(); commitErr != nil {
		err = apierr.Wrap(apierr.KindStorage, commitErr, "commit delete")
		return err
	}
	return nil
}

// DeleteByPath removes the asset at path, tolerating a missing row.
func (c *Catalog) DeleteByPath(ctx context.Context, path string) error {
	a, err := c.GetByPath(ctx, path)
	if apierr.Is(err, apierr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.DeleteByID(ctx, a.ID)
}

// DeleteByPathPrefix removes every asset whose path has prefix as a
// directory prefix, for scan-root removal (§4.12). Returns the count
// deleted.
func (c *Catalog) DeleteByPathPrefix(ctx context.Context, prefix string) (int64, error) {
	done := observeQuery("delete_by_prefix")
	var err error
	defer func() { done(err) }()

	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	rows, qErr := c.db.QueryContext(ctx, `SELECT id FROM assets WHERE path LIKE ? ESCAPE '\'`, escapeLIKE(prefix)+"%")
	if qErr != nil {
		err = apierr.Wrap(apierr.KindStorage, qErr, "select prefix ids")
		return 0, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if scanErr := rows.Scan(&id); scanErr != nil {
			rows.Close()
			err = apierr.Wrap(apierr.KindStorage, scanErr, "scan prefix id")
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()

	var n int64
	for _, id := range ids {
		if delErr := c.DeleteByID(ctx, id); delErr != nil {
			err = delErr
			return n, err
		}
		n++
	}
	return n, nil
}

// Rename updates an asset's path in place, preserving its id, per §4.1.
func (c *Catalog) Rename(ctx context.Context, id int64, newPath string) error {
	done := observeQuery("rename_asset")
	var err error
	defer func() { done(err) }()

	tx, txErr := c.db.BeginTx(ctx, nil)
	if txErr != nil {
		err = apierr.Wrap(apierr.KindStorage, txErr, "begin rename")
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if delErr := deleteFTSRow(ctx, tx, id); delErr != nil {
		err = apierr.Wrap(apierr.KindStorage, delErr, "delete stale fts row")
		return err
	}

	filename := filepath.Base(newPath)
	parentDir := filepath.Dir(newPath)
	res, execErr := tx.ExecContext(ctx,
		`UPDATE assets SET path=?, parent_dir=?, filename=? WHERE id=?`,
		newPath, parentDir, filename, id)
	if execErr != nil {
		if isUniqueViolation(execErr) {
			err = apierr.Wrap(apierr.KindConflict, execErr, "path already exists")
		} else {
			err = apierr.Wrap(apierr.KindStorage, execErr, "rename asset")
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		err = apierr.NotFound("no asset with id %d", id)
		return err
	}

	if insErr := insertFTSRow(ctx, tx, id, filename, parentDir, newPath); insErr != nil {
		err = apierr.Wrap(apierr.KindStorage, insErr, "insert fts row")
		return err
	}
	if commitErr := tx.Commit(); commitErr != nil {
		err = apierr.Wrap(apierr.KindStorage, commitErr, "commit rename")
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "unique")
}

const selectAssetColumns = `
SELECT id, path, parent_dir, filename, ext, size_bytes, mtime_ns, created_ns,
       sha256, xxh3, taken_at, width, height, duration_ms,
       camera_make, camera_model, lens, iso, f_number, exposure,
       video_codec, mime, flags
FROM assets`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAsset(row rowScanner) (*Asset, error) {
	var a Asset
	var sha []byte
	var xxh3 sql.NullInt64
	var cameraMake, cameraModel, lens, exposure, videoCodec sql.NullString
	if err := row.Scan(
		&a.ID, &a.Path, &a.ParentDir, &a.Filename, &a.Ext, &a.SizeBytes, &a.MtimeNS, &a.CreatedNS,
		&sha, &xxh3, &a.TakenAt, &a.Width, &a.Height, &a.DurationMS,
		&cameraMake, &cameraModel, &lens, &a.ISO, &a.FNumber, &exposure,
		&videoCodec, &a.MIME, &a.Flags,
	); err != nil {
		return nil, err
	}
	a.SHA256 = sha
	if xxh3.Valid {
		a.XXH3 = uint64(xxh3.Int64) //nolint:gosec // bit-identical reinterpretation
		a.HasXXH3 = true
	}
	a.CameraMake = cameraMake.String
	a.CameraModel = cameraModel.String
	a.Lens = lens.String
	a.Exposure = exposure.String
	a.VideoCodec = videoCodec.String
	return &a, nil
}

func scanAssets(rows *sql.Rows) ([]Asset, error) {
	var out []Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindStorage, err, "scan asset row")
		}
		out = append(out, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "iterate asset rows")
	}
	return out, nil
}

// escapeLIKE escapes `%`, `_` and the escape character itself for use in a
// LIKE pattern with ESCAPE '\'.
func escapeLIKE(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
