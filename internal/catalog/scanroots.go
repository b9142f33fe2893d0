package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/flashcat/flash/internal/apierr"
)

// AddScanRoot declares a new scan root, per §3/§4.12. It is not idempotent: a
// second add of the same path returns Conflict so the supervisor can decide
// whether that's fatal.
func (c *Catalog) AddScanRoot(ctx context.Context, path string) (*ScanRoot, error) {
	done := observeQuery("add_scan_root")
	var err error
	defer func() { done(err) }()

	now := unixNow()
	_, execErr := c.db.ExecContext(ctx, `INSERT INTO scan_roots (path, created_ns) VALUES (?, ?)`, path, now)
	if execErr != nil {
		if isUniqueViolation(execErr) {
			err = apierr.Conflict("scan root %q already declared", path)
		} else {
			err = apierr.Wrap(apierr.KindStorage, execErr, "insert scan root")
		}
		return nil, err
	}
	return c.GetScanRoot(ctx, path)
}

// GetScanRoot returns the declared scan root at path, or NotFound.
func (c *Catalog) GetScanRoot(ctx context.Context, path string) (*ScanRoot, error) {
	var r ScanRoot
	err := c.db.QueryRowContext(ctx, `SELECT id, path, created_ns FROM scan_roots WHERE path = ?`, path).
		Scan(&r.ID, &r.Path, &r.CreatedNS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NotFound("no scan root %q", path)
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "get scan root")
	}
	return &r, nil
}

// ListScanRoots returns all declared scan roots.
func (c *Catalog) ListScanRoots(ctx context.Context) ([]ScanRoot, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, path, created_ns FROM scan_roots ORDER BY path`)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "list scan roots")
	}
	defer rows.Close()

	var out []ScanRoot
	for rows.Next() {
		var r ScanRoot
		if err := rows.Scan(&r.ID, &r.Path, &r.CreatedNS); err != nil {
			return nil, apierr.Wrap(apierr.KindStorage, err, "scan scan root row")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// RemoveScanRoot drops the declared root. Asset cleanup under the root is
// the caller's responsibility (§4.12 Remove deletes assets first, then the
// root row), so this only removes the declaration.
func (c *Catalog) RemoveScanRoot(ctx context.Context, path string) error {
	done := observeQuery("remove_scan_root")
	var err error
	defer func() { done(err) }()

	_, execErr := c.db.ExecContext(ctx, `DELETE FROM scan_roots WHERE path = ?`, path)
	if execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "delete scan root")
		return err
	}
	return nil
}

// ClearAll wipes every asset, FTS row, and scan root — used by DELETE
// /clear, per §6. Refused (409) by the caller while any scan is running.
func (c *Catalog) ClearAll(ctx context.Context) (assetsDeleted int64, err error) {
	done := observeQuery("clear_all")
	defer func() { done(err) }()

	tx, txErr := c.db.BeginTx(ctx, nil)
	if txErr != nil {
		err = apierr.Wrap(apierr.KindStorage, txErr, "begin clear")
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	res, execErr := tx.ExecContext(ctx, `DELETE FROM assets`)
	if execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "clear assets")
		return 0, err
	}
	n, _ := res.RowsAffected()

	if _, execErr := tx.ExecContext(ctx, `INSERT INTO assets_fts(assets_fts) VALUES ('delete-all')`); execErr != nil {
		// Older FTS5 builds lack 'delete-all'; fall back to a full rebuild
		// from the (now empty) assets table, which still leaves no rows.
		if _, rebuildErr := tx.ExecContext(ctx, `INSERT INTO assets_fts(assets_fts) VALUES ('rebuild')`); rebuildErr != nil {
			err = apierr.Wrap(apierr.KindStorage, rebuildErr, "rebuild fts after clear")
			return 0, err
		}
	}

	if _, execErr := tx.ExecContext(ctx, `DELETE FROM scan_roots`); execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "clear scan roots")
		return 0, err
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = apierr.Wrap(apierr.KindStorage, commitErr, "commit clear")
		return 0, err
	}
	return n, nil
}
