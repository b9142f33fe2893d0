package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/flashcat/flash/internal/apierr"
)

// CreateAlbum inserts a new named collection, per §3/§6 `POST /albums`.
func (c *Catalog) CreateAlbum(ctx context.Context, name, description string) (*Album, error) {
	done := observeQuery("create_album")
	var err error
	defer func() { done(err) }()

	now := unixNow()
	res, execErr := c.db.ExecContext(ctx,
		`INSERT INTO albums (name, description, created_ns, updated_ns) VALUES (?, ?, ?, ?)`,
		name, description, now, now)
	if execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "insert album")
		return nil, err
	}
	id, idErr := res.LastInsertId()
	if idErr != nil {
		err = apierr.Wrap(apierr.KindStorage, idErr, "album insert id")
		return nil, err
	}
	return c.GetAlbum(ctx, id)
}

// GetAlbum returns the album by id, or NotFound.
func (c *Catalog) GetAlbum(ctx context.Context, id int64) (*Album, error) {
	var a Album
	err := c.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_ns, updated_ns FROM albums WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Description, &a.CreatedNS, &a.UpdatedNS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NotFound("no album %d", id)
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "get album")
	}
	return &a, nil
}

// ListAlbums returns all albums, most recently updated first.
func (c *Catalog) ListAlbums(ctx context.Context) ([]Album, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, name, description, created_ns, updated_ns FROM albums ORDER BY updated_ns DESC`)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "list albums")
	}
	defer rows.Close()

	var out []Album
	for rows.Next() {
		var a Album
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.CreatedNS, &a.UpdatedNS); err != nil {
			return nil, apierr.Wrap(apierr.KindStorage, err, "scan album row")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// UpdateAlbum renames/redescribes an album, per `PUT /albums/{id}`.
func (c *Catalog) UpdateAlbum(ctx context.Context, id int64, name, description string) (*Album, error) {
	done := observeQuery("update_album")
	var err error
	defer func() { done(err) }()

	res, execErr := c.db.ExecContext(ctx,
		`UPDATE albums SET name = ?, description = ?, updated_ns = ? WHERE id = ?`,
		name, description, unixNow(), id)
	if execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "update album")
		return nil, err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		err = apierr.NotFound("no album %d", id)
		return nil, err
	}
	return c.GetAlbum(ctx, id)
}

// DeleteAlbum removes an album and (via cascade) its membership rows.
func (c *Catalog) DeleteAlbum(ctx context.Context, id int64) error {
	done := observeQuery("delete_album")
	var err error
	defer func() { done(err) }()

	_, execErr := c.db.ExecContext(ctx, `DELETE FROM albums WHERE id = ?`, id)
	if execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "delete album")
		return err
	}
	return nil
}

// AddAssetsToAlbum inserts membership rows, ignoring assets already present.
func (c *Catalog) AddAssetsToAlbum(ctx context.Context, albumID int64, assetIDs []int64) error {
	done := observeQuery("add_album_assets")
	var err error
	defer func() { done(err) }()

	if len(assetIDs) == 0 {
		return nil
	}
	tx, txErr := c.db.BeginTx(ctx, nil)
	if txErr != nil {
		err = apierr.Wrap(apierr.KindStorage, txErr, "begin add album assets")
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, prepErr := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO album_assets (album_id, asset_id) VALUES (?, ?)`)
	if prepErr != nil {
		err = apierr.Wrap(apierr.KindStorage, prepErr, "prepare add album assets")
		return err
	}
	defer stmt.Close()

	for _, assetID := range assetIDs {
		if _, execErr := stmt.ExecContext(ctx, albumID, assetID); execErr != nil {
			err = apierr.Wrap(apierr.KindStorage, execErr, "insert album asset")
			return err
		}
	}
	if _, execErr := tx.ExecContext(ctx, `UPDATE albums SET updated_ns = ? WHERE id = ?`, unixNow(), albumID); execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "touch album")
		return err
	}
	if commitErr := tx.Commit(); commitErr != nil {
		err = apierr.Wrap(apierr.KindStorage, commitErr, "commit add album assets")
		return err
	}
	return nil
}

// RemoveAssetsFromAlbum deletes membership rows.
func (c *Catalog) RemoveAssetsFromAlbum(ctx context.Context, albumID int64, assetIDs []int64) error {
	done := observeQuery("remove_album_assets")
	var err error
	defer func() { done(err) }()

	if len(assetIDs) == 0 {
		return nil
	}
	tx, txErr := c.db.BeginTx(ctx, nil)
	if txErr != nil {
		err = apierr.Wrap(apierr.KindStorage, txErr, "begin remove album assets")
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, prepErr := tx.PrepareContext(ctx,
		`DELETE FROM album_assets WHERE album_id = ? AND asset_id = ?`)
	if prepErr != nil {
		err = apierr.Wrap(apierr.KindStorage, prepErr, "prepare remove album assets")
		return err
	}
	defer stmt.Close()

	for _, assetID := range assetIDs {
		if _, execErr := stmt.ExecContext(ctx, albumID, assetID); execErr != nil {
			err = apierr.Wrap(apierr.KindStorage, execErr, "delete album asset")
			return err
		}
	}
	if _, execErr := tx.ExecContext(ctx, `UPDATE albums SET updated_ns = ? WHERE id = ?`, unixNow(), albumID); execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "touch album")
		return err
	}
	if commitErr := tx.Commit(); commitErr != nil {
		err = apierr.Wrap(apierr.KindStorage, commitErr, "commit remove album assets")
		return err
	}
	return nil
}

// ListAlbumAssets returns the assets in an album, newest capture first.
func (c *Catalog) ListAlbumAssets(ctx context.Context, albumID int64, opts ListOptions) ([]Asset, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := c.db.QueryContext(ctx,
		selectAssetColumns+` WHERE id IN (SELECT asset_id FROM album_assets WHERE album_id = ?)
		 ORDER BY taken_at IS NULL, taken_at DESC, mtime_ns DESC LIMIT ? OFFSET ?`,
		albumID, limit, opts.Offset)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "list album assets")
	}
	defer rows.Close()
	return scanAssets(rows)
}

// AlbumsForAsset lists every album that contains assetID, per
// `GET /albums/for-asset/{asset_id}`.
func (c *Catalog) AlbumsForAsset(ctx context.Context, assetID int64) ([]Album, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT a.id, a.name, a.description, a.created_ns, a.updated_ns
		FROM albums a
		JOIN album_assets aa ON aa.album_id = a.id
		WHERE aa.asset_id = ?
		ORDER BY a.name COLLATE NOCASE`, assetID)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "list albums for asset")
	}
	defer rows.Close()

	var out []Album
	for rows.Next() {
		var a Album
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.CreatedNS, &a.UpdatedNS); err != nil {
			return nil, apierr.Wrap(apierr.KindStorage, err, "scan album row")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
