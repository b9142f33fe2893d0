package catalog

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"math"

	"github.com/flashcat/flash/internal/apierr"
)

// InsertFace records one detected face for an asset, per §3. It is inserted
// unassigned (person_id NULL); clustering assigns a person separately.
func (c *Catalog) InsertFace(ctx context.Context, f Face) (int64, error) {
	done := observeQuery("insert_face")
	var err error
	defer func() { done(err) }()

	embBytes, encErr := encodeEmbedding(f.Embedding)
	if encErr != nil {
		err = apierr.Wrap(apierr.KindBadRequest, encErr, "encode face embedding")
		return 0, err
	}

	res, execErr := c.db.ExecContext(ctx,
		`INSERT INTO faces (asset_id, person_id, embedding, bbox, confidence) VALUES (?, ?, ?, ?, ?)`,
		f.AssetID, f.PersonID, embBytes, f.BBoxJSON, f.Confidence)
	if execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "insert face")
		return 0, err
	}
	id, idErr := res.LastInsertId()
	if idErr != nil {
		err = apierr.Wrap(apierr.KindStorage, idErr, "face insert id")
		return 0, err
	}
	return id, nil
}

// FacesForAsset lists every detected face on an asset.
func (c *Catalog) FacesForAsset(ctx context.Context, assetID int64) ([]Face, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, asset_id, person_id, embedding, bbox, confidence FROM faces WHERE asset_id = ?`, assetID)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "list faces for asset")
	}
	defer rows.Close()
	return scanFaces(rows)
}

// AssetHasFaces reports whether any face row already exists for assetID,
// so the catalog writer can avoid re-enqueuing a face-detect job on every
// re-scan commit of an already-faced asset.
func (c *Catalog) AssetHasFaces(ctx context.Context, assetID int64) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM faces WHERE asset_id = ?)`, assetID).Scan(&exists)
	if err != nil {
		return false, apierr.Wrap(apierr.KindStorage, err, "check face existence")
	}
	return exists, nil
}

// FacesForPerson lists every face assigned to a person.
func (c *Catalog) FacesForPerson(ctx context.Context, personID int64) ([]Face, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, asset_id, person_id, embedding, bbox, confidence FROM faces WHERE person_id = ?`, personID)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "list faces for person")
	}
	defer rows.Close()
	return scanFaces(rows)
}

func scanFaces(rows *sql.Rows) ([]Face, error) {
	var out []Face
	for rows.Next() {
		var f Face
		var embBytes []byte
		if err := rows.Scan(&f.ID, &f.AssetID, &f.PersonID, &embBytes, &f.BBoxJSON, &f.Confidence); err != nil {
			return nil, apierr.Wrap(apierr.KindStorage, err, "scan face row")
		}
		emb, err := decodeEmbedding(embBytes)
		if err != nil {
			return nil, apierr.Wrap(apierr.KindStorage, err, "decode face embedding")
		}
		f.Embedding = emb
		out = append(out, f)
	}
	return out, rows.Err()
}

// CreatePerson starts a new cluster, optionally named.
func (c *Catalog) CreatePerson(ctx context.Context, name string) (int64, error) {
	done := observeQuery("create_person")
	var err error
	defer func() { done(err) }()

	res, execErr := c.db.ExecContext(ctx, `INSERT INTO persons (name, created_ns) VALUES (?, ?)`, name, unixNow())
	if execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "insert person")
		return 0, err
	}
	id, idErr := res.LastInsertId()
	if idErr != nil {
		err = apierr.Wrap(apierr.KindStorage, idErr, "person insert id")
		return 0, err
	}
	return id, nil
}

// GetPersonProfile returns the stored centroid for a person, or NotFound if
// the person has no member faces (profile is deleted when the set empties).
func (c *Catalog) GetPersonProfile(ctx context.Context, personID int64) (*PersonProfile, error) {
	var p PersonProfile
	var centroidBytes []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT person_id, centroid, face_count, updated_ns FROM person_profiles WHERE person_id = ?`, personID).
		Scan(&p.PersonID, &centroidBytes, &p.FaceCount, &p.UpdatedNS)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apierr.NotFound("no profile for person %d", personID)
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "get person profile")
	}
	centroid, decErr := decodeEmbedding(centroidBytes)
	if decErr != nil {
		return nil, apierr.Wrap(apierr.KindStorage, decErr, "decode person centroid")
	}
	p.Centroid = centroid
	return &p, nil
}

// RebuildPersonProfile recomputes a person's centroid from its current
// member faces: the mean of all member embeddings, L2-normalized so cosine
// similarity against new faces reduces to a dot product. If the person has
// no member faces left, the profile row is deleted rather than left stale —
// a person with zero faces has no meaningful centroid to match against.
func (c *Catalog) RebuildPersonProfile(ctx context.Context, personID int64) error {
	done := observeQuery("rebuild_person_profile")
	var err error
	defer func() { done(err) }()

	faces, listErr := c.FacesForPerson(ctx, personID)
	if listErr != nil {
		err = listErr
		return err
	}

	if len(faces) == 0 {
		_, execErr := c.db.ExecContext(ctx, `DELETE FROM person_profiles WHERE person_id = ?`, personID)
		if execErr != nil {
			err = apierr.Wrap(apierr.KindStorage, execErr, "delete empty person profile")
			return err
		}
		return nil
	}

	dims := len(faces[0].Embedding)
	centroid := make([]float32, dims)
	for _, f := range faces {
		for i, v := range f.Embedding {
			if i < dims {
				centroid[i] += v
			}
		}
	}
	inv := float32(1.0 / float64(len(faces)))
	for i := range centroid {
		centroid[i] *= inv
	}
	normalizeL2(centroid)

	encoded, encErr := encodeEmbedding(centroid)
	if encErr != nil {
		err = apierr.Wrap(apierr.KindStorage, encErr, "encode person centroid")
		return err
	}

	_, execErr := c.db.ExecContext(ctx, `
		INSERT INTO person_profiles (person_id, centroid, face_count, updated_ns)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(person_id) DO UPDATE SET
			centroid = excluded.centroid,
			face_count = excluded.face_count,
			updated_ns = excluded.updated_ns`,
		personID, encoded, len(faces), unixNow())
	if execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "upsert person profile")
		return err
	}
	return nil
}

// AssignFaceToPerson updates a face's person assignment and rebuilds both
// the old and new person's profiles, keeping centroids current.
func (c *Catalog) AssignFaceToPerson(ctx context.Context, faceID int64, personID *int64) error {
	done := observeQuery("assign_face")
	var err error
	defer func() { done(err) }()

	var oldPersonID sql.NullInt64
	if scanErr := c.db.QueryRowContext(ctx, `SELECT person_id FROM faces WHERE id = ?`, faceID).
		Scan(&oldPersonID); scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			err = apierr.NotFound("no face %d", faceID)
		} else {
			err = apierr.Wrap(apierr.KindStorage, scanErr, "lookup face")
		}
		return err
	}

	if _, execErr := c.db.ExecContext(ctx, `UPDATE faces SET person_id = ? WHERE id = ?`, personID, faceID); execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "reassign face")
		return err
	}

	if oldPersonID.Valid {
		if rebuildErr := c.RebuildPersonProfile(ctx, oldPersonID.Int64); rebuildErr != nil {
			err = rebuildErr
			return err
		}
	}
	if personID != nil {
		if rebuildErr := c.RebuildPersonProfile(ctx, *personID); rebuildErr != nil {
			err = rebuildErr
			return err
		}
	}
	return nil
}

// ListUnassignedFaces returns every detected face with no person assigned,
// the working set for the manual-assignment UI.
func (c *Catalog) ListUnassignedFaces(ctx context.Context) ([]Face, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, asset_id, person_id, embedding, bbox, confidence FROM faces WHERE person_id IS NULL`)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "list unassigned faces")
	}
	defer rows.Close()
	return scanFaces(rows)
}

// ListPersons returns every known person, most recently created first.
func (c *Catalog) ListPersons(ctx context.Context) ([]Person, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name, created_ns FROM persons ORDER BY created_ns DESC`)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "list persons")
	}
	defer rows.Close()

	var out []Person
	for rows.Next() {
		var p Person
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedNS); err != nil {
			return nil, apierr.Wrap(apierr.KindStorage, err, "scan person row")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePerson removes a person; member faces fall back to unassigned via
// the schema's ON DELETE SET NULL, and the profile cascades away.
func (c *Catalog) DeletePerson(ctx context.Context, personID int64) error {
	done := observeQuery("delete_person")
	var err error
	defer func() { done(err) }()

	if _, execErr := c.db.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, personID); execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "delete person")
		return err
	}
	return nil
}

// ClearFaces wipes every face, person, and profile row — used by the
// "clear facial data" operation.
func (c *Catalog) ClearFaces(ctx context.Context) error {
	done := observeQuery("clear_faces")
	var err error
	defer func() { done(err) }()

	tx, txErr := c.db.BeginTx(ctx, nil)
	if txErr != nil {
		err = apierr.Wrap(apierr.KindStorage, txErr, "begin clear faces")
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, execErr := tx.ExecContext(ctx, `DELETE FROM faces`); execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "clear faces")
		return err
	}
	if _, execErr := tx.ExecContext(ctx, `DELETE FROM person_profiles`); execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "clear person profiles")
		return err
	}
	if _, execErr := tx.ExecContext(ctx, `DELETE FROM persons`); execErr != nil {
		err = apierr.Wrap(apierr.KindStorage, execErr, "clear persons")
		return err
	}
	if commitErr := tx.Commit(); commitErr != nil {
		err = apierr.Wrap(apierr.KindStorage, commitErr, "commit clear faces")
		return err
	}
	return nil
}

// encodeEmbedding packs a float32 vector as little-endian bytes for BLOB
// storage.
func encodeEmbedding(v []float32) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Grow(len(v) * 4)
	for _, f := range v {
		if err := binary.Write(buf, binary.LittleEndian, f); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func decodeEmbedding(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, errors.New("embedding blob not a multiple of 4 bytes")
	}
	out := make([]float32, len(b)/4)
	r := bytes.NewReader(b)
	for i := range out {
		if err := binary.Read(r, binary.LittleEndian, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func normalizeL2(v []float32) {
	var sumSquares float64
	for _, f := range v {
		sumSquares += float64(f) * float64(f)
	}
	norm := math.Sqrt(sumSquares)
	if norm == 0 {
		return
	}
	inv := float32(1.0 / norm)
	for i := range v {
		v[i] *= inv
	}
}
