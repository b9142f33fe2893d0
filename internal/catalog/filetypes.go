package catalog

import (
	"context"

	"github.com/flashcat/flash/internal/apierr"
)

// commonMIME is the small set of types that get their own histogram entry
// in the UI; everything else is lumped into "other" and broken down by
// extension instead.
var commonMIME = map[string]bool{
	"image/jpeg": true, "image/png": true, "image/gif": true, "image/webp": true,
	"video/mp4": true, "video/webm": true, "video/quicktime": true,
}

// FileTypeCount is one row of the MIME histogram, per `GET /file-types`.
type FileTypeCount struct {
	MIME  string `json:"mime"`
	Count int    `json:"count"`
}

// ExtCount is one row of the "other" breakdown by extension.
type ExtCount struct {
	Ext   string `json:"ext"`
	Count int    `json:"count"`
}

// FileTypeStats is the `GET /file-types` payload.
type FileTypeStats struct {
	ByMIME     []FileTypeCount `json:"by_mime"`
	OtherByExt []ExtCount      `json:"other_by_ext"`
}

// FileTypeStats computes the MIME histogram plus a top-20 breakdown of the
// "other" kind by extension, per §6.
func (c *Catalog) FileTypeStats(ctx context.Context) (*FileTypeStats, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT mime, COUNT(*) FROM assets GROUP BY mime ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "file type histogram")
	}
	defer rows.Close()

	stats := &FileTypeStats{}
	for rows.Next() {
		var fc FileTypeCount
		if err := rows.Scan(&fc.MIME, &fc.Count); err != nil {
			return nil, apierr.Wrap(apierr.KindStorage, err, "scan mime row")
		}
		stats.ByMIME = append(stats.ByMIME, fc)
	}
	if err := rows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "iterate mime rows")
	}

	var otherClause string
	var otherArgs []interface{}
	for mime := range commonMIME {
		otherClause += "?,"
		otherArgs = append(otherArgs, mime)
	}
	extRows, extErr := c.db.QueryContext(ctx,
		`SELECT ext, COUNT(*) FROM assets WHERE mime NOT IN (`+trimTrailingComma(otherClause)+`)
		 GROUP BY ext ORDER BY COUNT(*) DESC LIMIT 20`, otherArgs...)
	if extErr != nil {
		return nil, apierr.Wrap(apierr.KindStorage, extErr, "other-type extension breakdown")
	}
	defer extRows.Close()

	for extRows.Next() {
		var ec ExtCount
		if err := extRows.Scan(&ec.Ext, &ec.Count); err != nil {
			return nil, apierr.Wrap(apierr.KindStorage, err, "scan ext row")
		}
		stats.OtherByExt = append(stats.OtherByExt, ec)
	}
	if err := extRows.Err(); err != nil {
		return nil, apierr.Wrap(apierr.KindStorage, err, "iterate ext rows")
	}
	return stats, nil
}

func trimTrailingComma(s string) string {
	if len(s) == 0 {
		return s
	}
	return s[:len(s)-1]
}
