package catalog

import (
	"context"
	"strings"

	"github.com/flashcat/flash/internal/apierr"
)

// Search implements the §4.1 search contract: the query string is split on
// whitespace, tokens containing '*' or '?' are wildcard filename globs, the
// remaining tokens form a prefix FTS expression.
func (c *Catalog) Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	done := observeQuery("search_assets")
	var err error
	defer func() { done(err) }()

	globs, textTerms := splitQueryTokens(opts.Query)
	if p, ok := platformGlobs[opts.Platform]; ok {
		globs = append(globs, p)
	}

	where, whereArgs := buildSearchWhere(globs, textTerms, opts)
	order, orderArgs := searchOrderClause(globs, textTerms)

	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}

	args := append(append(append([]interface{}{}, whereArgs...), orderArgs...), limit, opts.Offset)
	rows, qErr := c.db.QueryContext(ctx,
		selectAssetColumns+" "+where+" ORDER BY "+order+" LIMIT ? OFFSET ?", args...)
	if qErr != nil {
		err = apierr.Wrap(apierr.KindStorage, qErr, "search assets")
		return nil, err
	}
	defer rows.Close()

	assets, scanErr := scanAssets(rows)
	if scanErr != nil {
		err = scanErr
		return nil, err
	}

	result := &SearchResult{Assets: assets}
	switch {
	case len(textTerms) > 0:
		counts, cErr := c.searchMatchCounts(ctx, textTerms, opts)
		if cErr != nil {
			err = cErr
			return nil, err
		}
		result.Matches = counts
		result.Total = counts.Filename + counts.Dirname + counts.Path
	case len(globs) > 0:
		total, cErr := c.countWithWhere(ctx, where, whereArgs)
		if cErr != nil {
			err = cErr
			return nil, err
		}
		result.Matches.Filename = total
		result.Total = total
	default:
		total, cErr := c.countWithWhere(ctx, where, whereArgs)
		if cErr != nil {
			err = cErr
			return nil, err
		}
		result.Total = total
	}
	return result, nil
}

// splitQueryTokens splits q on whitespace into wildcard glob patterns
// (containing '*' or '?') and plain text terms. Pattern "*.*" is dropped —
// per §4.1 it means "no filename constraint."
func splitQueryTokens(q string) (globs []string, text []string) {
	for _, tok := range strings.Fields(q) {
		if tok == "*.*" {
			continue
		}
		if strings.ContainsAny(tok, "*?") {
			globs = append(globs, tok)
		} else {
			text = append(text, tok)
		}
	}
	return globs, text
}

// ftsPrefixExpr builds the FTS MATCH expression: every term that doesn't
// already end in '*' gets a trailing '*' for prefix matching. Each term is
// double-quoted so user input can't break out of the MATCH expression.
func ftsPrefixExpr(terms []string) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSuffix(t, "*")
		if t == "" {
			continue
		}
		t = strings.ReplaceAll(t, `"`, `""`)
		parts = append(parts, `"`+t+`"*`)
	}
	return strings.Join(parts, " ")
}

func buildSearchWhere(globs, textTerms []string, opts SearchOptions) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	if len(globs) > 0 {
		var globParts []string
		for _, g := range globs {
			globParts = append(globParts, "lower(filename) GLOB lower(?)")
			args = append(args, g)
		}
		clauses = append(clauses, "("+strings.Join(globParts, " OR ")+")")
	}

	if len(textTerms) > 0 {
		clauses = append(clauses, "id IN (SELECT rowid FROM assets_fts WHERE assets_fts MATCH ?)")
		args = append(args, ftsPrefixExpr(textTerms))
	}

	if opts.From != nil {
		clauses = append(clauses, "taken_at >= ?")
		args = append(args, *opts.From)
	}
	if opts.To != nil {
		clauses = append(clauses, "taken_at <= ?")
		args = append(args, *opts.To)
	}
	if opts.CameraMake != "" {
		clauses = append(clauses, "camera_make = ?")
		args = append(args, opts.CameraMake)
	}
	if opts.CameraModel != "" {
		clauses = append(clauses, "camera_model = ?")
		args = append(args, opts.CameraModel)
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// searchOrderClause implements the §4.1 ordering rules:
//   - any wildcard present -> filename asc, taken_at desc nulls last, mtime desc
//   - text terms present -> match-type priority asc, taken_at desc nulls last, mtime desc
//   - otherwise -> taken_at desc nulls last, mtime desc
//
// The match-type priority (filename-hit=1, dirname-hit=2, path-hit=3,
// other=4) is computed per-row by re-testing each FTS column, since the
// single MATCH used in the WHERE clause doesn't expose which column hit.
func searchOrderClause(globs, textTerms []string) (string, []interface{}) {
	const tail = "taken_at IS NULL, taken_at DESC, mtime_ns DESC"
	switch {
	case len(globs) > 0:
		return "filename COLLATE NOCASE ASC, " + tail, nil
	case len(textTerms) > 0:
		expr := ftsPrefixExpr(textTerms)
		priority := `CASE
			WHEN id IN (SELECT rowid FROM assets_fts WHERE filename MATCH ?) THEN 1
			WHEN id IN (SELECT rowid FROM assets_fts WHERE dirname MATCH ?) THEN 2
			WHEN id IN (SELECT rowid FROM assets_fts WHERE path MATCH ?) THEN 3
			ELSE 4
		END`
		return priority + " ASC, " + tail, []interface{}{expr, expr, expr}
	default:
		return tail, nil
	}
}

func (c *Catalog) countWithWhere(ctx context.Context, where string, args []interface{}) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM assets "+where, args...).Scan(&n)
	if err != nil {
		return 0, apierr.Wrap(apierr.KindStorage, err, "count search results")
	}
	return n, nil
}

// searchMatchCounts runs the three disjoint per-match-type count queries
// described in §4.1: filename, dirname, path, each FTS-scoped to the column
// it names plus the shared date/camera filters. dirname excludes filename
// hits and path excludes both, so an asset is counted in exactly one bucket
// even when a term matches more than one column.
func (c *Catalog) searchMatchCounts(ctx context.Context, textTerms []string, opts SearchOptions) (MatchCounts, error) {
	expr := ftsPrefixExpr(textTerms)
	var mc MatchCounts
	for _, col := range []struct {
		name    string
		exclude []string
		dst     *int
	}{
		{"filename", nil, &mc.Filename},
		{"dirname", []string{"filename"}, &mc.Dirname},
		{"path", []string{"filename", "dirname"}, &mc.Path},
	} {
		clauses := []string{"id IN (SELECT rowid FROM assets_fts WHERE " + col.name + " MATCH ?)"}
		args := []interface{}{expr}
		for _, ex := range col.exclude {
			clauses = append(clauses, "id NOT IN (SELECT rowid FROM assets_fts WHERE "+ex+" MATCH ?)")
			args = append(args, expr)
		}
		if opts.From != nil {
			clauses = append(clauses, "taken_at >= ?")
			args = append(args, *opts.From)
		}
		if opts.To != nil {
			clauses = append(clauses, "taken_at <= ?")
			args = append(args, *opts.To)
		}
		if opts.CameraMake != "" {
			clauses = append(clauses, "camera_make = ?")
			args = append(args, opts.CameraMake)
		}
		if opts.CameraModel != "" {
			clauses = append(clauses, "camera_model = ?")
			args = append(args, opts.CameraModel)
		}
		var n int
		q := "SELECT COUNT(*) FROM assets WHERE " + strings.Join(clauses, " AND ")
		if err := c.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
			return MatchCounts{}, apierr.Wrap(apierr.KindStorage, err, "count "+col.name+" matches")
		}
		*col.dst = n
	}
	return mc, nil
}
