// Package search builds PostgreSQL full-text search fragments for the content
// entry listing.
package search

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Config is the text search configuration. Titles and field values are
// free-form and multilingual, so no stemming is applied.
const Config = "simple"

// BuildSearchClause generates the WHERE and ORDER BY fragments matching query
// against the given text columns, starting at placeholder $paramIdx.
//
// Returns:
//   - whereClause: to_tsvector('simple', coalesce("title", '')) @@ plainto_tsquery('simple', $3)
//   - orderClause: ts_rank(to_tsvector(...), plainto_tsquery('simple', $3)) DESC
//   - args: the query string to bind
//
// A blank query or an empty column list disables search and returns zero
// values.
func BuildSearchClause(query string, columns []string, paramIdx int) (whereClause, orderClause string, args []any) {
	query = strings.TrimSpace(query)
	if query == "" || len(columns) == 0 {
		return "", "", nil
	}

	parts := make([]string, len(columns))
	for i, c := range columns {
		parts[i] = fmt.Sprintf("coalesce(%s, '')", quoteColumn(c))
	}
	vector := fmt.Sprintf("to_tsvector('%s', %s)", Config, strings.Join(parts, " || ' ' || "))
	tsquery := fmt.Sprintf("plainto_tsquery('%s', $%d)", Config, paramIdx)

	whereClause = fmt.Sprintf("%s @@ %s", vector, tsquery)
	orderClause = fmt.Sprintf("ts_rank(%s, %s) DESC", vector, tsquery)
	return whereClause, orderClause, []any{query}
}

// quoteColumn quotes a column name. Casts such as fields::text are kept
// outside the quotes.
func quoteColumn(c string) string {
	name, cast, ok := strings.Cut(c, "::")
	quoted := pgx.Identifier{name}.Sanitize()
	if ok {
		return quoted + "::" + cast
	}
	return quoted
}
