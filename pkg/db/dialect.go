// Package db provides a single connection-adapter type over SQLite and
// Postgres, rewriting a SQLite-flavoured dialect (written with `?`
// placeholders and `INSERT OR IGNORE` / `INSERT OR REPLACE`) into
// whatever the active backend understands.
//
// Grounded on haasonsaas-nexus's internal/sessions package, which keeps
// a MemoryStore and a CockroachStore (Postgres wire-compatible, via
// lib/pq) behind the same Store interface; Adapter/Rewrite generalize
// that split into a single connection type that rewrites one
// SQLite-flavoured statement for whichever backend is active, instead
// of hand-writing both statement forms at every call site.
package db

import (
	"fmt"
	"strings"
)

// Dialect identifies the SQL backend behind an Adapter.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

// rewritePlaceholders turns `?` placeholders into the target dialect's
// positional syntax. SQLite accepts `?` natively.
func rewritePlaceholders(dialect Dialect, query string) string {
	if dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 20)
	paramNum := 1
	inString := false
	for _, c := range query {
		switch {
		case c == '\'':
			inString = !inString
			b.WriteRune(c)
		case c == '?' && !inString:
			fmt.Fprintf(&b, "$%d", paramNum)
			paramNum++
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Rewrite translates one SQLite-dialect statement into the adapter's
// active dialect: placeholder syntax plus `INSERT OR IGNORE` / `INSERT OR
// REPLACE` upsert rewriting.
func Rewrite(dialect Dialect, query string) string {
	query = rewriteUpsert(dialect, query)
	return rewritePlaceholders(dialect, query)
}

func rewriteUpsert(dialect Dialect, query string) string {
	if dialect == SQLite {
		return query
	}
	trimmed := strings.TrimSpace(query)
	upper := strings.ToUpper(trimmed)

	switch {
	case strings.HasPrefix(upper, "INSERT OR IGNORE INTO"):
		body := trimmed[len("INSERT OR IGNORE INTO"):]
		return "INSERT INTO" + body + " ON CONFLICT DO NOTHING"

	case strings.HasPrefix(upper, "INSERT OR REPLACE INTO"):
		body := trimmed[len("INSERT OR REPLACE INTO"):]
		return rewritePostgresUpsert(body)
	}
	return query
}

// rewritePostgresUpsert converts `t (c0,c1,...) VALUES (...)` into
// `INSERT INTO t (c0,c1,...) VALUES (...) ON CONFLICT (c0) DO UPDATE SET
// ci=EXCLUDED.ci [, ...]`, or `ON CONFLICT (c0) DO NOTHING` for a
// single-column table.
func rewritePostgresUpsert(body string) string {
	cols := extractColumnList(body)
	if len(cols) == 0 {
		return "INSERT INTO" + body
	}
	if len(cols) == 1 {
		return "INSERT INTO" + body + fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", cols[0])
	}
	sets := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	return "INSERT INTO" + body + fmt.Sprintf(" ON CONFLICT (%s) DO UPDATE SET %s", cols[0], strings.Join(sets, ", "))
}

// extractColumnList pulls the column names out of the first parenthesised
// group in "t (c0, c1, c2) VALUES (...)".
func extractColumnList(body string) []string {
	open := strings.Index(body, "(")
	if open < 0 {
		return nil
	}
	close := strings.Index(body[open:], ")")
	if close < 0 {
		return nil
	}
	raw := body[open+1 : open+close]
	parts := strings.Split(raw, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		cols = append(cols, strings.TrimSpace(p))
	}
	return cols
}
