package db

import (
	"context"
	"fmt"
	"sort"

	"github.com/sheetrtd/sheetrt/pkg/errs"
)

// Migration is one forward-only, idempotent schema step. Statements
// should use `IF NOT EXISTS` / `IF NOT EXISTS` equivalents so that a
// migration can, in principle, be re-applied without error; the runner
// itself still tracks applied versions so a migration body only ever
// runs once per database.
type Migration struct {
	Version     int
	Description string
	Statements  []string
}

const schemaVersionTable = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at TEXT NOT NULL
)`

// Migrate applies every migration in migrations whose Version is not yet
// recorded in schema_version, in ascending Version order, each inside
// its own transaction. Re-running Migrate with the same migration set is
// a no-op: schema_version is left unchanged (idempotence law).
func Migrate(ctx context.Context, a *Adapter, migrations []Migration) error {
	if _, err := a.Exec(ctx, schemaVersionTable); err != nil {
		return errs.New(errs.KindMigration, "db", "create schema_version table", err)
	}

	applied := make(map[int]bool)
	rows, err := a.Query(ctx, "SELECT version FROM schema_version")
	if err != nil {
		return errs.New(errs.KindMigration, "db", "read schema_version", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return errs.New(errs.KindMigration, "db", "scan schema_version row", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return errs.New(errs.KindMigration, "db", "iterate schema_version", err)
	}
	rows.Close()

	ordered := make([]Migration, len(migrations))
	copy(ordered, migrations)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Version < ordered[j].Version })

	for _, m := range ordered {
		if applied[m.Version] {
			continue
		}
		if err := a.WithTx(ctx, func(tx *Adapter) error {
			for _, stmt := range m.Statements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
				}
			}
			_, err := tx.Exec(ctx,
				"INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
				m.Version, m.Description, nowISO8601())
			return err
		}); err != nil {
			return errs.New(errs.KindMigration, "db", fmt.Sprintf("apply migration %d", m.Version), err)
		}
	}
	return nil
}

// CurrentVersion returns the highest applied schema_version, or 0 if
// none have been applied yet.
func CurrentVersion(ctx context.Context, a *Adapter) (int, error) {
	exists, err := a.TableExists(ctx, "schema_version")
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	var v int64
	row := a.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
	if err := row.Scan(&v); err != nil {
		return 0, errs.New(errs.KindMigration, "db", "read current version", err)
	}
	return int(v), nil
}
