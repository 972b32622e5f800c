// Package migrations holds the forward-only schema history and applies it with goose.
//
// Files are named <timestamp>_<description>.sql, one directory per SQL dialect.
// A file that has been released is never edited again; schema changes are
// appended as new files.
//
// Narrowing the username column keeps every existing row. Rows that cannot
// satisfy the narrowed column (duplicates or names over the length bound) make
// the migration fail; its transaction is rolled back, it stays unrecorded, and
// startup stops until an operator resolves the conflicting rows.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strconv"
	"strings"
)

//go:embed sqlite/*.sql postgres/*.sql
var files embed.FS

// Dialect selects the SQL flavour of the migration set.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Migration identifies one schema change.
type Migration struct {
	Version int64
	Name    string
}

// FS returns the migration files for a dialect.
func FS(dialect Dialect) (fs.FS, error) {
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported migration dialect %q", dialect)
	}
	sub, err := fs.Sub(files, string(dialect))
	if err != nil {
		return nil, fmt.Errorf("open %s migrations: %w", dialect, err)
	}
	return sub, nil
}

// Sources lists the declared migrations of a dialect in application order.
func Sources(dialect Dialect) ([]Migration, error) {
	fsys, err := FS(dialect)
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read %s migrations: %w", dialect, err)
	}

	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".sql" {
			continue
		}
		m, err := parseName(entry.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

// Pending filters all down to the migrations whose names are not in applied,
// keeping declaration order.
func Pending(all []Migration, applied map[string]struct{}) []Migration {
	pending := make([]Migration, 0, len(all))
	for _, m := range all {
		if _, ok := applied[m.Name]; ok {
			continue
		}
		pending = append(pending, m)
	}
	return pending
}

func parseName(file string) (Migration, error) {
	name := strings.TrimSuffix(path.Base(file), path.Ext(file))
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return Migration{}, fmt.Errorf("migration %q: missing description", file)
	}
	version, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil || version <= 0 {
		return Migration{}, fmt.Errorf("migration %q: invalid version prefix", file)
	}
	return Migration{Version: version, Name: name}, nil
}
