package migrations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
)

// Runner applies the embedded migrations of one dialect to a database.
// Applied versions are recorded by goose in its version table; each migration
// runs in its own transaction and a failed one is left unrecorded.
type Runner struct {
	provider *goose.Provider
	dialect  Dialect
	log      logrus.FieldLogger
}

// Status reports whether a declared migration has been applied.
type Status struct {
	Migration
	Applied   bool
	AppliedAt time.Time
}

// NewRunner returns a migration runner backed by a goose provider.
func NewRunner(db *sql.DB, dialect Dialect, log logrus.FieldLogger) (*Runner, error) {
	if db == nil {
		return nil, errors.New("nil database provided")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	gooseDialect, err := toGooseDialect(dialect)
	if err != nil {
		return nil, err
	}
	fsys, err := FS(dialect)
	if err != nil {
		return nil, err
	}

	provider, err := goose.NewProvider(gooseDialect, db, fsys)
	if err != nil {
		return nil, fmt.Errorf("configure goose: %w", err)
	}
	return &Runner{provider: provider, dialect: dialect, log: log}, nil
}

// Up applies every pending migration in declaration order and returns the ones applied.
// Running it again once the schema is current is a no-op.
func (r *Runner) Up(ctx context.Context) ([]Migration, error) {
	r.log.WithField("dialect", r.dialect).Info("applying migrations")

	results, err := r.provider.Up(ctx)
	if err != nil {
		var partial *goose.PartialError
		if errors.As(err, &partial) {
			applied := r.logResults(partial.Applied)
			if partial.Failed != nil && partial.Failed.Source != nil {
				r.log.WithField("migration", nameOf(partial.Failed.Source)).Error("migration failed")
			}
			return applied, fmt.Errorf("apply migrations: %w", partial.Err)
		}
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	applied := r.logResults(results)
	r.log.WithField("applied", len(applied)).Info("migrations applied")
	return applied, nil
}

// Status lists every declared migration with its applied state.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	statuses, err := r.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration status: %w", err)
	}

	out := make([]Status, 0, len(statuses))
	for _, st := range statuses {
		if st.Source == nil {
			continue
		}
		out = append(out, Status{
			Migration: Migration{Version: st.Source.Version, Name: nameOf(st.Source)},
			Applied:   st.State == goose.StateApplied,
			AppliedAt: st.AppliedAt,
		})
	}
	return out, nil
}

// Applied returns the names of the migrations recorded as applied.
func (r *Runner) Applied(ctx context.Context) (map[string]struct{}, error) {
	statuses, err := r.Status(ctx)
	if err != nil {
		return nil, err
	}
	applied := make(map[string]struct{}, len(statuses))
	for _, st := range statuses {
		if st.Applied {
			applied[st.Name] = struct{}{}
		}
	}
	return applied, nil
}

// Pending returns the declared migrations not yet applied, in application order.
func (r *Runner) Pending(ctx context.Context) ([]Migration, error) {
	applied, err := r.Applied(ctx)
	if err != nil {
		return nil, err
	}
	all, err := Sources(r.dialect)
	if err != nil {
		return nil, err
	}
	return Pending(all, applied), nil
}

func (r *Runner) logResults(results []*goose.MigrationResult) []Migration {
	applied := make([]Migration, 0, len(results))
	for _, res := range results {
		if res == nil || res.Source == nil {
			continue
		}
		m := Migration{Version: res.Source.Version, Name: nameOf(res.Source)}
		applied = append(applied, m)
		r.log.WithFields(logrus.Fields{
			"migration": m.Name,
			"duration":  res.Duration,
		}).Info("migration applied")
	}
	return applied
}

func nameOf(src *goose.Source) string {
	m, err := parseName(src.Path)
	if err != nil {
		return fmt.Sprintf("%d", src.Version)
	}
	return m.Name
}

func toGooseDialect(dialect Dialect) (goose.Dialect, error) {
	switch dialect {
	case DialectSQLite:
		return goose.DialectSQLite3, nil
	case DialectPostgres:
		return goose.DialectPostgres, nil
	default:
		return "", fmt.Errorf("unsupported migration dialect %q", dialect)
	}
}
