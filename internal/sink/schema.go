package sink

import (
	"cmp"
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed sql/*.up.sql
var schemaFS embed.FS

// schemaStep is one versioned DDL file, named NNNNNN_description.up.sql
type schemaStep struct {
	version int
	name    string
	ddl     string
}

// loadSchemaSteps returns the steps under dir ordered by version. A file whose
// prefix is not a number, or whose version repeats, is an error.
func loadSchemaSteps(fsys fs.FS, dir string) ([]schemaStep, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.up.sql"))
	if err != nil {
		return nil, err
	}

	steps := make([]schemaStep, 0, len(files))
	seen := make(map[int]string, len(files))
	for _, file := range files {
		base := strings.TrimSuffix(path.Base(file), ".up.sql")
		prefix, name, ok := strings.Cut(base, "_")
		if !ok {
			return nil, fmt.Errorf("schema file %s has no version prefix", file)
		}
		version, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("schema file %s: bad version %q", file, prefix)
		}
		if other, dup := seen[version]; dup {
			return nil, fmt.Errorf("schema version %d used by %s and %s", version, other, file)
		}
		seen[version] = file

		ddl, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, err
		}
		steps = append(steps, schemaStep{version: version, name: name, ddl: string(ddl)})
	}

	slices.SortFunc(steps, func(a, b schemaStep) int { return cmp.Compare(a.version, b.version) })
	return steps, nil
}

// migrateSchema brings db up to the newest embedded schema version. Applied
// versions are tracked in schema_versions and every step commits on its own.
func migrateSchema(ctx context.Context, db *sql.DB, dialect Dialect, steps []schemaStep) (applied int, err error) {
	if _, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS schema_versions (
            version INTEGER PRIMARY KEY,
            name VARCHAR(255) NOT NULL,
            applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
        )`); err != nil {
		return 0, fmt.Errorf("creating schema_versions: %w", err)
	}

	current, err := schemaVersion(ctx, db)
	if err != nil {
		return 0, err
	}

	for _, step := range steps {
		if step.version <= current {
			continue
		}
		if err := applySchemaStep(ctx, db, dialect, step); err != nil {
			return applied, err
		}
		applied++
		current = step.version
	}

	log.Debug().
		Str("driver", string(dialect)).
		Int("schemaVersion", current).
		Int("stepsApplied", applied).
		Msg("Record store schema ready")
	return applied, nil
}

// schemaVersion is the highest applied version, 0 for a new database
func schemaVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v sql.NullInt64
	if err := db.QueryRowContext(ctx, "SELECT MAX(version) FROM schema_versions").Scan(&v); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return int(v.Int64), nil
}

func applySchemaStep(ctx context.Context, db *sql.DB, dialect Dialect, step schemaStep) (err error) {
	log.Info().
		Str("driver", string(dialect)).
		Int("schemaVersion", step.version).
		Str("step", step.name).
		Msg("Upgrading record store schema")

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, step.ddl); err != nil {
		return fmt.Errorf("schema step %d %s: %w", step.version, step.name, err)
	}
	if _, err = tx.ExecContext(ctx,
		dialect.Rebind("INSERT INTO schema_versions (version, name) VALUES (?, ?)"),
		step.version, step.name); err != nil {
		return fmt.Errorf("recording schema step %d: %w", step.version, err)
	}
	return tx.Commit()
}
