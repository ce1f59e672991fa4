package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaStep is one forward-only schema change, stored as NNNN_name.sql.
type schemaStep struct {
	Version int
	Name    string
	SQL     string
}

func loadSteps() ([]schemaStep, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	steps := make([]schemaStep, 0, len(entries))
	for _, entry := range entries {
		version, name, err := parseStepName(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("migration %q: %w", entry.Name(), err)
		}
		content, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		steps = append(steps, schemaStep{Version: version, Name: name, SQL: string(content)})
	}

	slices.SortFunc(steps, func(a, b schemaStep) int { return a.Version - b.Version })

	// versions must run 1..n without gaps, user_version counts them
	for i, s := range steps {
		if s.Version != i+1 {
			return nil, fmt.Errorf("migration %04d (%s) out of sequence, want %04d", s.Version, s.Name, i+1)
		}
	}
	return steps, nil
}

func parseStepName(filename string) (int, string, error) {
	base, ok := strings.CutSuffix(filename, ".sql")
	if !ok {
		return 0, "", fmt.Errorf("expected .sql suffix")
	}
	num, name, ok := strings.Cut(base, "_")
	if !ok || name == "" {
		return 0, "", fmt.Errorf("expected NNNN_name.sql")
	}
	version, err := strconv.Atoi(num)
	if err != nil {
		return 0, "", fmt.Errorf("version %q: %w", num, err)
	}
	if version <= 0 {
		return 0, "", fmt.Errorf("version must be positive, got %d", version)
	}
	return version, name, nil
}

// schemaVersion reads sqlite's user_version, which counts applied steps.
func schemaVersion(ctx context.Context, conn *sql.DB) (int, error) {
	var v int
	if err := conn.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("read schema version: %w", err)
	}
	return v, nil
}

// migrateUp applies every step above the current schema version. Each step
// and its version bump commit together.
func migrateUp(ctx context.Context, conn *sql.DB) error {
	steps, err := loadSteps()
	if err != nil {
		return err
	}

	current, err := schemaVersion(ctx, conn)
	if err != nil {
		return err
	}
	if current > len(steps) {
		return fmt.Errorf("database schema version %d is newer than this binary (%d)", current, len(steps))
	}

	for _, s := range steps[current:] {
		log.Debug().Int("version", s.Version).Str("name", s.Name).Msg("applying migration")

		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %04d: %w", s.Version, err)
		}
		if _, err := tx.ExecContext(ctx, s.SQL); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %04d (%s): %w", s.Version, s.Name, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", s.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("bump schema version to %d: %w", s.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %04d: %w", s.Version, err)
		}
	}
	return nil
}
