// Package repository stores recommendation records. Repository is the
// PostgreSQL store used in production; SQLiteRepository backs local runs.
package repository

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// MigrateUp applies every *.up.sql file in name order. Statements are idempotent.
func (r *Repository) MigrateUp(ctx context.Context) error {
	return r.runMigrations(ctx, ".up.sql", false)
}

// MigrateDown applies every *.down.sql file in reverse name order.
func (r *Repository) MigrateDown(ctx context.Context) error {
	return r.runMigrations(ctx, ".down.sql", true)
}

func (r *Repository) runMigrations(ctx context.Context, suffix string, reverse bool) error {
	files, err := migrationFiles(suffix, reverse)
	if err != nil {
		return err
	}
	for _, name := range files {
		sql, err := migrations.ReadFile("migrations/" + name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := r.pool.Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("execute migration %s: %w", name, err)
		}
	}
	return nil
}

func migrationFiles(suffix string, reverse bool) ([]string, error) {
	entries, err := fs.ReadDir(migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}

	var names []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), suffix) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	if reverse {
		sort.Sort(sort.Reverse(sort.StringSlice(names)))
	}
	return names, nil
}
