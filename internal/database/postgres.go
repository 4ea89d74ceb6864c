package database

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrationLockID serialises migrations across instances booting at the same time.
const migrationLockID = 727_001

// NewPostgresPool opens the pool used by the usage event log. Writes come from a
// handful of background workers, so the pool stays small.
func NewPostgresPool(databaseURL string, maxConns int) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	if maxConns < 2 {
		maxConns = 2
	}
	config.MaxConns = int32(maxConns)
	config.MinConns = 1
	config.MaxConnIdleTime = 5 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

type migration struct {
	version int
	name    string
	path    string
}

// migrationVersion parses the leading number of "NNN_description.sql".
func migrationVersion(name string) (int, bool) {
	if filepath.Ext(name) != ".sql" {
		return 0, false
	}
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(prefix)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// discoverMigrations lists migration files in dir ordered by version.
func discoverMigrations(dir string) ([]migration, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []migration
	seen := make(map[int]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		v, ok := migrationVersion(entry.Name())
		if !ok {
			continue
		}
		if prev, dup := seen[v]; dup {
			return nil, fmt.Errorf("migrations %s and %s share version %d", prev, entry.Name(), v)
		}
		seen[v] = entry.Name()
		out = append(out, migration{version: v, name: entry.Name(), path: filepath.Join(dir, entry.Name())})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// RunMigrations applies the files in migrationsDir that schema_migrations has not
// recorded yet. A missing directory is not an error.
func RunMigrations(pool *pgxpool.Pool, migrationsDir string) error {
	migrations, err := discoverMigrations(migrationsDir)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("No migrations directory at %s, skipping", migrationsDir)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err = pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		applied, err := applyMigration(ctx, pool, m)
		if err != nil {
			return err
		}
		if applied {
			log.Printf("Applied migration %03d: %s", m.version, m.name)
		}
	}

	return nil
}

func applyMigration(ctx context.Context, pool *pgxpool.Pool, m migration) (bool, error) {
	content, err := os.ReadFile(m.path)
	if err != nil {
		return false, fmt.Errorf("failed to read migration %s: %w", m.name, err)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction for migration %d: %w", m.version, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
		return false, fmt.Errorf("failed to lock migrations: %w", err)
	}

	var exists bool
	if err := tx.QueryRow(ctx, "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.version).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check migration %d: %w", m.version, err)
	}
	if exists {
		return false, nil
	}

	if _, err := tx.Exec(ctx, string(content)); err != nil {
		return false, fmt.Errorf("failed to execute migration %d: %w", m.version, err)
	}
	if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.version); err != nil {
		return false, fmt.Errorf("failed to record migration %d: %w", m.version, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("failed to commit migration %d: %w", m.version, err)
	}
	return true, nil
}
