package main

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationFS embed.FS

type DBDialect string

const (
	dialectSQLite   DBDialect = "sqlite"
	dialectPostgres DBDialect = "postgres"
)

type SQLRepository struct {
	dialect DBDialect
	db      *sql.DB
}

// newConfiguredStore builds the store from the environment: reference
// tables from POSITIONS_CATALOG_PATH (or embedded defaults) and saved
// games from the configured database. Without a database the store
// runs in memory only.
func newConfiguredStore() (*Store, error) {
	reference, err := loadReferenceData(strings.TrimSpace(os.Getenv("POSITIONS_CATALOG_PATH")))
	if err != nil {
		return nil, err
	}
	store := newStore(reference)
	repo, err := openRepositoryFromEnv()
	if err != nil {
		return nil, err
	}
	if repo == nil {
		return store, nil
	}
	store.repo = repo
	if err := repo.LoadInto(context.Background(), store); err != nil {
		return nil, err
	}
	return store, nil
}

func openRepositoryFromEnv() (*SQLRepository, error) {
	dialectRaw := strings.TrimSpace(strings.ToLower(os.Getenv("DB_DIALECT")))
	if dialectRaw == "" {
		dialectRaw = string(dialectSQLite)
	}
	dialect := DBDialect(dialectRaw)

	var driverName string
	var dsn string
	switch dialect {
	case dialectSQLite:
		driverName = "sqlite"
		path := strings.TrimSpace(os.Getenv("DB_SQLITE_PATH"))
		if path == "" {
			path = filepath.Join("tmp", "spacegom.sqlite")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
		dsn = path
	case dialectPostgres:
		driverName = "pgx"
		dsn = strings.TrimSpace(os.Getenv("DB_POSTGRES_DSN"))
		if dsn == "" {
			dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
		}
		if dsn == "" {
			return nil, errors.New("DB_DIALECT=postgres requires DB_POSTGRES_DSN or DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", dialectRaw)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", dialect, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s database: %w", dialect, err)
	}

	repo := &SQLRepository{dialect: dialect, db: db}
	if err := repo.applyMigrations(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	log.Printf("database: dialect=%s", dialect)
	return repo, nil
}

func (r *SQLRepository) bind(pos int) string {
	if r.dialect == dialectPostgres {
		return fmt.Sprintf("$%d", pos)
	}
	return "?"
}

func (r *SQLRepository) applyMigrations(ctx context.Context) error {
	create := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL
		)
	`
	if _, err := r.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := map[string]bool{}
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("read schema_migrations: %w", err)
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scan schema migration: %w", err)
		}
		applied[v] = true
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("iterate schema migrations: %w", err)
	}
	rows.Close()

	pattern := fmt.Sprintf("migrations/%s/*.sql", r.dialect)
	files, err := fs.Glob(migrationFS, pattern)
	if err != nil {
		return fmt.Errorf("glob migrations: %w", err)
	}
	sort.Strings(files)
	for _, file := range files {
		base := filepath.Base(file)
		if applied[base] {
			continue
		}
		sqlBytes, err := migrationFS.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration tx %s: %w", file, err)
		}
		if _, err := tx.ExecContext(ctx, string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
		record := fmt.Sprintf(
			"INSERT INTO schema_migrations (version, applied_at) VALUES (%s, %s)",
			r.bind(1), r.bind(2))
		if _, err := tx.ExecContext(ctx, record, base, time.Now().UTC()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %s: %w", file, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", file, err)
		}
	}
	return nil
}

// persistLocked writes one game through to the database after each
// mutation. Persistence failures are logged, never fatal: the
// in-memory state stays authoritative for the session.
func (s *Store) persistLocked(g *Game) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveGame(context.Background(), g); err != nil {
		log.Printf("persist game %s failed: %v", g.ID, err)
	}
}

// SaveGame upserts the game's full state as one JSON payload row.
func (r *SQLRepository) SaveGame(ctx context.Context, g *Game) error {
	q := fmt.Sprintf(`
		INSERT INTO games (id, company_name, game_date, bankrupt, payload, created_at, updated_at)
		VALUES (%s, %s, %s, %s, %s, %s, %s)
		ON CONFLICT (id) DO UPDATE SET
			company_name = excluded.company_name,
			game_date = excluded.game_date,
			bankrupt = excluded.bankrupt,
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		r.bind(1), r.bind(2), r.bind(3), r.bind(4), r.bind(5), r.bind(6), r.bind(7))
	_, err := r.db.ExecContext(ctx, q,
		g.ID, g.CompanyName, g.Date.String(), g.Bankrupt, asJSON(g), g.CreatedAt, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert game %s: %w", g.ID, err)
	}
	return nil
}

// DeleteGame removes a saved game row.
func (r *SQLRepository) DeleteGame(ctx context.Context, id string) error {
	q := fmt.Sprintf("DELETE FROM games WHERE id = %s", r.bind(1))
	if _, err := r.db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("delete game %s: %w", id, err)
	}
	return nil
}

// LoadInto restores every saved game into the store at boot.
func (r *SQLRepository) LoadInto(ctx context.Context, store *Store) error {
	rows, err := r.db.QueryContext(ctx, "SELECT payload FROM games ORDER BY created_at")
	if err != nil {
		return fmt.Errorf("load games: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan game: %w", err)
		}
		var g Game
		if err := json.Unmarshal([]byte(payload), &g); err != nil {
			return fmt.Errorf("decode game: %w", err)
		}
		store.Games[g.ID] = &g
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate games: %w", err)
	}
	log.Printf("database: loaded %d games", len(store.Games))
	return nil
}

func asJSON(v any) string {
	b, _ := json.Marshal(v)
	return string(b)
}
