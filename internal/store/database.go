package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations/*.sql
var migrations embed.FS

// DBConfig holds database configuration options.
type DBConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	// SQLite with WAL allows many readers and a single writer.
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible defaults for SQLite.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    10,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// connectionPragmas are applied to every pooled connection through the DSN,
// since foreign_keys and busy_timeout are per-connection settings.
var connectionPragmas = []string{
	"journal_mode(WAL)",
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"foreign_keys(1)",
	"temp_store(MEMORY)",
	"cache_size(-64000)",
}

// NewDB opens a SQLite database connection and configures it for optimal performance.
func NewDB(path string) (*sql.DB, error) {
	return NewDBWithConfig(path, DefaultDBConfig())
}

// NewDBWithConfig opens a SQLite database connection with custom configuration.
func NewDBWithConfig(path string, cfg DBConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite", buildDSN(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

func buildDSN(path string) string {
	q := url.Values{}
	for _, p := range connectionPragmas {
		q.Add("_pragma", p)
	}
	// Writers take the lock at BEGIN, so a read-then-write transaction waits
	// on busy_timeout instead of failing with SQLITE_BUSY on upgrade.
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Migrate runs all pending database migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// SchemaVersion returns the current goose migration version.
func SchemaVersion(db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return 0, fmt.Errorf("setting dialect: %w", err)
	}
	return goose.GetDBVersion(db)
}

// VacuumInto writes a consistent, compacted copy of the live database to dest.
// dest must not exist.
func VacuumInto(ctx context.Context, db *sql.DB, dest string) error {
	if _, err := db.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("vacuum into %s: %w", dest, err)
	}
	return nil
}

// ErrSchemaMismatch is returned when a backup was taken at a different
// migration version than the live database.
var ErrSchemaMismatch = errors.New("backup schema version does not match database")

// RestoreTables replaces the rows of tables in the live database with the
// rows of the same tables in the SQLite file at srcPath. Tables are cleared in
// reverse order and filled in the given order inside one transaction, so list
// parents before children. The attach, foreign-key toggle and transaction
// all run on a single pooled connection.
func RestoreTables(ctx context.Context, db *sql.DB, srcPath string, tables []string) (err error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS restore_src", srcPath); err != nil {
		return fmt.Errorf("attaching backup: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "DETACH DATABASE restore_src")
	}()

	var liveVersion, srcVersion int64
	if err := conn.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version_id), 0) FROM main.goose_db_version WHERE is_applied = 1").Scan(&liveVersion); err != nil {
		return fmt.Errorf("reading live schema version: %w", err)
	}
	if err := conn.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version_id), 0) FROM restore_src.goose_db_version WHERE is_applied = 1").Scan(&srcVersion); err != nil {
		return fmt.Errorf("reading backup schema version: %w", err)
	}
	if liveVersion != srcVersion {
		return fmt.Errorf("%w: backup %d, live %d", ErrSchemaMismatch, srcVersion, liveVersion)
	}

	// foreign_keys cannot change inside a transaction.
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys=OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(context.Background(), "PRAGMA foreign_keys=ON")
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning restore: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for i := len(tables) - 1; i >= 0; i-- {
		if _, err = tx.ExecContext(ctx, "DELETE FROM main."+tables[i]); err != nil {
			return fmt.Errorf("clearing %s: %w", tables[i], err)
		}
	}
	for _, t := range tables {
		if _, err = tx.ExecContext(ctx, "INSERT INTO main."+t+" SELECT * FROM restore_src."+t); err != nil {
			return fmt.Errorf("copying %s: %w", t, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing restore: %w", err)
	}
	return nil
}
