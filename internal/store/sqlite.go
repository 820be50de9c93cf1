package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 0 - No schema (fresh file)
// 1 - kv table keyed by (namespace, key)
const currentSchemaVersion = 1

// SQLiteEngine is a durable Engine over one namespace of a SQLite database.
// It stores values exactly as given; wrap it with OpenSealed.
type SQLiteEngine struct {
	db        *sql.DB
	namespace string
}

// OpenSQLite creates or opens a SQLite database at path and scopes the engine
// to namespace. Applies required pragmas and migrations automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - FULL synchronous mode (a write is on disk before it returns)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func OpenSQLite(path, namespace string) (*SQLiteEngine, error) {
	if namespace == "" {
		return nil, fmt.Errorf("open sqlite: empty namespace")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	// A single connection also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteEngine{db: db, namespace: namespace}, nil
}

// SQLiteOpener returns an Opener that opens the database at path and seals
// its values with the secret.
func SQLiteOpener(path string) Opener {
	return func(ctx context.Context, namespaceID, encryptionKey string) (Engine, error) {
		raw, err := OpenSQLite(path, namespaceID)
		if err != nil {
			return nil, err
		}
		return OpenSealed(ctx, raw, encryptionKey)
	}
}

// Close closes the database connection.
func (e *SQLiteEngine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func (e *SQLiteEngine) GetString(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := e.db.QueryRowContext(ctx, `
		SELECT value FROM kv WHERE namespace = ? AND key = ?
	`, e.namespace, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Set upserts the entry. The statement runs in autocommit mode, so with
// synchronous=FULL the row is durable when Set returns.
func (e *SQLiteEngine) Set(ctx context.Context, key, value string) error {
	_, err := e.db.ExecContext(ctx, `
		INSERT INTO kv (namespace, key, value)
		VALUES (?, ?, ?)
		ON CONFLICT(namespace, key) DO UPDATE SET value = excluded.value
	`, e.namespace, key, value)
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (e *SQLiteEngine) Delete(ctx context.Context, key string) error {
	_, err := e.db.ExecContext(ctx, `
		DELETE FROM kv WHERE namespace = ? AND key = ?
	`, e.namespace, key)
	if err != nil {
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func (e *SQLiteEngine) GetAllKeys(ctx context.Context) ([]string, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT key FROM kv WHERE namespace = ?
		ORDER BY key ASC COLLATE BINARY
	`, e.namespace)
	if err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("list keys: scan: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list keys: %w", err)
	}
	return keys, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and runs migrations.
// This function is idempotent.
func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}

// runMigrations brings user_version up to currentSchemaVersion and refuses
// databases written by a newer schema.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version > currentSchemaVersion {
		return fmt.Errorf("schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	// Version 1 is created by schema.sql; nothing to backfill yet.

	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}
