// Package sqlitemigrate applies embedded SQL migrations to a SQLite
// database. Each .sql file runs at most once; applied file names are
// recorded in a schema_migrations table. Files carry their forward DDL
// under a "-- +migrate Up" marker.
package sqlitemigrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

const (
	trackingTable = "schema_migrations"
	upMarker      = "-- +migrate Up"
	downMarker    = "-- +migrate Down"
)

// ApplyMigrations runs every pending .sql file under root in lexical
// order. An empty root reads the top of the filesystem.
func ApplyMigrations(db *sql.DB, source fs.FS, root string) error {
	if db == nil {
		return fmt.Errorf("sql db is required")
	}

	files, err := pendingFiles(source, root)
	if err != nil {
		return err
	}

	if _, err := db.Exec(fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, applied_at INTEGER NOT NULL)",
		trackingTable,
	)); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}

	for _, file := range files {
		if err := applyOne(db, source, file); err != nil {
			return err
		}
	}
	return nil
}

type migrationFile struct {
	readPath string
	key      string
}

func pendingFiles(source fs.FS, root string) ([]migrationFile, error) {
	root = strings.TrimSpace(root)
	readRoot := root
	if readRoot == "" {
		readRoot = "."
	}

	entries, err := fs.ReadDir(source, readRoot)
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	var files []migrationFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		key := entry.Name()
		if root != "" && root != "." {
			key = path.Join(root, entry.Name())
		}
		files = append(files, migrationFile{
			readPath: path.Join(readRoot, entry.Name()),
			key:      key,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].key < files[j].key })
	return files, nil
}

func applyOne(db *sql.DB, source fs.FS, file migrationFile) error {
	applied, err := isApplied(db, file.key)
	if err != nil {
		return fmt.Errorf("check migration %s: %w", file.key, err)
	}
	if applied {
		return nil
	}

	content, err := fs.ReadFile(source, file.readPath)
	if err != nil {
		return fmt.Errorf("read migration %s: %w", file.key, err)
	}
	statements := upSection(string(content))
	if strings.TrimSpace(statements) == "" {
		return nil
	}

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", file.key, err)
	}

	if _, err := tx.Exec(statements); err != nil && !isAlreadyExists(err) {
		_ = tx.Rollback()
		return fmt.Errorf("exec migration %s: %w", file.key, err)
	}
	if _, err := tx.Exec(
		fmt.Sprintf("INSERT OR IGNORE INTO %s (name, applied_at) VALUES (?, ?)", trackingTable),
		file.key, time.Now().UTC().UnixMilli(),
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("record migration %s: %w", file.key, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration %s: %w", file.key, err)
	}
	return nil
}

// upSection isolates the forward DDL. A file without markers runs whole.
func upSection(content string) string {
	up := strings.Index(content, upMarker)
	if up == -1 {
		return content
	}
	rest := content[up+len(upMarker):]
	if down := strings.Index(rest, downMarker); down != -1 {
		return rest[:down]
	}
	return rest
}

// isAlreadyExists treats re-created objects as idempotent DDL success.
func isAlreadyExists(err error) bool {
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "already exists") || strings.Contains(message, "duplicate column name")
}

func isApplied(db *sql.DB, key string) (bool, error) {
	var one int
	err := db.QueryRow("SELECT 1 FROM "+trackingTable+" WHERE name = ?", key).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
