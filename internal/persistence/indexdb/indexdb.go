// Package indexdb catalogues known save files in SQLite so tooling can list
// and dedupe them without re-parsing every stream.
package indexdb

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

type Index struct {
	db *sqlx.DB
}

type SaveRow struct {
	ID        string `db:"id"`
	Path      string `db:"path"`
	Version   int    `db:"version"`
	Purpose   string `db:"purpose"`
	Width     int    `db:"width"`
	Height    int    `db:"height"`
	Signs     int    `db:"signs"`
	Producers int    `db:"producers"`
	SHA256    string `db:"sha256"`
	CreatedAt string `db:"created_at"`
}

func Open(path string) (*Index, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	x := &Index{db: db}
	if err := x.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return x, nil
}

func (x *Index) Close() error { return x.db.Close() }

func (x *Index) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		path TEXT NOT NULL,
		version INTEGER NOT NULL,
		purpose TEXT NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		signs INTEGER NOT NULL,
		producers INTEGER NOT NULL,
		sha256 TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_saves_path ON saves(path);
	`
	_, err := x.db.Exec(schema)
	return err
}

// Record inserts one save file row; the id and digest are filled in here.
func (x *Index) Record(row SaveRow) (SaveRow, error) {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	if row.SHA256 == "" {
		digest, err := fileDigest(row.Path)
		if err != nil {
			return row, err
		}
		row.SHA256 = digest
	}
	if row.CreatedAt == "" {
		row.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	_, err := x.db.NamedExec(`
		INSERT INTO saves (id, path, version, purpose, width, height, signs, producers, sha256, created_at)
		VALUES (:id, :path, :version, :purpose, :width, :height, :signs, :producers, :sha256, :created_at)`,
		row)
	return row, err
}

// List returns every indexed save, newest first.
func (x *Index) List() ([]SaveRow, error) {
	var rows []SaveRow
	err := x.db.Select(&rows, `SELECT * FROM saves ORDER BY created_at DESC`)
	return rows, err
}

// ByDigest finds saves with identical content.
func (x *Index) ByDigest(sha string) ([]SaveRow, error) {
	var rows []SaveRow
	err := x.db.Select(&rows, `SELECT * FROM saves WHERE sha256 = ? ORDER BY created_at DESC`, sha)
	return rows, err
}

func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
