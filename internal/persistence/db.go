// Package persistence provides SQLite-based save slots for colony state.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/underkeep/internal/engine"
)

// Load errors. A corrupt save is reported distinctly from a missing one.
var (
	ErrNoSaves      = errors.New("no saves")
	ErrSaveNotFound = errors.New("save not found")
	ErrCorruptSave  = errors.New("corrupt save")
	ErrBadName      = errors.New("invalid save name")
)

// DB wraps a SQLite connection for save storage.
type DB struct {
	conn *sqlx.DB
	now  func() time.Time
}

// SaveInfo describes one stored save without its payload.
type SaveInfo struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	Tick      uint64 `db:"tick" json:"tick"`
	Seed      int64  `db:"seed" json:"seed"`
	CreatedAt int64  `db:"created_at" json:"created_at"` // Unix nanoseconds
	Size      int    `db:"size" json:"size"`             // Payload bytes
}

// Created returns the save time.
func (s SaveInfo) Created() time.Time {
	return time.Unix(0, s.CreatedAt)
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn, now: time.Now}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS saves (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		tick INTEGER NOT NULL,
		seed INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		size INTEGER NOT NULL,
		payload BLOB NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_saves_created ON saves(created_at);

	CREATE TABLE IF NOT EXISTS world_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := db.conn.Exec(schema)
	return err
}

var unsafeName = regexp.MustCompile(`[^a-z0-9_]`)

// SanitizeName lowercases a save name, turns spaces into underscores and
// drops everything outside [a-z0-9_].
func SanitizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	return unsafeName.ReplaceAllString(name, "")
}

// Save stores st under name, replacing any save with the same sanitized
// name. It returns the stored save's description.
func (db *DB) Save(name string, st engine.State) (SaveInfo, error) {
	clean := SanitizeName(name)
	if clean == "" {
		return SaveInfo{}, fmt.Errorf("save %q: %w", name, ErrBadName)
	}

	info := SaveInfo{
		ID:        uuid.NewString(),
		Name:      clean,
		Tick:      st.Tick,
		Seed:      st.Seed,
		CreatedAt: db.now().UnixNano(),
	}
	payload, err := Encode(info.ID, st)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("save %q: %w", clean, err)
	}
	info.Size = len(payload)

	tx, err := db.conn.Beginx()
	if err != nil {
		return SaveInfo{}, err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM saves WHERE name = ?", clean); err != nil {
		return SaveInfo{}, fmt.Errorf("save %q: %w", clean, err)
	}
	_, err = tx.Exec(
		`INSERT INTO saves (id, name, tick, seed, created_at, size, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		info.ID, info.Name, int64(info.Tick), info.Seed, info.CreatedAt, info.Size, payload,
	)
	if err != nil {
		return SaveInfo{}, fmt.Errorf("save %q: %w", clean, err)
	}
	if _, err := tx.Exec(
		"INSERT OR REPLACE INTO world_meta (key, value) VALUES ('last_save', ?)", clean,
	); err != nil {
		return SaveInfo{}, fmt.Errorf("save %q: %w", clean, err)
	}
	if err := tx.Commit(); err != nil {
		return SaveInfo{}, fmt.Errorf("save %q: %w", clean, err)
	}

	slog.Info("colony saved", "name", clean, "tick", info.Tick, "size", humanize.Bytes(uint64(info.Size)))
	return info, nil
}

// Load decodes the save with the given name.
func (db *DB) Load(name string) (engine.State, SaveInfo, error) {
	clean := SanitizeName(name)
	var row struct {
		SaveInfo
		Payload []byte `db:"payload"`
	}
	err := db.conn.Get(&row, "SELECT * FROM saves WHERE name = ?", clean)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.State{}, SaveInfo{}, fmt.Errorf("load %q: %w", clean, ErrSaveNotFound)
	}
	if err != nil {
		return engine.State{}, SaveInfo{}, fmt.Errorf("load %q: %w", clean, err)
	}

	st, err := Decode(row.Payload)
	if err != nil {
		return engine.State{}, row.SaveInfo, fmt.Errorf("load %q: %w", clean, err)
	}
	slog.Info("colony loaded", "name", clean, "tick", st.Tick)
	return st, row.SaveInfo, nil
}

// LoadLatest decodes the most recently written save.
func (db *DB) LoadLatest() (engine.State, SaveInfo, error) {
	var name string
	err := db.conn.Get(&name, "SELECT name FROM saves ORDER BY created_at DESC, rowid DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return engine.State{}, SaveInfo{}, ErrNoSaves
	}
	if err != nil {
		return engine.State{}, SaveInfo{}, fmt.Errorf("load latest: %w", err)
	}
	return db.Load(name)
}

// List returns every save, newest first.
func (db *DB) List() ([]SaveInfo, error) {
	var saves []SaveInfo
	err := db.conn.Select(&saves,
		"SELECT id, name, tick, seed, created_at, size FROM saves ORDER BY created_at DESC, rowid DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("list saves: %w", err)
	}
	return saves, nil
}

// Delete removes the save with the given name.
func (db *DB) Delete(name string) error {
	clean := SanitizeName(name)
	res, err := db.conn.Exec("DELETE FROM saves WHERE name = ?", clean)
	if err != nil {
		return fmt.Errorf("delete %q: %w", clean, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %q: %w", clean, ErrSaveNotFound)
	}
	return nil
}

// GetMeta retrieves a metadata value.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, "SELECT value FROM world_meta WHERE key = ?", key)
	return value, err
}
