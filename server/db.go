package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"cardtable/game"
)

const snapshotCacheSize = 128

// Repository owns the user table and the session snapshot table. Snapshot
// reads go through a small LRU so a reconnecting client does not hit the
// database for a session that was just written.
type Repository struct {
	db    *sql.DB
	cache *lru.Cache[string, *game.Snapshot]
}

// Open opens (and creates if needed) the sqlite database at path.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, nil
}

func NewRepository(db *sql.DB) (*Repository, error) {
	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS user (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			password TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS session (
			id TEXT PRIMARY KEY,
			snapshot TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}
	cache, err := lru.New[string, *game.Snapshot](snapshotCacheSize)
	if err != nil {
		return nil, err
	}
	return &Repository{db: db, cache: cache}, nil
}

type User struct {
	ID       int64
	Name     string
	Password string
}

func (r *Repository) AddUser(name, passwordHash string) (*User, error) {
	res, err := r.db.Exec("INSERT INTO user(name, password) VALUES(?, ?)", name, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, _ := res.LastInsertId()
	return &User{ID: id, Name: name, Password: passwordHash}, nil
}

func (r *Repository) FindUserByName(name string) (*User, error) {
	row := r.db.QueryRow("SELECT id, name, password FROM user WHERE name = ? LIMIT 1", name)
	var user User
	if err := row.Scan(&user.ID, &user.Name, &user.Password); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// Load implements game.SnapshotStore. A session that was never saved
// reports game.ErrNotFound so the caller starts from defaults.
func (r *Repository) Load(ctx context.Context, sessionID string) (*game.Snapshot, error) {
	if snap, ok := r.cache.Get(sessionID); ok {
		return snap, nil
	}
	row := r.db.QueryRowContext(ctx, "SELECT snapshot FROM session WHERE id = ? LIMIT 1", sessionID)
	var raw string
	if err := row.Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, game.ErrNotFound
		}
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap game.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	r.cache.Add(sessionID, &snap)
	return &snap, nil
}

// Save implements game.SnapshotStore with upsert semantics: one row per
// session, last write wins.
func (r *Repository) Save(ctx context.Context, sessionID string, snap *game.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO session(id, snapshot, updated_at) VALUES(?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET snapshot = excluded.snapshot, updated_at = excluded.updated_at
	`, sessionID, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	r.cache.Add(sessionID, snap)
	return nil
}
