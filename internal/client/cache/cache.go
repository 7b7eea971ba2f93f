// Package cache persists the client's local hints: the remembered
// identity used to skip the login form, and the theme preference. Both
// live in a small SQLite key/value table. The cache is advisory: the
// server session is the authority, and the first authenticated call
// after a restore is the real check.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	keySession = "session"
	keyTheme   = "theme"
)

// RememberTTL is how long a "remember me" identity stays valid.
const RememberTTL = 7 * 24 * time.Hour

// bootID marks the current process. An identity saved without
// "remember me" is only honored by the process that wrote it, the
// terminal analog of a browsing-context-scoped entry.
var bootID = uuid.New().String()

// Session is the cached identity entry.
type Session struct {
	Username string    `json:"username"`
	IssuedAt time.Time `json:"issued_at"`
	Remember bool      `json:"remember"`
	BootID   string    `json:"boot_id"`
}

// Cache is the SQLite-backed key/value store.
type Cache struct {
	db *sql.DB
}

// Open opens (and initializes if needed) the cache database at path.
func Open(ctx context.Context, path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS metadata (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := c.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

func (c *Cache) set(ctx context.Context, key string, value []byte) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// SaveSession stores the identity hint for the logged-in user.
func (c *Cache) SaveSession(ctx context.Context, username string, remember bool) error {
	buf, err := json.Marshal(Session{
		Username: username,
		IssuedAt: time.Now(),
		Remember: remember,
		BootID:   bootID,
	})
	if err != nil {
		return err
	}
	return c.set(ctx, keySession, buf)
}

// LoadSession returns the cached identity, or nil when there is none
// or it has lapsed. A lapsed entry is removed as a side effect.
func (c *Cache) LoadSession(ctx context.Context) (*Session, error) {
	buf, err := c.get(ctx, keySession)
	if err != nil || buf == nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(buf, &s); err != nil {
		c.ClearSession(ctx)
		return nil, nil
	}
	if s.Remember {
		if time.Since(s.IssuedAt) > RememberTTL {
			c.ClearSession(ctx)
			return nil, nil
		}
	} else if s.BootID != bootID {
		c.ClearSession(ctx)
		return nil, nil
	}
	return &s, nil
}

// ClearSession drops the identity hint; the theme survives.
func (c *Cache) ClearSession(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, keySession)
	if err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Theme returns the saved theme preference, "" when unset.
func (c *Cache) Theme(ctx context.Context) (string, error) {
	buf, err := c.get(ctx, keyTheme)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

func (c *Cache) SetTheme(ctx context.Context, theme string) error {
	return c.set(ctx, keyTheme, []byte(theme))
}
