// Package storage persists the CLI's session state in SQLite: the refresh
// cookie jar, encrypted at rest, and the per-tab new-account marker.
package storage

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

// ErrWrongPassphrase is returned when the database was created with a
// different passphrase.
var ErrWrongPassphrase = errors.New("wrong encryption passphrase")

const keyCheckPlaintext = "iam-recruit"

// StoredCookie is one persisted cookie. A zero Expires means a session
// cookie, which is kept until it is overwritten or deleted.
type StoredCookie struct {
	Host     string
	Path     string
	Name     string
	Value    string
	Expires  time.Time
	Secure   bool
	HTTPOnly bool
}

// SQLiteStore implements cookie and marker persistence on SQLite.
type SQLiteStore struct {
	db  *sql.DB
	key []byte
	mu  sync.RWMutex
}

// NewSQLiteStore opens dbPath, creating the schema on first use. The
// encryption key is derived from passphrase with a per-database salt.
// Use ":memory:" for a throwaway store.
func NewSQLiteStore(dbPath, passphrase string) (*SQLiteStore, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", dbPath)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		db.Close()
		return nil, err
	}
	if err := store.loadKey(passphrase); err != nil {
		db.Close()
		return nil, err
	}

	if dbPath != ":memory:" {
		if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", dbPath).Msg("failed to restrict database permissions")
		}
	}

	return store, nil
}

func (s *SQLiteStore) init() error {
	tables := []struct {
		name  string
		query string
	}{
		{"meta", `
		CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`},
		{"cookies", `
		CREATE TABLE IF NOT EXISTS cookies (
			host TEXT NOT NULL,
			path TEXT NOT NULL,
			name TEXT NOT NULL,
			encrypted_value TEXT NOT NULL,
			expires_at INTEGER NOT NULL DEFAULT 0,
			secure INTEGER NOT NULL DEFAULT 0,
			http_only INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (host, path, name)
		);`},
		{"markers", `
		CREATE TABLE IF NOT EXISTS markers (
			tab_id TEXT NOT NULL,
			key TEXT NOT NULL,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (tab_id, key)
		);`},
	}

	for _, t := range tables {
		if _, err := s.db.Exec(t.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", t.name, err)
		}
	}
	return nil
}

func (s *SQLiteStore) metaValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) setMeta(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// loadKey derives the key from the stored salt, creating salt and key
// check on first open.
func (s *SQLiteStore) loadKey(passphrase string) error {
	saltHex, err := s.metaValue("salt")
	if err != nil {
		return err
	}

	if saltHex == "" {
		salt, err := newSalt()
		if err != nil {
			return err
		}
		key, err := DeriveKey(passphrase, salt)
		if err != nil {
			return err
		}
		check, err := encrypt([]byte(keyCheckPlaintext), key)
		if err != nil {
			return err
		}
		if err := s.setMeta("salt", hex.EncodeToString(salt)); err != nil {
			return err
		}
		if err := s.setMeta("key_check", check); err != nil {
			return err
		}
		s.key = key
		return nil
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return fmt.Errorf("failed to parse salt: %w", err)
	}
	key, err := DeriveKey(passphrase, salt)
	if err != nil {
		return err
	}

	check, err := s.metaValue("key_check")
	if err != nil {
		return err
	}
	if plain, err := decrypt(check, key); err != nil || string(plain) != keyCheckPlaintext {
		return ErrWrongPassphrase
	}

	s.key = key
	return nil
}

// SaveCookie stores or replaces a cookie.
func (s *SQLiteStore) SaveCookie(c StoredCookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encrypted, err := encrypt([]byte(c.Value), s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt cookie: %w", err)
	}

	var expires int64
	if !c.Expires.IsZero() {
		expires = c.Expires.Unix()
	}

	_, err = s.db.Exec(`
		INSERT INTO cookies (host, path, name, encrypted_value, expires_at, secure, http_only)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(host, path, name) DO UPDATE SET
			encrypted_value = excluded.encrypted_value,
			expires_at = excluded.expires_at,
			secure = excluded.secure,
			http_only = excluded.http_only
	`, c.Host, c.Path, c.Name, encrypted, expires, c.Secure, c.HTTPOnly)
	if err != nil {
		return fmt.Errorf("failed to save cookie: %w", err)
	}
	return nil
}

// DeleteCookie removes a cookie. Missing cookies are not an error.
func (s *SQLiteStore) DeleteCookie(host, path, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("DELETE FROM cookies WHERE host = ? AND path = ? AND name = ?", host, path, name)
	if err != nil {
		return fmt.Errorf("failed to delete cookie: %w", err)
	}
	return nil
}

// Cookies returns the unexpired cookies stored for host. Expired rows are
// pruned on the way.
func (s *SQLiteStore) Cookies(host string, now time.Time) ([]StoredCookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM cookies WHERE expires_at > 0 AND expires_at <= ?", now.Unix()); err != nil {
		return nil, fmt.Errorf("failed to prune cookies: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT path, name, encrypted_value, expires_at, secure, http_only
		FROM cookies WHERE host = ?
	`, host)
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	var cookies []StoredCookie
	for rows.Next() {
		c := StoredCookie{Host: host}
		var encrypted string
		var expires int64
		if err := rows.Scan(&c.Path, &c.Name, &encrypted, &expires, &c.Secure, &c.HTTPOnly); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}

		value, err := decrypt(encrypted, s.key)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt cookie %s: %w", c.Name, err)
		}
		c.Value = string(value)
		if expires > 0 {
			c.Expires = time.Unix(expires, 0)
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// HasMarker reports whether key is set for tabID.
func (s *SQLiteStore) HasMarker(tabID, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM markers WHERE tab_id = ? AND key = ?", tabID, key).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to query marker: %w", err)
	}
	return n > 0, nil
}

func (s *SQLiteStore) SetMarker(tabID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`
		INSERT INTO markers (tab_id, key, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(tab_id, key) DO UPDATE SET updated_at = excluded.updated_at
	`, tabID, key, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to set marker: %w", err)
	}
	return nil
}

func (s *SQLiteStore) DeleteMarker(tabID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM markers WHERE tab_id = ? AND key = ?", tabID, key); err != nil {
		return fmt.Errorf("failed to delete marker: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
