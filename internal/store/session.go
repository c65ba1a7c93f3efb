package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nomadways/apinomad/internal/model"
)

type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func scanSession(scanner interface{ Scan(...any) error }) (*model.Session, error) {
	var s model.Session
	err := scanner.Scan(&s.Key, &s.AccountID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

const sessionCols = `key, account_id, created_at, expires_at`

// Create issues a new session with a crypto-random key and expiry = now + ttl.
func (s *SessionStore) Create(accountID int64, ttl time.Duration) (*model.Session, error) {
	keyBytes := make([]byte, 32)
	if _, err := rand.Read(keyBytes); err != nil {
		return nil, fmt.Errorf("generate session key: %w", err)
	}
	key := hex.EncodeToString(keyBytes)
	expiresAt := time.Now().UTC().Add(ttl)

	_, err := s.db.Exec(
		`INSERT INTO session_tokens (key, account_id, expires_at) VALUES (?, ?, ?)`,
		key, accountID, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+sessionCols+` FROM session_tokens WHERE key = ?`, key)
	return scanSession(row)
}

// GetValidByKey returns the unexpired session for the key, or nil.
func (s *SessionStore) GetValidByKey(key string) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM session_tokens WHERE key = ? AND expires_at > datetime('now')`,
		key,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by key: %w", err)
	}
	return sess, nil
}

// GetByAccount returns the account's session regardless of expiry, or nil.
// Login uses this to decide between renewing and replacing.
func (s *SessionStore) GetByAccount(accountID int64) (*model.Session, error) {
	row := s.db.QueryRow(
		`SELECT `+sessionCols+` FROM session_tokens WHERE account_id = ? ORDER BY created_at DESC LIMIT 1`,
		accountID,
	)
	sess, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session by account: %w", err)
	}
	return sess, nil
}

// Renew pushes the session's expiry out to now + ttl (sliding expiration).
func (s *SessionStore) Renew(key string, ttl time.Duration) error {
	_, err := s.db.Exec(
		`UPDATE session_tokens SET expires_at = ? WHERE key = ?`,
		time.Now().UTC().Add(ttl), key,
	)
	if err != nil {
		return fmt.Errorf("renew session: %w", err)
	}
	return nil
}

func (s *SessionStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM session_tokens WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteByAccount(accountID int64) error {
	_, err := s.db.Exec(`DELETE FROM session_tokens WHERE account_id = ?`, accountID)
	if err != nil {
		return fmt.Errorf("delete sessions by account: %w", err)
	}
	return nil
}

func (s *SessionStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM session_tokens WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
