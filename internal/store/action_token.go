package store

import (
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/nomadways/apinomad/internal/model"
)

// ActionTokenStore persists single-use typed tokens. A token is issued with
// an expiry, consumed (deleted) exactly once, or expired in place so the row
// stays behind as an audit trail.
type ActionTokenStore struct {
	db *sql.DB
}

func NewActionTokenStore(db *sql.DB) *ActionTokenStore {
	return &ActionTokenStore{db: db}
}

func scanActionToken(scanner interface{ Scan(...any) error }) (*model.ActionToken, error) {
	var t model.ActionToken
	err := scanner.Scan(&t.Key, &t.Type, &t.AccountID, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

const actionTokenCols = `key, type, account_id, created_at, expires_at`

// generateKey returns 20 random bytes hex-encoded: a 40-character key.
func generateKey() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Create issues a new token of the given type with expiry = now + ttl.
func (s *ActionTokenStore) Create(accountID int64, tokenType string, ttl time.Duration) (*model.ActionToken, error) {
	key, err := generateKey()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(ttl)

	_, err = s.db.Exec(
		`INSERT INTO action_tokens (key, type, account_id, expires_at) VALUES (?, ?, ?, ?)`,
		key, tokenType, accountID, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert action token: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+actionTokenCols+` FROM action_tokens WHERE key = ?`, key)
	return scanActionToken(row)
}

// GetValid returns the token matching key and type. It fails with
// ErrTokenInvalid when no row matches, ErrTokenExpired when the match is
// past its expiry, and ErrTokenConflict when more than one row shares the
// key, which indicates a data-integrity fault and not a caller error.
func (s *ActionTokenStore) GetValid(key, tokenType string) (*model.ActionToken, error) {
	rows, err := s.db.Query(
		`SELECT `+actionTokenCols+` FROM action_tokens WHERE key = ? AND type = ?`,
		key, tokenType,
	)
	if err != nil {
		return nil, fmt.Errorf("get action token: %w", err)
	}
	defer rows.Close()

	var matches []*model.ActionToken
	for rows.Next() {
		t, err := scanActionToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan action token: %w", err)
		}
		matches = append(matches, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get action token: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, ErrTokenInvalid
	case 1:
		if matches[0].Expired() {
			return nil, ErrTokenExpired
		}
		return matches[0], nil
	default:
		return nil, ErrTokenConflict
	}
}

// Delete consumes a token. A second delete of the same key affects no rows,
// which upholds the single-use guarantee.
func (s *ActionTokenStore) Delete(key string) error {
	_, err := s.db.Exec(`DELETE FROM action_tokens WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("delete action token: %w", err)
	}
	return nil
}

// Expire invalidates a token immediately without deleting it.
func (s *ActionTokenStore) Expire(key string) error {
	_, err := s.db.Exec(
		`UPDATE action_tokens SET expires_at = datetime('now') WHERE key = ?`,
		key,
	)
	if err != nil {
		return fmt.Errorf("expire action token: %w", err)
	}
	return nil
}

// ExpireAllForAccount invalidates every outstanding token of the given type
// for an account. The password-reset flow calls this before issuing a fresh
// token so older reset links stop working.
func (s *ActionTokenStore) ExpireAllForAccount(accountID int64, tokenType string) error {
	_, err := s.db.Exec(
		`UPDATE action_tokens SET expires_at = datetime('now') WHERE account_id = ? AND type = ? AND expires_at > datetime('now')`,
		accountID, tokenType,
	)
	if err != nil {
		return fmt.Errorf("expire account tokens: %w", err)
	}
	return nil
}

func (s *ActionTokenStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM action_tokens WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired action tokens: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
