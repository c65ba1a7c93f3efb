package store

import (
	"database/sql"
	"fmt"
)

// CapabilityStore persists per-account capability grants.
type CapabilityStore struct {
	db *sql.DB
}

func NewCapabilityStore(db *sql.DB) *CapabilityStore {
	return &CapabilityStore{db: db}
}

func (s *CapabilityStore) Has(accountID int64, capability string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM account_capabilities WHERE account_id = ? AND capability = ?`,
		accountID, capability,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check capability: %w", err)
	}
	return n > 0, nil
}

func (s *CapabilityStore) Grant(accountID int64, capability string) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO account_capabilities (account_id, capability) VALUES (?, ?)`,
		accountID, capability,
	)
	if err != nil {
		return fmt.Errorf("grant capability: %w", err)
	}
	return nil
}

func (s *CapabilityStore) Revoke(accountID int64, capability string) error {
	_, err := s.db.Exec(
		`DELETE FROM account_capabilities WHERE account_id = ? AND capability = ?`,
		accountID, capability,
	)
	if err != nil {
		return fmt.Errorf("revoke capability: %w", err)
	}
	return nil
}

func (s *CapabilityStore) ListForAccount(accountID int64) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT capability FROM account_capabilities WHERE account_id = ? ORDER BY capability`,
		accountID,
	)
	if err != nil {
		return nil, fmt.Errorf("list capabilities: %w", err)
	}
	defer rows.Close()

	var caps []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan capability: %w", err)
		}
		caps = append(caps, c)
	}
	return caps, rows.Err()
}
