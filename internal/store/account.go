package store

import (
	"database/sql"
	"fmt"

	"github.com/nomadways/apinomad/internal/model"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func scanAccount(scanner interface{ Scan(...any) error }) (*model.Account, error) {
	var a model.Account
	err := scanner.Scan(
		&a.ID, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.IsActive, &a.IsSuperuser, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

const accountCols = `id, email, password_hash, first_name, last_name, is_active, is_superuser, created_at, updated_at`

func (s *AccountStore) Create(email, passwordHash, firstName, lastName string, active bool) (*model.Account, error) {
	result, err := s.db.Exec(
		`INSERT INTO accounts (email, password_hash, first_name, last_name, is_active) VALUES (?, ?, ?, ?, ?)`,
		email, passwordHash, firstName, lastName, active,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("insert account: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AccountStore) GetByID(id int64) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE id = ?`, id)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	return a, nil
}

// GetByEmail looks up an account by email. The email column collates
// case-insensitively, so lookup ignores case.
func (s *AccountStore) GetByEmail(email string) (*model.Account, error) {
	row := s.db.QueryRow(`SELECT `+accountCols+` FROM accounts WHERE email = ?`, email)
	a, err := scanAccount(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get account by email: %w", err)
	}
	return a, nil
}

func (s *AccountStore) List() ([]model.Account, error) {
	rows, err := s.db.Query(`SELECT ` + accountCols + ` FROM accounts ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		accounts = append(accounts, *a)
	}
	return accounts, rows.Err()
}

func (s *AccountStore) Update(id int64, email, firstName, lastName string) (*model.Account, error) {
	_, err := s.db.Exec(
		`UPDATE accounts SET email = ?, first_name = ?, last_name = ?, updated_at = datetime('now') WHERE id = ?`,
		email, firstName, lastName, id,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return s.GetByID(id)
}

func (s *AccountStore) SetActive(id int64, active bool) error {
	_, err := s.db.Exec(
		`UPDATE accounts SET is_active = ?, updated_at = datetime('now') WHERE id = ?`,
		active, id,
	)
	if err != nil {
		return fmt.Errorf("set account active: %w", err)
	}
	return nil
}

func (s *AccountStore) SetPassword(id int64, passwordHash string) error {
	_, err := s.db.Exec(
		`UPDATE accounts SET password_hash = ?, updated_at = datetime('now') WHERE id = ?`,
		passwordHash, id,
	)
	if err != nil {
		return fmt.Errorf("set account password: %w", err)
	}
	return nil
}

func (s *AccountStore) SetSuperuser(id int64, superuser bool) error {
	_, err := s.db.Exec(
		`UPDATE accounts SET is_superuser = ?, updated_at = datetime('now') WHERE id = ?`,
		superuser, id,
	)
	if err != nil {
		return fmt.Errorf("set account superuser: %w", err)
	}
	return nil
}
