package store

import (
	"database/sql"
	"fmt"

	"github.com/nomadways/apinomad/internal/model"
)

// GenreStore reads the seeded genre reference data.
type GenreStore struct {
	db *sql.DB
}

func NewGenreStore(db *sql.DB) *GenreStore {
	return &GenreStore{db: db}
}

func (s *GenreStore) List() ([]model.Genre, error) {
	rows, err := s.db.Query(`SELECT id, label, description FROM genres ORDER BY label`)
	if err != nil {
		return nil, fmt.Errorf("list genres: %w", err)
	}
	defer rows.Close()

	var genres []model.Genre
	for rows.Next() {
		var g model.Genre
		if err := rows.Scan(&g.ID, &g.Label, &g.Description); err != nil {
			return nil, fmt.Errorf("scan genre: %w", err)
		}
		genres = append(genres, g)
	}
	return genres, rows.Err()
}

func (s *GenreStore) GetByID(id int64) (*model.Genre, error) {
	var g model.Genre
	err := s.db.QueryRow(`SELECT id, label, description FROM genres WHERE id = ?`, id).
		Scan(&g.ID, &g.Label, &g.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get genre: %w", err)
	}
	return &g, nil
}

func (s *GenreStore) Create(label, description string) (*model.Genre, error) {
	result, err := s.db.Exec(
		`INSERT INTO genres (label, description) VALUES (?, ?)`,
		label, description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert genre: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}
