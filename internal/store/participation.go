package store

import (
	"database/sql"
	"fmt"

	"github.com/nomadways/apinomad/internal/model"
)

type ParticipationStore struct {
	db *sql.DB
}

func NewParticipationStore(db *sql.DB) *ParticipationStore {
	return &ParticipationStore{db: db}
}

func scanParticipation(scanner interface{ Scan(...any) error }) (*model.Participation, error) {
	var p model.Participation
	err := scanner.Scan(&p.ID, &p.EventID, &p.ParticipantID, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

const participationCols = `id, event_id, participant_id, created_at`

// Create inserts a join row. The table's unique constraint on
// (event_id, participant_id) rejects duplicates; racing creates resolve to
// one winner and one ErrDuplicateParticipation.
func (s *ParticipationStore) Create(eventID, participantID int64) (*model.Participation, error) {
	result, err := s.db.Exec(
		`INSERT INTO participations (event_id, participant_id) VALUES (?, ?)`,
		eventID, participantID,
	)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateParticipation
	}
	if err != nil {
		return nil, fmt.Errorf("insert participation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ParticipationStore) GetByID(id int64) (*model.Participation, error) {
	row := s.db.QueryRow(`SELECT `+participationCols+` FROM participations WHERE id = ?`, id)
	p, err := scanParticipation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get participation: %w", err)
	}
	return p, nil
}

func (s *ParticipationStore) List() ([]model.Participation, error) {
	return s.list(`SELECT ` + participationCols + ` FROM participations ORDER BY id`)
}

func (s *ParticipationStore) ListByParticipant(participantID int64) ([]model.Participation, error) {
	return s.list(
		`SELECT `+participationCols+` FROM participations WHERE participant_id = ? ORDER BY id`,
		participantID,
	)
}

func (s *ParticipationStore) ListByEvent(eventID int64) ([]model.Participation, error) {
	return s.list(
		`SELECT `+participationCols+` FROM participations WHERE event_id = ? ORDER BY id`,
		eventID,
	)
}

func (s *ParticipationStore) list(query string, args ...any) ([]model.Participation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()

	var participations []model.Participation
	for rows.Next() {
		p, err := scanParticipation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		participations = append(participations, *p)
	}
	return participations, rows.Err()
}

func (s *ParticipationStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM participations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete participation: %w", err)
	}
	return nil
}
