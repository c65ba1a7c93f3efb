package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/nomadways/apinomad/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	err := scanner.Scan(
		&e.ID, &e.GuideID, &e.Address, &e.Title, &e.Description,
		&e.DateStart, &e.DateEnd, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const eventCols = `id, guide_id, address, title, description, date_start, date_end, created_at`

func (s *EventStore) Create(guideID int64, address, title, description string, dateStart, dateEnd time.Time) (*model.Event, error) {
	result, err := s.db.Exec(
		`INSERT INTO events (guide_id, address, title, description, date_start, date_end) VALUES (?, ?, ?, ?, ?, ?)`,
		guideID, address, title, description, dateStart.UTC(), dateEnd.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// List returns events ordered by ascending start date. When onlyActive is
// set, events that have already ended are filtered out at the query layer
// rather than by scanning full rows in application code.
func (s *EventStore) List(onlyActive bool) ([]model.Event, error) {
	query := `SELECT ` + eventCols + ` FROM events`
	if onlyActive {
		query += ` WHERE date_end > datetime('now')`
	}
	query += ` ORDER BY date_start ASC`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) Update(id int64, address, title, description string, dateStart, dateEnd time.Time) (*model.Event, error) {
	_, err := s.db.Exec(
		`UPDATE events SET address = ?, title = ?, description = ?, date_start = ?, date_end = ? WHERE id = ?`,
		address, title, description, dateStart.UTC(), dateEnd.UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	return nil
}
