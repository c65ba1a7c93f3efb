package model

import "time"

type Event struct {
	ID          int64     `json:"id"`
	GuideID     int64     `json:"guide"`
	Address     string    `json:"address"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	DateStart   time.Time `json:"date_start"`
	DateEnd     time.Time `json:"date_end"`
	CreatedAt   time.Time `json:"date_created"`
}

// ActiveAt reports whether the event has not yet ended. An event that has
// not started yet is still active.
func (e *Event) ActiveAt(now time.Time) bool {
	return e.DateEnd.After(now)
}

// StartedAt reports whether the event has begun.
func (e *Event) StartedAt(now time.Time) bool {
	return !e.DateStart.After(now)
}

// ExpiredAt reports whether the event has ended.
func (e *Event) ExpiredAt(now time.Time) bool {
	return !e.DateEnd.After(now)
}

func (e *Event) Duration() time.Duration {
	return e.DateEnd.Sub(e.DateStart)
}

type Participation struct {
	ID            int64     `json:"id"`
	EventID       int64     `json:"event"`
	ParticipantID int64     `json:"participant"`
	CreatedAt     time.Time `json:"date_created"`
}
