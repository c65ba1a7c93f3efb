package model

import "time"

// Action token types. An action token grants a one-time right to perform
// the named action on behalf of its account.
const (
	TokenAccountActivation = "account_activation"
	TokenPasswordChange    = "password_change"
)

type ActionToken struct {
	Key       string    `json:"key"`
	Type      string    `json:"type"`
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExpiredAt reports whether the token is no longer usable at the given time.
func (t *ActionToken) ExpiredAt(now time.Time) bool {
	return !t.ExpiresAt.After(now)
}

func (t *ActionToken) Expired() bool {
	return t.ExpiredAt(time.Now().UTC())
}

// Session is a renewable expiring token proving an authenticated session.
// Unlike an ActionToken it is validated on every request and stays usable
// until its expiry.
type Session struct {
	Key       string    `json:"key"`
	AccountID int64     `json:"account_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Session) ExpiredAt(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

func (s *Session) Expired() bool {
	return s.ExpiredAt(time.Now().UTC())
}
