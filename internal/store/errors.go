package store

import (
	"errors"
	"strings"
)

var (
	// ErrDuplicateEmail is returned when an account email is already taken.
	ErrDuplicateEmail = errors.New("an account with this email already exists")

	// ErrDuplicateParticipation is returned when the (event, participant)
	// pair already exists.
	ErrDuplicateParticipation = errors.New("participation already exists for this event and participant")

	// ErrTokenInvalid is returned when no token matches the given key.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrTokenExpired is returned when the matched token is past its expiry.
	ErrTokenExpired = errors.New("token has expired")

	// ErrTokenConflict signals more than one token row sharing a key, which
	// is a data-integrity fault rather than a caller error.
	ErrTokenConflict = errors.New("multiple tokens share the same key")
)

// isUniqueViolation reports whether err is a sqlite unique-constraint
// failure. modernc/sqlite surfaces these only through the error message.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
