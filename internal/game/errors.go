package game

import "errors"

var (
	ErrNoWordsAvailable    = errors.New("no words available")
	ErrSessionNotFound     = errors.New("session not found")
	ErrForbidden           = errors.New("session belongs to another player")
	ErrSessionAlreadyOver  = errors.New("game is already over")
	ErrAttemptsExhausted   = errors.New("maximum number of attempts reached")
	ErrInvalidGuessLength  = errors.New("invalid guess length")
	ErrWordNotInDictionary = errors.New("word not in dictionary")

	// ErrPersistenceConflict means a conditional write lost a race.
	ErrPersistenceConflict = errors.New("concurrent update conflict")
	// ErrPersistenceUnavailable wraps storage I/O failures.
	ErrPersistenceUnavailable = errors.New("storage unavailable")

	// ErrUserNotFound is returned by stats lookups for unknown users.
	ErrUserNotFound = errors.New("user not found")
)

// IsValidation reports whether err is a rejected guess that left no trace in storage.
func IsValidation(err error) bool {
	return errors.Is(err, ErrSessionAlreadyOver) ||
		errors.Is(err, ErrAttemptsExhausted) ||
		errors.Is(err, ErrInvalidGuessLength) ||
		errors.Is(err, ErrWordNotInDictionary)
}
