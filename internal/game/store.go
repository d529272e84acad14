package game

import (
	"context"

	"github.com/robalobadob/epiwordle/internal/words"
)

// Dictionary is the active word set.
type Dictionary interface {
	// IsActive reports whether a normalized word may be guessed.
	IsActive(ctx context.Context, normalized string) (bool, error)
	// PickRandom draws a target uniformly from the active words.
	// It returns words.ErrNoActiveWords when the set is empty.
	PickRandom(ctx context.Context) (words.Word, error)
}

// Repository persists sessions, history and user stats.
// Implementations may be backed by memory, SQLite, etc.
type Repository interface {
	// CreateSession stores a new session.
	CreateSession(ctx context.Context, rec SessionRecord) error

	// LoadSession returns the stored session or ErrSessionNotFound.
	LoadSession(ctx context.Context, id string) (SessionRecord, error)

	// WithinTx runs fn in a transaction: every write made through tx is
	// committed together when fn returns nil and discarded otherwise.
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the write side of a Repository transaction.
type Tx interface {
	// SaveSession overwrites the guesses and status of rec.ID, provided the
	// stored guess count still equals expectedGuesses. Otherwise it returns
	// ErrPersistenceConflict (or ErrSessionNotFound if the row is gone).
	SaveSession(ctx context.Context, rec SessionRecord, expectedGuesses int) error

	AppendHistory(ctx context.Context, entry HistoryEntry) error

	// LoadStats returns ErrUserNotFound for unknown users.
	LoadStats(ctx context.Context, userID string) (UserStats, error)
	SaveStats(ctx context.Context, userID string, stats UserStats) error
}
