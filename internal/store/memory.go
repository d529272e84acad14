// internal/store/memory.go
//
// In-memory implementation of game.Repository.
// Used for tests and for ephemeral runs where durability is not required.
//
// Characteristics:
//   - Records are deep-copied on the way in and out; callers never share slices.
//   - Transactions stage their writes and apply them only when fn returns nil.
//   - A single write lock serializes transactions, which also serializes
//     per-user stats updates.
//   - State is lost when the process restarts.

package store

import (
	"context"
	"sync"

	"github.com/robalobadob/epiwordle/internal/game"
)

// Memory is a map-based game.Repository.
type Memory struct {
	mu       sync.RWMutex
	sessions map[string]game.SessionRecord
	history  map[string][]game.HistoryEntry
	stats    map[string]game.UserStats
}

// NewMemory constructs an empty in-memory repository.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[string]game.SessionRecord),
		history:  make(map[string][]game.HistoryEntry),
		stats:    make(map[string]game.UserStats),
	}
}

// AddUser registers a user with zeroed stats so completions can be recorded.
func (m *Memory) AddUser(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.stats[id]; !ok {
		m.stats[id] = game.UserStats{}
	}
}

// Stats returns the stats of a user.
func (m *Memory) Stats(id string) (game.UserStats, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stats[id]
	return s, ok
}

// History returns the completed games of a user, oldest first.
func (m *Memory) History(id string) []game.HistoryEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]game.HistoryEntry{}, m.history[id]...)
}

// CreateSession stores a new session.
func (m *Memory) CreateSession(_ context.Context, rec game.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[rec.ID] = cloneRecord(rec)
	return nil
}

// LoadSession looks up a session by id.
func (m *Memory) LoadSession(_ context.Context, id string) (game.SessionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.sessions[id]
	if !ok {
		return game.SessionRecord{}, game.ErrSessionNotFound
	}
	return cloneRecord(rec), nil
}

// PutSession overwrites a session unconditionally (tests, repairs).
func (m *Memory) PutSession(rec game.SessionRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[rec.ID] = cloneRecord(rec)
}

// WithinTx runs fn against staged state and applies it if fn succeeds.
func (m *Memory) WithinTx(ctx context.Context, fn func(tx game.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryTx{
		m:        m,
		sessions: make(map[string]game.SessionRecord),
		history:  make(map[string][]game.HistoryEntry),
		stats:    make(map[string]game.UserStats),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, rec := range tx.sessions {
		m.sessions[id] = rec
	}
	for uid, entries := range tx.history {
		m.history[uid] = append(m.history[uid], entries...)
	}
	for uid, st := range tx.stats {
		m.stats[uid] = st
	}
	return nil
}

// memoryTx is only used while Memory.mu is held for writing.
type memoryTx struct {
	m        *Memory
	sessions map[string]game.SessionRecord
	history  map[string][]game.HistoryEntry
	stats    map[string]game.UserStats
}

func (t *memoryTx) SaveSession(_ context.Context, rec game.SessionRecord, expectedGuesses int) error {
	cur, ok := t.sessions[rec.ID]
	if !ok {
		cur, ok = t.m.sessions[rec.ID]
	}
	if !ok {
		return game.ErrSessionNotFound
	}
	if len(cur.Guesses) != expectedGuesses {
		return game.ErrPersistenceConflict
	}
	cur.Guesses = cloneGuesses(rec.Guesses)
	cur.Status = rec.Status
	t.sessions[rec.ID] = cur
	return nil
}

func (t *memoryTx) AppendHistory(_ context.Context, e game.HistoryEntry) error {
	e.Guesses = cloneGuesses(e.Guesses)
	t.history[e.UserID] = append(t.history[e.UserID], e)
	return nil
}

func (t *memoryTx) LoadStats(_ context.Context, userID string) (game.UserStats, error) {
	if s, ok := t.stats[userID]; ok {
		return s, nil
	}
	if s, ok := t.m.stats[userID]; ok {
		return s, nil
	}
	return game.UserStats{}, game.ErrUserNotFound
}

func (t *memoryTx) SaveStats(_ context.Context, userID string, s game.UserStats) error {
	if _, ok := t.m.stats[userID]; !ok {
		return game.ErrUserNotFound
	}
	t.stats[userID] = s
	return nil
}

func cloneRecord(rec game.SessionRecord) game.SessionRecord {
	rec.Guesses = cloneGuesses(rec.Guesses)
	return rec
}

func cloneGuesses(in []game.GuessRecord) []game.GuessRecord {
	out := make([]game.GuessRecord, len(in))
	for i, g := range in {
		out[i] = game.GuessRecord{Guess: g.Guess, Result: append(game.Result{}, g.Result...)}
	}
	return out
}
