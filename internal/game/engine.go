// internal/game/engine.go
//
// Session state machine for a single game.
// Responsibilities:
//   - Hold the target word, owner and recorded guesses of one session.
//   - Apply classified guesses and move Active → Won | Lost.
//   - Rebuild sessions from storage, repairing records whose guess count
//     reached the attempt limit without being marked over.
//
// Fields are unexported so a session can only change through apply; a
// session with maxAttempts guesses that is still Active cannot be built.

package game

import (
	"time"

	"github.com/robalobadob/epiwordle/internal/words"
)

const (
	DefaultMaxAttempts = 6
	DefaultWordLength  = words.Length
)

// Session is one in-progress or completed game.
type Session struct {
	id          string
	target      words.Word
	owner       Owner
	guesses     []GuessRecord
	status      Status
	maxAttempts int
	createdAt   time.Time
}

func newSession(id string, target words.Word, owner Owner, maxAttempts int, now time.Time) *Session {
	return &Session{
		id:          id,
		target:      target,
		owner:       owner,
		guesses:     []GuessRecord{},
		status:      StatusActive,
		maxAttempts: maxAttempts,
		createdAt:   now,
	}
}

// restoreSession rebuilds a session from its stored record.
// repaired is true when the record was Active with no attempts left; the
// returned session is then Lost.
func restoreSession(rec SessionRecord, maxAttempts int) (s *Session, repaired bool) {
	s = &Session{
		id:          rec.ID,
		target:      words.Word{Display: rec.OriginalWord, Normalized: rec.TargetWord},
		owner:       rec.Owner,
		guesses:     append([]GuessRecord{}, rec.Guesses...),
		status:      rec.Status,
		maxAttempts: maxAttempts,
		createdAt:   rec.CreatedAt,
	}
	switch s.status {
	case StatusWon, StatusLost:
	default:
		s.status = StatusActive
		if len(s.guesses) >= maxAttempts {
			s.status = StatusLost
			repaired = true
		}
	}
	return s, repaired
}

// apply records a classified guess and advances the state machine.
// Callers must have checked that the session is Active.
func (s *Session) apply(guess string, res Result) {
	s.guesses = append(s.guesses, GuessRecord{Guess: guess, Result: res})
	switch {
	case guess == s.target.Normalized:
		s.status = StatusWon
	case len(s.guesses) >= s.maxAttempts:
		s.status = StatusLost
	}
}

func (s *Session) ID() string             { return s.id }
func (s *Session) Owner() Owner           { return s.owner }
func (s *Session) Status() Status         { return s.status }
func (s *Session) IsOver() bool           { return s.status.Over() }
func (s *Session) Won() bool              { return s.status == StatusWon }
func (s *Session) GuessCount() int        { return len(s.guesses) }
func (s *Session) AttemptsLeft() int      { return s.maxAttempts - len(s.guesses) }
func (s *Session) Guesses() []GuessRecord { return append([]GuessRecord{}, s.guesses...) }

// RevealedWord returns the display form of the target once the game is over,
// and "" while it is still being played.
func (s *Session) RevealedWord() string {
	if !s.IsOver() {
		return ""
	}
	return s.target.Display
}

// record converts the session to its storage shape.
func (s *Session) record() SessionRecord {
	return SessionRecord{
		ID:           s.id,
		Owner:        s.owner,
		TargetWord:   s.target.Normalized,
		OriginalWord: s.target.Display,
		Guesses:      s.Guesses(),
		Status:       s.status,
		CreatedAt:    s.createdAt,
	}
}
