// internal/game/manager.go
//
// Manager orchestrates game sessions:
//   - StartGame draws a target and stores a fresh session.
//   - SubmitGuess validates, classifies, persists and, on completion of an
//     owned game, records history and stats in the same transaction.
//   - GetState returns the visible part of a session.
//
// Guess submissions are serialized per session id, and stats updates per
// user id. Storage writes are conditional on the prior guess count; a lost
// race is retried once before ErrPersistenceConflict is surfaced.

package game

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/epiwordle/internal/words"
)

// Observer receives lifecycle events, e.g. for metrics.
type Observer interface {
	GameStarted()
	GuessAccepted()
	GuessRejected(reason error)
	GameFinished(won bool, attempts int)
}

type nopObserver struct{}

func (nopObserver) GameStarted()           {}
func (nopObserver) GuessAccepted()         {}
func (nopObserver) GuessRejected(error)    {}
func (nopObserver) GameFinished(bool, int) {}

// Manager is safe for concurrent use.
type Manager struct {
	dict        Dictionary
	repo        Repository
	maxAttempts int
	wordLength  int
	observer    Observer
	now         func() time.Time
	newID       func() string

	sessions keyedMutex
	users    keyedMutex
}

// Option customizes a Manager.
type Option func(*Manager)

// WithLimits overrides the attempt limit and word length.
func WithLimits(maxAttempts, wordLength int) Option {
	return func(m *Manager) {
		if maxAttempts > 0 {
			m.maxAttempts = maxAttempts
		}
		if wordLength > 0 {
			m.wordLength = wordLength
		}
	}
}

// WithObserver installs a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(m *Manager) {
		if o != nil {
			m.observer = o
		}
	}
}

// WithClock overrides time.Now (tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator overrides session id generation (tests).
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// NewManager constructs a Manager over a dictionary and a repository.
func NewManager(dict Dictionary, repo Repository, opts ...Option) *Manager {
	m := &Manager{
		dict:        dict,
		repo:        repo,
		maxAttempts: DefaultMaxAttempts,
		wordLength:  DefaultWordLength,
		observer:    nopObserver{},
		now:         func() time.Time { return time.Now().UTC() },
		newID:       func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartResult is returned by StartGame.
type StartResult struct {
	SessionID   string `json:"gameId"`
	MaxAttempts int    `json:"maxAttempts"`
	WordLength  int    `json:"wordLength"`
}

// GuessOutcome is returned by SubmitGuess.
// RevealedWord stays empty until IsGameOver.
type GuessOutcome struct {
	Result       Result
	IsWin        bool
	IsGameOver   bool
	GuessCount   int
	RevealedWord string
}

// StateView is returned by GetState.
// RevealedWord stays empty until IsGameOver.
type StateView struct {
	SessionID    string
	Guesses      []GuessRecord
	IsGameOver   bool
	RevealedWord string
}

// StartGame creates a session for owner with a random active target word.
func (m *Manager) StartGame(ctx context.Context, owner Owner) (StartResult, error) {
	w, err := m.dict.PickRandom(ctx)
	if errors.Is(err, words.ErrNoActiveWords) {
		return StartResult{}, ErrNoWordsAvailable
	}
	if err != nil {
		return StartResult{}, unavailable(err)
	}

	s := newSession(m.newID(), w, owner, m.maxAttempts, m.now())
	if err := m.repo.CreateSession(ctx, s.record()); err != nil {
		return StartResult{}, err
	}
	m.observer.GameStarted()
	log.Debug().Str("gameId", s.id).Stringer("owner", owner).Msg("game started")

	return StartResult{SessionID: s.id, MaxAttempts: m.maxAttempts, WordLength: m.wordLength}, nil
}

// SubmitGuess plays guessText in session id on behalf of requester.
func (m *Manager) SubmitGuess(ctx context.Context, id, guessText string, requester Owner) (GuessOutcome, error) {
	defer m.sessions.Lock(id)()

	var (
		out GuessOutcome
		err error
	)
	for attempt := 0; attempt < 2; attempt++ {
		out, err = m.submit(ctx, id, guessText, requester)
		if !errors.Is(err, ErrPersistenceConflict) {
			break
		}
		log.Warn().Str("gameId", id).Int("attempt", attempt+1).Msg("guess write conflicted")
	}
	if err != nil {
		m.observer.GuessRejected(err)
		return GuessOutcome{}, err
	}
	m.observer.GuessAccepted()
	if out.IsGameOver {
		m.observer.GameFinished(out.IsWin, out.GuessCount)
	}
	return out, nil
}

func (m *Manager) submit(ctx context.Context, id, guessText string, requester Owner) (GuessOutcome, error) {
	s, repaired, err := m.load(ctx, id, requester)
	if err != nil {
		return GuessOutcome{}, err
	}
	if s.IsOver() {
		if !repaired {
			return GuessOutcome{}, ErrSessionAlreadyOver
		}
		if err := m.saveRepair(ctx, s); err != nil {
			return GuessOutcome{}, err
		}
		return GuessOutcome{}, ErrAttemptsExhausted
	}

	guessText = strings.TrimSpace(guessText)
	if utf8.RuneCountInString(guessText) != m.wordLength {
		return GuessOutcome{}, ErrInvalidGuessLength
	}
	normalized := words.Normalize(guessText)
	if !words.IsWord(normalized, len(s.target.Normalized)) {
		return GuessOutcome{}, ErrWordNotInDictionary
	}
	ok, err := m.dict.IsActive(ctx, normalized)
	if err != nil {
		return GuessOutcome{}, unavailable(err)
	}
	if !ok {
		return GuessOutcome{}, ErrWordNotInDictionary
	}

	prior := s.GuessCount()
	res := Classify(normalized, s.target.Normalized)
	s.apply(normalized, res)

	if err := m.persist(ctx, s, prior); err != nil {
		return GuessOutcome{}, err
	}

	return GuessOutcome{
		Result:       res,
		IsWin:        s.Won(),
		IsGameOver:   s.IsOver(),
		GuessCount:   s.GuessCount(),
		RevealedWord: s.RevealedWord(),
	}, nil
}

// GetState returns the guesses of session id and, once over, its word.
func (m *Manager) GetState(ctx context.Context, id string, requester Owner) (StateView, error) {
	s, repaired, err := m.load(ctx, id, requester)
	if err != nil {
		return StateView{}, err
	}
	if repaired {
		// Readers still see the repaired state if the write fails.
		func() {
			defer m.sessions.Lock(id)()
			if err := m.saveRepair(ctx, s); err != nil {
				log.Warn().Err(err).Str("gameId", id).Msg("persist repaired session")
			}
		}()
	}
	return StateView{
		SessionID:    s.id,
		Guesses:      s.Guesses(),
		IsGameOver:   s.IsOver(),
		RevealedWord: s.RevealedWord(),
	}, nil
}

// load fetches a session and enforces ownership.
func (m *Manager) load(ctx context.Context, id string, requester Owner) (*Session, bool, error) {
	rec, err := m.repo.LoadSession(ctx, id)
	if err != nil {
		return nil, false, err
	}
	s, repaired := restoreSession(rec, m.maxAttempts)
	if !s.owner.Permits(requester) {
		return nil, false, ErrForbidden
	}
	if repaired {
		log.Warn().Str("gameId", id).Int("guesses", s.GuessCount()).Msg("session out of attempts but not over, repaired")
	}
	return s, repaired, nil
}

func (m *Manager) saveRepair(ctx context.Context, s *Session) error {
	return m.repo.WithinTx(ctx, func(tx Tx) error {
		return tx.SaveSession(ctx, s.record(), s.GuessCount())
	})
}

// persist writes the new guess and, for a finished owned game, the history
// entry and stats update, all in one transaction.
func (m *Manager) persist(ctx context.Context, s *Session, prior int) error {
	uid, owned := s.owner.UserID()
	complete := s.IsOver() && owned
	if complete {
		defer m.users.Lock(uid)()
	}

	return m.repo.WithinTx(ctx, func(tx Tx) error {
		if err := tx.SaveSession(ctx, s.record(), prior); err != nil {
			return err
		}
		if !complete {
			return nil
		}

		stats, err := tx.LoadStats(ctx, uid)
		if errors.Is(err, ErrUserNotFound) {
			log.Warn().Str("gameId", s.id).Str("user", uid).Msg("owner no longer exists, stats skipped")
			return nil
		}
		if err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, HistoryEntry{
			UserID:    uid,
			Word:      s.target.Display,
			Guesses:   s.Guesses(),
			Won:       s.Won(),
			Attempts:  s.GuessCount(),
			CreatedAt: m.now(),
		}); err != nil {
			return err
		}
		return tx.SaveStats(ctx, uid, stats.Record(s.Won()))
	})
}

// unavailable tags a collaborator failure as ErrPersistenceUnavailable.
func unavailable(err error) error {
	if errors.Is(err, ErrPersistenceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)
}
