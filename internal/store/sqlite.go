// internal/store/sqlite.go
//
// SQLite implementation of game.Repository.
//
// Tables (see internal/db/sql):
//   - active_games: sessions keyed by id; guesses stored as JSON.
//   - games:        completed-game history of registered users.
//   - users:        the five stat counters live on the user row.
//
// Writes to active_games are conditional on guess_count, so a stale writer
// gets game.ErrPersistenceConflict instead of overwriting a newer guess.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/robalobadob/epiwordle/internal/db"
	"github.com/robalobadob/epiwordle/internal/game"
)

// SQLite persists sessions, history and stats in one database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an already migrated database.
func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{db: conn}
}

// CreateSession inserts a new active_games row.
func (s *SQLite) CreateSession(ctx context.Context, rec game.SessionRecord) error {
	guesses, err := json.Marshal(nonNil(rec.Guesses))
	if err != nil {
		return fmt.Errorf("encode guesses: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO active_games (id, user_id, target_word, original_word, guesses, guess_count, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, ownerArg(rec.Owner), rec.TargetWord, rec.OriginalWord,
		string(guesses), len(rec.Guesses), string(rec.Status), rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return unavailable("insert session", err)
	}
	return nil
}

// LoadSession reads one active_games row.
func (s *SQLite) LoadSession(ctx context.Context, id string) (game.SessionRecord, error) {
	var (
		rec     game.SessionRecord
		userID  sql.NullString
		guesses string
		status  string
		created string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, target_word, original_word, guesses, status, created_at
		FROM active_games WHERE id=?`, id,
	).Scan(&rec.ID, &userID, &rec.TargetWord, &rec.OriginalWord, &guesses, &status, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return game.SessionRecord{}, game.ErrSessionNotFound
	}
	if err != nil {
		return game.SessionRecord{}, unavailable("load session", err)
	}
	if err := json.Unmarshal([]byte(guesses), &rec.Guesses); err != nil {
		return game.SessionRecord{}, fmt.Errorf("decode guesses of %s: %w", id, err)
	}
	rec.Owner = game.UserOwner(userID.String)
	rec.Status = game.Status(status)
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return rec, nil
}

// WithinTx runs fn in an immediate SQLite transaction.
func (s *SQLite) WithinTx(ctx context.Context, fn func(tx game.Tx) error) error {
	var fnErr error
	err := db.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		fnErr = fn(&sqliteTx{tx: tx})
		return fnErr
	})
	if err != nil && fnErr == nil {
		return unavailable("transaction", err)
	}
	return err
}

type sqliteTx struct {
	tx *sql.Tx
}

func (t *sqliteTx) SaveSession(ctx context.Context, rec game.SessionRecord, expectedGuesses int) error {
	guesses, err := json.Marshal(nonNil(rec.Guesses))
	if err != nil {
		return fmt.Errorf("encode guesses: %w", err)
	}
	res, err := t.tx.ExecContext(ctx, `
		UPDATE active_games SET guesses=?, guess_count=?, status=?
		WHERE id=? AND guess_count=?`,
		string(guesses), len(rec.Guesses), string(rec.Status), rec.ID, expectedGuesses,
	)
	if err != nil {
		return unavailable("update session", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("update session", err)
	}
	if n == 1 {
		return nil
	}

	var one int
	err = t.tx.QueryRowContext(ctx, `SELECT 1 FROM active_games WHERE id=?`, rec.ID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return game.ErrSessionNotFound
	}
	if err != nil {
		return unavailable("check session", err)
	}
	return game.ErrPersistenceConflict
}

func (t *sqliteTx) AppendHistory(ctx context.Context, e game.HistoryEntry) error {
	guesses, err := json.Marshal(nonNil(e.Guesses))
	if err != nil {
		return fmt.Errorf("encode guesses: %w", err)
	}
	_, err = t.tx.ExecContext(ctx, `
		INSERT INTO games (user_id, word, won, attempts, guesses, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Word, e.Won, e.Attempts, string(guesses), e.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return unavailable("insert history", err)
	}
	return nil
}

func (t *sqliteTx) LoadStats(ctx context.Context, userID string) (game.UserStats, error) {
	var st game.UserStats
	err := t.tx.QueryRowContext(ctx, `
		SELECT total_games, total_wins, current_streak, max_streak, total_words_found
		FROM users WHERE id=?`, userID,
	).Scan(&st.TotalGames, &st.TotalWins, &st.CurrentStreak, &st.MaxStreak, &st.TotalWordsFound)
	if errors.Is(err, sql.ErrNoRows) {
		return game.UserStats{}, game.ErrUserNotFound
	}
	if err != nil {
		return game.UserStats{}, unavailable("load stats", err)
	}
	return st, nil
}

func (t *sqliteTx) SaveStats(ctx context.Context, userID string, st game.UserStats) error {
	_, err := t.tx.ExecContext(ctx, `
		UPDATE users SET total_games=?, total_wins=?, current_streak=?, max_streak=?, total_words_found=?
		WHERE id=?`,
		st.TotalGames, st.TotalWins, st.CurrentStreak, st.MaxStreak, st.TotalWordsFound, userID,
	)
	if err != nil {
		return unavailable("save stats", err)
	}
	return nil
}

func ownerArg(o game.Owner) any {
	if id, ok := o.UserID(); ok {
		return id
	}
	return nil
}

func nonNil(g []game.GuessRecord) []game.GuessRecord {
	if g == nil {
		return []game.GuessRecord{}
	}
	return g
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", game.ErrPersistenceUnavailable, op, err)
}
