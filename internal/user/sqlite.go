package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/robalobadob/epiwordle/internal/game"
)

// SQLite stores users in the users table and reads history from games.
type SQLite struct {
	db *sql.DB
}

func NewSQLite(conn *sql.DB) *SQLite {
	return &SQLite{db: conn}
}

func (s *SQLite) Create(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, u.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		// username is UNIQUE COLLATE NOCASE
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, username, password_hash, total_games, total_wins, current_streak, max_streak, total_words_found, created_at`

func (s *SQLite) FindByUsername(ctx context.Context, username string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (s *SQLite) FindByID(ctx context.Context, id string) (User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func scanUser(row *sql.Row) (User, error) {
	var (
		u       User
		created string
	)
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash,
		&u.Stats.TotalGames, &u.Stats.TotalWins, &u.Stats.CurrentStreak, &u.Stats.MaxStreak, &u.Stats.TotalWordsFound,
		&created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
	return u, nil
}

// Leaderboard ranks players with at least one game by win rate, then words found.
func (s *SQLite) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT username, total_games, total_wins, current_streak, max_streak, total_words_found,
		       CAST(total_wins AS REAL) / CAST(total_games AS REAL) * 100 AS win_rate
		FROM users
		WHERE total_games > 0
		ORDER BY win_rate DESC, total_words_found DESC, username ASC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	out := []LeaderboardEntry{}
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.TotalGames, &e.TotalWins, &e.CurrentStreak, &e.MaxStreak,
			&e.TotalWordsFound, &e.WinRate); err != nil {
			return nil, fmt.Errorf("scan leaderboard: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// History returns the latest completed games of userID, newest first.
func (s *SQLite) History(ctx context.Context, userID string, limit int) ([]game.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT word, won, attempts, guesses, created_at
		FROM games
		WHERE user_id = ?
		ORDER BY id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	out := []game.HistoryEntry{}
	for rows.Next() {
		var (
			e       game.HistoryEntry
			guesses string
			created string
		)
		if err := rows.Scan(&e.Word, &e.Won, &e.Attempts, &guesses, &created); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(guesses), &e.Guesses); err != nil {
			return nil, fmt.Errorf("decode history guesses: %w", err)
		}
		e.UserID = userID
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, e)
	}
	return out, rows.Err()
}
