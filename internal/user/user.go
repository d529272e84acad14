// internal/user/user.go
//
// Registered players.
// Defines:
//   - User and the public projections served over HTTP (Profile, LeaderboardEntry).
//   - Repository, the persistence contract (SQLite implementation in sqlite.go).
//   - Input validation for registration.

package user

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/robalobadob/epiwordle/internal/game"
)

const (
	LeaderboardLimit = 50
	HistoryLimit     = 20
	MinPasswordLen   = 4
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidUsername    = errors.New("username must be 3-20 letters, digits or underscores")
	ErrInvalidPassword    = errors.New("password must be at least 4 characters")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("user not found")
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// User is a stored account.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Stats        game.UserStats
	CreatedAt    time.Time
}

// Profile is what a user may see about their own account.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	game.UserStats
}

// Profile strips the credentials from u.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username, UserStats: u.Stats}
}

// LeaderboardEntry is one ranked player.
type LeaderboardEntry struct {
	Username string  `json:"username"`
	WinRate  float64 `json:"win_rate"`
	game.UserStats
}

// Repository persists accounts and reads the derived rankings.
type Repository interface {
	Create(ctx context.Context, u User) error
	FindByUsername(ctx context.Context, username string) (User, error)
	FindByID(ctx context.Context, id string) (User, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
	History(ctx context.Context, userID string, limit int) ([]game.HistoryEntry, error)
}

// ValidateRegistration checks the username pattern and password length.
func ValidateRegistration(username, password string) error {
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	if len(password) < MinPasswordLen {
		return ErrInvalidPassword
	}
	return nil
}

// IsValidation reports whether err is a rejected registration input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidUsername) || errors.Is(err, ErrInvalidPassword)
}
