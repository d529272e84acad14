// internal/user/service.go
//
// Account use cases: register, login, lookup, leaderboard and history.
// Passwords are hashed with bcrypt; sessions are HS256 tokens (see tokens.go).
// The leaderboard is served from an optional byte cache for a short TTL.

package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/robalobadob/epiwordle/internal/game"
)

const leaderboardKey = "leaderboard"

// Cache is a byte cache with store-side expiry.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

type nopCache struct{}

func (nopCache) Get(string) ([]byte, bool) { return nil, false }
func (nopCache) Set(string, []byte)        {}

// Service is safe for concurrent use.
type Service struct {
	repo     Repository
	tokens   *Tokens
	cache    Cache
	hashCost int
	now      func() time.Time
}

type ServiceOption func(*Service)

// WithCache serves the leaderboard through c.
func WithCache(c Cache) ServiceOption {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithHashCost overrides the bcrypt cost (tests use bcrypt.MinCost).
func WithHashCost(cost int) ServiceOption {
	return func(s *Service) { s.hashCost = cost }
}

func NewService(repo Repository, tokens *Tokens, opts ...ServiceOption) *Service {
	s := &Service{
		repo:     repo,
		tokens:   tokens,
		cache:    nopCache{},
		hashCost: bcrypt.DefaultCost,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Session is a signed token for a user.
type Session struct {
	User    User
	Token   string
	Expires time.Time
}

// Register validates the input, creates the account and signs it in.
func (s *Service) Register(ctx context.Context, username, password string) (Session, error) {
	if err := ValidateRegistration(username, password); err != nil {
		return Session{}, err
	}
	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return Session{}, ErrUsernameTaken
	} else if !errors.Is(err, ErrNotFound) {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now(),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return Session{}, err
	}
	log.Info().Str("user", u.ID).Str("username", u.Username).Msg("user registered")
	return s.issue(u)
}

// Login checks the credentials and signs the user in.
func (s *Service) Login(ctx context.Context, username, password string) (Session, error) {
	if username == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	u, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(u)
}

func (s *Service) issue(u User) (Session, error) {
	tok, exp, err := s.tokens.Sign(u)
	if err != nil {
		return Session{}, err
	}
	return Session{User: u, Token: tok, Expires: exp}, nil
}

// Authenticate resolves a token to a still existing user.
func (s *Service) Authenticate(ctx context.Context, raw string) (User, error) {
	c, err := s.tokens.Parse(raw)
	if err != nil {
		return User{}, err
	}
	u, err := s.repo.FindByID(ctx, c.ID)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrInvalidToken
	}
	return u, err
}

// Get loads a user by id.
func (s *Service) Get(ctx context.Context, id string) (User, error) {
	return s.repo.FindByID(ctx, id)
}

// Leaderboard returns the top players, possibly a few seconds stale.
func (s *Service) Leaderboard(ctx context.Context) ([]LeaderboardEntry, error) {
	if b, ok := s.cache.Get(leaderboardKey); ok {
		var cached []LeaderboardEntry
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
	}
	entries, err := s.repo.Leaderboard(ctx, LeaderboardLimit)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(entries); err == nil {
		s.cache.Set(leaderboardKey, b)
	}
	return entries, nil
}

// History returns the latest completed games of a user.
func (s *Service) History(ctx context.Context, userID string) ([]game.HistoryEntry, error) {
	return s.repo.History(ctx, userID, HistoryLimit)
}
