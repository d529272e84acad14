// internal/chat/chat.go
//
// Polled lobby chat.
//   - Messages are trimmed, non-empty and at most maxLength runes.
//   - Stores keep only the latest N messages, oldest first.
//   - A message may be deleted by its author only.
//
// The store is injected (memory for a single process, Redis when several
// server processes share one chat).

package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxMessages = 50
	DefaultMaxLength   = 200

	// SystemUsername authors server notices.
	SystemUsername = "System"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrTooLong      = errors.New("message is too long")
	ErrNotFound     = errors.New("message not found")
	ErrForbidden    = errors.New("message belongs to another user")
)

// Message is one chat line.
type Message struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Store holds the most recent messages.
type Store interface {
	// Append adds m and evicts the oldest messages beyond capacity.
	Append(ctx context.Context, m Message) error
	// List returns the stored messages, oldest first.
	List(ctx context.Context) ([]Message, error)
	// Remove deletes message id if author wrote it.
	// It returns ErrNotFound or ErrForbidden otherwise.
	Remove(ctx context.Context, id, author string) error
	Clear(ctx context.Context) error
}

// Service validates and records chat messages.
type Service struct {
	store     Store
	maxLength int
	now       func() time.Time
}

func NewService(store Store, maxLength int) *Service {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	return &Service{store: store, maxLength: maxLength, now: func() time.Time { return time.Now().UTC() }}
}

// Send posts text as username.
func (s *Service) Send(ctx context.Context, username, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > s.maxLength {
		return Message{}, ErrTooLong
	}
	return s.post(ctx, username, text)
}

// PostSystem posts a server notice.
func (s *Service) PostSystem(ctx context.Context, text string) error {
	_, err := s.post(ctx, SystemUsername, text)
	return err
}

func (s *Service) post(ctx context.Context, username, text string) (Message, error) {
	m := Message{
		ID:        uuid.NewString(),
		Username:  username,
		Text:      text,
		Timestamp: s.now(),
	}
	if err := s.store.Append(ctx, m); err != nil {
		return Message{}, err
	}
	log.Debug().Str("username", username).Str("id", m.ID).Msg("chat message")
	return m, nil
}

func (s *Service) List(ctx context.Context) ([]Message, error) {
	return s.store.List(ctx)
}

// Delete removes message id on behalf of username.
func (s *Service) Delete(ctx context.Context, id, username string) error {
	return s.store.Remove(ctx, id, username)
}

func (s *Service) Clear(ctx context.Context, username string) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	log.Info().Str("username", username).Msg("chat cleared")
	return nil
}

// IsValidation reports whether err is a rejected message.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyMessage) || errors.Is(err, ErrTooLong)
}
