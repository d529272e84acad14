package user

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/robalobadob/epiwordle/internal/game"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, u User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockRepository) FindByUsername(ctx context.Context, username string) (User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id string) (User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(User), args.Error(1)
}

func (m *MockRepository) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LeaderboardEntry), args.Error(1)
}

func (m *MockRepository) History(ctx context.Context, userID string, limit int) ([]game.HistoryEntry, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]game.HistoryEntry), args.Error(1)
}

// mapCache is an in-process Cache without expiry.
type mapCache map[string][]byte

func (c mapCache) Get(k string) ([]byte, bool) {
	v, ok := c[k]
	return v, ok
}

func (c mapCache) Set(k string, v []byte) { c[k] = v }
