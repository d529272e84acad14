// internal/chat/redis.go
//
// Redis-backed Store, shared by every server process pointed at the same key.
// Messages are JSON values in one list, oldest at the head; each Append trims
// the list to the newest max entries in the same MULTI block.

package chat

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "epiwordle:chat"

type RedisStore struct {
	rdb *redis.Client
	key string
	max int64
}

func NewRedisStore(rdb *redis.Client, key string, capacity int) *RedisStore {
	if key == "" {
		key = DefaultRedisKey
	}
	if capacity <= 0 {
		capacity = DefaultMaxMessages
	}
	return &RedisStore{rdb: rdb, key: key, max: int64(capacity)}
}

func (s *RedisStore) Append(ctx context.Context, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode chat message: %w", err)
	}
	_, err = s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.RPush(ctx, s.key, data)
		p.LTrim(ctx, s.key, -s.max, -1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]Message, error) {
	raws, err := s.rdb.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	return decodeAll(raws), nil
}

func (s *RedisStore) Remove(ctx context.Context, id, author string) error {
	err := s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raws, err := tx.LRange(ctx, s.key, 0, -1).Result()
		if err != nil {
			return err
		}
		for _, raw := range raws {
			var m Message
			if json.Unmarshal([]byte(raw), &m) != nil || m.ID != id {
				continue
			}
			if m.Username != author {
				return ErrForbidden
			}
			_, err := tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
				p.LRem(ctx, s.key, 1, raw)
				return nil
			})
			return err
		}
		return ErrNotFound
	}, s.key)
	if err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden) {
		return err
	}
	return fmt.Errorf("remove chat message: %w", err)
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("clear chat: %w", err)
	}
	return nil
}

// decodeAll skips entries that are not valid messages.
func decodeAll(raws []string) []Message {
	out := make([]Message, 0, len(raws))
	for _, raw := range raws {
		var m Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out
}
