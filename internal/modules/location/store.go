// README: Recently used locations per user, kept as a Redis list (newest first).
package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ridebook/internal/types"
)

const (
	keyPrefix  = "ridebook:recent:"
	recentTTL  = 90 * 24 * time.Hour
	DefaultMax = 10

	rememberRetries = 10
)

type Store struct {
	redis *redis.Client
	limit int
}

func NewStore(rdb *redis.Client, limit int) *Store {
	if limit <= 0 {
		limit = DefaultMax
	}
	return &Store{redis: rdb, limit: limit}
}

func recentKey(userID string) string {
	return keyPrefix + userID
}

type lister interface {
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

func (s *Store) Recent(ctx context.Context, userID string) ([]types.Location, error) {
	return s.read(ctx, s.redis, recentKey(userID))
}

func (s *Store) read(ctx context.Context, c lister, key string) ([]types.Location, error) {
	raw, err := c.LRange(ctx, key, 0, int64(s.limit-1)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.Location, 0, len(raw))
	for _, item := range raw {
		var l types.Location
		if err := json.Unmarshal([]byte(item), &l); err != nil {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

// Remember moves loc to the front of the user's list, replacing any entry
// with the same address. The read and rewrite run under WATCH, so a
// concurrent Remember for the same user retries instead of being lost.
func (s *Store) Remember(ctx context.Context, userID string, loc types.Location) error {
	key := recentKey(userID)
	update := func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx, key)
		if err != nil {
			return err
		}
		next := pushRecent(current, loc, s.limit)

		values := make([]interface{}, 0, len(next))
		for _, l := range next {
			b, err := json.Marshal(l)
			if err != nil {
				return err
			}
			values = append(values, b)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.RPush(ctx, key, values...)
			pipe.Expire(ctx, key, recentTTL)
			return nil
		})
		return err
	}

	for i := 0; i < rememberRetries; i++ {
		err := s.redis.Watch(ctx, update, key)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("remember location for %s: %w", userID, redis.TxFailedErr)
}

// pushRecent returns list with loc first, address duplicates dropped and
// at most limit entries.
func pushRecent(list []types.Location, loc types.Location, limit int) []types.Location {
	out := make([]types.Location, 0, limit)
	out = append(out, loc)
	for _, l := range list {
		if len(out) == limit {
			break
		}
		if l.SameAddress(loc) {
			continue
		}
		out = append(out, l)
	}
	return out
}
