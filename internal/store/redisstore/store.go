package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const channelKindTTL = 12 * time.Hour

// Store caches Slack channel-kind lookups. Channel kinds are effectively
// immutable, so a long TTL is safe.
type Store struct {
	rdb *redis.Client
}

func New(addr, password string, db int) *Store {
	return &Store{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func channelKindKey(channel string) string {
	return "slack:channel_kind:" + channel
}

// GetChannelKind returns the cached kind for a channel, or "" on miss.
func (s *Store) GetChannelKind(ctx context.Context, channel string) (string, error) {
	kind, err := s.rdb.Get(ctx, channelKindKey(channel)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return kind, nil
}

func (s *Store) SetChannelKind(ctx context.Context, channel, kind string) error {
	return s.rdb.Set(ctx, channelKindKey(channel), kind, channelKindTTL).Err()
}
