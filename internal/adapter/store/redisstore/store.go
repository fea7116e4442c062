// Package redisstore keeps submissions and results in Redis.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/policy-advisor/internal/domain"
)

// Store implements domain.KVStore. A zero TTL keeps keys forever.
type Store struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

var _ domain.KVStore = (*Store)(nil)

// KeyPrefix namespaces every key written by the store.
const KeyPrefix = "policy-advisor:"

// New wraps an existing client.
func New(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{rdb: rdb, ttl: ttl, prefix: KeyPrefix}
}

// Open parses a redis:// URL and returns a store over a new client.
func Open(url string, ttl time.Duration) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("op=redisstore.Open: %w", err)
	}
	return New(redis.NewClient(opts), ttl), nil
}

// Put stores value under key.
func (s *Store) Put(ctx domain.Context, key string, value []byte) error {
	ctx, span := otel.Tracer("store.redis").Start(ctx, "kv.Put")
	defer span.End()
	if err := s.rdb.Set(ctx, s.prefix+key, value, s.ttl).Err(); err != nil {
		return fmt.Errorf("op=redisstore.Put key=%s: %w", key, err)
	}
	return nil
}

// Get returns the value under key or domain.ErrNotFound.
func (s *Store) Get(ctx domain.Context, key string) ([]byte, error) {
	ctx, span := otel.Tracer("store.redis").Start(ctx, "kv.Get")
	defer span.End()
	b, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("op=redisstore.Get key=%s: %w", key, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("op=redisstore.Get key=%s: %w", key, err)
	}
	return b, nil
}

// Ping checks the connection.
func (s *Store) Ping(ctx domain.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("op=redisstore.Ping: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close(_ context.Context) error { return s.rdb.Close() }
