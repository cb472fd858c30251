package cache

import (
	"context"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	pkgredis "github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/lexsearch/pkg/resilience"
)

// Store is the byte-level backend behind QueryCache.
type Store interface {
	// Get returns the value for key; a missing key is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	// Purge deletes every key starting with prefix and reports how many.
	Purge(ctx context.Context, prefix string) (int64, error)
	Ping(ctx context.Context) error
}

// MemoryStore is a size-bounded in-process LRU. Entries older than the TTL
// are dropped; a zero TTL keeps them until evicted.
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte) error {
	s.lru.Add(key, value)
	return nil
}

func (s *MemoryStore) Purge(_ context.Context, prefix string) (int64, error) {
	var deleted int64
	for _, key := range s.lru.Keys() {
		if strings.HasPrefix(key, prefix) && s.lru.Remove(key) {
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	return s.lru.Len()
}

// RedisStore shares cached answers between searcher replicas.
type RedisStore struct {
	client *pkgredis.Client
	ttl    time.Duration
}

func NewRedisStore(client *pkgredis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key)
	if err != nil {
		if pkgredis.IsNilError(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, key, value, s.ttl)
}

func (s *RedisStore) Purge(ctx context.Context, prefix string) (int64, error) {
	return s.client.FlushByPattern(ctx, prefix+"*")
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

// BreakerStore fails fast while a remote backend is unhealthy, so a Redis
// outage degrades searches to uncached instead of slow.
type BreakerStore struct {
	next    Store
	breaker *resilience.CircuitBreaker
}

func NewBreakerStore(next Store, breaker *resilience.CircuitBreaker) *BreakerStore {
	return &BreakerStore{next: next, breaker: breaker}
}

func (s *BreakerStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data []byte
		ok   bool
	)
	err := s.breaker.Execute(func() error {
		var err error
		data, ok, err = s.next.Get(ctx, key)
		return err
	})
	return data, ok, err
}

func (s *BreakerStore) Set(ctx context.Context, key string, value []byte) error {
	return s.breaker.Execute(func() error {
		return s.next.Set(ctx, key, value)
	})
}

func (s *BreakerStore) Purge(ctx context.Context, prefix string) (int64, error) {
	var deleted int64
	err := s.breaker.Execute(func() error {
		var err error
		deleted, err = s.next.Purge(ctx, prefix)
		return err
	})
	return deleted, err
}

// Ping bypasses the breaker so health checks see the backend itself.
func (s *BreakerStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}
