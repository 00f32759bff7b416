package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cached document is corrupted
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Manager stores documents in Redis.
type Manager struct {
	redis  *redis.Client
	window time.Duration
}

// Option configures a Manager.
type Option func(*Manager)

// WithRevalidateWindow sets how long stale documents are kept for
// conditional requests. Zero drops documents as soon as they expire.
func WithRevalidateWindow(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.window = d
		}
	}
}

// NewManager creates a new cache manager with Redis backend.
func NewManager(redisClient *redis.Client, opts ...Option) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	m := &Manager{
		redis:  redisClient,
		window: DefaultRevalidateWindow,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect parses a redis:// URL and verifies the server answers.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return client, nil
}

// Get retrieves a document. Stale documents inside the revalidation window
// are returned too; check IsExpired. Returns ErrCacheMiss when absent.
func (m *Manager) Get(ctx context.Context, key DocumentKey) (*Document, error) {
	data, err := m.redis.Get(ctx, key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		CacheErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}

	if doc.IsExpired() {
		CacheStale.Inc()
	} else {
		CacheHits.Inc()
	}
	return &doc, nil
}

// Set stores a document until Expires plus the revalidation window.
// Documents that are already past that point are not stored.
func (m *Manager) Set(ctx context.Context, key DocumentKey, doc *Document) error {
	if doc == nil {
		return fmt.Errorf("cache document cannot be nil")
	}

	ttl := doc.TTL() + m.window
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(doc)
	if err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("marshal cache document: %w", err)
	}

	if err := m.redis.Set(ctx, key.String(), data, ttl).Err(); err != nil {
		CacheErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	CacheStoredBytes.Add(float64(len(data)))
	return nil
}

// Delete removes a document.
func (m *Manager) Delete(ctx context.Context, key DocumentKey) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Revalidate applies a 304 response's headers to a stored document and
// writes it back with its new lifetime.
func (m *Manager) Revalidate(ctx context.Context, key DocumentKey, doc *Document, header http.Header) error {
	if doc == nil {
		return fmt.Errorf("cache document cannot be nil")
	}
	NotModified.Inc()
	Refresh(doc, header)
	return m.Set(ctx, key, doc)
}
