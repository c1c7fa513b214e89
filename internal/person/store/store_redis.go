package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"peopleapi/internal/person/models"
	"peopleapi/internal/platform/metrics"
	"peopleapi/pkg/platform/circuit"
)

const personKeyPrefix = "people:person:"

// DefaultCacheTTL bounds how long a cached read may outlive a write made by
// another instance.
const DefaultCacheTTL = time.Minute

// cachedPerson is the Redis value. Deleted marks a tombstone written by Delete.
type cachedPerson struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Deleted   bool   `json:"deleted,omitempty"`
}

// Cached serves FindByID from Redis and falls back to the wrapped backend.
//
// Reads fill the cache with SET NX, so a slow reader never replaces a newer
// value. Update writes the new record through and Delete writes a tombstone,
// both after the backend write succeeds. When that cache write fails the key
// is unsettled: reads of it skip Redis and retry the eviction until it
// succeeds or a full TTL has passed. Redis failures never fail the call and
// feed the breaker; while it is open reads skip Redis.
type Cached struct {
	Backend
	client  redis.Cmdable
	ttl     time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	breaker *circuit.Breaker
	now     func() time.Time

	mu        sync.Mutex
	unsettled map[string]time.Time
}

// CachedOption configures a Cached store.
type CachedOption func(*Cached)

// WithCacheTTL overrides DefaultCacheTTL.
func WithCacheTTL(ttl time.Duration) CachedOption {
	return func(c *Cached) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithCacheLogger sets the logger used for cache failures.
func WithCacheLogger(logger *slog.Logger) CachedOption {
	return func(c *Cached) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithCacheMetrics records hits and misses.
func WithCacheMetrics(m *metrics.Metrics) CachedOption {
	return func(c *Cached) {
		c.metrics = m
	}
}

// WithCacheBreaker replaces the default breaker guarding Redis reads.
func WithCacheBreaker(b *circuit.Breaker) CachedOption {
	return func(c *Cached) {
		if b != nil {
			c.breaker = b
		}
	}
}

// NewCached wraps next with a Redis read-through cache.
func NewCached(next Backend, client redis.Cmdable, opts ...CachedOption) *Cached {
	c := &Cached{
		Backend:   next,
		client:    client,
		ttl:       DefaultCacheTTL,
		logger:    slog.Default(),
		breaker:   circuit.New("person-cache"),
		now:       time.Now,
		unsettled: make(map[string]time.Time),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Cached) FindByID(ctx context.Context, id uuid.UUID) (*models.Person, error) {
	key := personKeyPrefix + id.String()
	useCache := c.breaker.Allow() && c.settle(ctx, key)
	if useCache {
		if p, ok := c.lookup(ctx, key, id); ok {
			c.metrics.IncrementCacheLookup("hit")
			return p, nil
		}
	}
	c.metrics.IncrementCacheLookup("miss")

	p, err := c.Backend.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if useCache {
		c.fill(ctx, key, p)
	}
	return p, nil
}

func (c *Cached) Update(ctx context.Context, p *models.Person) error {
	if err := c.Backend.Update(ctx, p); err != nil {
		return err
	}
	c.overwrite(ctx, personKeyPrefix+p.ID.String(), cachedPerson{
		ID:        p.ID.String(),
		FirstName: p.FirstName,
		LastName:  p.LastName,
	})
	return nil
}

func (c *Cached) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := c.Backend.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	c.overwrite(ctx, personKeyPrefix+id.String(), cachedPerson{ID: id.String(), Deleted: true})
	return deleted, nil
}

func (c *Cached) lookup(ctx context.Context, key string, id uuid.UUID) (*models.Person, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		c.recordSuccess(ctx)
		var entry cachedPerson
		if decodeErr := json.Unmarshal(raw, &entry); decodeErr == nil {
			if entry.Deleted {
				return nil, false
			}
			if pid, parseErr := uuid.Parse(entry.ID); parseErr == nil && pid == id {
				return &models.Person{ID: pid, FirstName: entry.FirstName, LastName: entry.LastName}, true
			}
		}
		c.logger.WarnContext(ctx, "discarding unreadable cache entry", "key", key)
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.WarnContext(ctx, "person cache eviction failed", "key", key, "error", err)
			c.recordFailure(ctx)
		}
	case errors.Is(err, redis.Nil):
		c.recordSuccess(ctx)
	default:
		c.logger.WarnContext(ctx, "person cache read failed", "key", key, "error", err)
		c.recordFailure(ctx)
	}
	return nil, false
}

// fill caches a record read from the backend unless a write got there first.
func (c *Cached) fill(ctx context.Context, key string, p *models.Person) {
	raw, err := json.Marshal(cachedPerson{ID: p.ID.String(), FirstName: p.FirstName, LastName: p.LastName})
	if err != nil {
		c.logger.WarnContext(ctx, "encode cache entry", "key", key, "error", err)
		return
	}
	if err := c.client.SetNX(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "person cache write failed", "key", key, "error", err)
		c.recordFailure(ctx)
		return
	}
	// a write may have failed to land while this read was in flight
	if c.isUnsettled(key) {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.WarnContext(ctx, "person cache eviction failed", "key", key, "error", err)
			c.recordFailure(ctx)
		}
	}
}

// overwrite replaces the cached value after a backend write. On failure the
// key is unsettled so that stale data is never served from this instance.
func (c *Cached) overwrite(ctx context.Context, key string, entry cachedPerson) {
	raw, err := json.Marshal(entry)
	if err == nil {
		err = c.client.Set(ctx, key, raw, c.ttl).Err()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "person cache write-through failed", "key", key, "error", err)
		c.recordFailure(ctx)
		c.markUnsettled(key)
		return
	}
	c.recordSuccess(ctx)
	c.clearUnsettled(key)
}

// settle reports whether key may be read from Redis. An unsettled key is
// evicted first; until that works the caller must bypass the cache.
func (c *Cached) settle(ctx context.Context, key string) bool {
	if !c.isUnsettled(key) {
		return true
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.WarnContext(ctx, "person cache eviction failed", "key", key, "error", err)
		c.recordFailure(ctx)
		return false
	}
	c.recordSuccess(ctx)
	c.clearUnsettled(key)
	return true
}

func (c *Cached) markUnsettled(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, since := range c.unsettled {
		if now.Sub(since) >= c.ttl {
			delete(c.unsettled, k)
		}
	}
	c.unsettled[key] = now
}

// isUnsettled drops markers older than the TTL: every entry written before
// the failed write has expired by then.
func (c *Cached) isUnsettled(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	since, ok := c.unsettled[key]
	if !ok {
		return false
	}
	if c.now().Sub(since) >= c.ttl {
		delete(c.unsettled, key)
		return false
	}
	return true
}

func (c *Cached) clearUnsettled(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.unsettled, key)
}

func (c *Cached) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "person cache circuit opened", "breaker", c.breaker.Name())
	}
}

func (c *Cached) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "person cache circuit closed", "breaker", c.breaker.Name())
	}
}
