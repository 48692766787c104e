package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	rateCacheSize  = 10000
	rateCacheTTL   = time.Hour
	abuseCacheSize = 5000
	abuseCacheTTL  = 2 * time.Hour
)

type rateEntry struct {
	count     int
	resetTime time.Time
}

type abuseEntry struct {
	failures    int
	bannedUntil time.Time
}

// MemoryLimiter keeps counters in bounded, TTL-evicting caches local to the
// process. Eviction silently forgives a key, so enforcement is approximate
// under memory pressure.
type MemoryLimiter struct {
	mu     sync.Mutex
	routes *Routes
	rates  *expirable.LRU[string, *rateEntry]
	abuse  *expirable.LRU[string, *abuseEntry]
	now    func() time.Time
	logger *slog.Logger
}

type MemoryOption func(*memoryConfig)

type memoryConfig struct {
	rateSize, abuseSize int
	now                 func() time.Time
}

func WithClock(now func() time.Time) MemoryOption {
	return func(c *memoryConfig) { c.now = now }
}

// WithCapacity bounds the number of tracked keys.
func WithCapacity(rateSize, abuseSize int) MemoryOption {
	return func(c *memoryConfig) {
		c.rateSize = rateSize
		c.abuseSize = abuseSize
	}
}

func NewMemoryLimiter(routes *Routes, logger *slog.Logger, opts ...MemoryOption) *MemoryLimiter {
	cfg := memoryConfig{rateSize: rateCacheSize, abuseSize: abuseCacheSize, now: time.Now}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MemoryLimiter{
		routes: routes,
		rates:  expirable.NewLRU[string, *rateEntry](cfg.rateSize, nil, rateCacheTTL),
		abuse:  expirable.NewLRU[string, *abuseEntry](cfg.abuseSize, nil, abuseCacheTTL),
		now:    cfg.now,
		logger: logger,
	}
}

func (m *MemoryLimiter) Check(_ context.Context, ip, route string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if ab, ok := m.abuse.Get(ip); ok && now.Before(ab.bannedUntil) {
		return Decision{Allowed: false, Remaining: 0, ResetIn: ab.bannedUntil.Sub(now), Banned: true}, nil
	}

	rule := m.routes.Match(route)
	key := rateKey(ip, route)

	entry, ok := m.rates.Get(key)
	if !ok || !now.Before(entry.resetTime) {
		entry = &rateEntry{resetTime: now.Add(rule.Window)}
	}

	allowed := entry.count < rule.Limit
	if allowed {
		entry.count++
		m.rates.Add(key, entry)
	} else {
		m.recordFailure(ip, now)
	}

	return Decision{
		Allowed:   allowed,
		Remaining: max(0, rule.Limit-entry.count),
		ResetIn:   entry.resetTime.Sub(now),
	}, nil
}

func (m *MemoryLimiter) recordFailure(ip string, now time.Time) {
	ab, ok := m.abuse.Get(ip)
	if !ok {
		ab = &abuseEntry{}
	}
	ab.failures++
	if ab.failures >= AbuseThreshold {
		ab.bannedUntil = now.Add(BanDuration)
		m.logger.Warn("ip banned for abuse", "ip", ip, "failures", ab.failures, "until", ab.bannedUntil)
	}
	m.abuse.Add(ip, ab)
}

// Len reports the number of tracked rate and abuse keys.
func (m *MemoryLimiter) Len() (rates, abuse int) {
	return m.rates.Len(), m.abuse.Len()
}
