// Package ratelimit provides per-client token-bucket rate limiting for
// the coaching API. An analysis run blocks on an LLM call, so the
// expensive endpoints carry much tighter budgets than ordinary reads.
package ratelimit

import (
	"sync"
	"time"
)

// staleAfter is how long an idle client bucket survives before the
// cleanup pass drops it.
const staleAfter = time.Hour

// bucket holds capacity tokens that refill at rate tokens per second.
// Each admitted request spends one.
type bucket struct {
	mu         sync.Mutex
	capacity   int
	rate       float64
	tokens     float64
	lastRefill time.Time
}

func newBucket(capacity int, rate float64) *bucket {
	return &bucket{
		capacity:   capacity,
		rate:       rate,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

// refillLocked credits tokens for the time since the last refill,
// capped at capacity. Callers must hold mu.
func (b *bucket) refillLocked(now time.Time) {
	b.tokens = min(float64(b.capacity), b.tokens+now.Sub(b.lastRefill).Seconds()*b.rate)
	b.lastRefill = now
}

// take spends one token if one is available.
func (b *bucket) take() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refillLocked(time.Now())
	if b.tokens >= 1.0 {
		b.tokens--
		return true
	}
	return false
}

// status reports the remaining whole tokens and when the bucket will be
// full again, without spending anything.
func (b *bucket) status() (remaining int, resetTime time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.refillLocked(now)

	remaining = int(b.tokens)
	resetTime = now
	if b.tokens < float64(b.capacity) {
		deficit := float64(b.capacity) - b.tokens
		resetTime = now.Add(time.Duration(deficit / b.rate * float64(time.Second)))
	}
	return remaining, resetTime
}

// Info carries the rate-limit state for one decision, shaped for the
// X-RateLimit-* response headers.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	CleanupInterval time.Duration
	Whitelist       map[string]bool
	Blacklist       map[string]bool
	EndpointConfigs []EndpointConfig
}

// Limiter meters requests per client, endpoint, and method.
type Limiter struct {
	mu      sync.RWMutex
	buckets map[string]*bucket

	config *Config

	accessMu   sync.RWMutex
	lastAccess map[string]time.Time

	cleanupTicker *time.Ticker
	cleanupStop   chan struct{}
}

// NewLimiter creates a limiter. A nil config gets the package defaults.
func NewLimiter(config *Config) *Limiter {
	if config == nil {
		config = &Config{
			Enabled:         true,
			DefaultLimit:    1000,
			DefaultWindow:   time.Minute,
			CleanupInterval: 5 * time.Minute,
			Whitelist:       make(map[string]bool),
			Blacklist:       make(map[string]bool),
		}
	}

	limiter := &Limiter{
		buckets:    make(map[string]*bucket),
		config:     config,
		lastAccess: make(map[string]time.Time),
	}

	if config.Enabled && config.CleanupInterval > 0 {
		limiter.cleanupTicker = time.NewTicker(config.CleanupInterval)
		limiter.cleanupStop = make(chan struct{})
		go limiter.cleanupLoop()
	}

	return limiter
}

// Allow reports whether a request from clientID may proceed against the
// given endpoint and method, along with header-ready limit info.
func (l *Limiter) Allow(clientID string, endpoint string, method string) (bool, Info) {
	if !l.config.Enabled {
		return true, Info{Allowed: true}
	}
	if l.config.Whitelist[clientID] {
		return true, Info{Allowed: true}
	}
	if l.config.Blacklist[clientID] {
		return false, Info{}
	}

	cfg := MatchEndpoint(endpoint, method, l.config.EndpointConfigs)
	if cfg == nil {
		cfg = &EndpointConfig{
			Limit:  l.config.DefaultLimit,
			Window: l.config.DefaultWindow,
			Burst:  l.config.DefaultLimit,
		}
	}

	// Limit 0 marks an unmetered endpoint, such as the health check.
	if cfg.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	key := clientID + ":" + endpoint + ":" + method
	b := l.bucketFor(key, cfg)

	l.accessMu.Lock()
	l.lastAccess[key] = time.Now()
	l.accessMu.Unlock()

	allowed := b.take()
	remaining, resetTime := b.status()

	var retryAfter time.Duration
	if !allowed {
		if retryAfter = time.Until(resetTime); retryAfter < 0 {
			retryAfter = 0
		}
	}

	return allowed, Info{
		Allowed:    allowed,
		Limit:      cfg.Limit,
		Remaining:  remaining,
		ResetTime:  resetTime,
		RetryAfter: retryAfter,
	}
}

// bucketFor returns the bucket for key, creating it on first use.
func (l *Limiter) bucketFor(key string, cfg *EndpointConfig) *bucket {
	l.mu.RLock()
	b, ok := l.buckets[key]
	l.mu.RUnlock()
	if ok {
		return b
	}

	capacity := cfg.Burst
	if capacity <= 0 {
		capacity = cfg.Limit
	}
	b = newBucket(capacity, float64(cfg.Limit)/cfg.Window.Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	// Another request may have created the bucket while we built ours.
	if existing, ok := l.buckets[key]; ok {
		return existing
	}
	l.buckets[key] = b
	return b
}

func (l *Limiter) cleanupLoop() {
	for {
		select {
		case <-l.cleanupTicker.C:
			l.dropStaleBuckets()
		case <-l.cleanupStop:
			return
		}
	}
}

// dropStaleBuckets removes buckets for clients that have gone quiet so
// the maps do not grow without bound.
func (l *Limiter) dropStaleBuckets() {
	cutoff := time.Now().Add(-staleAfter)

	l.accessMu.RLock()
	keys := make([]string, 0, len(l.lastAccess))
	for key := range l.lastAccess {
		keys = append(keys, key)
	}
	l.accessMu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accessMu.Lock()
	defer l.accessMu.Unlock()

	for _, key := range keys {
		if last, ok := l.lastAccess[key]; ok && last.Before(cutoff) {
			delete(l.buckets, key)
			delete(l.lastAccess, key)
		}
	}
}

// Stop halts the background cleanup goroutine.
func (l *Limiter) Stop() {
	if l.cleanupTicker != nil {
		l.cleanupTicker.Stop()
	}
	if l.cleanupStop != nil {
		close(l.cleanupStop)
	}
}
