package ratelimit

import (
	"sync"
	"time"
)

const (
	LoginMaxAttempts   = 5
	LoginBlockDuration = 15 * time.Minute
)

type loginRecord struct {
	count       int
	lastAttempt time.Time
}

// LoginLimiter counts login attempts per identity (normalized email). A
// record resets once the gap since its last attempt exceeds the block
// duration, so a sustained attack stays blocked until it pauses.
type LoginLimiter struct {
	mu          sync.Mutex
	records     map[string]*loginRecord
	maxAttempts int
	block       time.Duration
	now         func() time.Time
}

type LoginOption func(*LoginLimiter)

func WithLoginClock(now func() time.Time) LoginOption {
	return func(l *LoginLimiter) { l.now = now }
}

func WithLoginPolicy(maxAttempts int, block time.Duration) LoginOption {
	return func(l *LoginLimiter) {
		l.maxAttempts = maxAttempts
		l.block = block
	}
}

func NewLoginLimiter(opts ...LoginOption) *LoginLimiter {
	l := &LoginLimiter{
		records:     make(map[string]*loginRecord),
		maxAttempts: LoginMaxAttempts,
		block:       LoginBlockDuration,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Attempt records an attempt for identity and then reports whether it is
// still under the ceiling. The attempt that reaches the ceiling is itself
// rejected: four failures followed by a fifth try yields a block.
func (l *LoginLimiter) Attempt(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	l.record(identity, now)
	return l.allowed(identity, now)
}

// RecordAttempt increments the counter for identity.
func (l *LoginLimiter) RecordAttempt(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.record(identity, l.now())
}

// Allowed reports whether identity is below the attempt ceiling.
func (l *LoginLimiter) Allowed(identity string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.allowed(identity, l.now())
}

// Clear forgets identity. Called only after a fully successful login.
func (l *LoginLimiter) Clear(identity string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.records, identity)
}

// Cleanup removes records idle for longer than the block duration.
func (l *LoginLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, rec := range l.records {
		if now.Sub(rec.lastAttempt) > l.block {
			delete(l.records, key)
		}
	}
}

func (l *LoginLimiter) record(identity string, now time.Time) {
	rec, ok := l.records[identity]
	if !ok || now.Sub(rec.lastAttempt) > l.block {
		rec = &loginRecord{}
		l.records[identity] = rec
	}
	rec.count++
	rec.lastAttempt = now
}

func (l *LoginLimiter) allowed(identity string, now time.Time) bool {
	rec, ok := l.records[identity]
	if !ok {
		return true
	}
	if now.Sub(rec.lastAttempt) > l.block {
		delete(l.records, identity)
		return true
	}
	return rec.count < l.maxAttempts
}
