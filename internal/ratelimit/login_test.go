package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestClock() *testClock {
	return &testClock{t: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}
}

func TestLoginLimiterCeilingAtFifthAttempt(t *testing.T) {
	clock := newTestClock()
	l := NewLoginLimiter(WithLoginClock(clock.Now))

	for i := 1; i <= 4; i++ {
		assert.True(t, l.Attempt("admin@test.com"), "attempt %d should be allowed", i)
	}
	assert.False(t, l.Attempt("admin@test.com"), "5th attempt should be blocked")
	assert.False(t, l.Attempt("admin@test.com"), "6th attempt should be blocked")
}

func TestLoginLimiterIdentitiesIndependent(t *testing.T) {
	l := NewLoginLimiter(WithLoginClock(newTestClock().Now))
	for i := 0; i < 5; i++ {
		l.Attempt("a@test.com")
	}
	assert.False(t, l.Allowed("a@test.com"))
	assert.True(t, l.Allowed("b@test.com"))
}

func TestLoginLimiterResetsAfterQuietWindow(t *testing.T) {
	clock := newTestClock()
	l := NewLoginLimiter(WithLoginClock(clock.Now))

	for i := 0; i < 5; i++ {
		l.Attempt("admin@test.com")
	}
	assert.False(t, l.Allowed("admin@test.com"))

	clock.Advance(LoginBlockDuration)
	assert.False(t, l.Allowed("admin@test.com"), "exactly the block duration is still blocked")

	clock.Advance(time.Second)
	assert.True(t, l.Attempt("admin@test.com"), "attempt after a quiet window should be allowed")
}

func TestLoginLimiterContinuousAttemptsStayBlocked(t *testing.T) {
	clock := newTestClock()
	l := NewLoginLimiter(WithLoginClock(clock.Now))

	for i := 0; i < 5; i++ {
		l.Attempt("admin@test.com")
	}
	for i := 0; i < 6; i++ {
		clock.Advance(10 * time.Minute)
		assert.False(t, l.Attempt("admin@test.com"), "attempt %d during sustained attack", i)
	}
}

func TestLoginLimiterClear(t *testing.T) {
	l := NewLoginLimiter(WithLoginClock(newTestClock().Now))
	for i := 0; i < 5; i++ {
		l.Attempt("admin@test.com")
	}
	assert.False(t, l.Allowed("admin@test.com"))

	l.Clear("admin@test.com")
	assert.True(t, l.Allowed("admin@test.com"))
	assert.True(t, l.Attempt("admin@test.com"))
}

func TestLoginLimiterRecordThenAllowed(t *testing.T) {
	l := NewLoginLimiter(WithLoginClock(newTestClock().Now))
	for i := 0; i < 4; i++ {
		l.RecordAttempt("admin@test.com")
	}
	assert.True(t, l.Allowed("admin@test.com"))
	l.RecordAttempt("admin@test.com")
	assert.False(t, l.Allowed("admin@test.com"))
}

func TestLoginLimiterCleanup(t *testing.T) {
	clock := newTestClock()
	l := NewLoginLimiter(WithLoginClock(clock.Now))

	l.Attempt("stale@test.com")
	clock.Advance(20 * time.Minute)
	l.Attempt("fresh@test.com")

	l.Cleanup()

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.NotContains(t, l.records, "stale@test.com")
	assert.Contains(t, l.records, "fresh@test.com")
}
