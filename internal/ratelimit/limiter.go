// Package ratelimit implements the login attempt limiter and the per-route
// API limiter with abuse banning.
package ratelimit

import (
	"context"
	"time"
)

const (
	AbuseThreshold = 100
	BanDuration    = time.Hour
)

// Decision is the outcome of a single API limiter check.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
	Banned    bool
}

// Limiter checks and counts one request from ip against the rule for route.
// A banned ip short-circuits without touching the per-route counter.
type Limiter interface {
	Check(ctx context.Context, ip, route string) (Decision, error)
}

func rateKey(ip, route string) string {
	return ip + ":" + route
}
