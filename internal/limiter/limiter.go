// Package limiter throttles sign-in attempts per (email, client IP) and
// requests per client.
package limiter

import (
	"context"
	"crypto/sha256"
	"strings"
	"time"
)

// Limiter controls sign-in attempts and temporary lockouts.
type Limiter interface {
	// Allow reports whether a sign-in may proceed and, if not, for how long it stays blocked.
	Allow(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
	// Success forgets earlier failures.
	Success(ctx context.Context, email string, ipHash []byte) error
	// Failure records a failed attempt and reports whether it started a lockout.
	Failure(ctx context.Context, email string, ipHash []byte) (bool, time.Duration, error)
}

// Purger drops bookkeeping that has been idle for longer than idle.
type Purger interface {
	Purge(ctx context.Context, idle time.Duration) (int64, error)
}

// Rules are the lockout settings shared by every Limiter.
// Failures older than Window no longer count; MaxFails failures inside it
// block the pair for BlockFor.
type Rules struct {
	Window   time.Duration
	MaxFails int
	BlockFor time.Duration
}

func (r Rules) blocks(fails int) bool { return r.MaxFails > 0 && fails >= r.MaxFails }

// NormalizeEmail lowercases and trims an email so lockouts cannot be dodged by case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashIP returns a stable hash of a client address so raw addresses are never stored.
func HashIP(ip string) []byte {
	h := sha256.Sum256([]byte(ip))
	return h[:]
}
