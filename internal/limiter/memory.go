package limiter

import (
	"context"
	"encoding/hex"
	"sync"
	"time"
)

// Memory is a process-local Limiter following the same Rules as PG.
type Memory struct {
	mu      sync.Mutex
	rules   Rules
	now     func() time.Time
	entries map[string]*attempts
}

var (
	_ Limiter = (*Memory)(nil)
	_ Purger  = (*Memory)(nil)
)

type attempts struct {
	fails        int
	blockedUntil time.Time
	updatedAt    time.Time
}

// NewMemory constructs a process-local limiter.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		rules:   Rules{Window: window, MaxFails: maxFails, BlockFor: blockFor},
		now:     time.Now,
		entries: map[string]*attempts{},
	}
}

func memKey(email string, ipHash []byte) string { return email + "|" + hex.EncodeToString(ipHash) }

func (l *Memory) Allow(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[memKey(email, ipHash)]
	if !ok {
		return true, 0, nil
	}
	now := l.now()
	if e.blockedUntil.After(now) {
		return false, e.blockedUntil.Sub(now), nil
	}
	return true, 0, nil
}

func (l *Memory) Success(_ context.Context, email string, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, memKey(email, ipHash))
	return nil
}

func (l *Memory) Failure(_ context.Context, email string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	k := memKey(email, ipHash)
	e, ok := l.entries[k]
	if !ok || now.Sub(e.updatedAt) > l.rules.Window {
		e = &attempts{}
		l.entries[k] = e
	}
	e.fails++
	e.updatedAt = now
	if l.rules.blocks(e.fails) {
		e.blockedUntil = now.Add(l.rules.BlockFor)
		return true, l.rules.BlockFor, nil
	}
	return false, 0, nil
}

func (l *Memory) Purge(_ context.Context, idle time.Duration) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	var n int64
	for k, e := range l.entries {
		if !e.blockedUntil.After(now) && now.Sub(e.updatedAt) > idle {
			delete(l.entries, k)
			n++
		}
	}
	return n, nil
}
