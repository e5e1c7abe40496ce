// Package ratelimit implements the fixed-window limiter shared by the
// auth-sensitive routes on Identity and the money-mutation routes on
// Accounts (§4.9). Both services mount a Limiter against the same
// client-key extraction in pkg/nethttp. InProcess is the default backing
// store; RedisLimiter is the documented drop-in for multi-replica
// deployments (§9 Open Question 5), sharing counters across replicas
// through pkg/mredis's client.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter reports whether key may proceed under the current window.
// InProcess and RedisLimiter are the two backing stores; callers depend on
// this interface, never on either concrete type, so the backing store is a
// deployment choice rather than a compile-time one.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// InProcess is an in-memory fixed-window counter, keyed per client per
// window. It is process-local: a multi-replica deployment undercounts
// because each replica keeps its own windows.
type InProcess struct {
	Max    int
	Window time.Duration

	mu     sync.Mutex
	counts map[string]*window
}

type window struct {
	start time.Time
	count int
}

func New(max int, windowLen time.Duration) *InProcess {
	return &InProcess{Max: max, Window: windowLen, counts: map[string]*window{}}
}

// Allow advances or resets key's window as needed. ctx is accepted to
// satisfy Limiter; the in-process store never blocks on it.
func (l *InProcess) Allow(_ context.Context, key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()

	w, ok := l.counts[key]
	if !ok || now.Sub(w.start) >= l.Window {
		l.counts[key] = &window{start: now, count: 1}
		return true
	}

	if w.count >= l.Max {
		return false
	}

	w.count++

	return true
}
