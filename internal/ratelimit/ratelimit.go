// Package ratelimit spaces outbound requests so repeated page fetches stay
// under retailer anti-bot thresholds.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

type Limiter interface {
	Wait(ctx context.Context) error
}

// SimpleLimiter enforces a jittered minimum gap between actions. Safe for
// concurrent use.
type SimpleLimiter struct {
	minDelay   time.Duration
	maxDelay   time.Duration
	lastAction time.Time
	mu         sync.Mutex
}

// New builds a limiter that waits between minDelay and maxDelay from the
// previous action. Equal bounds disable the jitter.
func New(minDelay, maxDelay time.Duration) *SimpleLimiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &SimpleLimiter{
		minDelay: minDelay,
		maxDelay: maxDelay,
	}
}

func (l *SimpleLimiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	elapsed := time.Since(l.lastAction)
	delay := l.delay()

	if elapsed < delay {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay - elapsed):
		}
	}

	l.lastAction = time.Now()
	return nil
}

func (l *SimpleLimiter) delay() time.Duration {
	if l.minDelay >= l.maxDelay {
		return l.minDelay
	}
	jitter := time.Duration(rand.Int63n(int64(l.maxDelay - l.minDelay)))
	return l.minDelay + jitter
}
