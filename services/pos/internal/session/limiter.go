package session

import (
	"context"
	"sync"
	"time"

	"github.com/appetiteclub/apt"
	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter throttles cart operations per customer session. Idle sessions are
// swept on a schedule.
type Limiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
	cron     *cron.Cron
	logger   apt.Logger
}

func NewLimiter(perMinute, burst int, idle time.Duration, logger apt.Logger) *Limiter {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	if perMinute <= 0 {
		perMinute = 30
	}
	if burst <= 0 {
		burst = 5
	}
	if idle <= 0 {
		idle = DefaultLeaseTTL
	}
	return &Limiter{
		visitors: make(map[string]*visitor),
		rate:     rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		idle:     idle,
		now:      time.Now,
		logger:   logger,
	}
}

// Allow reports whether the session may perform another cart operation now.
func (l *Limiter) Allow(sessionID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	v, ok := l.visitors[sessionID]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.rate, l.burst)}
		l.visitors[sessionID] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Sweep forgets sessions idle longer than the lease lifetime.
func (l *Limiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.idle)
	removed := 0
	for id, v := range l.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(l.visitors, id)
			removed++
		}
	}
	return removed
}

func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.visitors)
}

func (l *Limiter) Start(ctx context.Context) error {
	l.cron = cron.New()
	if _, err := l.cron.AddFunc("@every 5m", func() {
		if n := l.Sweep(); n > 0 {
			l.logger.Debug("session limiters swept", "removed", n)
		}
	}); err != nil {
		return err
	}
	l.cron.Start()
	return nil
}

func (l *Limiter) Stop(ctx context.Context) error {
	if l.cron == nil {
		return nil
	}
	select {
	case <-l.cron.Stop().Done():
	case <-ctx.Done():
	}
	return nil
}
