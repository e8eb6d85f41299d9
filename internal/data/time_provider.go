package data

import (
	"sync"
	"time"
)

// TimeProvider supplies the timestamps repositories write themselves (review and resolution times).
type TimeProvider interface {
	Now() time.Time
}

// RealTimeProvider implements TimeProvider using real system time.
type RealTimeProvider struct{}

func (RealTimeProvider) Now() time.Time { return time.Now().UTC() }

// FixedTimeProvider returns a settable instant. Safe for concurrent use.
type FixedTimeProvider struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedTimeProvider creates a new FixedTimeProvider with the given time.
func NewFixedTimeProvider(t time.Time) *FixedTimeProvider {
	return &FixedTimeProvider{t: t}
}

func (f *FixedTimeProvider) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

// Advance moves the fixed time forward by d.
func (f *FixedTimeProvider) Advance(d time.Duration) {
	f.mu.Lock()
	f.t = f.t.Add(d)
	f.mu.Unlock()
}

func timeOr(tp TimeProvider, t time.Time) time.Time {
	if !t.IsZero() {
		return t.UTC()
	}
	if tp == nil {
		return time.Now().UTC()
	}
	return tp.Now()
}
