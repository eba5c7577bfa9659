package dataset

import (
	"sync"
	"time"
)

// ConfirmTracker implements two-step destructive actions: the first request
// for a key arms it, the second within the window confirms it. Expired arms
// behave like first requests.
type ConfirmTracker struct {
	mu      sync.Mutex
	pending map[string]time.Time
	window  time.Duration
	now     func() time.Time
}

func NewConfirmTracker(window time.Duration) *ConfirmTracker {
	return &ConfirmTracker{
		pending: make(map[string]time.Time),
		window:  window,
		now:     time.Now,
	}
}

// Confirm reports whether the key was already armed and still inside the
// window. When it returns false the key has been (re)armed and the caller
// should ask again.
func (t *ConfirmTracker) Confirm(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	armedAt, ok := t.pending[key]
	if ok && now.Sub(armedAt) <= t.window {
		delete(t.pending, key)
		return true
	}
	t.pending[key] = now
	return false
}

// Disarm drops a pending confirmation, if any.
func (t *ConfirmTracker) Disarm(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, key)
}
