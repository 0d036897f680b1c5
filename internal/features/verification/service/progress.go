package service

import (
	"context"
	"sync"
	"time"
)

// ProgressTracker reports a client-visible percentage for the long-running
// aggregate verification. The percentage only ever increases, approaches
// but never reaches 100 while the check is in flight, and snaps to 100 or
// 0 exactly when the check resolves.
type ProgressTracker struct {
	mu      sync.Mutex
	percent int
	done    bool
}

func NewProgressTracker() *ProgressTracker {
	return &ProgressTracker{}
}

// Percent returns the current percentage.
func (t *ProgressTracker) Percent() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.percent
}

// Tick advances the percentage toward (but never onto) 100.
func (t *ProgressTracker) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return
	}
	step := (99 - t.percent) / 10
	if step < 1 {
		step = 1
	}
	if t.percent+step > 99 {
		t.percent = 99
		return
	}
	t.percent += step
}

// Finish snaps the percentage to the real outcome: 100 on success, 0 on
// failure. Further ticks are no-ops.
func (t *ProgressTracker) Finish(success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.done = true
	if success {
		t.percent = 100
	} else {
		t.percent = 0
	}
}

// Run ticks on interval until the tracker finishes or ctx is cancelled.
func (t *ProgressTracker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.Lock()
			done := t.done
			t.mu.Unlock()
			if done {
				return
			}
			t.Tick()
		}
	}
}
