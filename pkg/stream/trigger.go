package stream

import (
	"context"
	"sync"
	"time"
)

// Trigger is a one-shot debounced task: the first Fire arms a single
// deferred call of fn after delay, later Fire calls are no-ops, and Cancel
// aborts the call if it has not started (or cancels its context if it has).
type Trigger struct {
	mu     sync.Mutex
	delay  time.Duration
	fn     func(ctx context.Context)
	fired  bool
	timer  *time.Timer
	ctx    context.Context
	cancel context.CancelFunc

	done     chan struct{}
	doneOnce sync.Once
}

// NewTrigger creates an unarmed trigger
func NewTrigger(delay time.Duration, fn func(ctx context.Context)) *Trigger {
	ctx, cancel := context.WithCancel(context.Background())
	return &Trigger{
		delay:  delay,
		fn:     fn,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Fire arms the task. It returns true only for the call that armed it.
func (t *Trigger) Fire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.fired || t.ctx.Err() != nil {
		return false
	}
	t.fired = true
	t.timer = time.AfterFunc(t.delay, t.run)
	return true
}

// Fired reports whether the latch is set
func (t *Trigger) Fired() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fired
}

// Cancel disarms the trigger. A task that already started sees its context
// canceled.
func (t *Trigger) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancel()
	if !t.fired {
		t.fired = true
		t.finish()
		return
	}
	if t.timer != nil && t.timer.Stop() {
		t.finish()
	}
}

// Done is closed once the task has returned or can no longer run
func (t *Trigger) Done() <-chan struct{} {
	return t.done
}

func (t *Trigger) run() {
	defer t.finish()
	if t.ctx.Err() != nil {
		return
	}
	t.fn(t.ctx)
}

func (t *Trigger) finish() {
	t.doneOnce.Do(func() { close(t.done) })
}
