// File: reactor/loop.go
// Author: momentics <momentics@gmail.com>
//
// Single-goroutine event loop: polls the reactor and runs periodic tick hooks.

package reactor

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/momentics/hioload-mavrelay/affinity"
	"github.com/momentics/hioload-mavrelay/api"
)

// DefaultTick bounds how long Poll blocks so tick hooks run on time.
const DefaultTick = 250 * time.Millisecond

// MinTick is the shortest tick a Loop runs with. Poll takes whole
// milliseconds and a zero timeout never blocks.
const MinTick = time.Millisecond

// Loop drives an api.Reactor. Run must be called from a single goroutine;
// callbacks and tick hooks all execute on it.
type Loop struct {
	r       api.Reactor
	tick    time.Duration
	hooks   []func(now time.Time)
	stopped atomic.Bool
	now     func() time.Time
	cpu     int
}

// NewLoop wraps r. A non-positive tick selects DefaultTick; a positive tick
// below MinTick is raised to it.
func NewLoop(r api.Reactor, tick time.Duration) *Loop {
	switch {
	case tick <= 0:
		tick = DefaultTick
	case tick < MinTick:
		tick = MinTick
	}
	return &Loop{r: r, tick: tick, now: time.Now, cpu: -1}
}

// Tick returns the effective tick.
func (l *Loop) Tick() time.Duration { return l.tick }

// Reactor returns the underlying reactor.
func (l *Loop) Reactor() api.Reactor { return l.r }

// OnTick registers a hook run at most once per tick on the loop goroutine.
func (l *Loop) OnTick(fn func(now time.Time)) {
	l.hooks = append(l.hooks, fn)
}

// PinCPU makes Run pin its OS thread to cpu. Negative values disable pinning.
func (l *Loop) PinCPU(cpu int) { l.cpu = cpu }

// Stop makes Run return after the current iteration. Safe from any goroutine.
func (l *Loop) Stop() {
	if l.stopped.CompareAndSwap(false, true) {
		_ = l.r.Wake()
	}
}

// Stopped reports whether Stop was called.
func (l *Loop) Stopped() bool { return l.stopped.Load() }

// Run polls until ctx is cancelled or Stop is called. It returns nil on a
// normal exit and an internal error wrapping the poll failure otherwise.
func (l *Loop) Run(ctx context.Context) error {
	if l.cpu >= 0 {
		// Never unlocked: the pinned thread is retired with this goroutine.
		runtime.LockOSThread()
		if err := affinity.SetAffinity(l.cpu); err != nil {
			return api.Wrap(api.ErrCodeSetup, "pin event loop", err).WithContext("cpu", l.cpu)
		}
	}
	cancelWake := context.AfterFunc(ctx, func() { _ = l.r.Wake() })
	defer cancelWake()

	timeout := int(l.tick / time.Millisecond)
	next := l.now().Add(l.tick)
	for !l.stopped.Load() && ctx.Err() == nil {
		if _, err := l.r.Poll(timeout); err != nil {
			return api.Wrap(api.ErrCodeInternal, "poll", err)
		}
		if now := l.now(); !now.Before(next) {
			for _, fn := range l.hooks {
				fn(now)
			}
			next = now.Add(l.tick)
		}
	}
	return nil
}
