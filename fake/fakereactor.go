// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT

package fake

import (
	"sync"

	"github.com/momentics/hioload-mavrelay/api"
)

type reactorEntry struct {
	mask  api.EventMask
	read  api.FDCallback
	write api.FDCallback
}

// Reactor is a manual api.Reactor: nothing fires until the test calls Fire.
type Reactor struct {
	mu       sync.Mutex
	entries  map[int]*reactorEntry
	wakes    int
	polls    []int
	closed   bool
	regError error
	pollErr  error
}

// NewReactor creates an empty fake reactor.
func NewReactor() *Reactor {
	return &Reactor{entries: make(map[int]*reactorEntry)}
}

// SetRegisterError makes every later Register fail with err.
func (r *Reactor) SetRegisterError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.regError = err
}

// SetPollError makes every later Poll fail with err.
func (r *Reactor) SetPollError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pollErr = err
}

// Register implements api.Reactor.Register.
func (r *Reactor) Register(fd int, events api.EventMask, cb api.FDCallback) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.regError != nil {
		return r.regError
	}
	events &= api.EventRead | api.EventWrite
	if events == 0 || cb == nil {
		return api.ErrInvalidArgument
	}
	e, ok := r.entries[fd]
	if !ok {
		e = &reactorEntry{}
		r.entries[fd] = e
	}
	e.mask |= events
	if events&api.EventRead != 0 {
		e.read = cb
	}
	if events&api.EventWrite != 0 {
		e.write = cb
	}
	return nil
}

// Unregister implements api.Reactor.Unregister.
func (r *Reactor) Unregister(fd int, events api.EventMask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[fd]
	if !ok {
		return nil
	}
	e.mask &^= events
	if events&api.EventRead != 0 {
		e.read = nil
	}
	if events&api.EventWrite != 0 {
		e.write = nil
	}
	if e.mask == 0 {
		delete(r.entries, fd)
	}
	return nil
}

// Interest implements api.Reactor.Interest.
func (r *Reactor) Interest(fd int) api.EventMask {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[fd]; ok {
		return e.mask
	}
	return 0
}

// Registered returns the number of watched descriptors.
func (r *Reactor) Registered() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Fire invokes the callbacks fd is registered for among events, read first,
// and reports how many ran.
func (r *Reactor) Fire(fd int, events api.EventMask) int {
	ran := 0
	if cb := r.callback(fd, api.EventRead, events); cb != nil {
		cb(fd, events)
		ran++
	}
	if cb := r.callback(fd, api.EventWrite, events); cb != nil {
		cb(fd, events)
		ran++
	}
	return ran
}

func (r *Reactor) callback(fd int, dir, events api.EventMask) api.FDCallback {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[fd]
	if !ok || events&dir == 0 || e.mask&dir == 0 {
		return nil
	}
	if dir == api.EventRead {
		return e.read
	}
	return e.write
}

// Poll fires every registered interest once, like a level-triggered poller
// that found all descriptors ready.
func (r *Reactor) Poll(timeoutMs int) (int, error) {
	r.mu.Lock()
	r.polls = append(r.polls, timeoutMs)
	if r.pollErr != nil {
		err := r.pollErr
		r.mu.Unlock()
		return 0, err
	}
	fds := make([]int, 0, len(r.entries))
	masks := make([]api.EventMask, 0, len(r.entries))
	for fd, e := range r.entries {
		fds = append(fds, fd)
		masks = append(masks, e.mask)
	}
	r.mu.Unlock()

	handled := 0
	for i, fd := range fds {
		handled += r.Fire(fd, masks[i])
	}
	return handled, nil
}

// PollTimeouts returns the timeout of every Poll call so far.
func (r *Reactor) PollTimeouts() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.polls...)
}

// Wake implements api.Reactor.Wake.
func (r *Reactor) Wake() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wakes++
	return nil
}

// Wakes returns how many times Wake was called.
func (r *Reactor) Wakes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wakes
}

// Close implements api.Reactor.Close.
func (r *Reactor) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.entries = make(map[int]*reactorEntry)
	return nil
}

var _ api.Reactor = (*Reactor)(nil)
