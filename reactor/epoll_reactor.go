//go:build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor - Linux epoll implementation.

package reactor

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-mavrelay/api"
)

const maxEvents = 128

// fdEntry is the registered interest of one descriptor.
type fdEntry struct {
	mask  api.EventMask
	read  api.FDCallback
	write api.FDCallback
}

// epollReactor implements api.Reactor using level-triggered epoll. The
// interest table is only touched from the polling goroutine.
type epollReactor struct {
	epfd    int
	wakefd  int
	entries map[int]*fdEntry
	events  [maxEvents]unix.EpollEvent
	log     zerolog.Logger
}

// New creates the platform reactor.
func New(opts ...Option) (api.Reactor, error) {
	o := options{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll create: %w", err)
	}
	wakefd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(wakefd)}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakefd, &ev); err != nil {
		unix.Close(wakefd)
		unix.Close(epfd)
		return nil, fmt.Errorf("epoll ctl add wakefd: %w", err)
	}

	return &epollReactor{
		epfd:    epfd,
		wakefd:  wakefd,
		entries: make(map[int]*fdEntry),
		log:     o.log,
	}, nil
}

func epollMask(m api.EventMask) uint32 {
	var ev uint32
	if m&api.EventRead != 0 {
		ev |= unix.EPOLLIN
	}
	if m&api.EventWrite != 0 {
		ev |= unix.EPOLLOUT
	}
	return ev
}

// Register adds interest in events for fd.
func (r *epollReactor) Register(fd int, events api.EventMask, cb api.FDCallback) error {
	events &= api.EventRead | api.EventWrite
	if events == 0 || cb == nil {
		return api.ErrInvalidArgument
	}
	e, ok := r.entries[fd]
	op := unix.EPOLL_CTL_MOD
	if !ok {
		e = &fdEntry{}
		op = unix.EPOLL_CTL_ADD
	}
	mask := e.mask | events
	ev := unix.EpollEvent{Events: epollMask(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, op, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl fd=%d: %w", fd, err)
	}
	e.mask = mask
	if events&api.EventRead != 0 {
		e.read = cb
	}
	if events&api.EventWrite != 0 {
		e.write = cb
	}
	r.entries[fd] = e
	return nil
}

// Unregister drops interest in events for fd.
func (r *epollReactor) Unregister(fd int, events api.EventMask) error {
	e, ok := r.entries[fd]
	if !ok {
		return nil
	}
	mask := e.mask &^ events
	if mask == 0 {
		delete(r.entries, fd)
		if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
			return fmt.Errorf("epoll ctl del fd=%d: %w", fd, err)
		}
		return nil
	}
	ev := unix.EpollEvent{Events: epollMask(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("epoll ctl mod fd=%d: %w", fd, err)
	}
	e.mask = mask
	if events&api.EventRead != 0 {
		e.read = nil
	}
	if events&api.EventWrite != 0 {
		e.write = nil
	}
	return nil
}

// Interest reports the registered events of fd.
func (r *epollReactor) Interest(fd int) api.EventMask {
	if e, ok := r.entries[fd]; ok {
		return e.mask
	}
	return 0
}

// Poll waits for events and dispatches callbacks.
// timeoutMs < 0 means block infinitely.
func (r *epollReactor) Poll(timeoutMs int) (int, error) {
	n, err := unix.EpollWait(r.epfd, r.events[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil // interrupted by signal - normal
		}
		return 0, fmt.Errorf("epoll wait: %w", err)
	}

	handled := 0
	for i := 0; i < n; i++ {
		ev := r.events[i]
		fd := int(ev.Fd)
		if fd == r.wakefd {
			r.drainWake()
			continue
		}

		var fired api.EventMask
		if ev.Events&unix.EPOLLIN != 0 {
			fired |= api.EventRead
		}
		if ev.Events&unix.EPOLLOUT != 0 {
			fired |= api.EventWrite
		}
		if ev.Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			fired |= api.EventError
		}

		// A callback may unregister fd or the other direction, so the table
		// is consulted again before each dispatch.
		if e, ok := r.entries[fd]; ok && e.read != nil && fired&(api.EventRead|api.EventError) != 0 {
			r.dispatch(e.read, fd, fired)
			handled++
		}
		if e, ok := r.entries[fd]; ok && e.write != nil && fired&(api.EventWrite|api.EventError) != 0 {
			if fired&api.EventError == 0 || e.mask&api.EventRead == 0 {
				r.dispatch(e.write, fd, fired)
				handled++
			}
		}
	}
	return handled, nil
}

func (r *epollReactor) dispatch(cb api.FDCallback, fd int, fired api.EventMask) {
	// Keep the reactor alive if a callback panics.
	defer func() {
		if p := recover(); p != nil {
			r.log.Error().Int("fd", fd).Interface("panic", p).Msg("reactor callback panicked")
		}
	}()
	cb(fd, fired)
}

func (r *epollReactor) drainWake() {
	var buf [8]byte
	for {
		if _, err := unix.Read(r.wakefd, buf[:]); err != nil {
			return
		}
	}
}

// Wake interrupts a blocked Poll.
func (r *epollReactor) Wake() error {
	one := [8]byte{1}
	_, err := unix.Write(r.wakefd, one[:])
	if err == unix.EAGAIN {
		return nil // counter saturated, a wakeup is already pending
	}
	return err
}

// Close releases the epoll and eventfd descriptors.
func (r *epollReactor) Close() error {
	r.entries = nil
	err1 := unix.Close(r.wakefd)
	err2 := unix.Close(r.epfd)
	if err1 != nil {
		return err1
	}
	return err2
}
