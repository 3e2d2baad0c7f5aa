//go:build linux

// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

package unixsock

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"

	"github.com/momentics/hioload-mavrelay/api"
)

// DefaultBacklog is the listen backlog.
const DefaultBacklog = 5

func setupErr(op, path string, err error) error {
	return api.Wrap(api.ErrCodeSetup, "unixsock: "+op, err).WithContext("path", path)
}

// Listen binds a non-blocking listening socket at path. A stale socket file
// left behind by a previous run is removed first.
func Listen(path string, backlog int) (int, error) {
	if backlog <= 0 {
		backlog = DefaultBacklog
	}
	if fi, err := os.Lstat(path); err == nil && fi.Mode()&os.ModeSocket != 0 {
		_ = unix.Unlink(path)
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, setupErr("socket", path, err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, setupErr("bind", path, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return -1, setupErr("listen", path, err)
	}
	return fd, nil
}

// Accept takes one pending connection from a listening socket. The new
// descriptor is non-blocking. It returns api.ErrWouldBlock when the backlog
// is empty.
func Accept(lfd int) (*Conn, error) {
	for {
		nfd, _, err := unix.Accept4(lfd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		switch {
		case err == nil:
			return NewConn(nfd), nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			return nil, api.ErrWouldBlock
		default:
			return nil, err
		}
	}
}

// Dial starts a non-blocking connect to path. Unix-domain connects normally
// complete immediately; EINPROGRESS is accepted and resolves on the first
// writable event.
func Dial(path string) (*Conn, error) {
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, setupErr("socket", path, err)
	}
	err = unix.Connect(fd, &unix.SockaddrUnix{Name: path})
	if err != nil && !errors.Is(err, unix.EINPROGRESS) {
		unix.Close(fd)
		return nil, setupErr("connect", path, err)
	}
	return NewConn(fd), nil
}

// Remove unlinks the socket path.
func Remove(path string) error {
	err := unix.Unlink(path)
	if errors.Is(err, unix.ENOENT) {
		return nil
	}
	return err
}

// Pair returns two connected non-blocking conns.
func Pair() (*Conn, *Conn, error) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, nil, err
	}
	return NewConn(fds[0]), NewConn(fds[1]), nil
}

// CloseFD closes a listening descriptor returned by Listen.
func CloseFD(fd int) error {
	return unix.Close(fd)
}
