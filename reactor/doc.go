// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness-driven event reactor (epoll on
// Linux) and the single-goroutine loop that drives it.
package reactor
