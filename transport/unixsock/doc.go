// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package unixsock provides non-blocking unix-domain stream socket helpers:
// listen, accept, connect and an api.NetConn over a raw descriptor.
// Setup failures are reported as api.Error with ErrCodeSetup.
package unixsock
