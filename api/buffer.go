// Package api
// Author: momentics
//
// Owned byte buffers and the pools that hand them out.
//
// A Buffer has exactly one owner at any instant. Ownership moves with
// Transfer, after which the previous handle is dead. The last owner calls
// Release exactly once.

package api

// Buffer is a pooled byte region with single, transferable ownership.
type Buffer interface {
	// Bytes returns the valid bytes [0:Len). Dead handles return nil.
	Bytes() []byte

	// Cap returns the size the buffer was acquired with.
	Cap() int

	// Len returns the number of valid bytes.
	Len() int

	// Truncate sets the number of valid bytes; n must be within [0, Cap].
	Truncate(n int)

	// Transfer moves ownership into a new handle and kills this one.
	Transfer() Buffer

	// Release returns the region to its pool. After Release, buffer must not be used.
	Release()
}

// BufferPool hands out zeroed, owned buffers.
type BufferPool interface {
	// Acquire returns a zeroed buffer with Len == size.
	Acquire(size int) Buffer

	// Stats exposes resource/accounting metrics for observability.
	Stats() BufferPoolStats
}

// BufferPoolStats aggregates buffer allocation/reuse stats.
type BufferPoolStats struct {
	TotalAlloc int64 // successful Acquire calls
	TotalFree  int64 // successful Release calls
	InUse      int64
	Misuse     int64 // Release or Transfer on a dead handle
}
