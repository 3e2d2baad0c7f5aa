// File: pool/buffer.go
// Author: momentics <momentics@gmail.com>
//
// Owned buffer handle.

package pool

import "github.com/momentics/hioload-mavrelay/api"

// Buffer is a handle on a pooled region. A nil region marks a dead handle:
// either released or moved away by Transfer.
type Buffer struct {
	pool   *BufferPool
	region *region
	n      int
	size   int // length requested from Acquire; the upper bound for Truncate
}

// Bytes returns the valid bytes, or nil for a dead handle.
func (b *Buffer) Bytes() []byte {
	if b.region == nil {
		return nil
	}
	return b.region.data[:b.n]
}

// Cap returns the acquired size. Bytes of the region beyond it are never
// exposed, since Acquire only zeroes what was asked for.
func (b *Buffer) Cap() int {
	if b.region == nil {
		return 0
	}
	return b.size
}

func (b *Buffer) Len() int {
	if b.region == nil {
		return 0
	}
	return b.n
}

// Truncate sets the valid length.
func (b *Buffer) Truncate(n int) {
	if b.region == nil {
		return
	}
	if n < 0 || n > b.size {
		panic("pool: truncate out of range")
	}
	b.n = n
}

// Transfer hands the region to a new handle. The receiver becomes dead.
func (b *Buffer) Transfer() api.Buffer {
	if b.region == nil {
		b.pool.misuse.Add(1)
		return &Buffer{pool: b.pool}
	}
	nb := &Buffer{pool: b.pool, region: b.region, n: b.n, size: b.size}
	b.region = nil
	b.n = 0
	b.size = 0
	return nb
}

// Release returns the region to the pool. A second Release on the same handle
// is counted as misuse and otherwise ignored.
func (b *Buffer) Release() {
	if b.region == nil {
		b.pool.misuse.Add(1)
		return
	}
	r := b.region
	b.region = nil
	b.n = 0
	b.size = 0
	b.pool.put(r)
}

var _ api.Buffer = (*Buffer)(nil)
