// File: pool/bufferpool.go
// Author: momentics <momentics@gmail.com>
//
// Size-classed buffer pool backed by sync.Pool.

package pool

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/momentics/hioload-mavrelay/api"
)

const (
	minClassShift = 6  // 64 B
	maxClassShift = 16 // 64 KiB
	numClasses    = maxClassShift - minClassShift + 1
)

// region is the pooled storage behind an owned Buffer.
type region struct {
	data  []byte
	class int // -1 for oversize regions that bypass the pool
}

// BufferPool is a size-classed pool of owned buffers. Acquire and Release are
// safe for concurrent use; an individual Buffer is not.
type BufferPool struct {
	classes [numClasses]sync.Pool

	totalAlloc atomic.Int64
	totalFree  atomic.Int64
	misuse     atomic.Int64
}

// NewBufferPool creates an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

func classFor(size int) int {
	if size <= 1<<minClassShift {
		return 0
	}
	shift := bits.Len(uint(size - 1))
	if shift > maxClassShift {
		return -1
	}
	return shift - minClassShift
}

// Acquire returns a zeroed buffer of length size.
func (p *BufferPool) Acquire(size int) api.Buffer {
	if size < 0 {
		size = 0
	}
	class := classFor(size)
	var r *region
	if class >= 0 {
		if v := p.classes[class].Get(); v != nil {
			r = v.(*region)
		} else {
			r = &region{data: make([]byte, 1<<(class+minClassShift)), class: class}
		}
	} else {
		r = &region{data: make([]byte, size), class: -1}
	}
	clear(r.data[:size])
	p.totalAlloc.Add(1)
	return &Buffer{pool: p, region: r, n: size, size: size}
}

func (p *BufferPool) put(r *region) {
	p.totalFree.Add(1)
	if r.class >= 0 {
		p.classes[r.class].Put(r)
	}
}

// Stats returns allocation counters.
func (p *BufferPool) Stats() api.BufferPoolStats {
	alloc := p.totalAlloc.Load()
	free := p.totalFree.Load()
	return api.BufferPoolStats{
		TotalAlloc: alloc,
		TotalFree:  free,
		InUse:      alloc - free,
		Misuse:     p.misuse.Load(),
	}
}

var _ api.BufferPool = (*BufferPool)(nil)
