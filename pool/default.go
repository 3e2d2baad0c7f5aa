// File: pool/default.go
// Author: momentics <momentics@gmail.com>

package pool

import "sync"

var (
	defaultOnce sync.Once
	defaultPool *BufferPool
)

// Default returns the process-wide pool so components share size classes
// instead of fragmenting allocations.
func Default() *BufferPool {
	defaultOnce.Do(func() {
		defaultPool = NewBufferPool()
	})
	return defaultPool
}
