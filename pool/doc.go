// Package pool
// Author: momentics <momentics@gmail.com>
//
// Buffer lifecycle management for the relay: size-classed, zeroed, owned
// buffers that cross the boundary between the code producing bytes and the
// event-loop callback consuming them. Every acquire is matched by exactly one
// release; misuse of dead handles is counted instead of corrupting memory.
package pool
