// File: protocol/mavlink/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package mavlink implements the subset of the MAVLink wire protocol used by
// the relay: an incremental, byte-at-a-time frame parser for MAVLink 1 and 2,
// the X.25 frame checksum with per-message CRC_EXTRA, a small dialect table
// and typed payloads for the handful of messages the relay understands.
//
// The parser never allocates per byte and never returns errors: malformed
// frames are counted and discarded, and the state machine goes back to idle.
package mavlink
