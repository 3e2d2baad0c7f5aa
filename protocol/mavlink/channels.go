// File: protocol/mavlink/channels.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Channel-keyed parser state, one independent Parser per logical channel.

package mavlink

// ChannelSet maps channel identifiers to parser state. Parsers are created
// lazily on first use. Not safe for concurrent use; the relay touches it only
// from the event loop goroutine.
type ChannelSet struct {
	parsers  map[int]*Parser
	observer Observer
}

// NewChannelSet creates an empty set whose parsers report to obs (may be nil).
func NewChannelSet(obs Observer) *ChannelSet {
	return &ChannelSet{
		parsers:  make(map[int]*Parser),
		observer: obs,
	}
}

// Get returns the parser for ch, creating it if needed.
func (s *ChannelSet) Get(ch int) *Parser {
	p, ok := s.parsers[ch]
	if !ok {
		p = NewParser(s.observer)
		s.parsers[ch] = p
	}
	return p
}

// Feed pushes one byte into the parser of ch.
func (s *ChannelSet) Feed(ch int, b byte) (*Frame, bool) {
	return s.Get(ch).Feed(b)
}

// Remove forgets the state of ch.
func (s *ChannelSet) Remove(ch int) {
	delete(s.parsers, ch)
}

// Len returns the number of live channels.
func (s *ChannelSet) Len() int { return len(s.parsers) }
