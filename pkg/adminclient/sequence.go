package adminclient

import "sync/atomic"

// Sequencer guards against out-of-order responses. A caller takes a token
// with Next before issuing a request and checks Latest before applying the
// result, a response whose token has been superseded is dropped.
//
// Safe for concurrent use.
type Sequencer struct {
	issued atomic.Uint64
}

// Next issues a new token, superseding every earlier one.
func (s *Sequencer) Next() uint64 {
	return s.issued.Add(1)
}

// Latest reports whether token is still the most recently issued one.
func (s *Sequencer) Latest(token uint64) bool {
	return s.issued.Load() == token
}
