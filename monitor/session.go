package monitor

import (
	"math/rand/v2"
	"time"

	ping "github.com/digineo/multiping"
)

// ProbeSession is the per target probe state. It is owned by a single
// probe loop.
type ProbeSession struct {
	seq     uint64
	timeout time.Duration
	payload ping.Payload
}

// NewProbeSession creates a session starting at sequence number 0. The
// payload carries a random tracker, so two sessions never mistake each
// other's replies, even for the same address.
func NewProbeSession(timeout time.Duration, payloadSize int) *ProbeSession {
	return &ProbeSession{
		timeout: timeout,
		payload: ping.NewPayload(payloadSize, rand.Uint64()),
	}
}

// Seq returns the sequence number of the next probe.
func (s *ProbeSession) Seq() uint64 {
	return s.seq
}

// Advance returns the sequence number of the next probe and increments it.
func (s *ProbeSession) Advance() uint64 {
	seq := s.seq
	s.seq++
	return seq
}
