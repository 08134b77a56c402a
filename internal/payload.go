package internal

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/digineo/go-logwrap"
)

var (
	Logger = &logwrap.Instance{}

	// SetLogger allows updating the Logger. For details, see
	// "github.com/digineo/go-logwrap".Instance.SetLogger.
	SetLogger = Logger.SetLogger
)

// trackerLen is the number of leading payload bytes carrying the tracker.
const trackerLen = 8

// Payload represents additional data appended to outgoing ICMP Echo
// Requests. The first 8 bytes carry a tracker which tells apart requests
// to the same address with the same sequence number.
type Payload []byte

// NewPayload returns a payload of the given size stamped with tracker. The
// remaining bytes are random. Payloads shorter than 8 bytes carry no
// tracker.
func NewPayload(size int, tracker uint64) Payload {
	var p Payload
	p.Resize(size)
	if len(p) >= trackerLen {
		binary.BigEndian.PutUint64(p, tracker)
	}
	return p
}

// Resize will assign a new payload of the given size to p.
func (p *Payload) Resize(size int) {
	if size < 0 {
		size = 0
	}
	buf := make([]byte, size)
	if _, err := rand.Read(buf); err != nil {
		Logger.Errorf("error resizing payload: %v", err)
		return
	}
	*p = Payload(buf)
}

// Tracker returns the tracker stamped into p, if any.
func (p Payload) Tracker() (uint64, bool) {
	if len(p) < trackerLen {
		return 0, false
	}
	return binary.BigEndian.Uint64(p), true
}
