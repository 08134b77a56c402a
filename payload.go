package ping

import (
	"github.com/digineo/multiping/internal"
)

// DefaultPayloadSize matches the payload size of the ping utility.
const DefaultPayloadSize = 56

var (
	log = internal.Logger

	// SetLogger allows updating the Logger. For details, see
	// "github.com/digineo/go-logwrap".Instance.SetLogger.
	SetLogger = internal.SetLogger
)

// Payload represents additional data appended to outgoing ICMP Echo
// Requests.
type Payload = internal.Payload

// NewPayload returns a payload of the given size. The first 8 bytes
// carry the tracker, which identifies the requests of one caller.
func NewPayload(size int, tracker uint64) Payload {
	return internal.NewPayload(size, tracker)
}
