package ping

import (
	"net/netip"
	"time"
)

// requestKey identifies in-flight requests. Requests with the same key
// are told apart by the tracker in their payload.
type requestKey struct {
	addr netip.Addr
	seq  uint16
}

// A request is a currently running ICMP echo request waiting for an answer.
type request struct {
	tracker    uint64
	hasTracker bool
	tStart     time.Time

	wait   chan struct{}
	reply  *Reply
	result error
}

// respond is responsible for finishing this request. It takes either the
// reply or an error as failure reason.
func (req *request) respond(reply *Reply, err error) {
	req.reply = reply
	req.result = err
	close(req.wait)
}

// matches reports whether a packet with the given tracker belongs to req.
// Packets without tracker (ICMP errors quoting only the echo header)
// match any request with the same key.
func (req *request) matches(tracker uint64, hasTracker bool) bool {
	return !hasTracker || !req.hasTracker || req.tracker == tracker
}

// Reply describes a received echo reply.
type Reply struct {
	Proto int           // ProtocolICMP or ProtocolICMPv6
	From  netip.Addr    // source of the reply
	Size  int           // length of the ICMP message in bytes
	Seq   uint16        // echoed sequence number
	TTL   uint8         // TTL or hop limit, 255 when unknown
	RTT   time.Duration // round trip time
}
