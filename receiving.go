package ping

import (
	"math"

	"github.com/digineo/multiping/internal"
)

// process will finish a currently running Echo Request, if the packet
// refers to a request from us.
func (pinger *Pinger) process(pkt *internal.Packet) {
	key := requestKey{
		addr: pkt.Dst.WithZone(""),
		seq:  uint16(pkt.Echo.Seq),
	}
	tracker, hasTracker := internal.Payload(pkt.Echo.Data).Tracker()

	// search for existing running echo request
	var req *request
	pinger.mtx.Lock()
	for i, r := range pinger.requests[key] {
		if r.matches(tracker, hasTracker) {
			req = r
			pinger.remove(key, i)
			break
		}
	}
	pinger.mtx.Unlock()

	if req == nil {
		// late reply (the request timed out already), or a duplicate
		pinger.unmatched.Add(1)
		return
	}

	if pkt.Failure != nil {
		req.respond(nil, &ICMPError{Type: pkt.Failure, From: pkt.From})
		return
	}

	ttl := uint8(math.MaxUint8)
	if pkt.TTL >= 0 && pkt.TTL <= math.MaxUint8 {
		ttl = uint8(pkt.TTL)
	}

	req.respond(&Reply{
		Proto: pkt.Proto,
		From:  pkt.From,
		Size:  pkt.Len,
		Seq:   uint16(pkt.Echo.Seq),
		TTL:   ttl,
		RTT:   pkt.Recv.Sub(req.tStart),
	}, nil)
}
