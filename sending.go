package ping

import (
	"context"
	"math/rand/v2"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

// PingAttempts sends ICMP echo requests, retrying upto attempts times.
// Will finish early on success and return the round trip time.
func (pinger *Pinger) PingAttempts(ctx context.Context, remote netip.Addr, timeout time.Duration, attempts int) (rtt time.Duration, err error) {
	if attempts < 1 {
		attempts = 1
	}
	payload := NewPayload(DefaultPayloadSize, rand.Uint64())

	// multiple attempts
	for i := 0; i < attempts; i++ {
		seq := uint16(atomic.AddUint32(&sequence, 1))

		var reply *Reply
		if reply, err = pinger.Echo(ctx, remote, seq, payload, timeout); err == nil {
			return reply.RTT, nil // success
		}
		if errors.Is(err, ErrClosed) || ctx.Err() != nil {
			break
		}
	}
	return
}

// Echo sends a single Echo Request with the given sequence number and
// waits for an answer, the timeout or the end of ctx, whichever comes
// first.
//
// A failure reported by the network (i.e. destination unreachable) is
// returned as *ICMPError, an expired timeout as net.Error with
// Timeout() == true.
func (pinger *Pinger) Echo(ctx context.Context, remote netip.Addr, seq uint16, payload Payload, timeout time.Duration) (*Reply, error) {
	if !remote.IsValid() {
		return nil, ErrInvalidAddr
	}
	remote = remote.Unmap()

	req := &request{
		wait: make(chan struct{}),
	}
	req.tracker, req.hasTracker = payload.Tracker()
	key := requestKey{addr: remote.WithZone(""), seq: seq}

	// enqueue in currently running requests
	pinger.mtx.Lock()
	select {
	case <-pinger.closed:
		pinger.mtx.Unlock()
		return nil, ErrClosed
	default:
	}
	// start measurement, the receiving end computes the RTT
	req.tStart = time.Now()
	pinger.requests[key] = append(pinger.requests[key], req)
	pinger.mtx.Unlock()

	defer pinger.dequeue(key, req)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	// send request
	if err := pinger.conn.WriteTo(remote, int(seq), payload); err != nil {
		select {
		case <-pinger.closed:
			return nil, ErrClosed
		default:
		}
		return nil, err
	}

	// wait for answer
	select {
	case <-req.wait:
		return req.reply, req.result
	case <-timer.C:
		return nil, &timeoutError{}
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-pinger.closed:
		return nil, ErrClosed
	}
}

// dequeue removes req from the currently running requests, unless a reply
// already took it.
func (pinger *Pinger) dequeue(key requestKey, req *request) {
	pinger.mtx.Lock()
	defer pinger.mtx.Unlock()

	queue := pinger.requests[key]
	for i, r := range queue {
		if r == req {
			pinger.remove(key, i)
			return
		}
	}
}

// remove drops the i-th request with the given key. Requires the lock.
func (pinger *Pinger) remove(key requestKey, i int) {
	queue := pinger.requests[key]
	if len(queue) == 1 {
		delete(pinger.requests, key)
		return
	}
	pinger.requests[key] = append(queue[:i:i], queue[i+1:]...)
}
