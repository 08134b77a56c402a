package ping

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/digineo/multiping/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
)

// openPinger opens an IPv4 pinger on datagram sockets, falling back to raw
// sockets.
func openPinger(t *testing.T) *Pinger {
	t.Helper()

	pinger, err := New("0.0.0.0", "", false)
	if err != nil {
		var rawErr error
		if pinger, rawErr = New("0.0.0.0", "", true); rawErr != nil {
			t.Skipf("unable to open ICMP socket: %v, %v", err, rawErr)
		}
		assert.True(t, pinger.Privileged())
	}
	t.Cleanup(pinger.Close)

	return pinger
}

func TestPinger(t *testing.T) {
	assert := assert.New(t)
	pinger := openPinger(t)

	for _, target := range []string{"127.0.0.1"} {
		rtt, err := pinger.PingAttempts(context.Background(), netip.MustParseAddr(target), time.Second, 2)
		assert.NoError(err, target)
		assert.NotZero(rtt, target)
	}
}

func TestEchoLoopback(t *testing.T) {
	assert := assert.New(t)
	pinger := openPinger(t)
	payload := NewPayload(DefaultPayloadSize, 42)

	for seq := uint16(0); seq < 3; seq++ {
		reply, err := pinger.Echo(context.Background(), netip.MustParseAddr("127.0.0.1"), seq, payload, time.Second)
		require.NoError(t, err)
		assert.Equal(seq, reply.Seq)
		assert.Equal(ProtocolICMP, reply.Proto)
		assert.Equal(8+DefaultPayloadSize, reply.Size)
		assert.NotZero(reply.TTL)
	}
}

func TestEchoTimeout(t *testing.T) {
	pinger := openPinger(t)

	start := time.Now()
	_, err := pinger.Echo(context.Background(), netip.MustParseAddr("192.0.2.77"), 1, nil, 200*time.Millisecond)

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
	assert.Equal(t, "i/o timeout", err.Error())
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
	assert.Empty(t, pinger.requests, "timed out requests are dequeued")
}

func TestEchoCancelled(t *testing.T) {
	pinger := openPinger(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := pinger.Echo(ctx, netip.MustParseAddr("192.0.2.77"), 2, nil, 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestEchoClosedWhileWaiting(t *testing.T) {
	pinger := openPinger(t)

	time.AfterFunc(50*time.Millisecond, pinger.Close)

	_, err := pinger.Echo(context.Background(), netip.MustParseAddr("192.0.2.77"), 3, nil, 5*time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func newTestPinger() *Pinger {
	return &Pinger{
		requests: make(map[requestKey][]*request),
		closed:   make(chan struct{}),
	}
}

func enqueue(p *Pinger, addr netip.Addr, seq uint16, tracker uint64) *request {
	req := &request{
		wait:       make(chan struct{}),
		tracker:    tracker,
		hasTracker: true,
		tStart:     time.Now().Add(-5 * time.Millisecond),
	}
	key := requestKey{addr: addr, seq: seq}
	p.requests[key] = append(p.requests[key], req)
	return req
}

func replyPacket(addr netip.Addr, seq int, tracker uint64) *internal.Packet {
	return &internal.Packet{
		Proto: ProtocolICMP,
		Echo:  &icmp.Echo{Seq: seq, Data: NewPayload(DefaultPayloadSize, tracker)},
		Dst:   addr,
		From:  addr,
		TTL:   -1,
		Len:   64,
		Recv:  time.Now(),
	}
}

func TestProcessReply(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	p := newTestPinger()
	addr := netip.MustParseAddr("192.0.2.1")
	req := enqueue(p, addr, 3, 11)

	p.process(replyPacket(addr, 3, 11))

	select {
	case <-req.wait:
	default:
		t.Fatal("request not finished")
	}
	require.NoError(req.result)
	require.NotNil(req.reply)
	assert.EqualValues(3, req.reply.Seq)
	assert.EqualValues(64, req.reply.Size)
	assert.EqualValues(255, req.reply.TTL, "missing ttl defaults to the maximum")
	assert.GreaterOrEqual(req.reply.RTT, 5*time.Millisecond)
	assert.Empty(p.requests)
	assert.Zero(p.Ignored())
}

func TestProcessDemultiplexesByTracker(t *testing.T) {
	assert := assert.New(t)

	p := newTestPinger()
	addr := netip.MustParseAddr("192.0.2.1")
	first := enqueue(p, addr, 0, 1)
	second := enqueue(p, addr, 0, 2)

	p.process(replyPacket(addr, 0, 2))

	assert.False(isDone(first))
	assert.True(isDone(second))
	assert.Len(p.requests[requestKey{addr, 0}], 1)

	// another target, same sequence
	p.process(replyPacket(netip.MustParseAddr("192.0.2.2"), 0, 1))
	assert.False(isDone(first))
	assert.EqualValues(1, p.Ignored())
}

func TestProcessUnreachable(t *testing.T) {
	assert := assert.New(t)

	p := newTestPinger()
	addr := netip.MustParseAddr("10.255.255.1")
	req := enqueue(p, addr, 9, 5)

	router := netip.MustParseAddr("192.0.2.254")
	p.process(&internal.Packet{
		Proto:   ProtocolICMP,
		Echo:    &icmp.Echo{Seq: 9}, // quoted without payload
		Dst:     addr,
		From:    router,
		Failure: ipv4.ICMPTypeDestinationUnreachable,
	})

	require.True(t, isDone(req))
	var icmpErr *ICMPError
	require.ErrorAs(t, req.result, &icmpErr)
	assert.Equal(router, icmpErr.From)
	assert.Equal("destination unreachable from 192.0.2.254", req.result.Error())
}

func TestEchoWithoutSocket(t *testing.T) {
	p := newTestPinger()

	_, err := p.Echo(context.Background(), netip.MustParseAddr("127.0.0.1"), 0, nil, time.Second)
	assert.ErrorIs(t, err, ErrSocketMissing)
	assert.Empty(t, p.requests, "failed requests are dequeued")

	_, err = p.Echo(context.Background(), netip.Addr{}, 0, nil, time.Second)
	assert.ErrorIs(t, err, ErrInvalidAddr)
}

func TestEchoClosed(t *testing.T) {
	p := newTestPinger()
	p.Close()
	p.Close() // idempotent

	_, err := p.Echo(context.Background(), netip.MustParseAddr("127.0.0.1"), 0, nil, time.Second)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestTimeoutError(t *testing.T) {
	var err error = &timeoutError{}

	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
	assert.Equal(t, "i/o timeout", err.Error())
}

func isDone(req *request) bool {
	select {
	case <-req.wait:
		return true
	default:
		return false
	}
}
