package monitor

import (
	"context"
	"net/netip"
	"time"

	ping "github.com/digineo/multiping"
	"github.com/stretchr/testify/mock"
)

type echoFunc func(ctx context.Context, remote netip.Addr, seq uint16) (*ping.Reply, error)

func (f echoFunc) Echo(ctx context.Context, remote netip.Addr, seq uint16, _ ping.Payload, _ time.Duration) (*ping.Reply, error) {
	return f(ctx, remote, seq)
}

func okReply(seq uint16) *ping.Reply {
	return &ping.Reply{
		Proto: ping.ProtocolICMP,
		Size:  64,
		Seq:   seq,
		TTL:   64,
		RTT:   time.Millisecond,
	}
}

// chanSink collects updates. The buffer is large enough for every test
// to never block a probe loop.
type chanSink chan StatusUpdate

func newChanSink() chanSink { return make(chanSink, 1024) }

func (c chanSink) Update(u StatusUpdate) { c <- u }

func (c chanSink) next(timeout time.Duration) (StatusUpdate, bool) {
	select {
	case u := <-c:
		return u, true
	case <-time.After(timeout):
		return StatusUpdate{}, false
	}
}

type mockBoard struct {
	mock.Mock
}

func (b *mockBoard) Line(t Target) Sink {
	args := b.Called(t)
	return args.Get(0).(Sink)
}

type lookupFunc func(ctx context.Context, name string) ([]netip.Addr, error)

func (f lookupFunc) LookupAddrs(ctx context.Context, name string) ([]netip.Addr, error) {
	return f(ctx, name)
}

func staticLookup(addrs ...string) Lookup {
	return lookupFunc(func(context.Context, string) ([]netip.Addr, error) {
		var result []netip.Addr
		for _, a := range addrs {
			result = append(result, netip.MustParseAddr(a))
		}
		return result, nil
	})
}
