package monitor

import (
	"context"
	"net/netip"
	"sync/atomic"
	"testing"
	"time"

	ping "github.com/digineo/multiping"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestMonitorWithoutTargets(t *testing.T) {
	board := &mockBoard{}
	echoer := echoFunc(func(context.Context, netip.Addr, uint16) (*ping.Reply, error) {
		t.Fatal("unexpected echo request")
		return nil, nil
	})

	m := New(echoer, NewResolver(failingLookup()), board, Config{})
	err := m.Run(context.Background(), []string{"999.999.999.999"})

	require.NoError(t, err)
	board.AssertNotCalled(t, "Line", mock.Anything)
	assert.Equal(t, Counters{Dropped: 1}, m.Counters())
}

func TestMonitorResolvesInOrder(t *testing.T) {
	m := New(nil, NewResolver(failingLookup()), &mockBoard{}, Config{})

	targets := m.Resolve(context.Background(), []string{"192.0.2.2", "not-there", "192.0.2.1"})
	require.Len(t, targets, 2)
	assert.Equal(t, "192.0.2.2", targets[0].Label)
	assert.Equal(t, "192.0.2.1", targets[1].Label)
	assert.Equal(t, 1, m.Counters().Dropped)
}

func TestMonitorDefaults(t *testing.T) {
	m := New(nil, nil, &mockBoard{}, Config{})

	assert.Equal(t, time.Second, m.config.Interval)
	assert.Equal(t, time.Second, m.config.Timeout)
	assert.Equal(t, ping.DefaultPayloadSize, m.config.PayloadSize)
	assert.NotNil(t, m.resolver)
}

func TestMonitorProbesIndependently(t *testing.T) {
	assert := assert.New(t)

	fast := netip.MustParseAddr("192.0.2.1")
	slow := netip.MustParseAddr("10.255.255.1")

	echoer := echoFunc(func(ctx context.Context, remote netip.Addr, seq uint16) (*ping.Reply, error) {
		if remote == slow {
			select {
			case <-time.After(200 * time.Millisecond):
				return nil, errTimeout
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return okReply(seq), nil
	})

	var fastUpdates atomic.Int64
	fastSink := SinkFunc(func(u StatusUpdate) {
		fastUpdates.Add(1)
	})
	slowSink := newChanSink()

	board := &mockBoard{}
	board.On("Line", Target{Label: "192.0.2.1", Addr: fast}).Return(fastSink).Once()
	board.On("Line", Target{Label: "10.255.255.1", Addr: slow}).Return(slowSink).Once()

	m := New(echoer, NewResolver(failingLookup()), board, Config{
		Interval: 10 * time.Millisecond,
		Timeout:  200 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, []string{"192.0.2.1", "10.255.255.1"}) }()

	u, ok := slowSink.next(2 * time.Second)
	require.True(t, ok)
	assert.Equal(StateError, u.State)
	assert.Equal("i/o timeout", u.Message)
	assert.EqualValues(0, u.Seq)
	assert.GreaterOrEqual(fastUpdates.Load(), int64(5), "fast target was held up by the slow one")

	cancel()
	select {
	case err := <-done:
		assert.NoError(err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}

	board.AssertExpectations(t)
	assert.Equal(2, m.Counters().Resolved)
}

func TestMonitorStopsWhenPingerClosed(t *testing.T) {
	echoer := echoFunc(func(context.Context, netip.Addr, uint16) (*ping.Reply, error) {
		return nil, ping.ErrClosed
	})
	board := &mockBoard{}
	board.On("Line", mock.Anything).Return(newChanSink())

	m := New(echoer, NewResolver(failingLookup()), board, Config{})
	err := m.Run(context.Background(), []string{"127.0.0.1", "127.0.0.2"})
	assert.ErrorIs(t, err, ping.ErrClosed)
}

func openPinger(t *testing.T) *ping.Pinger {
	t.Helper()

	pinger, err := ping.New("0.0.0.0", "", false)
	if err != nil {
		var rawErr error
		if pinger, rawErr = ping.New("0.0.0.0", "", true); rawErr != nil {
			t.Skipf("unable to open ICMP socket: %v, %v", err, rawErr)
		}
	}
	t.Cleanup(pinger.Close)

	return pinger
}

func TestMonitorLoopback(t *testing.T) {
	pinger := openPinger(t)

	sink := newChanSink()
	board := &mockBoard{}
	board.On("Line", mock.Anything).Return(sink).Once()

	m := New(pinger, NewResolver(failingLookup()), board, Config{
		Interval: 100 * time.Millisecond,
		Timeout:  100 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, []string{"127.0.0.1"}) }()

	for i := 0; i < 5; i++ {
		u, ok := sink.next(time.Second)
		require.True(t, ok, "update %d", i)
		assert.EqualValues(t, i, u.Seq)
		assert.Equal(t, "127.0.0.1", u.Target.Label)
	}

	cancel()
	assert.NoError(t, <-done)
}

func TestMonitorUnreachable(t *testing.T) {
	assert := assert.New(t)
	pinger := openPinger(t)

	sink := newChanSink()
	board := &mockBoard{}
	board.On("Line", mock.Anything).Return(sink).Once()

	m := New(pinger, NewResolver(failingLookup()), board, Config{
		Interval: 100 * time.Millisecond,
		Timeout:  200 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx, []string{"192.0.2.77"}) }()

	for i := 0; i < 3; i++ {
		u, ok := sink.next(time.Second)
		require.True(t, ok, "update %d", i)
		assert.EqualValues(i, u.Seq)
		assert.Equal(StateError, u.State)
		assert.Equal("i/o timeout", u.Message)
		assert.Zero(u.RTT)
	}

	cancel()
	assert.NoError(<-done)
	assert.Zero(m.Counters().Ignored)
}
