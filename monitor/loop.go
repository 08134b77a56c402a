package monitor

import (
	"context"
	"net/netip"
	"time"

	ping "github.com/digineo/multiping"
	"github.com/pkg/errors"
)

// Echoer sends echo requests. It must be safe for concurrent use;
// *ping.Pinger is the canonical implementation.
type Echoer interface {
	Echo(ctx context.Context, remote netip.Addr, seq uint16, payload ping.Payload, timeout time.Duration) (*ping.Reply, error)
}

// ProbeLoop probes a single target at a fixed interval and reports every
// outcome to its sink.
type ProbeLoop struct {
	target   Target
	session  *ProbeSession
	interval time.Duration
	echoer   Echoer
	sink     Sink
	counters *counters
}

// Run probes until ctx is done or the echoer was closed. It never returns
// nil.
func (l *ProbeLoop) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		if err := l.probe(ctx); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// probe performs exactly one attempt. Only irrecoverable errors are
// returned, everything else goes to the sink.
func (l *ProbeLoop) probe(ctx context.Context) error {
	seq := l.session.Advance()

	// the wire format limits the sequence to 16 bits
	reply, err := l.echoer.Echo(ctx, l.target.Addr, uint16(seq), l.session.payload, l.session.timeout)
	l.counters.probes.Add(1)

	if errors.Is(err, ping.ErrClosed) {
		return err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	if err == nil && (reply == nil || reply.Proto != l.target.Proto()) {
		l.counters.ignored.Add(1)
		return nil
	}

	l.sink.Update(newStatusUpdate(l.target, seq, Outcome{Reply: reply, Err: err}))
	return nil
}
