package monitor

import (
	"context"
	"time"

	ping "github.com/digineo/multiping"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const (
	defaultInterval = time.Second
	defaultTimeout  = time.Second
)

// Config controls the probe loops of a Monitor.
type Config struct {
	Interval    time.Duration // between two probes of a target
	Timeout     time.Duration // per probe
	PayloadSize int
}

// Monitor resolves targets and runs one probe loop per resolved target.
// All loops share the same Echoer.
type Monitor struct {
	config   Config
	echoer   Echoer
	resolver *Resolver
	board    Board
	counters counters
}

// New creates and configures a new Monitor. Zero values in config are
// replaced by defaults (1s interval, 1s timeout, 56 bytes payload).
func New(echoer Echoer, resolver *Resolver, board Board, config Config) *Monitor {
	if config.Interval <= 0 {
		config.Interval = defaultInterval
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	if config.PayloadSize <= 0 {
		config.PayloadSize = ping.DefaultPayloadSize
	}
	if resolver == nil {
		resolver = NewResolver()
	}

	return &Monitor{
		config:   config,
		echoer:   echoer,
		resolver: resolver,
		board:    board,
	}
}

// Resolve resolves the targets in input order. Unresolvable targets are
// dropped.
func (m *Monitor) Resolve(ctx context.Context, targets []string) []Target {
	resolved := make([]Target, 0, len(targets))

	for _, s := range targets {
		if t, ok := m.resolver.Resolve(ctx, s); ok {
			resolved = append(resolved, t)
		} else {
			m.counters.dropped.Add(1)
			log.Infof("dropping target %q: unable to resolve", s)
		}
	}

	return resolved
}

// Run resolves the targets and probes them until ctx is done. It returns
// nil when no target could be resolved or ctx was cancelled, otherwise
// the error which stopped a probe loop (i.e. ping.ErrClosed).
func (m *Monitor) Run(ctx context.Context, targets []string) error {
	resolved := m.Resolve(ctx, targets)
	if len(resolved) == 0 {
		log.Infof("no target resolved")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range resolved {
		loop := m.newLoop(t)
		m.counters.resolved.Add(1)
		g.Go(func() error {
			return loop.Run(gctx)
		})
	}

	err := g.Wait()
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return nil
	}
	return err
}

func (m *Monitor) newLoop(t Target) *ProbeLoop {
	return &ProbeLoop{
		target:   t,
		session:  NewProbeSession(m.config.Timeout, m.config.PayloadSize),
		interval: m.config.Interval,
		echoer:   m.echoer,
		sink:     m.board.Line(t),
		counters: &m.counters,
	}
}

// Counters returns a snapshot of the monitor's counters.
func (m *Monitor) Counters() Counters {
	return m.counters.snapshot()
}
