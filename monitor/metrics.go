package monitor

import "sync/atomic"

// Counters is a dumb snapshot of what a Monitor did so far.
type Counters struct {
	Resolved int    // targets with a running probe loop
	Dropped  int    // targets which could not be resolved
	Probes   uint64 // echo requests sent
	Ignored  uint64 // replies discarded without status update
}

type counters struct {
	resolved atomic.Int64
	dropped  atomic.Int64
	probes   atomic.Uint64
	ignored  atomic.Uint64
}

func (c *counters) snapshot() Counters {
	return Counters{
		Resolved: int(c.resolved.Load()),
		Dropped:  int(c.dropped.Load()),
		Probes:   c.probes.Load(),
		Ignored:  c.ignored.Load(),
	}
}
