package monitor

import (
	"context"
	"net"
	"net/netip"
	"time"
)

const defaultResolveTimeout = 5 * time.Second

// Lookup resolves host names into addresses.
type Lookup interface {
	LookupAddrs(ctx context.Context, name string) ([]netip.Addr, error)
}

// Resolver turns user supplied strings into targets. Literal addresses
// are used unchanged, everything else is passed to the lookups in order
// until one of them yields an IPv4 address.
type Resolver struct {
	Lookups []Lookup
	Timeout time.Duration // per lookup
}

// NewResolver returns a Resolver using the given lookups. Without
// lookups, the system resolver is used.
func NewResolver(lookups ...Lookup) *Resolver {
	if len(lookups) == 0 {
		lookups = []Lookup{SystemLookup{}}
	}
	return &Resolver{
		Lookups: lookups,
		Timeout: defaultResolveTimeout,
	}
}

// Resolve returns the target for s. The boolean is false if s is neither
// a literal address nor resolves to an IPv4 address.
func (r *Resolver) Resolve(ctx context.Context, s string) (Target, bool) {
	if addr, err := netip.ParseAddr(s); err == nil {
		return Target{Label: s, Addr: addr.Unmap()}, true
	}

	for _, lookup := range r.Lookups {
		if addr, ok := r.lookup(ctx, lookup, s); ok {
			log.Infof("resolved %s to %v", s, addr)
			return Target{Label: s, Addr: addr}, true
		}
	}

	return Target{}, false
}

func (r *Resolver) lookup(ctx context.Context, lookup Lookup, name string) (netip.Addr, bool) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultResolveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs, err := lookup.LookupAddrs(ctx, name)
	if err != nil {
		log.Infof("host %s: %v", name, err)
		return netip.Addr{}, false
	}

	for _, addr := range addrs {
		if addr = addr.Unmap(); addr.Is4() {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

// SystemLookup uses the resolver of the operating system, restricted to
// IPv4 addresses.
type SystemLookup struct {
	Resolver *net.Resolver // defaults to net.DefaultResolver
}

func (l SystemLookup) LookupAddrs(ctx context.Context, name string) ([]netip.Addr, error) {
	r := l.Resolver
	if r == nil {
		r = net.DefaultResolver
	}
	return r.LookupNetIP(ctx, "ip4", name)
}
