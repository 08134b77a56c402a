package monitor

import (
	"context"
	"net"
	"net/netip"
	"strings"

	"github.com/pion/mdns/v2"
	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
	"golang.org/x/sync/semaphore"
)

// DefaultMDNSAddr is the IPv4 address to bind to for multicast DNS.
const DefaultMDNSAddr = "224.0.0.0:5353"

var errNotLocal = errors.New("not a .local name")

// MDNSLookup resolves names in the .local domain by multicast DNS.
type MDNSLookup struct {
	conn *mdns.Conn
	sem  *semaphore.Weighted
}

// NewMDNSLookup binds to addr (usually DefaultMDNSAddr) and allows up to
// concurrency queries at the same time.
func NewMDNSLookup(addr string, concurrency int) (*MDNSLookup, error) {
	if concurrency <= 0 {
		return nil, errors.New("mdns: concurrency must be greater than zero")
	}

	addr4, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve IPv4 address")
	}

	l4, err := net.ListenUDP("udp4", addr4)
	if err != nil {
		return nil, errors.Wrap(err, "failed to bind UDP IPv4 listener")
	}

	conn, err := mdns.Server(ipv4.NewPacketConn(l4), nil, &mdns.Config{})
	if err != nil {
		l4.Close()
		return nil, errors.Wrap(err, "failed to init mdns server")
	}

	return &MDNSLookup{
		conn: conn,
		sem:  semaphore.NewWeighted(int64(concurrency)),
	}, nil
}

func (l *MDNSLookup) LookupAddrs(ctx context.Context, name string) ([]netip.Addr, error) {
	if !isLocal(name) {
		return nil, errNotLocal
	}

	if err := l.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer l.sem.Release(1)

	_, addr, err := l.conn.QueryAddr(ctx, strings.TrimSuffix(name, "."))
	if err != nil {
		return nil, errors.Wrapf(err, "mdns query %s", name)
	}
	return []netip.Addr{addr}, nil
}

// Close stops the mDNS server.
func (l *MDNSLookup) Close() error {
	return l.conn.Close()
}

func isLocal(name string) bool {
	return strings.HasSuffix(strings.ToLower(strings.TrimSuffix(name, ".")), ".local")
}
