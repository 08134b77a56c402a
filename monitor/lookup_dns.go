package monitor

import (
	"context"
	"net/netip"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

// DNSLookup sends A queries to a specific DNS server, bypassing the
// system resolver.
type DNSLookup struct {
	Server string      // host:port
	Client *dns.Client // defaults to a UDP client
}

func (l *DNSLookup) LookupAddrs(ctx context.Context, name string) ([]netip.Addr, error) {
	clnt := l.Client
	if clnt == nil {
		clnt = &dns.Client{}
	}

	msg := dns.Msg{
		MsgHdr: dns.MsgHdr{RecursionDesired: true},
	}
	msg.SetQuestion(dns.Fqdn(name), dns.TypeA)

	r, _, err := clnt.ExchangeContext(ctx, &msg, l.Server)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s at %s", name, l.Server)
	}
	if r.Rcode != dns.RcodeSuccess {
		return nil, errors.Errorf("query %s at %s: %s", name, l.Server, dns.RcodeToString[r.Rcode])
	}

	var addrs []netip.Addr
	for _, rr := range r.Answer {
		if a, ok := rr.(*dns.A); ok {
			if addr, ok := netip.AddrFromSlice(a.A); ok {
				addrs = append(addrs, addr.Unmap())
			}
		}
	}
	if len(addrs) == 0 {
		return nil, errors.Errorf("query for %q yields no answers", name)
	}
	return addrs, nil
}
