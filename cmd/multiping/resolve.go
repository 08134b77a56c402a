package main

import (
	"github.com/digineo/multiping/monitor"
)

const mdnsConcurrency = 10

// resolver bundles the configured lookups with the resources they hold.
type resolver struct {
	*monitor.Resolver
	mdns *monitor.MDNSLookup
}

// newResolver uses either the system resolver or an explicit DNS server,
// followed by multicast DNS if enabled.
func newResolver(cli *CLI) (*resolver, error) {
	var unicast monitor.Lookup = monitor.SystemLookup{}
	if cli.DNSServer != "" {
		unicast = &monitor.DNSLookup{Server: cli.DNSServer}
	}

	r := &resolver{}
	lookups := []monitor.Lookup{unicast}

	if cli.MDNS {
		l, err := monitor.NewMDNSLookup(monitor.DefaultMDNSAddr, mdnsConcurrency)
		if err != nil {
			return nil, err
		}
		r.mdns = l
		lookups = append(lookups, l)
	}

	r.Resolver = monitor.NewResolver(lookups...)
	return r, nil
}

func (r *resolver) Close() {
	if r.mdns != nil {
		_ = r.mdns.Close()
	}
}
