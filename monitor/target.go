package monitor

import (
	"fmt"
	"net/netip"

	ping "github.com/digineo/multiping"
)

// Target represents a resolved ping target.
type Target struct {
	Label string     // as given by the user
	Addr  netip.Addr // resolved address
}

// Proto returns the ICMP protocol number matching the address family.
func (t Target) Proto() int {
	if t.Addr.Is4() {
		return ping.ProtocolICMP
	}
	return ping.ProtocolICMPv6
}

func (t Target) String() string {
	if t.Label == t.Addr.String() {
		return t.Label
	}
	return fmt.Sprintf("%s (%s)", t.Label, t.Addr)
}
