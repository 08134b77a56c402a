package internal

import (
	"net"
	"net/netip"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const (
	// ProtocolICMP is the number of the Internet Control Message Protocol
	// (see golang.org/x/net/internal/iana.ProtocolICMP)
	ProtocolICMP = 1

	// ProtocolICMPv6 is the IPv6 Next Header value for ICMPv6
	// see golang.org/x/net/internal/iana.ProtocolIPv6ICMP
	ProtocolICMPv6 = 58
)

var (
	ErrNotBound      = errors.New("need at least one bind address")
	ErrSocketMissing = errors.New("socket missing")
	id               = os.Getpid() & 0xffff
)

// Packet is an incoming ICMP message which refers to one of our echo
// requests, either as an echo reply or as an error message quoting the
// original request.
type Packet struct {
	Proto int
	Echo  *icmp.Echo

	// Dst is the address the echo request was sent to.
	Dst netip.Addr

	// From is the sender of the message. For echo replies it equals Dst,
	// for error messages it is usually a router on the way.
	From netip.Addr

	// Failure is set if the message is an ICMP error (i.e. "destination
	// unreachable") instead of an echo reply.
	Failure icmp.Type

	TTL  int // TTL or hop limit of the reply, -1 if the socket did not report it
	Len  int // length of the ICMP message
	Recv time.Time
}

// Receiver is called for every packet that refers to an echo request.
type Receiver func(pkt *Packet)

// Conn wraps the ICMP sockets for both address families.
type Conn struct {
	Receiver   Receiver
	Privileged bool

	conn4   *icmp.PacketConn
	conn6   *icmp.PacketConn
	ignored atomic.Uint64
	wg      sync.WaitGroup
}

// Open opens the ICMP sockets and starts the receiving logic. An empty
// bind address disables the address family. You'll need to call Close()
// to cleanup.
func (c *Conn) Open(bind4, bind6 string) error {
	var err error
	var network4, network6 string

	if c.Privileged {
		network4 = "ip4:icmp"
		network6 = "ip6:ipv6-icmp"
	} else {
		network4 = "udp4"
		network6 = "udp6"
	}

	// open sockets
	c.conn4, err = connectICMP(network4, bind4)
	if err != nil {
		return errors.Wrap(err, "open icmp socket")
	}

	c.conn6, err = connectICMP(network6, bind6)
	if err != nil {
		if c.conn4 != nil {
			c.conn4.Close()
		}
		return errors.Wrap(err, "open icmpv6 socket")
	}

	if c.conn4 == nil && c.conn6 == nil {
		return ErrNotBound
	}

	if c.conn4 != nil {
		if err := c.conn4.IPv4PacketConn().SetControlMessage(ipv4.FlagTTL, true); err != nil {
			Logger.Infof("ttl of IPv4 replies not available: %v", err)
		}
		c.wg.Add(1)
		go c.receiver(ProtocolICMP, c.conn4)
	}
	if c.conn6 != nil {
		if err := c.conn6.IPv6PacketConn().SetControlMessage(ipv6.FlagHopLimit, true); err != nil {
			Logger.Infof("hop limit of IPv6 replies not available: %v", err)
		}
		c.wg.Add(1)
		go c.receiver(ProtocolICMPv6, c.conn6)
	}

	return nil
}

// Close closes the sockets and waits for the receivers to finish.
func (c *Conn) Close() {
	if c.conn4 != nil {
		c.conn4.Close()
	}
	if c.conn6 != nil {
		c.conn6.Close()
	}
	c.wg.Wait()
}

// Ignored returns the number of received packets which could not be
// parsed or did not belong to us.
func (c *Conn) Ignored() uint64 {
	return c.ignored.Load()
}

// receiver listens on the socket and hands ICMP Echo Replys and errors
// over to the Receiver.
func (c *Conn) receiver(proto int, conn *icmp.PacketConn) {
	defer c.wg.Done()
	rb := make([]byte, 1500)

	// read incoming packets
	for {
		n, ttl, source, err := readFrom(proto, conn, rb)
		if err != nil {
			if netErr, ok := err.(net.Error); !ok || !netErr.Temporary() {
				break // socket gone
			}
			continue
		}

		c.receive(proto, rb[:n], peerAddr(source), ttl, time.Now())
	}
}

func readFrom(proto int, conn *icmp.PacketConn, b []byte) (n, ttl int, src net.Addr, err error) {
	ttl = -1

	switch proto {
	case ProtocolICMP:
		var cm *ipv4.ControlMessage
		n, cm, src, err = conn.IPv4PacketConn().ReadFrom(b)
		if cm != nil {
			ttl = cm.TTL
		}
	default:
		var cm *ipv6.ControlMessage
		n, cm, src, err = conn.IPv6PacketConn().ReadFrom(b)
		if cm != nil {
			ttl = cm.HopLimit
		}
	}
	return
}

func peerAddr(source net.Addr) netip.Addr {
	var ip net.IP
	var zone string

	switch addr := source.(type) {
	case *net.UDPAddr:
		ip, zone = addr.IP, addr.Zone
	case *net.IPAddr:
		ip, zone = addr.IP, addr.Zone
	}

	a, ok := netip.AddrFromSlice(ip)
	if !ok {
		return netip.Addr{}
	}
	a = a.Unmap()
	if zone != "" && a.Is6() {
		a = a.WithZone(zone)
	}
	return a
}

// receive takes the raw message and tries to evaluate an ICMP response.
// If that succeeds, the packet is given to the Receiver.
func (c *Conn) receive(proto int, bytes []byte, addr netip.Addr, ttl int, t time.Time) {
	// parse message
	m, err := icmp.ParseMessage(proto, bytes)
	if err != nil {
		c.ignored.Add(1)
		return
	}

	// evaluate message
	switch m.Type {
	case ipv4.ICMPTypeEchoReply, ipv6.ICMPTypeEchoReply:
		echo, ok := m.Body.(*icmp.Echo)
		if !ok || echo == nil || !c.ours(echo) {
			c.ignored.Add(1)
			return
		}

		c.Receiver(&Packet{
			Proto: proto,
			Echo:  echo,
			Dst:   addr,
			From:  addr,
			TTL:   ttl,
			Len:   len(bytes),
			Recv:  t,
		})

	case ipv4.ICMPTypeDestinationUnreachable, ipv6.ICMPTypeDestinationUnreachable,
		ipv4.ICMPTypeTimeExceeded, ipv6.ICMPTypeTimeExceeded:
		var data []byte
		switch body := m.Body.(type) {
		case *icmp.DstUnreach:
			data = body.Data
		case *icmp.TimeExceeded:
			data = body.Data
		}

		dst, echo, ok := original(proto, data)
		if !ok || !c.ours(echo) {
			c.ignored.Add(1)
			return
		}

		c.Receiver(&Packet{
			Proto:   proto,
			Echo:    echo,
			Dst:     dst,
			From:    addr,
			Failure: m.Type,
			TTL:     ttl,
			Len:     len(bytes),
			Recv:    t,
		})

	case ipv4.ICMPTypeEcho, ipv6.ICMPTypeEchoRequest:
		// our own requests, seen on raw sockets when pinging local addresses

	default:
		c.ignored.Add(1)
	}
}

// ours reports whether the echo carries our identifier. Unprivileged
// sockets get their identifier rewritten by the kernel and only ever see
// their own replies.
func (c *Conn) ours(echo *icmp.Echo) bool {
	return !c.Privileged || echo.ID == id
}

// original extracts destination and echo request quoted in an ICMP error
// message.
func original(proto int, data []byte) (netip.Addr, *icmp.Echo, bool) {
	var dst netip.Addr
	var payload []byte

	switch proto {
	case ProtocolICMP:
		// parse header of original IPv4 packet
		hdr, err := ipv4.ParseHeader(data)
		if err != nil || len(data) < hdr.Len {
			return dst, nil, false
		}
		dst, _ = netip.AddrFromSlice(hdr.Dst.To4())
		payload = data[hdr.Len:]
	case ProtocolICMPv6:
		hdr, err := ipv6.ParseHeader(data)
		if err != nil || len(data) < ipv6.HeaderLen {
			return dst, nil, false
		}
		dst, _ = netip.AddrFromSlice(hdr.Dst)
		payload = data[ipv6.HeaderLen:]
	default:
		return dst, nil, false
	}

	// parse ICMP message after the IP header
	msg, err := icmp.ParseMessage(proto, payload)
	if err != nil {
		return dst, nil, false
	}

	echo, ok := msg.Body.(*icmp.Echo)
	if !ok || echo == nil {
		Logger.Infof("expected *icmp.Echo, got %#v", msg)
		return dst, nil, false
	}

	return dst.Unmap(), echo, true
}

// WriteTo marshals the payload and sends an echo request with the given
// sequence number.
func (c *Conn) WriteTo(addr netip.Addr, seq int, data []byte) error {
	echo := icmp.Echo{
		Seq:  seq,
		Data: data,
	}
	msg := icmp.Message{
		Code: 0,
		Body: &echo,
	}

	var conn *icmp.PacketConn
	if addr.Is4() {
		msg.Type = ipv4.ICMPTypeEcho
		conn = c.conn4
	} else {
		msg.Type = ipv6.ICMPTypeEchoRequest
		conn = c.conn6
	}

	if c.Privileged {
		echo.ID = id
	}

	if conn == nil {
		return ErrSocketMissing
	}

	// serialize packet
	wb, err := msg.Marshal(nil)
	if err != nil {
		return err
	}

	ip := addr.AsSlice()

	// send request
	if c.Privileged {
		_, err = conn.WriteTo(wb, &net.IPAddr{IP: ip, Zone: addr.Zone()})
	} else {
		_, err = conn.WriteTo(wb, &net.UDPAddr{IP: ip, Zone: addr.Zone()})
	}

	return err
}

// connectICMP opens a new ICMP connection, if network and address are not empty.
func connectICMP(network, address string) (*icmp.PacketConn, error) {
	if network == "" || address == "" {
		return nil, nil
	}

	return icmp.ListenPacket(network, address)
}
