package ping

import (
	"sync"
	"sync/atomic"

	"github.com/digineo/multiping/internal"
)

const (
	// ProtocolICMP is the number of the Internet Control Message Protocol
	ProtocolICMP = internal.ProtocolICMP

	// ProtocolICMPv6 is the IPv6 Next Header value for ICMPv6
	ProtocolICMPv6 = internal.ProtocolICMPv6
)

// sequence number for this process
var sequence uint32

// Pinger is a instance for ICMP echo requests. A single Pinger may be
// used by any number of goroutines at the same time.
type Pinger struct {
	conn     internal.Conn
	requests map[requestKey][]*request // currently running requests
	mtx      sync.Mutex                // lock for the requests map
	closed   chan struct{}
	once     sync.Once

	unmatched atomic.Uint64 // replies without a waiting request
}

// New creates a new Pinger. This will open the sockets and start the
// receiving logic. An empty bind address disables the address family.
// Unprivileged pingers use datagram ICMP sockets, which on Linux need
// the group to be listed in net.ipv4.ping_group_range. You'll need to
// call Close() to cleanup.
func New(bind4, bind6 string, privileged bool) (*Pinger, error) {
	pinger := &Pinger{
		requests: make(map[requestKey][]*request),
		closed:   make(chan struct{}),
	}
	pinger.conn.Privileged = privileged
	pinger.conn.Receiver = pinger.process

	if err := pinger.conn.Open(bind4, bind6); err != nil {
		return nil, err
	}

	log.Infof("listening for echo replies (ipv4=%q, ipv6=%q, privileged=%v)", bind4, bind6, privileged)

	return pinger, nil
}

// Close will close the ICMP sockets. Pending and future requests fail
// with ErrClosed.
func (pinger *Pinger) Close() {
	pinger.once.Do(func() {
		close(pinger.closed)
		pinger.conn.Close()
	})
}

// SetMark sets the SO_MARK socket option on the sockets (Linux only).
func (pinger *Pinger) SetMark(mark uint) error {
	return pinger.conn.SetMark(mark)
}

// Privileged reports whether raw sockets are used.
func (pinger *Pinger) Privileged() bool {
	return pinger.conn.Privileged
}

// Ignored returns the number of received packets which were discarded
// because they could not be parsed or no request was waiting for them.
func (pinger *Pinger) Ignored() uint64 {
	return pinger.conn.Ignored() + pinger.unmatched.Load()
}
