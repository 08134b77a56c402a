package ping

import (
	"fmt"
	"net/netip"

	"github.com/digineo/multiping/internal"
	"github.com/pkg/errors"
	"golang.org/x/net/icmp"
)

var (
	// ErrClosed is returned for requests on a closed Pinger.
	ErrClosed = errors.New("pinger closed")

	ErrNotBound      = internal.ErrNotBound
	ErrSocketMissing = internal.ErrSocketMissing
	ErrInvalidAddr   = errors.New("invalid address")
)

// ICMPError is returned when an ICMP error message (i.e. destination
// unreachable) was received instead of an echo reply.
type ICMPError struct {
	Type icmp.Type
	From netip.Addr
}

func (e *ICMPError) Error() string {
	if e.From.IsValid() {
		return fmt.Sprintf("%v from %v", e.Type, e.From)
	}
	return fmt.Sprintf("%v", e.Type)
}

// timeoutError implements the net.Error interface. Originally taken from
// https://github.com/golang/go/blob/release-branch.go1.8/src/net/net.go#L505-L509
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
