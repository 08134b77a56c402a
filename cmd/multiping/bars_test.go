package main

import (
	"bytes"
	"net/netip"
	"testing"

	"github.com/digineo/multiping/monitor"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func TestBarBoardFallback(t *testing.T) {
	var buf bytes.Buffer

	b := newBarBoard(newStyleSet(termenv.Ascii))
	b.fallback(&buf)

	target := monitor.Target{Label: "router", Addr: netip.MustParseAddr("192.0.2.1")}
	sink := b.Line(target)
	sink.Update(monitor.StatusUpdate{Target: target, State: monitor.StateOK, Message: "64 bytes icmp_seq=0 ttl=64 time=1.00ms"})
	sink.Update(monitor.StatusUpdate{Target: target, State: monitor.StateError, Seq: 1, Message: "i/o timeout"})

	assert.Equal(t, ""+
		"router          ok    64 bytes icmp_seq=0 ttl=64 time=1.00ms\n"+
		"router          error i/o timeout\n",
		buf.String())
}
