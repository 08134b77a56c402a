package monitor

import (
	"fmt"
	"time"

	ping "github.com/digineo/multiping"
)

// State is the coarse state of a target after a probe.
type State int

const (
	StateOK State = iota
	StateError
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateError:
		return "error"
	}
	return fmt.Sprintf("State(%d)", s)
}

// Outcome is the result of a single echo attempt: either Reply or Err is
// set.
type Outcome struct {
	Reply *ping.Reply
	Err   error
}

// Success reports whether a timely reply was received.
func (o Outcome) Success() bool {
	return o.Err == nil && o.Reply != nil
}

// Message summarizes the outcome like the ping utility does.
func (o Outcome) Message() string {
	if !o.Success() {
		if o.Err == nil {
			return "no reply"
		}
		return o.Err.Error()
	}
	r := o.Reply
	return fmt.Sprintf("%d bytes icmp_seq=%d ttl=%d time=%s", r.Size, r.Seq, r.TTL, FormatDuration(r.RTT))
}

// StatusUpdate is emitted for every completed probe of a target.
type StatusUpdate struct {
	Target  Target
	State   State
	Message string
	Seq     uint64        // sequence number of the probe within its session
	RTT     time.Duration // zero on failure
}

func newStatusUpdate(t Target, seq uint64, o Outcome) StatusUpdate {
	u := StatusUpdate{
		Target:  t,
		State:   StateError,
		Message: o.Message(),
		Seq:     seq,
	}
	if o.Success() {
		u.State = StateOK
		u.RTT = o.Reply.RTT
	}
	return u
}

// Sink receives the status updates of a single target. Each update
// accounts for one completed probe. Updates of one target are delivered
// sequentially, in order.
type Sink interface {
	Update(u StatusUpdate)
}

// SinkFunc is an adapter to allow the use of ordinary functions as Sink.
type SinkFunc func(u StatusUpdate)

func (f SinkFunc) Update(u StatusUpdate) { f(u) }

// Board hands out one Sink per target.
type Board interface {
	Line(t Target) Sink
}

// Boards dispatches the updates to every board.
type Boards []Board

func (b Boards) Line(t Target) Sink {
	sinks := make(multiSink, 0, len(b))
	for _, board := range b {
		sinks = append(sinks, board.Line(t))
	}
	return sinks
}

type multiSink []Sink

func (m multiSink) Update(u StatusUpdate) {
	for _, sink := range m {
		sink.Update(u)
	}
}

// FormatDuration formats d with two decimals in the largest unit which
// keeps the value above one.
func FormatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	case d >= time.Microsecond:
		return fmt.Sprintf("%.2fµs", float64(d)/float64(time.Microsecond))
	default:
		return fmt.Sprintf("%.2fns", float64(d))
	}
}
