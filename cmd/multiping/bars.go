package main

import (
	"fmt"
	"io"
	"sync"

	"github.com/digineo/multiping/monitor"
	"gopkg.in/cheggaaa/pb.v1"
)

// barBoard renders one progress bar per target. The counter of a bar is
// the number of completed probes.
type barBoard struct {
	styles styleSet
	pool   *pb.Pool

	// plain is set when the pool could not take the terminal. Every
	// update is then printed as a line.
	plain io.Writer
	mtx   sync.Mutex
}

func newBarBoard(styles styleSet) *barBoard {
	return &barBoard{
		styles: styles,
		pool:   pb.NewPool(),
	}
}

func (b *barBoard) Start() error {
	return b.pool.Start()
}

// fallback prints future updates to w instead of rendering bars.
func (b *barBoard) fallback(w io.Writer) {
	b.mtx.Lock()
	b.plain = w
	b.mtx.Unlock()
}

func (b *barBoard) Stop() error {
	return b.pool.Stop()
}

func (b *barBoard) Line(t monitor.Target) monitor.Sink {
	b.mtx.Lock()
	plain := b.plain != nil
	b.mtx.Unlock()

	if plain {
		return monitor.SinkFunc(func(u monitor.StatusUpdate) {
			b.print(t.Label, u)
		})
	}

	bar := pb.New(0)
	bar.ShowPercent = false
	bar.ShowTimeLeft = false
	bar.ShowSpeed = false
	bar.ShowBar = false
	bar.ShowCounters = true
	bar.Prefix(b.styles.prefix(t.Label, monitor.StatusUpdate{}))
	bar.Postfix(" " + t.Addr.String())

	b.pool.Add(bar)

	return &barLine{
		styles: b.styles,
		label:  t.Label,
		bar:    bar,
	}
}

type barLine struct {
	styles styleSet
	label  string
	bar    *pb.ProgressBar
}

func (l *barLine) Update(u monitor.StatusUpdate) {
	l.bar.Prefix(l.styles.prefix(l.label, u))
	l.bar.Postfix(fmt.Sprintf(" %s", u.Message))
	l.bar.Increment()
}

func (b *barBoard) print(label string, u monitor.StatusUpdate) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	fmt.Fprintf(b.plain, "%-*s %-5s %s\n", prefixWidth, label, u.State, u.Message)
}
