package main

import (
	"fmt"
	"sync"

	"github.com/digineo/multiping/monitor"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	colHost = iota
	colAddress
	colSent
	colState
	colMessage
	cols
)

var headers = [cols]string{"host", "address", "sent", "state", "last result"}

// userInterface is the full screen board. Probe loops only touch the
// rows, the table reads them while drawing.
type userInterface struct {
	app    *tview.Application
	table  *tview.Table
	footer *tview.TextView
	rows   *rows
	redraw chan struct{}

	started  chan struct{} // closed after the first draw
	finished chan struct{} // closed when Run returns
	once     sync.Once
}

func buildTUI(styles styleSet) *userInterface {
	ui := &userInterface{
		app:    tview.NewApplication(),
		table:  tview.NewTable().SetBorders(false).SetFixed(1, 0),
		footer: tview.NewTextView().SetScrollable(false),
		rows:   &rows{styles: styles},
		redraw: make(chan struct{}, 1),

		started:  make(chan struct{}),
		finished: make(chan struct{}),
	}

	ui.table.SetContent(ui.rows)
	ui.table.SetTitle(" multiping (press [q] to exit) ").SetBorder(true)
	ui.footer.SetChangedFunc(ui.requestDraw)
	ui.app.SetAfterDrawFunc(func(tcell.Screen) {
		ui.once.Do(func() { close(ui.started) })
	})

	ui.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			ui.app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'q' {
				ui.app.Stop()
				return nil
			}
		}
		return event
	})

	return ui
}

func (ui *userInterface) Run() error {
	layout := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(ui.table, 0, 1, true).
		AddItem(ui.footer, logKeep, 0, false)

	ui.app.SetRoot(layout, true).SetFocus(ui.table)

	defer close(ui.finished)
	go ui.drawer()

	return ui.app.Run()
}

// requestDraw schedules a redraw without blocking. Pending requests are
// coalesced.
func (ui *userInterface) requestDraw() {
	select {
	case ui.redraw <- struct{}{}:
	default:
	}
}

func (ui *userInterface) drawer() {
	for {
		select {
		case <-ui.finished:
			return
		case <-ui.redraw:
			ui.app.Draw()
		}
	}
}

// Stop closes the interface. When called before the interface is up, it
// waits until then.
func (ui *userInterface) Stop() {
	select {
	case <-ui.started:
		ui.app.Stop()
	case <-ui.finished:
	}
}

// Line implements monitor.Board.
func (ui *userInterface) Line(t monitor.Target) monitor.Sink {
	d := ui.rows.add(t)
	return monitor.SinkFunc(func(u monitor.StatusUpdate) {
		ui.rows.update(d, u)
		ui.requestDraw()
	})
}

// rows is the content of the table, see tview.TableContent.
type rows struct {
	tview.TableContentReadOnly

	styles styleSet
	list   []*destination
	mtx    sync.RWMutex
}

func (r *rows) add(t monitor.Target) *destination {
	d := &destination{target: t}

	r.mtx.Lock()
	r.list = append(r.list, d)
	r.mtx.Unlock()

	return d
}

func (r *rows) update(d *destination, u monitor.StatusUpdate) {
	r.mtx.Lock()
	d.apply(u)
	r.mtx.Unlock()
}

func (r *rows) GetCell(row, column int) *tview.TableCell {
	if row == 0 {
		if column < 0 || column >= cols {
			return nil
		}
		return tview.NewTableCell(headers[column]).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false)
	}

	r.mtx.RLock()
	defer r.mtx.RUnlock()

	if row < 1 || row > len(r.list) {
		return nil
	}
	return r.list[row-1].cell(column, r.styles)
}

func (r *rows) GetRowCount() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return len(r.list) + 1
}

func (r *rows) GetColumnCount() int {
	return cols
}

func (d *destination) cell(column int, styles styleSet) *tview.TableCell {
	switch column {
	case colHost:
		return tview.NewTableCell(d.target.Label)
	case colAddress:
		return tview.NewTableCell(d.target.Addr.String())
	case colSent:
		return tview.NewTableCell(fmt.Sprintf("%d", d.sent)).SetAlign(tview.AlignRight)
	case colState:
		if d.sent == 0 {
			return tview.NewTableCell("n/a")
		}
		return tview.NewTableCell(fmt.Sprintf("%c %s", tick(d.last.Seq), d.last.State)).
			SetTextColor(styles.color(d.last.State))
	case colMessage:
		return tview.NewTableCell(d.last.Message).SetExpansion(1)
	}
	return nil
}
