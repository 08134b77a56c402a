package main

import (
	"fmt"

	"github.com/digineo/multiping/monitor"
	"github.com/gdamore/tcell/v2"
	"github.com/muesli/termenv"
)

const prefixWidth = 15

var ticks = []rune("⠋⠙⠹⠸⠼⠴⠦⠧⠇⠏")

// styleSet holds the presentation of the two target states, for the
// bars (termenv) and the table (tcell).
type styleSet struct {
	ok, failed           termenv.Style
	okColor, failedColor tcell.Color
}

func newStyleSet(profile termenv.Profile) styleSet {
	return styleSet{
		ok:          profile.String().Foreground(termenv.ANSIGreen),
		failed:      profile.String().Foreground(termenv.ANSIRed),
		okColor:     tcell.ColorGreen,
		failedColor: tcell.ColorRed,
	}
}

func (s styleSet) style(state monitor.State) termenv.Style {
	if state == monitor.StateOK {
		return s.ok
	}
	return s.failed
}

func (s styleSet) color(state monitor.State) tcell.Color {
	if state == monitor.StateOK {
		return s.okColor
	}
	return s.failedColor
}

// prefix renders the bar prefix of a target: spinner and label padded
// to a fixed width.
func (s styleSet) prefix(label string, u monitor.StatusUpdate) string {
	return s.style(u.State).Styled(fmt.Sprintf("%c %-*s", tick(u.Seq), prefixWidth, label))
}

func tick(seq uint64) rune {
	return ticks[seq%uint64(len(ticks))]
}
