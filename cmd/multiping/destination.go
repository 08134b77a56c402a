package main

import (
	"github.com/digineo/multiping/monitor"
)

// destination is a row of the table.
type destination struct {
	target monitor.Target
	sent   int
	last   monitor.StatusUpdate
}

func (d *destination) apply(u monitor.StatusUpdate) {
	d.sent++
	d.last = u
}
