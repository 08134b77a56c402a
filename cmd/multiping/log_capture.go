package main

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// logInterceptor keeps the most recent log lines while the table owns
// the terminal. Every line is also copied to the footer, if any.
type logInterceptor struct {
	keep     int
	footer   io.Writer
	messages []string
	mtx      sync.Mutex
}

func interceptLog(keep int) *logInterceptor {
	return &logInterceptor{keep: keep}
}

func (li *logInterceptor) Write(p []byte) (n int, err error) {
	li.mtx.Lock()
	defer li.mtx.Unlock()

	for _, line := range bytes.Split(bytes.TrimSpace(p), []byte{'\n'}) {
		li.messages = append(li.messages, string(line))
	}

	if li.keep > 0 {
		li.truncate()
	}

	if li.footer != nil {
		_, _ = li.footer.Write(p)
	}

	return len(p), nil
}

func (li *logInterceptor) setFooter(w io.Writer) {
	li.mtx.Lock()
	li.footer = w
	li.mtx.Unlock()
}

// Messages returns a copy of the kept lines.
func (li *logInterceptor) Messages() []string {
	li.mtx.Lock()
	defer li.mtx.Unlock()
	return append([]string(nil), li.messages...)
}

// flush writes the kept lines to w, i.e. after the table was closed.
func (li *logInterceptor) flush(w io.Writer) {
	for _, msg := range li.Messages() {
		fmt.Fprintln(w, msg)
	}
}

func (li *logInterceptor) truncate() {
	if delta := len(li.messages) - li.keep; delta > 0 {
		li.messages = li.messages[delta:len(li.messages)]
	}
}
