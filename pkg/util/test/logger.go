package test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/go-kit/log"
)

var _ log.Logger = (*TestingLogger)(nil)

// TestingLogger forwards log lines to t and remembers their messages.
type TestingLogger struct {
	t    testing.TB
	mtx  sync.Mutex
	msgs []string
	done bool
}

func NewTestingLogger(t testing.TB) *TestingLogger {
	l := &TestingLogger{t: t}
	t.Cleanup(func() {
		l.mtx.Lock()
		l.done = true
		l.mtx.Unlock()
	})
	return l
}

func (l *TestingLogger) Log(keyvals ...interface{}) error {
	l.mtx.Lock()
	defer l.mtx.Unlock()

	if l.done {
		return nil
	}
	for i := 0; i+1 < len(keyvals); i += 2 {
		if keyvals[i] == "msg" {
			l.msgs = append(l.msgs, fmt.Sprint(keyvals[i+1]))
		}
	}
	l.t.Log(keyvals...)
	return nil
}

// Messages returns the msg value of every line logged so far.
func (l *TestingLogger) Messages() []string {
	l.mtx.Lock()
	defer l.mtx.Unlock()
	return append([]string(nil), l.msgs...)
}

// Count returns how many lines carried msg.
func (l *TestingLogger) Count(msg string) int {
	n := 0
	for _, m := range l.Messages() {
		if m == msg {
			n++
		}
	}
	return n
}
