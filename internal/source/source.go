// Package source abstracts the two outside capabilities the statistics
// engine depends on: something to read the accounting table from, and a
// clock. Production implementations hit /proc/stat and the system clock;
// scripted implementations replay fixed queues so the engine can be tested
// without real files or real time.
package source

import (
	"errors"
	"io"
	"os"
	"strings"
	"time"
)

// Source is an open-for-reading capability yielding the full contents of the
// accounting table.
type Source interface {
	Open() (io.ReadCloser, error)
}

// Clock yields the current instant.
type Clock interface {
	Now() time.Time
}

// ProcStat is the production Source, backed by the well-known pseudo-file.
type ProcStat struct{}

// procStatPath is the kernel's CPU accounting table.
const procStatPath = "/proc/stat"

var _ Source = ProcStat{}

func (ProcStat) Open() (io.ReadCloser, error) {
	return os.Open(procStatPath)
}

// SystemClock is the production Clock.
type SystemClock struct{}

var _ Clock = SystemClock{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// ErrScriptExhausted is returned by a ScriptSource whose queued tables have
// all been consumed.
var ErrScriptExhausted = errors.New("source: scripted stats exhausted")

// ScriptSource replays a fixed queue of accounting tables, one per Open
// call, then fails explicitly.
type ScriptSource struct {
	tables []string
}

var _ Source = (*ScriptSource)(nil)

// NewScriptSource queues tables to be returned by successive Open calls.
func NewScriptSource(tables ...string) *ScriptSource {
	return &ScriptSource{tables: tables}
}

// Push appends another table to the queue.
func (s *ScriptSource) Push(table string) {
	s.tables = append(s.tables, table)
}

func (s *ScriptSource) Open() (io.ReadCloser, error) {
	if len(s.tables) == 0 {
		return nil, ErrScriptExhausted
	}
	table := s.tables[0]
	s.tables = s.tables[1:]
	return io.NopCloser(strings.NewReader(table)), nil
}

// ScriptClock replays a fixed queue of instants. Exhausting it panics: a
// clock cannot fail, and a test that reads more times than it scripted is
// itself broken.
type ScriptClock struct {
	times []time.Time
}

var _ Clock = (*ScriptClock)(nil)

// NewScriptClock queues instants to be returned by successive Now calls.
func NewScriptClock(times ...time.Time) *ScriptClock {
	return &ScriptClock{times: times}
}

// Push appends another instant to the queue.
func (c *ScriptClock) Push(t time.Time) {
	c.times = append(c.times, t)
}

func (c *ScriptClock) Now() time.Time {
	if len(c.times) == 0 {
		panic("source: scripted times exhausted")
	}
	t := c.times[0]
	c.times = c.times[1:]
	return t
}
