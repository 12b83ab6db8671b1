// Package stat reads and models the kernel CPU accounting table.
//
// The table is the line-oriented text format documented in proc_stat(5):
// one aggregate "cpu" line, one "cpuN" line per processor, and a handful of
// other counter lines that tach recognizes but does not model.
package stat

import (
	"errors"
	"fmt"
	"strconv"
)

// UserHz is a single cumulative tick counter at USER_HZ resolution.
//
// The kernel accounts CPU time in ticks of a fixed frequency, obtainable via
// sysconf(_SC_CLK_TCK) and conventionally 100 Hz. Counters only ever grow;
// a counter observed to decrease between two snapshots is a data or ordering
// bug, so subtraction fails instead of wrapping.
type UserHz uint64

// Freq is the number of ticks in a second.
const Freq UserHz = 100

// ErrCounterUnderflow is returned when a counter appears to have decreased
// between two chronologically ordered snapshots.
var ErrCounterUnderflow = errors.New("stat: counter decreased between snapshots")

// ParseUserHz parses a decimal tick count. Signs, blanks, and anything else
// strconv.ParseUint rejects are parse failures.
func ParseUserHz(s string) (UserHz, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserHz(v), nil
}

// Add returns hz + other. At 64 bits a real overflow is unreachable within
// any monitoring session, so Add does not fail.
func (hz UserHz) Add(other UserHz) UserHz {
	return hz + other
}

// Sub returns hz - other, failing with ErrCounterUnderflow when other > hz.
func (hz UserHz) Sub(other UserHz) (UserHz, error) {
	if other > hz {
		return 0, fmt.Errorf("%w: %d - %d", ErrCounterUnderflow, hz, other)
	}
	return hz - other, nil
}

// Ratio returns hz / other as a float64.
func (hz UserHz) Ratio(other UserHz) float64 {
	return float64(hz) / float64(other)
}
