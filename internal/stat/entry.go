package stat

import (
	"fmt"
	"strconv"
	"strings"
)

// CPUID identifies a single processor by its index in the accounting table.
// The aggregate line carries no id and is represented separately.
type CPUID uint16

// EntryKind discriminates the recognized line kinds of the accounting table.
type EntryKind int

const (
	// KindAggregate is the system-wide "cpu" line.
	KindAggregate EntryKind = iota
	// KindCPU is a per-processor "cpuN" line.
	KindCPU
	// KindPage counts pages paged in and out from disk.
	KindPage
	// KindSwap counts swap pages brought in and out.
	KindSwap
	// KindIntr counts interrupts serviced since boot.
	KindIntr
	// KindDiskIO is the disk i/o counter line.
	KindDiskIO
	// KindCtxt counts context switches.
	KindCtxt
	// KindBtime is the boot time line.
	KindBtime
	// KindProcesses counts forks since boot.
	KindProcesses
	// KindProcsRunning counts processes in runnable state.
	KindProcsRunning
	// KindProcsBlocked counts processes blocked on i/o.
	KindProcsBlocked
	// KindSoftIRQ counts softirqs for all cpus.
	KindSoftIRQ
)

// ignoredKinds maps leading tokens to the line kinds tach recognizes but
// does not model. Their counters are parsed over and discarded.
var ignoredKinds = map[string]EntryKind{
	"page":          KindPage,
	"swap":          KindSwap,
	"intr":          KindIntr,
	"disk_io":       KindDiskIO,
	"ctxt":          KindCtxt,
	"btime":         KindBtime,
	"processes":     KindProcesses,
	"procs_running": KindProcsRunning,
	"procs_blocked": KindProcsBlocked,
	"softirq":       KindSoftIRQ,
}

// Entry is one parsed line of the accounting table. Time and ID are only
// meaningful for the kinds that carry them; consumers switch on Kind.
type Entry struct {
	Kind EntryKind
	// ID is the processor index, valid when Kind is KindCPU.
	ID CPUID
	// Time is the parsed counter tuple, valid when Kind is KindAggregate or
	// KindCPU.
	Time CPUTime
}

// UnrecognizedEntryError reports a line whose leading token is neither a cpu
// token nor any known counter kind.
type UnrecognizedEntryError struct {
	Kind string
}

func (e *UnrecognizedEntryError) Error() string {
	return fmt.Sprintf("stat: unrecognized entry kind %q", e.Kind)
}

// CPUIDParseError reports a "cpu" token whose suffix is not a non-negative
// integer, e.g. "cpuA". Distinct from UnrecognizedEntryError so diagnostics
// can tell a typoed cpu line from a foreign one.
type CPUIDParseError struct {
	Token string
	Err   error
}

func (e *CPUIDParseError) Error() string {
	return fmt.Sprintf("stat: invalid cpu id %q: %v", e.Token, e.Err)
}

func (e *CPUIDParseError) Unwrap() error { return e.Err }

// CounterParseError reports a counter token that is not a non-negative
// integer, carrying the underlying strconv diagnostic.
type CounterParseError struct {
	Token string
	Err   error
}

func (e *CounterParseError) Error() string {
	return fmt.Sprintf("stat: invalid counter value %q: %v", e.Token, e.Err)
}

func (e *CounterParseError) Unwrap() error { return e.Err }

// MalformedCPUTimeError reports a cpu line that does not carry exactly ten
// counters.
type MalformedCPUTimeError struct {
	Got int
}

func (e *MalformedCPUTimeError) Error() string {
	return fmt.Sprintf("stat: cpu entry has %d counters, want %d", e.Got, numFields)
}

// ParseEntry parses one line of the accounting table. Parsing is
// all-or-nothing: any failure voids the whole line.
func ParseEntry(line string) (Entry, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Entry{}, &UnrecognizedEntryError{Kind: ""}
	}
	kind, rest := tokens[0], tokens[1:]

	if k, ok := ignoredKinds[kind]; ok {
		return Entry{Kind: k}, nil
	}

	id, aggregate, err := parseCPUID(kind)
	if err != nil {
		return Entry{}, err
	}

	time, err := parseCPUTime(rest)
	if err != nil {
		return Entry{}, err
	}

	if aggregate {
		return Entry{Kind: KindAggregate, Time: time}, nil
	}
	return Entry{Kind: KindCPU, ID: id, Time: time}, nil
}

// parseCPUID splits a "cpu" or "cpuN" token into its optional id. The second
// return is true for the bare aggregate token.
func parseCPUID(token string) (CPUID, bool, error) {
	suffix, ok := strings.CutPrefix(token, "cpu")
	if !ok {
		return 0, false, &UnrecognizedEntryError{Kind: token}
	}
	if suffix == "" {
		return 0, true, nil
	}

	id, err := strconv.ParseUint(suffix, 10, 16)
	if err != nil {
		return 0, false, &CPUIDParseError{Token: token, Err: err}
	}
	return CPUID(id), false, nil
}

// parseCPUTime parses the counter tokens of a cpu line, requiring exactly
// ten non-negative integers.
func parseCPUTime(tokens []string) (CPUTime, error) {
	values := make([]UserHz, 0, numFields)
	for _, tok := range tokens {
		v, err := ParseUserHz(tok)
		if err != nil {
			return CPUTime{}, &CounterParseError{Token: tok, Err: err}
		}
		values = append(values, v)
	}

	if len(values) != numFields {
		return CPUTime{}, &MalformedCPUTimeError{Got: len(values)}
	}
	return newCPUTime([numFields]UserHz(values)), nil
}
