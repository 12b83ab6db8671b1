package stat

import (
	"bufio"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tachmon/tach/internal/source"
)

// ErrMissingAggregate is returned when the table carries no aggregate "cpu"
// line.
var ErrMissingAggregate = errors.New("stat: missing aggregate cpu entry")

// DuplicateEntryError reports a cpu line that appeared more than once.
// Exactly one aggregate line and one line per processor are expected;
// last-one-wins is not the policy.
type DuplicateEntryError struct {
	// Kind is the offending leading token, e.g. "cpu" or "cpu3".
	Kind string
}

func (e *DuplicateEntryError) Error() string {
	return fmt.Sprintf("stat: duplicate %q entry", e.Kind)
}

// Snapshot is one full, timestamped capture of the accounting table: the
// aggregate CPUTime plus one CPUTime per processor.
type Snapshot struct {
	// System is the aggregate of all processors.
	System CPUTime
	// CPUs maps each processor to its time. Iterate via IDs for a stable
	// ascending order.
	CPUs map[CPUID]CPUTime
	// Time is the instant the capture began.
	Time time.Time
}

// Read captures the clock's current instant, then reads and parses the full
// accounting table from src. Every line must parse; non-CPU lines are then
// discarded. Exactly one aggregate line is required.
func Read(src source.Source, clk source.Clock) (*Snapshot, error) {
	now := clk.Now()

	r, err := src.Open()
	if err != nil {
		return nil, fmt.Errorf("stat: open source: %w", err)
	}
	defer r.Close()

	var (
		system    CPUTime
		hasSystem bool
		cpus      = make(map[CPUID]CPUTime)
	)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		entry, err := ParseEntry(line)
		if err != nil {
			return nil, err
		}

		switch entry.Kind {
		case KindAggregate:
			if hasSystem {
				return nil, &DuplicateEntryError{Kind: "cpu"}
			}
			system, hasSystem = entry.Time, true
		case KindCPU:
			if _, ok := cpus[entry.ID]; ok {
				return nil, &DuplicateEntryError{Kind: fmt.Sprintf("cpu%d", entry.ID)}
			}
			cpus[entry.ID] = entry.Time
		case KindPage, KindSwap, KindIntr, KindDiskIO, KindCtxt, KindBtime,
			KindProcesses, KindProcsRunning, KindProcsBlocked, KindSoftIRQ:
			// recognized, not modeled.
		default:
			return nil, fmt.Errorf("stat: unhandled entry kind %d", entry.Kind)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("stat: read source: %w", err)
	}

	if !hasSystem {
		return nil, ErrMissingAggregate
	}
	return &Snapshot{System: system, CPUs: cpus, Time: now}, nil
}

// IDs returns the processor ids in ascending order.
func (s *Snapshot) IDs() []CPUID {
	ids := make([]CPUID, 0, len(s.CPUs))
	for id := range s.CPUs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
