// Package sentinel owns the stateful half of the statistics engine: it holds
// the previous snapshot of the accounting table and turns each new snapshot
// into a relative measurement of how busy every processor has been.
package sentinel

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/tachmon/tach/internal/model"
	"github.com/tachmon/tach/internal/source"
	"github.com/tachmon/tach/internal/stat"
)

// ErrClockNotMonotonic is returned when two consecutive snapshots do not
// have strictly increasing timestamps. The clock capability is expected to
// be monotonic; a violation means the abstraction is misbehaving.
var ErrClockNotMonotonic = errors.New("sentinel: snapshot timestamps not strictly increasing")

// TopologyError reports that the set of processors changed between two
// snapshots. Processor count is fixed at runtime in scope, so this is an
// internal-consistency failure, not a condition to paper over.
type TopologyError struct {
	Old, New int
	// ID is set when the counts matched but an id did not, walking both
	// snapshots in ascending order.
	ID stat.CPUID
	// Mismatch is true when ID is meaningful.
	Mismatch bool
}

func (e *TopologyError) Error() string {
	if e.Mismatch {
		return fmt.Sprintf("sentinel: processor topology changed at cpu%d", e.ID)
	}
	return fmt.Sprintf("sentinel: processor count changed from %d to %d", e.Old, e.New)
}

// IsFatal reports whether an observation error indicates a broken internal
// invariant (a decreasing counter, a non-monotonic clock, a changed
// processor topology) rather than a bad tick. Fatal errors should end the
// run; anything else can be retried from the preserved baseline.
func IsFatal(err error) bool {
	var topo *TopologyError
	return errors.Is(err, ErrClockNotMonotonic) ||
		errors.Is(err, stat.ErrCounterUnderflow) ||
		errors.As(err, &topo)
}

// Sentinel observes kernel statistics through an injected source and clock.
//
// It is a two-state machine: before the first successful observation it
// holds no baseline, afterwards it always holds the last snapshot and never
// reverts. A failed observation leaves the baseline untouched so the next
// call retries from the same point.
type Sentinel struct {
	clock  source.Clock
	source source.Source
	last   *stat.Snapshot
}

// New builds a Sentinel reading from src against clk.
func New(src source.Source, clk source.Clock) *Sentinel {
	return &Sentinel{clock: clk, source: src}
}

// NewSystem builds a Sentinel over /proc/stat and the system clock.
func NewSystem() *Sentinel {
	return New(source.ProcStat{}, source.SystemClock{})
}

// Recording is how the system's processors spent their time between two
// observations.
type Recording struct {
	// Start is when the recording began.
	Start time.Time
	// End is when the recording ended.
	End time.Time
	// System is the aggregate measurement across all processors.
	System stat.Measurement
	// CPUs holds one measurement per processor. Iterate via IDs for a
	// stable ascending order.
	CPUs map[stat.CPUID]stat.Measurement
}

// Observe returns a Recording of CPU time since it was last called.
//
// By virtue of being a comparison against the previous reading, the first
// call establishes the baseline and returns (nil, nil): no measurement yet,
// not an error. Failures surface unmodified and do not advance the baseline.
func (s *Sentinel) Observe() (*Recording, error) {
	snap, err := stat.Read(s.source, s.clock)
	if err != nil {
		return nil, err
	}

	if s.last == nil {
		s.last = snap
		return nil, nil
	}

	rec, err := newRecording(s.last, snap)
	if err != nil {
		return nil, err
	}
	s.last = snap
	return rec, nil
}

// newRecording diffs two snapshots, old first, checking the clock and the
// processor topology on the way.
func newRecording(old, new *stat.Snapshot) (*Recording, error) {
	if !new.Time.After(old.Time) {
		return nil, fmt.Errorf("%w: %v then %v", ErrClockNotMonotonic, old.Time, new.Time)
	}

	oldIDs, newIDs := old.IDs(), new.IDs()
	if len(oldIDs) != len(newIDs) {
		return nil, &TopologyError{Old: len(oldIDs), New: len(newIDs)}
	}

	system, err := stat.NewMeasurement(old.System, new.System)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}

	cpus := make(map[stat.CPUID]stat.Measurement, len(oldIDs))
	for i, id := range oldIDs {
		// walk both id sets pairwise: a positional mismatch means the
		// topology changed even if the sizes agree.
		if newIDs[i] != id {
			return nil, &TopologyError{Old: len(oldIDs), New: len(newIDs), ID: id, Mismatch: true}
		}
		m, err := stat.NewMeasurement(old.CPUs[id], new.CPUs[id])
		if err != nil {
			return nil, fmt.Errorf("cpu%d: %w", id, err)
		}
		cpus[id] = m
	}

	return &Recording{
		Start:  old.Time,
		End:    new.Time,
		System: system,
		CPUs:   cpus,
	}, nil
}

// IDs returns the recorded processor ids in ascending order.
func (r *Recording) IDs() []stat.CPUID {
	ids := make([]stat.CPUID, 0, len(r.CPUs))
	for id := range r.CPUs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Frame converts the recording into the display-ready view consumed by the
// TUI and the NDJSON exporter.
func (r *Recording) Frame() (model.Frame, error) {
	system, err := r.System.Percentage()
	if err != nil {
		return model.Frame{}, err
	}

	cores := make([]model.Core, 0, len(r.CPUs))
	for _, id := range r.IDs() {
		pct, err := r.CPUs[id].Percentage()
		if err != nil {
			return model.Frame{}, fmt.Errorf("cpu%d: %w", id, err)
		}
		cores = append(cores, model.Core{ID: int(id), Percent: pct})
	}

	return model.Frame{
		Start:  r.Start,
		End:    r.End,
		System: system,
		Cores:  cores,
	}, nil
}
