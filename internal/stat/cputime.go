package stat

import (
	"errors"
	"fmt"
	"math"
)

// numFields is the number of counters on a cpu line, per proc_stat(5).
const numFields = 10

// ErrZeroInterval is returned by Measurement.Percentage when no ticks at all
// elapsed between the two snapshots. A positive wall-clock interval plus
// monotonic counters make this unreachable in practice, so it is surfaced as
// an error rather than masked as 0%.
var ErrZeroInterval = errors.New("stat: no ticks elapsed between snapshots")

// CPUTime is one parsed cpu line: how a processor (or all processors in
// aggregate) has spent its time since boot. Immutable once built.
type CPUTime struct {
	// user is time spent in user mode.
	user UserHz
	// nice is time spent in user mode with low priority.
	nice UserHz
	// system is time spent in system mode.
	system UserHz
	// idle is time spent in the idle task.
	idle UserHz
	// iowait is time waiting for i/o to complete. the kernel documents this
	// counter as unreliable; it is carried through untouched.
	iowait UserHz
	// irq is time servicing interrupts.
	irq UserHz
	// softirq is time servicing softirqs.
	softirq UserHz
	// steal is time spent in other operating systems when virtualized.
	steal UserHz
	// guest is time spent running a virtual cpu for guests.
	guest UserHz
	// guestNice is time spent running a niced guest.
	guestNice UserHz
}

// newCPUTime builds a CPUTime from the ten counters in kernel field order.
func newCPUTime(fields [numFields]UserHz) CPUTime {
	return CPUTime{
		user:      fields[0],
		nice:      fields[1],
		system:    fields[2],
		idle:      fields[3],
		iowait:    fields[4],
		irq:       fields[5],
		softirq:   fields[6],
		steal:     fields[7],
		guest:     fields[8],
		guestNice: fields[9],
	}
}

// fields returns the counters in kernel field order.
func (t CPUTime) fields() [numFields]UserHz {
	return [numFields]UserHz{
		t.user, t.nice, t.system, t.idle, t.iowait,
		t.irq, t.softirq, t.steal, t.guest, t.guestNice,
	}
}

// Active returns the time spent doing anything but idling.
func (t CPUTime) Active() UserHz {
	return t.user + t.nice + t.system + t.iowait +
		t.irq + t.softirq + t.steal + t.guest + t.guestNice
}

// Total returns all accounted time, idle included.
func (t CPUTime) Total() UserHz {
	return t.Active() + t.idle
}

// Measurement is the fieldwise difference between two CPUTimes, i.e. how a
// processor spent its time during one sampling interval.
type Measurement struct {
	diff CPUTime
}

// NewMeasurement diffs two CPUTimes taken from the same processor, old
// first. Any counter that decreased fails with ErrCounterUnderflow.
func NewMeasurement(old, new CPUTime) (Measurement, error) {
	a, b := old.fields(), new.fields()

	var diff [numFields]UserHz
	for i := range diff {
		d, err := b[i].Sub(a[i])
		if err != nil {
			return Measurement{}, fmt.Errorf("field %d: %w", i, err)
		}
		diff[i] = d
	}
	return Measurement{diff: newCPUTime(diff)}, nil
}

// Active returns the non-idle ticks in the interval.
func (m Measurement) Active() UserHz { return m.diff.Active() }

// Total returns all ticks in the interval.
func (m Measurement) Total() UserHz { return m.diff.Total() }

// Percentage returns how busy the processor was during the interval, rounded
// to the nearest whole percent. Halves round away from zero, so an
// active/total ratio of 0.125 reports 13. Fails with ErrZeroInterval when no
// ticks elapsed at all.
func (m Measurement) Percentage() (int, error) {
	total := m.Total()
	if total == 0 {
		return 0, ErrZeroInterval
	}

	pct := m.Active().Ratio(total) * 100
	rounded := int(math.Round(pct))
	if rounded < 0 || rounded > 100 {
		return 0, fmt.Errorf("stat: percentage %d out of range", rounded)
	}
	return rounded, nil
}
