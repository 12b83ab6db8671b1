package sentinel

import (
	"errors"
	"testing"
	"time"

	"github.com/tachmon/tach/internal/source"
	"github.com/tachmon/tach/internal/stat"
)

const baseTable = `cpu  100 0 0 800 0 0 0 0 0 0
cpu0 50 0 0 400 0 0 0 0 0 0
cpu1 50 0 0 400 0 0 0 0 0 0
btime 769041601
`

// nextTable advances the aggregate by 30 active / 70 idle ticks (30%),
// cpu0 by 10/90 (10%), and cpu1 by 50/50 (50%).
const nextTable = `cpu  130 0 0 870 0 0 0 0 0 0
cpu0 60 0 0 490 0 0 0 0 0 0
cpu1 100 0 0 450 0 0 0 0 0 0
btime 769041601
`

var epoch = time.Date(2025, time.March, 2, 12, 0, 0, 0, time.UTC)

func TestObserveFirstCallHasNoMeasurement(t *testing.T) {
	s := New(source.NewScriptSource(baseTable), source.NewScriptClock(epoch))

	rec, err := s.Observe()
	if err != nil {
		t.Fatal(err)
	}
	if rec != nil {
		t.Fatalf("first Observe: got %+v, want nil", rec)
	}
}

func TestObserveSecondCallRecords(t *testing.T) {
	src := source.NewScriptSource(baseTable, nextTable)
	clk := source.NewScriptClock(epoch, epoch.Add(time.Second))
	s := New(src, clk)

	if rec, err := s.Observe(); err != nil || rec != nil {
		t.Fatalf("first Observe: got (%+v, %v), want (nil, nil)", rec, err)
	}

	rec, err := s.Observe()
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("second Observe: got nil, want a recording")
	}
	if !rec.Start.Equal(epoch) || !rec.End.Equal(epoch.Add(time.Second)) {
		t.Errorf("bounds: got [%v, %v]", rec.Start, rec.End)
	}

	pct, err := rec.System.Percentage()
	if err != nil {
		t.Fatal(err)
	}
	if pct != 30 {
		t.Errorf("system percentage: got %d, want 30", pct)
	}

	want := map[stat.CPUID]int{0: 10, 1: 50}
	for id, wantPct := range want {
		m, ok := rec.CPUs[id]
		if !ok {
			t.Fatalf("cpu%d missing from recording", id)
		}
		got, err := m.Percentage()
		if err != nil {
			t.Fatal(err)
		}
		if got != wantPct {
			t.Errorf("cpu%d percentage: got %d, want %d", id, got, wantPct)
		}
	}
}

// a failed read must not advance the baseline: the next good read still
// diffs against the snapshot taken before the failure.
func TestObserveFailureKeepsBaseline(t *testing.T) {
	const malformed = "cpu 1 2 3\n"
	src := source.NewScriptSource(baseTable, malformed, nextTable)
	clk := source.NewScriptClock(epoch, epoch.Add(time.Second), epoch.Add(2*time.Second))
	s := New(src, clk)

	if _, err := s.Observe(); err != nil {
		t.Fatal(err)
	}

	_, err := s.Observe()
	var wrong *stat.MalformedCPUTimeError
	if !errors.As(err, &wrong) {
		t.Fatalf("got %v, want MalformedCPUTimeError", err)
	}

	rec, err := s.Observe()
	if err != nil {
		t.Fatal(err)
	}
	if rec == nil {
		t.Fatal("recovery Observe: got nil, want a recording")
	}
	// still diffed against the original baseline.
	if !rec.Start.Equal(epoch) {
		t.Errorf("Start: got %v, want %v", rec.Start, epoch)
	}
	if pct, _ := rec.System.Percentage(); pct != 30 {
		t.Errorf("system percentage: got %d, want 30", pct)
	}
}

func TestObserveTopologyChanged(t *testing.T) {
	const shrunkTable = `cpu  130 0 0 870 0 0 0 0 0 0
cpu0 60 0 0 490 0 0 0 0 0 0
btime 769041601
`
	src := source.NewScriptSource(baseTable, shrunkTable)
	clk := source.NewScriptClock(epoch, epoch.Add(time.Second))
	s := New(src, clk)

	if _, err := s.Observe(); err != nil {
		t.Fatal(err)
	}

	_, err := s.Observe()
	var topo *TopologyError
	if !errors.As(err, &topo) {
		t.Fatalf("got %v, want TopologyError", err)
	}
	if !IsFatal(err) {
		t.Error("topology change should be fatal")
	}
}

func TestObserveRenumberedTopology(t *testing.T) {
	const renumbered = `cpu  130 0 0 870 0 0 0 0 0 0
cpu0 60 0 0 490 0 0 0 0 0 0
cpu2 100 0 0 450 0 0 0 0 0 0
btime 769041601
`
	src := source.NewScriptSource(baseTable, renumbered)
	clk := source.NewScriptClock(epoch, epoch.Add(time.Second))
	s := New(src, clk)

	if _, err := s.Observe(); err != nil {
		t.Fatal(err)
	}

	_, err := s.Observe()
	var topo *TopologyError
	if !errors.As(err, &topo) {
		t.Fatalf("got %v, want TopologyError", err)
	}
	if !topo.Mismatch || topo.ID != 1 {
		t.Errorf("mismatch: got (%t, cpu%d), want (true, cpu1)", topo.Mismatch, topo.ID)
	}
}

func TestObserveClockNotMonotonic(t *testing.T) {
	src := source.NewScriptSource(baseTable, nextTable)
	clk := source.NewScriptClock(epoch, epoch) // same instant twice
	s := New(src, clk)

	if _, err := s.Observe(); err != nil {
		t.Fatal(err)
	}

	_, err := s.Observe()
	if !errors.Is(err, ErrClockNotMonotonic) {
		t.Fatalf("got %v, want ErrClockNotMonotonic", err)
	}
	if !IsFatal(err) {
		t.Error("a non-monotonic clock should be fatal")
	}
}

func TestObserveCounterDecrease(t *testing.T) {
	const regressed = `cpu  90 0 0 870 0 0 0 0 0 0
cpu0 60 0 0 490 0 0 0 0 0 0
cpu1 100 0 0 450 0 0 0 0 0 0
`
	src := source.NewScriptSource(baseTable, regressed)
	clk := source.NewScriptClock(epoch, epoch.Add(time.Second))
	s := New(src, clk)

	if _, err := s.Observe(); err != nil {
		t.Fatal(err)
	}

	_, err := s.Observe()
	if !errors.Is(err, stat.ErrCounterUnderflow) {
		t.Fatalf("got %v, want ErrCounterUnderflow", err)
	}
	if !IsFatal(err) {
		t.Error("a decreasing counter should be fatal")
	}
}

func TestRecordingFrame(t *testing.T) {
	src := source.NewScriptSource(baseTable, nextTable)
	clk := source.NewScriptClock(epoch, epoch.Add(time.Second))
	s := New(src, clk)

	if _, err := s.Observe(); err != nil {
		t.Fatal(err)
	}
	rec, err := s.Observe()
	if err != nil {
		t.Fatal(err)
	}

	frame, err := rec.Frame()
	if err != nil {
		t.Fatal(err)
	}
	if frame.System != 30 {
		t.Errorf("System: got %d, want 30", frame.System)
	}
	if len(frame.Cores) != 2 {
		t.Fatalf("Cores: got %d, want 2", len(frame.Cores))
	}
	// cores come out in ascending id order.
	if frame.Cores[0].ID != 0 || frame.Cores[0].Percent != 10 {
		t.Errorf("core 0: got %+v", frame.Cores[0])
	}
	if frame.Cores[1].ID != 1 || frame.Cores[1].Percent != 50 {
		t.Errorf("core 1: got %+v", frame.Cores[1])
	}
	if frame.Interval() != time.Second {
		t.Errorf("Interval: got %v, want 1s", frame.Interval())
	}
}

func TestIsFatalSparesParseErrors(t *testing.T) {
	if IsFatal(&stat.CounterParseError{Token: "x"}) {
		t.Error("a parse error is a bad tick, not a fatal failure")
	}
	if IsFatal(stat.ErrMissingAggregate) {
		t.Error("a missing aggregate is a bad tick, not a fatal failure")
	}
}
