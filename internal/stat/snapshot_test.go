package stat

import (
	"errors"
	"testing"
	"time"

	"github.com/tachmon/tach/internal/source"
)

const sampleTable = `cpu  10132153 290696 3084719 46828483 16683 0 25195 0 175628 0
cpu0 1393280 32966 572056 13343292 6130 0 17875 0 23933 0
cpu1 1393280 32966 572056 13343292 6130 0 17875 0 23933 0
intr 1462898
ctxt 115315192
btime 769041601
processes 86031
procs_running 6
procs_blocked 2
softirq 229245889 94 60001584 13619 5175704 2471304 28 51212741 59130143 0 51240672
`

func TestReadSnapshot(t *testing.T) {
	src := source.NewScriptSource(sampleTable)
	now := time.Date(2025, time.March, 2, 12, 0, 0, 0, time.UTC)
	clk := source.NewScriptClock(now)

	snap, err := Read(src, clk)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Time.Equal(now) {
		t.Errorf("Time: got %v, want %v", snap.Time, now)
	}
	if got := snap.System.Total(); got != 60553557 {
		t.Errorf("System.Total: got %d, want 60553557", got)
	}
	if len(snap.CPUs) != 2 {
		t.Fatalf("CPUs: got %d entries, want 2", len(snap.CPUs))
	}
	if ids := snap.IDs(); ids[0] != 0 || ids[1] != 1 {
		t.Errorf("IDs: got %v, want [0 1]", ids)
	}
}

func TestReadSnapshotMissingAggregate(t *testing.T) {
	const table = `cpu0 1393280 32966 572056 13343292 6130 0 17875 0 23933 0
btime 769041601
`
	src := source.NewScriptSource(table)
	clk := source.NewScriptClock(time.Now())

	_, err := Read(src, clk)
	if !errors.Is(err, ErrMissingAggregate) {
		t.Fatalf("got %v, want ErrMissingAggregate", err)
	}
}

func TestReadSnapshotDuplicateAggregate(t *testing.T) {
	const table = `cpu 1 0 0 0 0 0 0 0 0 0
cpu 2 0 0 0 0 0 0 0 0 0
`
	src := source.NewScriptSource(table)
	clk := source.NewScriptClock(time.Now())

	_, err := Read(src, clk)
	var dup *DuplicateEntryError
	if !errors.As(err, &dup) {
		t.Fatalf("got %v, want DuplicateEntryError", err)
	}
	if dup.Kind != "cpu" {
		t.Errorf("Kind: got %q, want %q", dup.Kind, "cpu")
	}
}

func TestReadSnapshotDuplicateCPU(t *testing.T) {
	const table = `cpu 1 0 0 0 0 0 0 0 0 0
cpu0 1 0 0 0 0 0 0 0 0 0
cpu0 2 0 0 0 0 0 0 0 0 0
`
	src := source.NewScriptSource(table)
	clk := source.NewScriptClock(time.Now())

	_, err := Read(src, clk)
	var dup *DuplicateEntryError
	if !errors.As(err, &dup) {
		t.Fatalf("got %v, want DuplicateEntryError", err)
	}
	if dup.Kind != "cpu0" {
		t.Errorf("Kind: got %q, want %q", dup.Kind, "cpu0")
	}
}

func TestReadSnapshotMalformedLine(t *testing.T) {
	const table = `cpu 10132153 290696 3084719 46828483 16683 0 25195 0 175628 0
garbage 1 2 3
`
	src := source.NewScriptSource(table)
	clk := source.NewScriptClock(time.Now())

	_, err := Read(src, clk)
	var unrec *UnrecognizedEntryError
	if !errors.As(err, &unrec) {
		t.Fatalf("got %v, want UnrecognizedEntryError", err)
	}
	if unrec.Kind != "garbage" {
		t.Errorf("Kind: got %q, want %q", unrec.Kind, "garbage")
	}
}

func TestReadSnapshotSourceError(t *testing.T) {
	src := source.NewScriptSource() // nothing queued
	clk := source.NewScriptClock(time.Now())

	_, err := Read(src, clk)
	if !errors.Is(err, source.ErrScriptExhausted) {
		t.Fatalf("got %v, want wrapped ErrScriptExhausted", err)
	}
}
