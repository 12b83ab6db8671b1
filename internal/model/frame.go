// Package model holds the display-ready view of one sampling interval,
// exchanged between the sentinel, the TUI, and the NDJSON exporter.
package model

import "time"

// Core is one processor's rounded utilization for the interval.
type Core struct {
	ID      int `json:"id"`
	Percent int `json:"percent"`
}

// Frame is the full result of one sampling interval. Cores are ordered by
// ascending processor id.
type Frame struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	System int       `json:"system"`
	Cores  []Core    `json:"cores"`
}

// Interval returns the wall-clock span the frame covers.
func (f Frame) Interval() time.Duration { return f.End.Sub(f.Start) }
