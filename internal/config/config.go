// Package config carries tach's runtime options.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config carries runtime options for tach. Flags are bound by the command
// layer; environment overrides are applied here.
type Config struct {
	// Interval is the sampling cadence.
	Interval time.Duration
	// MeterWidth is the width of each utilization meter, in cells.
	MeterWidth int
	// History is how many frames the TUI keeps for the scrolling trail.
	History int
	// JSONStream emits NDJSON frames instead of running the TUI.
	JSONStream bool
	// LogLevel is a logrus level name.
	LogLevel string
}

func Default() Config {
	return Config{
		Interval:   time.Second,
		MeterWidth: 8,
		History:    60,
		JSONStream: false,
		LogLevel:   "info",
	}
}

// ApplyEnv layers TACH_* environment overrides on top of the current values.
func (c Config) ApplyEnv() Config {
	if v := os.Getenv("TACH_INTERVAL"); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			c.Interval = parsed
		} else if parsed, err2 := time.ParseDuration(v + "s"); err2 == nil {
			c.Interval = parsed
		}
	}
	if v := os.Getenv("TACH_METER_WIDTH"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.MeterWidth = parsed
		}
	}
	if v := os.Getenv("TACH_HISTORY"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			c.History = parsed
		}
	}
	if v := os.Getenv("TACH_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return c
}
