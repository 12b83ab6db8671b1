// Command tach is a compact terminal CPU monitor.
package main

import (
	"encoding/json"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/tachmon/tach/internal/config"
	"github.com/tachmon/tach/internal/sentinel"
	"github.com/tachmon/tach/internal/ui"
)

func main() {
	cfg := config.Default().ApplyEnv()

	root := &cobra.Command{
		Use:   "tach",
		Short: "A compact CPU monitor",
		Long: "tach samples the kernel CPU accounting table once per interval and\n" +
			"shows how busy each processor has been since the previous sample.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := log.ParseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			log.SetLevel(level)
			log.SetOutput(os.Stderr)

			s := sentinel.NewSystem()
			if cfg.JSONStream {
				return stream(cfg, s)
			}
			return ui.Run(cfg, s)
		},
	}

	flags := root.Flags()
	flags.DurationVar(&cfg.Interval, "interval", cfg.Interval, "sampling interval")
	flags.IntVar(&cfg.MeterWidth, "meter-width", cfg.MeterWidth, "meter width in cells")
	flags.IntVar(&cfg.History, "history", cfg.History, "frames kept for the trail")
	flags.BoolVar(&cfg.JSONStream, "json", cfg.JSONStream, "stream NDJSON frames instead of the TUI")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := root.Execute(); err != nil {
		log.WithError(err).Fatal("tach exited")
	}
}

// stream samples on a fixed cadence and writes one NDJSON frame per
// interval. A failed tick is logged and skipped — the sentinel keeps its
// baseline — but internal-consistency failures end the run.
func stream(cfg config.Config, s *sentinel.Sentinel) error {
	enc := json.NewEncoder(os.Stdout)
	for {
		rec, err := s.Observe()
		if err != nil {
			if sentinel.IsFatal(err) {
				return err
			}
			log.WithError(err).Warn("sample failed, baseline preserved")
			time.Sleep(cfg.Interval)
			continue
		}
		if rec != nil {
			frame, err := rec.Frame()
			if err != nil {
				return err
			}
			if err := enc.Encode(frame); err != nil {
				return err
			}
		}
		time.Sleep(cfg.Interval)
	}
}
