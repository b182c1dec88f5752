package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"counterdrone-sim/internal/logging"
	"counterdrone-sim/internal/sim"
)

var replayCmd = &cobra.Command{
	Use:     "replay",
	Short:   "Replay a JSONL event log",
	Long:    "replay feeds events from a log file back into GreptimeDB or STDOUT, paced by their timestamps.",
	PreRunE: bindFlags,
	RunE: func(cmd *cobra.Command, args []string) error {
		input := viper.GetString("input")
		if input == "" {
			return fmt.Errorf("input file required")
		}
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		output, err := resolveOutput(viper.GetString("output"), false)
		if err != nil {
			return err
		}
		if output == outputTUI {
			return fmt.Errorf("replay supports color or json output")
		}
		ctx, stop := newContext(cfg, false)
		defer stop()

		writer, cleanup, err := newWriters(cfg, writerOptions{output: output, printOnly: viper.GetBool("print-only")}, nil)
		if err != nil {
			return err
		}
		defer cleanup()
		n, err := sim.ReplayLogFile(ctx, input, writer, viper.GetFloat64("speed"))
		logging.FromContext(ctx).Info("replay finished", "input", input, "events", n)
		return err
	},
}

func init() {
	f := replayCmd.Flags()
	f.String("input", "", "Path to JSONL event log")
	f.Float64("speed", 1.0, "Playback speed multiplier; 0 replays without pacing")
	f.Bool("print-only", false, "Print events to STDOUT instead of writing to GreptimeDB")
	f.String("output", outputJSON, "Console output: color or json")
	replayCmd.MarkFlagRequired("input")
}
