package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"counterdrone-sim/internal/experiment"
	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/logging"
	"counterdrone-sim/internal/sim"
)

var experimentCmd = &cobra.Command{
	Use:   "experiment",
	Short: "Run scenarios headless and summarize the outcome",
	Long: `experiment steps the simulation as fast as possible for a fixed simulated
duration, optionally engaging every detected hostile automatically, and prints
detection, engagement and interception metrics with improvement notes.`,
	PreRunE: bindFlags,
	RunE:    runExperiment,
}

func init() {
	f := experimentCmd.Flags()
	f.StringSlice("scenario", nil, "Scenario ids to run (default from config)")
	f.Float64("duration", 120, "Simulated seconds per run")
	f.Float64("step", 0, "Simulated seconds per tick (default: tick interval)")
	f.Int("runs", 1, "Runs per scenario; each run uses the next seed")
	f.Bool("auto-engage", true, "Engage every newly detected hostile")
	f.String("guidance", "", "Guidance for auto-engagements: pursuit or pn (default from config)")
	f.String("output", "", "Write the JSON summary to this file")
	f.String("log-file", "", "Export the events of every run to a JSONL file")
}

func runExperiment(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	guidance, err := interceptor.ParseGuidanceMode(viper.GetString("guidance"))
	if err != nil {
		return err
	}
	if viper.GetString("guidance") == "" {
		guidance = ""
	}
	ctx, stop := newContext(cfg, false)
	defer stop()
	log := logging.FromContext(ctx)

	var extra sim.EventWriter
	if path := viper.GetString("log-file"); path != "" {
		fw, err := sim.NewFileWriter(path, path+".detections")
		if err != nil {
			return err
		}
		defer fw.Close()
		extra = fw
	}

	ids := viper.GetStringSlice("scenario")
	if len(ids) == 0 {
		ids = []string{cfg.DefaultScenario}
	}
	catalog, err := newCatalog(cfg.Generator, cfg.ScenarioDir)
	if err != nil {
		return err
	}
	var results []*experiment.RunResult
	for _, id := range ids {
		opts := experiment.Options{
			ScenarioID: id,
			Duration:   viper.GetFloat64("duration"),
			Step:       viper.GetFloat64("step"),
			AutoEngage: viper.GetBool("auto-engage"),
			Guidance:   guidance,
		}
		runs, err := experiment.Batch(ctx, cfg, catalog, opts, viper.GetInt("runs"), extra)
		if err != nil {
			return err
		}
		results = append(results, runs...)
	}

	summary := experiment.Summarize(results, time.Now())
	experiment.WriteReport(os.Stdout, summary)
	if path := viper.GetString("output"); path != "" {
		if err := experiment.WriteJSON(path, summary); err != nil {
			return err
		}
		log.Info("summary written", "path", path)
	}
	return nil
}
