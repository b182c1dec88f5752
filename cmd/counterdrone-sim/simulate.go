package main

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"counterdrone-sim/internal/admin"
	"counterdrone-sim/internal/logging"
	"counterdrone-sim/internal/sim"
	"counterdrone-sim/internal/transport"
)

var simulateCmd = &cobra.Command{
	Use:     "simulate",
	Short:   "Run the real-time counter-drone simulator",
	Long:    "simulate runs the world at the configured tick rate, serves the admin API, metrics and websocket stream, and writes events to the selected sinks.",
	PreRunE: bindFlags,
	RunE:    runSimulate,
}

func init() {
	f := simulateCmd.Flags()
	f.Bool("print-only", false, "Print events to STDOUT instead of writing to GreptimeDB")
	f.String("output", outputAuto, "Console output: auto, tui, color or json")
	f.String("log-file", "", "Export events to a JSONL file; radar detections go to <file>.detections")
	f.String("scenario", "", "Scenario to load at startup (default from config)")
	f.Duration("tick", 0, "Tick interval override (e.g. 100ms)")
	f.Float64("speed", 0, "Speed multiplier override")
	f.String("admin-addr", "", "Admin API listen address override")
	f.Bool("no-admin", false, "Do not start the admin API")
	f.Bool("paused", false, "Wait for a start command instead of running immediately")
}

func runSimulate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if d := viper.GetDuration("tick"); d > 0 {
		cfg.TickInterval = d
	}
	if s := viper.GetFloat64("speed"); s > 0 {
		cfg.SpeedMultiplier = s
	}
	if a := viper.GetString("admin-addr"); a != "" {
		cfg.AdminAddr = a
	}
	output, err := resolveOutput(viper.GetString("output"), isTerminal(os.Stdout))
	if err != nil {
		return err
	}

	ctx, stop := newContext(cfg, output == outputTUI)
	defer stop()
	log := logging.FromContext(ctx)

	catalog, err := newCatalog(cfg.Generator, cfg.ScenarioDir)
	if err != nil {
		return err
	}
	summaries, err := catalog.List()
	if err != nil {
		log.Warn("listing stored scenarios failed", "dir", cfg.ScenarioDir, "err", err)
	}

	w, cleanup, err := newWriters(cfg, writerOptions{
		output:    output,
		printOnly: viper.GetBool("print-only"),
		logFile:   viper.GetString("log-file"),
	}, summaries)
	if err != nil {
		return err
	}
	defer cleanup()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := sim.NewMetricsWriter(reg)
	if err != nil {
		return err
	}

	fan := sim.NewMultiWriter(w, metrics)
	engine := sim.NewEngine(cfg, catalog, fan)
	hub := transport.NewHub(engine)
	fan.Add(hub)
	fan.SetEngager(engine.Engage)

	fellBack, err := engine.LoadScenarioOrDefault(viper.GetString("scenario"))
	if err != nil {
		return err
	}
	if fellBack {
		log.Warn("requested scenario unavailable, running default", "requested", viper.GetString("scenario"), "scenario_id", engine.Status().ScenarioID)
	}
	if !viper.GetBool("paused") {
		engine.Start()
	}

	go hub.Run(ctx)
	if !viper.GetBool("no-admin") {
		srv := admin.NewServer(engine, admin.WithHub(hub), admin.WithGatherer(reg))
		go func() {
			fan.SetAdminStatus(true)
			if err := srv.Start(ctx, cfg.AdminAddr); err != nil {
				log.Error("admin server failed", "addr", cfg.AdminAddr, "err", err)
			}
			fan.SetAdminStatus(false)
		}()
	}

	log.Info("simulation running", "run_id", engine.RunID(), "scenario_id", engine.Status().ScenarioID, "output", output)
	engine.Run(ctx)
	log.Info("simulation stopped")
	return nil
}
