package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"counterdrone-sim/internal/config"
	"counterdrone-sim/internal/logging"
)

const defaultConfigPath = "config/simulation.yaml"

var rootCmd = &cobra.Command{
	Use:   "counterdrone-sim",
	Short: "Counter-drone defense simulator",
	Long: `counterdrone-sim simulates hostile drones approaching a defended base,
a noisy radar tracking them and interceptors launched against them. Events are
streamed to the console, JSONL files, GreptimeDB, Prometheus and websocket clients.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", defaultConfigPath, "Path to simulation configuration YAML")
	pf.String("schema", "", "Path to CUE schema file (default: embedded schema)")
	pf.String("log-level", "", "Log level override (debug, info, warn, error)")
	pf.String("log-format", "", "Log format override (text, json)")
	pf.Bool("no-color", false, "Disable colored output")
	_ = viper.BindPFlags(pf)

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(experimentCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(dashboardCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initConfig maps CDSIM_* environment variables onto flag names.
func initConfig() {
	viper.SetEnvPrefix("CDSIM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	if viper.GetBool("no-color") {
		color.NoColor = true
	}
}

// bindFlags makes the running command's flags visible through viper.
func bindFlags(cmd *cobra.Command, _ []string) error {
	return viper.BindPFlags(cmd.Flags())
}

// loadConfig reads the configuration file, falling back to the defaults when
// the default path does not exist.
func loadConfig() (*config.SimulationConfig, error) {
	path := viper.GetString("config")
	var cfg *config.SimulationConfig
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) && path == defaultConfigPath {
		cfg = config.Default()
	} else {
		cfg, err = config.Load(path, viper.GetString("schema"))
		if err != nil {
			return nil, err
		}
	}
	if v := viper.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := viper.GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	return cfg, nil
}

// newContext returns a context carrying the configured logger that is
// cancelled on SIGINT or SIGTERM. Logs go to stderr so stdout stays a clean
// event stream; quiet discards them while a full-screen UI owns the terminal.
func newContext(cfg *config.SimulationConfig, quiet bool) (context.Context, context.CancelFunc) {
	var out io.Writer = os.Stderr
	if quiet {
		out = io.Discard
	}
	logger := logging.NewWithWriter(out, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	return logging.NewContext(ctx, logger), stop
}
