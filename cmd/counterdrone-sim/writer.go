package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"counterdrone-sim/internal/config"
	"counterdrone-sim/internal/scenario"
	"counterdrone-sim/internal/sim"
)

// Console output modes.
const (
	outputAuto  = "auto"
	outputTUI   = "tui"
	outputColor = "color"
	outputJSON  = "json"
)

// resolveOutput picks the console writer. auto selects the TUI on a terminal
// and JSON lines otherwise.
func resolveOutput(mode string, tty bool) (string, error) {
	switch mode {
	case "", outputAuto:
		if tty {
			return outputTUI, nil
		}
		return outputJSON, nil
	case outputTUI, outputColor, outputJSON:
		return mode, nil
	}
	return "", fmt.Errorf("unknown output mode %q (want auto, tui, color or json)", mode)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

type writerOptions struct {
	output    string
	printOnly bool
	logFile   string
}

// newWriters sets up the event writers from flags and env vars. Events go to
// GreptimeDB when GREPTIMEDB_ENDPOINT is set and printOnly is false; the
// console writer is added unless GreptimeDB is active with JSON output. It
// returns a cleanup function closing any resources.
func newWriters(cfg *config.SimulationConfig, opts writerOptions, scenarios []scenario.Summary) (sim.EventWriter, func(), error) {
	var ws []sim.EventWriter
	endpoint := os.Getenv("GREPTIMEDB_ENDPOINT")
	if !opts.printOnly && endpoint != "" {
		database := os.Getenv("GREPTIMEDB_DATABASE")
		if database == "" {
			database = "public"
		}
		gw, err := sim.NewGreptimeDBWriter(endpoint, database)
		if err != nil {
			return nil, nil, err
		}
		ws = append(ws, gw)
	}
	if len(ws) == 0 || opts.output != outputJSON {
		switch opts.output {
		case outputTUI:
			ws = append(ws, sim.NewTUIWriter(cfg, scenarios))
		case outputColor:
			ws = append(ws, sim.NewColorStdoutWriter(cfg))
		default:
			ws = append(ws, sim.NewJSONStdoutWriter())
		}
	}
	if opts.logFile != "" {
		fw, err := sim.NewFileWriter(opts.logFile, opts.logFile+".detections")
		if err != nil {
			closeAll(ws)
			return nil, nil, err
		}
		ws = append(ws, fw)
	}
	if len(ws) == 1 {
		return ws[0], func() { closeAll(ws) }, nil
	}
	mw := sim.NewMultiWriter(ws...)
	return mw, func() { mw.Close() }, nil
}

func closeAll(ws []sim.EventWriter) {
	for _, w := range ws {
		if c, ok := w.(io.Closer); ok {
			c.Close()
		}
	}
}
