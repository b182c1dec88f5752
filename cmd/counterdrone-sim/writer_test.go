package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"

	"counterdrone-sim/internal/scenario"
	"counterdrone-sim/internal/sim"
	"counterdrone-sim/internal/telemetry"
)

func TestResolveOutput(t *testing.T) {
	tests := []struct {
		mode    string
		tty     bool
		want    string
		wantErr bool
	}{
		{"auto", true, outputTUI, false},
		{"auto", false, outputJSON, false},
		{"", false, outputJSON, false},
		{"color", false, outputColor, false},
		{"tui", false, outputTUI, false},
		{"html", true, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			got, err := resolveOutput(tt.mode, tt.tty)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Fatalf("resolveOutput(%q, %v) = %q, %v", tt.mode, tt.tty, got, err)
			}
		})
	}
}

func TestNewWritersPrintOnly(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "127.0.0.1:4001")
	w, cleanup, err := newWriters(nil, writerOptions{output: outputJSON, printOnly: true}, nil)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.JSONStdoutWriter); !ok {
		t.Fatalf("expected *sim.JSONStdoutWriter, got %T", w)
	}
}

func TestNewWritersGreptimeFallback(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	w, cleanup, err := newWriters(nil, writerOptions{output: outputColor}, nil)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	cleanup()
	if _, ok := w.(*sim.ColorStdoutWriter); !ok {
		t.Fatalf("expected *sim.ColorStdoutWriter, got %T", w)
	}
}

func TestNewWritersLogFile(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	path := filepath.Join(t.TempDir(), "events.jsonl")
	w, cleanup, err := newWriters(nil, writerOptions{output: outputJSON, logFile: path}, nil)
	if err != nil {
		t.Fatalf("newWriters returned error: %v", err)
	}
	if _, ok := w.(*sim.MultiWriter); !ok {
		t.Fatalf("expected *sim.MultiWriter, got %T", w)
	}
	h := telemetry.Header{RunID: "r1", SimTime: 1, Timestamp: time.Unix(1, 0).UTC()}
	h.Type = telemetry.EventRadarDetection
	det := telemetry.RadarDetection{Header: h, DroneID: "H-001", Range: 500}
	h.Type = telemetry.EventSimulationStatus
	st := telemetry.SimulationStatus{Header: h, ScenarioID: "1"}
	if err := sim.WriteAll(w, []telemetry.Event{det, st}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	cleanup()

	for _, p := range []string{path, path + ".detections"} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if info.Size() == 0 {
			t.Fatalf("expected %s to be non-empty", p)
		}
	}
}

func TestNewWritersBadLogFile(t *testing.T) {
	t.Setenv("GREPTIMEDB_ENDPOINT", "")
	path := filepath.Join(t.TempDir(), "missing", "events.jsonl")
	if _, _, err := newWriters(nil, writerOptions{output: outputJSON, logFile: path}, nil); err == nil {
		t.Fatalf("expected error for unwritable log file")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("config", defaultConfigPath)
	viper.Set("log-level", "debug")
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.DefaultScenario != scenario.DefaultID {
		t.Fatalf("unexpected config %+v", cfg)
	}

	viper.Set("config", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := loadConfig(); err == nil {
		t.Fatalf("expected error for an explicit missing config")
	}

	viper.Set("config", filepath.Join("..", "..", "config", "simulation.yaml"))
	if _, err := loadConfig(); err != nil {
		t.Fatalf("repository config: %v", err)
	}
}

func TestPrintScenarios(t *testing.T) {
	list := []scenario.Summary{
		{ID: "1", Name: "Perimeter Probe", Source: "builtin", DroneCount: 3, HostileCount: 3, InterceptorCount: 2},
		{ID: "gen-42", Name: "Generated (seed 42)", Source: "generated", DroneCount: 5, HostileCount: 4, InterceptorCount: 3, Difficulty: 6},
	}
	var buf bytes.Buffer
	if err := printScenarios(&buf, list); err != nil {
		t.Fatalf("print: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 || !strings.Contains(lines[1], "Perimeter Probe") || !strings.Contains(lines[2], "6/10") {
		t.Fatalf("unexpected listing:\n%s", buf.String())
	}
}

func TestGenerateCommand(t *testing.T) {
	t.Cleanup(viper.Reset)
	dir := t.TempDir()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"generate", "--seed", "42", "--count", "2", "--dir", dir})
	t.Cleanup(func() { rootCmd.SetArgs(nil); rootCmd.SetOut(nil) })
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, id := range []string{"gen-42", "gen-43"} {
		if _, err := os.Stat(filepath.Join(dir, id+".json")); err != nil {
			t.Fatalf("scenario %s not stored: %v", id, err)
		}
		if !strings.Contains(out.String(), id) {
			t.Fatalf("output missing %s:\n%s", id, out.String())
		}
	}
}
