package sim

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"counterdrone-sim/internal/config"
)

func TestJSONStdoutWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	w := &JSONStdoutWriter{out: buf}
	if err := w.WriteEvents(sampleEvents()); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if m["type"] != "radar_detection" || m["run_id"] != "run-1" {
		t.Fatalf("unexpected fields %v", m)
	}
}

func TestColorStdoutWriter(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	buf := &bytes.Buffer{}
	w := &ColorStdoutWriter{cfg: config.Default(), out: buf}
	if err := w.WriteEvents(sampleEvents()); err != nil {
		t.Fatalf("write: %v", err)
	}
	output := buf.String()
	if !strings.Contains(output, "Simulation Configuration:") || !strings.Contains(output, "Guidance:") {
		t.Fatalf("overview not printed: %q", output)
	}
	if !strings.Contains(output, "\x1b[") {
		t.Fatalf("expected color codes in output: %q", output)
	}
	for _, want := range []string{"RADAR", "DRONE", "INTCPT", "SUCCESS", "STATUS", "AUDIO", "NEW"} {
		if !strings.Contains(output, want) {
			t.Fatalf("missing %s in %q", want, output)
		}
	}

	buf.Reset()
	if err := w.WriteEvent(sampleEvents()[0]); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	if strings.Contains(buf.String(), "Simulation Configuration:") {
		t.Fatalf("overview printed more than once")
	}
}
