package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"counterdrone-sim/internal/telemetry"
)

// JSONStdoutWriter prints events as JSON lines to STDOUT.
type JSONStdoutWriter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewJSONStdoutWriter creates a JSONStdoutWriter writing to os.Stdout.
func NewJSONStdoutWriter() *JSONStdoutWriter {
	return &JSONStdoutWriter{out: os.Stdout}
}

// WriteEvent outputs an event in JSON format.
func (w *JSONStdoutWriter) WriteEvent(ev telemetry.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	_, err = fmt.Fprintln(w.out, string(data))
	return err
}

// WriteEvents outputs multiple events in JSON format.
func (w *JSONStdoutWriter) WriteEvents(events []telemetry.Event) error {
	for _, ev := range events {
		if err := w.WriteEvent(ev); err != nil {
			return err
		}
	}
	return nil
}
