package sim

import (
	"context"

	"counterdrone-sim/internal/logging"
	"counterdrone-sim/internal/telemetry"
)

// EventWriter is an interface to support different event sinks.
type EventWriter interface {
	WriteEvent(telemetry.Event) error
}

// Optional: writers may support batch mode.
type batchEventWriter interface {
	WriteEvents([]telemetry.Event) error
}

// AdminStatusWriter allows writers to receive admin UI status updates.
type AdminStatusWriter interface {
	SetAdminStatus(listening bool)
}

// Engager allows writers with an interactive surface to issue engage commands.
type Engager interface {
	SetEngager(func(EngageRequest) bool)
}

// WriteAll sends events to w, in one batch when w supports it.
func WriteAll(w EventWriter, events []telemetry.Event) error {
	if len(events) == 0 || w == nil {
		return nil
	}
	if bw, ok := w.(batchEventWriter); ok {
		return bw.WriteEvents(events)
	}
	for _, ev := range events {
		if err := w.WriteEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) flush(ctx context.Context, events []telemetry.Event) {
	if err := WriteAll(e.writer, events); err != nil {
		logging.FromContext(ctx).Error("event write failed", "events", len(events), "err", err)
	}
}
