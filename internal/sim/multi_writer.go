package sim

import (
	"errors"

	"counterdrone-sim/internal/telemetry"
)

// MultiWriter fans events out to multiple writers.
type MultiWriter struct {
	writers []EventWriter
}

// NewMultiWriter creates a new MultiWriter.
func NewMultiWriter(ws ...EventWriter) *MultiWriter {
	return &MultiWriter{writers: ws}
}

// Add appends w to the fan-out list.
func (mw *MultiWriter) Add(w EventWriter) {
	mw.writers = append(mw.writers, w)
}

// WriteEvent sends an event to all writers. A failing writer does not stop
// delivery to the others.
func (mw *MultiWriter) WriteEvent(ev telemetry.Event) error {
	var errs []error
	for _, w := range mw.writers {
		if err := w.WriteEvent(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WriteEvents sends multiple events to all writers, using batch if supported.
func (mw *MultiWriter) WriteEvents(events []telemetry.Event) error {
	var errs []error
	for _, w := range mw.writers {
		if err := WriteAll(w, events); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// SetAdminStatus forwards the admin UI state to writers that display it.
func (mw *MultiWriter) SetAdminStatus(active bool) {
	for _, w := range mw.writers {
		if aw, ok := w.(AdminStatusWriter); ok {
			aw.SetAdminStatus(active)
		}
	}
}

// SetEngager forwards the engage callback to interactive writers.
func (mw *MultiWriter) SetEngager(fn func(EngageRequest) bool) {
	for _, w := range mw.writers {
		if ew, ok := w.(Engager); ok {
			ew.SetEngager(fn)
		}
	}
}

// Close closes every writer that holds resources.
func (mw *MultiWriter) Close() error {
	var errs []error
	for _, w := range mw.writers {
		if c, ok := w.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
