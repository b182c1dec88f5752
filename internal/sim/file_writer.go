package sim

import (
	"encoding/json"
	"os"

	"counterdrone-sim/internal/telemetry"
)

// FileWriter writes events to JSONL files. Radar detections optionally go to
// a separate file.
type FileWriter struct {
	eventFile *os.File
	detFile   *os.File
	eventEnc  *json.Encoder
	detEnc    *json.Encoder
}

// NewFileWriter creates a FileWriter. detectionPath may be empty to keep
// detections in the main event log.
func NewFileWriter(eventPath, detectionPath string) (*FileWriter, error) {
	ef, err := os.Create(eventPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{eventFile: ef, eventEnc: json.NewEncoder(ef)}
	if detectionPath != "" {
		df, err := os.Create(detectionPath)
		if err != nil {
			ef.Close()
			return nil, err
		}
		fw.detFile = df
		fw.detEnc = json.NewEncoder(df)
	}
	return fw, nil
}

// WriteEvent logs a single event.
func (f *FileWriter) WriteEvent(ev telemetry.Event) error {
	if f.detEnc != nil && ev.Kind() == telemetry.EventRadarDetection {
		return f.detEnc.Encode(ev)
	}
	return f.eventEnc.Encode(ev)
}

// WriteEvents logs multiple events.
func (f *FileWriter) WriteEvents(events []telemetry.Event) error {
	for _, ev := range events {
		if err := f.WriteEvent(ev); err != nil {
			return err
		}
	}
	return nil
}

// Close closes any underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.eventFile != nil {
		if e := f.eventFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.detFile != nil {
		if e := f.detFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
