package sim

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"counterdrone-sim/internal/telemetry"
)

// ReplayLog replays JSONL events from r to writer. A speed >0 paces playback by
// the recorded timestamps divided by speed. If speed <= 0, no artificial delay
// is inserted.
func ReplayLog(ctx context.Context, r io.Reader, writer EventWriter, speed float64) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	var prev time.Time
	n := 0
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		ev, err := telemetry.DecodeEvent(sc.Bytes())
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		ts := ev.Stamp()
		if !prev.IsZero() && speed > 0 {
			diff := ts.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				select {
				case <-time.After(diff):
				case <-ctx.Done():
					return n, ctx.Err()
				}
			}
		}
		if err := writer.WriteEvent(ev); err != nil {
			return n, err
		}
		n++
		prev = ts
	}
	return n, sc.Err()
}

// ReplayLogFile opens a file and replays its events.
func ReplayLogFile(ctx context.Context, path string, writer EventWriter, speed float64) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return ReplayLog(ctx, f, writer, speed)
}
