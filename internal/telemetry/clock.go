package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Clock stamps events for one simulation run. Wall timestamps are derived from
// the simulated time so a replayed or batch run produces the same stream.
type Clock struct {
	RunID string
	Epoch time.Time
}

// NewClock creates a Clock with a fresh run id anchored at epoch.
func NewClock(epoch time.Time) Clock {
	return Clock{RunID: uuid.NewString(), Epoch: epoch.UTC()}
}

// Header builds the common event header for simTime seconds into the run.
func (c Clock) Header(t EventType, simTime float64) Header {
	return Header{
		Type:      t,
		RunID:     c.RunID,
		SimTime:   simTime,
		Timestamp: c.Epoch.Add(time.Duration(simTime * float64(time.Second))),
	}
}
