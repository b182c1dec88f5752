// Package experiment runs scenarios headless and summarizes their outcome.
package experiment

import (
	"sort"
	"strings"
	"sync"

	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/telemetry"
)

// Recorder is an event writer that accumulates the measurements of one run.
type Recorder struct {
	mu sync.Mutex

	hostile       map[string]bool
	firstSeen     map[string]float64
	detectedAt    map[string]float64
	engagedAt     map[string]float64
	neutralized   map[string]bool
	icState       map[string]string
	radar         int
	falseAlarms   int
	audio         int
	commands      int
	attempts      int
	successes     int
	failureReason map[string]int
	totals        map[string]int
	lastTime      float64
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		hostile:       make(map[string]bool),
		firstSeen:     make(map[string]float64),
		detectedAt:    make(map[string]float64),
		engagedAt:     make(map[string]float64),
		neutralized:   make(map[string]bool),
		icState:       make(map[string]string),
		failureReason: make(map[string]int),
		totals:        make(map[string]int),
	}
}

// WriteEvent records one event.
func (r *Recorder) WriteEvent(ev telemetry.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.totals[string(ev.Kind())]++
	switch e := ev.(type) {
	case telemetry.DroneStateUpdate:
		r.lastTime = e.SimTime
		if _, ok := r.firstSeen[e.DroneID]; !ok {
			// Drones exist from t=0; the first update arrives one step later.
			r.firstSeen[e.DroneID] = 0
		}
		r.hostile[e.DroneID] = e.IsHostile
		if e.IsNeutralized {
			r.neutralized[e.DroneID] = true
		}
	case telemetry.RadarDetection:
		r.radar++
		if e.IsFalseAlarm {
			r.falseAlarms++
			break
		}
		if _, ok := r.detectedAt[e.DroneID]; !ok {
			r.detectedAt[e.DroneID] = e.SimTime
		}
	case telemetry.AudioDetection:
		r.audio++
	case telemetry.InterceptorUpdate:
		prev := r.icState[e.InterceptorID]
		r.icState[e.InterceptorID] = e.State
		if e.State == string(interceptor.StateLaunching) && prev != e.State {
			r.commands++
			if _, ok := r.engagedAt[e.TargetID]; !ok && e.TargetID != "" {
				r.engagedAt[e.TargetID] = e.SimTime
			}
		}
	case telemetry.InterceptResult:
		r.attempts++
		if e.Result == string(interceptor.ResultSuccess) {
			r.successes++
			r.neutralized[e.TargetID] = true
			break
		}
		r.failureReason[failureReason(e)]++
	case telemetry.SimulationStatus:
		r.lastTime = e.SimTime
	}
	return nil
}

// IsHostile reports whether id has been seen as a hostile drone.
func (r *Recorder) IsHostile(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hostile[id]
}

func failureReason(e telemetry.InterceptResult) string {
	switch interceptor.Result(e.Result) {
	case interceptor.ResultEvaded:
		return "evaded"
	case interceptor.ResultMiss:
		return "missed"
	case interceptor.ResultAborted:
		if e.Details.Reason != "" {
			return strings.ReplaceAll(e.Details.Reason, " ", "_")
		}
		return "aborted"
	}
	return "other"
}

// samples holds the raw delay measurements behind a Metrics value.
type samples struct {
	detection  []float64
	engagement []float64
}

// Metrics returns the measurements collected so far.
func (r *Recorder) Metrics() (Metrics, samples) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var m Metrics
	var s samples
	for id, hostile := range r.hostile {
		m.Drones.Total++
		if hostile {
			m.Drones.Hostile++
		} else {
			m.Drones.Neutral++
		}
		if t, ok := r.detectedAt[id]; ok {
			m.Drones.Detected++
			s.detection = append(s.detection, t-r.firstSeen[id])
			if e, ok := r.engagedAt[id]; ok && e >= t {
				s.engagement = append(s.engagement, e-t)
			}
		}
		if _, ok := r.engagedAt[id]; ok {
			m.Drones.Engaged++
		}
		if r.neutralized[id] {
			m.Drones.Neutralized++
			if hostile {
				m.Drones.HostileNeutralized++
			}
		}
	}
	sort.Float64s(s.detection)
	sort.Float64s(s.engagement)

	m.Detection.Radar = r.radar
	m.Detection.FalseAlarms = r.falseAlarms
	m.Detection.Audio = r.audio
	m.Engagement.Commands = r.commands
	m.Interception.Attempts = r.attempts
	m.Interception.Successes = r.successes
	m.Interception.Failures = r.attempts - r.successes
	m.Interception.FailureReasons = make(map[string]int, len(r.failureReason))
	for k, v := range r.failureReason {
		m.Interception.FailureReasons[k] = v
	}
	m.EventTotals = make(map[string]int, len(r.totals))
	for k, v := range r.totals {
		m.EventTotals[k] = v
	}
	m.finish(s)
	return m, s
}
