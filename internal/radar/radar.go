// Package radar models a ground radar at the base producing noisy, probabilistic detections.
package radar

import (
	"io"
	"math"

	"github.com/google/uuid"

	"counterdrone-sim/internal/flight"
	"counterdrone-sim/internal/telemetry"
)

// Config describes the radar performance.
type Config struct {
	ScanRate        float64 `json:"scan_rate" yaml:"scan_rate"` // scans per second
	MaxRange        float64 `json:"max_range" yaml:"max_range"`
	RangeNoise      float64 `json:"range_noise" yaml:"range_noise"`     // σ, metres
	BearingNoise    float64 `json:"bearing_noise" yaml:"bearing_noise"` // σ, degrees
	FalseAlarmRate  float64 `json:"false_alarm_rate" yaml:"false_alarm_rate"`
	MissProbability float64 `json:"miss_probability" yaml:"miss_probability"`
}

// DefaultConfig returns the stock radar used by built-in scenarios.
func DefaultConfig() Config {
	return Config{
		ScanRate:        2,
		MaxRange:        1200,
		RangeNoise:      5,
		BearingNoise:    1,
		FalseAlarmRate:  0.01,
		MissProbability: 0.05,
	}
}

// Source is the random source the sensor draws from. *rand.Rand satisfies it.
type Source interface {
	Float64() float64
	NormFloat64() float64
	io.Reader
}

// Contact is the read-only view of a drone offered to the radar.
type Contact struct {
	ID            string
	Position      telemetry.Position
	Velocity      telemetry.Velocity
	IsNeutralized bool
}

// Detection is a single radar return.
type Detection struct {
	DroneID          string
	Range            float64
	Bearing          float64
	Altitude         float64
	RadialVelocity   *float64
	Confidence       float64
	IsFalseAlarm     bool
	IsFirstDetection bool
	// TrueRange is the noiseless slant range. It never leaves the engine.
	TrueRange float64
}

// Sensor scans contacts at the configured rate.
type Sensor struct {
	cfg         Config
	base        telemetry.Position
	rng         Source
	accumulator float64
	detected    map[string]bool
}

// NewSensor creates a sensor at base.
func NewSensor(cfg Config, base telemetry.Position, rng Source) *Sensor {
	return &Sensor{cfg: cfg, base: base, rng: rng, detected: make(map[string]bool)}
}

// Reset forgets first-detection history and the scan accumulator and draws
// from rng from now on.
func (s *Sensor) Reset(rng Source) {
	s.rng = rng
	s.accumulator = 0
	s.detected = make(map[string]bool)
}

// Reconfigure swaps the radar parameters and forgets first-detection history.
func (s *Sensor) Reconfigure(cfg Config) {
	s.cfg = cfg
	s.Reset(s.rng)
}

// Advance accumulates dt and performs at most one scan once a full scan interval
// has elapsed.
func (s *Sensor) Advance(dt float64, contacts []Contact) []Detection {
	if s.cfg.ScanRate <= 0 {
		return nil
	}
	s.accumulator += dt
	interval := 1 / s.cfg.ScanRate
	if s.accumulator < interval {
		return nil
	}
	s.accumulator -= interval
	return s.Scan(contacts)
}

// Scan runs one radar sweep over contacts plus an independent false-alarm draw.
func (s *Sensor) Scan(contacts []Contact) []Detection {
	var out []Detection
	for _, c := range contacts {
		if c.IsNeutralized {
			continue
		}
		trueRange := s.base.Distance(c.Position)
		if trueRange > s.cfg.MaxRange {
			continue
		}
		if s.rng.Float64() < s.cfg.MissProbability {
			continue
		}
		out = append(out, s.measure(c, trueRange))
	}
	if s.rng.Float64() < s.cfg.FalseAlarmRate {
		out = append(out, s.falseAlarm())
	}
	return out
}

func (s *Sensor) measure(c Contact, trueRange float64) Detection {
	var radial float64
	if trueRange > 0 {
		dx, dy, dz := c.Position.X-s.base.X, c.Position.Y-s.base.Y, c.Position.Altitude-s.base.Altitude
		radial = (dx*c.Velocity.VX + dy*c.Velocity.VY + dz*c.Velocity.ClimbRate) / trueRange
	}
	rng := math.Max(0, trueRange+s.rng.NormFloat64()*s.cfg.RangeNoise)
	bearing := flight.NormalizeDegrees(flight.Bearing(s.base, c.Position) + s.rng.NormFloat64()*s.cfg.BearingNoise)
	first := !s.detected[c.ID]
	s.detected[c.ID] = true
	return Detection{
		DroneID:          c.ID,
		Range:            rng,
		Bearing:          bearing,
		Altitude:         c.Position.Altitude,
		RadialVelocity:   &radial,
		Confidence:       confidence(trueRange, s.cfg.MaxRange),
		IsFirstDetection: first,
		TrueRange:        trueRange,
	}
}

// confidence falls off linearly with range.
func confidence(trueRange, maxRange float64) float64 {
	if maxRange <= 0 {
		return 0
	}
	return flight.Clamp(0.95-0.5*(trueRange/maxRange), 0.3, 0.95)
}

func (s *Sensor) falseAlarm() Detection {
	id := "FA-unknown"
	if u, err := uuid.NewRandomFromReader(s.rng); err == nil {
		id = "FA-" + u.String()
	}
	rng := (0.1 + 0.8*s.rng.Float64()) * s.cfg.MaxRange
	return Detection{
		DroneID:      id,
		Range:        rng,
		Bearing:      s.rng.Float64() * 360,
		Altitude:     20 + s.rng.Float64()*180,
		Confidence:   0.2 + 0.3*s.rng.Float64(),
		IsFalseAlarm: true,
		TrueRange:    rng,
	}
}
