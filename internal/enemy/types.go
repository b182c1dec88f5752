package enemy

import (
	"counterdrone-sim/internal/telemetry"
)

// Behavior selects the steering pattern of a hostile drone.
type Behavior string

const (
	BehaviorNormal    Behavior = "NORMAL"
	BehaviorRecon     Behavior = "RECON"
	BehaviorAttackRun Behavior = "ATTACK_RUN"
	BehaviorEvade     Behavior = "EVADE"
)

// Valid reports whether b is a known behavior.
func (b Behavior) Valid() bool {
	switch b {
	case BehaviorNormal, BehaviorRecon, BehaviorAttackRun, BehaviorEvade:
		return true
	}
	return false
}

// FlightConfig holds the per-drone performance envelope.
type FlightConfig struct {
	MaxSpeed               float64 `json:"max_speed" yaml:"max_speed"`
	CruiseSpeed            float64 `json:"cruise_speed" yaml:"cruise_speed"`
	Acceleration           float64 `json:"acceleration" yaml:"acceleration"`
	TurnRate               float64 `json:"turn_rate" yaml:"turn_rate"` // deg/s
	EvasionTriggerDistance float64 `json:"evasion_trigger_distance" yaml:"evasion_trigger_distance"`
	EvasionStrength        float64 `json:"evasion_strength" yaml:"evasion_strength"` // 0..1
}

// DefaultFlightConfig is used when a scenario leaves the envelope empty.
func DefaultFlightConfig() FlightConfig {
	return FlightConfig{
		MaxSpeed:               20,
		CruiseSpeed:            12,
		Acceleration:           5,
		TurnRate:               60,
		EvasionTriggerDistance: 150,
		EvasionStrength:        0.4,
	}
}

// Drone is one simulated drone. Hostile and non-hostile drones share the type.
type Drone struct {
	ID                 string
	Position           telemetry.Position
	Velocity           telemetry.Velocity
	Behavior           Behavior
	Config             FlightConfig
	IsHostile          bool
	IsEvading          bool
	TargetPoint        *telemetry.Position
	SpawnTime          float64
	LastRadarDetection *float64
	IsNeutralized      bool
}

// Threat is the read-only view of an interceptor actively chasing something.
type Threat struct {
	ID       string
	Position telemetry.Position
}

// Environment is what a drone may observe while stepping.
type Environment struct {
	Base    telemetry.Position
	Threats []Threat
}
