package interceptor

import (
	"errors"
	"fmt"
	"strings"

	"counterdrone-sim/internal/telemetry"
)

// State is the interceptor lifecycle state.
type State string

const (
	StateStandby     State = "STANDBY"
	StateLaunching   State = "LAUNCHING"
	StatePursuing    State = "PURSUING"
	StateEngaging    State = "ENGAGING"
	StateReturning   State = "RETURNING"
	StateNeutralized State = "NEUTRALIZED"
)

// Active reports whether s is one of the states bound to a target.
func (s State) Active() bool {
	return s == StateLaunching || s == StatePursuing || s == StateEngaging
}

// Threatening reports whether a drone should treat an interceptor in s as a threat.
func (s State) Threatening() bool {
	return s == StatePursuing || s == StateEngaging
}

// GuidanceMode selects the steering law used while pursuing and engaging.
type GuidanceMode string

const (
	GuidancePursuit GuidanceMode = "PURSUIT"
	GuidancePN      GuidanceMode = "PROPORTIONAL_NAVIGATION"
)

// ParseGuidanceMode accepts the canonical names plus the short "pn" form.
func ParseGuidanceMode(s string) (GuidanceMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "PURSUIT":
		return GuidancePursuit, nil
	case "PN", "PROPORTIONAL_NAVIGATION":
		return GuidancePN, nil
	}
	return "", fmt.Errorf("unknown guidance mode %q", s)
}

// Result is the outcome of an engagement.
type Result string

const (
	ResultSuccess Result = "SUCCESS"
	ResultMiss    Result = "MISS"
	ResultEvaded  Result = "EVADED"
	ResultAborted Result = "ABORTED"
)

// ErrNotAvailable is returned when launching an interceptor that is not in STANDBY.
var ErrNotAvailable = errors.New("interceptor not available")

// FlightConfig holds the interceptor performance envelope.
type FlightConfig struct {
	MaxSpeed           float64 `json:"max_speed" yaml:"max_speed"`
	Acceleration       float64 `json:"acceleration" yaml:"acceleration"`
	TurnRate           float64 `json:"turn_rate" yaml:"turn_rate"` // deg/s
	ClimbRate          float64 `json:"climb_rate" yaml:"climb_rate"`
	EngagementRange    float64 `json:"engagement_range" yaml:"engagement_range"`
	BaseSuccessRate    float64 `json:"base_success_rate" yaml:"base_success_rate"`
	NavigationConstant float64 `json:"navigation_constant" yaml:"navigation_constant"`
}

// DefaultFlightConfig returns the stock interceptor envelope.
func DefaultFlightConfig() FlightConfig {
	return FlightConfig{
		MaxSpeed:           45,
		Acceleration:       15,
		TurnRate:           240,
		ClimbRate:          10,
		EngagementRange:    20,
		BaseSuccessRate:    0.75,
		NavigationConstant: 4,
	}
}

// Telemetry keeps the proportional navigation terms of the last tick.
type Telemetry struct {
	ClosingSpeed   float64
	LOSRate        float64
	CommandedAccel float64
}

// Interceptor is one defending drone.
type Interceptor struct {
	ID         string
	Position   telemetry.Position
	Velocity   telemetry.Velocity
	State      State
	Config     FlightConfig
	TargetID   string
	LaunchTime *float64
	Guidance   GuidanceMode
	Telemetry  Telemetry

	lastLOS float64
	hasLOS  bool
}

// Target is the read-only view of the engaged drone.
type Target struct {
	ID              string
	Position        telemetry.Position
	Velocity        telemetry.Velocity
	IsEvading       bool
	EvasionStrength float64
	IsNeutralized   bool
}

// Sampler is the random source used to resolve intercepts.
type Sampler interface {
	Float64() float64
}

// Environment is the context an interceptor steps in.
type Environment struct {
	Base          telemetry.Position
	HoverAltitude float64
	Time          float64
	Rand          Sampler
}

// Outcome describes a resolved or aborted engagement.
type Outcome struct {
	InterceptorID string
	TargetID      string
	Result        Result
	Probability   *float64
	Distance      float64
	RelativeSpeed float64
	AltitudeDelta float64
	TargetEvading bool
	Reason        string
}
