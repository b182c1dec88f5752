package telemetry

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event is one record on the outbound stream.
type Event interface {
	Kind() EventType
	Stamp() time.Time
}

// Header is embedded in every event.
type Header struct {
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	SimTime   float64   `json:"sim_time"`
	Timestamp time.Time `json:"timestamp"`
}

func (h Header) Kind() EventType  { return h.Type }
func (h Header) Stamp() time.Time { return h.Timestamp }

// RadarDetection is a single radar return, real or spurious.
type RadarDetection struct {
	Header
	DroneID          string   `json:"drone_id"`
	Range            float64  `json:"range"`
	Bearing          float64  `json:"bearing"`
	Altitude         float64  `json:"altitude"`
	RadialVelocity   *float64 `json:"radial_velocity,omitempty"`
	Confidence       float64  `json:"confidence"`
	IsFalseAlarm     bool     `json:"is_false_alarm"`
	IsFirstDetection bool     `json:"is_first_detection"`
}

// DroneStateUpdate carries the kinematic state of a drone after a tick.
type DroneStateUpdate struct {
	Header
	DroneID       string   `json:"drone_id"`
	Position      Position `json:"position"`
	Velocity      Velocity `json:"velocity"`
	Behavior      string   `json:"behavior"`
	IsHostile     bool     `json:"is_hostile"`
	IsEvading     bool     `json:"is_evading"`
	IsNeutralized bool     `json:"is_neutralized"`
}

// PNDebug exposes the proportional navigation terms of the last tick.
type PNDebug struct {
	ClosingSpeed   float64 `json:"closing_speed"`
	LOSRate        float64 `json:"los_rate"`
	CommandedAccel float64 `json:"commanded_accel"`
}

// InterceptorUpdate carries the state of an interceptor after a tick or command.
type InterceptorUpdate struct {
	Header
	InterceptorID    string   `json:"interceptor_id"`
	TargetID         string   `json:"target_id,omitempty"`
	State            string   `json:"state"`
	Position         Position `json:"position"`
	Velocity         Velocity `json:"velocity"`
	DistanceToTarget *float64 `json:"distance_to_target,omitempty"`
	GuidanceMode     string   `json:"guidance_mode"`
	PNDebug          *PNDebug `json:"pn_debug,omitempty"`
}

// InterceptDetails records the inputs of an intercept resolution.
type InterceptDetails struct {
	Probability   *float64 `json:"probability,omitempty"`
	Distance      float64  `json:"distance"`
	RelativeSpeed float64  `json:"relative_speed"`
	AltitudeDelta float64  `json:"altitude_delta"`
	TargetEvading bool     `json:"target_evading"`
	Reason        string   `json:"reason,omitempty"`
}

// InterceptResult is emitted once per resolved engagement.
type InterceptResult struct {
	Header
	InterceptorID string           `json:"interceptor_id"`
	TargetID      string           `json:"target_id"`
	Result        string           `json:"result"`
	Details       InterceptDetails `json:"details"`
}

// SimulationStatus is the periodic world summary.
type SimulationStatus struct {
	Header
	IsRunning             bool    `json:"is_running"`
	SpeedMultiplier       float64 `json:"speed_multiplier"`
	ScenarioID            string  `json:"scenario_id,omitempty"`
	Phase                 string  `json:"phase,omitempty"`
	DroneCount            int     `json:"drone_count"`
	ActiveHostiles        int     `json:"active_hostiles"`
	NeutralizedCount      int     `json:"neutralized_count"`
	InterceptorCount      int     `json:"interceptor_count"`
	AvailableInterceptors int     `json:"available_interceptors"`
}

// AudioDetection is relayed from the external acoustic classifier.
type AudioDetection struct {
	Header
	DroneID           string   `json:"drone_id"`
	State             string   `json:"state"`
	Confidence        float64  `json:"confidence"`
	EstimatedDistance *float64 `json:"estimated_distance,omitempty"`
	EstimatedBearing  *float64 `json:"estimated_bearing,omitempty"`
}

// DecodeEvent parses a single JSON event using its type field.
func DecodeEvent(data []byte) (Event, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, err
	}
	switch h.Type {
	case EventRadarDetection:
		var e RadarDetection
		err := json.Unmarshal(data, &e)
		return e, err
	case EventDroneStateUpdate:
		var e DroneStateUpdate
		err := json.Unmarshal(data, &e)
		return e, err
	case EventInterceptor:
		var e InterceptorUpdate
		err := json.Unmarshal(data, &e)
		return e, err
	case EventInterceptResult:
		var e InterceptResult
		err := json.Unmarshal(data, &e)
		return e, err
	case EventSimulationStatus:
		var e SimulationStatus
		err := json.Unmarshal(data, &e)
		return e, err
	case EventAudioDetection:
		var e AudioDetection
		err := json.Unmarshal(data, &e)
		return e, err
	}
	return nil, fmt.Errorf("unknown event type %q", h.Type)
}
