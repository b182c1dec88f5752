// Shared kinematic value types and event kinds
package telemetry

import "math"

// Position is a point in the local frame in metres. The base sits at the origin,
// X points east and Y points north.
type Position struct {
	X        float64 `json:"x" yaml:"x"`
	Y        float64 `json:"y" yaml:"y"`
	Altitude float64 `json:"altitude" yaml:"altitude"`
}

// Velocity is expressed in m/s.
type Velocity struct {
	VX        float64 `json:"vx" yaml:"vx"`
	VY        float64 `json:"vy" yaml:"vy"`
	ClimbRate float64 `json:"climbRate" yaml:"climbRate"`
}

// Distance returns the 3D distance between p and o.
func (p Position) Distance(o Position) float64 {
	dx, dy, dz := o.X-p.X, o.Y-p.Y, o.Altitude-p.Altitude
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// HorizontalDistance ignores altitude.
func (p Position) HorizontalDistance(o Position) float64 {
	return math.Hypot(o.X-p.X, o.Y-p.Y)
}

// Add advances p by v over dt seconds.
func (p Position) Add(v Velocity, dt float64) Position {
	return Position{
		X:        p.X + v.VX*dt,
		Y:        p.Y + v.VY*dt,
		Altitude: p.Altitude + v.ClimbRate*dt,
	}
}

// Speed returns the 3D magnitude of v.
func (v Velocity) Speed() float64 {
	return math.Sqrt(v.VX*v.VX + v.VY*v.VY + v.ClimbRate*v.ClimbRate)
}

// GroundSpeed returns the horizontal magnitude of v.
func (v Velocity) GroundSpeed() float64 {
	return math.Hypot(v.VX, v.VY)
}

// Sub returns v - o.
func (v Velocity) Sub(o Velocity) Velocity {
	return Velocity{VX: v.VX - o.VX, VY: v.VY - o.VY, ClimbRate: v.ClimbRate - o.ClimbRate}
}

// EventType names a record on the outbound event stream.
type EventType string

const (
	EventRadarDetection   EventType = "radar_detection"
	EventDroneStateUpdate EventType = "drone_state_update"
	EventInterceptor      EventType = "interceptor_update"
	EventInterceptResult  EventType = "intercept_result"
	EventSimulationStatus EventType = "simulation_status"
	EventAudioDetection   EventType = "audio_detection"
)
