// Package flight holds the point-mass kinematics shared by hostiles and interceptors.
package flight

import (
	"math"

	"counterdrone-sim/internal/telemetry"
)

// MinAltitude is the floor every airborne entity is clamped to.
const MinAltitude = 10.0

// Limits bound how fast an entity may change its velocity.
type Limits struct {
	Acceleration float64 // m/s²
	TurnRate     float64 // deg/s
	ClimbRate    float64 // m/s, 0 means unbounded
}

// Heading returns the math angle (radians, 0 = +x) of the horizontal part of v.
func Heading(v telemetry.Velocity) float64 {
	return math.Atan2(v.VY, v.VX)
}

// HeadingTo returns the math angle from p to o.
func HeadingTo(p, o telemetry.Position) float64 {
	return math.Atan2(o.Y-p.Y, o.X-p.X)
}

// Bearing returns the compass bearing from p to o in [0, 360), 0 = north.
func Bearing(p, o telemetry.Position) float64 {
	b := math.Atan2(o.X-p.X, o.Y-p.Y) * 180 / math.Pi
	return NormalizeDegrees(b)
}

// NormalizeDegrees maps d into [0, 360).
func NormalizeDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

// WrapAngle maps a radian angle into (-π, π].
func WrapAngle(a float64) float64 {
	for a > math.Pi {
		a -= 2 * math.Pi
	}
	for a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}

// approach moves cur toward target by at most step.
func approach(cur, target, step float64) float64 {
	if step < 0 {
		step = 0
	}
	switch {
	case target > cur+step:
		return cur + step
	case target < cur-step:
		return cur - step
	}
	return target
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Steer turns and accelerates v toward the desired horizontal heading/speed and
// climb rate within lim over dt. A near-stationary entity snaps to the desired heading.
func Steer(v telemetry.Velocity, heading, speed, climb float64, lim Limits, dt float64) telemetry.Velocity {
	cur := v.GroundSpeed()
	newHeading := heading
	if cur > 0.1 && lim.TurnRate > 0 {
		maxTurn := lim.TurnRate * math.Pi / 180 * dt
		delta := WrapAngle(heading - Heading(v))
		newHeading = Heading(v) + Clamp(delta, -maxTurn, maxTurn)
	}
	newSpeed := approach(cur, speed, lim.Acceleration*dt)
	if lim.ClimbRate > 0 {
		climb = Clamp(climb, -lim.ClimbRate, lim.ClimbRate)
	}
	return telemetry.Velocity{
		VX:        newSpeed * math.Cos(newHeading),
		VY:        newSpeed * math.Sin(newHeading),
		ClimbRate: approach(v.ClimbRate, climb, lim.Acceleration*dt),
	}
}

// Integrate advances p by v over dt and applies the altitude floor. A climb rate
// pushing into the floor is zeroed.
func Integrate(p telemetry.Position, v telemetry.Velocity, dt float64) (telemetry.Position, telemetry.Velocity) {
	p = p.Add(v, dt)
	if p.Altitude < MinAltitude {
		p.Altitude = MinAltitude
		if v.ClimbRate < 0 {
			v.ClimbRate = 0
		}
	}
	return p, v
}
