package enemy

import (
	"math"

	"counterdrone-sim/internal/flight"
	"counterdrone-sim/internal/telemetry"
)

const (
	// LoiterRadius is the orbit radius RECON drones hold around their loiter point.
	LoiterRadius = 200.0

	attackSpeedFactor = 1.3
	attackAltitude    = 120.0
	altitudeGain      = 0.5
	climbLimit        = 5.0
)

// Step advances one drone by dt and returns the new value. Neutralized drones are
// returned untouched.
func Step(d Drone, env Environment, dt float64) Drone {
	if d.IsNeutralized || dt <= 0 {
		return d
	}

	threat, evading := nearestThreat(d, env.Threats)
	d.IsEvading = evading

	heading, speed := desiredHorizontal(d, env.Base)
	climb := desiredClimb(d)
	if evading {
		heading = evasiveHeading(d, heading, threat)
		speed = d.Config.MaxSpeed
	}

	lim := flight.Limits{
		Acceleration: d.Config.Acceleration,
		TurnRate:     d.Config.TurnRate,
		ClimbRate:    climbLimit,
	}
	d.Velocity = flight.Steer(d.Velocity, heading, speed, climb, lim, dt)
	d.Position, d.Velocity = flight.Integrate(d.Position, d.Velocity, dt)
	return d
}

// nearestThreat returns the closest threat inside the trigger distance. There is no
// hysteresis: the drone stops evading on the first tick no threat is in range.
func nearestThreat(d Drone, threats []Threat) (Threat, bool) {
	best := math.Inf(1)
	var found Threat
	for _, th := range threats {
		dist := d.Position.Distance(th.Position)
		if dist < d.Config.EvasionTriggerDistance && dist < best {
			best = dist
			found = th
		}
	}
	return found, !math.IsInf(best, 1)
}

func desiredHorizontal(d Drone, base telemetry.Position) (heading, speed float64) {
	switch d.Behavior {
	case BehaviorRecon:
		center := base
		if d.TargetPoint != nil {
			center = *d.TargetPoint
		}
		return loiterHeading(d.Position, center), d.Config.CruiseSpeed
	case BehaviorAttackRun:
		return flight.HeadingTo(d.Position, base), math.Min(d.Config.MaxSpeed, d.Config.CruiseSpeed*attackSpeedFactor)
	default:
		return flight.HeadingTo(d.Position, base), d.Config.CruiseSpeed
	}
}

// loiterHeading orbits counter-clockwise around center and bends inward or
// outward to hold LoiterRadius.
func loiterHeading(p, center telemetry.Position) float64 {
	r := center.HorizontalDistance(p)
	if r < 1 {
		return flight.HeadingTo(center, p)
	}
	radial := flight.HeadingTo(center, p)
	correction := flight.Clamp((r-LoiterRadius)/LoiterRadius, -1, 1) * math.Pi / 4
	return radial + math.Pi/2 + correction
}

func desiredClimb(d Drone) float64 {
	if d.Behavior == BehaviorAttackRun {
		return (attackAltitude - d.Position.Altitude) * altitudeGain
	}
	return 0
}

// evasiveHeading blends forward progress with a perpendicular break away from
// the threat, weighted by the drone's evasion strength.
func evasiveHeading(d Drone, forward float64, th Threat) float64 {
	away := flight.HeadingTo(th.Position, d.Position)
	lateral := away + math.Pi/2
	cur := forward
	if d.Velocity.GroundSpeed() > 0.1 {
		cur = flight.Heading(d.Velocity)
	}
	if alt := away - math.Pi/2; math.Abs(flight.WrapAngle(alt-cur)) < math.Abs(flight.WrapAngle(lateral-cur)) {
		lateral = alt
	}
	s := flight.Clamp(d.Config.EvasionStrength, 0, 1)
	x := (1-s)*math.Cos(forward) + s*math.Cos(lateral)
	y := (1-s)*math.Sin(forward) + s*math.Sin(lateral)
	if x == 0 && y == 0 {
		return lateral
	}
	return math.Atan2(y, x)
}
