package interceptor

import (
	"math"

	"counterdrone-sim/internal/flight"
	"counterdrone-sim/internal/telemetry"
)

const (
	// LaunchDuration is the vertical launch phase in simulated seconds.
	LaunchDuration = 2.0
	// PursuitLookahead is how far ahead pursuit guidance extrapolates the target.
	PursuitLookahead = 2.0
	// EngageRangeFactor scales the engagement range into the ENGAGING threshold.
	EngageRangeFactor = 2.0
	// ReturnSpeedFactor is the fraction of max speed used to fly home.
	ReturnSpeedFactor = 0.7
	// ReturnArrivalDistance is the distance to the hover point that counts as home.
	ReturnArrivalDistance = 20.0

	MinProbability = 0.1
	MaxProbability = 0.95

	altitudeGain  = 1.0
	pnPursuitGain = 0.5
)

// Launch binds ic to targetID and starts the launch phase at now.
func Launch(ic Interceptor, targetID string, mode GuidanceMode, now float64) (Interceptor, error) {
	if ic.State != StateStandby {
		return ic, ErrNotAvailable
	}
	if mode == "" {
		mode = GuidancePursuit
	}
	t := now
	ic.State = StateLaunching
	ic.TargetID = targetID
	ic.LaunchTime = &t
	ic.Guidance = mode
	ic.Telemetry = Telemetry{}
	ic.hasLOS = false
	return ic, nil
}

// Step advances ic by dt. tgt is nil when the bound target no longer exists.
// A non-nil Outcome is returned when an engagement ends this tick.
func Step(ic Interceptor, tgt *Target, env Environment, dt float64) (Interceptor, *Outcome) {
	switch ic.State {
	case StateLaunching:
		ic.Velocity = telemetry.Velocity{ClimbRate: ic.Config.ClimbRate}
		ic.Position, ic.Velocity = flight.Integrate(ic.Position, ic.Velocity, dt)
		if ic.LaunchTime != nil && env.Time-*ic.LaunchTime >= LaunchDuration {
			ic.State = StatePursuing
		}
		return ic, nil

	case StatePursuing:
		if tgt == nil || tgt.IsNeutralized {
			return recall(ic), nil
		}
		ic = guide(ic, *tgt, dt)
		if ic.Position.Distance(tgt.Position) < EngageRangeFactor*ic.Config.EngagementRange {
			ic.State = StateEngaging
		}
		return ic, nil

	case StateEngaging:
		if tgt == nil || tgt.IsNeutralized {
			out := &Outcome{InterceptorID: ic.ID, TargetID: ic.TargetID, Result: ResultAborted, Reason: "target lost"}
			return recall(ic), out
		}
		ic = guide(ic, *tgt, dt)
		if ic.Position.Distance(tgt.Position) < ic.Config.EngagementRange {
			out := resolve(ic, *tgt, env.Rand)
			return recall(ic), &out
		}
		return ic, nil

	case StateReturning:
		home := telemetry.Position{X: env.Base.X, Y: env.Base.Y, Altitude: env.HoverAltitude}
		lim := flight.Limits{Acceleration: ic.Config.Acceleration, TurnRate: ic.Config.TurnRate, ClimbRate: ic.Config.ClimbRate}
		climb := (home.Altitude - ic.Position.Altitude) * altitudeGain
		ic.Velocity = flight.Steer(ic.Velocity, flight.HeadingTo(ic.Position, home), ic.Config.MaxSpeed*ReturnSpeedFactor, climb, lim, dt)
		ic.Position, ic.Velocity = flight.Integrate(ic.Position, ic.Velocity, dt)
		if ic.Position.Distance(home) < ReturnArrivalDistance {
			ic.State = StateStandby
			ic.Velocity = telemetry.Velocity{}
			ic.Position.Altitude = math.Max(home.Altitude, flight.MinAltitude)
		}
		return ic, nil
	}
	return ic, nil
}

// recall clears the target binding and heads home.
func recall(ic Interceptor) Interceptor {
	ic.State = StateReturning
	ic.TargetID = ""
	ic.LaunchTime = nil
	ic.Telemetry = Telemetry{}
	ic.hasLOS = false
	return ic
}

func guide(ic Interceptor, tgt Target, dt float64) Interceptor {
	if ic.Guidance == GuidancePN {
		return guidePN(ic, tgt, dt)
	}
	return guidePursuit(ic, tgt, dt)
}

func limits(cfg FlightConfig) flight.Limits {
	return flight.Limits{Acceleration: cfg.Acceleration, TurnRate: cfg.TurnRate, ClimbRate: cfg.ClimbRate}
}

// guidePursuit flies at the point the target will reach in PursuitLookahead seconds.
func guidePursuit(ic Interceptor, tgt Target, dt float64) Interceptor {
	aim := tgt.Position.Add(tgt.Velocity, PursuitLookahead)
	climb := (aim.Altitude - ic.Position.Altitude) * altitudeGain
	ic.Velocity = flight.Steer(ic.Velocity, flight.HeadingTo(ic.Position, aim), ic.Config.MaxSpeed, climb, limits(ic.Config), dt)
	ic.Position, ic.Velocity = flight.Integrate(ic.Position, ic.Velocity, dt)
	return ic
}

// guidePN applies a lateral acceleration of N·Vc·λ̇ in the horizontal plane on
// top of a weak pursuit term that keeps the nose on the line of sight.
func guidePN(ic Interceptor, tgt Target, dt float64) Interceptor {
	rx, ry := tgt.Position.X-ic.Position.X, tgt.Position.Y-ic.Position.Y
	rng := math.Hypot(rx, ry)
	los := math.Atan2(ry, rx)

	var losRate float64
	if ic.hasLOS && dt > 0 {
		losRate = flight.WrapAngle(los-ic.lastLOS) / dt
	}
	var closing float64
	if rng > 0 {
		rel := tgt.Velocity.Sub(ic.Velocity)
		closing = -(rx*rel.VX + ry*rel.VY) / rng
	}

	n := ic.Config.NavigationConstant
	if n <= 0 {
		n = DefaultFlightConfig().NavigationConstant
	}
	speed := ic.Velocity.GroundSpeed()
	turnRate := ic.Config.TurnRate * math.Pi / 180
	maxLateral := speed * turnRate
	if speed < 1 {
		maxLateral = ic.Config.Acceleration
	}
	accel := flight.Clamp(n*closing*losRate, -maxLateral, maxLateral)

	heading := los
	if speed >= 1 {
		cur := flight.Heading(ic.Velocity)
		rate := accel/speed + pnPursuitGain*flight.WrapAngle(los-cur)
		rate = flight.Clamp(rate, -turnRate, turnRate)
		heading = cur + rate*dt
	}
	climb := (tgt.Position.Altitude - ic.Position.Altitude) * altitudeGain
	ic.Velocity = flight.Steer(ic.Velocity, heading, ic.Config.MaxSpeed, climb, limits(ic.Config), dt)
	ic.Position, ic.Velocity = flight.Integrate(ic.Position, ic.Velocity, dt)

	ic.Telemetry = Telemetry{ClosingSpeed: closing, LOSRate: losRate, CommandedAccel: accel}
	ic.lastLOS = los
	ic.hasLOS = true
	return ic
}

// Probability returns the intercept success probability for the given geometry,
// clamped to [MinProbability, MaxProbability].
func Probability(base, relativeSpeed float64, evading bool, evasionStrength, altitudeDelta float64) float64 {
	p := base
	switch {
	case relativeSpeed > 30:
		p *= 0.8
	case relativeSpeed > 20:
		p *= 0.9
	}
	if evading {
		p *= 1 - flight.Clamp(evasionStrength, 0, 1)
	}
	if math.Abs(altitudeDelta) > 30 {
		p *= 0.85
	}
	return flight.Clamp(p, MinProbability, MaxProbability)
}

func resolve(ic Interceptor, tgt Target, rng Sampler) Outcome {
	relSpeed := ic.Velocity.Sub(tgt.Velocity).Speed()
	altDelta := ic.Position.Altitude - tgt.Position.Altitude
	p := Probability(ic.Config.BaseSuccessRate, relSpeed, tgt.IsEvading, tgt.EvasionStrength, altDelta)
	out := Outcome{
		InterceptorID: ic.ID,
		TargetID:      tgt.ID,
		Probability:   &p,
		Distance:      ic.Position.Distance(tgt.Position),
		RelativeSpeed: relSpeed,
		AltitudeDelta: altDelta,
		TargetEvading: tgt.IsEvading,
	}
	switch {
	case rng.Float64() < p:
		out.Result = ResultSuccess
	case tgt.IsEvading:
		out.Result = ResultEvaded
	default:
		out.Result = ResultMiss
	}
	return out
}
