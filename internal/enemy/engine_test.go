package enemy

import (
	"math"
	"testing"

	"counterdrone-sim/internal/flight"
	"counterdrone-sim/internal/telemetry"
)

func newDrone(b Behavior, pos telemetry.Position) Drone {
	return Drone{ID: "H-001", Position: pos, Behavior: b, Config: DefaultFlightConfig(), IsHostile: true}
}

func run(d Drone, env Environment, ticks int) Drone {
	for i := 0; i < ticks; i++ {
		d = Step(d, env, 0.1)
	}
	return d
}

func TestStep_NormalClosesOnBase(t *testing.T) {
	d := newDrone(BehaviorNormal, telemetry.Position{X: 800, Y: 600, Altitude: 80})
	env := Environment{}
	before := d.Position.HorizontalDistance(env.Base)
	d = run(d, env, 100)
	if after := d.Position.HorizontalDistance(env.Base); after >= before {
		t.Fatalf("expected drone to close on base: before=%.1f after=%.1f", before, after)
	}
}

func TestStep_AttackRunIsFaster(t *testing.T) {
	env := Environment{}
	normal := run(newDrone(BehaviorNormal, telemetry.Position{X: 2000, Altitude: 80}), env, 100)
	attack := run(newDrone(BehaviorAttackRun, telemetry.Position{X: 2000, Altitude: 80}), env, 100)
	if attack.Velocity.GroundSpeed() <= normal.Velocity.GroundSpeed() {
		t.Fatalf("attack speed %.2f not above normal %.2f", attack.Velocity.GroundSpeed(), normal.Velocity.GroundSpeed())
	}
	if attack.Velocity.GroundSpeed() > attack.Config.MaxSpeed+1e-9 {
		t.Fatalf("attack speed %.2f exceeds max", attack.Velocity.GroundSpeed())
	}
	if attack.Position.Altitude <= 80 {
		t.Fatalf("expected attack run to climb toward attack altitude, got %.1f", attack.Position.Altitude)
	}
}

func TestStep_ReconHoldsOrbit(t *testing.T) {
	center := telemetry.Position{X: 500, Y: 500, Altitude: 80}
	d := newDrone(BehaviorRecon, telemetry.Position{X: 500 + LoiterRadius, Y: 500, Altitude: 80})
	d.TargetPoint = &center
	d.Velocity = telemetry.Velocity{VY: d.Config.CruiseSpeed}
	for i := 0; i < 600; i++ {
		d = Step(d, Environment{}, 0.1)
		r := center.HorizontalDistance(d.Position)
		if r < LoiterRadius/2 || r > LoiterRadius*1.5 {
			t.Fatalf("tick %d: orbit radius %.1f drifted", i, r)
		}
	}
}

func TestStep_EvasionWithoutHysteresis(t *testing.T) {
	d := newDrone(BehaviorNormal, telemetry.Position{X: 500, Altitude: 80})
	d.Velocity = telemetry.Velocity{VX: -10}
	near := Environment{Threats: []Threat{{ID: "I-001", Position: telemetry.Position{X: 420, Altitude: 80}}}}
	d = Step(d, near, 0.1)
	if !d.IsEvading {
		t.Fatalf("expected evasion with threat at %.0fm", d.Position.Distance(near.Threats[0].Position))
	}
	d = Step(d, Environment{}, 0.1)
	if d.IsEvading {
		t.Fatalf("expected evasion to stop once no threat is in range")
	}
}

func TestStep_EvasionTurnsAwayFromLine(t *testing.T) {
	d := newDrone(BehaviorNormal, telemetry.Position{X: 500, Altitude: 80})
	d.Velocity = telemetry.Velocity{VX: -10}
	env := Environment{Threats: []Threat{{ID: "I-001", Position: telemetry.Position{X: 400, Altitude: 80}}}}
	d = run(d, env, 10)
	if math.Abs(d.Velocity.VY) < 1 {
		t.Fatalf("expected lateral velocity while evading, got %#v", d.Velocity)
	}
}

func TestStep_NeutralizedIsFrozen(t *testing.T) {
	d := newDrone(BehaviorAttackRun, telemetry.Position{X: 100, Altitude: 50})
	d.IsNeutralized = true
	got := Step(d, Environment{}, 1)
	if got.Position != d.Position || got.Velocity != d.Velocity {
		t.Fatalf("neutralized drone moved: %#v", got)
	}
}

func TestStep_AltitudeFloor(t *testing.T) {
	d := newDrone(BehaviorNormal, telemetry.Position{X: 300, Altitude: 10.2})
	d.Velocity = telemetry.Velocity{VX: -10, ClimbRate: -20}
	for i := 0; i < 50; i++ {
		d = Step(d, Environment{}, 0.1)
		if d.Position.Altitude < flight.MinAltitude {
			t.Fatalf("tick %d: altitude %.2f below floor", i, d.Position.Altitude)
		}
	}
}

func TestStep_Deterministic(t *testing.T) {
	env := Environment{Threats: []Threat{{ID: "I", Position: telemetry.Position{X: 300, Y: 40, Altitude: 70}}}}
	a := run(newDrone(BehaviorEvade, telemetry.Position{X: 400, Y: 0, Altitude: 80}), env, 50)
	b := run(newDrone(BehaviorEvade, telemetry.Position{X: 400, Y: 0, Altitude: 80}), env, 50)
	if a != b {
		t.Fatalf("expected identical results, got %#v and %#v", a, b)
	}
}

func TestBehaviorValid(t *testing.T) {
	for _, b := range []Behavior{BehaviorNormal, BehaviorRecon, BehaviorAttackRun, BehaviorEvade} {
		if !b.Valid() {
			t.Fatalf("%s should be valid", b)
		}
	}
	if Behavior("HOVER").Valid() {
		t.Fatalf("HOVER should not be valid")
	}
}
