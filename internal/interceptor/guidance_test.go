package interceptor

import (
	"errors"
	"math"
	"testing"

	"counterdrone-sim/internal/flight"
	"counterdrone-sim/internal/telemetry"
)

type fixedSampler float64

func (f fixedSampler) Float64() float64 { return float64(f) }

func standby() Interceptor {
	return Interceptor{
		ID:       "I-001",
		Position: telemetry.Position{Altitude: 20},
		State:    StateStandby,
		Config:   DefaultFlightConfig(),
	}
}

func TestLaunchRequiresStandby(t *testing.T) {
	ic, err := Launch(standby(), "H-001", "", 3)
	if err != nil {
		t.Fatalf("launch: %v", err)
	}
	if ic.State != StateLaunching || ic.TargetID != "H-001" || ic.LaunchTime == nil || *ic.LaunchTime != 3 {
		t.Fatalf("unexpected launched interceptor: %#v", ic)
	}
	if ic.Guidance != GuidancePursuit {
		t.Fatalf("guidance = %s, want PURSUIT", ic.Guidance)
	}
	if _, err := Launch(ic, "H-002", GuidancePN, 4); !errors.Is(err, ErrNotAvailable) {
		t.Fatalf("expected ErrNotAvailable, got %v", err)
	}
}

func TestLaunchPhaseLastsTwoSeconds(t *testing.T) {
	ic, _ := Launch(standby(), "H-001", GuidancePursuit, 0)
	tgt := &Target{ID: "H-001", Position: telemetry.Position{X: 500, Altitude: 60}}
	dt := 0.05
	now := 0.0
	startAlt := ic.Position.Altitude
	for i := 0; i < 100; i++ {
		now += dt
		ic, _ = Step(ic, tgt, Environment{Time: now, Rand: fixedSampler(0)}, dt)
		if ic.State == StatePursuing {
			if now < LaunchDuration {
				t.Fatalf("pursuing after %.3fs of launch", now)
			}
			if ic.Position.Altitude <= startAlt {
				t.Fatalf("expected climb during launch")
			}
			return
		}
		if ic.State != StateLaunching {
			t.Fatalf("unexpected state %s", ic.State)
		}
		if ic.Velocity.VX != 0 || ic.Velocity.VY != 0 {
			t.Fatalf("horizontal motion during launch: %#v", ic.Velocity)
		}
	}
	t.Fatalf("never left LAUNCHING")
}

func TestProbability(t *testing.T) {
	cases := []struct {
		name     string
		base     float64
		speed    float64
		evading  bool
		strength float64
		altDelta float64
		want     float64
	}{
		{"slow clean shot", 0.8, 10, false, 0, 0, 0.8},
		{"fast closure", 0.8, 35, false, 0, 0, 0.64},
		{"medium closure high delta", 0.8, 25, false, 0, 40, 0.8 * 0.9 * 0.85},
		{"evading", 0.8, 10, true, 0.5, 0, 0.4},
		{"upper clamp", 1.5, 0, false, 0, 0, MaxProbability},
		{"lower clamp", 0.2, 50, true, 0.9, 100, MinProbability},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Probability(tc.base, tc.speed, tc.evading, tc.strength, tc.altDelta)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("p = %v, want %v", got, tc.want)
			}
			if got < MinProbability || got > MaxProbability {
				t.Fatalf("p = %v outside bounds", got)
			}
		})
	}
}

func engaging(target Target) (Interceptor, *Target) {
	ic := standby()
	ic.State = StateEngaging
	ic.TargetID = target.ID
	lt := 0.0
	ic.LaunchTime = &lt
	ic.Position = telemetry.Position{X: target.Position.X - 5, Y: target.Position.Y, Altitude: target.Position.Altitude}
	return ic, &target
}

func TestResolveResults(t *testing.T) {
	cases := []struct {
		name    string
		sample  float64
		evading bool
		want    Result
	}{
		{"hit", 0, false, ResultSuccess},
		{"miss", 0.999, false, ResultMiss},
		{"evaded", 0.999, true, ResultEvaded},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ic, tgt := engaging(Target{ID: "H-001", Position: telemetry.Position{X: 100, Altitude: 50}, IsEvading: tc.evading, EvasionStrength: 0.3})
			got, out := Step(ic, tgt, Environment{Rand: fixedSampler(tc.sample)}, 0.05)
			if out == nil {
				t.Fatalf("expected outcome")
			}
			if out.Result != tc.want {
				t.Fatalf("result = %s, want %s", out.Result, tc.want)
			}
			if out.Probability == nil || *out.Probability < MinProbability || *out.Probability > MaxProbability {
				t.Fatalf("bad probability %v", out.Probability)
			}
			if got.State != StateReturning || got.TargetID != "" || got.LaunchTime != nil {
				t.Fatalf("expected cleared binding in RETURNING, got %#v", got)
			}
		})
	}
}

func TestEngagingTargetLostAborts(t *testing.T) {
	ic, _ := engaging(Target{ID: "H-001", Position: telemetry.Position{X: 100, Altitude: 50}})
	got, out := Step(ic, nil, Environment{Rand: fixedSampler(0)}, 0.05)
	if out == nil || out.Result != ResultAborted {
		t.Fatalf("expected ABORTED outcome, got %#v", out)
	}
	if out.Probability != nil {
		t.Fatalf("aborted engagement must not draw a probability")
	}
	if got.State != StateReturning {
		t.Fatalf("state = %s, want RETURNING", got.State)
	}
}

func TestPursuingNeutralizedTargetReturns(t *testing.T) {
	ic := standby()
	ic.State = StatePursuing
	ic.TargetID = "H-001"
	got, out := Step(ic, &Target{ID: "H-001", IsNeutralized: true}, Environment{}, 0.05)
	if out != nil {
		t.Fatalf("unexpected outcome %#v", out)
	}
	if got.State != StateReturning || got.TargetID != "" {
		t.Fatalf("expected RETURNING without target, got %#v", got)
	}
}

func TestReturnToStandby(t *testing.T) {
	ic := standby()
	ic.State = StateReturning
	ic.Position = telemetry.Position{X: 300, Y: -200, Altitude: 70}
	env := Environment{HoverAltitude: 20}
	for i := 0; i < 1000; i++ {
		ic, _ = Step(ic, nil, env, 0.05)
		if ic.Velocity.GroundSpeed() > ic.Config.MaxSpeed*ReturnSpeedFactor+1e-9 {
			t.Fatalf("return speed %.2f above limit", ic.Velocity.GroundSpeed())
		}
		if ic.State == StateStandby {
			if ic.Velocity != (telemetry.Velocity{}) || ic.Position.Altitude != 20 {
				t.Fatalf("unexpected standby state: %#v", ic)
			}
			return
		}
	}
	t.Fatalf("never returned to standby")
}

func chase(t *testing.T, mode GuidanceMode) (Interceptor, *Outcome) {
	t.Helper()
	ic := standby()
	ic.State = StatePursuing
	ic.TargetID = "H-001"
	ic.Guidance = mode
	tgt := Target{ID: "H-001", Position: telemetry.Position{X: 400, Y: 300, Altitude: 60}, Velocity: telemetry.Velocity{VX: -10}}
	dt := 0.05
	now := 0.0
	for i := 0; i < 2400; i++ {
		now += dt
		tgt.Position = tgt.Position.Add(tgt.Velocity, dt)
		var out *Outcome
		ic, out = Step(ic, &tgt, Environment{Time: now, Rand: fixedSampler(0.5)}, dt)
		if ic.Position.Altitude < flight.MinAltitude {
			t.Fatalf("altitude %.2f below floor", ic.Position.Altitude)
		}
		if out != nil {
			return ic, out
		}
	}
	t.Fatalf("%s guidance never resolved an intercept", mode)
	return ic, nil
}

func TestPursuitGuidanceResolves(t *testing.T) {
	_, out := chase(t, GuidancePursuit)
	if out.Result == ResultAborted {
		t.Fatalf("unexpected abort")
	}
}

func TestPNGuidanceResolves(t *testing.T) {
	_, out := chase(t, GuidancePN)
	if out.Result == ResultAborted {
		t.Fatalf("unexpected abort")
	}
}

func TestPNTelemetryRecorded(t *testing.T) {
	ic := standby()
	ic.State = StatePursuing
	ic.Guidance = GuidancePN
	ic.Velocity = telemetry.Velocity{VX: 30}
	tgt := Target{ID: "H-001", Position: telemetry.Position{X: 300, Y: 200, Altitude: 20}, Velocity: telemetry.Velocity{VY: 15}}
	ic, _ = Step(ic, &tgt, Environment{}, 0.1)
	tgt.Position = tgt.Position.Add(tgt.Velocity, 0.1)
	ic, _ = Step(ic, &tgt, Environment{}, 0.1)
	if ic.Telemetry.ClosingSpeed <= 0 {
		t.Fatalf("expected positive closing speed, got %v", ic.Telemetry.ClosingSpeed)
	}
	if ic.Telemetry.LOSRate == 0 {
		t.Fatalf("expected non-zero LOS rate")
	}
}

func TestParseGuidanceMode(t *testing.T) {
	for in, want := range map[string]GuidanceMode{"": GuidancePursuit, "pursuit": GuidancePursuit, "pn": GuidancePN, "PROPORTIONAL_NAVIGATION": GuidancePN} {
		got, err := ParseGuidanceMode(in)
		if err != nil || got != want {
			t.Fatalf("ParseGuidanceMode(%q) = %s, %v", in, got, err)
		}
	}
	if _, err := ParseGuidanceMode("laser"); err == nil {
		t.Fatalf("expected error")
	}
}
