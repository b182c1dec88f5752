package flight

import (
	"math"
	"testing"

	"counterdrone-sim/internal/telemetry"
)

func TestBearing(t *testing.T) {
	origin := telemetry.Position{}
	cases := []struct {
		name string
		to   telemetry.Position
		want float64
	}{
		{"north", telemetry.Position{Y: 100}, 0},
		{"east", telemetry.Position{X: 100}, 90},
		{"south", telemetry.Position{Y: -100}, 180},
		{"west", telemetry.Position{X: -100}, 270},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Bearing(origin, tc.to); math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("bearing = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSteerRespectsTurnRate(t *testing.T) {
	v := telemetry.Velocity{VX: 10}
	lim := Limits{Acceleration: 5, TurnRate: 90}
	got := Steer(v, math.Pi, 10, 0, lim, 0.1)
	turned := math.Abs(WrapAngle(Heading(got) - Heading(v)))
	if turned > 9*math.Pi/180+1e-9 {
		t.Fatalf("turned %.4f rad, limit is 9 deg", turned)
	}
}

func TestSteerRespectsAcceleration(t *testing.T) {
	lim := Limits{Acceleration: 4, TurnRate: 90}
	got := Steer(telemetry.Velocity{VX: 10}, 0, 30, 0, lim, 0.5)
	if s := got.GroundSpeed(); math.Abs(s-12) > 1e-9 {
		t.Fatalf("speed = %v, want 12", s)
	}
}

func TestSteerSnapsHeadingFromRest(t *testing.T) {
	lim := Limits{Acceleration: 10, TurnRate: 10}
	got := Steer(telemetry.Velocity{}, math.Pi/2, 5, 0, lim, 0.1)
	if math.Abs(Heading(got)-math.Pi/2) > 1e-9 {
		t.Fatalf("heading = %v, want pi/2", Heading(got))
	}
}

func TestIntegrateAltitudeFloor(t *testing.T) {
	p, v := Integrate(telemetry.Position{Altitude: 11}, telemetry.Velocity{ClimbRate: -5}, 1)
	if p.Altitude != MinAltitude {
		t.Fatalf("altitude = %v, want %v", p.Altitude, MinAltitude)
	}
	if v.ClimbRate != 0 {
		t.Fatalf("climb rate = %v, want 0", v.ClimbRate)
	}
}
