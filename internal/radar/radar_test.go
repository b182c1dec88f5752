package radar

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"counterdrone-sim/internal/telemetry"
)

func quietConfig() Config {
	return Config{ScanRate: 2, MaxRange: 1000}
}

func TestAdvanceGatesOnScanRate(t *testing.T) {
	s := NewSensor(quietConfig(), telemetry.Position{}, rand.New(rand.NewSource(1)))
	contacts := []Contact{{ID: "H-001", Position: telemetry.Position{X: 300, Altitude: 50}}}
	scans := 0
	for i := 0; i < 45; i++ {
		if len(s.Advance(0.05, contacts)) > 0 {
			scans++
		}
	}
	if scans != 4 {
		t.Fatalf("scans = %d, want 4", scans)
	}
}

func TestScanNeverReportsBeyondMaxRange(t *testing.T) {
	cfg := Config{ScanRate: 1, MaxRange: 800, RangeNoise: 10, BearingNoise: 2, FalseAlarmRate: 0.5}
	s := NewSensor(cfg, telemetry.Position{}, rand.New(rand.NewSource(7)))
	contacts := []Contact{
		{ID: "near", Position: telemetry.Position{X: 200, Y: 100, Altitude: 60}},
		{ID: "edge", Position: telemetry.Position{X: 790, Altitude: 20}},
		{ID: "far", Position: telemetry.Position{X: 900, Altitude: 60}},
	}
	for i := 0; i < 200; i++ {
		for _, d := range s.Scan(contacts) {
			if d.DroneID == "far" {
				t.Fatalf("detected contact beyond max range")
			}
			if d.TrueRange > cfg.MaxRange {
				t.Fatalf("true range %.1f beyond max", d.TrueRange)
			}
		}
	}
}

func TestFirstDetectionTagging(t *testing.T) {
	s := NewSensor(quietConfig(), telemetry.Position{}, rand.New(rand.NewSource(1)))
	contacts := []Contact{{ID: "H-001", Position: telemetry.Position{X: 100, Altitude: 50}}}
	first := s.Scan(contacts)
	second := s.Scan(contacts)
	if len(first) != 1 || !first[0].IsFirstDetection {
		t.Fatalf("expected first detection, got %#v", first)
	}
	if len(second) != 1 || second[0].IsFirstDetection {
		t.Fatalf("expected repeat detection, got %#v", second)
	}
	s.Reset(rand.New(rand.NewSource(2)))
	if again := s.Scan(contacts); !again[0].IsFirstDetection {
		t.Fatalf("expected first detection after reset")
	}
}

func TestMissProbabilityAndNeutralized(t *testing.T) {
	cfg := quietConfig()
	cfg.MissProbability = 1
	s := NewSensor(cfg, telemetry.Position{}, rand.New(rand.NewSource(1)))
	if got := s.Scan([]Contact{{ID: "H-001", Position: telemetry.Position{X: 100, Altitude: 50}}}); len(got) != 0 {
		t.Fatalf("expected all contacts missed, got %d", len(got))
	}
	s.Reconfigure(quietConfig())
	if got := s.Scan([]Contact{{ID: "H-001", Position: telemetry.Position{X: 100, Altitude: 50}, IsNeutralized: true}}); len(got) != 0 {
		t.Fatalf("neutralized contact detected")
	}
}

func TestFalseAlarm(t *testing.T) {
	cfg := quietConfig()
	cfg.FalseAlarmRate = 1
	s := NewSensor(cfg, telemetry.Position{}, rand.New(rand.NewSource(3)))
	got := s.Scan(nil)
	if len(got) != 1 {
		t.Fatalf("expected one false alarm, got %d", len(got))
	}
	d := got[0]
	if !d.IsFalseAlarm || !strings.HasPrefix(d.DroneID, "FA-") {
		t.Fatalf("unexpected false alarm %#v", d)
	}
	if d.Range <= 0 || d.Range >= cfg.MaxRange {
		t.Fatalf("false alarm range %.1f outside radar coverage", d.Range)
	}
	if d.RadialVelocity != nil {
		t.Fatalf("false alarm should not carry radial velocity")
	}
}

func TestRadialVelocitySign(t *testing.T) {
	s := NewSensor(quietConfig(), telemetry.Position{}, rand.New(rand.NewSource(1)))
	got := s.Scan([]Contact{{ID: "H-001", Position: telemetry.Position{X: 500}, Velocity: telemetry.Velocity{VX: -12}}})
	if len(got) != 1 || got[0].RadialVelocity == nil || *got[0].RadialVelocity != -12 {
		t.Fatalf("expected closing radial velocity -12, got %#v", got)
	}
	if math.Abs(got[0].Bearing-90) > 1e-9 {
		t.Fatalf("bearing = %v, want 90", got[0].Bearing)
	}
}

func TestScanDeterministic(t *testing.T) {
	cfg := Config{ScanRate: 1, MaxRange: 1000, RangeNoise: 5, BearingNoise: 1, FalseAlarmRate: 0.3, MissProbability: 0.2}
	contacts := []Contact{{ID: "H-001", Position: telemetry.Position{X: 300, Y: 400, Altitude: 50}}}
	a := NewSensor(cfg, telemetry.Position{}, rand.New(rand.NewSource(9)))
	b := NewSensor(cfg, telemetry.Position{}, rand.New(rand.NewSource(9)))
	for i := 0; i < 20; i++ {
		da, db := a.Scan(contacts), b.Scan(contacts)
		if len(da) != len(db) {
			t.Fatalf("scan %d: lengths differ", i)
		}
		for j := range da {
			if da[j].DroneID != db[j].DroneID || da[j].Range != db[j].Range || da[j].Bearing != db[j].Bearing {
				t.Fatalf("scan %d: detections differ", i)
			}
		}
	}
}
