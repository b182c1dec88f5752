package scenario

import (
	"fmt"
	"math"

	"counterdrone-sim/internal/enemy"
	"counterdrone-sim/internal/radar"
	"counterdrone-sim/internal/telemetry"
)

// Bounds is an inclusive numeric interval.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// IntBounds is an inclusive integer interval.
type IntBounds struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

// GeneratorConfig bounds every random draw of the generator.
type GeneratorConfig struct {
	Drones          IntBounds `json:"drones" yaml:"drones"`
	Interceptors    IntBounds `json:"interceptors" yaml:"interceptors"`
	HostileRatio    Bounds    `json:"hostile_ratio" yaml:"hostile_ratio"`
	SpawnRadius     Bounds    `json:"spawn_radius" yaml:"spawn_radius"`
	SpawnAltitude   Bounds    `json:"spawn_altitude" yaml:"spawn_altitude"`
	MaxSpeed        Bounds    `json:"max_speed" yaml:"max_speed"`
	CruiseFactor    Bounds    `json:"cruise_factor" yaml:"cruise_factor"`
	Acceleration    Bounds    `json:"acceleration" yaml:"acceleration"`
	TurnRate        Bounds    `json:"turn_rate" yaml:"turn_rate"`
	EvasionTrigger  Bounds    `json:"evasion_trigger" yaml:"evasion_trigger"`
	EvasionStrength Bounds    `json:"evasion_strength" yaml:"evasion_strength"`
	ScanRate        Bounds    `json:"scan_rate" yaml:"scan_rate"`
	RadarRange      Bounds    `json:"radar_range" yaml:"radar_range"`
	RangeNoise      Bounds    `json:"range_noise" yaml:"range_noise"`
	BearingNoise    Bounds    `json:"bearing_noise" yaml:"bearing_noise"`
	FalseAlarmRate  Bounds    `json:"false_alarm_rate" yaml:"false_alarm_rate"`
	MissProbability Bounds    `json:"miss_probability" yaml:"miss_probability"`
}

// DefaultGeneratorConfig returns the stock generator bounds.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Drones:          IntBounds{3, 12},
		Interceptors:    IntBounds{2, 5},
		HostileRatio:    Bounds{0.5, 1},
		SpawnRadius:     Bounds{500, 1100},
		SpawnAltitude:   Bounds{40, 150},
		MaxSpeed:        Bounds{15, 35},
		CruiseFactor:    Bounds{0.5, 0.8},
		Acceleration:    Bounds{3, 8},
		TurnRate:        Bounds{30, 90},
		EvasionTrigger:  Bounds{80, 200},
		EvasionStrength: Bounds{0.2, 0.6},
		ScanRate:        Bounds{1, 4},
		RadarRange:      Bounds{800, 1500},
		RangeNoise:      Bounds{2, 15},
		BearingNoise:    Bounds{0.5, 3},
		FalseAlarmRate:  Bounds{0, 0.05},
		MissProbability: Bounds{0, 0.2},
	}
}

// BehaviorDistribution holds the normalized behavior weights of a generated scenario.
type BehaviorDistribution struct {
	DirectAttack float64 `json:"direct_attack"`
	ReconLoiter  float64 `json:"recon_loiter"`
	Evasive      float64 `json:"evasive"`
	RandomWalk   float64 `json:"random_walk"`
}

// Metadata summarizes a generated scenario.
type Metadata struct {
	HostileRatio           float64 `json:"hostile_ratio"`
	AverageInitialDistance float64 `json:"average_initial_distance"`
	Difficulty             int     `json:"difficulty"`
}

// GeneratedScenario is the persisted output of the generator.
type GeneratedScenario struct {
	ID                   string               `json:"id"`
	Seed                 uint32               `json:"seed"`
	Drones               []DroneSpec          `json:"drones"`
	InterceptorCount     int                  `json:"interceptor_count"`
	Radar                radar.Config         `json:"radar_config"`
	BehaviorDistribution BehaviorDistribution `json:"behavior_distribution"`
	Metadata             Metadata             `json:"metadata"`
}

// Scenario converts g into a loadable scenario.
func (g *GeneratedScenario) Scenario() Scenario {
	rc := g.Radar
	return Scenario{
		ID:               g.ID,
		Name:             fmt.Sprintf("Generated (seed %d)", g.Seed),
		Description:      fmt.Sprintf("%d drones, difficulty %d/10", len(g.Drones), g.Metadata.Difficulty),
		Drones:           append([]DroneSpec(nil), g.Drones...),
		InterceptorCount: g.InterceptorCount,
		Radar:            &rc,
	}
}

// GeneratedID returns the id of the scenario generated from seed.
func GeneratedID(seed uint32) string {
	return fmt.Sprintf("gen-%d", seed)
}

// Generator builds seeded scenarios within its bounds.
type Generator struct {
	cfg GeneratorConfig
}

// NewGenerator creates a Generator.
func NewGenerator(cfg GeneratorConfig) *Generator {
	return &Generator{cfg: cfg}
}

// Generate builds the scenario for seed. Identical seeds produce identical scenarios.
func (g *Generator) Generate(seed uint32) *GeneratedScenario {
	rng := NewMulberry32(seed)
	c := g.cfg

	droneCount := rng.IntRange(c.Drones.Min, c.Drones.Max)
	interceptors := rng.IntRange(c.Interceptors.Min, c.Interceptors.Max)
	hostileRatio := rng.Range(c.HostileRatio.Min, c.HostileRatio.Max)

	w := [4]float64{rng.Range(0.1, 1), rng.Range(0.1, 1), rng.Range(0.1, 1), rng.Range(0.1, 1)}
	sum := w[0] + w[1] + w[2] + w[3]
	dist := BehaviorDistribution{
		DirectAttack: w[0] / sum,
		ReconLoiter:  w[1] / sum,
		Evasive:      w[2] / sum,
		RandomWalk:   w[3] / sum,
	}

	rc := radar.Config{
		ScanRate:        rng.Range(c.ScanRate.Min, c.ScanRate.Max),
		MaxRange:        rng.Range(c.RadarRange.Min, c.RadarRange.Max),
		RangeNoise:      rng.Range(c.RangeNoise.Min, c.RangeNoise.Max),
		BearingNoise:    rng.Range(c.BearingNoise.Min, c.BearingNoise.Max),
		FalseAlarmRate:  rng.Range(c.FalseAlarmRate.Min, c.FalseAlarmRate.Max),
		MissProbability: rng.Range(c.MissProbability.Min, c.MissProbability.Max),
	}

	out := &GeneratedScenario{
		ID:                   GeneratedID(seed),
		Seed:                 seed,
		InterceptorCount:     interceptors,
		Radar:                rc,
		BehaviorDistribution: dist,
	}

	var hostiles, attackers int
	var totalDist float64
	for i := 0; i < droneCount; i++ {
		d := g.drone(rng, i, hostileRatio, dist)
		if d.IsHostile {
			hostiles++
			if d.Behavior == enemy.BehaviorAttackRun {
				attackers++
			}
		}
		totalDist += d.Position.Distance(telemetry.Position{})
		out.Drones = append(out.Drones, d)
	}

	avg := 0.0
	if droneCount > 0 {
		avg = totalDist / float64(droneCount)
	}
	out.Metadata = Metadata{
		HostileRatio:           hostileRatio,
		AverageInitialDistance: avg,
		Difficulty:             difficulty(droneCount, hostileRatio, attackers, rc),
	}
	return out
}

// GenerateBatch generates count scenarios with consecutive seeds starting at seed.
func (g *Generator) GenerateBatch(seed uint32, count int) []*GeneratedScenario {
	out := make([]*GeneratedScenario, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, g.Generate(seed+uint32(i)))
	}
	return out
}

func (g *Generator) drone(rng *Mulberry32, i int, hostileRatio float64, dist BehaviorDistribution) DroneSpec {
	c := g.cfg
	hostile := rng.Next() < hostileRatio
	behavior := pickBehavior(rng.Next(), hostile, dist)

	angle := rng.Range(0, 2*math.Pi)
	radius := rng.Range(c.SpawnRadius.Min, c.SpawnRadius.Max)
	alt := rng.Range(c.SpawnAltitude.Min, c.SpawnAltitude.Max)
	pos := telemetry.Position{X: radius * math.Cos(angle), Y: radius * math.Sin(angle), Altitude: alt}

	maxSpeed := rng.Range(c.MaxSpeed.Min, c.MaxSpeed.Max)
	fc := enemy.FlightConfig{
		MaxSpeed:               maxSpeed,
		CruiseSpeed:            maxSpeed * rng.Range(c.CruiseFactor.Min, c.CruiseFactor.Max),
		Acceleration:           rng.Range(c.Acceleration.Min, c.Acceleration.Max),
		TurnRate:               rng.Range(c.TurnRate.Min, c.TurnRate.Max),
		EvasionTriggerDistance: rng.Range(c.EvasionTrigger.Min, c.EvasionTrigger.Max),
		EvasionStrength:        rng.Range(c.EvasionStrength.Min, c.EvasionStrength.Max),
	}
	if behavior == enemy.BehaviorEvade {
		fc.EvasionStrength = math.Min(0.8, fc.EvasionStrength+0.2)
	}

	spec := DroneSpec{
		ID:        fmt.Sprintf("DRONE-%03d", i+1),
		Position:  pos,
		Behavior:  behavior,
		IsHostile: hostile,
		Config:    fc,
	}
	switch behavior {
	case enemy.BehaviorAttackRun, enemy.BehaviorNormal:
		h := angle + math.Pi
		spec.Velocity = telemetry.Velocity{VX: fc.CruiseSpeed * math.Cos(h), VY: fc.CruiseSpeed * math.Sin(h)}
	case enemy.BehaviorRecon:
		h := angle + math.Pi/2
		spec.Velocity = telemetry.Velocity{VX: fc.CruiseSpeed * math.Cos(h), VY: fc.CruiseSpeed * math.Sin(h)}
		f := rng.Range(0.3, 0.6)
		spec.TargetPoint = &telemetry.Position{X: pos.X * f, Y: pos.Y * f, Altitude: alt}
	default:
		h := rng.Range(0, 2*math.Pi)
		spec.Velocity = telemetry.Velocity{VX: fc.CruiseSpeed * math.Cos(h), VY: fc.CruiseSpeed * math.Sin(h)}
	}
	return spec
}

func pickBehavior(r float64, hostile bool, d BehaviorDistribution) enemy.Behavior {
	if !hostile {
		if r < 0.5 {
			return enemy.BehaviorRecon
		}
		return enemy.BehaviorNormal
	}
	switch {
	case r < d.DirectAttack:
		return enemy.BehaviorAttackRun
	case r < d.DirectAttack+d.ReconLoiter:
		return enemy.BehaviorRecon
	case r < d.DirectAttack+d.ReconLoiter+d.Evasive:
		return enemy.BehaviorEvade
	}
	return enemy.BehaviorNormal
}

// difficulty scores a scenario on a 1..10 scale.
func difficulty(drones int, hostileRatio float64, attackers int, rc radar.Config) int {
	score := 1 + float64(drones)/12*2.5 + hostileRatio*2
	if drones > 0 {
		score += float64(attackers) / float64(drones) * 2
	}
	score += rc.RangeNoise / 15
	score += rc.MissProbability / 0.2
	score += rc.FalseAlarmRate / 0.05 * 0.5
	return int(math.Max(1, math.Min(10, math.Round(score))))
}
