// YAML config loader with CUE validation integration
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"counterdrone-sim/internal/flight"
	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/radar"
	"counterdrone-sim/internal/scenario"
	"counterdrone-sim/internal/telemetry"
)

// InterceptorSettings configures the interceptor fleet created for each scenario.
type InterceptorSettings struct {
	Guidance      string                   `yaml:"guidance"`
	HoverAltitude float64                  `yaml:"hover_altitude"`
	Flight        interceptor.FlightConfig `yaml:"flight"`
}

// SimulationConfig is the root configuration of the simulator.
type SimulationConfig struct {
	TickInterval    time.Duration            `yaml:"tick_interval"`
	SpeedMultiplier float64                  `yaml:"speed_multiplier"`
	StatusInterval  float64                  `yaml:"status_interval"` // simulated seconds, 0 = every tick
	Seed            int64                    `yaml:"seed"`
	Base            telemetry.Position       `yaml:"base"`
	DefaultScenario string                   `yaml:"default_scenario"`
	ScenarioDir     string                   `yaml:"scenario_dir"`
	AdminAddr       string                   `yaml:"admin_addr"`
	LogLevel        string                   `yaml:"log_level"`
	LogFormat       string                   `yaml:"log_format"`
	Radar           radar.Config             `yaml:"radar"`
	Interceptor     InterceptorSettings      `yaml:"interceptor"`
	Generator       scenario.GeneratorConfig `yaml:"generator"`
}

// Default returns the configuration used when no file overrides a value.
func Default() *SimulationConfig {
	return &SimulationConfig{
		TickInterval:    100 * time.Millisecond,
		SpeedMultiplier: 1,
		StatusInterval:  1,
		Seed:            1,
		DefaultScenario: scenario.DefaultID,
		ScenarioDir:     "scenarios",
		AdminAddr:       ":8080",
		LogLevel:        "info",
		LogFormat:       "text",
		Radar:           radar.DefaultConfig(),
		Interceptor: InterceptorSettings{
			Guidance:      string(interceptor.GuidancePursuit),
			HoverAltitude: 20,
			Flight:        interceptor.DefaultFlightConfig(),
		},
		Generator: scenario.DefaultGeneratorConfig(),
	}
}

// Guidance returns the configured default guidance mode.
func (c *SimulationConfig) Guidance() interceptor.GuidanceMode {
	m, err := interceptor.ParseGuidanceMode(c.Interceptor.Guidance)
	if err != nil {
		return interceptor.GuidancePursuit
	}
	return m
}

// Validate performs the semantic checks the schema cannot express.
func (c *SimulationConfig) Validate() error {
	var errs []error
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("tick_interval must be positive"))
	}
	if c.SpeedMultiplier <= 0 {
		errs = append(errs, errors.New("speed_multiplier must be positive"))
	}
	if c.StatusInterval < 0 {
		errs = append(errs, errors.New("status_interval must not be negative"))
	}
	if c.Interceptor.HoverAltitude < flight.MinAltitude {
		errs = append(errs, fmt.Errorf("interceptor.hover_altitude must be at least %.0f", flight.MinAltitude))
	}
	if _, err := interceptor.ParseGuidanceMode(c.Interceptor.Guidance); err != nil {
		errs = append(errs, err)
	}
	f := c.Interceptor.Flight
	if f.MaxSpeed <= 0 || f.EngagementRange <= 0 {
		errs = append(errs, errors.New("interceptor.flight needs positive max_speed and engagement_range"))
	}
	if f.BaseSuccessRate < 0 || f.BaseSuccessRate > 1 {
		errs = append(errs, errors.New("interceptor.flight.base_success_rate must be within [0,1]"))
	}
	if c.Radar.ScanRate <= 0 || c.Radar.MaxRange <= 0 {
		errs = append(errs, errors.New("radar needs positive scan_rate and max_range"))
	}
	if c.Radar.FalseAlarmRate < 0 || c.Radar.FalseAlarmRate > 1 || c.Radar.MissProbability < 0 || c.Radar.MissProbability > 1 {
		errs = append(errs, errors.New("radar probabilities must be within [0,1]"))
	}
	g := c.Generator
	if g.Drones.Min < 1 || g.Drones.Min > g.Drones.Max {
		errs = append(errs, errors.New("generator.drones must satisfy 1 <= min <= max"))
	}
	if g.Interceptors.Min < 0 || g.Interceptors.Min > g.Interceptors.Max {
		errs = append(errs, errors.New("generator.interceptors must satisfy 0 <= min <= max"))
	}
	for name, b := range map[string]scenario.Bounds{
		"hostile_ratio": g.HostileRatio, "spawn_radius": g.SpawnRadius, "spawn_altitude": g.SpawnAltitude,
		"max_speed": g.MaxSpeed, "radar_range": g.RadarRange, "scan_rate": g.ScanRate,
	} {
		if b.Min > b.Max {
			errs = append(errs, fmt.Errorf("generator.%s: min above max", name))
		}
	}
	return errors.Join(errs...)
}

// Load validates the YAML file against the CUE schema, decodes it over the
// defaults and runs Validate. An empty schemaPath uses the embedded schema.
func Load(configPath, schemaPath string) (*SimulationConfig, error) {
	if err := ValidateWithCue(configPath, schemaPath); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", configPath, err)
	}
	slog.Debug("loaded configuration", "path", configPath, "tick_interval", cfg.TickInterval, "default_scenario", cfg.DefaultScenario)
	return cfg, nil
}
