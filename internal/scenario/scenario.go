package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"counterdrone-sim/internal/enemy"
	"counterdrone-sim/internal/radar"
	"counterdrone-sim/internal/telemetry"
)

// ErrNotFound is returned when a scenario id is neither built in nor stored.
var ErrNotFound = errors.New("scenario not found")

// DroneSpec describes one drone at scenario start.
type DroneSpec struct {
	ID          string              `json:"id" yaml:"id"`
	Position    telemetry.Position  `json:"position" yaml:"position"`
	Velocity    telemetry.Velocity  `json:"velocity" yaml:"velocity"`
	Behavior    enemy.Behavior      `json:"behavior" yaml:"behavior"`
	IsHostile   bool                `json:"is_hostile" yaml:"is_hostile"`
	Config      enemy.FlightConfig  `json:"config" yaml:"config"`
	TargetPoint *telemetry.Position `json:"target_point,omitempty" yaml:"target_point,omitempty"`
}

// Scenario is a loadable world definition.
type Scenario struct {
	ID               string        `json:"id" yaml:"id"`
	Name             string        `json:"name,omitempty" yaml:"name,omitempty"`
	Description      string        `json:"description,omitempty" yaml:"description,omitempty"`
	Drones           []DroneSpec   `json:"drones" yaml:"drones"`
	InterceptorCount int           `json:"interceptor_count" yaml:"interceptor_count"`
	Radar            *radar.Config `json:"radar_config,omitempty" yaml:"radar_config,omitempty"`
	Phases           []Phase       `json:"phases,omitempty" yaml:"phases,omitempty"`
}

// Phase is a narrative stage of a scenario. Triggers move the run to another phase.
type Phase struct {
	Name        string    `json:"name" yaml:"name"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Triggers    []Trigger `json:"triggers,omitempty" yaml:"triggers,omitempty"`
}

// Trigger fires when an event of the given type reaches Value.
type Trigger struct {
	Event string `json:"event" yaml:"event"`
	Value int    `json:"value" yaml:"value"`
	Next  string `json:"next" yaml:"next"`
}

// Phase trigger events.
const (
	EventTimeElapsed   = "time_elapsed"
	EventNeutralized   = "hostiles_neutralized"
	EventRadarContacts = "radar_contacts"
)

// Event represents a runtime occurrence that may advance the scenario.
type Event struct {
	Type  string
	Value int
}

// NextPhase returns the name of the next phase given the current phase and event.
// If no trigger matches, ok will be false.
func (s *Scenario) NextPhase(current string, ev Event) (next string, ok bool) {
	for _, p := range s.Phases {
		if p.Name != current {
			continue
		}
		for _, tr := range p.Triggers {
			if tr.Event == ev.Type && ev.Value >= tr.Value {
				return tr.Next, true
			}
		}
	}
	return "", false
}

// Validate checks ids, behaviors and counts.
func (s *Scenario) Validate() error {
	if s.InterceptorCount < 0 {
		return fmt.Errorf("scenario %s: negative interceptor count", s.ID)
	}
	seen := make(map[string]bool, len(s.Drones))
	for i, d := range s.Drones {
		if d.ID == "" {
			return fmt.Errorf("scenario %s: drone %d has no id", s.ID, i)
		}
		if seen[d.ID] {
			return fmt.Errorf("scenario %s: duplicate drone id %s", s.ID, d.ID)
		}
		seen[d.ID] = true
		if !d.Behavior.Valid() {
			return fmt.Errorf("scenario %s: drone %s has unknown behavior %q", s.ID, d.ID, d.Behavior)
		}
	}
	return nil
}

// Load reads a YAML scenario definition from disk.
func Load(path string) (*Scenario, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for i := range s.Drones {
		if s.Drones[i].Config == (enemy.FlightConfig{}) {
			s.Drones[i].Config = enemy.DefaultFlightConfig()
		}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
