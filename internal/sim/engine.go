// Engine owning the world state and driving the per-tick update
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sync"
	"time"

	"counterdrone-sim/internal/config"
	"counterdrone-sim/internal/enemy"
	"counterdrone-sim/internal/flight"
	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/radar"
	"counterdrone-sim/internal/scenario"
	"counterdrone-sim/internal/telemetry"
)

// ErrInvalidSpeed is returned for non-positive speed multipliers.
var ErrInvalidSpeed = errors.New("speed multiplier must be positive")

const (
	interceptorSpacing = 10.0
	maxJournalEntries  = 500
)

// EngageRequest asks the engine to launch an interceptor at a drone.
// An empty InterceptorID selects the first available interceptor.
type EngageRequest struct {
	DroneID       string
	InterceptorID string
	IssuedBy      string
	Method        string
	Guidance      interceptor.GuidanceMode
}

// Status is a snapshot of the world summary.
type Status struct {
	SimTime               float64       `json:"sim_time"`
	IsRunning             bool          `json:"is_running"`
	SpeedMultiplier       float64       `json:"speed_multiplier"`
	TickInterval          time.Duration `json:"tick_interval"`
	ScenarioID            string        `json:"scenario_id,omitempty"`
	ScenarioName          string        `json:"scenario_name,omitempty"`
	Phase                 string        `json:"phase,omitempty"`
	DroneCount            int           `json:"drone_count"`
	ActiveHostiles        int           `json:"active_hostiles"`
	NeutralizedCount      int           `json:"neutralized_count"`
	InterceptorCount      int           `json:"interceptor_count"`
	AvailableInterceptors int           `json:"available_interceptors"`
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClock replaces the event clock, e.g. to pin the run id and epoch.
func WithClock(c telemetry.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// Engine owns the simulated world. All mutation goes through its methods,
// which are serialized by mu.
type Engine struct {
	cfg     *config.SimulationConfig
	catalog *scenario.Catalog
	writer  EventWriter
	clock   telemetry.Clock

	mu           sync.Mutex
	time         float64
	running      bool
	speed        float64
	tickInterval time.Duration
	statusEvery  float64
	statusAcc    float64

	drones         []enemy.Drone
	droneIdx       map[string]int
	interceptors   []interceptor.Interceptor
	interceptorIdx map[string]int

	base          telemetry.Position
	hoverAltitude float64
	guidance      interceptor.GuidanceMode
	sensor        *radar.Sensor
	rand          *rand.Rand
	contacts      map[string]bool

	scenario scenario.Scenario
	phase    string

	pending []telemetry.Event
	journal []JournalEntry

	cadence chan time.Duration
}

// NewEngine creates an idle engine without entities. cfg and catalog may be nil
// to use the defaults; writer may be nil to only return events from Advance.
func NewEngine(cfg *config.SimulationConfig, catalog *scenario.Catalog, writer EventWriter, opts ...Option) *Engine {
	if cfg == nil {
		cfg = config.Default()
	}
	if catalog == nil {
		catalog = scenario.NewCatalog(scenario.NewGenerator(cfg.Generator), nil)
	}
	hover := math.Max(cfg.Interceptor.HoverAltitude, flight.MinAltitude)
	e := &Engine{
		cfg:           cfg,
		catalog:       catalog,
		writer:        writer,
		clock:         telemetry.NewClock(time.Now()),
		speed:         cfg.SpeedMultiplier,
		tickInterval:  cfg.TickInterval,
		statusEvery:   cfg.StatusInterval,
		base:          cfg.Base,
		hoverAltitude: hover,
		guidance:      cfg.Guidance(),
		cadence:       make(chan time.Duration, 1),
	}
	e.sensor = radar.NewSensor(cfg.Radar, e.base, nil)
	if e.speed <= 0 {
		e.speed = 1
	}
	if e.tickInterval <= 0 {
		e.tickInterval = 100 * time.Millisecond
	}
	for _, o := range opts {
		o(e)
	}
	e.resetLocked()
	return e
}

// Catalog returns the scenario catalog used by LoadScenario.
func (e *Engine) Catalog() *scenario.Catalog { return e.catalog }

// RunID returns the id stamped on every event of this engine.
func (e *Engine) RunID() string { return e.clock.RunID }

// TickInterval returns the simulated step applied by Run.
func (e *Engine) TickInterval() time.Duration { return e.tickInterval }

// Start resumes ticking. Calling it while running has no effect.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = true
}

// Pause stops ticking. Calling it while paused has no effect.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running = false
}

// Running reports whether the scheduler should advance the world.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// SetSpeedMultiplier changes the wall-clock cadence of Run. The simulated step
// stays the base tick interval.
func (e *Engine) SetSpeedMultiplier(m float64) error {
	if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidSpeed, m)
	}
	e.mu.Lock()
	e.speed = m
	d := e.cadenceLocked()
	e.mu.Unlock()
	select {
	case <-e.cadence:
	default:
	}
	e.cadence <- d
	return nil
}

func (e *Engine) cadenceLocked() time.Duration {
	d := time.Duration(float64(e.tickInterval) / e.speed)
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}

// Reset removes every entity, clears pending events and radar history, rewinds
// time to zero and stops the run.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *Engine) resetLocked() {
	e.time = 0
	e.running = false
	e.statusAcc = 0
	e.drones = nil
	e.droneIdx = make(map[string]int)
	e.interceptors = nil
	e.interceptorIdx = make(map[string]int)
	e.pending = nil
	e.contacts = make(map[string]bool)
	e.scenario = scenario.Scenario{}
	e.phase = ""
	e.rand = rand.New(rand.NewSource(e.cfg.Seed))
	e.sensor.Reset(e.rand)
	e.sensor.Reconfigure(e.cfg.Radar)
}

// LoadScenario resets the world and populates it from the scenario with id.
// Unknown ids return an error wrapping scenario.ErrNotFound and leave the
// world untouched.
func (e *Engine) LoadScenario(id string) error {
	sc, err := e.catalog.Lookup(id)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.populateLocked(sc)
	return nil
}

// LoadScenarioOrDefault loads id and falls back to the configured default
// scenario when id is unknown. fellBack reports whether the fallback was used.
func (e *Engine) LoadScenarioOrDefault(id string) (fellBack bool, err error) {
	if id == "" {
		id = e.defaultScenario()
	}
	err = e.LoadScenario(id)
	if !errors.Is(err, scenario.ErrNotFound) {
		return false, err
	}
	def := e.defaultScenario()
	slog.Warn("scenario not found, loading default", "scenario_id", id, "default", def)
	if err := e.LoadScenario(def); err != nil {
		if def == scenario.DefaultID {
			return true, err
		}
		return true, e.LoadScenario(scenario.DefaultID)
	}
	return true, nil
}

func (e *Engine) defaultScenario() string {
	if e.cfg.DefaultScenario != "" {
		return e.cfg.DefaultScenario
	}
	return scenario.DefaultID
}

func (e *Engine) populateLocked(sc scenario.Scenario) {
	e.resetLocked()
	if sc.Radar != nil {
		e.sensor.Reconfigure(*sc.Radar)
	}
	e.scenario = sc
	if len(sc.Phases) > 0 {
		e.phase = sc.Phases[0].Name
	}
	for _, spec := range sc.Drones {
		d := enemy.Drone{
			ID:        spec.ID,
			Position:  spec.Position,
			Velocity:  spec.Velocity,
			Behavior:  spec.Behavior,
			Config:    spec.Config,
			IsHostile: spec.IsHostile,
			SpawnTime: 0,
		}
		if d.Config == (enemy.FlightConfig{}) {
			d.Config = enemy.DefaultFlightConfig()
		}
		if d.Position.Altitude < flight.MinAltitude {
			d.Position.Altitude = flight.MinAltitude
		}
		if spec.TargetPoint != nil {
			tp := *spec.TargetPoint
			d.TargetPoint = &tp
		}
		e.droneIdx[d.ID] = len(e.drones)
		e.drones = append(e.drones, d)
	}
	n := sc.InterceptorCount
	for i := 0; i < n; i++ {
		ic := interceptor.Interceptor{
			ID: fmt.Sprintf("INT-%03d", i+1),
			Position: telemetry.Position{
				X:        e.base.X + (float64(i)-float64(n-1)/2)*interceptorSpacing,
				Y:        e.base.Y,
				Altitude: e.hoverAltitude,
			},
			State:    interceptor.StateStandby,
			Config:   e.cfg.Interceptor.Flight,
			Guidance: e.guidance,
		}
		e.interceptorIdx[ic.ID] = len(e.interceptors)
		e.interceptors = append(e.interceptors, ic)
	}
	e.pending = append(e.pending, e.statusEvent())
}

// Engage launches an interceptor at req.DroneID. It returns false without
// changing anything when the drone is unknown or neutralized, or when no
// eligible interceptor is in STANDBY.
func (e *Engine) Engage(req EngageRequest) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.engageLocked(req)
}

func (e *Engine) engageLocked(req EngageRequest) bool {
	di, ok := e.droneIdx[req.DroneID]
	if !ok || e.drones[di].IsNeutralized {
		return false
	}
	ii := -1
	if req.InterceptorID != "" {
		j, ok := e.interceptorIdx[req.InterceptorID]
		if !ok || e.interceptors[j].State != interceptor.StateStandby {
			return false
		}
		ii = j
	} else {
		for j := range e.interceptors {
			if e.interceptors[j].State == interceptor.StateStandby {
				ii = j
				break
			}
		}
	}
	if ii < 0 {
		return false
	}
	mode := req.Guidance
	if mode == "" {
		mode = e.guidance
	}
	ic, err := interceptor.Launch(e.interceptors[ii], req.DroneID, mode, e.time)
	if err != nil {
		return false
	}
	e.interceptors[ii] = ic
	e.pending = append(e.pending, e.interceptorEvent(ic))
	e.recordLaunchLocked(req, ic.ID, string(mode))
	return true
}

// Status returns the current world summary.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := Status{
		SimTime:          e.time,
		IsRunning:        e.running,
		SpeedMultiplier:  e.speed,
		TickInterval:     e.tickInterval,
		ScenarioID:       e.scenario.ID,
		ScenarioName:     e.scenario.Name,
		Phase:            e.phase,
		DroneCount:       len(e.drones),
		InterceptorCount: len(e.interceptors),
	}
	s.ActiveHostiles, s.NeutralizedCount, s.AvailableInterceptors = e.countsLocked()
	return s
}

func (e *Engine) countsLocked() (activeHostiles, neutralized, available int) {
	for _, d := range e.drones {
		switch {
		case d.IsNeutralized:
			neutralized++
		case d.IsHostile:
			activeHostiles++
		}
	}
	for _, ic := range e.interceptors {
		if ic.State == interceptor.StateStandby {
			available++
		}
	}
	return
}

// Drones returns a copy of all drones in arena order.
func (e *Engine) Drones() []enemy.Drone {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]enemy.Drone, len(e.drones))
	for i, d := range e.drones {
		if d.TargetPoint != nil {
			tp := *d.TargetPoint
			d.TargetPoint = &tp
		}
		if d.LastRadarDetection != nil {
			t := *d.LastRadarDetection
			d.LastRadarDetection = &t
		}
		out[i] = d
	}
	return out
}

// Interceptors returns a copy of all interceptors in arena order.
func (e *Engine) Interceptors() []interceptor.Interceptor {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]interceptor.Interceptor, len(e.interceptors))
	for i, ic := range e.interceptors {
		if ic.LaunchTime != nil {
			t := *ic.LaunchTime
			ic.LaunchTime = &t
		}
		out[i] = ic
	}
	return out
}
