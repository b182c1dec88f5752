package experiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"counterdrone-sim/internal/config"
	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/logging"
	"counterdrone-sim/internal/scenario"
	"counterdrone-sim/internal/sim"
	"counterdrone-sim/internal/telemetry"
)

// Options controls a headless run.
type Options struct {
	ScenarioID string
	// Duration is the simulated run length in seconds.
	Duration float64
	// Step is the simulated time per tick; zero uses the configured tick interval.
	Step       float64
	AutoEngage bool
	// Guidance overrides the configured guidance mode for auto-engagements.
	Guidance interceptor.GuidanceMode
	// Epoch anchors event timestamps; zero uses the current time.
	Epoch time.Time
}

// RunResult is the outcome of one headless run.
type RunResult struct {
	RunID      string  `json:"run_id"`
	ScenarioID string  `json:"scenario_id"`
	Seed       int64   `json:"seed"`
	Duration   float64 `json:"duration"`
	Metrics    Metrics `json:"metrics"`

	samples samples
}

// Run plays one scenario for opts.Duration simulated seconds by stepping the
// engine directly. Events are also forwarded to extra when it is not nil.
func Run(ctx context.Context, cfg *config.SimulationConfig, catalog *scenario.Catalog, opts Options, extra sim.EventWriter) (*RunResult, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if opts.Duration <= 0 {
		return nil, errors.New("experiment duration must be positive")
	}
	step := opts.Step
	if step <= 0 {
		step = cfg.TickInterval.Seconds()
	}
	if step <= 0 {
		return nil, errors.New("experiment step must be positive")
	}
	id := opts.ScenarioID
	if id == "" {
		id = cfg.DefaultScenario
	}
	epoch := opts.Epoch
	if epoch.IsZero() {
		epoch = time.Now()
	}

	rec := NewRecorder()
	var w sim.EventWriter = rec
	if extra != nil {
		w = sim.NewMultiWriter(rec, extra)
	}
	e := sim.NewEngine(cfg, catalog, w, sim.WithClock(telemetry.NewClock(epoch)))
	if err := e.LoadScenario(id); err != nil {
		return nil, fmt.Errorf("load scenario %q: %w", id, err)
	}
	e.Start()

	log := logging.FromContext(ctx).With("run_id", e.RunID(), "scenario_id", id)
	log.Info("experiment started", "duration", opts.Duration, "step", step, "auto_engage", opts.AutoEngage)

	d := doctrine{engine: e, recorder: rec, guidance: opts.Guidance, queued: make(map[string]bool)}
	steps := int(math.Ceil(opts.Duration/step - 1e-9))
	for i := 0; i < steps; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		events := e.Advance(ctx, step)
		if opts.AutoEngage {
			d.react(events)
		}
	}
	e.Advance(ctx, 0)

	m, s := rec.Metrics()
	st := e.Status()
	log.Info("experiment finished", "sim_time", st.SimTime, "neutralized", st.NeutralizedCount, "attempts", m.Interception.Attempts)
	return &RunResult{
		RunID:      e.RunID(),
		ScenarioID: id,
		Seed:       cfg.Seed,
		Duration:   st.SimTime,
		Metrics:    m,
		samples:    s,
	}, nil
}

// doctrine engages every hostile on first real radar contact and re-queues
// targets that survive an engagement. Targets wait in order until an
// interceptor returns to standby.
type doctrine struct {
	engine   *sim.Engine
	recorder *Recorder
	guidance interceptor.GuidanceMode
	backlog  []string
	queued   map[string]bool
}

func (d *doctrine) react(events []telemetry.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case telemetry.RadarDetection:
			if e.IsFirstDetection && !e.IsFalseAlarm && d.recorder.IsHostile(e.DroneID) {
				d.enqueue(e.DroneID)
			}
		case telemetry.InterceptResult:
			if e.Result != string(interceptor.ResultSuccess) {
				d.enqueue(e.TargetID)
			}
		}
	}
	var rest []string
	for _, id := range d.backlog {
		if !d.engine.Engage(sim.EngageRequest{DroneID: id, IssuedBy: "experiment", Method: "auto", Guidance: d.guidance}) {
			if d.live(id) {
				rest = append(rest, id)
				continue
			}
		}
		delete(d.queued, id)
	}
	d.backlog = rest
}

func (d *doctrine) enqueue(id string) {
	if id == "" || d.queued[id] {
		return
	}
	d.queued[id] = true
	d.backlog = append(d.backlog, id)
}

// live reports whether id is still an engageable drone.
func (d *doctrine) live(id string) bool {
	for _, dr := range d.engine.Drones() {
		if dr.ID == id {
			return !dr.IsNeutralized
		}
	}
	return false
}

// Batch runs opts once per seed, starting at cfg.Seed and counting up. Events
// of every run are forwarded to extra when it is not nil.
func Batch(ctx context.Context, cfg *config.SimulationConfig, catalog *scenario.Catalog, opts Options, runs int, extra sim.EventWriter) ([]*RunResult, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if runs < 1 {
		runs = 1
	}
	out := make([]*RunResult, 0, runs)
	for i := 0; i < runs; i++ {
		c := *cfg
		c.Seed = cfg.Seed + int64(i)
		res, err := Run(ctx, &c, catalog, opts, extra)
		if err != nil {
			return out, fmt.Errorf("run %d: %w", i+1, err)
		}
		out = append(out, res)
	}
	return out, nil
}
