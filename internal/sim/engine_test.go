package sim

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"counterdrone-sim/internal/config"
	"counterdrone-sim/internal/flight"
	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/scenario"
	"counterdrone-sim/internal/telemetry"
)

// collectWriter records every event it receives.
type collectWriter struct {
	mu     sync.Mutex
	events []telemetry.Event
}

func (c *collectWriter) WriteEvent(ev telemetry.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
	return nil
}

func (c *collectWriter) count(kind telemetry.EventType) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.events {
		if ev.Kind() == kind {
			n++
		}
	}
	return n
}

var testClock = telemetry.Clock{RunID: "run-1", Epoch: time.Unix(0, 0).UTC()}

func newTestEngine(t *testing.T, cfg *config.SimulationConfig) (*Engine, *collectWriter) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	w := &collectWriter{}
	e := NewEngine(cfg, nil, w, WithClock(testClock))
	if err := e.LoadScenario(scenario.DefaultID); err != nil {
		t.Fatalf("load scenario: %v", err)
	}
	return e, w
}

func TestLoadScenarioPopulatesWorld(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	st := e.Status()
	if st.ScenarioID != "1" || st.DroneCount != 3 || st.InterceptorCount != 2 || st.AvailableInterceptors != 2 {
		t.Fatalf("unexpected status %+v", st)
	}
	if st.Phase != "setup" || st.IsRunning || st.SimTime != 0 {
		t.Fatalf("unexpected initial state %+v", st)
	}
	ics := e.Interceptors()
	if ics[0].ID != "INT-001" || ics[1].ID != "INT-002" {
		t.Fatalf("unexpected interceptor ids %s %s", ics[0].ID, ics[1].ID)
	}
	if ics[0].Position.X != -5 || ics[1].Position.X != 5 || ics[0].Position.Altitude != 20 {
		t.Fatalf("unexpected interceptor placement %+v %+v", ics[0].Position, ics[1].Position)
	}
	evs := e.Advance(context.Background(), 0)
	if len(evs) != 1 || evs[0].Kind() != telemetry.EventSimulationStatus {
		t.Fatalf("expected queued status event, got %v", evs)
	}
	if st := e.Status(); st.SimTime != 0 {
		t.Fatalf("zero step advanced time to %v", st.SimTime)
	}
}

func TestLoadScenarioUnknownKeepsWorld(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	if err := e.LoadScenario("nope"); !errors.Is(err, scenario.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if st := e.Status(); st.ScenarioID != "1" || st.DroneCount != 3 {
		t.Fatalf("world changed after failed load: %+v", st)
	}
}

func TestLoadScenarioOrDefault(t *testing.T) {
	e := NewEngine(nil, nil, nil, WithClock(testClock))
	fellBack, err := e.LoadScenarioOrDefault("missing")
	if err != nil || !fellBack {
		t.Fatalf("fellBack=%v err=%v", fellBack, err)
	}
	if st := e.Status(); st.ScenarioID != scenario.DefaultID {
		t.Fatalf("expected default scenario, got %s", st.ScenarioID)
	}
	fellBack, err = e.LoadScenarioOrDefault("2")
	if err != nil || fellBack {
		t.Fatalf("fellBack=%v err=%v", fellBack, err)
	}
}

func TestEngageRules(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	if e.Engage(EngageRequest{DroneID: "ghost"}) {
		t.Fatalf("engaged unknown drone")
	}
	if e.Engage(EngageRequest{DroneID: "H-001", InterceptorID: "INT-999"}) {
		t.Fatalf("engaged with unknown interceptor")
	}
	if !e.Engage(EngageRequest{DroneID: "H-001"}) {
		t.Fatalf("engage failed")
	}
	if e.Engage(EngageRequest{DroneID: "H-002", InterceptorID: "INT-001"}) {
		t.Fatalf("engaged with a busy interceptor")
	}
	if !e.Engage(EngageRequest{DroneID: "H-002", Guidance: interceptor.GuidancePN}) {
		t.Fatalf("second engage failed")
	}
	if e.Engage(EngageRequest{DroneID: "H-003"}) {
		t.Fatalf("engaged with no interceptor in standby")
	}
	if st := e.Status(); st.AvailableInterceptors != 0 {
		t.Fatalf("available = %d", st.AvailableInterceptors)
	}

	evs := e.Advance(context.Background(), 0)
	if len(evs) != 3 {
		t.Fatalf("expected status plus two launches, got %d events", len(evs))
	}
	first, ok := evs[1].(telemetry.InterceptorUpdate)
	if !ok || first.InterceptorID != "INT-001" || first.TargetID != "H-001" || first.State != string(interceptor.StateLaunching) {
		t.Fatalf("unexpected launch event %#v", evs[1])
	}
	second := evs[2].(telemetry.InterceptorUpdate)
	if second.GuidanceMode != string(interceptor.GuidancePN) {
		t.Fatalf("guidance = %s", second.GuidanceMode)
	}
}

func TestEngagementResolves(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	base := config.Default().Base
	nearest, best := "", math.Inf(1)
	for _, d := range e.Drones() {
		if dist := d.Position.Distance(base); d.IsHostile && dist < best {
			nearest, best = d.ID, dist
		}
	}
	if nearest == "" {
		t.Fatalf("scenario has no hostiles")
	}

	ctx := context.Background()
	if res := e.Execute(ctx, EngageCommand{DroneID: nearest}); !res.OK {
		t.Fatalf("engage_command rejected: %+v", res)
	}
	var res *telemetry.InterceptResult
	for i := 0; i < 20000 && res == nil; i++ {
		for _, ev := range e.Advance(ctx, 0.1) {
			if r, ok := ev.(telemetry.InterceptResult); ok {
				res = &r
			}
		}
	}
	if res == nil {
		t.Fatalf("engagement never resolved")
	}
	if res.InterceptorID != "INT-001" || res.TargetID != nearest {
		t.Fatalf("unexpected result %+v", res)
	}
	switch interceptor.Result(res.Result) {
	case interceptor.ResultSuccess, interceptor.ResultMiss, interceptor.ResultEvaded:
	default:
		t.Fatalf("result = %s, want SUCCESS, MISS or EVADED", res.Result)
	}
	if res.Details.Probability == nil || *res.Details.Probability < interceptor.MinProbability || *res.Details.Probability > interceptor.MaxProbability {
		t.Fatalf("probability out of range: %+v", res.Details)
	}
	for _, d := range e.Drones() {
		if d.ID != nearest || res.Result != string(interceptor.ResultSuccess) {
			continue
		}
		if !d.IsNeutralized || d.Velocity != (telemetry.Velocity{}) {
			t.Fatalf("drone not neutralized after success: %+v", d)
		}
		if e.Engage(EngageRequest{DroneID: nearest}) {
			t.Fatalf("re-engaged a neutralized drone")
		}
	}
	if ic := e.Interceptors()[0]; ic.State != interceptor.StateReturning || ic.TargetID != "" {
		t.Fatalf("interceptor not recalled: %+v", ic)
	}
}

func TestAltitudeFloor(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Engage(EngageRequest{DroneID: "H-002"})
	ctx := context.Background()
	for i := 0; i < 600; i++ {
		e.Advance(ctx, 0.1)
		for _, d := range e.Drones() {
			if d.Position.Altitude < flight.MinAltitude-1e-9 {
				t.Fatalf("tick %d: drone %s at %v", i, d.ID, d.Position.Altitude)
			}
		}
		for _, ic := range e.Interceptors() {
			if ic.Position.Altitude < flight.MinAltitude-1e-9 {
				t.Fatalf("tick %d: interceptor %s at %v", i, ic.ID, ic.Position.Altitude)
			}
		}
	}
}

func TestStatusCadence(t *testing.T) {
	cfg := config.Default()
	cfg.StatusInterval = 1
	e, w := newTestEngine(t, cfg)
	ctx := context.Background()
	for i := 0; i < 20; i++ {
		e.Advance(ctx, 0.1)
	}
	if n := w.count(telemetry.EventSimulationStatus); n != 3 {
		t.Fatalf("expected 3 status events, got %d", n)
	}

	cfg = config.Default()
	cfg.StatusInterval = 0
	e, w = newTestEngine(t, cfg)
	for i := 0; i < 5; i++ {
		e.Advance(ctx, 0.1)
	}
	if n := w.count(telemetry.EventSimulationStatus); n != 6 {
		t.Fatalf("expected a status every tick, got %d", n)
	}
}

func TestDroneEventsEveryTick(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	evs := e.Advance(context.Background(), 0.1)
	n := 0
	for _, ev := range evs {
		if d, ok := ev.(telemetry.DroneStateUpdate); ok {
			n++
			if d.RunID != "run-1" || d.SimTime != 0.1 {
				t.Fatalf("unexpected header %+v", d.Header)
			}
			if !d.Timestamp.Equal(testClock.Epoch.Add(100 * time.Millisecond)) {
				t.Fatalf("timestamp %v", d.Timestamp)
			}
		}
	}
	if n != 3 {
		t.Fatalf("expected 3 drone updates, got %d", n)
	}
}

func TestPhaseAdvancesOnRadarContact(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	for i := 0; i < 100 && e.Status().Phase == "setup"; i++ {
		e.Advance(ctx, 0.1)
	}
	if p := e.Status().Phase; p != "escalation" {
		t.Fatalf("phase = %s", p)
	}
	for _, d := range e.Drones() {
		if d.LastRadarDetection != nil {
			return
		}
	}
	t.Fatalf("no drone carries a radar detection time")
}

func TestResetClearsWorld(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	e.Start()
	e.Advance(context.Background(), 1)
	e.Reset()
	st := e.Status()
	if st.DroneCount != 0 || st.InterceptorCount != 0 || st.SimTime != 0 || st.IsRunning || st.ScenarioID != "" {
		t.Fatalf("unexpected status after reset %+v", st)
	}
	if evs := e.Advance(context.Background(), 0); len(evs) != 0 {
		t.Fatalf("pending events survived reset: %v", evs)
	}
}

func TestDeterministicReplay(t *testing.T) {
	run := func() []telemetry.Event {
		e, _ := newTestEngine(t, nil)
		e.Engage(EngageRequest{DroneID: "H-002"})
		var out []telemetry.Event
		for i := 0; i < 300; i++ {
			out = append(out, e.Advance(context.Background(), 0.1)...)
		}
		return out
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("runs differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].Kind() != b[i].Kind() {
			t.Fatalf("event %d differs: %s vs %s", i, a[i].Kind(), b[i].Kind())
		}
		if da, ok := a[i].(telemetry.RadarDetection); ok && da.DroneID != "" && !da.IsFalseAlarm {
			db := b[i].(telemetry.RadarDetection)
			if da.DroneID != db.DroneID || da.Range != db.Range {
				t.Fatalf("detection %d differs", i)
			}
		}
	}
}

func TestSetSpeedMultiplier(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	for _, m := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := e.SetSpeedMultiplier(m); !errors.Is(err, ErrInvalidSpeed) {
			t.Fatalf("speed %v: expected ErrInvalidSpeed, got %v", m, err)
		}
	}
	if err := e.SetSpeedMultiplier(4); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	if err := e.SetSpeedMultiplier(2); err != nil {
		t.Fatalf("set speed: %v", err)
	}
	if st := e.Status(); st.SpeedMultiplier != 2 {
		t.Fatalf("speed = %v", st.SpeedMultiplier)
	}
	select {
	case d := <-e.cadence:
		if d != 50*time.Millisecond {
			t.Fatalf("cadence = %v", d)
		}
	default:
		t.Fatalf("cadence change not signalled")
	}
}

func TestRunAdvancesWhileRunning(t *testing.T) {
	cfg := config.Default()
	cfg.TickInterval = 5 * time.Millisecond
	e, _ := newTestEngine(t, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	e.Run(ctx)
	if st := e.Status(); st.SimTime != 0 {
		t.Fatalf("paused engine advanced to %v", st.SimTime)
	}

	e.Start()
	ctx, cancel = context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	e.Run(ctx)
	if st := e.Status(); st.SimTime <= 0 {
		t.Fatalf("running engine did not advance")
	}
}

func TestScenarioRadarOverrideIsScoped(t *testing.T) {
	dir := t.TempDir()
	body := `id: blind
interceptor_count: 1
radar_config:
  scan_rate: 2
  max_range: 2000
  range_noise: 0
  bearing_noise: 0
  false_alarm_rate: 0
  miss_probability: 1
drones:
  - id: H-001
    behavior: ATTACK_RUN
    is_hostile: true
    position: {x: 400, y: 0, altitude: 60}
`
	if err := os.WriteFile(filepath.Join(dir, "blind.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	cfg := config.Default()
	catalog := scenario.NewCatalog(scenario.NewGenerator(cfg.Generator), nil)
	if _, err := catalog.LoadDir(dir); err != nil {
		t.Fatalf("load dir: %v", err)
	}
	e := NewEngine(cfg, catalog, nil, WithClock(testClock))

	detections := func() int {
		ctx := context.Background()
		n := 0
		for i := 0; i < 50; i++ {
			for _, ev := range e.Advance(ctx, 0.1) {
				if d, ok := ev.(telemetry.RadarDetection); ok && !d.IsFalseAlarm {
					n++
				}
			}
		}
		return n
	}

	if err := e.LoadScenario("blind"); err != nil {
		t.Fatalf("load blind: %v", err)
	}
	if n := detections(); n != 0 {
		t.Fatalf("blind radar reported %d detections", n)
	}
	if err := e.LoadScenario(scenario.DefaultID); err != nil {
		t.Fatalf("load default: %v", err)
	}
	if n := detections(); n == 0 {
		t.Fatalf("radar override leaked into the next scenario")
	}
}
