package sim

import (
	"context"
	"time"

	"counterdrone-sim/internal/enemy"
	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/logging"
	"counterdrone-sim/internal/radar"
	"counterdrone-sim/internal/scenario"
	"counterdrone-sim/internal/telemetry"
)

// Run advances the world at the speed-adjusted cadence while the engine is
// running and stops when the context is done.
func (e *Engine) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	e.mu.Lock()
	cadence := e.cadenceLocked()
	e.mu.Unlock()
	log.Info("starting simulator", "tick_interval", e.tickInterval, "cadence", cadence)
	ticker := time.NewTicker(cadence)
	defer ticker.Stop()

	dt := e.tickInterval.Seconds()
	for {
		select {
		case <-ticker.C:
			if e.Running() {
				e.Advance(ctx, dt)
			}
		case d := <-e.cadence:
			log.Debug("tick cadence changed", "cadence", d)
			ticker.Reset(d)
		case <-ctx.Done():
			log.Info("stopping simulator")
			return
		}
	}
}

// Advance steps the world by dt simulated seconds, writes the resulting events
// to the engine's writer and returns them. Events queued by commands since the
// previous tick come first.
func (e *Engine) Advance(ctx context.Context, dt float64) []telemetry.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	events := e.advanceLocked(ctx, dt)
	e.flush(ctx, events)
	return events
}

func (e *Engine) advanceLocked(ctx context.Context, dt float64) []telemetry.Event {
	out := e.pending
	e.pending = nil
	if dt <= 0 {
		return out
	}
	e.time += dt

	active := make([]bool, len(e.drones))
	threats := e.threatsLocked()
	env := enemy.Environment{Base: e.base, Threats: threats}
	for i := range e.drones {
		if e.drones[i].IsNeutralized {
			continue
		}
		active[i] = true
		e.drones[i] = enemy.Step(e.drones[i], env, dt)
	}

	ienv := interceptor.Environment{Base: e.base, HoverAltitude: e.hoverAltitude, Time: e.time, Rand: e.rand}
	for j := range e.interceptors {
		prev := e.interceptors[j]
		if prev.State == interceptor.StateStandby {
			continue
		}
		var tgt *interceptor.Target
		if k, ok := e.droneIdx[prev.TargetID]; ok && prev.TargetID != "" {
			t := targetView(e.drones[k])
			tgt = &t
		}
		ic, outcome := interceptor.Step(prev, tgt, ienv, dt)
		e.interceptors[j] = ic
		if outcome != nil {
			if outcome.Result == interceptor.ResultSuccess {
				if k, ok := e.droneIdx[outcome.TargetID]; ok {
					e.drones[k].IsNeutralized = true
					e.drones[k].IsEvading = false
					e.drones[k].Velocity = telemetry.Velocity{}
				}
			}
			out = append(out, e.resultEvent(*outcome))
		}
		out = append(out, e.interceptorEvent(ic))
	}

	for i, d := range e.drones {
		if active[i] {
			out = append(out, e.droneEvent(d))
		}
	}

	contacts := make([]radar.Contact, len(e.drones))
	for i, d := range e.drones {
		contacts[i] = radar.Contact{ID: d.ID, Position: d.Position, Velocity: d.Velocity, IsNeutralized: d.IsNeutralized}
	}
	for _, det := range e.sensor.Advance(dt, contacts) {
		if !det.IsFalseAlarm {
			if k, ok := e.droneIdx[det.DroneID]; ok {
				t := e.time
				e.drones[k].LastRadarDetection = &t
				e.contacts[det.DroneID] = true
			}
		}
		out = append(out, e.detectionEvent(det))
	}

	e.statusAcc += dt
	if e.statusEvery <= 0 || e.statusAcc+1e-9 >= e.statusEvery {
		if e.statusEvery > 0 {
			e.statusAcc -= e.statusEvery
		} else {
			e.statusAcc = 0
		}
		out = append(out, e.statusEvent())
	}

	e.advancePhaseLocked(ctx)
	return out
}

// threatsLocked lists the interceptors drones should react to.
func (e *Engine) threatsLocked() []enemy.Threat {
	var threats []enemy.Threat
	for _, ic := range e.interceptors {
		if ic.State.Threatening() {
			threats = append(threats, enemy.Threat{ID: ic.ID, Position: ic.Position})
		}
	}
	return threats
}

func targetView(d enemy.Drone) interceptor.Target {
	return interceptor.Target{
		ID:              d.ID,
		Position:        d.Position,
		Velocity:        d.Velocity,
		IsEvading:       d.IsEvading,
		EvasionStrength: d.Config.EvasionStrength,
		IsNeutralized:   d.IsNeutralized,
	}
}

// advancePhaseLocked moves the scenario narrative forward when a trigger of the
// current phase is satisfied.
func (e *Engine) advancePhaseLocked(ctx context.Context) {
	if e.phase == "" || len(e.scenario.Phases) == 0 {
		return
	}
	_, neutralized, _ := e.countsLocked()
	checks := []scenario.Event{
		{Type: scenario.EventTimeElapsed, Value: int(e.time)},
		{Type: scenario.EventNeutralized, Value: neutralized},
		{Type: scenario.EventRadarContacts, Value: len(e.contacts)},
	}
	for _, ev := range checks {
		if next, ok := e.scenario.NextPhase(e.phase, ev); ok {
			logging.FromContext(ctx).Info("scenario phase changed", "scenario_id", e.scenario.ID, "from", e.phase, "to", next, "trigger", ev.Type)
			e.phase = next
			return
		}
	}
}
