package sim

import (
	"counterdrone-sim/internal/enemy"
	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/radar"
	"counterdrone-sim/internal/telemetry"
)

func (e *Engine) header(t telemetry.EventType) telemetry.Header {
	return e.clock.Header(t, e.time)
}

func (e *Engine) droneEvent(d enemy.Drone) telemetry.Event {
	return telemetry.DroneStateUpdate{
		Header:        e.header(telemetry.EventDroneStateUpdate),
		DroneID:       d.ID,
		Position:      d.Position,
		Velocity:      d.Velocity,
		Behavior:      string(d.Behavior),
		IsHostile:     d.IsHostile,
		IsEvading:     d.IsEvading,
		IsNeutralized: d.IsNeutralized,
	}
}

func (e *Engine) interceptorEvent(ic interceptor.Interceptor) telemetry.Event {
	ev := telemetry.InterceptorUpdate{
		Header:        e.header(telemetry.EventInterceptor),
		InterceptorID: ic.ID,
		TargetID:      ic.TargetID,
		State:         string(ic.State),
		Position:      ic.Position,
		Velocity:      ic.Velocity,
		GuidanceMode:  string(ic.Guidance),
	}
	if k, ok := e.droneIdx[ic.TargetID]; ok && ic.TargetID != "" {
		dist := ic.Position.Distance(e.drones[k].Position)
		ev.DistanceToTarget = &dist
	}
	if ic.Guidance == interceptor.GuidancePN && ic.State.Active() {
		ev.PNDebug = &telemetry.PNDebug{
			ClosingSpeed:   ic.Telemetry.ClosingSpeed,
			LOSRate:        ic.Telemetry.LOSRate,
			CommandedAccel: ic.Telemetry.CommandedAccel,
		}
	}
	return ev
}

func (e *Engine) resultEvent(o interceptor.Outcome) telemetry.Event {
	return telemetry.InterceptResult{
		Header:        e.header(telemetry.EventInterceptResult),
		InterceptorID: o.InterceptorID,
		TargetID:      o.TargetID,
		Result:        string(o.Result),
		Details: telemetry.InterceptDetails{
			Probability:   o.Probability,
			Distance:      o.Distance,
			RelativeSpeed: o.RelativeSpeed,
			AltitudeDelta: o.AltitudeDelta,
			TargetEvading: o.TargetEvading,
			Reason:        o.Reason,
		},
	}
}

func (e *Engine) detectionEvent(d radar.Detection) telemetry.Event {
	return telemetry.RadarDetection{
		Header:           e.header(telemetry.EventRadarDetection),
		DroneID:          d.DroneID,
		Range:            d.Range,
		Bearing:          d.Bearing,
		Altitude:         d.Altitude,
		RadialVelocity:   d.RadialVelocity,
		Confidence:       d.Confidence,
		IsFalseAlarm:     d.IsFalseAlarm,
		IsFirstDetection: d.IsFirstDetection,
	}
}

func (e *Engine) statusEvent() telemetry.Event {
	hostiles, neutralized, available := e.countsLocked()
	return telemetry.SimulationStatus{
		Header:                e.header(telemetry.EventSimulationStatus),
		IsRunning:             e.running,
		SpeedMultiplier:       e.speed,
		ScenarioID:            e.scenario.ID,
		Phase:                 e.phase,
		DroneCount:            len(e.drones),
		ActiveHostiles:        hostiles,
		NeutralizedCount:      neutralized,
		InterceptorCount:      len(e.interceptors),
		AvailableInterceptors: available,
	}
}
