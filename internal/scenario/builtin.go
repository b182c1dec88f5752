package scenario

import (
	"counterdrone-sim/internal/enemy"
	"counterdrone-sim/internal/telemetry"
)

// DefaultID is the built-in scenario used when nothing else is requested.
const DefaultID = "1"

func hostile(id string, b enemy.Behavior, x, y, alt float64, cfg enemy.FlightConfig) DroneSpec {
	return DroneSpec{
		ID:        id,
		Position:  telemetry.Position{X: x, Y: y, Altitude: alt},
		Behavior:  b,
		IsHostile: true,
		Config:    cfg,
	}
}

// BuiltIn returns the predefined scenarios keyed by id.
func BuiltIn() map[string]Scenario {
	std := enemy.DefaultFlightConfig()
	fast := enemy.FlightConfig{MaxSpeed: 28, CruiseSpeed: 18, Acceleration: 7, TurnRate: 75, EvasionTriggerDistance: 120, EvasionStrength: 0.3}
	slippery := enemy.FlightConfig{MaxSpeed: 24, CruiseSpeed: 10, Acceleration: 6, TurnRate: 110, EvasionTriggerDistance: 220, EvasionStrength: 0.65}

	loiter := telemetry.Position{X: -300, Y: 450, Altitude: 90}
	recon := hostile("H-003", enemy.BehaviorRecon, -100, 650, 90, std)
	recon.TargetPoint = &loiter

	north := telemetry.Position{X: 150, Y: 700, Altitude: 110}
	watcher := hostile("H-001", enemy.BehaviorRecon, 350, 700, 110, slippery)
	watcher.TargetPoint = &north
	courier := hostile("N-001", enemy.BehaviorNormal, -900, -100, 60, std)
	courier.IsHostile = false

	return map[string]Scenario{
		"1": {
			ID:               "1",
			Name:             "Perimeter Probe",
			Description:      "Three hostiles approach the base from the north-east while a scout loiters to the north-west.",
			InterceptorCount: 2,
			Drones: []DroneSpec{
				hostile("H-001", enemy.BehaviorNormal, 600, 400, 80, std),
				hostile("H-002", enemy.BehaviorAttackRun, 800, -250, 100, fast),
				recon,
			},
			Phases: []Phase{
				{Name: "setup", Description: "Hostiles enter radar coverage.", Triggers: []Trigger{{Event: EventRadarContacts, Value: 1, Next: "escalation"}}},
				{Name: "escalation", Description: "Contacts are tracked and engaged.", Triggers: []Trigger{{Event: EventNeutralized, Value: 3, Next: "resolution"}}},
				{Name: "resolution", Description: "Airspace is clear."},
			},
		},
		"2": {
			ID:               "2",
			Name:             "Swarm Assault",
			Description:      "A coordinated attack run from the east with an evasive escort.",
			InterceptorCount: 4,
			Drones: []DroneSpec{
				hostile("H-001", enemy.BehaviorAttackRun, 1000, 100, 90, fast),
				hostile("H-002", enemy.BehaviorAttackRun, 1050, -60, 95, fast),
				hostile("H-003", enemy.BehaviorAttackRun, 980, 220, 85, fast),
				hostile("H-004", enemy.BehaviorAttackRun, 1100, -200, 100, fast),
				hostile("H-005", enemy.BehaviorNormal, 900, 0, 70, std),
				hostile("H-006", enemy.BehaviorEvade, 950, 300, 120, slippery),
			},
			Phases: []Phase{
				{Name: "setup", Description: "The swarm forms up beyond radar range.", Triggers: []Trigger{{Event: EventTimeElapsed, Value: 10, Next: "escalation"}}},
				{Name: "escalation", Description: "The swarm commits to its attack run.", Triggers: []Trigger{{Event: EventNeutralized, Value: 3, Next: "climax"}}},
				{Name: "climax", Description: "Survivors press the attack.", Triggers: []Trigger{{Event: EventNeutralized, Value: 6, Next: "resolution"}}},
				{Name: "resolution", Description: "The swarm is defeated."},
			},
		},
		"3": {
			ID:               "3",
			Name:             "Evasive Recon",
			Description:      "Slippery scouts loiter north of the base while a friendly courier transits.",
			InterceptorCount: 3,
			Drones: []DroneSpec{
				watcher,
				hostile("H-002", enemy.BehaviorEvade, -500, 600, 70, slippery),
				hostile("H-003", enemy.BehaviorRecon, 700, 300, 130, slippery),
				courier,
			},
		},
	}
}
