package sim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/logging"
	"counterdrone-sim/internal/telemetry"
)

// ErrUnknownCommand is returned by DecodeCommand for unsupported message types.
var ErrUnknownCommand = errors.New("unknown command")

// Inbound message types.
const (
	TypeSimulationControl = "simulation_control"
	TypeEngageCommand     = "engage_command"
	TypeGenerateScenario  = "generate_scenario"
	TypeGetScenarios      = "get_scenarios"
	TypeAudioDetection    = "audio_detection"
)

// Command is one of the inbound operator commands. The set is closed.
type Command interface {
	command()
}

// ControlAction is the verb of a simulation_control message.
type ControlAction string

const (
	ActionStart        ControlAction = "start"
	ActionPause        ControlAction = "pause"
	ActionReset        ControlAction = "reset"
	ActionSetSpeed     ControlAction = "set_speed"
	ActionLoadScenario ControlAction = "load_scenario"
)

// ControlCommand starts, pauses, resets, retimes or reloads the world.
type ControlCommand struct {
	Action          ControlAction `json:"action"`
	SpeedMultiplier *float64      `json:"speed_multiplier,omitempty"`
	ScenarioID      string        `json:"scenario_id,omitempty"`
}

// EngageCommand asks for an interceptor launch against a drone.
type EngageCommand struct {
	DroneID       string `json:"drone_id"`
	InterceptorID string `json:"interceptor_id,omitempty"`
	IssuedBy      string `json:"issued_by,omitempty"`
	Method        string `json:"method,omitempty"`
	GuidanceMode  string `json:"guidance_mode,omitempty"`
}

// GenerateScenarioCommand generates Count scenarios starting at Seed.
type GenerateScenarioCommand struct {
	Seed  *uint32 `json:"seed,omitempty"`
	Count int     `json:"count,omitempty"`
}

// ListScenariosCommand requests the scenario catalog.
type ListScenariosCommand struct{}

// AudioDetectionCommand is a classification from the external acoustic model.
type AudioDetectionCommand struct {
	DroneID           string   `json:"drone_id"`
	State             string   `json:"state"`
	Confidence        float64  `json:"confidence"`
	EstimatedDistance *float64 `json:"estimated_distance,omitempty"`
	EstimatedBearing  *float64 `json:"estimated_bearing,omitempty"`
}

func (ControlCommand) command()          {}
func (EngageCommand) command()           {}
func (GenerateScenarioCommand) command() {}
func (ListScenariosCommand) command()    {}
func (AudioDetectionCommand) command()   {}

// DecodeCommand parses a flat JSON message using its type field.
func DecodeCommand(data []byte) (Command, error) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	switch env.Type {
	case TypeSimulationControl:
		var c ControlCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		switch c.Action {
		case ActionStart, ActionPause, ActionReset, ActionSetSpeed, ActionLoadScenario:
			return c, nil
		}
		return nil, fmt.Errorf("%w: simulation_control action %q", ErrUnknownCommand, c.Action)
	case TypeEngageCommand:
		var c EngageCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return c, nil
	case TypeGenerateScenario:
		var c GenerateScenarioCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return c, nil
	case TypeGetScenarios:
		return ListScenariosCommand{}, nil
	case TypeAudioDetection:
		var c AudioDetectionCommand
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decode %s: %w", env.Type, err)
		}
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Type)
}

// CommandResult is the acknowledgement of an executed command.
type CommandResult struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func rejected(format string, args ...any) CommandResult {
	return CommandResult{Error: fmt.Sprintf(format, args...)}
}

// Execute applies cmd atomically between ticks. Rejections are reported in the
// result, never as panics.
func (e *Engine) Execute(ctx context.Context, cmd Command) CommandResult {
	log := logging.FromContext(ctx)
	var res CommandResult
	switch c := cmd.(type) {
	case ControlCommand:
		res = e.control(c)
	case EngageCommand:
		res = e.engage(c)
	case GenerateScenarioCommand:
		res = e.generate(c)
	case ListScenariosCommand:
		list, err := e.catalog.List()
		if err != nil {
			res = rejected("list scenarios: %v", err)
		} else {
			res = CommandResult{OK: true, Data: list}
		}
	case AudioDetectionCommand:
		res = e.relayAudio(ctx, c)
	default:
		res = rejected("unsupported command %T", cmd)
	}
	e.record(cmd, res)
	if res.OK {
		log.Debug("command executed", "command", commandName(cmd), "message", res.Message)
	} else {
		log.Warn("command rejected", "command", commandName(cmd), "err", res.Error)
	}
	return res
}

func (e *Engine) control(c ControlCommand) CommandResult {
	switch c.Action {
	case ActionStart:
		e.Start()
		return CommandResult{OK: true, Message: "simulation started"}
	case ActionPause:
		e.Pause()
		return CommandResult{OK: true, Message: "simulation paused"}
	case ActionReset:
		e.Reset()
		return CommandResult{OK: true, Message: "simulation reset"}
	case ActionSetSpeed:
		if c.SpeedMultiplier == nil {
			return rejected("set_speed requires speed_multiplier")
		}
		if err := e.SetSpeedMultiplier(*c.SpeedMultiplier); err != nil {
			return rejected("%v", err)
		}
		return CommandResult{OK: true, Message: fmt.Sprintf("speed multiplier set to %g", *c.SpeedMultiplier)}
	case ActionLoadScenario:
		fellBack, err := e.LoadScenarioOrDefault(c.ScenarioID)
		if err != nil {
			return rejected("load scenario: %v", err)
		}
		st := e.Status()
		if fellBack {
			return CommandResult{OK: true, Message: fmt.Sprintf("scenario %q not found, loaded default %q", c.ScenarioID, st.ScenarioID), Data: st}
		}
		return CommandResult{OK: true, Message: fmt.Sprintf("scenario %q loaded", st.ScenarioID), Data: st}
	}
	return rejected("unknown action %q", c.Action)
}

func (e *Engine) engage(c EngageCommand) CommandResult {
	mode, err := interceptor.ParseGuidanceMode(c.GuidanceMode)
	if err != nil {
		return rejected("%v", err)
	}
	if c.GuidanceMode == "" {
		mode = ""
	}
	req := EngageRequest{DroneID: c.DroneID, InterceptorID: c.InterceptorID, IssuedBy: c.IssuedBy, Method: c.Method, Guidance: mode}
	if !e.Engage(req) {
		return rejected("cannot engage %s: target unavailable or no interceptor in standby", c.DroneID)
	}
	return CommandResult{OK: true, Message: fmt.Sprintf("engaging %s", c.DroneID)}
}

func (e *Engine) generate(c GenerateScenarioCommand) CommandResult {
	seed := uint32(time.Now().UnixNano())
	if c.Seed != nil {
		seed = *c.Seed
	}
	gen, err := e.catalog.Generate(seed, c.Count)
	if err != nil {
		return rejected("generate scenario: %v", err)
	}
	return CommandResult{OK: true, Message: fmt.Sprintf("generated %d scenario(s)", len(gen)), Data: gen}
}

func (e *Engine) relayAudio(ctx context.Context, c AudioDetectionCommand) CommandResult {
	if c.Confidence < 0 || c.Confidence > 1 {
		return rejected("audio confidence %v outside [0,1]", c.Confidence)
	}
	e.mu.Lock()
	ev := telemetry.AudioDetection{
		Header:            e.header(telemetry.EventAudioDetection),
		DroneID:           c.DroneID,
		State:             c.State,
		Confidence:        c.Confidence,
		EstimatedDistance: c.EstimatedDistance,
		EstimatedBearing:  c.EstimatedBearing,
	}
	e.flush(ctx, []telemetry.Event{ev})
	e.mu.Unlock()
	return CommandResult{OK: true, Message: "audio detection relayed"}
}

func commandName(cmd Command) string {
	switch c := cmd.(type) {
	case ControlCommand:
		return TypeSimulationControl + ":" + string(c.Action)
	case EngageCommand:
		return TypeEngageCommand
	case GenerateScenarioCommand:
		return TypeGenerateScenario
	case ListScenariosCommand:
		return TypeGetScenarios
	case AudioDetectionCommand:
		return TypeAudioDetection
	}
	return fmt.Sprintf("%T", cmd)
}
