// ColorStdoutWriter prints human-friendly, colorized events to STDOUT.
package sim

import (
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"

	"counterdrone-sim/internal/config"
	"counterdrone-sim/internal/interceptor"
	"counterdrone-sim/internal/telemetry"
)

var (
	colorStamp    = color.New(color.FgHiBlack)
	colorRadar    = color.New(color.FgCyan)
	colorFalse    = color.New(color.FgHiBlack, color.Italic)
	colorHostile  = color.New(color.FgRed)
	colorNeutral  = color.New(color.FgGreen)
	colorIntercep = color.New(color.FgBlue, color.Bold)
	colorSuccess  = color.New(color.FgGreen, color.Bold)
	colorFailure  = color.New(color.FgYellow, color.Bold)
	colorStatus   = color.New(color.FgMagenta)
	colorAudio    = color.New(color.FgHiCyan)
)

// ColorStdoutWriter prints events using ANSI colors.
type ColorStdoutWriter struct {
	cfg  *config.SimulationConfig
	out  io.Writer
	once sync.Once
	mu   sync.Mutex
}

// NewColorStdoutWriter creates a ColorStdoutWriter writing to os.Stdout.
func NewColorStdoutWriter(cfg *config.SimulationConfig) *ColorStdoutWriter {
	return &ColorStdoutWriter{cfg: cfg, out: os.Stdout}
}

func (w *ColorStdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Tick Interval:\t%s\n", w.cfg.TickInterval)
	fmt.Fprintf(tw, "Speed Multiplier:\t%g\n", w.cfg.SpeedMultiplier)
	fmt.Fprintf(tw, "Default Scenario:\t%s\n", w.cfg.DefaultScenario)
	fmt.Fprintf(tw, "Radar Range (m):\t%.0f\n", w.cfg.Radar.MaxRange)
	fmt.Fprintf(tw, "Radar Scan Rate (Hz):\t%g\n", w.cfg.Radar.ScanRate)
	fmt.Fprintf(tw, "Guidance:\t%s\n", w.cfg.Guidance())
	fmt.Fprintf(tw, "Seed:\t%d\n", w.cfg.Seed)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// WriteEvent outputs a single event in colorized format.
func (w *ColorStdoutWriter) WriteEvent(ev telemetry.Event) error {
	w.once.Do(w.printOverview)
	w.mu.Lock()
	defer w.mu.Unlock()

	colorStamp.Fprintf(w.out, "[%s t=%7.1f] ", ev.Stamp().Format(time.RFC3339), simTime(ev))
	switch e := ev.(type) {
	case telemetry.RadarDetection:
		c := colorRadar
		tag := "RADAR"
		if e.IsFalseAlarm {
			c, tag = colorFalse, "RADAR?"
		}
		c.Fprintf(w.out, "%-7s", tag)
		fmt.Fprintf(w.out, " drone=%s range=%.0f brg=%.1f alt=%.0f conf=%.2f", e.DroneID, e.Range, e.Bearing, e.Altitude, e.Confidence)
		if e.RadialVelocity != nil {
			fmt.Fprintf(w.out, " vr=%.1f", *e.RadialVelocity)
		}
		if e.IsFirstDetection {
			colorHostile.Fprint(w.out, " NEW")
		}
	case telemetry.DroneStateUpdate:
		c := colorNeutral
		if e.IsHostile {
			c = colorHostile
		}
		c.Fprintf(w.out, "%-7s", "DRONE")
		fmt.Fprintf(w.out, " id=%s beh=%s pos=(%.0f,%.0f,%.0f) spd=%.1f", e.DroneID, e.Behavior,
			e.Position.X, e.Position.Y, e.Position.Altitude, e.Velocity.Speed())
		if e.IsEvading {
			colorFailure.Fprint(w.out, " evading")
		}
		if e.IsNeutralized {
			colorSuccess.Fprint(w.out, " neutralized")
		}
	case telemetry.InterceptorUpdate:
		colorIntercep.Fprintf(w.out, "%-7s", "INTCPT")
		fmt.Fprintf(w.out, " id=%s state=%s guidance=%s pos=(%.0f,%.0f,%.0f)", e.InterceptorID, e.State, e.GuidanceMode,
			e.Position.X, e.Position.Y, e.Position.Altitude)
		if e.TargetID != "" {
			fmt.Fprintf(w.out, " target=%s", e.TargetID)
		}
		if e.DistanceToTarget != nil {
			fmt.Fprintf(w.out, " dist=%.1f", *e.DistanceToTarget)
		}
	case telemetry.InterceptResult:
		c := colorFailure
		if e.Result == string(interceptor.ResultSuccess) {
			c = colorSuccess
		}
		c.Fprintf(w.out, "%-7s", e.Result)
		fmt.Fprintf(w.out, " interceptor=%s target=%s dist=%.1f rel_speed=%.1f", e.InterceptorID, e.TargetID, e.Details.Distance, e.Details.RelativeSpeed)
		if e.Details.Probability != nil {
			fmt.Fprintf(w.out, " p=%.2f", *e.Details.Probability)
		}
		if e.Details.Reason != "" {
			fmt.Fprintf(w.out, " reason=%s", e.Details.Reason)
		}
	case telemetry.SimulationStatus:
		colorStatus.Fprintf(w.out, "%-7s", "STATUS")
		fmt.Fprintf(w.out, " scenario=%s phase=%s running=%t hostiles=%d neutralized=%d interceptors=%d/%d",
			e.ScenarioID, e.Phase, e.IsRunning, e.ActiveHostiles, e.NeutralizedCount, e.AvailableInterceptors, e.InterceptorCount)
	case telemetry.AudioDetection:
		colorAudio.Fprintf(w.out, "%-7s", "AUDIO")
		fmt.Fprintf(w.out, " drone=%s state=%s conf=%.2f", e.DroneID, e.State, e.Confidence)
	default:
		fmt.Fprintf(w.out, "%s", ev.Kind())
	}
	fmt.Fprintln(w.out)
	return nil
}

// WriteEvents outputs multiple events.
func (w *ColorStdoutWriter) WriteEvents(events []telemetry.Event) error {
	for _, ev := range events {
		_ = w.WriteEvent(ev)
	}
	return nil
}

func simTime(ev telemetry.Event) float64 {
	switch e := ev.(type) {
	case telemetry.RadarDetection:
		return e.SimTime
	case telemetry.DroneStateUpdate:
		return e.SimTime
	case telemetry.InterceptorUpdate:
		return e.SimTime
	case telemetry.InterceptResult:
		return e.SimTime
	case telemetry.SimulationStatus:
		return e.SimTime
	case telemetry.AudioDetection:
		return e.SimTime
	}
	return 0
}
