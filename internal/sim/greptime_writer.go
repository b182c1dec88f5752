package sim

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"counterdrone-sim/internal/telemetry"
)

// Table names written by GreptimeDBWriter.
const (
	TableRadarDetections   = "radar_detections"
	TableDroneTracks       = "drone_tracks"
	TableInterceptorTracks = "interceptor_tracks"
	TableInterceptResults  = "intercept_results"
	TableSimulationStatus  = "simulation_status"
	TableAudioDetections   = "audio_detections"
)

const defaultGreptimePort = 4001

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes events to GreptimeDB via the ingester client, one
// table per event kind.
type GreptimeDBWriter struct {
	client greptimeClient
}

// NewGreptimeDBWriter connects to endpoint (host or host:port). Tables are
// created by GreptimeDB on first write.
func NewGreptimeDBWriter(endpoint, database string) (*GreptimeDBWriter, error) {
	host, port := endpoint, defaultGreptimePort
	if h, p, err := net.SplitHostPort(endpoint); err == nil {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, err
		}
		host, port = h, n
	}
	cfg := greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return &GreptimeDBWriter{client: client}, nil
}

// WriteEvent inserts a single event.
func (w *GreptimeDBWriter) WriteEvent(ev telemetry.Event) error {
	return w.WriteEvents([]telemetry.Event{ev})
}

// WriteEvents groups events by kind and inserts one table per kind present.
func (w *GreptimeDBWriter) WriteEvents(events []telemetry.Event) error {
	if len(events) == 0 {
		return nil
	}
	var (
		radar    []telemetry.RadarDetection
		drones   []telemetry.DroneStateUpdate
		icepts   []telemetry.InterceptorUpdate
		results  []telemetry.InterceptResult
		statuses []telemetry.SimulationStatus
		audio    []telemetry.AudioDetection
	)
	for _, ev := range events {
		switch e := ev.(type) {
		case telemetry.RadarDetection:
			radar = append(radar, e)
		case telemetry.DroneStateUpdate:
			drones = append(drones, e)
		case telemetry.InterceptorUpdate:
			icepts = append(icepts, e)
		case telemetry.InterceptResult:
			results = append(results, e)
		case telemetry.SimulationStatus:
			statuses = append(statuses, e)
		case telemetry.AudioDetection:
			audio = append(audio, e)
		}
	}

	var tables []*table.Table
	var errs []error
	add := func(t *table.Table, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		if t != nil {
			tables = append(tables, t)
		}
	}
	if len(radar) > 0 {
		add(radarTable(radar))
	}
	if len(drones) > 0 {
		add(droneTable(drones))
	}
	if len(icepts) > 0 {
		add(interceptorTable(icepts))
	}
	if len(results) > 0 {
		add(resultTable(results))
	}
	if len(statuses) > 0 {
		add(statusTable(statuses))
	}
	if len(audio) > 0 {
		add(audioTable(audio))
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	if len(tables) == 0 {
		return nil
	}
	if _, err := w.client.Write(context.Background(), tables...); err != nil {
		slog.Error("greptime write failed", "tables", len(tables), "err", err)
		return err
	}
	slog.Debug("greptime write", "tables", len(tables), "events", len(events))
	return nil
}

// schema accumulates column definitions and stops at the first error.
type schema struct {
	tbl *table.Table
	err error
}

func newSchema(name string) *schema {
	t, err := table.New(name)
	return &schema{tbl: t, err: err}
}

func (s *schema) tag(names ...string) *schema {
	for _, n := range names {
		if s.err == nil {
			s.err = s.tbl.AddTagColumn(n, types.STRING)
		}
	}
	return s
}

func (s *schema) str(names ...string) *schema {
	for _, n := range names {
		if s.err == nil {
			s.err = s.tbl.AddFieldColumn(n, types.STRING)
		}
	}
	return s
}

func (s *schema) float(names ...string) *schema {
	for _, n := range names {
		if s.err == nil {
			s.err = s.tbl.AddFieldColumn(n, types.FLOAT64)
		}
	}
	return s
}

func (s *schema) integer(names ...string) *schema {
	for _, n := range names {
		if s.err == nil {
			s.err = s.tbl.AddFieldColumn(n, types.INT64)
		}
	}
	return s
}

func (s *schema) boolean(names ...string) *schema {
	for _, n := range names {
		if s.err == nil {
			s.err = s.tbl.AddFieldColumn(n, types.BOOLEAN)
		}
	}
	return s
}

func (s *schema) json(name string) *schema {
	if s.err == nil {
		s.err = s.tbl.AddFieldColumn(name, types.JSON)
	}
	return s
}

func (s *schema) ts() *schema {
	if s.err == nil {
		s.err = s.tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)
	}
	return s
}

func (s *schema) row(vals ...any) {
	if s.err == nil {
		s.err = s.tbl.AddRow(vals...)
	}
}

func (s *schema) done() (*table.Table, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.tbl, nil
}

func orZero(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}

func radarTable(rows []telemetry.RadarDetection) (*table.Table, error) {
	s := newSchema(TableRadarDetections).
		tag("run_id", "drone_id").
		float("sim_time", "range", "bearing", "altitude", "radial_velocity", "confidence").
		boolean("is_false_alarm", "is_first_detection").
		ts()
	for _, r := range rows {
		s.row(r.RunID, r.DroneID, r.SimTime, r.Range, r.Bearing, r.Altitude, orZero(r.RadialVelocity),
			r.Confidence, r.IsFalseAlarm, r.IsFirstDetection, r.Timestamp)
	}
	return s.done()
}

func droneTable(rows []telemetry.DroneStateUpdate) (*table.Table, error) {
	s := newSchema(TableDroneTracks).
		tag("run_id", "drone_id").
		str("behavior").
		float("sim_time", "x", "y", "altitude", "vx", "vy", "climb_rate").
		boolean("is_hostile", "is_evading", "is_neutralized").
		ts()
	for _, r := range rows {
		s.row(r.RunID, r.DroneID, r.Behavior, r.SimTime,
			r.Position.X, r.Position.Y, r.Position.Altitude,
			r.Velocity.VX, r.Velocity.VY, r.Velocity.ClimbRate,
			r.IsHostile, r.IsEvading, r.IsNeutralized, r.Timestamp)
	}
	return s.done()
}

func interceptorTable(rows []telemetry.InterceptorUpdate) (*table.Table, error) {
	s := newSchema(TableInterceptorTracks).
		tag("run_id", "interceptor_id").
		str("target_id", "state", "guidance_mode").
		float("sim_time", "x", "y", "altitude", "vx", "vy", "climb_rate", "distance_to_target").
		ts()
	for _, r := range rows {
		s.row(r.RunID, r.InterceptorID, r.TargetID, r.State, r.GuidanceMode, r.SimTime,
			r.Position.X, r.Position.Y, r.Position.Altitude,
			r.Velocity.VX, r.Velocity.VY, r.Velocity.ClimbRate,
			orZero(r.DistanceToTarget), r.Timestamp)
	}
	return s.done()
}

func resultTable(rows []telemetry.InterceptResult) (*table.Table, error) {
	s := newSchema(TableInterceptResults).
		tag("run_id", "interceptor_id", "target_id").
		str("result").
		float("sim_time", "distance", "relative_speed").
		json("details").
		ts()
	for _, r := range rows {
		details, err := json.Marshal(r.Details)
		if err != nil {
			return nil, err
		}
		s.row(r.RunID, r.InterceptorID, r.TargetID, r.Result, r.SimTime,
			r.Details.Distance, r.Details.RelativeSpeed, string(details), r.Timestamp)
	}
	return s.done()
}

func statusTable(rows []telemetry.SimulationStatus) (*table.Table, error) {
	s := newSchema(TableSimulationStatus).
		tag("run_id", "scenario_id").
		str("phase").
		boolean("is_running").
		float("sim_time", "speed_multiplier").
		integer("drone_count", "active_hostiles", "neutralized_count", "interceptor_count", "available_interceptors").
		ts()
	for _, r := range rows {
		s.row(r.RunID, r.ScenarioID, r.Phase, r.IsRunning, r.SimTime, r.SpeedMultiplier,
			int64(r.DroneCount), int64(r.ActiveHostiles), int64(r.NeutralizedCount),
			int64(r.InterceptorCount), int64(r.AvailableInterceptors), r.Timestamp)
	}
	return s.done()
}

func audioTable(rows []telemetry.AudioDetection) (*table.Table, error) {
	s := newSchema(TableAudioDetections).
		tag("run_id", "drone_id").
		str("state").
		float("sim_time", "confidence", "estimated_distance", "estimated_bearing").
		ts()
	for _, r := range rows {
		s.row(r.RunID, r.DroneID, r.State, r.SimTime, r.Confidence,
			orZero(r.EstimatedDistance), orZero(r.EstimatedBearing), r.Timestamp)
	}
	return s.done()
}
