// Package admin serves the operator HTTP API and status page.
package admin

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"counterdrone-sim/internal/logging"
	"counterdrone-sim/internal/sim"
	"counterdrone-sim/internal/telemetry"
)

//go:embed templates/index.html
var content embed.FS

const maxBody = 1 << 20

// Server exposes an Engine over HTTP.
type Server struct {
	Engine   *sim.Engine
	hub      http.Handler
	gatherer prometheus.Gatherer
	tpl      *template.Template
}

// Option customizes a Server.
type Option func(*Server)

// WithHub mounts a websocket handler at /ws.
func WithHub(h http.Handler) Option {
	return func(s *Server) { s.hub = h }
}

// WithGatherer serves the given registry at /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) { s.gatherer = g }
}

// NewServer creates a Server for engine.
func NewServer(engine *sim.Engine, opts ...Option) *Server {
	tpl := template.Must(template.New("index.html").Funcs(template.FuncMap{
		"f1": func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
	}).ParseFS(content, "templates/index.html"))
	s := &Server{Engine: engine, tpl: tpl}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /drones", s.handleDrones)
	mux.HandleFunc("GET /interceptors", s.handleInterceptors)
	mux.HandleFunc("GET /journal", s.handleJournal)
	mux.HandleFunc("POST /control", s.handleControl)
	mux.HandleFunc("POST /engage", s.handleEngage)
	mux.HandleFunc("GET /scenarios", s.handleScenarios)
	mux.HandleFunc("POST /scenarios/generate", s.handleGenerate)
	if s.gatherer != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.hub != nil {
		mux.Handle("/ws", s.hub)
	}
	return mux
}

// Start serves on addr until ctx is done.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	logging.FromContext(ctx).Info("admin server listening", "addr", addr)
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type droneView struct {
	ID                 string             `json:"id"`
	Behavior           string             `json:"behavior"`
	Position           telemetry.Position `json:"position"`
	Velocity           telemetry.Velocity `json:"velocity"`
	IsHostile          bool               `json:"is_hostile"`
	IsEvading          bool               `json:"is_evading"`
	IsNeutralized      bool               `json:"is_neutralized"`
	LastRadarDetection *float64           `json:"last_radar_detection,omitempty"`
}

type interceptorView struct {
	ID           string             `json:"id"`
	State        string             `json:"state"`
	TargetID     string             `json:"target_id,omitempty"`
	GuidanceMode string             `json:"guidance_mode"`
	Position     telemetry.Position `json:"position"`
	Velocity     telemetry.Velocity `json:"velocity"`
	LaunchTime   *float64           `json:"launch_time,omitempty"`
}

func (s *Server) drones() []droneView {
	ds := s.Engine.Drones()
	out := make([]droneView, len(ds))
	for i, d := range ds {
		out[i] = droneView{
			ID: d.ID, Behavior: string(d.Behavior), Position: d.Position, Velocity: d.Velocity,
			IsHostile: d.IsHostile, IsEvading: d.IsEvading, IsNeutralized: d.IsNeutralized,
			LastRadarDetection: d.LastRadarDetection,
		}
	}
	return out
}

func (s *Server) interceptors() []interceptorView {
	ics := s.Engine.Interceptors()
	out := make([]interceptorView, len(ics))
	for i, ic := range ics {
		out[i] = interceptorView{
			ID: ic.ID, State: string(ic.State), TargetID: ic.TargetID, GuidanceMode: string(ic.Guidance),
			Position: ic.Position, Velocity: ic.Velocity, LaunchTime: ic.LaunchTime,
		}
	}
	return out
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	journal := s.Engine.Journal()
	if len(journal) > 10 {
		journal = journal[len(journal)-10:]
	}
	data := struct {
		Status       sim.Status
		Drones       []droneView
		Interceptors []interceptorView
		Journal      []sim.JournalEntry
		Metrics      bool
		Stream       bool
	}{
		Status:       s.Engine.Status(),
		Drones:       s.drones(),
		Interceptors: s.interceptors(),
		Journal:      journal,
		Metrics:      s.gatherer != nil,
		Stream:       s.hub != nil,
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tpl.Execute(w, data); err != nil {
		logging.FromContext(r.Context()).Error("render index", "err", err)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Status())
}

func (s *Server) handleDrones(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.drones())
}

func (s *Server) handleInterceptors(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.interceptors())
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Journal())
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	var c sim.ControlCommand
	if !decodeBody(w, r, &c, false) {
		return
	}
	s.execute(w, r, c)
}

func (s *Server) handleEngage(w http.ResponseWriter, r *http.Request) {
	var c sim.EngageCommand
	if !decodeBody(w, r, &c, false) {
		return
	}
	if c.IssuedBy == "" {
		c.IssuedBy = "admin"
	}
	if c.Method == "" {
		c.Method = "http"
	}
	s.execute(w, r, c)
}

func (s *Server) handleScenarios(w http.ResponseWriter, r *http.Request) {
	s.execute(w, r, sim.ListScenariosCommand{})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var c sim.GenerateScenarioCommand
	if !decodeBody(w, r, &c, true) {
		return
	}
	s.execute(w, r, c)
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request, cmd sim.Command) {
	res := s.Engine.Execute(r.Context(), cmd)
	code := http.StatusOK
	if !res.OK {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, res)
}

// decodeBody reads a JSON request body into v. An empty body is accepted
// when optional is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, optional bool) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	err := dec.Decode(v)
	if err == nil || (optional && errors.Is(err, io.EOF)) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, sim.CommandResult{Error: "invalid request body: " + err.Error()})
	return false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
