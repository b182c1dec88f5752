package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"counterdrone-sim/internal/sim"
	"counterdrone-sim/internal/telemetry"
)

type fakeExecutor struct {
	mu   sync.Mutex
	cmds []sim.Command
}

func (f *fakeExecutor) Execute(_ context.Context, cmd sim.Command) sim.CommandResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	return sim.CommandResult{OK: true, Message: "done"}
}

func (f *fakeExecutor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.cmds)
}

func startHub(t *testing.T, exec Executor) (*Hub, *websocket.Conn) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(exec)
	go h.Run(ctx)
	srv := httptest.NewServer(h)
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() {
		conn.Close()
		cancel()
		srv.Close()
	})
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return h, conn
}

func readAck(t *testing.T, conn *websocket.Conn) Ack {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var ack Ack
	if err := conn.ReadJSON(&ack); err != nil {
		t.Fatalf("read ack: %v", err)
	}
	return ack
}

func TestHubCommandAck(t *testing.T) {
	exec := &fakeExecutor{}
	_, conn := startHub(t, exec)

	tests := []struct {
		name    string
		msg     string
		ok      bool
		command string
		errPart string
	}{
		{"control", `{"type":"simulation_control","action":"start"}`, true, "simulation_control", ""},
		{"engage", `{"type":"engage_command","drone_id":"H-001"}`, true, "engage_command", ""},
		{"unknown type", `{"type":"self_destruct"}`, false, "self_destruct", "unknown command"},
		{"malformed", `{"type":`, false, "", "decode command"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(tt.msg)); err != nil {
				t.Fatalf("write: %v", err)
			}
			ack := readAck(t, conn)
			if ack.Type != TypeCommandAck || ack.OK != tt.ok || ack.Command != tt.command {
				t.Fatalf("unexpected ack %+v", ack)
			}
			if tt.errPart != "" && !strings.Contains(ack.Error, tt.errPart) {
				t.Fatalf("error %q does not mention %q", ack.Error, tt.errPart)
			}
		})
	}
	if n := exec.count(); n != 2 {
		t.Fatalf("executed %d commands, want 2", n)
	}
}

func TestHubBroadcastsEvents(t *testing.T) {
	h, conn := startHub(t, nil)
	ev := telemetry.SimulationStatus{
		Header:     telemetry.Header{Type: telemetry.EventSimulationStatus, RunID: "run-1", SimTime: 3, Timestamp: time.Unix(3, 0).UTC()},
		IsRunning:  true,
		ScenarioID: "1",
		DroneCount: 3,
	}
	if err := h.WriteEvent(ev); err != nil {
		t.Fatalf("write event: %v", err)
	}
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	got, err := telemetry.DecodeEvent(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	st, ok := got.(telemetry.SimulationStatus)
	if !ok || st.ScenarioID != "1" || st.DroneCount != 3 || !st.IsRunning {
		t.Fatalf("unexpected event %#v", got)
	}
}

func TestHubWithoutExecutorRejectsCommands(t *testing.T) {
	_, conn := startHub(t, nil)
	if err := conn.WriteJSON(map[string]any{"type": "get_scenarios"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	ack := readAck(t, conn)
	if ack.OK || ack.Error == "" {
		t.Fatalf("expected rejection, got %+v", ack)
	}
}

func TestWriteEventWithoutClients(t *testing.T) {
	h := NewHub(nil)
	if err := h.WriteEvent(telemetry.SimulationStatus{}); err != nil {
		t.Fatalf("write event: %v", err)
	}
	if len(h.broadcast) != 0 {
		t.Fatalf("event queued without clients")
	}
}

func TestIsValidOrigin(t *testing.T) {
	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://sim.example:8080", true},
		{"http://localhost:3000", true},
		{"http://127.0.0.1", true},
		{"https://evil.example", false},
		{"://bad", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "http://sim.example:8080/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := isValidOrigin(r); got != tt.want {
				t.Fatalf("isValidOrigin(%q) = %v", tt.origin, got)
			}
		})
	}
}

func TestAckJSONIsFlat(t *testing.T) {
	data, err := json.Marshal(Ack{Type: TypeCommandAck, Command: "get_scenarios", CommandResult: sim.CommandResult{OK: true, Message: "m"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"type":"command_ack","command":"get_scenarios","ok":true,"message":"m"}`
	if string(data) != want {
		t.Fatalf("got %s", data)
	}
}

func TestServeHTTPAfterHubStopped(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := NewHub(&fakeExecutor{})
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	for h.context() != ctx {
		time.Sleep(time.Millisecond)
	}
	cancel()
	<-stopped

	srv := httptest.NewServer(h)
	defer srv.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected the connection to be closed")
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		t.Fatalf("connection left open on a stopped hub: %v", err)
	}
	if h.Clients() != 0 {
		t.Fatalf("stopped hub registered a client")
	}
}
