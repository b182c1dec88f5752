// Package transport streams simulation events to websocket clients and feeds
// their commands back into the engine.
package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"counterdrone-sim/internal/logging"
	"counterdrone-sim/internal/sim"
	"counterdrone-sim/internal/telemetry"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 64 << 10
	sendBuffer     = 256
)

// TypeCommandAck is the type of the reply sent for every inbound command.
const TypeCommandAck = "command_ack"

// Executor applies decoded commands. *sim.Engine satisfies it.
type Executor interface {
	Execute(ctx context.Context, cmd sim.Command) sim.CommandResult
}

// Ack acknowledges one inbound message.
type Ack struct {
	Type    string `json:"type"`
	Command string `json:"command,omitempty"`
	sim.CommandResult
}

// isValidOrigin accepts non-browser clients, same-origin pages and localhost.
func isValidOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1" || strings.HasPrefix(host, "[::1")
}

type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to every connected client.
type Hub struct {
	exec     Executor
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	ctx     context.Context
	clients map[*client]struct{}

	register   chan *client
	unregister chan *client
	broadcast  chan []byte
}

// NewHub creates a hub that executes client commands with exec. exec may be
// nil for a broadcast-only hub.
func NewHub(exec Executor) *Hub {
	return &Hub{
		exec:       exec,
		upgrader:   websocket.Upgrader{CheckOrigin: isValidOrigin, EnableCompression: true},
		ctx:        context.Background(),
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBuffer),
	}
}

// Run services registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			log.Info("websocket client connected", "remote", c.conn.RemoteAddr().String(), "clients", n)
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			log.Info("websocket client disconnected", "remote", c.conn.RemoteAddr().String(), "clients", n)
		case msg := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					log.Warn("websocket send buffer full, dropping message", "remote", c.conn.RemoteAddr().String())
				}
			}
			h.mu.RUnlock()
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				c.conn.Close()
			}
			h.mu.Unlock()
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// WriteEvent queues ev for every client. Events are dropped while nobody is
// connected or the broadcast queue is full.
func (h *Hub) WriteEvent(ev telemetry.Event) error {
	if h.Clients() == 0 {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- data:
	default:
	}
	return nil
}

// ServeHTTP upgrades the request and starts the client pumps.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger().Warn("websocket upgrade failed", "err", err)
		return
	}
	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	select {
	case h.register <- c:
	case <-h.context().Done():
		conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (h *Hub) context() context.Context {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ctx
}

func (h *Hub) logger() *slog.Logger {
	return logging.FromContext(h.context())
}

// handle decodes and executes one inbound message and returns its ack.
func (h *Hub) handle(data []byte) Ack {
	var env struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(data, &env)
	ack := Ack{Type: TypeCommandAck, Command: env.Type}
	cmd, err := sim.DecodeCommand(data)
	if err != nil {
		h.logger().Warn("dropping malformed command", "err", err)
		ack.Error = err.Error()
		return ack
	}
	if h.exec == nil {
		ack.Error = "commands are not accepted on this stream"
		return ack
	}
	ack.CommandResult = h.exec.Execute(h.context(), cmd)
	return ack
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.context().Done():
		}
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger().Warn("websocket read failed", "err", err)
			}
			return
		}
		reply, err := json.Marshal(c.hub.handle(data))
		if err != nil {
			continue
		}
		select {
		case c.send <- reply:
		default:
		}
	}
}

func (c *client) writePump() {
	done := c.hub.context().Done()
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
