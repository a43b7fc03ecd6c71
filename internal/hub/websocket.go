package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/vhpooya/remotehub/internal/capture"
	"github.com/vhpooya/remotehub/internal/domain"
	"github.com/vhpooya/remotehub/internal/identity"
)

const writeTimeout = 10 * time.Second

// WebSocketHandler binds the hub to a WebSocket endpoint. Each accepted
// connection gets one read loop (commands handled in arrival order) and one
// write pump (events delivered in publish order).
type WebSocketHandler struct {
	registry      *Registry
	notifier      *Notifier
	engine        *Engine
	provider      capture.Provider
	sendBuffer    int
	allowedOrigin string
	isDev         bool
}

// NewWebSocketHandler creates the WebSocket endpoint handler.
func NewWebSocketHandler(registry *Registry, notifier *Notifier, engine *Engine, provider capture.Provider, sendBuffer int, allowedOrigin string, isDev bool) *WebSocketHandler {
	if sendBuffer <= 0 {
		sendBuffer = 64
	}
	return &WebSocketHandler{
		registry:      registry,
		notifier:      notifier,
		engine:        engine,
		provider:      provider,
		sendBuffer:    sendBuffer,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	role := identity.RoleFromContext(r.Context())

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	connID := uuid.NewString()
	caller := domain.CallerContext{ConnectionID: connID, UserID: userID, Role: role}
	slog.Info("WebSocket connection accepted", "connection_id", connID, "user_id", userID, "ip", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := newClient(connID, ws, h.sendBuffer)

	h.registry.OnConnect(connID, userID)
	h.notifier.Attach(c)
	defer func() {
		h.notifier.Detach(connID)
		if sess, ok := h.registry.OnDisconnect(connID); ok && sess.UserID != 0 {
			h.notifier.NotifyPresence(connID, sess.UserID, false)
		}
		c.close()
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()
		c.writePump(ctx)
	}()

	h.sendScreenInfo(ctx, c)
	if userID != 0 {
		h.notifier.NotifyPresence(connID, userID, true)
	}

	h.readLoop(ctx, ws, caller)
	cancel()
	wg.Wait()
	slog.Info("WebSocket connection closed", "connection_id", connID, "user_id", userID)
}

// readLoop decodes and handles inbound commands one at a time, preserving
// the client's command order.
func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, caller domain.CallerContext) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "connection_id", caller.ConnectionID)
			} else {
				slog.Warn("WebSocket read error", "error", err, "connection_id", caller.ConnectionID)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			slog.Debug("Discarding malformed message", "error", err, "connection_id", caller.ConnectionID)
			continue
		}
		h.engine.Handle(ctx, caller, cmd)
	}
}

// sendScreenInfo pushes the host screen layout once after connect so the
// client can size its viewer. Hosts without a capture capability simply
// skip it.
func (h *WebSocketHandler) sendScreenInfo(ctx context.Context, c *client) {
	cctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	size, err := h.provider.ScreenSize(cctx)
	if err != nil {
		slog.Debug("Screen info unavailable", "error", err)
		return
	}
	monitors, err := h.provider.Monitors(cctx)
	if err != nil {
		slog.Debug("Monitor list unavailable", "error", err)
	}
	c.Send(domain.ScreenInfo{Width: size.Width, Height: size.Height, Monitors: monitors})
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

// client is the WebSocket-backed Peer. Events queue on a buffered channel
// consumed by a single write pump, which is what gives each connection its
// in-order outbound delivery.
type client struct {
	id        string
	conn      *websocket.Conn
	out       chan domain.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

var _ Peer = (*client)(nil)

func newClient(id string, conn *websocket.Conn, buffer int) *client {
	return &client{
		id:   id,
		conn: conn,
		out:  make(chan domain.Envelope, buffer),
		done: make(chan struct{}),
	}
}

func (c *client) ID() string { return c.id }

// Send queues an event without blocking. A full buffer means the client is
// slow or dead; the event is dropped for this peer only.
func (c *client) Send(ev domain.Event) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.out <- domain.Wrap(ev):
		return true
	default:
		slog.Warn("Outbound buffer full, dropping event", "connection_id", c.id, "event", ev.EventType())
		return false
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// writePump drains the outbound channel onto the wire in queue order.
func (c *client) writePump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case env := <-c.out:
			data, err := json.Marshal(env)
			if err != nil {
				slog.Error("Failed to encode event", "error", err, "event", env.Type)
				continue
			}
			writeCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			err = c.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				slog.Debug("WebSocket write error", "error", err, "connection_id", c.id)
				return
			}
		}
	}
}
