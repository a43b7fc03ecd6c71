package hub

import (
	"context"
	"encoding/base64"
	"log/slog"
	"time"

	"github.com/vhpooya/remotehub/internal/capture"
	"github.com/vhpooya/remotehub/internal/domain"
)

// Command is one inbound client operation, decoded from the flat wire JSON.
// Only the fields relevant to the operation's Type are set.
type Command struct {
	Type string `json:"type"`

	// Capture parameters.
	Quality      int `json:"quality,omitempty"`
	X            int `json:"x,omitempty"`
	Y            int `json:"y,omitempty"`
	Width        int `json:"width,omitempty"`
	Height       int `json:"height,omitempty"`
	MonitorIndex int `json:"monitor_index,omitempty"`

	// Input parameters.
	Button      string `json:"button,omitempty"`
	DoubleClick bool   `json:"double_click,omitempty"`
	ToX         int    `json:"to_x,omitempty"`
	ToY         int    `json:"to_y,omitempty"`
	Delta       int    `json:"delta,omitempty"`
	KeyCode     int    `json:"key_code,omitempty"`
	IsDown      bool   `json:"is_down,omitempty"`
	Text        string `json:"text,omitempty"`
	Modifiers   string `json:"modifiers,omitempty"`

	// Group and notification parameters.
	Group        string `json:"group,omitempty"`
	UserID       int64  `json:"user_id,omitempty"`
	TargetUserID int64  `json:"target_user_id,omitempty"`
	Kind         string `json:"kind,omitempty"`
	Title        string `json:"title,omitempty"`
	Message      string `json:"message,omitempty"`
	CallID       string `json:"call_id,omitempty"`
	CallerName   string `json:"caller_name,omitempty"`
	CallerPhone  string `json:"caller_phone,omitempty"`
	SenderName   string `json:"sender_name,omitempty"`
	SenderPhone  string `json:"sender_phone,omitempty"`
	IsOnline     bool   `json:"is_online,omitempty"`
	IsTyping     bool   `json:"is_typing,omitempty"`
}

// Engine dispatches a connection's own commands: capture and input requests
// against the provider, group membership edits, and notification sends.
// There is no cross-connection authority here; a session only ever drives
// its own provider calls.
type Engine struct {
	provider    capture.Provider
	registry    *Registry
	groups      *Groups
	notifier    *Notifier
	callTimeout time.Duration
}

// NewEngine creates a protocol engine. callTimeout bounds every provider
// call so a hung capture converts into an error event instead of pinning the
// connection's handler forever.
func NewEngine(provider capture.Provider, registry *Registry, groups *Groups, notifier *Notifier, callTimeout time.Duration) *Engine {
	if callTimeout <= 0 {
		callTimeout = 10 * time.Second
	}
	return &Engine{
		provider:    provider,
		registry:    registry,
		groups:      groups,
		notifier:    notifier,
		callTimeout: callTimeout,
	}
}

// Handle processes one command for the caller. Commands from the same
// connection are handled one at a time in arrival order; the transport
// layer guarantees that by calling Handle from a single read loop.
func (e *Engine) Handle(ctx context.Context, caller domain.CallerContext, cmd Command) {
	switch cmd.Type {
	case "request_screen_capture":
		e.handleCapture(ctx, caller, "Failed to capture screen", func(cctx context.Context) (domain.Event, error) {
			img, err := e.provider.CaptureFull(cctx, capture.ClampQuality(cmd.Quality))
			if err != nil {
				return nil, err
			}
			return domain.ScreenCapture{Image: encodeImage(img), Timestamp: time.Now()}, nil
		})

	case "request_region_capture":
		e.handleCapture(ctx, caller, "Failed to capture region", func(cctx context.Context) (domain.Event, error) {
			img, err := e.provider.CaptureRegion(cctx, cmd.X, cmd.Y, cmd.Width, cmd.Height, capture.ClampQuality(cmd.Quality))
			if err != nil {
				return nil, err
			}
			return domain.RegionCapture{Image: encodeImage(img), Timestamp: time.Now()}, nil
		})

	case "request_monitor_capture":
		e.handleCapture(ctx, caller, "Failed to capture monitor", func(cctx context.Context) (domain.Event, error) {
			img, err := e.provider.CaptureMonitor(cctx, cmd.MonitorIndex, capture.ClampQuality(cmd.Quality))
			if err != nil {
				return nil, err
			}
			return domain.MonitorCapture{Index: cmd.MonitorIndex, Image: encodeImage(img), Timestamp: time.Now()}, nil
		})

	case "mouse_click":
		e.handleInput(ctx, caller, cmd.Type, true, func(cctx context.Context) error {
			return e.provider.MouseClick(cctx, cmd.X, cmd.Y, domain.ParseMouseButton(cmd.Button), cmd.DoubleClick)
		})

	case "mouse_move":
		// One-way to bound the event rate under fast pointer motion.
		e.handleInput(ctx, caller, cmd.Type, false, func(cctx context.Context) error {
			return e.provider.MouseMove(cctx, cmd.X, cmd.Y)
		})

	case "mouse_drag":
		e.handleInput(ctx, caller, cmd.Type, true, func(cctx context.Context) error {
			return e.provider.MouseDrag(cctx, cmd.X, cmd.Y, cmd.ToX, cmd.ToY, domain.ParseMouseButton(cmd.Button))
		})

	case "mouse_wheel":
		e.handleInput(ctx, caller, cmd.Type, true, func(cctx context.Context) error {
			return e.provider.MouseWheel(cctx, cmd.X, cmd.Y, cmd.Delta)
		})

	case "key_press":
		e.handleInput(ctx, caller, cmd.Type, true, func(cctx context.Context) error {
			return e.provider.KeyPress(cctx, cmd.KeyCode, cmd.IsDown)
		})

	case "type_text":
		e.handleInput(ctx, caller, cmd.Type, true, func(cctx context.Context) error {
			return e.provider.TypeText(cctx, cmd.Text)
		})

	case "key_combination":
		e.handleInput(ctx, caller, cmd.Type, true, func(cctx context.Context) error {
			return e.provider.KeyCombination(cctx, domain.ParseModifiers(cmd.Modifiers), cmd.KeyCode)
		})

	case "get_active_sessions":
		e.notifier.Publish(ToConnection(caller.ConnectionID), domain.ActiveSessions{Sessions: e.registry.Active()})

	case "join_group":
		e.groups.Join(caller.ConnectionID, cmd.Group)

	case "leave_group":
		e.groups.Leave(caller.ConnectionID, cmd.Group)

	case "join_user_group":
		// A connection may only join the user group of its own identity.
		if caller.Resolved() && cmd.UserID == caller.UserID {
			e.groups.Join(caller.ConnectionID, domain.UserGroup(cmd.UserID))
		}

	case "send_notification_to_user":
		e.notifier.SendDirected(ctx, caller, cmd.TargetUserID, cmd.Kind, cmd.Title, cmd.Message)

	case "send_phone_call_notification":
		e.notifier.SendPhoneCall(ctx, caller, cmd.TargetUserID, cmd.CallerName, cmd.CallerPhone, cmd.CallID)

	case "send_sms_notification":
		e.notifier.SendSms(ctx, caller, cmd.TargetUserID, cmd.SenderName, cmd.SenderPhone, cmd.Message)

	case "update_phone_status":
		e.notifier.UpdatePhoneStatus(caller, cmd.IsOnline)

	case "send_typing_indicator":
		e.notifier.SendTyping(caller, cmd.TargetUserID, cmd.IsTyping)

	case "broadcast_system_notification":
		kind := cmd.Kind
		if kind == "" {
			kind = "info"
		}
		e.notifier.BroadcastSystem(ctx, caller, cmd.Title, cmd.Message, kind)

	default:
		slog.Debug("Ignoring unknown command", "type", cmd.Type, "connection_id", caller.ConnectionID)
	}
}

// handleCapture runs a capture call under the provider timeout. A provider
// failure or timeout becomes a single error event for the caller; nothing
// propagates to other sessions and the connection stays usable.
func (e *Engine) handleCapture(ctx context.Context, caller domain.CallerContext, failReason string, fn func(context.Context) (domain.Event, error)) {
	cctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	ev, err := fn(cctx)
	if err != nil {
		slog.Warn("Capture failed", "connection_id", caller.ConnectionID, "error", err)
		e.notifier.Publish(ToConnection(caller.ConnectionID), domain.ErrorEvent{Reason: failReason})
		return
	}
	e.notifier.Publish(ToConnection(caller.ConnectionID), ev)
}

// handleInput runs an input-injection call under the provider timeout.
// Acked operations emit an InputAck tagged with the command name; mouse
// moves are fire-and-forget.
func (e *Engine) handleInput(ctx context.Context, caller domain.CallerContext, operation string, ack bool, fn func(context.Context) error) {
	cctx, cancel := context.WithTimeout(ctx, e.callTimeout)
	defer cancel()

	if err := fn(cctx); err != nil {
		slog.Warn("Input injection failed", "operation", operation, "connection_id", caller.ConnectionID, "error", err)
		e.notifier.Publish(ToConnection(caller.ConnectionID), domain.ErrorEvent{Reason: "Failed to perform " + operation})
		return
	}
	if ack {
		e.notifier.Publish(ToConnection(caller.ConnectionID), domain.InputAck{Operation: operation})
	}
}

// encodeImage converts raw image bytes to the base64 form carried on the
// text channel.
func encodeImage(img []byte) string {
	return base64.StdEncoding.EncodeToString(img)
}
