package domain

import "time"

// Event is one server-to-client notification. Events are ephemeral: built,
// delivered to whoever is connected at publish time, then discarded.
type Event interface {
	// EventType returns the wire discriminator for the event.
	EventType() string
}

// Envelope is the wire framing for an outbound event.
type Envelope struct {
	Type string `json:"type"`
	Data Event  `json:"data,omitempty"`
}

// Wrap frames an event for transmission.
func Wrap(ev Event) Envelope {
	return Envelope{Type: ev.EventType(), Data: ev}
}

// UserOnline announces that a user's connection came up.
type UserOnline struct {
	UserID int64 `json:"user_id"`
}

func (UserOnline) EventType() string { return "user_online" }

// UserOffline announces that a user's connection went away.
type UserOffline struct {
	UserID int64 `json:"user_id"`
}

func (UserOffline) EventType() string { return "user_offline" }

// ReceiveNotification is a directed user-to-user notification.
type ReceiveNotification struct {
	Kind       string    `json:"kind"`
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	FromUserID int64     `json:"from_user_id"`
	Timestamp  time.Time `json:"timestamp"`
}

func (ReceiveNotification) EventType() string { return "receive_notification" }

// IncomingCall announces a simulated inbound phone call.
type IncomingCall struct {
	CallID            string    `json:"call_id"`
	CallerName        string    `json:"caller_name"`
	CallerPhoneNumber string    `json:"caller_phone_number"`
	Timestamp         time.Time `json:"timestamp"`
}

func (IncomingCall) EventType() string { return "incoming_call" }

// NewSms announces a simulated inbound SMS. Message carries at most the
// first 50 characters of the body plus an ellipsis; the full body stays in
// the directory store and is never mutated here.
type NewSms struct {
	SenderName        string    `json:"sender_name"`
	SenderPhoneNumber string    `json:"sender_phone_number"`
	Message           string    `json:"message"`
	Timestamp         time.Time `json:"timestamp"`
}

func (NewSms) EventType() string { return "new_sms" }

// PhoneStatusChanged announces a user toggling their phone availability.
type PhoneStatusChanged struct {
	UserID    int64     `json:"user_id"`
	IsOnline  bool      `json:"is_online"`
	Timestamp time.Time `json:"timestamp"`
}

func (PhoneStatusChanged) EventType() string { return "phone_status_changed" }

// TypingIndicator relays a typing state change to the target user.
type TypingIndicator struct {
	FromUserID int64     `json:"from_user_id"`
	IsTyping   bool      `json:"is_typing"`
	Timestamp  time.Time `json:"timestamp"`
}

func (TypingIndicator) EventType() string { return "typing_indicator" }

// SystemNotification is an admin-originated broadcast.
type SystemNotification struct {
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

func (SystemNotification) EventType() string { return "system_notification" }

// ScreenInfo is sent once right after connect so the client can size its
// viewer before the first capture.
type ScreenInfo struct {
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Monitors []Monitor `json:"monitors"`
}

func (ScreenInfo) EventType() string { return "screen_info" }

// Monitor describes one attached display.
type Monitor struct {
	Index   int  `json:"index"`
	X       int  `json:"x"`
	Y       int  `json:"y"`
	Width   int  `json:"width"`
	Height  int  `json:"height"`
	Primary bool `json:"primary"`
}

// ScreenCapture carries a full-screen capture result.
type ScreenCapture struct {
	Image     string    `json:"image"` // base64
	Timestamp time.Time `json:"timestamp"`
}

func (ScreenCapture) EventType() string { return "screen_capture" }

// RegionCapture carries a region capture result.
type RegionCapture struct {
	Image     string    `json:"image"` // base64
	Timestamp time.Time `json:"timestamp"`
}

func (RegionCapture) EventType() string { return "region_capture" }

// MonitorCapture carries a single-monitor capture result.
type MonitorCapture struct {
	Index     int       `json:"index"`
	Image     string    `json:"image"` // base64
	Timestamp time.Time `json:"timestamp"`
}

func (MonitorCapture) EventType() string { return "monitor_capture" }

// InputAck acknowledges a processed input command back to its caller.
type InputAck struct {
	Operation string `json:"operation"`
}

func (InputAck) EventType() string { return "input_ack" }

// ErrorEvent reports an operation-scoped failure to the caller. The
// connection stays alive.
type ErrorEvent struct {
	Reason string `json:"reason"`
}

func (ErrorEvent) EventType() string { return "error" }

// ActiveSessions is a point-in-time snapshot of live sessions. Callers must
// tolerate staleness: a listed session may already be gone.
type ActiveSessions struct {
	Sessions []*Session `json:"sessions"`
}

func (ActiveSessions) EventType() string { return "active_sessions" }
