package domain

import (
	"fmt"
	"time"
)

// Role classifies what a resolved identity is allowed to do.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// CallerContext carries the resolved identity of the connection issuing an
// operation. UserID is 0 until the identity provider has resolved one;
// authorization checks must treat 0 as anonymous.
type CallerContext struct {
	ConnectionID string
	UserID       int64
	Role         Role
}

// Resolved reports whether the caller has a verified identity.
func (c CallerContext) Resolved() bool {
	return c.UserID != 0
}

// IsAdmin reports whether the caller holds the admin role. An unresolved
// identity is never admin.
func (c CallerContext) IsAdmin() bool {
	return c.Resolved() && c.Role == RoleAdmin
}

// Session describes the lifecycle of one live connection. It exists only in
// memory and only for as long as the transport link, plus a final snapshot
// handed to presence notification on disconnect.
type Session struct {
	ConnectionID   string     `json:"connection_id"`
	UserID         int64      `json:"user_id,omitempty"`
	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// Active reports whether the session's connection is still live.
func (s *Session) Active() bool {
	return s.DisconnectedAt == nil
}

// UserGroup returns the name of the per-user group for a user identity.
// Every resolved connection is subscribed to its own user group for the
// lifetime of the connection.
func UserGroup(userID int64) string {
	return fmt.Sprintf("User_%d", userID)
}
