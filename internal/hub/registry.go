// Package hub implements the real-time core: the connection registry, the
// group directory, notification fan-out and the per-connection session
// protocol engine, bound to WebSocket transport.
package hub

import (
	"log/slog"
	"sync"
	"time"

	"github.com/vhpooya/remotehub/internal/domain"
)

// Registry tracks the live session for every open connection. It is the
// single shared mutable record of who is connected; all mutation happens
// under its lock.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
	groups   *Groups
}

// NewRegistry creates a registry. Group membership cleanup on disconnect is
// the registry's responsibility, so it owns a reference to the directory.
func NewRegistry(groups *Groups) *Registry {
	return &Registry{
		sessions: make(map[string]*domain.Session),
		groups:   groups,
	}
}

// OnConnect records a new session for a connection. A resolved identity is
// auto-subscribed to its per-user group.
func (r *Registry) OnConnect(connectionID string, userID int64) *domain.Session {
	sess := &domain.Session{
		ConnectionID: connectionID,
		UserID:       userID,
		ConnectedAt:  time.Now(),
	}

	r.mu.Lock()
	r.sessions[connectionID] = sess
	r.mu.Unlock()

	if userID != 0 {
		r.groups.Join(connectionID, domain.UserGroup(userID))
	}

	slog.Info("Session connected", "connection_id", connectionID, "user_id", userID)
	return r.snapshot(sess)
}

// OnDisconnect tears down the session for a connection and removes all of
// its group memberships. It returns the final session snapshot for presence
// notification. A repeated disconnect for an unknown or already-closed
// connection is a no-op.
func (r *Registry) OnDisconnect(connectionID string) (*domain.Session, bool) {
	r.mu.Lock()
	sess, ok := r.sessions[connectionID]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	now := time.Now()
	sess.DisconnectedAt = &now
	delete(r.sessions, connectionID)
	r.mu.Unlock()

	r.groups.LeaveAll(connectionID)

	slog.Info("Session disconnected", "connection_id", connectionID, "user_id", sess.UserID)
	return r.snapshot(sess), true
}

// Get returns a snapshot of the session for a connection, if one is active.
func (r *Registry) Get(connectionID string) (*domain.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sess, ok := r.sessions[connectionID]
	if !ok {
		return nil, false
	}
	return r.snapshot(sess), true
}

// Active returns a point-in-time snapshot of all live sessions. Callers must
// tolerate staleness: a listed session may disconnect before use.
func (r *Registry) Active() []*domain.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Session, 0, len(r.sessions))
	for _, sess := range r.sessions {
		out = append(out, r.snapshot(sess))
	}
	return out
}

// snapshot copies a session so callers never share the registry's own
// mutable record.
func (r *Registry) snapshot(sess *domain.Session) *domain.Session {
	cp := *sess
	return &cp
}
