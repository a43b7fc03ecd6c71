package hub

import "sync"

// Groups is the group directory: named, dynamic sets of connections used for
// addressed fan-out. A group exists exactly as long as it has members; the
// registry's disconnect cleanup is the only thing that expires memberships.
type Groups struct {
	mu      sync.RWMutex
	members map[string]map[string]struct{}
}

// NewGroups creates an empty group directory.
func NewGroups() *Groups {
	return &Groups{members: make(map[string]map[string]struct{})}
}

// Join adds a connection to a group. Joining a group twice is a no-op.
func (g *Groups) Join(connectionID, group string) {
	if group == "" {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.members[group] == nil {
		g.members[group] = make(map[string]struct{})
	}
	g.members[group][connectionID] = struct{}{}
}

// Leave removes a connection from a group. Leaving a group the connection is
// not in is a no-op.
func (g *Groups) Leave(connectionID, group string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.leaveLocked(connectionID, group)
}

// LeaveAll removes a connection from every group it belongs to.
func (g *Groups) LeaveAll(connectionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for group := range g.members {
		g.leaveLocked(connectionID, group)
	}
}

func (g *Groups) leaveLocked(connectionID, group string) {
	set, ok := g.members[group]
	if !ok {
		return
	}
	delete(set, connectionID)
	if len(set) == 0 {
		delete(g.members, group)
	}
}

// Members returns the connections currently in a group.
func (g *Groups) Members(group string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	set := g.members[group]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
