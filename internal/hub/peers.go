package hub

import "sync"

// peerSet is the mutex-guarded map of attached peers by connection ID.
type peerSet struct {
	mu    sync.RWMutex
	peers map[string]Peer
}

func newPeerSet() *peerSet {
	return &peerSet{peers: make(map[string]Peer)}
}

func (s *peerSet) add(p Peer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.peers[p.ID()] = p
}

func (s *peerSet) remove(connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.peers, connectionID)
}

func (s *peerSet) get(connectionID string) (Peer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.peers[connectionID]
	return p, ok
}

// all returns a snapshot of attached peers so publishing never holds the
// lock across Send calls.
func (s *peerSet) all() []Peer {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Peer, 0, len(s.peers))
	for _, p := range s.peers {
		out = append(out, p)
	}
	return out
}
