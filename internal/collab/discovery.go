package collab

import "sync"

// PeerTable is a trivial in-memory DiscoveryCollaborator that remembers
// the most recent sighting of every peer observed via beacon frames.
type PeerTable struct {
	mu    sync.Mutex
	peers map[DeviceID]PeerInfo
}

// NewPeerTable creates an empty peer table.
func NewPeerTable() *PeerTable {
	return &PeerTable{peers: make(map[DeviceID]PeerInfo)}
}

// Observe records or updates a peer's last-seen information.
func (t *PeerTable) Observe(peer PeerInfo) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.peers[peer.ID] = peer
}

// Peers returns a snapshot of every known peer, in no particular order.
func (t *PeerTable) Peers() []PeerInfo {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]PeerInfo, 0, len(t.peers))
	for _, p := range t.peers {
		out = append(out, p)
	}
	return out
}
