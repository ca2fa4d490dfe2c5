package collab

import (
	"testing"
	"time"
)

func TestPeerTable_ObserveAndPeers(t *testing.T) {
	table := NewPeerTable()
	now := time.Now()
	table.Observe(PeerInfo{ID: 1, Name: "a", LastSeen: now})
	table.Observe(PeerInfo{ID: 2, Name: "b", LastSeen: now})

	peers := table.Peers()
	if len(peers) != 2 {
		t.Fatalf("len(peers) = %d, want 2", len(peers))
	}
}

func TestPeerTable_ObserveUpdatesExisting(t *testing.T) {
	table := NewPeerTable()
	t1 := time.Now()
	t2 := t1.Add(time.Minute)

	table.Observe(PeerInfo{ID: 1, Name: "a", LastSeen: t1})
	table.Observe(PeerInfo{ID: 1, Name: "a", LastSeen: t2})

	peers := table.Peers()
	if len(peers) != 1 {
		t.Fatalf("len(peers) = %d, want 1", len(peers))
	}
	if !peers[0].LastSeen.Equal(t2) {
		t.Errorf("LastSeen = %v, want %v", peers[0].LastSeen, t2)
	}
}

func TestPeerTable_ImplementsDiscoveryCollaborator(t *testing.T) {
	var _ DiscoveryCollaborator = NewPeerTable()
}
