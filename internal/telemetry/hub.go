// Package telemetry broadcasts MAC-layer events to connected observers
// over a websocket hub, for debugging and monitoring a running mesh node.
// It has no bearing on on-air protocol behavior.
package telemetry

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local monitoring tool, not exposed to untrusted origins
	},
}

// Event is a single telemetry message pushed to every connected client.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// SlotEventPayload describes a frame-start or transmit opportunity.
type SlotEventPayload struct {
	FrameNumber uint64 `json:"frameNumber"`
	Slot        int    `json:"slot"`
	DeviceID    string `json:"deviceId"`
}

// CollisionPayload describes a detected channel collision.
type CollisionPayload struct {
	FrameNumber uint64 `json:"frameNumber"`
	Slot        int    `json:"slot"`
	BackoffExp  int    `json:"backoffExponent"`
}

// UtilizationPayload reports how many of a frame's slots are currently
// assigned.
type UtilizationPayload struct {
	NumSlots   int `json:"numSlots"`
	FreeSlots  int `json:"freeSlots"`
	AssignedTo int `json:"assignedTo"`
}

// Hub manages websocket connections and broadcasts telemetry events to
// all of them.
type Hub struct {
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// AddClient registers a new websocket connection.
func (h *Hub) AddClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
	log.Printf("telemetry: client connected (%d total)", len(h.clients))
}

// RemoveClient closes and forgets a connection.
func (h *Hub) RemoveClient(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
	log.Printf("telemetry: client disconnected (%d remaining)", len(h.clients))
}

// Broadcast sends an event to every connected client, dropping any
// connection that fails to accept the write.
func (h *Hub) Broadcast(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("telemetry: marshal error: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.clients {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("telemetry: write error: %v", err)
			go h.RemoveClient(conn)
		}
	}
}

// BroadcastSlotEvent reports a transmit opportunity or frame-start.
func (h *Hub) BroadcastSlotEvent(frameNumber uint64, slot int, deviceID string) {
	h.Broadcast(Event{Type: "slot", Payload: SlotEventPayload{
		FrameNumber: frameNumber,
		Slot:        slot,
		DeviceID:    deviceID,
	}})
}

// BroadcastCollision reports a detected channel collision.
func (h *Hub) BroadcastCollision(frameNumber uint64, slot, backoffExp int) {
	h.Broadcast(Event{Type: "collision", Payload: CollisionPayload{
		FrameNumber: frameNumber,
		Slot:        slot,
		BackoffExp:  backoffExp,
	}})
}

// BroadcastUtilization reports overall slot-table occupancy.
func (h *Hub) BroadcastUtilization(numSlots, freeSlots, assignedTo int) {
	h.Broadcast(Event{Type: "utilization", Payload: UtilizationPayload{
		NumSlots:   numSlots,
		FreeSlots:  freeSlots,
		AssignedTo: assignedTo,
	}})
}

// ServeWS upgrades an HTTP request to a websocket connection and
// registers it with the hub until the client disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("telemetry: upgrade error: %v", err)
		return
	}
	h.AddClient(conn)

	go func() {
		defer h.RemoveClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
