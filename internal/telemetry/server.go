package telemetry

import (
	"log"
	"net/http"
)

// Server exposes a hub's events over HTTP, at /ws for the websocket
// upgrade and /health for a liveness check.
type Server struct {
	mux  *http.ServeMux
	hub  *Hub
	addr string
}

// NewServer creates a telemetry HTTP server listening at addr.
func NewServer(addr string, hub *Hub) *Server {
	s := &Server{mux: http.NewServeMux(), hub: hub, addr: addr}
	s.mux.HandleFunc("/ws", s.hub.ServeWS)
	s.mux.HandleFunc("/health", s.handleHealth)
	return s
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Start runs the server, blocking until it exits or errors.
func (s *Server) Start() error {
	log.Printf("telemetry: listening on %s", s.addr)
	return http.ListenAndServe(s.addr, s.mux)
}
