// Package server is the session gateway: it owns the HTTP surface, one
// WebSocket endpoint multiplexing every game event, and the per-connection
// identity (assigned room, slot, display name) the rooms use to authorize
// actions.
package server

import (
	"encoding/json"
	"io/fs"
	"net/http"
	"sync"

	"github.com/thecdrz/connect-four/internal/protocol"
	"github.com/thecdrz/connect-four/internal/room"
	"github.com/thecdrz/connect-four/internal/storage"
)

// LeaderboardSize caps the entries returned to clients.
const LeaderboardSize = 10

// Server is the HTTP server.
type Server struct {
	mux      *http.ServeMux
	registry *room.Registry
	store    *storage.Store
	webFS    fs.FS

	lobbyMu     sync.Mutex
	subscribers map[string]*room.Client
}

// New creates a server with all routes and hooks lobby pushes into the
// registry. webFS serves the static client.
func New(registry *room.Registry, store *storage.Store, webFS fs.FS) *Server {
	s := &Server{
		mux:         http.NewServeMux(),
		registry:    registry,
		store:       store,
		webFS:       webFS,
		subscribers: make(map[string]*room.Client),
	}
	s.routes()
	registry.OnChange(s.broadcastLobby)
	return s
}

func (s *Server) routes() {
	// API routes
	s.mux.HandleFunc("GET /ws", s.handleWebSocket)
	s.mux.HandleFunc("GET /api/rooms", s.handleListRooms)
	s.mux.HandleFunc("GET /api/leaderboard", s.handleLeaderboard)

	// Static files
	s.mux.Handle("/", http.FileServer(http.FS(s.webFS)))
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleListRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.Summaries())
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := s.store.Top(LeaderboardSize)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "leaderboard unavailable"})
		return
	}
	if top == nil {
		top = []storage.Entry{}
	}
	writeJSON(w, http.StatusOK, top)
}

// subscribeLobby registers a client for lobby pushes and sends it the
// current listing immediately.
func (s *Server) subscribeLobby(c *room.Client) {
	s.lobbyMu.Lock()
	s.subscribers[c.ID] = c
	s.lobbyMu.Unlock()
	s.sendLobbyTo(c)
}

func (s *Server) unsubscribeLobby(id string) {
	s.lobbyMu.Lock()
	delete(s.subscribers, id)
	s.lobbyMu.Unlock()
}

// broadcastLobby pushes the current listing to every subscriber. Wired to
// the registry's change hook.
func (s *Server) broadcastLobby() {
	s.lobbyMu.Lock()
	subs := make([]*room.Client, 0, len(s.subscribers))
	for _, c := range s.subscribers {
		subs = append(subs, c)
	}
	s.lobbyMu.Unlock()
	if len(subs) == 0 {
		return
	}
	data := protocol.Encode(protocol.TypeLobbyUpdate, s.registry.Summaries())
	for _, c := range subs {
		c.Deliver(data)
	}
}

func (s *Server) sendLobbyTo(c *room.Client) {
	c.Deliver(protocol.Encode(protocol.TypeLobbyUpdate, s.registry.Summaries()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
