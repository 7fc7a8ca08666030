// Package fakegateway is an in-memory stand-in for the snapfeed backend:
// the REST surface the client consumes plus the websocket push channel.
// The test suite and the demo binary run against it. Failure injection
// and request gating exist so tests can drive the failure and in-flight
// paths deterministically.
package fakegateway

import (
	"encoding/json"
	"net/http"
	"sync"

	"snapfeed_client/models"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
)

// Server holds the authoritative in-memory store.
type Server struct {
	mu        sync.Mutex
	reactions map[string]models.ReactionEdge      // edge id -> edge
	comments  map[string][]models.Comment         // target key -> top-level, newest first
	followers map[string]map[string]bool          // followee -> follower set
	activity  map[string][]models.ActivityEvent   // user id -> newest first
	failNext  map[string]int
	gates     map[string]chan struct{}
	counts    map[string]int
	conns     map[*websocket.Conn]bool

	upgrader websocket.Upgrader
	handler  http.Handler
}

// New creates a Server with an empty store and a fully wired router.
func New() *Server {
	s := &Server{
		reactions: make(map[string]models.ReactionEdge),
		comments:  make(map[string][]models.Comment),
		followers: make(map[string]map[string]bool),
		activity:  make(map[string][]models.ActivityEvent),
		failNext:  make(map[string]int),
		gates:     make(map[string]chan struct{}),
		counts:    make(map[string]int),
		conns:     make(map[*websocket.Conn]bool),
		upgrader:  websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}

	r := mux.NewRouter()

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/like", s.handleCreateReaction).Methods("POST")
	api.HandleFunc("/like/{likeId}", s.handleUpdateReaction).Methods("PUT")
	api.HandleFunc("/like/{likeId}", s.handleDeleteReaction).Methods("DELETE")
	api.HandleFunc("/users/{userId}/follow", s.handleFollow).Methods("POST")
	api.HandleFunc("/users/{userId}/follow", s.handleUnfollow).Methods("DELETE")
	api.HandleFunc("/posts/{targetId}/comments", s.handleListComments).Methods("GET")
	api.HandleFunc("/comments/{targetId}/comments", s.handleListComments).Methods("GET")
	api.HandleFunc("/comments/comment", s.handleCreateComment).Methods("POST")
	api.HandleFunc("/comments/{commentId}", s.handleEditComment).Methods("PUT")
	api.HandleFunc("/comments/{commentId}", s.handleDeleteComment).Methods("DELETE")
	api.HandleFunc("/users/{userId}/notifications", s.handleNotifications).Methods("GET")

	r.HandleFunc("/ws", s.handleWebsocket)

	s.handler = cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	return s
}

// Handler returns the full HTTP surface, CORS included.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// FailNext makes the next n requests for op answer 500.
func (s *Server) FailNext(op string, n int) {
	s.mu.Lock()
	s.failNext[op] += n
	s.mu.Unlock()
}

// GateRequests blocks every op request until the returned release func is
// called. Used to hold an operation in flight from a test.
func (s *Server) GateRequests(op string) (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gates[op] = gate
	s.mu.Unlock()

	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// RequestCount reports how many op requests reached the store.
func (s *Server) RequestCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[op]
}

// begin records the request and applies gating/failure injection. Returns
// false when an injected failure was already written.
func (s *Server) begin(op string, w http.ResponseWriter) bool {
	s.mu.Lock()
	s.counts[op]++
	gate := s.gates[op]
	fail := s.failNext[op] > 0
	if fail {
		s.failNext[op]--
	}
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fail {
		respondError(w, http.StatusInternalServerError, "injected failure")
		return false
	}
	return true
}

// SeedComments installs a target's top-level comments, newest first.
func (s *Server) SeedComments(targetKind, targetID string, comments []models.Comment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[targetKind+"#"+targetID] = append([]models.Comment(nil), comments...)
}

// SeedActivity installs a user's historical activity, newest first.
func (s *Server) SeedActivity(userID string, events []models.ActivityEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity[userID] = append([]models.ActivityEvent(nil), events...)
}

// SeedReaction installs an existing reaction edge.
func (s *Server) SeedReaction(edge models.ReactionEdge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions[edge.ID] = edge
}

// IsFollowing reports the store-side state of a follow edge.
func (s *Server) IsFollowing(followerID, followeeID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.followers[followeeID][followerID]
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("❌ Websocket upgrade failed")
		return
	}
	log.Info().Str("remote", ws.RemoteAddr().String()).Msg("✅ Push client connected")

	s.mu.Lock()
	s.conns[ws] = true
	s.mu.Unlock()

	// Drain until the peer goes away.
	go func() {
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}
		s.mu.Lock()
		delete(s.conns, ws)
		s.mu.Unlock()
		ws.Close()
		log.Info().Msg("❌ Push client disconnected")
	}()
}

// PushActivity broadcasts one activity payload to every connected push
// client, the way the backend fans out getNotification events.
func (s *Server) PushActivity(payload map[string]interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("❌ Failed to marshal push payload")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for ws := range s.conns {
		if err := ws.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Warn().Err(err).Msg("⚠️ Push write failed, dropping connection")
			delete(s.conns, ws)
			ws.Close()
		}
	}
}

// ConnectionCount reports how many push clients are attached.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conns)
}
