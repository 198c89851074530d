// Package server provides the HTTP server for the handvol dashboard.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/handvol/internal/dashboard"
	"github.com/ayusman/handvol/internal/server/api"
	"github.com/ayusman/handvol/internal/state"
	"github.com/ayusman/handvol/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	// State is read for snapshots, histories and charts.
	State *state.Store
	// Latest and Hub are dashboard renderers; the stream and live
	// endpoints are only mounted when they are set.
	Latest *dashboard.Latest
	Hub    *Hub
	// Control starts and stops detection sessions.
	Control api.Controller
	// Store enables accounts, token-protected session control and the
	// session history. Without it session control is open.
	Store *store.Store
}

// Server represents the HTTP server for the handvol application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.State == nil {
		config.State = state.NewStore(state.DefaultHistorySize)
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/snapshot", s.handleSnapshot)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/api/metrics/summary", s.handleSummary)
	s.mux.HandleFunc("/api/charts/", s.handleChartPNG)
	s.mux.HandleFunc("/charts", s.handleChartsPage)

	if s.config.Latest != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Latest))
	}
	if s.config.Hub != nil {
		s.mux.Handle("/api/live", s.config.Hub)
	}

	var (
		records api.SessionLister
		protect = func(h http.Handler) http.Handler { return h }
	)
	if s.config.Store != nil {
		users := s.config.Store.Users()
		accounts := api.NewUsersHandler(users)
		s.mux.HandleFunc("/api/register", accounts.Register)
		s.mux.HandleFunc("/api/login", accounts.Login)
		s.mux.Handle("/api/logout", api.RequireToken(users, http.HandlerFunc(accounts.Logout)))

		records = s.config.Store.Sessions()
		protect = func(h http.Handler) http.Handler { return api.RequireToken(users, h) }
	}

	if s.config.Control != nil {
		sessions := api.NewSessionsHandler(s.config.Control, records)
		s.mux.HandleFunc("/api/session", sessions.Status)
		s.mux.Handle("/api/session/start", protect(http.HandlerFunc(sessions.Start)))
		s.mux.Handle("/api/session/stop", protect(http.HandlerFunc(sessions.Stop)))
		s.mux.HandleFunc("/api/sessions", sessions.List)
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if s.config.Control != nil {
		response["running"] = s.config.Control.Status().Running
	}

	writeJSON(w, response)
}

// handleSnapshot handles GET /api/snapshot with the current view,
// histories included.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, dashboard.NewPanel(s.config.State.Load()))
}

// handleHistory handles GET /api/history.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.config.State.Load().Histories)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
