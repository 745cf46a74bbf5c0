// Package api provides the HTTP API for observing and commanding the colony.
// GET endpoints are public (read-only observation).
// POST endpoints require a bearer token (admin control plane).
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/underkeep/internal/agents"
	"github.com/talgya/underkeep/internal/engine"
	"github.com/talgya/underkeep/internal/persistence"
	"github.com/talgya/underkeep/internal/world"
)

const (
	maxStreamConns = 8
	defaultEvents  = 100
	maxEventsLimit = 1000
)

// Server serves the colony over HTTP.
type Server struct {
	Colony   *engine.Colony
	Eng      *engine.Engine
	DB       *persistence.DB // Nil disables save slots
	Port     int
	AdminKey string // Bearer token for POST endpoints. Empty = POST disabled.

	streamConns atomic.Int32
	upgrader    websocket.Upgrader
}

// Handler builds the routing table.
func (s *Server) Handler() http.Handler {
	// Saves hit the disk; keep clients from hammering them.
	saveLimiter := NewRateLimiter(30, time.Minute)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}

	mux := http.NewServeMux()

	// Public endpoints.
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/map", s.handleMap)
	mux.HandleFunc("GET /api/v1/viewport", s.handleViewport)
	mux.HandleFunc("GET /api/v1/tile", s.handleTile)
	mux.HandleFunc("GET /api/v1/creatures", s.handleCreatures)
	mux.HandleFunc("GET /api/v1/creature/{id}", s.handleCreature)
	mux.HandleFunc("GET /api/v1/selected", s.handleSelected)
	mux.HandleFunc("GET /api/v1/events", s.handleEvents)
	mux.HandleFunc("GET /api/v1/jobs", s.handleJobs)
	mux.HandleFunc("GET /api/v1/audit", s.handleAudit)
	mux.HandleFunc("GET /api/v1/speed", s.handleSpeed)
	mux.HandleFunc("GET /api/v1/saves", s.handleSaves)
	mux.HandleFunc("GET /api/v1/stream", s.handleStream)

	// Admin endpoints.
	mux.HandleFunc("POST /api/v1/tag", s.adminOnly(s.handleTag))
	mux.HandleFunc("POST /api/v1/drag", s.adminOnly(s.handleDrag))
	mux.HandleFunc("POST /api/v1/room/select", s.adminOnly(s.handleSelectRoom))
	mux.HandleFunc("POST /api/v1/room/assign", s.adminOnly(s.handleAssignRoom))
	mux.HandleFunc("POST /api/v1/pause", s.adminOnly(s.handlePause))
	mux.HandleFunc("POST /api/v1/pan", s.adminOnly(s.handlePan))
	mux.HandleFunc("POST /api/v1/select", s.adminOnly(s.handleSelect))
	mux.HandleFunc("POST /api/v1/clear", s.adminOnly(s.handleClear))
	mux.HandleFunc("POST /api/v1/speed", s.adminOnly(s.handleSpeed))
	mux.HandleFunc("POST /api/v1/save", s.adminOnly(RateLimitMiddleware(saveLimiter, s.handleSave)))
	mux.HandleFunc("POST /api/v1/load", s.adminOnly(RateLimitMiddleware(saveLimiter, s.handleLoad)))

	return corsMiddleware(mux)
}

// Start begins serving the HTTP API in a goroutine. The returned server is
// for shutdown.
func (s *Server) Start() *http.Server {
	addr := fmt.Sprintf(":%d", s.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	slog.Info("HTTP API starting", "addr", addr, "admin_auth", s.AdminKey != "", "saves", s.DB != nil)

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
		}
	}()
	return srv
}

// Shutdown stops srv, waiting up to timeout for open requests.
func Shutdown(srv *http.Server, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Warn("HTTP shutdown", "error", err)
	}
}

// corsMiddleware adds CORS headers for allowed frontend origins.
// Set CORS_ORIGINS env var to a comma-separated list of allowed origins.
// Localhost dev servers are always allowed.
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) checkBearerToken(r *http.Request) bool {
	auth := r.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Bearer ") && strings.TrimPrefix(auth, "Bearer ") == s.AdminKey
}

// adminOnly wraps a handler with bearer-token authentication.
func (s *Server) adminOnly(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.AdminKey == "" {
			http.Error(w, "admin endpoints disabled (no admin key set)", http.StatusForbidden)
			return
		}
		if !s.checkBearerToken(r) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// statusResponse adds clock state to the colony aggregates.
type statusResponse struct {
	engine.Status
	Speed   float64 `json:"speed"`
	Running bool    `json:"running"`
}

func (s *Server) status() statusResponse {
	resp := statusResponse{Status: s.Colony.Status()}
	if s.Eng != nil {
		resp.Speed = s.Eng.Speed()
		resp.Running = s.Eng.Running()
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.status())
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"tick": s.Colony.CurrentTick(),
		"rows": s.Colony.MapRows(),
	})
}

// handleViewport returns the current view, or the region given by
// x1,y1,x2,y2.
func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if !q.Has("x1") {
		writeJSON(w, s.Colony.Viewport())
		return
	}
	var rect rectRequest
	var err error
	for _, f := range []struct {
		key string
		dst *int
	}{{"x1", &rect.X1}, {"y1", &rect.Y1}, {"x2", &rect.X2}, {"y2", &rect.Y2}} {
		if *f.dst, err = strconv.Atoi(q.Get(f.key)); err != nil {
			http.Error(w, "invalid "+f.key, http.StatusBadRequest)
			return
		}
	}
	a, b := rect.corners()
	writeJSON(w, s.Colony.Region(a, b))
}

func (s *Server) handleTile(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.URL.Query().Get("x"))
	y, errY := strconv.Atoi(r.URL.Query().Get("y"))
	if errX != nil || errY != nil {
		http.Error(w, "x and y required", http.StatusBadRequest)
		return
	}
	tv, ok := s.Colony.Tile(world.Cell{X: x, Y: y})
	if !ok {
		http.Error(w, "tile out of bounds", http.StatusNotFound)
		return
	}
	writeJSON(w, tv)
}

// handleCreatures lists creatures, optionally filtered by ?kind=.
func (s *Server) handleCreatures(w http.ResponseWriter, r *http.Request) {
	all := s.Colony.Creatures()
	name := r.URL.Query().Get("kind")
	if name == "" {
		writeJSON(w, all)
		return
	}
	var kind agents.Kind
	if err := kind.UnmarshalText([]byte(name)); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out := make([]engine.CreatureView, 0, len(all))
	for _, c := range all {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	writeJSON(w, out)
}

func (s *Server) handleCreature(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid creature id", http.StatusBadRequest)
		return
	}
	v, ok := s.Colony.Creature(agents.CreatureID(id))
	if !ok {
		http.Error(w, "creature not found", http.StatusNotFound)
		return
	}
	writeJSON(w, v)
}

func (s *Server) handleSelected(w http.ResponseWriter, r *http.Request) {
	v, ok := s.Colony.Selected()
	if !ok {
		writeJSON(w, map[string]any{"selected": nil})
		return
	}
	writeJSON(w, map[string]any{"selected": v})
}

// handleEvents returns events after ?since= (a tick), newest ?limit= of them.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var since uint64
	if v := q.Get("since"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			http.Error(w, "invalid since", http.StatusBadRequest)
			return
		}
		since = n
	}
	limit := defaultEvents
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxEventsLimit)
	}
	writeJSON(w, s.Colony.Events(since, limit))
}

// handleJobs ranks open dig jobs as seen from ?x=&y=, or from the heart.
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var from *world.Cell
	if q.Has("x") || q.Has("y") {
		x, errX := strconv.Atoi(q.Get("x"))
		y, errY := strconv.Atoi(q.Get("y"))
		if errX != nil || errY != nil {
			http.Error(w, "x and y must both be integers", http.StatusBadRequest)
			return
		}
		from = &world.Cell{X: x, Y: y}
	}
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	list, ok := s.Colony.Jobs(from, limit)
	if !ok {
		http.Error(w, "cell out of bounds", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{
		"pending": s.Colony.Status().Tagged,
		"open":    list,
	})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if err := s.Colony.Audit(); err != nil {
		writeJSON(w, map[string]any{"ok": false, "errors": strings.Split(err.Error(), "\n")})
		return
	}
	writeJSON(w, map[string]any{"ok": true})
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

// readJSON decodes the request body into v, answering 400 on failure.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return false
	}
	return true
}
