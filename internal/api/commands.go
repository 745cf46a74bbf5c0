package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/talgya/underkeep/internal/economy"
	"github.com/talgya/underkeep/internal/engine"
	"github.com/talgya/underkeep/internal/persistence"
	"github.com/talgya/underkeep/internal/world"
)

type rectRequest struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

func (r rectRequest) corners() (world.Cell, world.Cell) {
	return world.Cell{X: r.X1, Y: r.Y1}, world.Cell{X: r.X2, Y: r.Y2}
}

func (s *Server) handleTag(w http.ResponseWriter, r *http.Request) {
	var req struct {
		rectRequest
		Tag *bool `json:"tag"` // Defaults to true
	}
	if !readJSON(w, r, &req) {
		return
	}
	tag := req.Tag == nil || *req.Tag
	a, b := req.corners()
	n := s.Colony.TagRegion(a, b, tag)
	writeJSON(w, map[string]any{"tag": tag, "changed": n})
}

func (s *Server) handleDrag(w http.ResponseWriter, r *http.Request) {
	var req rectRequest
	if !readJSON(w, r, &req) {
		return
	}
	writeJSON(w, s.Colony.Drag(req.corners()))
}

func (s *Server) handleSelectRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Room string `json:"room"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	room, err := economy.ParseRoom(req.Room)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.Colony.SelectRoom(room)
	writeJSON(w, map[string]any{"room": room, "cost_per_tile": room.Cost()})
}

func (s *Server) handleAssignRoom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		rectRequest
		Room string `json:"room"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	room, err := economy.ParseRoom(req.Room)
	if err != nil || room == economy.RoomNone {
		msg := "room required"
		if err != nil {
			msg = err.Error()
		}
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	a, b := req.corners()
	cost, ok := s.Colony.AssignRoom(a, b, room)
	writeJSON(w, map[string]any{"room": room, "cost": cost, "purchased": ok})
}

// handlePause sets the pause flag, or toggles it when "paused" is omitted.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paused *bool `json:"paused"`
	}
	if r.ContentLength != 0 && !readJSON(w, r, &req) {
		return
	}
	var paused bool
	if req.Paused == nil {
		paused = s.Colony.TogglePause()
	} else {
		s.Colony.SetPaused(*req.Paused)
		paused = *req.Paused
	}
	writeJSON(w, map[string]bool{"paused": paused})
}

func (s *Server) handlePan(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DX int `json:"dx"`
		DY int `json:"dy"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	writeJSON(w, map[string]world.Cell{"view": s.Colony.Pan(req.DX, req.DY)})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req world.Cell
	if !readJSON(w, r, &req) {
		return
	}
	v, ok := s.Colony.SelectAt(req)
	if !ok {
		writeJSON(w, map[string]any{"selected": nil})
		return
	}
	writeJSON(w, map[string]any{"selected": v})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.Colony.ClearSelection()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if s.Eng == nil {
		http.Error(w, "no engine", http.StatusServiceUnavailable)
		return
	}
	if r.Method == http.MethodPost {
		var req struct {
			Speed float64 `json:"speed"`
		}
		if !readJSON(w, r, &req) {
			return
		}
		if req.Speed < 0 || req.Speed > 1000 {
			http.Error(w, "speed must be 0-1000", http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(req.Speed)
		slog.Info("speed changed", "speed", req.Speed)
	}

	writeJSON(w, map[string]float64{"speed": s.Eng.Speed()})
}

func (s *Server) handleSaves(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "saves disabled", http.StatusServiceUnavailable)
		return
	}
	saves, err := s.DB.List()
	if err != nil {
		slog.Error("list saves", "error", err)
		http.Error(w, "list saves failed", http.StatusInternalServerError)
		return
	}
	if saves == nil {
		saves = []persistence.SaveInfo{}
	}
	writeJSON(w, saves)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "saves disabled", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	info, err := s.DB.Save(req.Name, s.Colony.Export())
	if errors.Is(err, persistence.ErrBadName) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("save failed", "name", req.Name, "error", err)
		http.Error(w, "save failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, info)
}

// handleLoad replaces the running colony with a save. An empty name loads
// the newest save. The loaded colony starts paused.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if s.DB == nil {
		http.Error(w, "saves disabled", http.StatusServiceUnavailable)
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	var (
		st   engine.State
		info persistence.SaveInfo
		err  error
	)
	if req.Name == "" {
		st, info, err = s.DB.LoadLatest()
	} else {
		st, info, err = s.DB.Load(req.Name)
	}
	switch {
	case errors.Is(err, persistence.ErrNoSaves), errors.Is(err, persistence.ErrSaveNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, persistence.ErrCorruptSave):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	case err != nil:
		slog.Error("load failed", "name", req.Name, "error", err)
		http.Error(w, "load failed", http.StatusInternalServerError)
		return
	}

	if err := s.Colony.Replace(st); err != nil {
		slog.Warn("save rejected", "name", info.Name, "error", err)
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, map[string]any{"save": info, "status": s.status()})
}
