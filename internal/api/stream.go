package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/talgya/underkeep/internal/engine"
)

const (
	streamCatchUp   = 50
	streamWriteWait = 5 * time.Second
	streamPing      = 15 * time.Second
)

// streamMessage is one websocket message. "hello" carries recent events as
// catch-up; "frame" follows every tick.
type streamMessage struct {
	Type     string           `json:"type"`
	Tick     uint64           `json:"tick"`
	Events   []engine.Event   `json:"events"`
	Status   engine.Status    `json:"status"`
	Viewport *engine.Viewport `json:"viewport,omitempty"`
}

// handleStream pushes a frame per tick over a websocket. ?tiles=1 adds the
// current viewport to each frame.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	current := s.streamConns.Add(1)
	defer s.streamConns.Add(-1)
	if current > maxStreamConns {
		http.Error(w, "too many stream connections", http.StatusServiceUnavailable)
		return
	}
	withTiles := r.URL.Query().Get("tiles") == "1"

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	subID, frames := s.Colony.Subscribe()
	defer s.Colony.Unsubscribe(subID)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reader: only control frames and the close are expected.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	send := func(m streamMessage) bool {
		m.Status = s.Colony.Status()
		if withTiles {
			vp := s.Colony.Viewport()
			m.Viewport = &vp
		}
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		return conn.WriteJSON(m) == nil
	}

	hello := streamMessage{Type: "hello", Tick: s.Colony.CurrentTick(), Events: s.Colony.Events(0, streamCatchUp)}
	if !send(hello) {
		return
	}
	slog.Info("stream client connected", "sub_id", subID)

	ping := time.NewTicker(streamPing)
	defer ping.Stop()

	for {
		select {
		case f, ok := <-frames:
			if !ok {
				return
			}
			if !send(streamMessage{Type: "frame", Tick: f.Tick, Events: f.Events}) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			slog.Info("stream client disconnected", "sub_id", subID)
			return
		}
	}
}
