package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/underkeep/internal/agents"
	"github.com/talgya/underkeep/internal/economy"
	"github.com/talgya/underkeep/internal/engine"
	"github.com/talgya/underkeep/internal/jobs"
	"github.com/talgya/underkeep/internal/persistence"
	"github.com/talgya/underkeep/internal/world"
)

const testKey = "secret"

func newTestServer(t *testing.T, withDB bool) *Server {
	t.Helper()
	g := world.MustFromRows(
		"^^^^^^^^",
		"^##o##^^",
		"^#+H+.#^",
		"^######^",
		"^^^^^^^^",
	)
	s := &Server{
		Colony:   engine.NewFromGrid(g, 1),
		Eng:      engine.NewEngine(),
		AdminKey: testKey,
	}
	if withDB {
		db, err := persistence.Open(filepath.Join(t.TempDir(), "api.db"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		s.DB = db
	}
	return s
}

// do sends a request through the full handler. body may be nil.
func do(t *testing.T, h http.Handler, method, path string, body any, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestStatus(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s.Handler(), http.MethodGet, "/api/v1/status", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)

	st := decode[map[string]any](t, rec)
	assert.EqualValues(t, 0, st["tick"])
	assert.Equal(t, false, st["paused"])
	assert.EqualValues(t, 1, st["speed"])
}

func TestAdminAuth(t *testing.T) {
	s := newTestServer(t, false)
	h := s.Handler()

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodPost, "/api/v1/pause", nil, false).Code)

	rec := do(t, h, http.MethodPost, "/api/v1/pause", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]bool{"paused": true}, decode[map[string]bool](t, rec))
	assert.True(t, s.Colony.Paused())

	rec = do(t, h, http.MethodPost, "/api/v1/pause", map[string]bool{"paused": true}, true)
	assert.Equal(t, map[string]bool{"paused": true}, decode[map[string]bool](t, rec))

	s.AdminKey = ""
	assert.Equal(t, http.StatusForbidden, do(t, s.Handler(), http.MethodPost, "/api/v1/pause", nil, true).Code)
}

func TestTagAndTile(t *testing.T) {
	s := newTestServer(t, false)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/tag", map[string]int{"x1": 1, "y1": 1, "x2": 6, "y2": 1}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 5, decode[map[string]any](t, rec)["changed"])

	rec = do(t, h, http.MethodGet, "/api/v1/tile?x=3&y=1", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	tv := decode[engine.TileView](t, rec)
	assert.True(t, tv.Tagged)
	assert.Equal(t, "gold_vein", tv.Kind)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/tile?x=30&y=1", nil, false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/tile?x=3", nil, false).Code)

	rec = do(t, h, http.MethodPost, "/api/v1/tag",
		map[string]any{"x1": 1, "y1": 1, "x2": 2, "y2": 1, "tag": false}, true)
	assert.EqualValues(t, 2, decode[map[string]any](t, rec)["changed"])
}

func TestJobs(t *testing.T) {
	s := newTestServer(t, false)
	h := s.Handler()

	type jobsResponse struct {
		Pending int              `json:"pending"`
		Open    []jobs.Candidate `json:"open"`
	}
	rec := do(t, h, http.MethodGet, "/api/v1/jobs", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[jobsResponse](t, rec).Open)

	do(t, h, http.MethodPost, "/api/v1/tag", map[string]int{"x1": 1, "y1": 1, "x2": 6, "y2": 1}, true)

	rec = do(t, h, http.MethodGet, "/api/v1/jobs", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[jobsResponse](t, rec)
	assert.Equal(t, 5, res.Pending)
	require.Len(t, res.Open, 5)
	assert.Equal(t, world.Cell{X: 3, Y: 1}, res.Open[0].Pos)
	assert.True(t, res.Open[0].Gold)
	assert.Equal(t, 1, res.Open[1].Dist)

	rec = do(t, h, http.MethodGet, "/api/v1/jobs?x=5&y=2&limit=2", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	res = decode[jobsResponse](t, rec)
	require.Len(t, res.Open, 2)
	assert.Equal(t, world.Cell{X: 3, Y: 1}, res.Open[0].Pos)
	assert.Equal(t, world.Cell{X: 4, Y: 1}, res.Open[1].Pos)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/jobs?x=30&y=1", nil, false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/jobs?x=3", nil, false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/jobs?limit=0", nil, false).Code)
}

func TestDrag(t *testing.T) {
	s := newTestServer(t, false)
	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/drag", map[string]int{"x1": 1, "y1": 3, "x2": 6, "y2": 3}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[engine.DragResult](t, rec)
	assert.True(t, res.Tagging)
	assert.Equal(t, 6, res.Tagged)
}

func TestViewport(t *testing.T) {
	s := newTestServer(t, false)
	h := s.Handler()

	vp := decode[engine.Viewport](t, do(t, h, http.MethodGet, "/api/v1/viewport", nil, false))
	assert.Equal(t, 8, vp.Width)
	assert.Len(t, vp.Tiles, 8*5)

	vp = decode[engine.Viewport](t, do(t, h, http.MethodGet, "/api/v1/viewport?x1=2&y1=2&x2=4&y2=2", nil, false))
	require.Len(t, vp.Tiles, 3)
	assert.Equal(t, "H", vp.Tiles[1].Glyph)

	assert.Equal(t, http.StatusBadRequest,
		do(t, h, http.MethodGet, "/api/v1/viewport?x1=2&y1=nope&x2=4&y2=2", nil, false).Code)

	m := decode[map[string]any](t, do(t, h, http.MethodGet, "/api/v1/map", nil, false))
	assert.Len(t, m["rows"], 5)
}

func TestCreatures(t *testing.T) {
	s := newTestServer(t, false)
	h := s.Handler()
	w, err := s.Colony.Spawn(agents.KindWorker, world.Cell{X: 2, Y: 2})
	require.NoError(t, err)
	_, err = s.Colony.Spawn(agents.KindGuard, world.Cell{X: 5, Y: 2})
	require.NoError(t, err)

	all := decode[[]engine.CreatureView](t, do(t, h, http.MethodGet, "/api/v1/creatures", nil, false))
	assert.Len(t, all, 2)
	guards := decode[[]engine.CreatureView](t, do(t, h, http.MethodGet, "/api/v1/creatures?kind=guard", nil, false))
	require.Len(t, guards, 1)
	assert.Equal(t, agents.KindGuard, guards[0].Kind)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/creatures?kind=dragon", nil, false).Code)

	rec := do(t, h, http.MethodGet, "/api/v1/creature/"+strconv.FormatUint(uint64(w.ID), 10), nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, w.Name, decode[engine.CreatureView](t, rec).Name)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/v1/creature/999", nil, false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/creature/abc", nil, false).Code)

	rec = do(t, h, http.MethodPost, "/api/v1/select", world.Cell{X: 2, Y: 2}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	sel := decode[map[string]engine.CreatureView](t, do(t, h, http.MethodGet, "/api/v1/selected", nil, false))
	assert.Equal(t, w.ID, sel["selected"].ID)

	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodPost, "/api/v1/clear", nil, true).Code)
	_, ok := s.Colony.Selected()
	assert.False(t, ok)
}

func TestRooms(t *testing.T) {
	s := newTestServer(t, false)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/room/select", map[string]string{"room": "lairr"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `did you mean "lair"`)

	rec = do(t, h, http.MethodPost, "/api/v1/room/select", map[string]string{"room": "Lair"}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "lair", decode[map[string]any](t, rec)["room"])

	// The heart is empty, so nothing can be bought.
	rec = do(t, h, http.MethodPost, "/api/v1/room/assign",
		map[string]any{"room": "lair", "x1": 2, "y1": 2, "x2": 2, "y2": 2}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["purchased"])

	rec = do(t, h, http.MethodPost, "/api/v1/room/assign", map[string]any{"room": "none"}, true)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPanAndSpeed(t *testing.T) {
	s := newTestServer(t, false)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/pan", map[string]int{"dx": 5, "dy": 5}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, world.Cell{}, decode[map[string]world.Cell](t, rec)["view"], "view already spans the grid")

	rec = do(t, h, http.MethodPost, "/api/v1/speed", map[string]float64{"speed": 4}, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4.0, s.Eng.Speed())
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/v1/speed", map[string]float64{"speed": -1}, true).Code)
	assert.Equal(t, map[string]float64{"speed": 4}, decode[map[string]float64](t, do(t, h, http.MethodGet, "/api/v1/speed", nil, false)))
}

func TestEvents(t *testing.T) {
	s := newTestServer(t, false)
	h := s.Handler()
	_, ok := s.Colony.AssignRoom(world.Cell{X: 2, Y: 2}, world.Cell{X: 2, Y: 2}, economy.RoomLair)
	require.False(t, ok)

	events := decode[[]engine.Event](t, do(t, h, http.MethodGet, "/api/v1/events", nil, false))
	assert.NotEmpty(t, events)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/events?since=x", nil, false).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodGet, "/api/v1/events?limit=0", nil, false).Code)

	audit := decode[map[string]any](t, do(t, h, http.MethodGet, "/api/v1/audit", nil, false))
	assert.Equal(t, true, audit["ok"])
}

func TestSaveAndLoad(t *testing.T) {
	s := newTestServer(t, true)
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/api/v1/save", map[string]string{"name": "Slot One"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "slot_one", decode[persistence.SaveInfo](t, rec).Name)
	assert.Equal(t, http.StatusBadRequest,
		do(t, h, http.MethodPost, "/api/v1/save", map[string]string{"name": "??"}, true).Code)

	saves := decode[[]persistence.SaveInfo](t, do(t, h, http.MethodGet, "/api/v1/saves", nil, false))
	require.Len(t, saves, 1)

	s.Colony.TagRegion(world.Cell{X: 1, Y: 1}, world.Cell{X: 5, Y: 1}, true)
	tv, _ := s.Colony.Tile(world.Cell{X: 1, Y: 1})
	require.True(t, tv.Tagged)

	rec = do(t, h, http.MethodPost, "/api/v1/load", map[string]string{"name": "slot_one"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tv, _ = s.Colony.Tile(world.Cell{X: 1, Y: 1})
	assert.False(t, tv.Tagged)
	assert.True(t, s.Colony.Paused(), "loaded games start paused")

	rec = do(t, h, http.MethodPost, "/api/v1/load", map[string]string{"name": ""}, true)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound,
		do(t, h, http.MethodPost, "/api/v1/load", map[string]string{"name": "missing"}, true).Code)
}

func TestSaves_Disabled(t *testing.T) {
	s := newTestServer(t, false)
	h := s.Handler()
	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodGet, "/api/v1/saves", nil, false).Code)
	assert.Equal(t, http.StatusServiceUnavailable,
		do(t, h, http.MethodPost, "/api/v1/save", map[string]string{"name": "a"}, true).Code)
}

func TestLoad_NoSaves(t *testing.T) {
	s := newTestServer(t, true)
	rec := do(t, s.Handler(), http.MethodPost, "/api/v1/load", map[string]string{"name": ""}, true)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/status", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStream(t *testing.T) {
	s := newTestServer(t, false)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/stream?tiles=1"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var hello streamMessage
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)
	require.NotNil(t, hello.Viewport)
	assert.Len(t, hello.Viewport.Tiles, 8*5)

	s.Colony.Tick()

	var frame streamMessage
	require.NoError(t, conn.ReadJSON(&frame))
	assert.Equal(t, "frame", frame.Type)
	assert.Equal(t, uint64(1), frame.Tick)
	assert.Equal(t, uint64(1), frame.Status.Tick)
}
