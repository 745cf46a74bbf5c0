// Query API: read-only views for rendering and inspection.
package engine

import (
	"github.com/talgya/underkeep/internal/agents"
	"github.com/talgya/underkeep/internal/economy"
	"github.com/talgya/underkeep/internal/jobs"
	"github.com/talgya/underkeep/internal/world"
)

// TileView is one tile as seen by a renderer.
type TileView struct {
	X       int    `json:"x"`
	Y       int    `json:"y"`
	Kind    string `json:"kind"`
	Glyph   string `json:"glyph"`
	Tagged  bool   `json:"tagged,omitempty"`
	Claimed bool   `json:"claimed,omitempty"`
	Gold    int    `json:"gold,omitempty"`
}

// Viewport is a rectangle of tiles.
type Viewport struct {
	Origin world.Cell `json:"origin"`
	Width  int        `json:"width"`
	Height int        `json:"height"`
	Tiles  []TileView `json:"tiles"` // Row-major
}

// CreatureView is a creature as seen by a renderer.
type CreatureView struct {
	ID        agents.CreatureID `json:"id"`
	Name      string            `json:"name"`
	Kind      agents.Kind       `json:"kind"`
	X         int               `json:"x"`
	Y         int               `json:"y"`
	State     agents.State      `json:"state"`
	Target    *world.Cell       `json:"target,omitempty"`
	Level     int               `json:"level"`
	XP        int               `json:"xp"`
	Health    float64           `json:"health"`
	MaxHealth int               `json:"max_health"`
	Damage    int               `json:"damage"`
	Happiness int               `json:"happiness"`
	Gold      int               `json:"gold"`
	Wage      int               `json:"wage,omitempty"`
	Hunger    float64           `json:"hunger,omitempty"`
	Bed       *world.Cell       `json:"bed,omitempty"`
}

// Status holds the colony aggregates.
type Status struct {
	Tick            uint64             `json:"tick"`
	Seed            int64              `json:"seed"`
	Paused          bool               `json:"paused"`
	Mana            int                `json:"mana"`
	HeartGold       int                `json:"heart_gold"`
	TreasuryGold    int                `json:"treasury_gold"`
	SecuredGold     int                `json:"secured_gold"`
	Spent           int                `json:"spent"`
	PaydayCountdown int                `json:"payday_countdown"`
	Workers         int                `json:"workers"`
	Guards          int                `json:"guards"`
	Dummies         int                `json:"dummies"`
	Beds            int                `json:"beds"`
	Tagged          int                `json:"tagged"`
	Claimed         int                `json:"claimed"`
	View            world.Cell         `json:"view"`
	Room            economy.Room       `json:"room"`
	Selected        *agents.CreatureID `json:"selected,omitempty"`
}

func viewOf(c *agents.Creature) CreatureView {
	v := CreatureView{
		ID:        c.ID,
		Name:      c.Name,
		Kind:      c.Kind,
		X:         c.Pos.X,
		Y:         c.Pos.Y,
		State:     c.State,
		Level:     c.Level,
		XP:        c.XP,
		Health:    c.Health,
		MaxHealth: c.MaxHealth,
		Damage:    c.Damage,
		Happiness: c.Happiness,
		Gold:      c.Carried(),
		Wage:      c.Wage(),
		Hunger:    c.Hunger(),
	}
	if c.Target != nil {
		t := *c.Target
		v.Target = &t
	}
	if c.Guard != nil && c.Guard.Bed != nil {
		b := *c.Guard.Bed
		v.Bed = &b
	}
	return v
}

func tileView(t *world.Tile) TileView {
	glyph := t.Kind.Glyph()
	if t.Kind == world.KindFloor && t.Claimed {
		glyph = '+'
	}
	return TileView{
		X:       t.Pos.X,
		Y:       t.Pos.Y,
		Kind:    t.Kind.String(),
		Glyph:   string(glyph),
		Tagged:  t.Tagged,
		Claimed: t.Claimed,
		Gold:    t.Gold(),
	}
}

// Status returns the colony aggregates.
func (c *Colony) Status() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	treasury := economy.TreasuryTotal(c.grid)
	s := Status{
		Tick:            c.tick,
		Seed:            c.seed,
		Paused:          c.paused,
		Mana:            c.ledger.Mana,
		HeartGold:       c.ledger.HeartGold,
		TreasuryGold:    treasury,
		SecuredGold:     c.ledger.HeartGold + treasury,
		Spent:           c.ledger.Spent,
		PaydayCountdown: c.ledger.PaydayCountdown,
		Workers:         c.roster.CountKind(agents.KindWorker),
		Guards:          c.roster.CountKind(agents.KindGuard),
		Dummies:         c.roster.CountKind(agents.KindDummy),
		Beds:            c.beds.Len(),
		Tagged:          c.board.Pending(),
		Claimed:         c.grid.ClaimedCount(),
		View:            c.view,
		Room:            c.room,
	}
	if c.roster.Get(c.selected) != nil {
		id := c.selected
		s.Selected = &id
	}
	return s
}

// Viewport returns the tiles under the current view origin.
func (c *Colony) Viewport() Viewport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewport(world.Rect{
		Min: c.view,
		Max: world.Cell{X: c.view.X + c.viewW - 1, Y: c.view.Y + c.viewH - 1},
	})
}

// Region returns the tiles of an arbitrary rectangle, clipped to the grid.
func (c *Colony) Region(a, b world.Cell) Viewport {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewport(c.clampRect(a, b))
}

func (c *Colony) viewport(r world.Rect) Viewport {
	vp := Viewport{
		Origin: r.Min,
		Width:  max(0, r.Max.X-r.Min.X+1),
		Height: max(0, r.Max.Y-r.Min.Y+1),
	}
	vp.Tiles = make([]TileView, 0, vp.Width*vp.Height)
	r.Each(func(cell world.Cell) {
		if t := c.grid.Get(cell); t != nil {
			vp.Tiles = append(vp.Tiles, tileView(t))
		}
	})
	return vp
}

// Tile returns a single tile view.
func (c *Colony) Tile(cell world.Cell) (TileView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t := c.grid.Get(cell)
	if t == nil {
		return TileView{}, false
	}
	return tileView(t), true
}

// Creatures returns every creature in processing order.
func (c *Colony) Creatures() []CreatureView {
	c.mu.RLock()
	defer c.mu.RUnlock()
	all := c.roster.All()
	out := make([]CreatureView, len(all))
	for i, cr := range all {
		out[i] = viewOf(cr)
	}
	return out
}

// Creature returns one creature by ID.
func (c *Colony) Creature(id agents.CreatureID) (CreatureView, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cr := c.roster.Get(id)
	if cr == nil {
		return CreatureView{}, false
	}
	return viewOf(cr), true
}

// Jobs returns the open dig jobs a worker standing at from would choose
// between, best first, at most limit (0 = all). Tiles at the density cap
// are left out. from defaults to the heart when nil; false means it lies
// off the grid.
func (c *Colony) Jobs(from *world.Cell, limit int) ([]jobs.Candidate, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	start := c.grid.Heart
	if from != nil {
		start = *from
	}
	if !c.grid.InBounds(start) {
		return nil, false
	}
	out := c.board.Candidates(start, c.roster, nil)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	if out == nil {
		out = []jobs.Candidate{}
	}
	return out, true
}

// Events returns the retained events newer than tick since, oldest first,
// at most limit of the newest (0 = all).
func (c *Colony) Events(since uint64, limit int) []Event {
	c.mu.RLock()
	defer c.mu.RUnlock()

	start := len(c.events)
	for start > 0 && c.events[start-1].Tick > since {
		start--
	}
	if limit > 0 && len(c.events)-start > limit {
		start = len(c.events) - limit
	}
	out := make([]Event, len(c.events)-start)
	copy(out, c.events[start:])
	return out
}

// creatureGlyphs mark creatures drawn over the map.
var creatureGlyphs = map[agents.Kind]byte{
	agents.KindWorker: 'w',
	agents.KindGuard:  'g',
	agents.KindDummy:  'd',
}

// MapRows renders the whole grid as glyph rows with creatures drawn on top.
func (c *Colony) MapRows() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rows := c.grid.Rows()
	buf := make([][]byte, len(rows))
	for i, r := range rows {
		buf[i] = []byte(r)
	}
	for _, cr := range c.roster.All() {
		if c.grid.InBounds(cr.Pos) {
			buf[cr.Pos.Y][cr.Pos.X] = creatureGlyphs[cr.Kind]
		}
	}
	for i := range buf {
		rows[i] = string(buf[i])
	}
	return rows
}
