// State export and restore: the complete, serializable colony.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/underkeep/internal/agents"
	"github.com/talgya/underkeep/internal/economy"
	"github.com/talgya/underkeep/internal/jobs"
	"github.com/talgya/underkeep/internal/world"
)

// StateVersion is bumped whenever State changes shape.
const StateVersion = 1

// State is everything needed to rebuild a colony exactly.
type State struct {
	Version int    `json:"version"`
	Tick    uint64 `json:"tick"`
	Seed    int64  `json:"seed"`

	Width  int          `json:"width"`
	Height int          `json:"height"`
	Heart  world.Cell   `json:"heart"`
	Portal world.Cell   `json:"portal"`
	TagSeq uint64       `json:"tag_seq"`
	Tiles  []world.Tile `json:"tiles"`

	Creatures []*agents.Creature `json:"creatures"`
	Beds      []agents.BedEntry  `json:"beds"`
	NextID    agents.CreatureID  `json:"next_id"`

	Ledger   economy.Ledger    `json:"ledger"`
	Baseline int               `json:"baseline"`
	View     world.Cell        `json:"view"`
	Paused   bool              `json:"paused"`
	Room     economy.Room      `json:"room"`
	Selected agents.CreatureID `json:"selected,omitempty"`
	Events   []Event           `json:"events,omitempty"`
}

// Export returns a deep copy of the colony state.
func (c *Colony) Export() State {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := State{
		Version:  StateVersion,
		Tick:     c.tick,
		Seed:     c.seed,
		Width:    c.grid.Width,
		Height:   c.grid.Height,
		Heart:    c.grid.Heart,
		Portal:   c.grid.Portal,
		TagSeq:   c.grid.TagSeq(),
		Tiles:    c.grid.Tiles(),
		Beds:     c.beds.Entries(),
		NextID:   c.spawner.NextID(),
		Ledger:   *c.ledger,
		Baseline: c.baseline,
		View:     c.view,
		Paused:   c.paused,
		Room:     c.room,
		Selected: c.selected,
		Events:   append([]Event(nil), c.events...),
	}
	for _, cr := range c.roster.All() {
		st.Creatures = append(st.Creatures, cloneCreature(cr))
	}
	return st
}

func cloneCreature(c *agents.Creature) *agents.Creature {
	out := *c
	if c.Target != nil {
		t := *c.Target
		out.Target = &t
	}
	if c.Worker != nil {
		w := *c.Worker
		out.Worker = &w
	}
	if c.Guard != nil {
		g := *c.Guard
		if g.Bed != nil {
			b := *g.Bed
			g.Bed = &b
		}
		out.Guard = &g
	}
	return &out
}

// Restore rebuilds a colony from st. The viewport size is taken from the
// grid unless set through opts.
func Restore(st State, opts Options) (*Colony, error) {
	if st.Version != StateVersion {
		return nil, fmt.Errorf("restore: state version %d, want %d", st.Version, StateVersion)
	}
	g, err := world.Restore(st.Width, st.Height, st.Tiles, st.Heart, st.Portal, st.TagSeq)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}

	c := newColony(g, st.Seed, opts.ViewWidth, opts.ViewHeight)
	c.tick = st.Tick
	// The random stream cannot be saved; reseed from the tick so reloads
	// of the same save behave the same.
	c.rng = rand.New(rand.NewSource(st.Seed + 500 + int64(st.Tick)))
	c.spawner = agents.NewSpawner(st.Seed + int64(st.Tick))

	var maxID agents.CreatureID
	for _, saved := range st.Creatures {
		if saved == nil {
			return nil, fmt.Errorf("restore: nil creature")
		}
		cr := cloneCreature(saved)
		if err := cr.Validate(); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
		if !g.InBounds(cr.Pos) {
			return nil, fmt.Errorf("restore: creature %d at %v outside the grid", cr.ID, cr.Pos)
		}
		if cr.Target != nil && !g.InBounds(*cr.Target) {
			return nil, fmt.Errorf("restore: creature %d targets %v outside the grid", cr.ID, *cr.Target)
		}
		if err := c.roster.Add(cr); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
		maxID = max(maxID, cr.ID)
	}
	c.spawner.SetNextID(max(st.NextID, maxID+1))

	beds, err := agents.RestoreBeds(g, c.roster, st.Beds)
	if err != nil {
		return nil, fmt.Errorf("restore: %w", err)
	}
	c.beds = beds

	if st.Ledger.HeartGold < 0 || st.Ledger.HeartGold > economy.HeartCapacity {
		return nil, fmt.Errorf("restore: heart gold %d out of range", st.Ledger.HeartGold)
	}
	ledger := st.Ledger
	c.ledger = &ledger
	c.board = jobs.NewBoard(g)
	c.baseline = st.Baseline
	c.paused = st.Paused
	c.room = st.Room
	if c.roster.Get(st.Selected) != nil {
		c.selected = st.Selected
	}
	c.view = world.Cell{
		X: clamp(st.View.X, 0, g.Width-c.viewW),
		Y: clamp(st.View.Y, 0, g.Height-c.viewH),
	}
	c.events = append([]Event(nil), st.Events...)
	if len(c.events) > maxEvents {
		c.events = c.events[len(c.events)-maxEvents:]
	}
	return c, nil
}

// Replace swaps in the state st, for loading a save. st is rebuilt and
// checked in full first; on error the running colony is left untouched.
// A loaded colony starts paused.
func (c *Colony) Replace(st State) error {
	c.mu.RLock()
	opts := Options{ViewWidth: c.viewW, ViewHeight: c.viewH}
	c.mu.RUnlock()

	fresh, err := Restore(st, opts)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.grid = fresh.grid
	c.ledger = fresh.ledger
	c.board = fresh.board
	c.roster = fresh.roster
	c.beds = fresh.beds
	c.spawner = fresh.spawner
	c.rng = fresh.rng
	c.seed = fresh.seed
	c.tick = fresh.tick
	c.viewW = fresh.viewW
	c.viewH = fresh.viewH
	c.view = fresh.view
	c.room = fresh.room
	c.selected = fresh.selected
	c.baseline = fresh.baseline
	c.events = fresh.events
	c.paused = true
	c.emit("system", fmt.Sprintf("Save loaded at tick %d", c.tick))

	slog.Info("colony state replaced", "tick", c.tick, "creatures", c.roster.Len(), "paused", c.paused)
	return nil
}
