// Colony ties together the grid, the ledger and the creatures and runs
// them each tick.
package engine

import (
	"fmt"
	"log/slog"
	"math/rand"
	"slices"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/talgya/underkeep/internal/agents"
	"github.com/talgya/underkeep/internal/economy"
	"github.com/talgya/underkeep/internal/jobs"
	"github.com/talgya/underkeep/internal/world"
)

// Colony-level population rules.
const (
	MaxGuards        = 10
	MaxPopulation    = 20
	MinLairTiles     = 10 // Lair and treasury tiles needed before guards arrive
	MinTreasuryTiles = 10
	dummyCheckEvery  = 10 // Payday-counter ticks between dummy scans
	maxEvents        = 1000
	defaultWorkers   = 4
)

// Event is a notable occurrence in the colony.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "creature", "economy", "spawn", "command", "system"
}

// Frame is what subscribers receive after every tick.
type Frame struct {
	Tick   uint64  `json:"tick"`
	Events []Event `json:"events,omitempty"`
}

// Options configures a new colony.
type Options struct {
	Gen        world.GenConfig
	Workers    int // Initial workers placed beside the heart
	ViewWidth  int // Viewport size used for panning
	ViewHeight int
}

// DefaultOptions returns the standard colony setup.
func DefaultOptions() Options {
	return Options{
		Gen:        world.DefaultGenConfig(),
		Workers:    defaultWorkers,
		ViewWidth:  world.DefaultGenConfig().Width,
		ViewHeight: world.DefaultGenConfig().Height,
	}
}

// Colony holds the complete simulation state. All access goes through its
// lock: ticks and commands write, queries read.
type Colony struct {
	mu sync.RWMutex

	grid    *world.Grid
	ledger  *economy.Ledger
	board   *jobs.Board
	roster  *agents.Roster
	beds    *agents.BedTable
	spawner *agents.Spawner
	rng     *rand.Rand

	seed     int64
	tick     uint64
	paused   bool
	view     world.Cell
	viewW    int
	viewH    int
	room     economy.Room
	selected agents.CreatureID // 0 = none
	baseline int               // Gold at creation, for the conservation audit

	events  []Event
	pending []Event // Emitted during the current tick, published after it

	subMu   sync.Mutex
	subs    map[int]chan Frame
	nextSub int
}

// New generates a dungeon and populates it with the initial workers.
func New(opts Options) *Colony {
	if opts.Gen.Seed == 0 {
		opts.Gen.Seed = rand.Int63()
	}
	g := world.Generate(opts.Gen)
	c := newColony(g, opts.Gen.Seed, opts.ViewWidth, opts.ViewHeight)

	for i := 0; i < opts.Workers; i++ {
		pos, ok := c.spawnSpot(g.Heart, i)
		if !ok {
			break
		}
		c.addCreature(agents.KindWorker, pos)
	}

	slog.Info("colony created",
		"seed", c.seed,
		"size", fmt.Sprintf("%dx%d", g.Width, g.Height),
		"veins", g.CountKind(world.KindGoldVein),
		"gold", humanize.Comma(int64(c.baseline)),
		"workers", c.roster.CountKind(agents.KindWorker),
	)
	return c
}

// NewFromGrid wraps an existing grid in an empty colony.
func NewFromGrid(g *world.Grid, seed int64) *Colony {
	return newColony(g, seed, g.Width, g.Height)
}

func newColony(g *world.Grid, seed int64, viewW, viewH int) *Colony {
	c := &Colony{
		grid:    g,
		ledger:  economy.NewLedger(),
		board:   jobs.NewBoard(g),
		roster:  agents.NewRoster(),
		beds:    agents.NewBedTable(),
		spawner: agents.NewSpawner(seed),
		rng:     rand.New(rand.NewSource(seed + 500)),
		seed:    seed,
		viewW:   clampDim(viewW, g.Width),
		viewH:   clampDim(viewH, g.Height),
		subs:    make(map[int]chan Frame),
	}
	c.baseline = c.totalGold()
	return c
}

func clampDim(v, limit int) int {
	if v <= 0 || v > limit {
		return limit
	}
	return v
}

// Spawn places a new creature of the given kind on a walkable tile.
func (c *Colony) Spawn(kind agents.Kind, pos world.Cell) (*agents.Creature, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.grid.Get(pos)
	if t == nil || !t.Walkable() {
		return nil, fmt.Errorf("spawn %s: %d,%d is not walkable", kind, pos.X, pos.Y)
	}
	return c.addCreature(kind, pos), nil
}

func (c *Colony) addCreature(kind agents.Kind, pos world.Cell) *agents.Creature {
	cr := c.spawner.Spawn(kind, pos)
	// IDs come from the spawner and are unique.
	_ = c.roster.Add(cr)
	return cr
}

// spawnSpot picks a walkable neighbour of around, rotating through the
// eight directions so successive spawns spread out.
func (c *Colony) spawnSpot(around world.Cell, i int) (world.Cell, bool) {
	for k := range world.Dirs8 {
		n := around.Add(world.Dirs8[(i+k)%len(world.Dirs8)])
		if t := c.grid.Get(n); t != nil && t.Walkable() {
			return n, true
		}
	}
	return world.Cell{}, false
}

// CurrentTick returns the most recently processed tick number.
func (c *Colony) CurrentTick() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tick
}

// Seed returns the generation seed.
func (c *Colony) Seed() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seed
}

// Tick advances the colony by one step regardless of the pause flag; the
// engine honours pausing.
func (c *Colony) Tick() uint64 {
	c.mu.Lock()
	c.tick++
	tick := c.tick

	c.ledger.AccrueMana(c.grid.ClaimedCount())
	if c.ledger.AdvancePayday() {
		c.payday()
	}
	c.spawnGuard()

	env := &agents.Env{
		Grid:   c.grid,
		Ledger: c.ledger,
		Board:  c.board,
		Roster: c.roster,
		Beds:   c.beds,
		Rng:    c.rng,
		Tick:   tick,
	}
	var departed []*agents.Creature
	for _, cr := range slices.Clone(c.roster.All()) {
		res := agents.Step(cr, env)
		for _, desc := range res.Events {
			c.emit("creature", desc)
		}
		if res.Departed {
			departed = append(departed, cr)
		}
	}
	for _, cr := range departed {
		c.roster.Remove(cr.ID)
		if c.selected == cr.ID {
			c.selected = 0
		}
		slog.Info("creature departed", "tick", tick, "creature", cr.ID, "name", cr.Name, "kind", cr.Kind)
	}

	if c.ledger.PaydayCountdown%dummyCheckEvery == 0 {
		c.spawnDummies()
	}

	frame := Frame{Tick: tick, Events: c.pending}
	c.pending = nil
	c.mu.Unlock()

	c.publish(frame)
	return tick
}

// payday sends every conscious wage earner to the heart.
func (c *Colony) payday() {
	n := 0
	for _, cr := range c.roster.All() {
		if cr.Wage() <= 0 || !cr.Conscious() || cr.State == agents.StateLeaving {
			continue
		}
		c.roster.ClearTarget(cr)
		cr.WorkTimer = 0
		cr.State = agents.StateSeekingWage
		n++
	}
	c.emit("economy", fmt.Sprintf("Payday: %d creatures head for the heart", n))
	slog.Info("payday", "tick", c.tick, "wage_earners", n, "heart_gold", c.ledger.HeartGold)
}

// spawnGuard brings a guard through the portal once the dungeon can house
// and pay one.
func (c *Colony) spawnGuard() {
	if c.ledger.SpawnCooldown > 0 {
		c.ledger.SpawnCooldown--
	}
	if c.ledger.SpawnCooldown > 0 {
		return
	}
	if c.roster.CountKind(agents.KindGuard) >= MaxGuards || c.roster.Len() >= MaxPopulation {
		return
	}
	if c.grid.CountKind(world.KindLair) < MinLairTiles || c.grid.CountKind(world.KindTreasury) < MinTreasuryTiles {
		return
	}
	if !c.grid.HasBedSpot() {
		return
	}

	g := c.addCreature(agents.KindGuard, c.grid.Portal)
	span := economy.GuardCooldownMax - economy.GuardCooldownMin + 1
	c.ledger.SpawnCooldown = economy.GuardCooldownMin + c.rng.Intn(span)

	c.emit("spawn", fmt.Sprintf("%s the guard steps through the portal", g.Name))
	slog.Info("guard spawned", "tick", c.tick, "creature", g.ID, "name", g.Name, "cooldown", c.ledger.SpawnCooldown)
}

// spawnDummies puts a training dummy on the centre of every complete 3×3
// training block that lacks one.
func (c *Colony) spawnDummies() {
	for _, center := range c.grid.TrainingCenters() {
		if c.roster.DummyAt(center) {
			continue
		}
		d := c.addCreature(agents.KindDummy, center)
		c.emit("spawn", fmt.Sprintf("A training dummy appears at %d,%d", center.X, center.Y))
		slog.Info("dummy spawned", "tick", c.tick, "creature", d.ID, "x", center.X, "y", center.Y)
	}
}

// emit records an event. Callers hold the write lock.
func (c *Colony) emit(category, desc string) {
	e := Event{Tick: c.tick, Description: desc, Category: category}
	c.events = append(c.events, e)
	if len(c.events) > maxEvents {
		c.events = slices.Clone(c.events[len(c.events)-maxEvents:])
	}
	c.pending = append(c.pending, e)
}

// Subscribe registers for per-tick frames. Slow subscribers miss frames
// rather than stall the tick.
func (c *Colony) Subscribe() (int, <-chan Frame) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	c.nextSub++
	ch := make(chan Frame, 16)
	c.subs[c.nextSub] = ch
	return c.nextSub, ch
}

// Unsubscribe removes a subscription and closes its channel.
func (c *Colony) Unsubscribe(id int) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if ch, ok := c.subs[id]; ok {
		delete(c.subs, id)
		close(ch)
	}
}

func (c *Colony) publish(f Frame) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- f:
		default:
		}
	}
}

// Report logs a periodic colony summary.
func (c *Colony) Report(tick uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	slog.Info("colony report",
		"tick", tick,
		"workers", c.roster.CountKind(agents.KindWorker),
		"guards", c.roster.CountKind(agents.KindGuard),
		"dummies", c.roster.CountKind(agents.KindDummy),
		"secured_gold", humanize.Comma(int64(c.ledger.SecuredGold(c.grid))),
		"mana", humanize.Comma(int64(c.ledger.Mana)),
		"claimed", c.grid.ClaimedCount(),
		"tagged", c.grid.TaggedCount(),
		"payday_in", c.ledger.PaydayCountdown,
	)
}
