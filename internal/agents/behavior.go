// Creature behavior: desire-driven state machine.
// Every tick each creature scores its desires, may switch activity, and
// then executes exactly one state block.
package agents

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/talgya/underkeep/internal/economy"
	"github.com/talgya/underkeep/internal/jobs"
	"github.com/talgya/underkeep/internal/world"
)

// Behavior tunables.
const (
	HungerPerTick   = 0.5
	EatPerTick      = 5
	RegenPerTick    = 0.1
	LeaveHappiness  = -10 // At or below this a creature walks out
	wanderEvery     = 2   // Idle ticks between wander steps
	claimTicks      = 2
	digRockHP       = 10
	digReinforcedHP = 20
	reinforceHP     = 30
	powerPerLevel   = 10
	veinMinePerTick = 100
)

// Env is everything a creature may read or mutate during its step. The
// colony builds one per tick; nothing in it is kept across ticks.
type Env struct {
	Grid   *world.Grid
	Ledger *economy.Ledger
	Board  *jobs.Board
	Roster *Roster
	Beds   *BedTable
	Rng    *rand.Rand
	Tick   uint64
}

// Result reports what a creature's step produced.
type Result struct {
	Departed bool     // Reached the portal while leaving; remove it
	Events   []string // Notable happenings for the event log
}

func (r *Result) note(format string, args ...any) {
	r.Events = append(r.Events, fmt.Sprintf(format, args...))
}

// Step advances one creature by one tick.
func Step(c *Creature, env *Env) Result {
	var res Result
	before := c.State

	switch {
	case c.State == StateStatic:
		return res
	case c.State == StateLeaving:
		leave(c, env, &res)
		return res
	case c.Health <= 0 || c.State == StateUnconscious:
		regenerate(c, env, &res)
		return res
	}

	switchDesire(c, env)

	if c.Guard != nil {
		c.Guard.Hunger = min(100, c.Guard.Hunger+HungerPerTick)
	}

	execute(c, env, &res)

	if c.Happiness <= LeaveHappiness && c.State != StateLeaving {
		startLeaving(c, env, &res)
		leave(c, env, &res)
	}

	if c.State != before {
		slog.Debug("creature state", "tick", env.Tick, "creature", c.ID, "from", before, "to", c.State)
	}
	return res
}

// regenerate keeps an unconscious creature down until it is back to full
// health.
func regenerate(c *Creature, env *Env, res *Result) {
	if c.State != StateUnconscious {
		c.State = StateUnconscious
		c.WorkTimer = 0
		env.Roster.ClearTarget(c)
		res.note("%s collapses", c.Name)
	}
	full := float64(c.MaxHealth)
	c.Health = min(full, c.Health+RegenPerTick)
	if c.Health >= full {
		c.State = StateIdle
		res.note("%s wakes up", c.Name)
	}
}

// switchDesire turns the winning desire into a state change. Only eating,
// training and wage seeking switch explicitly; work and idle fall through
// to the current state.
func switchDesire(c *Creature, env *Env) {
	switch Best(c) {
	case DesireEat:
		if c.State == StateEating || c.State == StateMovingEat {
			return
		}
		if farm, ok := env.Grid.NearestFarm(c.Pos); ok {
			c.WorkTimer = 0
			env.Roster.SetTarget(c, farm)
			c.State = StateMovingEat
		}
	case DesireTrain:
		if c.State == StateIdle {
			c.State = StateWantTrain
		}
	case DesireSeekWage:
		// Entered only by payday; nothing to switch.
	}
}

// execute runs the single state block for this tick.
func execute(c *Creature, env *Env, res *Result) {
	switch c.State {
	case StateSeekingWage:
		seekWage(c, env, res)
		return
	case StateWantTrain:
		pickDummy(c, env)
	}

	if c.Kind == KindGuard && c.State == StateIdle && c.Guard.Bed == nil {
		if spot, ok := env.Grid.NearestBedSpot(c.Pos); ok {
			env.Roster.SetTarget(c, spot)
			c.State = StateConstructingBed
		}
	}

	switch c.State {
	case StateConstructingBed:
		constructBed(c, env, res)
		return
	case StateTraining:
		train(c, env, res)
		return
	case StateMovingEat:
		moveToFarm(c, env)
		return
	case StateEating:
		eat(c, env)
		return
	}

	if c.Kind == KindWorker {
		work(c, env, res)
		return
	}
	if c.State == StateIdle {
		wander(c, env)
	}
}

func seekWage(c *Creature, env *Env, res *Result) {
	if c.Target == nil {
		env.Roster.SetTarget(c, env.Grid.Heart)
	}
	if world.Chebyshev(c.Pos, *c.Target) <= 1 {
		if env.Ledger.PayWage(c.Wage()) {
			res.note("%s collects %d gold in wages", c.Name, c.Wage())
		} else {
			res.note("%s goes unpaid", c.Name)
		}
		idle(c, env)
		return
	}
	if !moveToward(c, env, *c.Target) {
		idle(c, env)
	}
}

func pickDummy(c *Creature, env *Env) {
	d, ok := env.Roster.NearestDummy(c.Pos)
	if !ok {
		c.State = StateIdle
		return
	}
	env.Roster.SetTarget(c, d.Pos)
	c.State = StateTraining
}

func constructBed(c *Creature, env *Env, res *Result) {
	if c.Target == nil {
		idle(c, env)
		return
	}
	target := *c.Target
	if c.Pos == target {
		if env.Beds.Build(env.Grid, c, target) {
			res.note("%s builds a bed at %d,%d", c.Name, target.X, target.Y)
		}
		idle(c, env)
		return
	}
	if !moveToward(c, env, target) {
		idle(c, env)
	}
}

func train(c *Creature, env *Env, res *Result) {
	if c.Target == nil || c.Level >= trainBelow || !env.Roster.DummyAt(*c.Target) {
		idle(c, env)
		return
	}
	target := *c.Target
	if world.Chebyshev(c.Pos, target) > 1 {
		if !moveToward(c, env, target) {
			idle(c, env)
		}
		return
	}

	grantXP(c, res)
	var moves []world.Cell
	for _, d := range world.Dirs4 {
		n := c.Pos.Add(d)
		if t := env.Grid.Get(n); t != nil && t.Kind == world.KindTraining {
			moves = append(moves, n)
		}
	}
	if len(moves) > 0 {
		c.Pos = moves[env.Rng.Intn(len(moves))]
	}
}

func moveToFarm(c *Creature, env *Env) {
	if c.Target == nil {
		idle(c, env)
		return
	}
	if c.Pos == *c.Target {
		c.State = StateEating
		return
	}
	if !moveToward(c, env, *c.Target) {
		idle(c, env)
	}
}

func eat(c *Creature, env *Env) {
	if c.Guard == nil {
		idle(c, env)
		return
	}
	c.Guard.Hunger -= EatPerTick
	if c.Guard.Hunger <= 0 {
		c.Guard.Hunger = 0
		idle(c, env)
	}
}

func startLeaving(c *Creature, env *Env, res *Result) {
	c.State = StateLeaving
	c.WorkTimer = 0
	env.Roster.SetTarget(c, env.Grid.Portal)
	res.note("%s has had enough and heads for the portal", c.Name)
}

// leave walks a departing creature to the portal. On arrival its bed is
// released and any carried gold is left on the portal tile.
func leave(c *Creature, env *Env, res *Result) {
	portal := env.Grid.Portal
	if c.Pos != portal {
		moveToward(c, env, portal)
		if c.Pos != portal {
			return
		}
	}
	if c.Worker != nil && c.Worker.Gold > 0 {
		env.Grid.Get(portal).GoldValue += c.Worker.Gold
		c.Worker.Gold = 0
	}
	env.Beds.Release(env.Grid, c)
	env.Roster.ClearTarget(c)
	res.Departed = true
	res.note("%s leaves the dungeon", c.Name)
}

func grantXP(c *Creature, res *Result) {
	if c.GainXP(1) > 0 {
		res.note("%s reaches level %d", c.Name, c.Level)
	}
}

// moveToward takes one step toward target. It returns false when no path
// was found within the search budget.
func moveToward(c *Creature, env *Env, target world.Cell) bool {
	next, ok := env.Grid.Step(c.Pos, target)
	if !ok {
		return false
	}
	c.Pos = next
	return true
}

// wander takes a random orthogonal step every few idle ticks.
func wander(c *Creature, env *Env) {
	c.IdleTimer++
	if c.IdleTimer < wanderEvery {
		return
	}
	c.IdleTimer = 0
	randomStep(c, env)
}

func randomStep(c *Creature, env *Env) {
	var open []world.Cell
	for _, d := range world.Dirs4 {
		n := c.Pos.Add(d)
		if t := env.Grid.Get(n); t != nil && t.Walkable() {
			open = append(open, n)
		}
	}
	if len(open) > 0 {
		c.Pos = open[env.Rng.Intn(len(open))]
	}
}

// idle drops the current target and activity.
func idle(c *Creature, env *Env) {
	env.Roster.ClearTarget(c)
	c.State = StateIdle
	c.WorkTimer = 0
}
