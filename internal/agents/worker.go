// Worker behavior: job search and the dig, reinforce, claim and haul
// cycle.
package agents

import (
	"github.com/talgya/underkeep/internal/jobs"
	"github.com/talgya/underkeep/internal/world"
)

func work(c *Creature, env *Env, res *Result) {
	checkTarget(c, env)

	if c.State == StateIdle {
		findJob(c, env)
	}

	switch c.State {
	case StateReturningGold:
		returnGold(c, env, res)
	case StateMovingPickup:
		pickup(c, env)
	case StateMovingDig, StateMovingReinforce, StateMovingClaim:
		approach(c, env)
	case StateDigging:
		dig(c, env, res)
	case StateReinforcing:
		reinforce(c, env, res)
	case StateClaiming:
		claim(c, env, res)
	case StateIdle:
		wander(c, env)
	}
}

// checkTarget abandons work whose tile changed under the worker. Movement
// and hauling are allowed to finish.
func checkTarget(c *Creature, env *Env) {
	var valid bool
	switch c.State {
	case StateDigging:
		valid = c.Target != nil && env.Grid.Get(*c.Target).Tagged
	case StateReinforcing:
		valid = c.Target != nil && env.Grid.IsReinforceable(*c.Target)
	case StateClaiming:
		if c.Target != nil {
			t := env.Grid.Get(*c.Target)
			valid = !t.Claimed && !t.IsSolid()
		}
	default:
		return
	}
	if !valid {
		idle(c, env)
	}
}

// findJob picks the next job for an idle worker, in strict priority order:
// haul a full load, pick up loose gold, dig the priority job, claim floor,
// reinforce a wall.
func findJob(c *Creature, env *Env) {
	if c.Worker.Gold >= CarryCapacity {
		c.State = StateReturningGold
		return
	}

	atCap := env.Roster.AtCapacity(jobs.MaxAssignees)

	if hasGoldSink(c, env) {
		if pile, ok := env.Grid.NearestLooseGold(c.Pos, atCap); ok {
			env.Roster.SetTarget(c, pile)
			c.State = StateMovingPickup
			return
		}
	}

	if job, ok := env.Board.PriorityJob(c.Pos, env.Roster, nil); ok {
		env.Roster.SetTarget(c, job)
		c.State = StateMovingDig
		return
	}

	taken := env.Roster.ClaimTargets(c.ID)
	skip := func(cell world.Cell) bool { return taken.Has(cell) || atCap(cell) }
	if floor, ok := env.Grid.NearestUnclaimed(c.Pos, skip); ok {
		env.Roster.SetTarget(c, floor)
		c.State = StateMovingClaim
		return
	}

	if wall, ok := env.Grid.NearestReinforceable(c.Pos, atCap); ok {
		env.Roster.SetTarget(c, wall)
		c.State = StateMovingReinforce
	}
}

// hasGoldSink reports whether picked-up gold could be stored anywhere.
// Without one a worker would only shuttle the same pile back and forth.
func hasGoldSink(c *Creature, env *Env) bool {
	if env.Ledger.HeartSpace() > 0 {
		return true
	}
	_, ok := env.Grid.NearestTreasurySpace(c.Pos)
	return ok
}

// returnGold hauls carried gold to the heart, then to treasuries. With
// both full the load is dropped on the floor underfoot.
func returnGold(c *Creature, env *Env, res *Result) {
	w := c.Worker
	if w.Gold <= 0 {
		idle(c, env)
		return
	}

	if c.Target == nil {
		if env.Ledger.HeartSpace() > 0 {
			env.Roster.SetTarget(c, env.Grid.Heart)
		} else if spot, ok := env.Grid.NearestTreasurySpace(c.Pos); ok {
			env.Roster.SetTarget(c, spot)
		} else {
			here := env.Grid.Get(c.Pos)
			if here.Kind.HoldsLooseGold() {
				here.GoldValue += w.Gold
				env.Grid.SetKind(c.Pos, world.KindLooseGold)
				res.note("%s drops %d gold, storage is full", c.Name, w.Gold)
				w.Gold = 0
				idle(c, env)
				return
			}
			randomStep(c, env)
			return
		}
	}

	target := *c.Target
	dest := env.Grid.Get(target)
	ready := c.Pos == target
	if dest.Kind == world.KindHeart {
		ready = world.Chebyshev(c.Pos, target) <= 1
	}

	if !ready {
		if !moveToward(c, env, target) {
			env.Roster.ClearTarget(c)
		}
		return
	}

	deposit := 0
	switch dest.Kind {
	case world.KindHeart:
		deposit = env.Ledger.DepositHeart(w.Gold)
	case world.KindTreasury:
		deposit = min(w.Gold, world.TreasuryCapacity-dest.GoldStored)
		dest.GoldStored += deposit
	}
	w.Gold -= deposit

	if w.Gold == 0 {
		idle(c, env)
		return
	}
	// Destination filled up; choose again next tick.
	env.Roster.ClearTarget(c)
}

// pickup collects loose gold once the worker stands on the pile.
func pickup(c *Creature, env *Env) {
	if c.Target == nil {
		idle(c, env)
		return
	}
	target := *c.Target
	if c.Pos != target {
		if !moveToward(c, env, target) {
			idle(c, env)
		}
		return
	}

	t := env.Grid.Get(target)
	take := min(t.GoldValue, CarryCapacity-c.Worker.Gold)
	if take > 0 {
		c.Worker.Gold += take
		t.GoldValue -= take
		if t.GoldValue == 0 && t.Kind == world.KindLooseGold {
			env.Grid.SetKind(target, world.KindFloor)
		}
	}
	idle(c, env)
}

// approach moves toward a dig, reinforce or claim target. Claiming needs
// the worker on the tile; the others start from any adjacent cell.
func approach(c *Creature, env *Env) {
	if c.Target == nil {
		idle(c, env)
		return
	}
	target := *c.Target
	d := world.Chebyshev(c.Pos, target)

	switch {
	case c.State == StateMovingClaim && d == 0:
		c.State = StateClaiming
		c.WorkTimer = 0
		return
	case c.State == StateMovingDig && d <= 1:
		c.State = StateDigging
		c.WorkTimer = 0
		return
	case c.State == StateMovingReinforce && d <= 1:
		c.State = StateReinforcing
		c.WorkTimer = 0
		return
	}

	if !moveToward(c, env, target) {
		idle(c, env)
	}
}

func power(c *Creature) int {
	return powerPerLevel * c.Level
}

func dig(c *Creature, env *Env, res *Result) {
	target := *c.Target
	t := env.Grid.Get(target)

	switch t.Kind {
	case world.KindGoldVein:
		mine(c, env, res)
		return
	case world.KindReinforced:
		chip(c, env, res, target, digReinforcedHP)
	case world.KindRock:
		chip(c, env, res, target, digRockHP)
	default:
		idle(c, env)
	}
}

// chip wears down a rock or reinforced wall and opens it to floor once
// progress reaches hp.
func chip(c *Creature, env *Env, res *Result, target world.Cell, hp int) {
	t := env.Grid.Get(target)
	t.Progress += power(c)
	grantXP(c, res)
	if t.Progress >= hp {
		t.Progress = 0
		env.Grid.SetKind(target, world.KindFloor)
		idle(c, env)
	}
}

// mine takes gold out of a vein. Whatever the worker cannot carry stays on
// the tile and falls as a loose pile when the vein runs out. Mining gold
// earns no xp.
func mine(c *Creature, env *Env, res *Result) {
	target := *c.Target
	t := env.Grid.Get(target)
	w := c.Worker

	mined := min(veinMinePerTick, t.GoldValue)
	t.GoldValue -= mined
	carried := min(mined, CarryCapacity-w.Gold)
	w.Gold += carried
	t.GoldStored += mined - carried

	if t.GoldValue > 0 {
		return
	}

	pile := t.GoldStored
	t.GoldStored = 0
	t.GoldValue = pile
	t.Progress = 0
	if pile > 0 {
		env.Grid.SetKind(target, world.KindLooseGold)
	} else {
		env.Grid.SetKind(target, world.KindFloor)
	}
	res.note("%s mines out the vein at %d,%d", c.Name, target.X, target.Y)
	idle(c, env)
	if w.Gold >= CarryCapacity {
		c.State = StateReturningGold
	}
}

func reinforce(c *Creature, env *Env, res *Result) {
	target := *c.Target
	t := env.Grid.Get(target)
	t.Progress += power(c)
	grantXP(c, res)
	if t.Progress >= reinforceHP {
		t.Progress = 0
		env.Grid.SetKind(target, world.KindReinforced)
		res.note("%s reinforces the wall at %d,%d", c.Name, target.X, target.Y)
		idle(c, env)
	}
}

func claim(c *Creature, env *Env, res *Result) {
	target := *c.Target
	c.WorkTimer++
	if c.WorkTimer < claimTicks {
		return
	}
	if env.Grid.IsContiguousClaim(target) && env.Grid.Claim(target) {
		grantXP(c, res)
	}
	idle(c, env)
}
