package agents

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"github.com/talgya/underkeep/internal/world"
)

// Roster holds the live creatures in processing order and keeps a count of
// how many creatures target each cell. Targets must be changed through
// SetTarget and ClearTarget so the counts stay exact.
type Roster struct {
	list     []*Creature
	byID     map[CreatureID]*Creature
	assigned map[world.Cell]int
}

// NewRoster creates an empty roster.
func NewRoster() *Roster {
	return &Roster{
		byID:     make(map[CreatureID]*Creature),
		assigned: make(map[world.Cell]int),
	}
}

// Add appends a creature to the end of the processing order.
func (r *Roster) Add(c *Creature) error {
	if _, dup := r.byID[c.ID]; dup {
		return fmt.Errorf("roster: duplicate creature id %d", c.ID)
	}
	r.list = append(r.list, c)
	r.byID[c.ID] = c
	if c.Target != nil {
		r.assigned[*c.Target]++
	}
	return nil
}

// Remove drops a creature and its target assignment.
func (r *Roster) Remove(id CreatureID) {
	c, ok := r.byID[id]
	if !ok {
		return
	}
	r.ClearTarget(c)
	delete(r.byID, id)
	for i, x := range r.list {
		if x.ID == id {
			r.list = append(r.list[:i], r.list[i+1:]...)
			break
		}
	}
}

// All returns the creatures in processing order. The slice is shared;
// callers must not modify it.
func (r *Roster) All() []*Creature {
	return r.list
}

// Len returns the number of creatures.
func (r *Roster) Len() int {
	return len(r.list)
}

// Get returns the creature with the given ID, or nil.
func (r *Roster) Get(id CreatureID) *Creature {
	return r.byID[id]
}

// CountKind returns how many creatures of a kind are alive.
func (r *Roster) CountKind(k Kind) int {
	n := 0
	for _, c := range r.list {
		if c.Kind == k {
			n++
		}
	}
	return n
}

// Assigned returns how many creatures currently target cell.
func (r *Roster) Assigned(cell world.Cell) int {
	return r.assigned[cell]
}

// AtCapacity reports cells already targeted by limit creatures.
func (r *Roster) AtCapacity(limit int) world.Excluder {
	return func(c world.Cell) bool { return r.assigned[c] >= limit }
}

// SetTarget points c at cell, moving its assignment.
func (r *Roster) SetTarget(c *Creature, cell world.Cell) {
	r.ClearTarget(c)
	c.Target = &cell
	r.assigned[cell]++
}

// ClearTarget drops c's target.
func (r *Roster) ClearTarget(c *Creature) {
	if c.Target == nil {
		return
	}
	t := *c.Target
	c.Target = nil
	if n := r.assigned[t] - 1; n > 0 {
		r.assigned[t] = n
	} else {
		delete(r.assigned, t)
	}
}

// ClaimTargets returns the cells other creatures are moving to or standing
// on to claim.
func (r *Roster) ClaimTargets(except CreatureID) mapset.Set[world.Cell] {
	set := mapset.New[world.Cell]()
	for _, c := range r.list {
		if c.ID == except || c.Target == nil {
			continue
		}
		if c.State == StateMovingClaim || c.State == StateClaiming {
			set.Put(*c.Target)
		}
	}
	return set
}

// NearestDummy returns the training dummy closest to from by Manhattan
// distance. Earlier roster entries win ties.
func (r *Roster) NearestDummy(from world.Cell) (*Creature, bool) {
	var best *Creature
	bestDist := 0
	for _, c := range r.list {
		if c.Kind != KindDummy {
			continue
		}
		d := world.Manhattan(from, c.Pos)
		if best == nil || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, best != nil
}

// DummyAt reports whether a dummy stands on cell.
func (r *Roster) DummyAt(cell world.Cell) bool {
	for _, c := range r.list {
		if c.Kind == KindDummy && c.Pos == cell {
			return true
		}
	}
	return false
}

// At returns the creatures standing on cell in processing order.
func (r *Roster) At(cell world.Cell) []*Creature {
	var out []*Creature
	for _, c := range r.list {
		if c.Pos == cell {
			out = append(out, c)
		}
	}
	return out
}

// Assignments returns a copy of the per-cell target counts.
func (r *Roster) Assignments() map[world.Cell]int {
	out := make(map[world.Cell]int, len(r.assigned))
	for k, v := range r.assigned {
		out[k] = v
	}
	return out
}
