// Package jobs ranks the dig work queued on the grid.
package jobs

import (
	"sort"

	"github.com/talgya/underkeep/internal/world"
)

// MaxAssignees is the most live creature targets one tile may carry.
const MaxAssignees = 3

// Assignments reports how many live creatures currently target a cell.
type Assignments interface {
	Assigned(c world.Cell) int
}

// Board ranks the tagged tiles a creature can actually reach.
type Board struct {
	grid *world.Grid
}

// NewBoard creates a job board over g.
func NewBoard(g *world.Grid) *Board {
	return &Board{grid: g}
}

// Candidate is a tagged, exposed tile open for digging.
type Candidate struct {
	Pos   world.Cell `json:"pos"`
	Stamp uint64     `json:"stamp"`
	Gold  bool       `json:"gold"`
	Dist  int        `json:"dist"`
}

// less orders by tag stamp, then veins before rock, then distance.
// Position breaks the remaining ties so the order never depends on map
// iteration.
func less(a, b Candidate) bool {
	if a.Stamp != b.Stamp {
		return a.Stamp < b.Stamp
	}
	if a.Gold != b.Gold {
		return a.Gold
	}
	if a.Dist != b.Dist {
		return a.Dist < b.Dist
	}
	if a.Pos.Y != b.Pos.Y {
		return a.Pos.Y < b.Pos.Y
	}
	return a.Pos.X < b.Pos.X
}

// Candidates returns every open job reachable from from, ranked. Tiles at
// the density cap and excluded tiles are left out. A nil load disables the
// cap.
func (b *Board) Candidates(from world.Cell, load Assignments, exclude world.Excluder) []Candidate {
	var out []Candidate
	for _, c := range b.grid.ReachableTagged(from) {
		if cand, ok := b.candidate(from, c, load, exclude); ok {
			out = append(out, cand)
		}
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// PriorityJob returns the best job for a creature at from, or false when
// nothing is open. Tiles sealed off from the creature never rank, however
// old their tag.
func (b *Board) PriorityJob(from world.Cell, load Assignments, exclude world.Excluder) (world.Cell, bool) {
	var best Candidate
	found := false
	for _, c := range b.grid.ReachableTagged(from) {
		cand, ok := b.candidate(from, c, load, exclude)
		if !ok {
			continue
		}
		if !found || less(cand, best) {
			best = cand
			found = true
		}
	}
	return best.Pos, found
}

// Pending returns the number of tagged tiles, reachable or not.
func (b *Board) Pending() int {
	return b.grid.TaggedCount()
}

func (b *Board) candidate(from, c world.Cell, load Assignments, exclude world.Excluder) (Candidate, bool) {
	t := b.grid.Get(c)
	if t == nil || !t.Tagged || !t.IsSolid() || !b.grid.IsExposed(c) {
		return Candidate{}, false
	}
	if exclude != nil && exclude(c) {
		return Candidate{}, false
	}
	if load != nil && load.Assigned(c) >= MaxAssignees {
		return Candidate{}, false
	}
	return Candidate{
		Pos:   c,
		Stamp: t.TagStamp,
		Gold:  t.Kind == world.KindGoldVein,
		Dist:  world.Chebyshev(from, c),
	}, true
}
