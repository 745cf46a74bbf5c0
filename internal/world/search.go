package world

import (
	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"
)

// Node caps keep every search bounded on a frontier-less map.
const (
	LooseGoldSearchLimit = 200
	ClaimSearchLimit     = 500
	RoomSearchLimit      = 800
)

// Excluder reports cells a search must not return.
type Excluder func(Cell) bool

func (e Excluder) has(c Cell) bool {
	return e != nil && e(c)
}

// ExcludeSet adapts a cell set into an Excluder.
func ExcludeSet(s mapset.Set[Cell]) Excluder {
	return func(c Cell) bool { return s.Has(c) }
}

// flood walks walkable tiles breadth-first from start. visit is called for
// every dequeued cell and stops the walk by returning true. The walk ends
// once limit cells have been discovered.
func (g *Grid) flood(start Cell, dirs []Cell, limit int, skip Excluder, visit func(Cell) bool) bool {
	if !g.InBounds(start) {
		return false
	}
	q := queue.New[Cell]()
	visited := mapset.New[Cell]()
	q.Enqueue(start)
	visited.Put(start)

	for !q.Empty() {
		cur := q.Dequeue()
		if visit(cur) {
			return true
		}
		if visited.Size() > limit {
			break
		}
		for _, d := range dirs {
			n := cur.Add(d)
			if visited.Has(n) || skip.has(n) {
				continue
			}
			t := g.Get(n)
			if t == nil || !t.Walkable() {
				continue
			}
			visited.Put(n)
			q.Enqueue(n)
		}
	}
	return false
}

// NearestLooseGold finds the closest gold pile lying on open ground within
// LooseGoldSearchLimit cells. Piles left on room floors count too.
func (g *Grid) NearestLooseGold(start Cell, exclude Excluder) (Cell, bool) {
	var found Cell
	ok := g.flood(start, Dirs8[:], LooseGoldSearchLimit, nil, func(c Cell) bool {
		t := g.Get(c)
		if t.GoldValue > 0 && !exclude.has(c) {
			found = c
			return true
		}
		return false
	})
	return found, ok
}

// NearestTreasurySpace finds the closest treasury tile with spare capacity.
func (g *Grid) NearestTreasurySpace(start Cell) (Cell, bool) {
	if g.kinds[KindTreasury] == 0 {
		return Cell{}, false
	}
	var found Cell
	ok := g.flood(start, Dirs4[:], RoomSearchLimit, nil, func(c Cell) bool {
		t := g.Get(c)
		if t.Kind == KindTreasury && t.GoldStored < TreasuryCapacity {
			found = c
			return true
		}
		return false
	})
	return found, ok
}

// NearestFarm finds the closest farm tile.
func (g *Grid) NearestFarm(start Cell) (Cell, bool) {
	if g.kinds[KindFarm] == 0 {
		return Cell{}, false
	}
	var found Cell
	ok := g.flood(start, Dirs4[:], RoomSearchLimit, nil, func(c Cell) bool {
		if g.Get(c).Kind == KindFarm {
			found = c
			return true
		}
		return false
	})
	return found, ok
}

// NearestBedSpot finds the closest lair tile where a bed may be built.
func (g *Grid) NearestBedSpot(start Cell) (Cell, bool) {
	if g.kinds[KindLair] == 0 {
		return Cell{}, false
	}
	var found Cell
	ok := g.flood(start, Dirs4[:], RoomSearchLimit, nil, func(c Cell) bool {
		if g.IsValidBedSpot(c) {
			found = c
			return true
		}
		return false
	})
	return found, ok
}

// NearestUnclaimed finds the closest unclaimed floor tile that touches
// claimed territory. Excluded cells are neither returned nor crossed.
func (g *Grid) NearestUnclaimed(start Cell, exclude Excluder) (Cell, bool) {
	var found Cell
	ok := g.flood(start, Dirs8[:], ClaimSearchLimit, exclude, func(c Cell) bool {
		for _, d := range Dirs8 {
			n := c.Add(d)
			t := g.Get(n)
			if t == nil || t.Kind != KindFloor || t.Claimed || exclude.has(n) {
				continue
			}
			if g.IsContiguousClaim(n) {
				found = n
				return true
			}
		}
		return false
	})
	return found, ok
}

// ReachableTagged returns the tagged solid tiles that border floor reachable
// from start, within ClaimSearchLimit cells. Each tile appears once.
func (g *Grid) ReachableTagged(start Cell) []Cell {
	if g.tagged.Size() == 0 {
		return nil
	}
	var out []Cell
	seen := mapset.New[Cell]()
	g.flood(start, Dirs8[:], ClaimSearchLimit, nil, func(c Cell) bool {
		for _, d := range Dirs8 {
			n := c.Add(d)
			t := g.Get(n)
			if t == nil || !t.Tagged || !t.IsSolid() || seen.Has(n) {
				continue
			}
			seen.Put(n)
			out = append(out, n)
		}
		return false
	})
	return out
}

// NearestReinforceable finds the closest untagged diggable rock wall that
// borders reachable floor.
func (g *Grid) NearestReinforceable(start Cell, exclude Excluder) (Cell, bool) {
	var found Cell
	ok := g.flood(start, Dirs4[:], RoomSearchLimit, nil, func(c Cell) bool {
		for _, d := range Dirs8 {
			n := c.Add(d)
			t := g.Get(n)
			if t == nil || t.Kind != KindRock || t.Tagged || exclude.has(n) {
				continue
			}
			found = n
			return true
		}
		return false
	})
	return found, ok
}

// IsReinforceable reports whether c is still an untagged diggable rock wall.
func (g *Grid) IsReinforceable(c Cell) bool {
	t := g.Get(c)
	return t != nil && t.Kind == KindRock && !t.Tagged
}
