package world

import (
	"github.com/zyedidia/generic/queue"
)

// PathNodeLimit bounds the number of cells Step expands.
const PathNodeLimit = 500

// Step returns the first move on a shortest 8-directional path from start to
// target. A cell may be entered if it is walkable or is the target itself,
// so a creature can close in on a solid job tile. It returns false when the
// target is unreachable within PathNodeLimit expansions or start == target;
// callers stay put and plan again next tick.
func (g *Grid) Step(start, target Cell) (Cell, bool) {
	if start == target || !g.InBounds(start) || !g.InBounds(target) {
		return Cell{}, false
	}

	parent := map[Cell]Cell{start: start}
	q := queue.New[Cell]()
	q.Enqueue(start)

	for expanded := 0; !q.Empty() && expanded < PathNodeLimit; expanded++ {
		cur := q.Dequeue()
		if cur == target {
			return firstStep(parent, start, target), true
		}
		for _, d := range Dirs8 {
			n := cur.Add(d)
			if _, seen := parent[n]; seen {
				continue
			}
			t := g.Get(n)
			if t == nil {
				continue
			}
			if !t.Walkable() && n != target {
				continue
			}
			parent[n] = cur
			q.Enqueue(n)
		}
	}
	return Cell{}, false
}

// firstStep walks the parent chain back from target to the cell after start.
func firstStep(parent map[Cell]Cell, start, target Cell) Cell {
	cur := target
	for {
		prev := parent[cur]
		if prev == start {
			return cur
		}
		cur = prev
	}
}
