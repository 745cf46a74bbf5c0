// Package world provides the tile grid, terrain generation, spatial searches
// and the single-step path planner.
// Uses screen coordinates: x grows right, y grows down.
package world

// Cell is a position on the grid.
type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the cell offset by d.
func (c Cell) Add(d Cell) Cell {
	return Cell{X: c.X + d.X, Y: c.Y + d.Y}
}

// Dirs4 are the orthogonal neighbour offsets.
var Dirs4 = [4]Cell{
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: -1, Y: 0},
}

// Dirs8 are the orthogonal then diagonal neighbour offsets.
var Dirs8 = [8]Cell{
	{X: 0, Y: 1},
	{X: 0, Y: -1},
	{X: 1, Y: 0},
	{X: -1, Y: 0},
	{X: 1, Y: 1},
	{X: 1, Y: -1},
	{X: -1, Y: 1},
	{X: -1, Y: -1},
}

// Chebyshev returns the king-move distance between two cells.
func Chebyshev(a, b Cell) int {
	dx := abs(a.X - b.X)
	dy := abs(a.Y - b.Y)
	if dx > dy {
		return dx
	}
	return dy
}

// Manhattan returns the taxicab distance between two cells.
func Manhattan(a, b Cell) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

// Rect is an inclusive rectangle of cells.
type Rect struct {
	Min Cell `json:"min"`
	Max Cell `json:"max"`
}

// RectFrom builds a normalized rectangle from two corner cells in any order.
func RectFrom(a, b Cell) Rect {
	r := Rect{Min: a, Max: b}
	if r.Min.X > r.Max.X {
		r.Min.X, r.Max.X = r.Max.X, r.Min.X
	}
	if r.Min.Y > r.Max.Y {
		r.Min.Y, r.Max.Y = r.Max.Y, r.Min.Y
	}
	return r
}

// Each calls fn for every cell in the rectangle, row by row.
func (r Rect) Each(fn func(Cell)) {
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		for x := r.Min.X; x <= r.Max.X; x++ {
			fn(Cell{X: x, Y: y})
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
