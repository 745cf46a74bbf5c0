package world

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// Grid holds the complete tile matrix plus incremental indexes over it.
type Grid struct {
	Width  int  `json:"width"`
	Height int  `json:"height"`
	Heart  Cell `json:"heart"`
	Portal Cell `json:"portal"`

	tiles  []Tile
	tagged mapset.Set[Cell]
	kinds  [NumKinds]int
	claims int
	tagSeq uint64
}

// NewGrid creates a grid filled with diggable rock.
func NewGrid(width, height int) *Grid {
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	g := &Grid{
		Width:  width,
		Height: height,
		tiles:  make([]Tile, width*height),
		tagged: mapset.New[Cell](),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g.tiles[y*width+x] = Tile{Pos: Cell{X: x, Y: y}, Kind: KindRock}
		}
	}
	g.kinds[KindRock] = width * height
	return g
}

// Restore rebuilds a grid and its indexes from a saved tile matrix.
func Restore(width, height int, tiles []Tile, heart, portal Cell, tagSeq uint64) (*Grid, error) {
	if width < 1 || height < 1 || len(tiles) != width*height {
		return nil, fmt.Errorf("restore grid: %dx%d does not fit %d tiles", width, height, len(tiles))
	}
	g := &Grid{
		Width:  width,
		Height: height,
		Heart:  heart,
		Portal: portal,
		tiles:  make([]Tile, len(tiles)),
		tagged: mapset.New[Cell](),
		tagSeq: tagSeq,
	}
	copy(g.tiles, tiles)
	for i := range g.tiles {
		t := &g.tiles[i]
		want := Cell{X: i % width, Y: i / width}
		if t.Pos != want {
			return nil, fmt.Errorf("restore grid: tile %d at %v, want %v", i, t.Pos, want)
		}
		if int(t.Kind) >= NumKinds {
			return nil, fmt.Errorf("restore grid: tile %v has unknown kind %d", t.Pos, t.Kind)
		}
		if t.Tagged && !t.Kind.Taggable() {
			return nil, fmt.Errorf("restore grid: tile %v tagged but %s", t.Pos, t.Kind)
		}
		g.kinds[t.Kind]++
		if t.Claimed {
			g.claims++
		}
		if t.Tagged {
			g.tagged.Put(t.Pos)
		}
	}
	if !g.InBounds(heart) || !g.InBounds(portal) {
		return nil, fmt.Errorf("restore grid: heart %v or portal %v out of bounds", heart, portal)
	}
	return g, nil
}

// Get returns the tile at c, or nil if out of bounds.
func (g *Grid) Get(c Cell) *Tile {
	if !g.InBounds(c) {
		return nil
	}
	return &g.tiles[c.Y*g.Width+c.X]
}

// At is Get with separate coordinates.
func (g *Grid) At(x, y int) *Tile {
	return g.Get(Cell{X: x, Y: y})
}

// InBounds returns true if the cell lies inside the grid.
func (g *Grid) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < g.Width && c.Y < g.Height
}

// Tiles returns a copy of the tile matrix in row-major order.
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// Each calls fn for every tile in row-major order.
func (g *Grid) Each(fn func(t *Tile)) {
	for i := range g.tiles {
		fn(&g.tiles[i])
	}
}

// SetKind changes a tile's kind. Tiles that stop being solid lose their tag.
func (g *Grid) SetKind(c Cell, k Kind) {
	t := g.Get(c)
	if t == nil || t.Kind == k {
		return
	}
	g.kinds[t.Kind]--
	g.kinds[k]++
	t.Kind = k
	if t.Tagged && !k.Taggable() {
		g.Untag(c)
	}
}

// Claim marks a walkable tile as colony territory.
func (g *Grid) Claim(c Cell) bool {
	t := g.Get(c)
	if t == nil || t.Claimed || t.IsSolid() {
		return false
	}
	t.Claimed = true
	g.claims++
	return true
}

// NextTagStamp returns a fresh ordering stamp for one tagging operation.
func (g *Grid) NextTagStamp() uint64 {
	g.tagSeq++
	return g.tagSeq
}

// TagSeq returns the last issued tag stamp.
func (g *Grid) TagSeq() uint64 {
	return g.tagSeq
}

// Tag marks a taggable tile for work. Retagging keeps the original stamp.
func (g *Grid) Tag(c Cell, stamp uint64) bool {
	t := g.Get(c)
	if t == nil || !t.Kind.Taggable() {
		return false
	}
	if !t.Tagged {
		t.Tagged = true
		t.TagStamp = stamp
		g.tagged.Put(c)
	}
	return true
}

// Untag clears the work mark on a tile.
func (g *Grid) Untag(c Cell) {
	t := g.Get(c)
	if t == nil || !t.Tagged {
		return
	}
	t.Tagged = false
	t.TagStamp = 0
	g.tagged.Remove(c)
}

// TaggedCount returns the number of tagged tiles.
func (g *Grid) TaggedCount() int {
	return g.tagged.Size()
}

// IsExposed returns true if any of the eight neighbours is not solid.
func (g *Grid) IsExposed(c Cell) bool {
	for _, d := range Dirs8 {
		if n := g.Get(c.Add(d)); n != nil && !n.IsSolid() {
			return true
		}
	}
	return false
}

// ClaimedCount returns the number of claimed tiles.
func (g *Grid) ClaimedCount() int {
	return g.claims
}

// CountKind returns the number of tiles of the given kind.
func (g *Grid) CountKind(k Kind) int {
	if int(k) >= NumKinds {
		return 0
	}
	return g.kinds[k]
}

// IsContiguousClaim reports whether c touches claimed territory orthogonally.
func (g *Grid) IsContiguousClaim(c Cell) bool {
	for _, d := range Dirs4 {
		if n := g.Get(c.Add(d)); n != nil && n.Claimed {
			return true
		}
	}
	return false
}

// IsValidBedSpot reports whether a bed may be built at c: a lair tile with
// no bed anywhere in its eight-neighbourhood.
func (g *Grid) IsValidBedSpot(c Cell) bool {
	t := g.Get(c)
	if t == nil || t.Kind != KindLair {
		return false
	}
	for _, d := range Dirs8 {
		if n := g.Get(c.Add(d)); n != nil && n.Kind == KindBed {
			return false
		}
	}
	return true
}

// HasBedSpot reports whether any lair tile could take a new bed.
func (g *Grid) HasBedSpot() bool {
	if g.kinds[KindLair] == 0 {
		return false
	}
	for i := range g.tiles {
		if g.tiles[i].Kind == KindLair && g.IsValidBedSpot(g.tiles[i].Pos) {
			return true
		}
	}
	return false
}

// String returns a summary of the grid.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, claimed=%d, tagged=%d)", g.Width, g.Height, g.claims, g.tagged.Size())
}
