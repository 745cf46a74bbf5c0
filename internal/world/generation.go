// Dungeon generation: rock fill, a noise-jagged bedrock border, the heart
// clearing, the portal and random-walk gold veins.
package world

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds dungeon generation parameters.
type GenConfig struct {
	Width     int   // Grid width in tiles
	Height    int   // Grid height in tiles
	Seed      int64 // Random seed (0 = random)
	Veins     int   // Gold vein attempts
	BorderMin int   // Thinnest bedrock border
	BorderMax int   // Thickest bedrock border
}

// DefaultGenConfig returns the standard terminal-sized dungeon.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Width:     80,
		Height:    25,
		Seed:      0,
		Veins:     20,
		BorderMin: 1,
		BorderMax: 4,
	}
}

// SmallTestConfig returns a tiny dungeon for rapid iteration.
func SmallTestConfig() GenConfig {
	return GenConfig{
		Width:     30,
		Height:    20,
		Seed:      42,
		Veins:     6,
		BorderMin: 1,
		BorderMax: 2,
	}
}

const (
	heartClearRadius = 2  // 5×5 clearing around the heart
	portalMinDist    = 5  // Portal distance from the heart
	portalMaxDist    = 10 //
	portalMargin     = 2  // Portal keeps this far from the map edge
	veinMinLen       = 4
	veinMaxLen       = 10
	veinPortalClear  = 5.0 // Veins never start this close to the portal
	borderNoiseScale = 0.35
)

// Generate creates a complete dungeon grid.
func Generate(cfg GenConfig) *Grid {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))
	borderNoise := opensimplex.NewNormalized(seed + 1)

	g := NewGrid(cfg.Width, cfg.Height)

	carveBorder(g, borderNoise, cfg)
	placeHeart(g)
	placePortal(g, rng)
	placeVeins(g, rng, cfg.Veins)

	return g
}

// carveBorder turns edge cells into bedrock. Thickness varies between
// BorderMin and BorderMax, sampled from simplex noise so the edge reads as
// natural rock rather than a frame.
func carveBorder(g *Grid, noise opensimplex.Noise, cfg GenConfig) {
	lo, hi := cfg.BorderMin, cfg.BorderMax
	if lo < 1 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	span := hi - lo + 1

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			dist := min(min(x, g.Width-1-x), min(y, g.Height-1-y))
			n := noise.Eval2(float64(x)*borderNoiseScale, float64(y)*borderNoiseScale)
			thickness := lo + int(n*float64(span))
			if thickness > hi {
				thickness = hi
			}
			if dist < thickness {
				g.SetKind(Cell{X: x, Y: y}, KindBedrock)
			}
		}
	}
}

// placeHeart puts the heart at the centre and clears a claimed floor ring
// around it. The heart cell itself stays blocking.
func placeHeart(g *Grid) {
	center := Cell{X: g.Width / 2, Y: g.Height / 2}
	g.Heart = center
	g.SetKind(center, KindHeart)

	for dy := -heartClearRadius; dy <= heartClearRadius; dy++ {
		for dx := -heartClearRadius; dx <= heartClearRadius; dx++ {
			c := Cell{X: center.X + dx, Y: center.Y + dy}
			if c == center || !g.InBounds(c) {
				continue
			}
			g.SetKind(c, KindFloor)
			g.Claim(c)
		}
	}
}

// placePortal drops the portal at a random angle 5–10 cells from the heart,
// kept two cells away from the edge.
func placePortal(g *Grid, rng *rand.Rand) {
	center := g.Heart
	inside := func(c Cell) bool {
		return c.X >= portalMargin && c.X < g.Width-portalMargin &&
			c.Y >= portalMargin && c.Y < g.Height-portalMargin
	}

	var pos Cell
	placed := false
	for attempt := 0; attempt < 1000; attempt++ {
		angle := rng.Float64() * 2 * math.Pi
		dist := float64(portalMinDist + rng.Intn(portalMaxDist-portalMinDist+1))
		pos = Cell{
			X: int(float64(center.X) + math.Cos(angle)*dist),
			Y: int(float64(center.Y) + math.Sin(angle)*dist),
		}
		if inside(pos) {
			placed = true
			break
		}
	}
	if !placed {
		// Grid too small for the ring; clamp the last candidate instead.
		pos.X = clamp(pos.X, portalMargin, g.Width-portalMargin-1)
		pos.Y = clamp(pos.Y, portalMargin, g.Height-portalMargin-1)
		if pos == center || !g.InBounds(pos) {
			pos = Cell{X: clamp(center.X+portalMinDist, 0, g.Width-1), Y: center.Y}
		}
	}

	g.Portal = pos
	g.SetKind(pos, KindPortal)
}

// placeVeins carves random-walk gold veins through diggable rock.
func placeVeins(g *Grid, rng *rand.Rand, count int) {
	if g.Width < 5 || g.Height < 5 {
		return
	}
	for i := 0; i < count; i++ {
		v := Cell{
			X: 2 + rng.Intn(g.Width-4),
			Y: 2 + rng.Intn(g.Height-4),
		}
		dx := float64(v.X - g.Portal.X)
		dy := float64(v.Y - g.Portal.Y)
		if math.Sqrt(dx*dx+dy*dy) < veinPortalClear {
			continue
		}

		length := veinMinLen + rng.Intn(veinMaxLen-veinMinLen+1)
		for step := 0; step < length; step++ {
			t := g.Get(v)
			if t == nil || t.Kind != KindRock {
				break
			}
			g.SetKind(v, KindGoldVein)
			t.GoldValue = VeinDeposit

			v.X += rng.Intn(3) - 1
			v.Y += rng.Intn(3) - 1
		}
	}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
