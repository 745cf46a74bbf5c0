package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zyedidia/generic/mapset"
)

func TestStep_MovesAlongShortestPath(t *testing.T) {
	g := MustFromRows(
		"#######",
		"#.....#",
		"#.###.#",
		"#.....#",
		"#######",
	)
	next, ok := g.Step(Cell{X: 1, Y: 1}, Cell{X: 5, Y: 3})
	require.True(t, ok)
	assert.Equal(t, 1, Chebyshev(next, Cell{X: 1, Y: 1}))
	assert.True(t, g.Get(next).Walkable())
}

func TestStep_EntersSolidTargetOnly(t *testing.T) {
	g := MustFromRows(
		"#####",
		"#..##",
		"#####",
	)
	next, ok := g.Step(Cell{X: 1, Y: 1}, Cell{X: 3, Y: 1})
	require.True(t, ok)
	assert.Equal(t, Cell{X: 2, Y: 1}, next)

	next, ok = g.Step(Cell{X: 2, Y: 1}, Cell{X: 3, Y: 1})
	require.True(t, ok, "adjacent solid target is enterable")
	assert.Equal(t, Cell{X: 3, Y: 1}, next)

	_, ok = g.Step(Cell{X: 1, Y: 1}, Cell{X: 4, Y: 1})
	assert.False(t, ok, "rock behind rock is unreachable")
}

func TestStep_NoneAtTarget(t *testing.T) {
	g := NewGrid(3, 3)
	_, ok := g.Step(Cell{X: 1, Y: 1}, Cell{X: 1, Y: 1})
	assert.False(t, ok)
}

func TestStep_HeartBlocks(t *testing.T) {
	g := MustFromRows(
		"#####",
		"#.H.#",
		"#####",
	)
	_, ok := g.Step(Cell{X: 1, Y: 1}, Cell{X: 3, Y: 1})
	assert.False(t, ok)
}

func TestNearestLooseGold(t *testing.T) {
	g := MustFromRows(
		"#########",
		"#..=..=.#",
		"#########",
	)
	g.At(3, 1).GoldValue = 40
	g.At(6, 1).GoldValue = 90

	c, ok := g.NearestLooseGold(Cell{X: 7, Y: 1}, nil)
	require.True(t, ok)
	assert.Equal(t, Cell{X: 6, Y: 1}, c)

	skip := mapset.New[Cell]()
	skip.Put(Cell{X: 6, Y: 1})
	c, ok = g.NearestLooseGold(Cell{X: 7, Y: 1}, ExcludeSet(skip))
	require.True(t, ok)
	assert.Equal(t, Cell{X: 3, Y: 1}, c)
}

func TestNearestTreasurySpace_SkipsFull(t *testing.T) {
	g := MustFromRows(
		"#######",
		"#.$$..#",
		"#######",
	)
	g.At(2, 1).GoldStored = TreasuryCapacity
	c, ok := g.NearestTreasurySpace(Cell{X: 1, Y: 1})
	require.True(t, ok)
	assert.Equal(t, Cell{X: 3, Y: 1}, c)

	g.At(3, 1).GoldStored = TreasuryCapacity
	_, ok = g.NearestTreasurySpace(Cell{X: 1, Y: 1})
	assert.False(t, ok)
}

func TestNearestUnclaimed_RequiresContiguity(t *testing.T) {
	g := MustFromRows(
		"########",
		"#++....#",
		"########",
	)
	c, ok := g.NearestUnclaimed(Cell{X: 5, Y: 1}, nil)
	require.True(t, ok)
	assert.Equal(t, Cell{X: 3, Y: 1}, c, "only the tile touching claimed floor qualifies")

	skip := mapset.New[Cell]()
	skip.Put(Cell{X: 3, Y: 1})
	_, ok = g.NearestUnclaimed(Cell{X: 5, Y: 1}, ExcludeSet(skip))
	assert.False(t, ok)
}

func TestNearestReinforceable(t *testing.T) {
	g := MustFromRows(
		"^^^^^",
		"^.o.^",
		"^^#^^",
	)
	c, ok := g.NearestReinforceable(Cell{X: 1, Y: 1}, nil)
	require.True(t, ok)
	assert.Equal(t, Cell{X: 2, Y: 2}, c, "gold and bedrock are never reinforced")

	g.Tag(c, g.NextTagStamp())
	_, ok = g.NearestReinforceable(Cell{X: 1, Y: 1}, nil)
	assert.False(t, ok)
}

func TestReachableTagged_SkipsSealedPockets(t *testing.T) {
	g := MustFromRows(
		"^^^^^^^^^",
		"^.#^^#o.^",
		"^^^^^^^^^",
	)
	assert.Empty(t, g.ReachableTagged(Cell{X: 1, Y: 1}))

	stamp := g.NextTagStamp()
	for _, c := range []Cell{{X: 2, Y: 1}, {X: 5, Y: 1}, {X: 6, Y: 1}} {
		require.True(t, g.Tag(c, stamp))
	}

	assert.Equal(t, []Cell{{X: 2, Y: 1}}, g.ReachableTagged(Cell{X: 1, Y: 1}))
	assert.Equal(t, []Cell{{X: 6, Y: 1}}, g.ReachableTagged(Cell{X: 7, Y: 1}))
}

func TestNearestBedSpotAndFarm(t *testing.T) {
	g := MustFromRows(
		"#########",
		"#..LBL.F#",
		"#########",
	)
	_, ok := g.NearestBedSpot(Cell{X: 1, Y: 1})
	assert.False(t, ok, "both lair tiles sit next to a bed")

	c, ok := g.NearestFarm(Cell{X: 1, Y: 1})
	require.True(t, ok)
	assert.Equal(t, Cell{X: 7, Y: 1}, c)
}

func TestSearches_BoundedOnOpenMap(t *testing.T) {
	g := NewGrid(120, 120)
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			g.SetKind(Cell{X: x, Y: y}, KindFloor)
		}
	}
	g.SetKind(Cell{X: 119, Y: 119}, KindTreasury)

	_, ok := g.NearestTreasurySpace(Cell{X: 0, Y: 0})
	assert.False(t, ok, "treasury lies beyond the node cap")
	_, ok = g.Step(Cell{X: 0, Y: 0}, Cell{X: 119, Y: 119})
	assert.False(t, ok)
}
