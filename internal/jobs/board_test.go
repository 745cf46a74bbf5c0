package jobs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/underkeep/internal/world"
)

type fixedLoad map[world.Cell]int

func (f fixedLoad) Assigned(c world.Cell) int { return f[c] }

func tagRect(g *world.Grid, a, b world.Cell) {
	stamp := g.NextTagStamp()
	world.RectFrom(a, b).Each(func(c world.Cell) { g.Tag(c, stamp) })
}

func TestPriorityJob_EarlierStampFirst(t *testing.T) {
	g := world.MustFromRows(
		"^^^^^^^^",
		"^#....#^",
		"^^^^^^^^",
	)
	g.Tag(world.Cell{X: 6, Y: 1}, g.NextTagStamp())
	g.Tag(world.Cell{X: 1, Y: 1}, g.NextTagStamp())

	b := NewBoard(g)
	job, ok := b.PriorityJob(world.Cell{X: 2, Y: 1}, nil, nil)
	require.True(t, ok)
	assert.Equal(t, world.Cell{X: 6, Y: 1}, job, "tagged first wins over nearer")
}

func TestPriorityJob_GoldBeforeRockWithinDrag(t *testing.T) {
	g := world.MustFromRows(
		"^^^^^^^",
		"^.###o^",
		"^.....^",
		"^^^^^^^",
	)
	tagRect(g, world.Cell{X: 2, Y: 1}, world.Cell{X: 5, Y: 1})

	b := NewBoard(g)
	job, ok := b.PriorityJob(world.Cell{X: 1, Y: 1}, nil, nil)
	require.True(t, ok)
	assert.Equal(t, world.Cell{X: 5, Y: 1}, job)

	cands := b.Candidates(world.Cell{X: 1, Y: 1}, nil, nil)
	require.Len(t, cands, 4)
	assert.Equal(t, world.Cell{X: 5, Y: 1}, cands[0].Pos)
	assert.True(t, cands[0].Gold)
	assert.Equal(t, world.Cell{X: 2, Y: 1}, cands[1].Pos)
	assert.Equal(t, world.Cell{X: 4, Y: 1}, cands[3].Pos)
	assert.Equal(t, 4, b.Pending())
}

func TestPriorityJob_SealedPocketNeverRanks(t *testing.T) {
	g := world.MustFromRows(
		"^^^^^^^^^",
		"^.#^^#o.^",
		"^^^^^^^^^",
	)
	vein, rock := world.Cell{X: 6, Y: 1}, world.Cell{X: 2, Y: 1}
	g.Tag(vein, g.NextTagStamp())
	g.Tag(rock, g.NextTagStamp())

	b := NewBoard(g)
	job, ok := b.PriorityJob(world.Cell{X: 1, Y: 1}, nil, nil)
	require.True(t, ok)
	assert.Equal(t, rock, job, "the older vein is walled off")

	cands := b.Candidates(world.Cell{X: 1, Y: 1}, nil, nil)
	require.Len(t, cands, 1)
	assert.Equal(t, rock, cands[0].Pos)
	assert.Equal(t, 2, b.Pending(), "pending counts every tag")

	job, ok = b.PriorityJob(world.Cell{X: 7, Y: 1}, nil, nil)
	require.True(t, ok)
	assert.Equal(t, vein, job)
}

func TestPriorityJob_NearestWithinStamp(t *testing.T) {
	g := world.MustFromRows(
		"^^^^^^^^^",
		"^#.....#^",
		"^^^^^^^^^",
	)
	stamp := g.NextTagStamp()
	g.Tag(world.Cell{X: 1, Y: 1}, stamp)
	g.Tag(world.Cell{X: 7, Y: 1}, stamp)

	job, ok := NewBoard(g).PriorityJob(world.Cell{X: 6, Y: 1}, nil, nil)
	require.True(t, ok)
	assert.Equal(t, world.Cell{X: 7, Y: 1}, job)
}

func TestPriorityJob_DensityCapAndExclusion(t *testing.T) {
	g := world.MustFromRows(
		"^^^^^^",
		"^#..#^",
		"^^^^^^",
	)
	left, right := world.Cell{X: 1, Y: 1}, world.Cell{X: 4, Y: 1}
	stamp := g.NextTagStamp()
	g.Tag(left, stamp)
	g.Tag(right, stamp)
	b := NewBoard(g)
	from := world.Cell{X: 2, Y: 1}

	job, ok := b.PriorityJob(from, fixedLoad{left: MaxAssignees - 1}, nil)
	require.True(t, ok)
	assert.Equal(t, left, job, "below the cap")

	job, ok = b.PriorityJob(from, fixedLoad{left: MaxAssignees}, nil)
	require.True(t, ok)
	assert.Equal(t, right, job)

	_, ok = b.PriorityJob(from, fixedLoad{left: MaxAssignees}, func(c world.Cell) bool { return c == right })
	assert.False(t, ok)
}

func TestPriorityJob_NoneWhenNothingTagged(t *testing.T) {
	g := world.Generate(world.SmallTestConfig())
	_, ok := NewBoard(g).PriorityJob(g.Heart, nil, nil)
	assert.False(t, ok)
	assert.Empty(t, NewBoard(g).Candidates(g.Heart, nil, nil))
}
