package economy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talgya/underkeep/internal/world"
)

func openFloor() *world.Grid {
	return world.MustFromRows(
		"^^^^^^^^^^^^",
		"^..........^",
		"^..........^",
		"^^^^^^^^^^^^",
	)
}

func TestPurchase_AbortsWhenUnaffordable(t *testing.T) {
	g := openFloor()
	l := NewLedger()
	l.HeartGold = 100
	before := g.Rows()

	n, ok := Purchase(g, l, world.RectFrom(world.Cell{X: 1, Y: 1}, world.Cell{X: 10, Y: 1}), RoomTreasury)
	assert.False(t, ok)
	assert.Zero(t, n)
	assert.Equal(t, 100, l.HeartGold)
	assert.Zero(t, l.Spent)
	assert.Equal(t, before, g.Rows())
}

func TestPurchase_TreasuriesPayBeforeHeart(t *testing.T) {
	g := openFloor()
	l := NewLedger()
	l.HeartGold = 100

	// Fund a treasury first.
	_, ok := Purchase(g, l, world.RectFrom(world.Cell{X: 1, Y: 2}, world.Cell{X: 1, Y: 2}), RoomTreasury)
	require.True(t, ok)
	assert.Equal(t, 75, l.HeartGold)
	g.At(1, 2).GoldStored = 60

	n, ok := Purchase(g, l, world.RectFrom(world.Cell{X: 1, Y: 1}, world.Cell{X: 2, Y: 1}), RoomLair)
	require.True(t, ok)
	assert.Equal(t, 2, n)
	assert.Zero(t, g.At(1, 2).GoldStored)
	assert.Equal(t, 35, l.HeartGold)
	assert.Equal(t, 125, l.Spent)
	assert.Equal(t, world.KindLair, g.At(1, 1).Kind)
	assert.Equal(t, world.KindLair, g.At(2, 1).Kind)
}

func TestPurchase_SkipsUnstampableAndSameKind(t *testing.T) {
	g := world.MustFromRows(
		"^^^^^^",
		"^#LB.^",
		"^^^^^^",
	)
	l := NewLedger()
	l.HeartGold = 50

	n, ok := Purchase(g, l, world.RectFrom(world.Cell{X: 1, Y: 1}, world.Cell{X: 4, Y: 1}), RoomLair)
	require.True(t, ok)
	assert.Equal(t, 1, n, "only the bare floor tile is stamped")
	assert.Zero(t, l.HeartGold)
	assert.Equal(t, world.KindRock, g.At(1, 1).Kind)
	assert.Equal(t, world.KindBed, g.At(3, 1).Kind)
	assert.Equal(t, world.KindLair, g.At(4, 1).Kind)
}

func TestPurchase_TreasuryAbsorbsLooseGold(t *testing.T) {
	g := world.MustFromRows(
		"^^^^^",
		"^==.^",
		"^^^^^",
	)
	g.At(1, 1).GoldValue = 80
	g.At(2, 1).GoldValue = 650
	l := NewLedger()
	l.HeartGold = 50

	_, ok := Purchase(g, l, world.RectFrom(world.Cell{X: 1, Y: 1}, world.Cell{X: 2, Y: 1}), RoomTreasury)
	require.True(t, ok)
	assert.Equal(t, 80, g.At(1, 1).GoldStored)
	assert.Zero(t, g.At(1, 1).GoldValue)
	assert.Equal(t, world.TreasuryCapacity, g.At(2, 1).GoldStored)
	assert.Equal(t, 150, g.At(2, 1).GoldValue, "overflow stays as a pile")
}

func TestPurchase_CorridorReleasesTreasuryGold(t *testing.T) {
	g := world.MustFromRows(
		"^^^^",
		"^$.^",
		"^^^^",
	)
	g.At(1, 1).GoldStored = 40
	l := NewLedger()

	n, ok := Purchase(g, l, world.RectFrom(world.Cell{X: 1, Y: 1}, world.Cell{X: 2, Y: 1}), RoomCorridor)
	require.True(t, ok)
	assert.Equal(t, 1, n)
	assert.Equal(t, world.KindLooseGold, g.At(1, 1).Kind)
	assert.Equal(t, 40, g.At(1, 1).GoldValue)
	assert.Zero(t, g.At(1, 1).GoldStored)
	assert.Equal(t, world.KindFloor, g.At(2, 1).Kind)
}

func TestPurchase_NoRoomSelected(t *testing.T) {
	g := openFloor()
	_, ok := Purchase(g, NewLedger(), world.RectFrom(world.Cell{X: 1, Y: 1}, world.Cell{X: 1, Y: 1}), RoomNone)
	assert.False(t, ok)
}
