package economy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/talgya/underkeep/internal/world"
)

// ErrUnknownRoom is returned when a room name matches no room type.
var ErrUnknownRoom = errors.New("unknown room")

// Room is a stampable room type.
type Room uint8

const (
	RoomNone Room = iota
	RoomCorridor
	RoomPrison
	RoomLair
	RoomTreasury
	RoomTraining
	RoomFarm
)

var roomNames = [...]string{"none", "corridor", "prison", "lair", "treasury", "training", "farm"}

// Per-tile construction cost.
var roomCosts = [...]int{
	RoomNone:     0,
	RoomCorridor: 0,
	RoomPrison:   100,
	RoomLair:     50,
	RoomTreasury: 25,
	RoomTraining: 150,
	RoomFarm:     100,
}

var roomKinds = [...]world.Kind{
	RoomCorridor: world.KindFloor,
	RoomPrison:   world.KindPrison,
	RoomLair:     world.KindLair,
	RoomTreasury: world.KindTreasury,
	RoomTraining: world.KindTraining,
	RoomFarm:     world.KindFarm,
}

func (r Room) String() string {
	if int(r) < len(roomNames) {
		return roomNames[r]
	}
	return "unknown"
}

// Cost returns the gold charged per stamped tile.
func (r Room) Cost() int {
	if int(r) < len(roomCosts) {
		return roomCosts[r]
	}
	return 0
}

// Kind returns the tile kind the room stamps.
func (r Room) Kind() world.Kind {
	if r == RoomNone || int(r) >= len(roomKinds) {
		return world.KindFloor
	}
	return roomKinds[r]
}

// MarshalText encodes the room by name.
func (r Room) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText decodes a room name.
func (r *Room) UnmarshalText(b []byte) error {
	v, err := ParseRoom(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// ParseRoom resolves a room name, case-insensitively. "training room" is
// accepted as an alias. Unknown names report the closest match.
func ParseRoom(name string) (Room, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "training room" {
		key = "training"
	}
	for i, n := range roomNames {
		if n == key {
			return Room(i), nil
		}
	}

	best, bestDist := "", -1
	for _, n := range roomNames[1:] {
		d := levenshtein.ComputeDistance(key, n)
		if bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	if bestDist <= 3 {
		return RoomNone, fmt.Errorf("%w %q (did you mean %q?)", ErrUnknownRoom, name, best)
	}
	return RoomNone, fmt.Errorf("%w %q", ErrUnknownRoom, name)
}

// Purchase stamps room over every stampable tile in rect, paying per tile
// from treasuries (row-major) and then the heart. Tiles that already carry
// the room are skipped and free. If the colony cannot pay for the whole
// rectangle nothing is stamped or charged and Purchase returns false.
func Purchase(g *world.Grid, l *Ledger, rect world.Rect, room Room) (int, bool) {
	if room == RoomNone {
		return 0, false
	}
	kind := room.Kind()

	var targets []world.Cell
	rect.Each(func(c world.Cell) {
		t := g.Get(c)
		if t == nil || !t.Kind.IsRoomFloor() {
			return
		}
		if t.Kind == kind || (room == RoomCorridor && t.Kind == world.KindLooseGold) {
			return
		}
		targets = append(targets, c)
	})

	total := room.Cost() * len(targets)
	if total > l.SecuredGold(g) {
		return 0, false
	}
	withdraw(g, l, total)

	for _, c := range targets {
		stamp(g, c, room)
	}
	return len(targets), true
}

// withdraw removes amount from treasuries in row-major order, then from the
// heart. The caller has checked the colony can afford it.
func withdraw(g *world.Grid, l *Ledger, amount int) {
	l.Spent += amount
	g.Each(func(t *world.Tile) {
		if amount == 0 || t.Kind != world.KindTreasury || t.GoldStored == 0 {
			return
		}
		take := min(amount, t.GoldStored)
		t.GoldStored -= take
		amount -= take
	})
	l.HeartGold -= amount
}

func stamp(g *world.Grid, c world.Cell, room Room) {
	t := g.Get(c)

	// Stored treasury gold becomes a loose pile on the tile.
	if t.Kind == world.KindTreasury {
		t.GoldValue += t.GoldStored
		t.GoldStored = 0
	}

	kind := room.Kind()
	if room == RoomCorridor && t.GoldValue > 0 {
		kind = world.KindLooseGold
	}
	g.SetKind(c, kind)

	if kind == world.KindTreasury {
		take := min(t.GoldValue, world.TreasuryCapacity-t.GoldStored)
		t.GoldStored += take
		t.GoldValue -= take
	}
}
