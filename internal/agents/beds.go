package agents

import (
	"fmt"
	"sort"

	"github.com/talgya/underkeep/internal/world"
)

// BedTable is the single record of bed ownership, keyed by bed cell.
// A guard holds only the cell of its bed.
type BedTable struct {
	owners map[world.Cell]CreatureID
}

// BedEntry is one owned bed.
type BedEntry struct {
	Pos   world.Cell `json:"pos"`
	Owner CreatureID `json:"owner"`
}

// NewBedTable creates an empty ownership table.
func NewBedTable() *BedTable {
	return &BedTable{owners: make(map[world.Cell]CreatureID)}
}

// Owner returns the owner of the bed at pos.
func (b *BedTable) Owner(pos world.Cell) (CreatureID, bool) {
	id, ok := b.owners[pos]
	return id, ok
}

// Len returns the number of owned beds.
func (b *BedTable) Len() int {
	return len(b.owners)
}

// Build turns the lair tile at pos into a bed owned by c.
func (b *BedTable) Build(g *world.Grid, c *Creature, pos world.Cell) bool {
	if c.Guard == nil || c.Guard.Bed != nil || !g.IsValidBedSpot(pos) {
		return false
	}
	if _, taken := b.owners[pos]; taken {
		return false
	}
	g.SetKind(pos, world.KindBed)
	b.owners[pos] = c.ID
	c.Guard.Bed = &pos
	return true
}

// Release removes c's bed, reverting the tile to bare lair floor.
func (b *BedTable) Release(g *world.Grid, c *Creature) {
	if c.Guard == nil || c.Guard.Bed == nil {
		return
	}
	pos := *c.Guard.Bed
	c.Guard.Bed = nil
	if b.owners[pos] != c.ID {
		return
	}
	delete(b.owners, pos)
	if t := g.Get(pos); t != nil && t.Kind == world.KindBed {
		g.SetKind(pos, world.KindLair)
	}
}

// Entries returns the table sorted by position.
func (b *BedTable) Entries() []BedEntry {
	out := make([]BedEntry, 0, len(b.owners))
	for pos, id := range b.owners {
		out = append(out, BedEntry{Pos: pos, Owner: id})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Pos.Y != out[j].Pos.Y {
			return out[i].Pos.Y < out[j].Pos.Y
		}
		return out[i].Pos.X < out[j].Pos.X
	})
	return out
}

// RestoreBeds rebuilds a table from saved entries, checking each against
// the grid and the roster.
func RestoreBeds(g *world.Grid, r *Roster, entries []BedEntry) (*BedTable, error) {
	b := NewBedTable()
	for _, e := range entries {
		t := g.Get(e.Pos)
		if t == nil || t.Kind != world.KindBed {
			return nil, fmt.Errorf("restore beds: %v is not a bed", e.Pos)
		}
		c := r.Get(e.Owner)
		if c == nil || c.Guard == nil || c.Guard.Bed == nil || *c.Guard.Bed != e.Pos {
			return nil, fmt.Errorf("restore beds: owner %d of %v does not hold it", e.Owner, e.Pos)
		}
		if _, dup := b.owners[e.Pos]; dup {
			return nil, fmt.Errorf("restore beds: %v owned twice", e.Pos)
		}
		b.owners[e.Pos] = e.Owner
	}
	for _, c := range r.All() {
		if c.Guard != nil && c.Guard.Bed != nil {
			if id, ok := b.owners[*c.Guard.Bed]; !ok || id != c.ID {
				return nil, fmt.Errorf("restore beds: creature %d claims unrecorded bed %v", c.ID, *c.Guard.Bed)
			}
		}
	}
	return b, nil
}
