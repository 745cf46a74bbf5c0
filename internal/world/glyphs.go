package world

import (
	"fmt"
	"strings"
)

// Glyphs used by FromRows and Rows. Claimed floor is written '+'.
var kindGlyphs = [NumKinds]byte{
	KindBedrock:    '^',
	KindRock:       '#',
	KindGoldVein:   'o',
	KindReinforced: 'R',
	KindFloor:      '.',
	KindHeart:      'H',
	KindPortal:     'O',
	KindTreasury:   '$',
	KindLair:       'L',
	KindBed:        'B',
	KindTraining:   'T',
	KindFarm:       'F',
	KindPrison:     'P',
	KindLooseGold:  '=',
}

// Glyph returns the single-character symbol of a kind.
func (k Kind) Glyph() byte {
	if int(k) < NumKinds {
		return kindGlyphs[k]
	}
	return '?'
}

// FromRows builds a grid from glyph rows of equal width. Veins get a full
// deposit; '+' is claimed floor. Heart and portal default to the centre and
// the origin when absent.
func FromRows(rows ...string) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("from rows: empty grid")
	}
	g := NewGrid(len(rows[0]), len(rows))
	g.Heart = Cell{X: g.Width / 2, Y: g.Height / 2}

	lookup := make(map[byte]Kind, NumKinds)
	for k, b := range kindGlyphs {
		lookup[b] = Kind(k)
	}

	for y, row := range rows {
		if len(row) != g.Width {
			return nil, fmt.Errorf("from rows: row %d has width %d, want %d", y, len(row), g.Width)
		}
		for x := 0; x < len(row); x++ {
			c := Cell{X: x, Y: y}
			ch := row[x]
			claimed := false
			if ch == '+' {
				ch = '.'
				claimed = true
			}
			k, ok := lookup[ch]
			if !ok {
				return nil, fmt.Errorf("from rows: unknown glyph %q at %v", ch, c)
			}
			g.SetKind(c, k)
			switch k {
			case KindGoldVein:
				g.Get(c).GoldValue = VeinDeposit
			case KindHeart:
				g.Heart = c
			case KindPortal:
				g.Portal = c
			}
			if claimed {
				g.Claim(c)
			}
		}
	}
	return g, nil
}

// MustFromRows is FromRows that panics on malformed input.
func MustFromRows(rows ...string) *Grid {
	g, err := FromRows(rows...)
	if err != nil {
		panic(err)
	}
	return g
}

// Rows renders the grid back to glyph rows.
func (g *Grid) Rows() []string {
	out := make([]string, g.Height)
	var sb strings.Builder
	for y := 0; y < g.Height; y++ {
		sb.Reset()
		for x := 0; x < g.Width; x++ {
			t := g.At(x, y)
			if t.Kind == KindFloor && t.Claimed {
				sb.WriteByte('+')
				continue
			}
			sb.WriteByte(t.Kind.Glyph())
		}
		out[y] = sb.String()
	}
	return out
}
