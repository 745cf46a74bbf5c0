// Package economy provides the colony ledger: mana, heart gold, the payday
// cycle and room construction costs.
package economy

import (
	"github.com/talgya/underkeep/internal/world"
)

// Ledger limits and cadences.
const (
	HeartCapacity    = 5000 // Gold the dungeon heart can hold
	ManaCap          = 5000
	PaydayPeriod     = 240 // Ticks between paydays
	GuardCooldownMin = 30  // Guard spawn cooldown range
	GuardCooldownMax = 60
)

// Ledger is the global economy state owned by the colony.
type Ledger struct {
	HeartGold       int `json:"heart_gold"`
	Mana            int `json:"mana"`
	PaydayCountdown int `json:"payday_countdown"`
	SpawnCooldown   int `json:"spawn_cooldown"`

	// Spent counts gold removed by construction and wages since the ledger
	// was created. Used by the conservation audit.
	Spent int `json:"spent"`
}

// NewLedger returns an empty ledger at the start of a payday cycle.
func NewLedger() *Ledger {
	return &Ledger{PaydayCountdown: PaydayPeriod}
}

// AccrueMana adds one mana per claimed tile, capped at ManaCap.
func (l *Ledger) AccrueMana(claimed int) {
	if claimed < 0 {
		return
	}
	l.Mana = min(ManaCap, l.Mana+claimed)
}

// AdvancePayday counts the payday timer down one tick. It returns true on
// the tick the timer reaches zero, resetting it to a full period.
func (l *Ledger) AdvancePayday() bool {
	l.PaydayCountdown--
	if l.PaydayCountdown <= 0 {
		l.PaydayCountdown = PaydayPeriod
		return true
	}
	return false
}

// HeartSpace returns how much more gold the heart accepts.
func (l *Ledger) HeartSpace() int {
	return max(0, HeartCapacity-l.HeartGold)
}

// DepositHeart moves up to amount into the heart and returns what it took.
func (l *Ledger) DepositHeart(amount int) int {
	n := min(amount, l.HeartSpace())
	if n <= 0 {
		return 0
	}
	l.HeartGold += n
	return n
}

// PayWage takes a wage from the heart. It pays nothing unless the full
// amount is available.
func (l *Ledger) PayWage(wage int) bool {
	if wage <= 0 || l.HeartGold < wage {
		return false
	}
	l.HeartGold -= wage
	l.Spent += wage
	return true
}

// TreasuryTotal sums the gold stored on every treasury tile.
func TreasuryTotal(g *world.Grid) int {
	total := 0
	g.Each(func(t *world.Tile) {
		if t.Kind == world.KindTreasury {
			total += t.GoldStored
		}
	})
	return total
}

// SecuredGold is gold the colony can spend: the heart plus every treasury.
func (l *Ledger) SecuredGold(g *world.Grid) int {
	return l.HeartGold + TreasuryTotal(g)
}
