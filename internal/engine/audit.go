// Invariant audit: checks the colony against the rules every tick must
// preserve. Used by tests and by Restore.
package engine

import (
	"errors"
	"fmt"

	"github.com/zyedidia/generic/mapset"
	"github.com/zyedidia/generic/queue"

	"github.com/talgya/underkeep/internal/agents"
	"github.com/talgya/underkeep/internal/jobs"
	"github.com/talgya/underkeep/internal/world"
)

// jobStates are the worker states whose target is a job tile.
var jobStates = map[agents.State]bool{
	agents.StateMovingDig:       true,
	agents.StateDigging:         true,
	agents.StateMovingReinforce: true,
	agents.StateReinforcing:     true,
	agents.StateMovingClaim:     true,
	agents.StateClaiming:        true,
	agents.StateMovingPickup:    true,
}

// TotalGold sums every unit of gold in the colony: the heart, every tile
// (veins, loose piles, treasuries) and what creatures carry.
func (c *Colony) TotalGold() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.totalGold()
}

func (c *Colony) totalGold() int {
	total := c.ledger.HeartGold
	c.grid.Each(func(t *world.Tile) {
		total += t.Gold()
	})
	for _, cr := range c.roster.All() {
		total += cr.Carried()
	}
	return total
}

// Audit checks every colony invariant and returns all violations joined, or
// nil.
func (c *Colony) Audit() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.audit()
}

func (c *Colony) audit() error {
	var errs []error
	errs = append(errs, c.auditTiles()...)
	errs = append(errs, c.auditCreatures()...)
	if err := c.auditContiguity(); err != nil {
		errs = append(errs, err)
	}
	if got := c.totalGold() + c.ledger.Spent; got != c.baseline {
		errs = append(errs, fmt.Errorf("gold: %d held + %d spent, want %d", got-c.ledger.Spent, c.ledger.Spent, c.baseline))
	}
	if c.ledger.HeartGold < 0 {
		errs = append(errs, fmt.Errorf("heart gold %d is negative", c.ledger.HeartGold))
	}
	return errors.Join(errs...)
}

func (c *Colony) auditTiles() []error {
	var errs []error
	beds := 0
	c.grid.Each(func(t *world.Tile) {
		if t.Tagged && !t.Kind.Taggable() {
			errs = append(errs, fmt.Errorf("tile %v: tagged %s", t.Pos, t.Kind))
		}
		if t.Claimed && t.IsSolid() {
			errs = append(errs, fmt.Errorf("tile %v: claimed %s", t.Pos, t.Kind))
		}
		if t.GoldValue < 0 || t.GoldStored < 0 {
			errs = append(errs, fmt.Errorf("tile %v: negative gold", t.Pos))
		}
		if t.Kind == world.KindTreasury && t.GoldStored > world.TreasuryCapacity {
			errs = append(errs, fmt.Errorf("tile %v: treasury holds %d", t.Pos, t.GoldStored))
		}
		if t.Kind == world.KindBed {
			beds++
			if _, ok := c.beds.Owner(t.Pos); !ok {
				errs = append(errs, fmt.Errorf("tile %v: bed without owner", t.Pos))
			}
		}
	})
	if beds != c.beds.Len() {
		errs = append(errs, fmt.Errorf("beds: %d bed tiles, %d owned", beds, c.beds.Len()))
	}
	if _, err := agents.RestoreBeds(c.grid, c.roster, c.beds.Entries()); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func (c *Colony) auditCreatures() []error {
	var errs []error
	jobLoad := make(map[world.Cell]int)
	targets := make(map[world.Cell]int)
	for _, cr := range c.roster.All() {
		if err := cr.Validate(); err != nil {
			errs = append(errs, err)
		}
		if !c.grid.InBounds(cr.Pos) {
			errs = append(errs, fmt.Errorf("creature %d: at %v outside the grid", cr.ID, cr.Pos))
		}
		if cr.Target == nil {
			continue
		}
		targets[*cr.Target]++
		if jobStates[cr.State] {
			jobLoad[*cr.Target]++
		}
	}
	for cell, n := range jobLoad {
		if n > jobs.MaxAssignees {
			errs = append(errs, fmt.Errorf("density: %d workers on %v", n, cell))
		}
	}
	got := c.roster.Assignments()
	if len(got) != len(targets) {
		errs = append(errs, fmt.Errorf("assignments: %d cells counted, %d targeted", len(got), len(targets)))
	}
	for cell, n := range targets {
		if got[cell] != n {
			errs = append(errs, fmt.Errorf("assignments: %v counted %d, targeted %d", cell, got[cell], n))
		}
	}
	return errs
}

// auditContiguity checks that every claimed tile is reachable from the
// heart through orthogonally adjacent claimed tiles.
func (c *Colony) auditContiguity() error {
	heart := c.grid.Heart
	seen := mapset.New[world.Cell]()
	q := queue.New[world.Cell]()
	q.Enqueue(heart)
	seen.Put(heart)

	reached := 0
	for !q.Empty() {
		cur := q.Dequeue()
		for _, d := range world.Dirs4 {
			n := cur.Add(d)
			if seen.Has(n) {
				continue
			}
			t := c.grid.Get(n)
			if t == nil || !t.Claimed {
				continue
			}
			seen.Put(n)
			reached++
			q.Enqueue(n)
		}
	}
	if claimed := c.grid.ClaimedCount(); reached != claimed {
		return fmt.Errorf("claims: %d of %d claimed tiles connect to the heart", reached, claimed)
	}
	return nil
}
