// Package agents provides the creature data model, desire scoring, leveling
// and the per-tick creature state machine.
package agents

import (
	"fmt"

	"github.com/talgya/underkeep/internal/world"
)

// CreatureID is a unique identifier for a creature.
type CreatureID uint64

// Kind is the creature type.
type Kind uint8

const (
	KindWorker Kind = iota // Digs, claims, hauls gold
	KindGuard              // Paid, eats, trains, sleeps in a bed
	KindDummy              // Static training target
)

var kindNames = [...]string{"worker", "guard", "dummy"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, n := range kindNames {
		if n == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown creature kind %q", b)
}

// State is a creature's current activity.
type State uint8

const (
	StateIdle State = iota
	StateMovingDig
	StateDigging
	StateMovingReinforce
	StateReinforcing
	StateMovingClaim
	StateClaiming
	StateMovingPickup
	StateReturningGold
	StateSeekingWage
	StateWantTrain
	StateTraining
	StateMovingEat
	StateEating
	StateConstructingBed
	StateUnconscious
	StateLeaving
	StateStatic
)

var stateNames = [...]string{
	"IDLE", "MOVING_DIG", "DIGGING", "MOVING_REINFORCE", "REINFORCING",
	"MOVING_CLAIM", "CLAIMING", "MOVING_PICKUP", "RETURNING_GOLD",
	"SEEKING_WAGE", "WANT_TRAIN", "TRAINING", "MOVING_EAT", "EATING",
	"CONSTRUCTING_BED", "UNCONSCIOUS", "LEAVING", "STATIC",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, n := range stateNames {
		if n == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown creature state %q", b)
}

// Creature is one simulated inhabitant. Fields common to every kind live
// here; Worker and Guard carry the kind-specific parts and are nil for
// other kinds.
type Creature struct {
	ID   CreatureID `json:"id"`
	Name string     `json:"name"`
	Kind Kind       `json:"kind"`

	Pos    world.Cell  `json:"pos"`
	State  State       `json:"state"`
	Target *world.Cell `json:"target,omitempty"` // Set only through Roster

	Level     int     `json:"level"`
	XP        int     `json:"xp"`
	Health    float64 `json:"health"`
	MaxHealth int     `json:"max_health"`
	Damage    int     `json:"damage"`
	Happiness int     `json:"happiness"`

	WorkTimer int `json:"work_timer,omitempty"`
	IdleTimer int `json:"idle_timer,omitempty"`

	Worker *WorkerTraits `json:"worker,omitempty"`
	Guard  *GuardTraits  `json:"guard,omitempty"`
}

// WorkerTraits holds worker-only state.
type WorkerTraits struct {
	Gold int `json:"gold"` // Carried, 0–CarryCapacity
}

// GuardTraits holds guard-only state.
type GuardTraits struct {
	Wage   int         `json:"wage"`
	Hunger float64     `json:"hunger"` // 0–100
	Bed    *world.Cell `json:"bed,omitempty"`
}

// Carried returns the gold the creature is hauling.
func (c *Creature) Carried() int {
	if c.Worker == nil {
		return 0
	}
	return c.Worker.Gold
}

// Wage returns the creature's payday wage, zero for unpaid kinds.
func (c *Creature) Wage() int {
	if c.Guard == nil {
		return 0
	}
	return c.Guard.Wage
}

// Hunger returns the creature's hunger, zero for kinds that never eat.
func (c *Creature) Hunger() float64 {
	if c.Guard == nil {
		return 0
	}
	return c.Guard.Hunger
}

// Conscious reports whether the creature can act.
func (c *Creature) Conscious() bool {
	return c.Health > 0 && c.State != StateUnconscious
}

// Validate checks the per-kind field schema.
func (c *Creature) Validate() error {
	switch c.Kind {
	case KindWorker:
		if c.Worker == nil || c.Guard != nil {
			return fmt.Errorf("creature %d: worker needs worker traits only", c.ID)
		}
		if c.Worker.Gold < 0 || c.Worker.Gold > CarryCapacity {
			return fmt.Errorf("creature %d: carries %d gold", c.ID, c.Worker.Gold)
		}
	case KindGuard:
		if c.Guard == nil || c.Worker != nil {
			return fmt.Errorf("creature %d: guard needs guard traits only", c.ID)
		}
	case KindDummy:
		if c.Guard != nil || c.Worker != nil {
			return fmt.Errorf("creature %d: dummy carries traits", c.ID)
		}
	default:
		return fmt.Errorf("creature %d: unknown kind %d", c.ID, c.Kind)
	}
	if c.Level < 1 || c.Level > MaxLevel {
		return fmt.Errorf("creature %d: level %d out of range", c.ID, c.Level)
	}
	return nil
}

func (c *Creature) String() string {
	return fmt.Sprintf("%s#%d(%s)", c.Name, c.ID, c.Kind)
}
