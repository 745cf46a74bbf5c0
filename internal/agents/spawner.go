// Creature spawning: base stats and names per kind.
package agents

import (
	"math/rand"

	"github.com/talgya/underkeep/internal/world"
)

// CarryCapacity is the most gold a worker can haul.
const CarryCapacity = 300

// Base stats per kind.
const (
	workerHealth = 50
	workerDamage = 5
	guardHealth  = 150
	guardDamage  = 30
	guardWage    = 5
	dummyHealth  = 9999
)

var (
	workerNames = []string{"Op", "Baz", "Fo", "Zot", "Taw", "Bip", "Mog", "Gub"}
	guardNames  = []string{"Grom", "Throk", "Varg", "Krug", "Drak", "Murn", "Zog", "Ruk"}
)

// Spawner creates creatures with unique IDs.
type Spawner struct {
	rng    *rand.Rand
	nextID CreatureID
}

// NewSpawner creates a creature spawner with the given seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// NextID returns the ID the next spawn will receive.
func (s *Spawner) NextID() CreatureID {
	return s.nextID
}

// SetNextID sets the next creature ID to be issued (used when restoring a save).
func (s *Spawner) SetNextID(id CreatureID) {
	if id < 1 {
		id = 1
	}
	s.nextID = id
}

// Spawn creates a level-1 creature of the given kind at pos.
func (s *Spawner) Spawn(kind Kind, pos world.Cell) *Creature {
	id := s.nextID
	s.nextID++

	c := &Creature{
		ID:    id,
		Kind:  kind,
		Pos:   pos,
		State: StateIdle,
		Level: 1,
	}

	switch kind {
	case KindWorker:
		c.Name = s.pick(workerNames)
		c.MaxHealth = workerHealth
		c.Damage = workerDamage
		c.Worker = &WorkerTraits{}
	case KindGuard:
		c.Name = s.pick(guardNames)
		c.MaxHealth = guardHealth
		c.Damage = guardDamage
		c.Guard = &GuardTraits{Wage: guardWage}
	case KindDummy:
		c.Name = "Dummy"
		c.MaxHealth = dummyHealth
		c.State = StateStatic
	}
	c.Health = float64(c.MaxHealth)
	return c
}

func (s *Spawner) pick(names []string) string {
	return names[s.rng.Intn(len(names))]
}
