package world

// Kind is the material or room type of a tile.
type Kind uint8

const (
	KindBedrock    Kind = iota // Indestructible rock
	KindRock                   // Diggable rock
	KindGoldVein               // Diggable rock holding a gold deposit
	KindReinforced             // Reinforced wall, diggable but slower
	KindFloor
	KindHeart
	KindPortal
	KindTreasury
	KindLair
	KindBed
	KindTraining
	KindFarm
	KindPrison
	KindLooseGold // Floor carrying a loose gold pile
)

// NumKinds is the number of tile kinds.
const NumKinds = 14

// Deposit and storage limits.
const (
	VeinDeposit      = 500 // Gold in a freshly generated vein tile
	TreasuryCapacity = 500 // Gold a single treasury tile can hold
)

var kindNames = [NumKinds]string{
	"bedrock", "rock", "gold_vein", "reinforced", "floor", "heart", "portal",
	"treasury", "lair", "bed", "training", "farm", "prison", "loose_gold",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// IsSolid reports whether the kind is rock, vein or reinforced wall.
func (k Kind) IsSolid() bool {
	switch k {
	case KindBedrock, KindRock, KindGoldVein, KindReinforced:
		return true
	}
	return false
}

// Walkable reports whether a creature may stand on the kind.
// The heart is not solid but it blocks movement.
func (k Kind) Walkable() bool {
	return !k.IsSolid() && k != KindHeart
}

// Taggable reports whether the kind can be marked for digging.
func (k Kind) Taggable() bool {
	switch k {
	case KindRock, KindGoldVein, KindReinforced:
		return true
	}
	return false
}

// IsRoomFloor reports whether the kind can be re-stamped as a room.
func (k Kind) IsRoomFloor() bool {
	switch k {
	case KindFloor, KindLooseGold, KindPrison, KindLair, KindTreasury, KindTraining, KindFarm:
		return true
	}
	return false
}

// HoldsLooseGold reports whether gold can be dropped on the kind as a pile.
func (k Kind) HoldsLooseGold() bool {
	return k == KindFloor || k == KindLooseGold
}

// Tile is a single grid cell. Kind and Claimed are mutated through the
// Grid so its indexes stay consistent; gold and progress fields are plain.
type Tile struct {
	Pos        Cell   `json:"pos"`
	Kind       Kind   `json:"kind"`
	Tagged     bool   `json:"tagged,omitempty"`
	TagStamp   uint64 `json:"tag_stamp,omitempty"` // Tag ordering, equal for one drag
	Progress   int    `json:"progress,omitempty"`
	GoldValue  int    `json:"gold_value,omitempty"`  // Vein remaining or loose pile
	GoldStored int    `json:"gold_stored,omitempty"` // Treasury fill, or unrouted vein remainder
	Claimed    bool   `json:"claimed,omitempty"`
}

// IsSolid reports whether the tile blocks as rock.
func (t *Tile) IsSolid() bool {
	return t.Kind.IsSolid()
}

// Walkable reports whether a creature may stand on the tile.
func (t *Tile) Walkable() bool {
	return t.Kind.Walkable()
}

// Gold returns all gold held by the tile in any form.
func (t *Tile) Gold() int {
	return t.GoldValue + t.GoldStored
}
