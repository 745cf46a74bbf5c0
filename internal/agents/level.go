package agents

// MaxLevel is the highest level a creature can reach.
const MaxLevel = 10

// LevelThreshold returns the xp needed to advance from level to level+1:
// 20 at level 1, doubling each level after.
func LevelThreshold(level int) int {
	if level < 1 {
		return 0
	}
	return 20 << (level - 1)
}

// GainXP grants xp and applies every level-up it pays for. Each level adds
// a tenth to max health and damage, fully heals, and raises a guard's wage.
// It returns the number of levels gained.
func (c *Creature) GainXP(n int) int {
	c.XP += n
	gained := 0
	for c.Level < MaxLevel {
		need := LevelThreshold(c.Level)
		if c.XP < need {
			break
		}
		c.XP -= need
		c.Level++
		c.MaxHealth += c.MaxHealth / 10
		c.Health = float64(c.MaxHealth)
		c.Damage += c.Damage / 10
		if c.Guard != nil {
			c.Guard.Wage++
		}
		gained++
	}
	return gained
}
