package agents

// Desire is a candidate intention scored each tick.
type Desire uint8

const (
	DesireEat Desire = iota
	DesireSeekWage
	DesireTrain
	DesireWork
	DesireIdle
)

var desireNames = [...]string{"eat", "seek_wage", "train", "work", "idle"}

func (d Desire) String() string {
	if int(d) < len(desireNames) {
		return desireNames[d]
	}
	return "unknown"
}

// Scored is a desire with its utility.
type Scored struct {
	Desire Desire  `json:"desire"`
	Score  float64 `json:"score"`
}

// Desire scores.
const (
	scoreSeekWage  = 90
	scoreTrain     = 40
	scoreTrainGlad = 10 // Bonus when happiness > 5
	scoreWork      = 100
	scoreIdle      = 10
	trainBelow     = 4 // Guards stop training at this level
)

// Desires lists every eligible desire in priority order with its score.
func Desires(c *Creature) []Scored {
	out := make([]Scored, 0, 5)

	if c.Guard != nil && c.Guard.Hunger > 0 {
		score := c.Guard.Hunger
		if score > 50 {
			score += 20
		}
		if score > 80 {
			score += 50
		}
		out = append(out, Scored{DesireEat, score})
	}
	if c.Wage() > 0 && c.State == StateSeekingWage {
		out = append(out, Scored{DesireSeekWage, scoreSeekWage})
	}
	if c.Kind == KindGuard && c.Level < trainBelow {
		score := float64(scoreTrain)
		if c.Happiness > 5 {
			score += scoreTrainGlad
		}
		out = append(out, Scored{DesireTrain, score})
	}
	if c.Kind == KindWorker {
		out = append(out, Scored{DesireWork, scoreWork})
	}
	out = append(out, Scored{DesireIdle, scoreIdle})
	return out
}

// Best returns the highest-scoring desire. Earlier entries win ties.
func Best(c *Creature) Desire {
	ds := Desires(c)
	best := ds[0]
	for _, d := range ds[1:] {
		if d.Score > best.Score {
			best = d
		}
	}
	return best.Desire
}
