// Structure placement: finds where fixtures belong on a furnished grid.
package world

// TrainingCenters returns the centre of every fully formed 3×3 block of
// training floor, in row-major order. Overlapping blocks each report their
// own centre.
func (g *Grid) TrainingCenters() []Cell {
	if g.kinds[KindTraining] < 9 {
		return nil
	}
	var centers []Cell
	for y := 1; y < g.Height-1; y++ {
		for x := 1; x < g.Width-1; x++ {
			c := Cell{X: x, Y: y}
			if g.isTrainingBlock(c) {
				centers = append(centers, c)
			}
		}
	}
	return centers
}

func (g *Grid) isTrainingBlock(center Cell) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			t := g.Get(Cell{X: center.X + dx, Y: center.Y + dy})
			if t == nil || t.Kind != KindTraining {
				return false
			}
		}
	}
	return true
}
