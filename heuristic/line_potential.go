package heuristic

import (
	"math"

	"github.com/domino14/lineup/board"
)

// LinePotential scores the stones placed during the search by how close each
// one came to a line. For every branch stone it looks at all windows of
// line-length cells through that stone in the four line directions. A window
// counts the owner's stones in it, but an opposing stone or a blocked cell
// zeroes the count. The best count is raised to the power
// maxDepth - ply + 1, with ply the stone's 1-based ply from the root, so the
// stones the searching player commits to first weigh the most.
type LinePotential struct{}

func (LinePotential) Evaluate(pos *board.Position, maxDepth int) []float64 {
	scores := make([]float64, pos.NumPlayers())
	for i, s := range pos.BranchStones() {
		best := bestWindow(pos, s)
		localDepth := maxDepth - (i + 1) + 1
		scores[s.Slot] += math.Pow(float64(best), float64(localDepth))
	}
	applyWin(pos, scores)
	return scores
}

func (LinePotential) Type() string {
	return LinePotentialName
}

// bestWindow returns the highest window count for a stone over all
// directions.
func bestWindow(pos *board.Position, s board.Stone) int {
	l := pos.LineLength()
	best := 0
	for _, d := range board.Directions {
		for back := 0; back < l; back++ {
			start := board.Cell{X: s.X - back*d.X, Y: s.Y - back*d.Y}
			end := board.Cell{X: start.X + (l-1)*d.X, Y: start.Y + (l-1)*d.Y}
			if !pos.InBounds(start) || !pos.InBounds(end) {
				continue
			}
			count := 0
			for j := 0; j < l; j++ {
				v := pos.At(board.Cell{X: start.X + j*d.X, Y: start.Y + j*d.Y})
				if v == board.Empty {
					continue
				}
				if v == board.Blocked || int(v) != s.Slot {
					count = 0
					break
				}
				count++
			}
			if count > best {
				best = count
			}
		}
	}
	return min(best, l)
}
