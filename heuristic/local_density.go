package heuristic

import (
	"github.com/domino14/lineup/board"
)

// LocalDensity rewards stones for keeping company. For every stone on the
// board it counts same-player neighbours and opposing or blocked neighbours
// among the eight surrounding cells, and adds
//
//	(4-same)*same - opp + (8-same-opp)*2
//
// to its owner. Off-board neighbours count as neither, so they fall into the
// last term.
type LocalDensity struct{}

func (LocalDensity) Evaluate(pos *board.Position, maxDepth int) []float64 {
	scores := make([]float64, pos.NumPlayers())
	nb := board.Neighborhood()
	for _, s := range pos.Stones() {
		same, opp := 0, 0
		for _, d := range nb {
			c := board.Cell{X: s.X + d.X, Y: s.Y + d.Y}
			if !pos.InBounds(c) {
				continue
			}
			switch v := pos.At(c); {
			case v == board.Empty:
			case v == board.Blocked || int(v) != s.Slot:
				opp++
			default:
				same++
			}
		}
		scores[s.Slot] += float64((4-same)*same - opp + (8-same-opp)*2)
	}
	applyWin(pos, scores)
	return scores
}

func (LocalDensity) Type() string {
	return LocalDensityName
}

func (LocalDensity) OrderIndependent() bool {
	return true
}
