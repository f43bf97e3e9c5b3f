package heuristic

import (
	"strings"

	"github.com/samber/lo"

	"github.com/domino14/lineup/board"
)

// Weighted is an evaluator with a weight.
type Weighted struct {
	Evaluator Evaluator
	Weight    float64
}

type weightedScores struct {
	weight float64
	scores []float64
}

// Combined sums several weighted evaluators per slot.
type Combined struct {
	parts []Weighted
}

func NewCombined(parts ...Weighted) *Combined {
	return &Combined{parts: parts}
}

func (c *Combined) Evaluate(pos *board.Position, maxDepth int) []float64 {
	vecs := lo.Map(c.parts, func(w Weighted, _ int) weightedScores {
		return weightedScores{w.Weight, w.Evaluator.Evaluate(pos, maxDepth)}
	})
	scores := make([]float64, pos.NumPlayers())
	for slot := range scores {
		scores[slot] = lo.SumBy(vecs, func(v weightedScores) float64 {
			return v.weight * v.scores[slot]
		})
	}
	// Weights must not dilute a win.
	applyWin(pos, scores)
	return scores
}

func (c *Combined) Type() string {
	return strings.Join(lo.Map(c.parts, func(w Weighted, _ int) string {
		return w.Evaluator.Type()
	}), "+")
}

func (c *Combined) OrderIndependent() bool {
	return lo.EveryBy(c.parts, func(w Weighted) bool {
		return isOrderIndependent(w.Evaluator)
	})
}
