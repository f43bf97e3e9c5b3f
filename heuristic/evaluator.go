// Package heuristic contains static evaluators for N-in-a-row positions.
// An evaluator looks at a position reached during a search and returns one
// score per player, in turn order.
package heuristic

import (
	"github.com/domino14/lineup/board"
)

const (
	// WinScore is what a player who completed a line during the search
	// gets, minus the ply of the winning stone, so that quicker wins rank
	// higher. It is small enough that every ply still changes the value.
	WinScore = 1e15
	// ScoreCap bounds every other score, so that own minus best other of
	// a win always beats that of any position without one.
	ScoreCap = WinScore / 4
)

// Evaluator scores a position for every player.
type Evaluator interface {
	// Evaluate returns a vector with one entry per slot of the position's
	// turn order. The stones placed during the current search are
	// pos.BranchStones(); maxDepth is the search's ply limit.
	Evaluate(pos *board.Position, maxDepth int) []float64
	Type() string
}

// OrderIndependent is implemented by evaluators whose result depends only on
// the set of stones and the branch length, not on the order in which the
// branch stones were placed. Only these can be cached.
type OrderIndependent interface {
	OrderIndependent() bool
}

// Preparer is implemented by evaluators that want to see the root position
// before a search starts.
type Preparer interface {
	Prepare(pos *board.Position)
}

// applyWin caps every score to ScoreCap and then overwrites the winner's
// entry if a line was completed during the search.
func applyWin(pos *board.Position, scores []float64) {
	for i, s := range scores {
		scores[i] = min(max(s, -ScoreCap), ScoreCap)
	}
	if slot, ply, ok := pos.Winner(); ok {
		scores[slot] = WinScore - float64(ply)
	}
}

func isOrderIndependent(e Evaluator) bool {
	oi, ok := e.(OrderIndependent)
	return ok && oi.OrderIndependent()
}
