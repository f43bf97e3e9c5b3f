package search

import (
	"context"
	"math"

	"github.com/domino14/lineup/board"
	"github.com/domino14/lineup/heuristic"
)

// Interval is a range of values one player's selection value may still take
// for the current line of play to matter.
type Interval struct {
	Low  float64
	High float64
}

// AlphaBeta searches like MiniMax but keeps one Interval per player and
// stops exploring a node's remaining candidates once some player's interval
// is empty. Intervals are expressed in the same currency as move selection:
// a player's own score minus the best score among the others.
//
// With two players this is alpha-beta on the score difference and picks the
// same move, scores and principal variation as MiniMax. With more players
// the pruning is a heuristic.
type AlphaBeta struct {
	engine
}

func NewAlphaBeta(ev heuristic.Evaluator, opts ...Option) *AlphaBeta {
	return &AlphaBeta{engine: newEngine(ev, opts)}
}

func (a *AlphaBeta) NextMove(ctx context.Context, req *Request) (*Result, error) {
	sc, slot, err := a.newSearchContext(ctx, req)
	if err != nil {
		return nil, err
	}
	bounds := make([]Interval, sc.nplayers)
	for i := range bounds {
		bounds[i] = Interval{Low: math.Inf(-1), High: math.Inf(1)}
	}
	var pv PVLine
	move, scores, _, err := a.alphabeta(sc, req.MaxDepth, slot, bounds, &pv)
	if err != nil {
		return nil, err
	}
	return sc.finish(AlphaBetaName, move, scores, pv), nil
}

// collapse turns a score vector into bounds that pin every player to the
// value it would select on.
func collapse(scores []float64) []Interval {
	out := make([]Interval, len(scores))
	for j := range scores {
		v := selectionValue(scores, j)
		out[j] = Interval{Low: v, High: v}
	}
	return out
}

// pruned reports whether some player's interval is empty. Every slot is
// checked; the mover's interval is addressed by its own slot.
func pruned(bounds []Interval, mover int) bool {
	if bounds[mover].Low > bounds[mover].High {
		return true
	}
	for j := range bounds {
		if j != mover && bounds[j].Low > bounds[j].High {
			return true
		}
	}
	return false
}

// alphabeta returns the chosen move, its scores and the node's bounds as
// seen by its parent. bounds is the parent's current bounds and is not
// modified.
func (a *AlphaBeta) alphabeta(sc *searchContext, depth, mover int, bounds []Interval,
	pv *PVLine) (board.Cell, []float64, []Interval, error) {

	if sc.isLeaf(depth) {
		scores, err := sc.evaluate(depth)
		if err != nil {
			return board.Cell{}, nil, nil, err
		}
		return board.Cell{}, scores, collapse(scores), nil
	}
	moves, fallback, err := sc.candidates()
	if err != nil {
		return board.Cell{}, nil, nil, err
	}
	if moves == nil {
		scores := sc.zeroScores()
		return board.Cell{}, scores, collapse(scores), nil
	}
	if fallback {
		sc.trace("fallback %c%v", board.SlotSymbol(mover), moves[0])
		pv.Update(moves[0], mover, PVLine{})
		scores := sc.zeroScores()
		return moves[0], scores, collapse(scores), nil
	}
	sc.stats.Nodes++

	cur := make([]Interval, len(bounds))
	copy(cur, bounds)
	childBounds := make([]Interval, len(bounds))

	var bestMove board.Cell
	var bestScores []float64
	bestValue := math.Inf(-1)
	childPV := PVLine{}
	next := sc.pos.NextSlot(mover)

	for i, c := range moves {
		sc.trace("play %c%v", board.SlotSymbol(mover), c)
		copy(childBounds, cur)
		sc.pos.Play(c, mover)
		_, scores, cb, err := a.alphabeta(sc, depth-1, next, childBounds, &childPV)
		sc.pos.Unplay()
		if err != nil {
			return board.Cell{}, nil, nil, err
		}
		if v := selectionValue(scores, mover); bestScores == nil || v > bestValue {
			bestValue = v
			bestScores = scores
			bestMove = c
			pv.Update(c, mover, childPV)
		}
		childPV.Clear()

		cur[mover].Low = math.Max(cur[mover].Low, cb[mover].High)
		for j := range cur {
			if j != mover {
				cur[j].High = math.Min(cur[j].High, cb[j].Low)
			}
		}
		if pruned(cur, mover) {
			if i < len(moves)-1 {
				sc.stats.Cutoffs++
				sc.trace("cutoff after %d of %d", i+1, len(moves))
			}
			break
		}
	}
	return bestMove, bestScores, collapse(bestScores), nil
}
