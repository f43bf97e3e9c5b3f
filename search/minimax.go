package search

import (
	"context"
	"math"

	"github.com/domino14/lineup/board"
	"github.com/domino14/lineup/heuristic"
)

// MiniMax explores every candidate at every node down to the depth limit.
// Each player picks the move that maximises its own score minus the best
// score among the other players.
type MiniMax struct {
	engine
}

func NewMiniMax(ev heuristic.Evaluator, opts ...Option) *MiniMax {
	return &MiniMax{engine: newEngine(ev, opts)}
}

func (m *MiniMax) NextMove(ctx context.Context, req *Request) (*Result, error) {
	sc, slot, err := m.newSearchContext(ctx, req)
	if err != nil {
		return nil, err
	}
	var pv PVLine
	move, scores, err := m.minimax(sc, req.MaxDepth, slot, &pv)
	if err != nil {
		return nil, err
	}
	return sc.finish(MiniMaxName, move, scores, pv), nil
}

func (m *MiniMax) minimax(sc *searchContext, depth, mover int, pv *PVLine) (board.Cell, []float64, error) {
	if sc.isLeaf(depth) {
		scores, err := sc.evaluate(depth)
		return board.Cell{}, scores, err
	}
	moves, fallback, err := sc.candidates()
	if err != nil {
		return board.Cell{}, nil, err
	}
	if moves == nil {
		return board.Cell{}, sc.zeroScores(), nil
	}
	if fallback {
		sc.trace("fallback %c%v", board.SlotSymbol(mover), moves[0])
		pv.Update(moves[0], mover, PVLine{})
		return moves[0], sc.zeroScores(), nil
	}
	sc.stats.Nodes++

	var bestMove board.Cell
	var bestScores []float64
	bestValue := math.Inf(-1)
	childPV := PVLine{}
	next := sc.pos.NextSlot(mover)

	for _, c := range moves {
		sc.trace("play %c%v", board.SlotSymbol(mover), c)
		sc.pos.Play(c, mover)
		_, scores, err := m.minimax(sc, depth-1, next, &childPV)
		sc.pos.Unplay()
		if err != nil {
			return board.Cell{}, nil, err
		}
		if v := selectionValue(scores, mover); bestScores == nil || v > bestValue {
			bestValue = v
			bestScores = scores
			bestMove = c
			pv.Update(c, mover, childPV)
		}
		childPV.Clear()
	}
	return bestMove, bestScores, nil
}
