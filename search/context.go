package search

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/domino14/lineup/board"
	"github.com/domino14/lineup/heuristic"
	"github.com/domino14/lineup/movegen"
	"github.com/domino14/lineup/stats"
)

// searchContext is everything one NextMove call mutates. It is created for
// the call and threaded through the recursion by pointer.
type searchContext struct {
	ctx      context.Context
	start    time.Time
	maxTime  time.Duration
	maxDepth int

	pos      *board.Position
	gen      *movegen.Generator
	eval     heuristic.Evaluator
	stats    *stats.SearchStats
	nplayers int

	// moveBufs[ply] holds the candidates of the node at that ply.
	moveBufs [][]board.Cell
	// expired latches once the budget or the context has run out.
	expired   bool
	logStream io.Writer

	cacheHitsBefore uint64
}

func (e *engine) newSearchContext(ctx context.Context, req *Request) (*searchContext, int, error) {
	if err := validate(req); err != nil {
		return nil, 0, err
	}
	pos, err := board.NewPosition(req.BoardSize, req.LineLength, req.TurnOrder, req.Placements, req.Blocked)
	if err != nil {
		return nil, 0, err
	}
	slot, ok := pos.SlotOf(req.Player)
	if !ok {
		return nil, 0, fmt.Errorf("%w: %d", ErrPlayerNotInTurnOrder, req.Player)
	}
	if p, ok := e.eval.(heuristic.Preparer); ok {
		p.Prepare(pos)
	}
	sc := &searchContext{
		ctx:       ctx,
		start:     time.Now(),
		maxTime:   req.MaxTime,
		maxDepth:  req.MaxDepth,
		pos:       pos,
		gen:       e.gen,
		eval:      e.eval,
		stats:     stats.NewSearchStats(req.MaxDepth),
		nplayers:  pos.NumPlayers(),
		moveBufs:  make([][]board.Cell, req.MaxDepth+1),
		logStream: e.logStream,
	}
	sc.cacheHitsBefore = cacheHits(e.eval)
	return sc, slot, nil
}

// outOfTime reports whether the search must stop expanding. Cancellation of
// the caller's context counts the same as an exhausted budget.
func (sc *searchContext) outOfTime() bool {
	if sc.expired {
		return true
	}
	if sc.ctx.Err() != nil || (sc.maxTime > 0 && time.Since(sc.start) > sc.maxTime) {
		sc.expired = true
	}
	return sc.expired
}

// isLeaf decides whether a node is evaluated instead of expanded. The root
// is always expanded, so a move is produced even with no time left.
func (sc *searchContext) isLeaf(depth int) bool {
	if sc.pos.SearchDepth() == 0 {
		return false
	}
	return depth == 0 || sc.pos.GameOver() || sc.outOfTime()
}

// evaluate scores a leaf and records how long it took and how much depth
// was left.
func (sc *searchContext) evaluate(depth int) ([]float64, error) {
	t := time.Now()
	scores := sc.eval.Evaluate(sc.pos, sc.maxDepth)
	elapsed := time.Since(t)
	if len(scores) != sc.nplayers {
		return nil, fmt.Errorf("%w: %s returned %d scores for %d players",
			ErrScoreVectorLength, sc.eval.Type(), len(scores), sc.nplayers)
	}
	sc.stats.RecordLeaf(elapsed, depth)
	sc.trace("leaf %v", scores)
	return scores, nil
}

// candidates returns the moves of the current node. A nil slice with a nil
// error means the board is full below the root.
func (sc *searchContext) candidates() ([]board.Cell, bool, error) {
	ply := sc.pos.SearchDepth()
	moves, fallback, err := sc.gen.Generate(sc.moveBufs[ply][:0], sc.pos)
	sc.moveBufs[ply] = moves
	if err != nil {
		if ply == 0 {
			return nil, false, err
		}
		return nil, false, nil
	}
	if fallback {
		sc.stats.Fallbacks++
	}
	return moves, fallback, nil
}

func (sc *searchContext) zeroScores() []float64 {
	return make([]float64, sc.nplayers)
}

// selectionValue is what the mover maximises: its own score minus the best
// score among the other players.
func selectionValue(scores []float64, mover int) float64 {
	if len(scores) == 1 {
		return scores[0]
	}
	best := math.Inf(-1)
	for j, s := range scores {
		if j != mover && s > best {
			best = s
		}
	}
	return scores[mover] - best
}

func (sc *searchContext) trace(format string, args ...any) {
	if sc.logStream == nil {
		return
	}
	indent := strings.Repeat("  ", sc.pos.SearchDepth())
	fmt.Fprintf(sc.logStream, indent+format+"\n", args...)
}

// finish fills in the result and logs the search summary.
func (sc *searchContext) finish(algo string, move board.Cell, scores []float64, pv PVLine) *Result {
	sc.stats.Elapsed = time.Since(sc.start)
	sc.stats.CacheHits = cacheHits(sc.eval) - sc.cacheHitsBefore
	log.Debug().
		Str("algorithm", algo).
		Str("evaluator", sc.eval.Type()).
		Stringer("move", move).
		Floats64("scores", scores).
		Str("pv", pv.NLBString()).
		Bool("timed-out", sc.expired).
		Object("stats", sc.stats).
		Msg("search-done")

	return &Result{
		Move:   move,
		Scores: scores,
		PV:     append([]board.Cell(nil), pv.Moves...),
		Stats:  sc.stats,
	}
}

type cacheStatser interface {
	CacheStats() (lookups, hits uint64)
}

func cacheHits(ev heuristic.Evaluator) uint64 {
	if cs, ok := ev.(cacheStatser); ok {
		_, hits := cs.CacheStats()
		return hits
	}
	return 0
}
