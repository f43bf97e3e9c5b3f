// Package search picks a move for an N-in-a-row position by exploring the
// game tree to a fixed depth under a time budget. Two strategies are
// available: exhaustive minimax and a multiplayer alpha-beta variant.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/domino14/lineup/board"
	"github.com/domino14/lineup/heuristic"
	"github.com/domino14/lineup/movegen"
	"github.com/domino14/lineup/stats"
)

var (
	ErrPlayerNotInTurnOrder = errors.New("searching player is not in the turn order")
	ErrInvalidDepth         = errors.New("search depth must be between 1 and MaxSearchDepth")
	ErrInvalidTimeBudget    = errors.New("time budget must not be negative")
	ErrScoreVectorLength    = errors.New("evaluator returned a score vector of the wrong length")
	ErrUnknownAlgorithm     = errors.New("unknown search algorithm")
)

const (
	MiniMaxName   = "minimax"
	AlphaBetaName = "alphabeta"
)

// MaxSearchDepth is the deepest ply limit a request may ask for.
const MaxSearchDepth = 64

// Request is an immutable snapshot of a game plus the search limits.
type Request struct {
	BoardSize  int
	LineLength int
	// Placements in the order they were made.
	Placements []board.Placement
	Blocked    []board.Cell
	TurnOrder  []board.Player
	// Player is the one to move.
	Player   board.Player
	MaxDepth int
	// MaxTime of zero means no time limit.
	MaxTime time.Duration
}

// Result is the outcome of a search.
type Result struct {
	Move board.Cell
	// Scores is the score vector, in turn order, that the chosen move led
	// to.
	Scores []float64
	// PV is the line of moves the search expects, starting with Move.
	PV    []board.Cell
	Stats *stats.SearchStats
}

// Algorithm chooses a move for the player in a request. Implementations are
// not safe for concurrent use.
type Algorithm interface {
	NextMove(ctx context.Context, req *Request) (*Result, error)
}

// Option configures an engine.
type Option func(*engine)

// WithRand sets the source of randomness for fallback moves.
func WithRand(rng movegen.Rand) Option {
	return func(e *engine) {
		e.gen = movegen.NewGenerator(rng)
	}
}

// WithLogStream writes a trace of every node the search visits to w.
func WithLogStream(w io.Writer) Option {
	return func(e *engine) {
		e.logStream = w
	}
}

// Names lists the available algorithms.
func Names() []string {
	return []string{MiniMaxName, AlphaBetaName}
}

// New returns the algorithm with the given name, evaluating leaves with ev.
func New(name string, ev heuristic.Evaluator, opts ...Option) (Algorithm, error) {
	switch name {
	case MiniMaxName:
		return NewMiniMax(ev, opts...), nil
	case AlphaBetaName:
		return NewAlphaBeta(ev, opts...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
}

// engine is the state an algorithm keeps between searches.
type engine struct {
	eval      heuristic.Evaluator
	gen       *movegen.Generator
	logStream io.Writer
}

func newEngine(ev heuristic.Evaluator, opts []Option) engine {
	e := engine{eval: ev}
	for _, o := range opts {
		o(&e)
	}
	if e.gen == nil {
		e.gen = movegen.NewGenerator(nil)
	}
	return e
}

// Evaluator returns the evaluator the engine scores leaves with.
func (e *engine) Evaluator() heuristic.Evaluator {
	return e.eval
}

func validate(req *Request) error {
	if req.MaxDepth < 1 || req.MaxDepth > MaxSearchDepth {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, req.MaxDepth)
	}
	if req.MaxTime < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeBudget, req.MaxTime)
	}
	return nil
}
