// Package movegen generates candidate moves for a position: the frontier of
// empty cells next to existing stones, or a random empty cell when no stone
// touches any empty cell.
package movegen

import (
	"errors"
	"slices"

	"lukechampine.com/frand"

	"github.com/domino14/lineup/board"
)

var ErrBoardFull = errors.New("no empty cell left on the board")

// Rand is the source of randomness for fallback moves.
type Rand interface {
	Intn(n int) int
}

type cryptoRand struct{}

func (cryptoRand) Intn(n int) int { return frand.Intn(n) }

// DefaultRand is safe for concurrent use.
var DefaultRand Rand = cryptoRand{}

// Generator is not safe for concurrent use; it keeps scratch space between
// calls.
type Generator struct {
	rng Rand

	// stamp marks cells already collected in the current call.
	stamp []uint32
	epoch uint32

	empties []board.Cell
}

// NewGenerator creates a generator. A nil rng means DefaultRand.
func NewGenerator(rng Rand) *Generator {
	if rng == nil {
		rng = DefaultRand
	}
	return &Generator{rng: rng}
}

// Frontier returns every empty cell within one step, in any of the eight
// directions, of a stone on the board.
func (g *Generator) Frontier(pos *board.Position) []board.Cell {
	return g.AppendFrontier(nil, pos)
}

// AppendFrontier appends the frontier to buf. Cells are ordered row-major, by
// ascending Y and then ascending X; searches break ties between equal moves
// by this order.
func (g *Generator) AppendFrontier(buf []board.Cell, pos *board.Position) []board.Cell {
	n := pos.Size()
	if len(g.stamp) != n*n {
		g.stamp = make([]uint32, n*n)
		g.epoch = 0
	}
	g.epoch++
	if g.epoch == 0 {
		clear(g.stamp)
		g.epoch = 1
	}
	start := len(buf)

	for _, s := range pos.Stones() {
		for _, d := range board.Neighborhood() {
			c := board.Cell{X: s.X + d.X, Y: s.Y + d.Y}
			if !pos.IsEmpty(c) {
				continue
			}
			idx := c.Y*n + c.X
			if g.stamp[idx] == g.epoch {
				continue
			}
			g.stamp[idx] = g.epoch
			buf = append(buf, c)
		}
	}
	slices.SortFunc(buf[start:], compareRowMajor)
	return buf
}

// RandomEmpty picks an empty cell uniformly at random from the whole board.
func (g *Generator) RandomEmpty(pos *board.Position) (board.Cell, error) {
	g.empties = pos.EmptyCells(g.empties[:0])
	if len(g.empties) == 0 {
		return board.Cell{}, ErrBoardFull
	}
	return g.empties[g.rng.Intn(len(g.empties))], nil
}

// Generate appends the candidate moves of pos to buf: the frontier, or a
// single random empty cell if the frontier is empty. fallback reports which
// one it was.
func (g *Generator) Generate(buf []board.Cell, pos *board.Position) (moves []board.Cell, fallback bool, err error) {
	start := len(buf)
	buf = g.AppendFrontier(buf, pos)
	if len(buf) > start {
		return buf, false, nil
	}
	c, err := g.RandomEmpty(pos)
	if err != nil {
		return buf, false, err
	}
	return append(buf, c), true, nil
}

func compareRowMajor(a, b board.Cell) int {
	if a.Y != b.Y {
		return a.Y - b.Y
	}
	return a.X - b.X
}
