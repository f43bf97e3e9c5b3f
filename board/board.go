package board

import (
	"fmt"
)

// Cell is a square of the board. X is the column and Y the row, both
// zero-based.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Player identifies the owner of a stone. The engine never interprets the
// value; it only addresses players by their slot in the turn order.
type Player int

// Placement is a stone on the board, as supplied by the caller.
type Placement struct {
	Cell   `yaml:",inline"`
	Player Player `json:"player" yaml:"player"`
}

// Square contents. Any non-negative value is the slot of the player who owns
// the stone on that square.
const (
	Empty   int8 = -1
	Blocked int8 = -2
)

// MaxBoardSize is the largest side length a Position accepts.
const MaxBoardSize = 1024

// MaxPlayers is the largest turn order a Position can hold; slots are stored
// in an int8.
const MaxPlayers = 127

// A Stone is an entry of the position's chronological stone log.
type Stone struct {
	Cell
	Slot int
	// Completes is set when this stone finished a line of the target length
	// for its owner.
	Completes bool
}

// Hasher provides a key for a stone of a given slot on a given cell, and one
// for a blocked cell. Keys are XORed together, so the hash of a position does
// not depend on move order.
type Hasher interface {
	Key(c Cell, slot int) uint64
	BlockedKey(c Cell) uint64
}

// neighborhood is the 8-neighbourhood of a cell.
var neighborhood = [8]Cell{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// Neighborhood returns the offsets of the 8 cells around a cell, in row-major
// order.
func Neighborhood() [8]Cell {
	return neighborhood
}

// Directions are the four primary line directions: horizontal, vertical,
// and the two diagonals.
var Directions = [4]Cell{{1, 0}, {0, 1}, {1, 1}, {1, -1}}
