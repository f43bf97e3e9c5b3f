package board

import (
	"fmt"

	"github.com/samber/lo"
)

// Position is the complete state a search reasons about: board extent, line
// length, turn order, blocked squares and the chronological stone log.
//
// The stone log is an arena shared by an entire search. A node of the search
// tree is nothing more than a log length; Play appends a stone and Unplay
// removes it again, so a parent's view is exactly restored before a sibling is
// explored. Blocked squares and the turn order never change.
type Position struct {
	size       int
	lineLength int
	turnOrder  []Player
	squares    []int8
	blocked    []Cell

	stones []Stone
	// root is the number of stones that existed when the search began.
	root int

	hasher Hasher
	// hashes[i] is the position key after i stones have been played.
	hashes []uint64
}

// NewPosition validates a snapshot and builds a Position from it. The
// placements must be in chronological order. The root marker is set after the
// last placement.
func NewPosition(size, lineLength int, turnOrder []Player, placements []Placement,
	blocked []Cell) (*Position, error) {

	if size <= 0 || size > MaxBoardSize {
		return nil, fmt.Errorf("%w: %d", ErrInvalidBoardSize, size)
	}
	if lineLength < 1 || lineLength > size {
		return nil, fmt.Errorf("%w: %d on a board of size %d", ErrInvalidLineLength, lineLength, size)
	}
	if len(turnOrder) == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidTurnOrder)
	}
	if len(turnOrder) > MaxPlayers {
		return nil, fmt.Errorf("%w: %d players, at most %d supported", ErrInvalidTurnOrder,
			len(turnOrder), MaxPlayers)
	}
	if dups := lo.FindDuplicates(turnOrder); len(dups) > 0 {
		return nil, fmt.Errorf("%w: player %d appears twice", ErrInvalidTurnOrder, dups[0])
	}

	pos := &Position{
		size:       size,
		lineLength: lineLength,
		turnOrder:  append([]Player(nil), turnOrder...),
		squares:    make([]int8, size*size),
		stones:     make([]Stone, 0, len(placements)+16),
		hashes:     []uint64{0},
	}
	for i := range pos.squares {
		pos.squares[i] = Empty
	}
	for _, c := range blocked {
		if !pos.InBounds(c) {
			return nil, fmt.Errorf("%w: blocked cell %v", ErrOutOfBounds, c)
		}
		if pos.squares[pos.index(c)] == Blocked {
			continue
		}
		pos.squares[pos.index(c)] = Blocked
		pos.blocked = append(pos.blocked, c)
	}
	for _, pl := range placements {
		slot, ok := pos.SlotOf(pl.Player)
		if !ok {
			return nil, fmt.Errorf("%w: %d at %v", ErrUnknownPlayer, pl.Player, pl.Cell)
		}
		if !pos.InBounds(pl.Cell) {
			return nil, fmt.Errorf("%w: placement %v", ErrOutOfBounds, pl.Cell)
		}
		switch pos.squares[pos.index(pl.Cell)] {
		case Blocked:
			return nil, fmt.Errorf("%w: placement %v", ErrCellBlocked, pl.Cell)
		case Empty:
		default:
			return nil, fmt.Errorf("%w: placement %v", ErrCellOccupied, pl.Cell)
		}
		pos.Play(pl.Cell, slot)
	}
	pos.MarkRoot()
	return pos, nil
}

func (p *Position) index(c Cell) int {
	return c.Y*p.size + c.X
}

// Size is the board's side length.
func (p *Position) Size() int {
	return p.size
}

// LineLength is the number of stones in a row that wins.
func (p *Position) LineLength() int {
	return p.lineLength
}

func (p *Position) NumPlayers() int {
	return len(p.turnOrder)
}

// TurnOrder returns the players in turn order. Callers must not modify it.
func (p *Position) TurnOrder() []Player {
	return p.turnOrder
}

// Player returns the player in the given slot.
func (p *Position) Player(slot int) Player {
	return p.turnOrder[slot]
}

// SlotOf returns the turn-order index of a player.
func (p *Position) SlotOf(player Player) (int, bool) {
	i := lo.IndexOf(p.turnOrder, player)
	return i, i >= 0
}

// NextSlot returns the slot that moves after the given one.
func (p *Position) NextSlot(slot int) int {
	return (slot + 1) % len(p.turnOrder)
}

func (p *Position) InBounds(c Cell) bool {
	return c.X >= 0 && c.Y >= 0 && c.X < p.size && c.Y < p.size
}

// At returns the contents of an on-board square: Empty, Blocked, or the slot
// of the stone's owner.
func (p *Position) At(c Cell) int8 {
	return p.squares[p.index(c)]
}

// IsEmpty is true for on-board squares with neither a stone nor a block.
func (p *Position) IsEmpty(c Cell) bool {
	return p.InBounds(c) && p.squares[p.index(c)] == Empty
}

// NumBlocked is the number of distinct blocked squares.
func (p *Position) NumBlocked() int {
	return len(p.blocked)
}

// BlockedCells returns the distinct blocked squares in input order. Callers
// must not modify it.
func (p *Position) BlockedCells() []Cell {
	return p.blocked
}

// NumEmpty is the number of squares still available to play.
func (p *Position) NumEmpty() int {
	return p.size*p.size - len(p.blocked) - len(p.stones)
}

// Stones is the whole chronological stone log. Callers must not modify it.
func (p *Position) Stones() []Stone {
	return p.stones
}

// BranchStones are the stones placed since the root marker, that is, during
// the current search branch.
func (p *Position) BranchStones() []Stone {
	return p.stones[p.root:]
}

// SearchDepth is the number of stones placed since the root marker.
func (p *Position) SearchDepth() int {
	return len(p.stones) - p.root
}

// LastStone returns the most recently placed stone.
func (p *Position) LastStone() (Stone, bool) {
	if len(p.stones) == 0 {
		return Stone{}, false
	}
	return p.stones[len(p.stones)-1], true
}

// GameOver is true when a stone of the current search branch finished a
// line. A search stops at the first such stone, so only the last one needs to
// be checked.
func (p *Position) GameOver() bool {
	if len(p.stones) == p.root {
		return false
	}
	return p.stones[len(p.stones)-1].Completes
}

// Winner returns the owner of the first branch stone that finished a line
// and the 1-based ply at which it was placed.
func (p *Position) Winner() (slot, ply int, ok bool) {
	for i, s := range p.BranchStones() {
		if s.Completes {
			return s.Slot, i + 1, true
		}
	}
	return -1, 0, false
}

// MarkRoot makes the current log length the root of the search.
func (p *Position) MarkRoot() {
	p.root = len(p.stones)
}

// Play places a stone for the given slot. The square must be empty; the
// move generator guarantees this during a search.
func (p *Position) Play(c Cell, slot int) {
	p.squares[p.index(c)] = int8(slot)
	p.stones = append(p.stones, Stone{
		Cell:      c,
		Slot:      slot,
		Completes: p.completesLine(c, slot),
	})
	var key uint64
	if p.hasher != nil {
		key = p.hashes[len(p.hashes)-1] ^ p.hasher.Key(c, slot)
	}
	p.hashes = append(p.hashes, key)
}

// Unplay removes the most recent stone.
func (p *Position) Unplay() {
	last := p.stones[len(p.stones)-1]
	p.squares[p.index(last.Cell)] = Empty
	p.stones = p.stones[:len(p.stones)-1]
	p.hashes = p.hashes[:len(p.hashes)-1]
}

// SetHasher attaches a hasher and recomputes the key of every log prefix.
// Blocked squares are part of every key. Passing nil detaches it.
func (p *Position) SetHasher(h Hasher) {
	p.hasher = h
	p.hashes = p.hashes[:1]
	p.hashes[0] = 0
	if h != nil {
		for _, c := range p.blocked {
			p.hashes[0] ^= h.BlockedKey(c)
		}
	}
	for _, s := range p.stones {
		var key uint64
		if h != nil {
			key = p.hashes[len(p.hashes)-1] ^ h.Key(s.Cell, s.Slot)
		}
		p.hashes = append(p.hashes, key)
	}
}

// Hasher returns the attached hasher, if any.
func (p *Position) Hasher() Hasher {
	return p.hasher
}

// Hash is the key of the blocked squares and current stones under the
// attached hasher, or 0.
func (p *Position) Hash() uint64 {
	return p.hashes[len(p.hashes)-1]
}

// EmptyCells appends every playable square to buf in row-major order.
func (p *Position) EmptyCells(buf []Cell) []Cell {
	for y := 0; y < p.size; y++ {
		for x := 0; x < p.size; x++ {
			if p.squares[y*p.size+x] == Empty {
				buf = append(buf, Cell{x, y})
			}
		}
	}
	return buf
}

// Clone returns an independent copy, including the root marker and hasher.
func (p *Position) Clone() *Position {
	c := &Position{
		size:       p.size,
		lineLength: p.lineLength,
		turnOrder:  p.turnOrder,
		squares:    append([]int8(nil), p.squares...),
		blocked:    p.blocked,
		stones:     append(make([]Stone, 0, cap(p.stones)), p.stones...),
		root:       p.root,
		hasher:     p.hasher,
		hashes:     append([]uint64(nil), p.hashes...),
	}
	return c
}

func (p *Position) completesLine(c Cell, slot int) bool {
	for _, d := range Directions {
		if 1+p.Run(c, d, slot)+p.Run(c, Cell{-d.X, -d.Y}, slot) >= p.lineLength {
			return true
		}
	}
	return false
}

// Run counts consecutive stones of the given slot starting next to c and
// walking in direction d. c itself is not counted.
func (p *Position) Run(c Cell, d Cell, slot int) int {
	n := 0
	for {
		c = Cell{c.X + d.X, c.Y + d.Y}
		if !p.InBounds(c) || p.squares[p.index(c)] != int8(slot) {
			return n
		}
		n++
	}
}
