package zobrist

import (
	"lukechampine.com/frand"

	"github.com/domino14/lineup/board"
)

const bignum = 1<<63 - 2

// Zobrist hashes N-in-a-row positions.
// https://en.wikipedia.org/wiki/Zobrist_hashing
//
// A key is the XOR of one random number per (cell, slot) stone and one per
// blocked cell, so the order in which stones were placed does not matter.
type Zobrist struct {
	posTable     [][]uint64
	blockedTable []uint64
	boardDim     int
	players  int
}

// Initialize allocates fresh random keys for a board of boardDim x boardDim
// cells and the given number of players.
func (z *Zobrist) Initialize(boardDim, players int) {
	z.boardDim = boardDim
	z.players = players
	z.posTable = make([][]uint64, boardDim*boardDim)
	z.blockedTable = make([]uint64, boardDim*boardDim)
	for i := range z.posTable {
		z.posTable[i] = make([]uint64, players)
		for j := 0; j < players; j++ {
			z.posTable[i][j] = frand.Uint64n(bignum) + 1
		}
		z.blockedTable[i] = frand.Uint64n(bignum) + 1
	}
}

// Fits is true when the tables cover the given dimensions.
func (z *Zobrist) Fits(boardDim, players int) bool {
	return z.posTable != nil && z.boardDim == boardDim && z.players == players
}

// Key is the contribution of one stone.
func (z *Zobrist) Key(c board.Cell, slot int) uint64 {
	return z.posTable[c.Y*z.boardDim+c.X][slot]
}

// BlockedKey is the contribution of a blocked cell.
func (z *Zobrist) BlockedKey(c board.Cell) uint64 {
	return z.blockedTable[c.Y*z.boardDim+c.X]
}

// Hash computes the key of every blocked cell and stone in the position from
// scratch.
func (z *Zobrist) Hash(pos *board.Position) uint64 {
	key := uint64(0)
	for _, c := range pos.BlockedCells() {
		key ^= z.BlockedKey(c)
	}
	for _, s := range pos.Stones() {
		key ^= z.Key(s.Cell, s.Slot)
	}
	return key
}

// AddStone updates key with a stone placed or removed; XOR is its own
// inverse.
func (z *Zobrist) AddStone(key uint64, c board.Cell, slot int) uint64 {
	return key ^ z.Key(c, slot)
}

// DepthKey mixes a search-branch length into a key, so that the same stones
// reached at different depths hash apart.
// https://stackoverflow.com/a/12996028/1737333
func DepthKey(depth int) uint64 {
	x := uint64(depth) + 1
	x = (x ^ (x >> 30)) * uint64(0xbf58476d1ce4e5b9)
	x = (x ^ (x >> 27)) * uint64(0x94d049bb133111eb)
	x = x ^ (x >> 31)
	return x
}
