package heuristic

import (
	"errors"
	"fmt"
	"math"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"

	"github.com/domino14/lineup/board"
	"github.com/domino14/lineup/zobrist"
)

var ErrNotCacheable = errors.New("evaluator depends on stone order and cannot be cached")

const (
	minTablePower = 10
	maxTablePower = 30
)

// ScoreTable is a fixed-size, always-replace table of score vectors indexed
// by the low bits of a position key. Vectors are stored in one flat slice
// with a fixed stride.
type ScoreTable struct {
	keys         []uint64
	scores       []float64
	stride       int
	sizePowerOf2 int
	sizeMask     uint64

	lookups uint64
	hits    uint64
	stored  uint64
}

// entrySize estimates the bytes used by one entry.
func entrySize(players int) int {
	return 8 + 8*players
}

// Reset sizes the table for the given number of players. A positive
// sizePowerOf2 is used as is; otherwise the table takes roughly
// fractionOfMemory of the system memory.
func (t *ScoreTable) Reset(fractionOfMemory float64, sizePowerOf2, players int) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize(players)))
	if sizePowerOf2 <= 0 {
		// biggest power of 2 lower than desired.
		sizePowerOf2 = int(math.Log2(max(desiredNElems, 1)))
	}
	sizePowerOf2 = min(max(sizePowerOf2, minTablePower), maxTablePower)

	numElems := 1 << sizePowerOf2
	reset := false
	if t.keys != nil && len(t.keys) == numElems && t.stride == players {
		reset = true
		clear(t.keys)
	} else {
		t.keys = make([]uint64, numElems)
		t.scores = make([]float64, numElems*players)
	}
	t.stride = players
	t.sizePowerOf2 = sizePowerOf2
	t.sizeMask = uint64(numElems - 1)
	t.lookups, t.hits, t.stored = 0, 0, 0

	log.Debug().Int("num-elems", numElems).
		Float64("desired-num-elems", desiredNElems).
		Int("estimated-total-memory-bytes", numElems*entrySize(players)).
		Uint64("total-system-memory-bytes", totalMem).
		Bool("reset", reset).
		Msg("score-table-size")
}

// Clear drops every entry but keeps the allocation.
func (t *ScoreTable) Clear() {
	clear(t.keys)
}

func (t *ScoreTable) lookup(key uint64) ([]float64, bool) {
	t.lookups++
	idx := key & t.sizeMask
	// A zero slot is empty; position keys are never zero once mixed with a
	// depth key.
	if t.keys[idx] != key || key == 0 {
		return nil, false
	}
	t.hits++
	off := int(idx) * t.stride
	return t.scores[off : off+t.stride], true
}

func (t *ScoreTable) store(key uint64, scores []float64) {
	idx := key & t.sizeMask
	t.keys[idx] = key
	copy(t.scores[int(idx)*t.stride:], scores)
	t.stored++
}

// Stats returns the lookup and hit counts since the last Reset.
func (t *ScoreTable) Stats() (lookups, hits uint64) {
	return t.lookups, t.hits
}

// Cached memoises an order-independent evaluator. It is not safe for
// concurrent use.
type Cached struct {
	wrapped Evaluator
	table   ScoreTable
	zobrist *zobrist.Zobrist

	fraction     float64
	sizePowerOf2 int

	boardDim   int
	lineLength int
	players    int
}

// NewCached wraps an evaluator. The table takes fractionOfMemory of system
// memory, or 2^sizePowerOf2 entries when sizePowerOf2 is positive.
func NewCached(e Evaluator, fractionOfMemory float64, sizePowerOf2 int) (*Cached, error) {
	if !isOrderIndependent(e) {
		return nil, fmt.Errorf("%w: %s", ErrNotCacheable, e.Type())
	}
	return &Cached{
		wrapped:      e,
		fraction:     fractionOfMemory,
		sizePowerOf2: sizePowerOf2,
	}, nil
}

// Prepare attaches the cache's hasher to the root position and starts a new
// table whenever the game's dimensions change.
func (c *Cached) Prepare(pos *board.Position) {
	c.ensure(pos)
	pos.SetHasher(c.zobrist)
}

func (c *Cached) ensure(pos *board.Position) {
	if c.zobrist != nil && c.boardDim == pos.Size() && c.lineLength == pos.LineLength() &&
		c.players == pos.NumPlayers() {
		return
	}
	c.boardDim, c.lineLength, c.players = pos.Size(), pos.LineLength(), pos.NumPlayers()
	if c.zobrist == nil || !c.zobrist.Fits(c.boardDim, c.players) {
		log.Debug().Int("board-dim", c.boardDim).Int("players", c.players).Msg("creating-zobrist-hash")
		c.zobrist = &zobrist.Zobrist{}
		c.zobrist.Initialize(c.boardDim, c.players)
	}
	c.table.Reset(c.fraction, c.sizePowerOf2, c.players)
}

func (c *Cached) Evaluate(pos *board.Position, maxDepth int) []float64 {
	c.ensure(pos)
	var key uint64
	if h, ok := pos.Hasher().(*zobrist.Zobrist); ok && h == c.zobrist {
		key = pos.Hash()
	} else {
		key = c.zobrist.Hash(pos)
	}
	key ^= zobrist.DepthKey(pos.SearchDepth()<<8 | maxDepth&0xff)

	if cached, ok := c.table.lookup(key); ok {
		return append([]float64(nil), cached...)
	}
	scores := c.wrapped.Evaluate(pos, maxDepth)
	if len(scores) == c.players {
		c.table.store(key, scores)
	}
	return scores
}

func (c *Cached) Type() string {
	return "cached(" + c.wrapped.Type() + ")"
}

func (c *Cached) OrderIndependent() bool {
	return true
}

// CacheStats returns the lookup and hit counts of the current table.
func (c *Cached) CacheStats() (lookups, hits uint64) {
	return c.table.Stats()
}
