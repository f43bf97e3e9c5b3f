package zobrist

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/lineup/board"
)

func TestPlayAndUnplay(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(15, 2)

	pos, err := board.NewPosition(15, 5, []board.Player{1, 2}, []board.Placement{
		{Cell: board.Cell{X: 7, Y: 7}, Player: 1},
		{Cell: board.Cell{X: 7, Y: 8}, Player: 2},
	}, nil)
	is.NoErr(err)
	h := z.Hash(pos)
	h1 := z.AddStone(h, board.Cell{X: 8, Y: 8}, 0)
	h2 := z.AddStone(h1, board.Cell{X: 8, Y: 8}, 0)
	is.Equal(h, h2)
	is.True(h1 != h2) // extremely unlikely to collide, but this is not technically always true.
}

func TestIncrementalMatchesFull(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(9, 3)
	is.True(z.Fits(9, 3))
	is.True(!z.Fits(9, 2))

	pos, err := board.NewPosition(9, 5, []board.Player{1, 2, 3}, []board.Placement{
		{Cell: board.Cell{X: 4, Y: 4}, Player: 3},
	}, []board.Cell{{X: 0, Y: 0}})
	is.NoErr(err)
	pos.SetHasher(z)
	is.Equal(pos.Hash(), z.Hash(pos))

	moves := []board.Cell{{X: 3, Y: 3}, {X: 5, Y: 5}, {X: 4, Y: 3}, {X: 8, Y: 8}}
	for i, c := range moves {
		pos.Play(c, i%3)
		is.Equal(pos.Hash(), z.Hash(pos))
	}
	for range moves {
		pos.Unplay()
		is.Equal(pos.Hash(), z.Hash(pos))
	}
}

func TestDepthKey(t *testing.T) {
	is := is.New(t)
	seen := map[uint64]bool{}
	for d := 0; d < 64; d++ {
		k := DepthKey(d)
		is.True(k != 0)
		is.True(!seen[k])
		seen[k] = true
	}
}

func TestBlockedCellsChangeKey(t *testing.T) {
	is := is.New(t)
	z := &Zobrist{}
	z.Initialize(5, 2)
	stones := []board.Placement{{Cell: board.Cell{X: 2, Y: 2}, Player: 1}}

	open, err := board.NewPosition(5, 4, []board.Player{1, 2}, stones, nil)
	is.NoErr(err)
	walled, err := board.NewPosition(5, 4, []board.Player{1, 2}, stones,
		[]board.Cell{{X: 1, Y: 2}, {X: 3, Y: 2}})
	is.NoErr(err)
	is.True(z.Hash(open) != z.Hash(walled))

	open.SetHasher(z)
	walled.SetHasher(z)
	is.Equal(open.Hash(), z.Hash(open))
	is.Equal(walled.Hash(), z.Hash(walled))
	is.True(open.Hash() != walled.Hash())
}
