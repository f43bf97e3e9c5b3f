package movegen

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/lineup/board"
)

// bruteFrontier scans every cell of the board.
func bruteFrontier(pos *board.Position) []board.Cell {
	var out []board.Cell
	n := pos.Size()
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			c := board.Cell{X: x, Y: y}
			if pos.At(c) != board.Empty {
				continue
			}
			for _, d := range board.Neighborhood() {
				nb := board.Cell{X: x + d.X, Y: y + d.Y}
				if pos.InBounds(nb) && pos.At(nb) >= 0 {
					out = append(out, c)
					break
				}
			}
		}
	}
	return out
}

func randomPosition(t *testing.T, rng *rand.Rand, size int) *board.Position {
	t.Helper()
	var placements []board.Placement
	var blocked []board.Cell
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			switch r := rng.Intn(10); {
			case r == 0:
				blocked = append(blocked, board.Cell{X: x, Y: y})
			case r < 3:
				placements = append(placements, board.Placement{
					Cell: board.Cell{X: x, Y: y}, Player: board.Player(1 + rng.Intn(3))})
			}
		}
	}
	pos, err := board.NewPosition(size, size, []board.Player{1, 2, 3}, placements, blocked)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func TestFrontierMatchesBruteForce(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewSource(42))
	gen := NewGenerator(rng)
	for i := 0; i < 300; i++ {
		pos := randomPosition(t, rng, 1+rng.Intn(9))
		got := gen.Frontier(pos)
		want := bruteFrontier(pos)
		is.Equal(len(got), len(want))
		for j := range want {
			is.Equal(got[j], want[j])
		}
	}
}

func TestFrontierEdges(t *testing.T) {
	is := is.New(t)
	pos, err := board.NewPosition(3, 3, []board.Player{1, 2},
		[]board.Placement{{Cell: board.Cell{X: 0, Y: 0}, Player: 1}}, []board.Cell{{X: 1, Y: 1}})
	is.NoErr(err)
	gen := NewGenerator(nil)
	is.Equal(gen.Frontier(pos), []board.Cell{{X: 1, Y: 0}, {X: 0, Y: 1}})
}

func TestAppendFrontierKeepsPrefix(t *testing.T) {
	is := is.New(t)
	pos, err := board.NewPosition(4, 3, []board.Player{1, 2},
		[]board.Placement{{Cell: board.Cell{X: 3, Y: 3}, Player: 2}}, nil)
	is.NoErr(err)
	gen := NewGenerator(nil)
	prefix := []board.Cell{{X: 9, Y: 9}}
	out := gen.AppendFrontier(prefix, pos)
	is.Equal(out, []board.Cell{{X: 9, Y: 9}, {X: 2, Y: 2}, {X: 3, Y: 2}, {X: 2, Y: 3}})
}

func TestGenerateFallback(t *testing.T) {
	is := is.New(t)
	pos, err := board.NewPosition(5, 3, []board.Player{1, 2}, nil, []board.Cell{{X: 2, Y: 2}})
	is.NoErr(err)
	gen := NewGenerator(rand.New(rand.NewSource(1)))
	moves, fallback, err := gen.Generate(nil, pos)
	is.NoErr(err)
	is.True(fallback)
	is.Equal(len(moves), 1)
	is.True(pos.IsEmpty(moves[0]))
}

func TestFallbackUniform(t *testing.T) {
	is := is.New(t)
	pos, err := board.NewPosition(4, 3, []board.Player{1, 2}, nil, []board.Cell{{X: 0, Y: 0}})
	is.NoErr(err)
	gen := NewGenerator(rand.New(rand.NewSource(7)))

	const trials = 15000
	counts := map[board.Cell]int{}
	for i := 0; i < trials; i++ {
		c, err := gen.RandomEmpty(pos)
		is.NoErr(err)
		counts[c]++
	}
	is.Equal(len(counts), 15)
	is.Equal(counts[board.Cell{X: 0, Y: 0}], 0)

	expected := float64(trials) / 15
	chi2 := 0.0
	for _, n := range counts {
		d := float64(n) - expected
		chi2 += d * d / expected
	}
	// 14 degrees of freedom; the 0.999 quantile is about 36.1.
	is.True(chi2 < 36.1)
}

func TestBoardFull(t *testing.T) {
	is := is.New(t)
	pos, err := board.NewPosition(2, 2, []board.Player{1, 2},
		[]board.Placement{
			{Cell: board.Cell{X: 0, Y: 0}, Player: 1},
			{Cell: board.Cell{X: 1, Y: 0}, Player: 2},
		}, []board.Cell{{X: 0, Y: 1}, {X: 1, Y: 1}})
	is.NoErr(err)
	gen := NewGenerator(nil)
	_, _, err = gen.Generate(nil, pos)
	is.True(errors.Is(err, ErrBoardFull))
	_, err = gen.RandomEmpty(pos)
	is.True(errors.Is(err, ErrBoardFull))
}
