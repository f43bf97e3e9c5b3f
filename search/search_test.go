package search

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/lineup/board"
	"github.com/domino14/lineup/heuristic"
	"github.com/domino14/lineup/movegen"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

func pl(x, y int, p board.Player) board.Placement {
	return board.Placement{Cell: board.Cell{X: x, Y: y}, Player: p}
}

func algorithms(ev heuristic.Evaluator, seed int64) map[string]Algorithm {
	return map[string]Algorithm{
		MiniMaxName:   NewMiniMax(ev, WithRand(rand.New(rand.NewSource(seed)))),
		AlphaBetaName: NewAlphaBeta(ev, WithRand(rand.New(rand.NewSource(seed)))),
	}
}

func rootPosition(t *testing.T, req *Request) *board.Position {
	t.Helper()
	pos, err := board.NewPosition(req.BoardSize, req.LineLength, req.TurnOrder, req.Placements, req.Blocked)
	if err != nil {
		t.Fatal(err)
	}
	return pos
}

func isLegal(pos *board.Position, c board.Cell) bool {
	return pos.IsEmpty(c)
}

func TestDepthOneIdentity(t *testing.T) {
	is := is.New(t)
	req := &Request{
		BoardSize:  7,
		LineLength: 4,
		Placements: []board.Placement{pl(3, 3, 1), pl(3, 4, 2), pl(4, 4, 1), pl(2, 2, 2)},
		Blocked:    []board.Cell{{X: 5, Y: 5}},
		TurnOrder:  []board.Player{1, 2},
		Player:     1,
		MaxDepth:   1,
	}
	for _, ev := range []heuristic.Evaluator{heuristic.LinePotential{}, heuristic.LocalDensity{}} {
		pos := rootPosition(t, req)
		var want board.Cell
		var wantScores []float64
		best := math.Inf(-1)
		for _, c := range movegen.NewGenerator(nil).Frontier(pos) {
			pos.Play(c, 0)
			scores := ev.Evaluate(pos, 1)
			pos.Unplay()
			if v := scores[0] - scores[1]; v > best {
				best, want, wantScores = v, c, scores
			}
		}
		for name, algo := range algorithms(ev, 1) {
			res, err := algo.NextMove(context.Background(), req)
			is.NoErr(err)
			if res.Move != want {
				t.Errorf("%s/%s: expected %v, got %v", name, ev.Type(), want, res.Move)
			}
			is.Equal(res.Scores, wantScores)
			is.Equal(res.PV, []board.Cell{want})
			is.Equal(res.Stats.DepthHistogram, []int{res.Stats.Leaves()})
		}
	}
}

func TestWinningMoveDominates(t *testing.T) {
	is := is.New(t)
	wins := map[board.Cell]bool{{X: 0, Y: 3}: true, {X: 4, Y: 3}: true}
	for depth := 1; depth <= 3; depth++ {
		req := &Request{
			BoardSize:  7,
			LineLength: 4,
			Placements: []board.Placement{
				pl(1, 3, 1), pl(1, 1, 2), pl(2, 3, 1), pl(2, 1, 2), pl(3, 3, 1), pl(5, 5, 2),
			},
			TurnOrder: []board.Player{1, 2},
			Player:    1,
			MaxDepth:  depth,
		}
		for _, ev := range []heuristic.Evaluator{heuristic.LinePotential{}, heuristic.LocalDensity{}} {
			for name, algo := range algorithms(ev, 1) {
				res, err := algo.NextMove(context.Background(), req)
				is.NoErr(err)
				if !wins[res.Move] {
					t.Errorf("depth %d %s/%s: expected a winning move, got %v", depth, name, ev.Type(), res.Move)
				}
				is.Equal(res.Scores[0], heuristic.WinScore-1)
				is.Equal(len(res.PV), 1)
			}
		}
	}
}

func TestBlockOpponentWin(t *testing.T) {
	is := is.New(t)
	// Player 2 threatens (3,0); player 1 cannot win in one.
	req := &Request{
		BoardSize:  6,
		LineLength: 4,
		Placements: []board.Placement{
			pl(0, 5, 1), pl(0, 0, 2), pl(5, 5, 1), pl(1, 0, 2), pl(5, 3, 1), pl(2, 0, 2),
		},
		Blocked:   []board.Cell{{X: 3, Y: 1}},
		TurnOrder: []board.Player{1, 2},
		Player:    1,
		MaxDepth:  2,
	}
	for name, algo := range algorithms(heuristic.LinePotential{}, 1) {
		res, err := algo.NextMove(context.Background(), req)
		is.NoErr(err)
		if res.Move != (board.Cell{X: 3, Y: 0}) {
			t.Errorf("%s: expected block at (3,0), got %v", name, res.Move)
		}
	}
}

func randomRequest(rng *rand.Rand, size, lineLength, nstones int, blockedP float64) *Request {
	req := &Request{
		BoardSize:  size,
		LineLength: lineLength,
		TurnOrder:  []board.Player{1, 2},
	}
	cells := rng.Perm(size * size)
	k := 0
	for ; k < len(cells) && len(req.Placements) < nstones; k++ {
		c := board.Cell{X: cells[k] % size, Y: cells[k] / size}
		req.Placements = append(req.Placements, board.Placement{Cell: c, Player: board.Player(1 + k%2)})
	}
	for ; k < len(cells); k++ {
		if rng.Float64() < blockedP {
			req.Blocked = append(req.Blocked, board.Cell{X: cells[k] % size, Y: cells[k] / size})
		}
	}
	req.Player = board.Player(1 + len(req.Placements)%2)
	return req
}

func TestAlphaBetaMatchesMiniMax(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewSource(11))
	for _, ev := range []heuristic.Evaluator{heuristic.LinePotential{}, heuristic.LocalDensity{},
		heuristic.NewCombined(heuristic.Weighted{Evaluator: heuristic.LinePotential{}, Weight: 1},
			heuristic.Weighted{Evaluator: heuristic.LocalDensity{}, Weight: 0.25})} {
		mm := NewMiniMax(ev)
		ab := NewAlphaBeta(ev)
		for trial := 0; trial < 60; trial++ {
			req := randomRequest(rng, 4, 3, 1+rng.Intn(5), 0)
			req.MaxDepth = 1 + trial%3

			mres, err := mm.NextMove(context.Background(), req)
			is.NoErr(err)
			ares, err := ab.NextMove(context.Background(), req)
			is.NoErr(err)

			is.Equal(ares.Move, mres.Move)
			is.Equal(ares.Scores, mres.Scores)
			is.Equal(ares.PV, mres.PV)
			is.True(ares.Stats.Leaves() <= mres.Stats.Leaves())
			is.Equal(mres.Stats.Cutoffs, 0)
		}
	}
}

// rankEvaluator gives the first player minus the row-major index of the
// first stone placed in the search, and the second player nothing.
type rankEvaluator struct{ size int }

func (r rankEvaluator) Evaluate(pos *board.Position, maxDepth int) []float64 {
	first := pos.BranchStones()[0]
	return []float64{-float64(first.Y*r.size + first.X), 0}
}

func (r rankEvaluator) Type() string { return "rank" }

func TestAlphaBetaPrunes(t *testing.T) {
	is := is.New(t)
	req := &Request{
		BoardSize:  5,
		LineLength: 5,
		Placements: []board.Placement{pl(2, 2, 2)},
		TurnOrder:  []board.Player{1, 2},
		Player:     1,
		MaxDepth:   2,
	}
	ev := rankEvaluator{size: 5}
	mres, err := NewMiniMax(ev).NextMove(context.Background(), req)
	is.NoErr(err)
	ares, err := NewAlphaBeta(ev).NextMove(context.Background(), req)
	is.NoErr(err)

	is.Equal(mres.Move, board.Cell{X: 1, Y: 1})
	is.Equal(ares.Move, mres.Move)
	is.Equal(ares.Scores, mres.Scores)
	is.Equal(ares.PV, mres.PV)
	is.True(ares.Stats.Leaves() < mres.Stats.Leaves())
	// Every root move after the first is refuted by its first reply.
	is.Equal(ares.Stats.Cutoffs, 7)
}

func TestBlockedCellsNeverChosen(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewSource(5))
	for trial := 0; trial < 80; trial++ {
		size := 3 + rng.Intn(4)
		req := randomRequest(rng, size, min(3, size), rng.Intn(5), 0.4)
		req.MaxDepth = 1 + rng.Intn(2)
		for name, algo := range algorithms(heuristic.LinePotential{}, int64(trial)) {
			pos := rootPosition(t, req)
			res, err := algo.NextMove(context.Background(), req)
			if pos.NumEmpty() == 0 {
				is.True(errors.Is(err, movegen.ErrBoardFull))
				continue
			}
			is.NoErr(err)
			if !isLegal(pos, res.Move) {
				t.Errorf("%s: illegal move %v on\n%s", name, res.Move, pos.ToDisplayText())
			}
			for _, c := range res.PV {
				is.True(pos.IsEmpty(c))
				pos.Play(c, 0)
			}
		}
	}
}

func TestNearZeroTimeBudget(t *testing.T) {
	is := is.New(t)
	req := &Request{
		BoardSize:  9,
		LineLength: 5,
		Placements: []board.Placement{pl(4, 4, 1), pl(4, 5, 2), pl(5, 5, 1)},
		Blocked:    []board.Cell{{X: 3, Y: 3}},
		TurnOrder:  []board.Player{1, 2},
		Player:     2,
		MaxDepth:   3,
		MaxTime:    time.Nanosecond,
	}
	frontier := len(movegen.NewGenerator(nil).Frontier(rootPosition(t, req)))
	for name, algo := range algorithms(heuristic.LinePotential{}, 1) {
		res, err := algo.NextMove(context.Background(), req)
		is.NoErr(err)
		if !isLegal(rootPosition(t, req), res.Move) {
			t.Errorf("%s: illegal move %v", name, res.Move)
		}
		is.Equal(res.Stats.DepthHistogram, []int{0, 0, frontier})
		is.Equal(res.Stats.Leaves(), frontier)
	}
}

func TestCancelledContext(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := &Request{
		BoardSize:  9,
		LineLength: 5,
		Placements: []board.Placement{pl(4, 4, 1)},
		TurnOrder:  []board.Player{1, 2},
		Player:     2,
		MaxDepth:   4,
	}
	for _, algo := range algorithms(heuristic.LocalDensity{}, 1) {
		res, err := algo.NextMove(ctx, req)
		is.NoErr(err)
		is.Equal(res.Stats.DepthHistogram[3], 8)
		is.Equal(res.Stats.Leaves(), 8)
	}
}

func TestEmptyBoardFallback(t *testing.T) {
	is := is.New(t)
	req := &Request{
		BoardSize:  3,
		LineLength: 3,
		Blocked:    []board.Cell{{X: 1, Y: 1}},
		TurnOrder:  []board.Player{1, 2},
		Player:     1,
		MaxDepth:   2,
	}
	for _, algo := range algorithms(heuristic.LinePotential{}, 9) {
		seen := map[board.Cell]int{}
		for i := 0; i < 800; i++ {
			res, err := algo.NextMove(context.Background(), req)
			is.NoErr(err)
			is.True(res.Move != board.Cell{X: 1, Y: 1})
			is.Equal(res.Scores, []float64{0, 0})
			is.Equal(res.Stats.Fallbacks, 1)
			is.Equal(res.Stats.Leaves(), 0)
			seen[res.Move]++
		}
		is.Equal(len(seen), 8)
		for _, n := range seen {
			// 100 expected per cell
			is.True(n > 50 && n < 150)
		}
	}
}

type badEvaluator struct{}

func (badEvaluator) Evaluate(pos *board.Position, maxDepth int) []float64 {
	return []float64{1}
}

func (badEvaluator) Type() string { return "bad" }

func TestRequestValidation(t *testing.T) {
	is := is.New(t)
	base := func() *Request {
		return &Request{
			BoardSize:  5,
			LineLength: 3,
			Placements: []board.Placement{pl(2, 2, 1)},
			TurnOrder:  []board.Player{1, 2},
			Player:     2,
			MaxDepth:   2,
		}
	}
	cases := []struct {
		name   string
		mutate func(r *Request)
		err    error
	}{
		{"depth", func(r *Request) { r.MaxDepth = 0 }, ErrInvalidDepth},
		{"deep", func(r *Request) { r.MaxDepth = MaxSearchDepth + 1 }, ErrInvalidDepth},
		{"huge depth", func(r *Request) { r.MaxDepth = 1 << 40 }, ErrInvalidDepth},
		{"huge size", func(r *Request) { r.BoardSize = 1 << 32 }, board.ErrInvalidBoardSize},
		{"time", func(r *Request) { r.MaxTime = -time.Second }, ErrInvalidTimeBudget},
		{"player", func(r *Request) { r.Player = 3 }, ErrPlayerNotInTurnOrder},
		{"size", func(r *Request) { r.BoardSize = 0 }, board.ErrInvalidBoardSize},
		{"line", func(r *Request) { r.LineLength = 6 }, board.ErrInvalidLineLength},
		{"turn order", func(r *Request) { r.TurnOrder = []board.Player{1, 1} }, board.ErrInvalidTurnOrder},
		{"bounds", func(r *Request) { r.Blocked = []board.Cell{{X: 5, Y: 0}} }, board.ErrOutOfBounds},
		{"occupied", func(r *Request) { r.Placements = append(r.Placements, pl(2, 2, 2)) }, board.ErrCellOccupied},
		{"blocked", func(r *Request) { r.Blocked = []board.Cell{{X: 2, Y: 2}} }, board.ErrCellBlocked},
		{"unknown", func(r *Request) { r.Placements = append(r.Placements, pl(0, 0, 9)) }, board.ErrUnknownPlayer},
	}
	for _, tc := range cases {
		for name, algo := range algorithms(heuristic.LinePotential{}, 1) {
			req := base()
			tc.mutate(req)
			_, err := algo.NextMove(context.Background(), req)
			if !errors.Is(err, tc.err) {
				t.Errorf("%s/%s: expected %v, got %v", tc.name, name, tc.err, err)
			}
		}
	}

	for _, algo := range algorithms(badEvaluator{}, 1) {
		_, err := algo.NextMove(context.Background(), base())
		is.True(errors.Is(err, ErrScoreVectorLength))
	}
}

func TestBoardFullAtRoot(t *testing.T) {
	is := is.New(t)
	req := &Request{
		BoardSize:  2,
		LineLength: 2,
		Placements: []board.Placement{pl(0, 0, 1), pl(1, 1, 1)},
		Blocked:    []board.Cell{{X: 1, Y: 0}, {X: 0, Y: 1}},
		TurnOrder:  []board.Player{1, 2},
		Player:     2,
		MaxDepth:   1,
	}
	for _, algo := range algorithms(heuristic.LinePotential{}, 1) {
		_, err := algo.NextMove(context.Background(), req)
		is.True(errors.Is(err, movegen.ErrBoardFull))
	}
}

func TestBoardFillsDuringSearch(t *testing.T) {
	is := is.New(t)
	// Every line through the blocked centre is dead and the four edge lines
	// hold stones of both players, so the last four cells fill up without a
	// winner. Nodes with no moves left score zero.
	req := &Request{
		BoardSize:  3,
		LineLength: 3,
		Placements: []board.Placement{pl(0, 0, 1), pl(2, 0, 2), pl(2, 2, 1), pl(0, 2, 2)},
		Blocked:    []board.Cell{{X: 1, Y: 1}},
		TurnOrder:  []board.Player{1, 2},
		Player:     1,
		MaxDepth:   6,
	}
	for _, ev := range []heuristic.Evaluator{heuristic.LocalDensity{}, heuristic.LinePotential{}} {
		for name, algo := range algorithms(ev, 1) {
			res, err := algo.NextMove(context.Background(), req)
			is.NoErr(err)
			if !isLegal(rootPosition(t, req), res.Move) {
				t.Errorf("%s: illegal move %v", name, res.Move)
			}
			is.Equal(res.Move, board.Cell{X: 1, Y: 0})
			is.Equal(res.Scores, []float64{0, 0})
			is.Equal(res.Stats.Leaves(), 0)
			is.Equal(len(res.PV), 4)
		}
	}
}

func TestSinglePlayer(t *testing.T) {
	is := is.New(t)
	req := &Request{
		BoardSize:  5,
		LineLength: 3,
		Placements: []board.Placement{pl(0, 0, 7), pl(1, 0, 7)},
		TurnOrder:  []board.Player{7},
		Player:     7,
		MaxDepth:   2,
	}
	for _, algo := range algorithms(heuristic.LinePotential{}, 1) {
		res, err := algo.NextMove(context.Background(), req)
		is.NoErr(err)
		is.Equal(res.Move, board.Cell{X: 2, Y: 0})
		is.Equal(res.Scores, []float64{heuristic.WinScore - 1})
	}
}

func TestThreePlayerAlphaBeta(t *testing.T) {
	is := is.New(t)
	rng := rand.New(rand.NewSource(23))
	order := []board.Player{1, 2, 3}
	for _, ev := range []heuristic.Evaluator{heuristic.LinePotential{}, heuristic.LocalDensity{}} {
		for trial := 0; trial < 60; trial++ {
			req := randomRequest(rng, 5, 3, rng.Intn(7), 0.2)
			req.TurnOrder = order
			for i := range req.Placements {
				req.Placements[i].Player = order[i%3]
			}
			req.Player = order[len(req.Placements)%3]
			req.MaxDepth = 1 + trial%3

			mres, err := NewMiniMax(ev, WithRand(rand.New(rand.NewSource(int64(trial))))).
				NextMove(context.Background(), req)
			is.NoErr(err)
			ares, err := NewAlphaBeta(ev, WithRand(rand.New(rand.NewSource(int64(trial))))).
				NextMove(context.Background(), req)
			is.NoErr(err)

			for _, res := range []*Result{mres, ares} {
				is.Equal(len(res.Scores), 3)
				is.Equal(res.PV[0], res.Move)
				pos := rootPosition(t, req)
				slot, _ := pos.SlotOf(req.Player)
				for _, c := range res.PV {
					if !pos.IsEmpty(c) {
						t.Fatalf("illegal pv %v on\n%s", res.PV, pos.ToDisplayText())
					}
					pos.Play(c, slot)
					slot = pos.NextSlot(slot)
				}
			}
			// Pruning only skips siblings below the root.
			is.True(ares.Stats.Leaves() <= mres.Stats.Leaves())
			if req.MaxDepth == 1 {
				is.Equal(ares.Move, mres.Move)
				is.Equal(ares.Scores, mres.Scores)
			}
		}
	}
}

func TestThreePlayers(t *testing.T) {
	is := is.New(t)
	req := &Request{
		BoardSize:  6,
		LineLength: 3,
		Placements: []board.Placement{pl(2, 2, 1), pl(3, 3, 2), pl(2, 3, 3), pl(0, 0, 1), pl(5, 5, 2)},
		Blocked:    []board.Cell{{X: 4, Y: 4}},
		TurnOrder:  []board.Player{1, 2, 3},
		Player:     3,
		MaxDepth:   3,
	}
	for name, algo := range algorithms(heuristic.LinePotential{}, 1) {
		res, err := algo.NextMove(context.Background(), req)
		is.NoErr(err)
		if !isLegal(rootPosition(t, req), res.Move) {
			t.Errorf("%s: illegal move %v", name, res.Move)
		}
		is.Equal(len(res.Scores), 3)
		is.Equal(res.PV[0], res.Move)
	}
}

func TestCachedEvaluatorSearch(t *testing.T) {
	is := is.New(t)
	cached, err := heuristic.NewCached(heuristic.LocalDensity{}, 0, 14)
	is.NoErr(err)
	req := &Request{
		BoardSize:  6,
		LineLength: 4,
		Placements: []board.Placement{pl(2, 2, 1), pl(3, 3, 2)},
		TurnOrder:  []board.Player{1, 2},
		Player:     1,
		MaxDepth:   3,
	}
	plain, err := NewMiniMax(heuristic.LocalDensity{}).NextMove(context.Background(), req)
	is.NoErr(err)
	withCache, err := NewMiniMax(cached).NextMove(context.Background(), req)
	is.NoErr(err)
	is.Equal(withCache.Move, plain.Move)
	is.Equal(withCache.Scores, plain.Scores)
	is.Equal(withCache.PV, plain.PV)
	is.True(withCache.Stats.CacheHits > 0)
	is.Equal(plain.Stats.CacheHits, uint64(0))
}

func TestNew(t *testing.T) {
	is := is.New(t)
	a, err := New("minimax", heuristic.LinePotential{})
	is.NoErr(err)
	_, ok := a.(*MiniMax)
	is.True(ok)
	a, err = New("alphabeta", heuristic.LinePotential{})
	is.NoErr(err)
	_, ok = a.(*AlphaBeta)
	is.True(ok)
	_, err = New("mcts", heuristic.LinePotential{})
	is.True(errors.Is(err, ErrUnknownAlgorithm))
}
