package shell

import (
	"fmt"
	"slices"
	"time"

	"github.com/domino14/lineup/board"
	"github.com/domino14/lineup/bot"
	"github.com/domino14/lineup/search"
)

// game is the position being edited in the shell. Every change is checked
// by rebuilding the position and rolled back if it is invalid.
type game struct {
	size       int
	lineLength int
	turnOrder  []board.Player
	placements []board.Placement
	blocked    []board.Cell
	// onTurn is the slot of the player to move.
	onTurn int

	pos *board.Position
}

func newGame(size, lineLength int, turnOrder []board.Player) (*game, error) {
	g := &game{size: size, lineLength: lineLength, turnOrder: turnOrder}
	if err := g.rebuild(); err != nil {
		return nil, err
	}
	return g, nil
}

func gameFromRequest(req *bot.PlayRequest) (*game, error) {
	g := &game{
		size:       req.BoardSize,
		lineLength: req.LineLength,
		turnOrder:  req.TurnOrder,
		placements: req.Placements,
		blocked:    req.Blocked,
	}
	if err := g.rebuild(); err != nil {
		return nil, err
	}
	slot, ok := g.pos.SlotOf(req.Player)
	if !ok {
		return nil, fmt.Errorf("%w: %d", search.ErrPlayerNotInTurnOrder, req.Player)
	}
	g.onTurn = slot
	return g, nil
}

func (g *game) rebuild() error {
	pos, err := board.NewPosition(g.size, g.lineLength, g.turnOrder, g.placements, g.blocked)
	if err != nil {
		return err
	}
	g.pos = pos
	return nil
}

func (g *game) playerOnTurn() board.Player {
	return g.turnOrder[g.onTurn]
}

// place adds a stone and passes the turn to whoever follows its owner.
func (g *game) place(c board.Cell, p board.Player) error {
	g.placements = append(g.placements, board.Placement{Cell: c, Player: p})
	if err := g.rebuild(); err != nil {
		g.placements = g.placements[:len(g.placements)-1]
		return err
	}
	slot, _ := g.pos.SlotOf(p)
	g.onTurn = g.pos.NextSlot(slot)
	return nil
}

func (g *game) block(c board.Cell) error {
	if slices.Contains(g.blocked, c) {
		return fmt.Errorf("%w: %v", board.ErrCellBlocked, c)
	}
	g.blocked = append(g.blocked, c)
	if err := g.rebuild(); err != nil {
		g.blocked = g.blocked[:len(g.blocked)-1]
		return err
	}
	return nil
}

// unplace takes back the last stone and gives its owner the turn.
func (g *game) unplace() (board.Placement, error) {
	if len(g.placements) == 0 {
		return board.Placement{}, fmt.Errorf("no stones to take back")
	}
	last := g.placements[len(g.placements)-1]
	g.placements = g.placements[:len(g.placements)-1]
	if err := g.rebuild(); err != nil {
		return board.Placement{}, err
	}
	g.onTurn, _ = g.pos.SlotOf(last.Player)
	return last, nil
}

func (g *game) playRequest(maxDepth int, maxTime time.Duration) *bot.PlayRequest {
	return &bot.PlayRequest{
		BoardSize:  g.size,
		LineLength: g.lineLength,
		Placements: slices.Clone(g.placements),
		Blocked:    slices.Clone(g.blocked),
		TurnOrder:  slices.Clone(g.turnOrder),
		Player:     g.playerOnTurn(),
		MaxDepth:   maxDepth,
		MaxTimeMs:  maxTime.Milliseconds(),
	}
}
