package board

import "errors"

var (
	ErrInvalidBoardSize  = errors.New("board size must be between 1 and MaxBoardSize")
	ErrInvalidLineLength = errors.New("line length must be between 1 and the board size")
	ErrInvalidTurnOrder  = errors.New("invalid turn order")
	ErrUnknownPlayer     = errors.New("player is not in the turn order")
	ErrOutOfBounds       = errors.New("cell is off the board")
	ErrCellOccupied      = errors.New("cell is already occupied")
	ErrCellBlocked       = errors.New("cell is blocked")
)
