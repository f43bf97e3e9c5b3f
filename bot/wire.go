package bot

import (
	"encoding/json"
	"time"

	"github.com/cespare/xxhash"

	"github.com/domino14/lineup/board"
	"github.com/domino14/lineup/search"
	"github.com/domino14/lineup/stats"
)

// PlayRequest asks for a move in the given position. Zero depth or time
// fall back to the bot's configuration.
type PlayRequest struct {
	BoardSize  int               `json:"board_size" yaml:"board_size"`
	LineLength int               `json:"line_length" yaml:"line_length"`
	Placements []board.Placement `json:"placements" yaml:"placements"`
	Blocked    []board.Cell      `json:"blocked,omitempty" yaml:"blocked,omitempty"`
	TurnOrder  []board.Player    `json:"turn_order" yaml:"turn_order"`
	Player     board.Player      `json:"player" yaml:"player"`
	MaxDepth   int               `json:"max_depth,omitempty" yaml:"max_depth,omitempty"`
	MaxTimeMs  int64             `json:"max_time_ms,omitempty" yaml:"max_time_ms,omitempty"`
}

// MoveResponse is either a move or an error.
type MoveResponse struct {
	X      int            `json:"x"`
	Y      int            `json:"y"`
	Scores []float64      `json:"scores,omitempty"`
	PV     []board.Cell   `json:"pv,omitempty"`
	Stats  *stats.Summary `json:"stats,omitempty"`

	Error  string `json:"error,omitempty"`
	NoMove bool   `json:"no_move,omitempty"`
}

// SearchRequest converts the wire request, filling in the defaults.
func (r *PlayRequest) SearchRequest(defaultDepth int, defaultTime time.Duration) *search.Request {
	req := &search.Request{
		BoardSize:  r.BoardSize,
		LineLength: r.LineLength,
		Placements: r.Placements,
		Blocked:    r.Blocked,
		TurnOrder:  r.TurnOrder,
		Player:     r.Player,
		MaxDepth:   r.MaxDepth,
		MaxTime:    time.Duration(r.MaxTimeMs) * time.Millisecond,
	}
	if req.MaxDepth == 0 {
		req.MaxDepth = defaultDepth
	}
	if r.MaxTimeMs == 0 {
		req.MaxTime = defaultTime
	}
	return req
}

// Fingerprint identifies a request in the logs.
func (r *PlayRequest) Fingerprint() uint64 {
	data, err := json.Marshal(r)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(data)
}

func moveResponse(res *search.Result) *MoveResponse {
	sum := res.Stats.Summary()
	return &MoveResponse{
		X:      res.Move.X,
		Y:      res.Move.Y,
		Scores: res.Scores,
		PV:     res.PV,
		Stats:  &sum,
	}
}

func errorResponse(err error) *MoveResponse {
	return &MoveResponse{Error: err.Error(), NoMove: true}
}
