package bot

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

var ErrNoMove = errors.New("bot returned no move")

// Client asks a remote bot for moves.
type Client struct {
	nc      *nats.Conn
	subject string
	timeout time.Duration
}

func NewClient(nc *nats.Conn, subject string, timeout time.Duration) *Client {
	return &Client{nc: nc, subject: subject, timeout: timeout}
}

// RequestMove sends a position to the bot and waits for its move. The wait
// is the request's own time budget plus the client timeout.
func (c *Client) RequestMove(ctx context.Context, req *PlayRequest) (*MoveResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout+time.Duration(req.MaxTimeMs)*time.Millisecond)
	defer cancel()
	res, err := c.nc.RequestWithContext(ctx, c.subject, data)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return nil, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))

	resp := &MoveResponse{}
	if err := json.Unmarshal(res.Data, resp); err != nil {
		return nil, err
	}
	if resp.NoMove {
		return resp, errors.Join(ErrNoMove, errors.New(resp.Error))
	}
	return resp, nil
}
