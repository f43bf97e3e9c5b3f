// Package bot answers move requests arriving over NATS.
package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/lineup/config"
	"github.com/domino14/lineup/search"
)

var ErrConnectionClosed = errors.New("nats connection closed")

type Bot struct {
	config *config.Config
	engine search.Algorithm
}

func NewBot(cfg *config.Config, opts ...search.Option) (*Bot, error) {
	engine, err := cfg.Search.NewEngine(opts...)
	if err != nil {
		return nil, err
	}
	return &Bot{config: cfg, engine: engine}, nil
}

// Play runs one search. A Bot handles one request at a time.
func (bot *Bot) Play(ctx context.Context, req *PlayRequest) *MoveResponse {
	fp := req.Fingerprint()
	logger := log.With().Str("fingerprint", fmt.Sprintf("%016x", fp)).Logger()

	res, err := bot.engine.NextMove(ctx,
		req.SearchRequest(bot.config.Search.MaxDepth, bot.config.Search.MaxTime))
	if err != nil {
		logger.Err(err).Msg("search-failed")
		return errorResponse(err)
	}
	logger.Info().
		Int("player", int(req.Player)).
		Stringer("move", res.Move).
		Int("leaves", res.Stats.Leaves()).
		Dur("elapsed", res.Stats.Elapsed).
		Msg("generated-move")
	return moveResponse(res)
}

// Handle decodes a JSON PlayRequest and returns a JSON MoveResponse.
func (bot *Bot) Handle(data []byte) []byte {
	return bot.HandleContext(context.Background(), data)
}

func (bot *Bot) HandleContext(ctx context.Context, data []byte) []byte {
	req := &PlayRequest{}
	var resp *MoveResponse
	if err := json.Unmarshal(data, req); err != nil {
		log.Err(err).Int("bytes", len(data)).Msg("could-not-parse-request")
		resp = errorResponse(fmt.Errorf("could not parse request: %w", err))
	} else {
		resp = bot.Play(ctx, req)
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Should never happen, but the caller still needs an answer.
		out, _ = json.Marshal(errorResponse(err))
	}
	return out
}

func connect(ctx context.Context, cfg *config.Config, closed chan struct{}) (*nats.Conn, error) {
	var once sync.Once
	var nc *nats.Conn
	err := retry.Do(
		func() error {
			var err error
			nc, err = nats.Connect(cfg.Nats.URL,
				nats.Name("lineup-bot"),
				nats.ClosedHandler(func(*nats.Conn) {
					once.Do(func() { close(closed) })
				}))
			return err
		},
		retry.Context(ctx),
		retry.Attempts(cfg.Nats.ConnectAttempts),
		retry.LastErrorOnly(true),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			log.Err(err).Uint("n", n).Str("url", cfg.Nats.URL).Msg("nats-connect-failed-try-again")
		}),
	)
	return nc, err
}

// Main connects to NATS and answers requests on subject until ctx is done,
// then drains the connection.
func Main(ctx context.Context, cfg *config.Config, subject string, bot *Bot) error {
	closed := make(chan struct{})
	nc, err := connect(ctx, cfg, closed)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.Nats.URL, err)
	}
	_, err = nc.Subscribe(subject, func(m *nats.Msg) {
		log.Debug().Int("bytes", len(m.Data)).Msg("recv")
		if err := m.Respond(bot.HandleContext(ctx, m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		nc.Close()
		return err
	}
	if err := nc.Flush(); err != nil {
		nc.Close()
		return err
	}
	log.Info().Str("subject", subject).Msg("listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		if nc.IsClosed() {
			return nil
		}
		log.Info().Msg("draining")
		return nc.Drain()
	})
	g.Go(func() error {
		<-closed
		if ctx.Err() == nil {
			return ErrConnectionClosed
		}
		return nil
	})
	return g.Wait()
}
