// Package server exposes the engine over HTTP and websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/lineup/bot"
	"github.com/domino14/lineup/config"
)

const (
	GracefulShutdownTimeout = 20 * time.Second
	maxRequestBytes         = 1 << 20
)

var ErrNoEngine = errors.New("no search engine became free")

// Server answers move requests. It owns cfg.HTTP.Workers engines, built up
// front; at most that many searches run at once and other requests wait for
// a free engine. The evaluation cache fraction is shared by all engines.
type Server struct {
	cfg      *config.Config
	engines  chan *bot.Bot
	upgrader websocket.Upgrader
}

func New(cfg *config.Config) (*Server, error) {
	workers := max(cfg.HTTP.Workers, 1)
	engineCfg := *cfg
	engineCfg.Search.EvalCacheFraction /= float64(workers)

	s := &Server{
		cfg:      cfg,
		engines:  make(chan *bot.Bot, workers),
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
	}
	for i := 0; i < workers; i++ {
		b, err := bot.NewBot(&engineCfg)
		if err != nil {
			return nil, err
		}
		s.engines <- b
	}
	log.Debug().Int("workers", workers).
		Float64("eval-cache-fraction-per-engine", engineCfg.Search.EvalCacheFraction).
		Msg("engines-ready")
	return s, nil
}

// getBot waits for a free engine until ctx is done.
func (s *Server) getBot(ctx context.Context) (*bot.Bot, error) {
	select {
	case b := <-s.engines:
		return b, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrNoEngine, ctx.Err())
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		})
		r.Post("/move", s.handleMove)
		r.Get("/ws", s.serveWS)
	})
	return r
}

func (s *Server) play(ctx context.Context, req *bot.PlayRequest) *bot.MoveResponse {
	b, err := s.getBot(ctx)
	if err != nil {
		return &bot.MoveResponse{Error: err.Error(), NoMove: true}
	}
	defer func() { s.engines <- b }()
	return b.Play(ctx, req)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	req := &bot.PlayRequest{}
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, &bot.MoveResponse{
			Error:  fmt.Sprintf("invalid payload: %v", err),
			NoMove: true,
		})
		return
	}
	resp := s.play(r.Context(), req)
	status := http.StatusOK
	if resp.NoMove {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, resp)
}

// serveWS answers one MoveResponse for every PlayRequest message until the
// client goes away.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxRequestBytes)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Err(err).Msg("ws-read")
			}
			return
		}
		var resp *bot.MoveResponse
		req := &bot.PlayRequest{}
		if err := json.Unmarshal(message, req); err != nil {
			resp = &bot.MoveResponse{Error: fmt.Sprintf("invalid payload: %v", err), NoMove: true}
		} else {
			resp = s.play(r.Context(), req)
		}
		if err := conn.WriteJSON(resp); err != nil {
			log.Err(err).Msg("ws-write")
			return
		}
	}
}

// Run serves on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: s.Router()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("server gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), GracefulShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		log.Err(err).Msg("write-json")
	}
}
