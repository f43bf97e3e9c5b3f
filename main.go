package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/lineup/config"
	"github.com/domino14/lineup/server"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("server-exited")
		os.Exit(1)
	}
	log.Info().Msg("server gracefully shut down")
}

// run serves until a signal arrives. Deferred cleanup runs before main exits.
func run(cfg *config.Config) error {
	stopProfile, err := cfg.StartCPUProfile()
	if err != nil {
		return err
	}
	defer stopProfile()

	srv, err := server.New(cfg)
	if err != nil {
		return fmt.Errorf("could not create server: %w", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return srv.Run(ctx)
}
