package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/lineup/bot"
	"github.com/domino14/lineup/config"
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
	log.Info().Interface("config", cfg).Msg("loaded-config")

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("bot-exited")
		os.Exit(1)
	}
	log.Info().Msg("bot gracefully shutting down")
}

func run(cfg *config.Config) error {
	stopProfile, err := cfg.StartCPUProfile()
	if err != nil {
		return err
	}
	defer stopProfile()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b, err := bot.NewBot(cfg)
	if err != nil {
		return fmt.Errorf("could not create bot: %w", err)
	}
	return bot.Main(ctx, cfg, cfg.Nats.Subject, b)
}
