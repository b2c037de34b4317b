package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"imaginarium-server/internal/config"
	"imaginarium-server/internal/console"
	"imaginarium-server/internal/resources"
	"imaginarium-server/internal/server"
)

func main() {
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log.Logger = log.Output(consoleWriter)
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg := config.Parse()
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Warn().Msg("debug logging enabled")
	}

	listener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Fatal().Err(err).Str("addr", cfg.Listen).Msg("failed to bind game socket")
	}

	res := resources.Load(cfg.ResourceDir, cfg.ResourceName, cfg.ResourceLink)
	srv := server.New(listener, res)
	srv.AttachResourceServer(resources.NewServer(cfg.ResourceListen, cfg.ResourceDir, map[string]http.Handler{
		"/ws": srv.WebsocketHandler(),
	}))

	go gracefulShutdown(srv, listener)
	go console.New(srv, res, os.Stdin, os.Stdout).Run()

	log.Info().Str("addr", cfg.Listen).Msg("server started")
	srv.Run()
	log.Info().Msg("shutdown complete")
}

func gracefulShutdown(srv *server.Server, listener net.Listener) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	srv.RequestShutdown()
	listener.Close()
}
