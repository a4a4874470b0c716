package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	server "neongrid/server"
	"neongrid/server/internal/lobby"
	servernet "neongrid/server/internal/net"
)

type Config struct {
	Logger    *log.Logger
	ClientDir string
}

// Run wires the process together: settings, jukebox scan, relay hub,
// presence bot, lobby, HTTP server. It blocks until the context is
// cancelled or the listener fails, and shuts the bot down gracefully.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}

	if err := godotenv.Load(); err != nil {
		logger.Printf("no .env file loaded: %v", err)
	}
	conf := server.LoadConfig(os.Getenv)

	tracks := server.ScanTracks(conf.TracksDir)
	if len(tracks) == 0 {
		logger.Printf("no audio tracks found in %s", conf.TracksDir)
	}
	jukebox := server.NewJukebox(tracks)

	hub := server.NewHub(conf, jukebox, logger)

	bot := server.NewPresenceBot(hub, server.NewChatGenerator(conf, logger), logger)
	bot.Start()
	defer bot.Stop()

	lobbies := lobby.NewRegistry()
	handler := servernet.NewHTTPHandler(hub, lobbies, servernet.HTTPHandlerConfig{
		ClientDir: cfg.ClientDir,
		Logger:    logger,
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", conf.Port), Handler: handler}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Printf("server listening on %s", srv.Addr)

	select {
	case <-ctx.Done():
		bot.Stop()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	}
}
