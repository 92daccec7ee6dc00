package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	configloader "github.com/Typenine/Discord-Meeting-App-sub000/external/config"
	"github.com/Typenine/Discord-Meeting-App-sub000/external/discord"
	"github.com/Typenine/Discord-Meeting-App-sub000/external/httpserver"
	repositoryimpl "github.com/Typenine/Discord-Meeting-App-sub000/external/repository"
	webhookimpl "github.com/Typenine/Discord-Meeting-App-sub000/external/webhook"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/config"
	discordpkg "github.com/Typenine/Discord-Meeting-App-sub000/internal/discord"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/meeting"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/repository"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/room"
	"github.com/Typenine/Discord-Meeting-App-sub000/internal/session"
	"github.com/samber/do/v2"
	"golang.org/x/sync/errgroup"
)

const (
	storeLoadTimeout = 15 * time.Second
	shutdownTimeout  = 20 * time.Second
)

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	if err := run(injector); err != nil {
		slog.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("shutdown complete")
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	do.ProvideValue(injector, meeting.NewAllowList(cfg.HostAllowAll, cfg.HostAllowlist))
	do.ProvideValue(injector, meeting.TimerPolicy{
		ExtendCapMultiple: cfg.TimerExtendCapMultiple,
		MinCapSec:         cfg.TimerExtendMinCapSec,
	})
	repositoryimpl.RegisterDI(injector)
	discord.RegisterDI(injector)
	webhookimpl.RegisterDI(injector)
	session.RegisterDI(injector)
	room.RegisterDI(injector)
	httpserver.RegisterDI(injector)

	return injector
}

func run(injector do.Injector) error {
	store := do.MustInvoke[*session.Store](injector)
	hub := do.MustInvoke[*room.Hub](injector)
	srv := do.MustInvoke[*http.Server](injector)

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), storeLoadTimeout)
	restored, err := store.Load(loadCtx)
	cancelLoad()
	if err != nil {
		return err
	}
	slog.Info("startup: sessions restored", "count", restored)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	srv.BaseContext = func(net.Listener) context.Context { return ctx }

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		store.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("startup: http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("http server shutdown failed", "error", err)
		}
		hub.Close()
		if err := store.Flush(shutdownCtx); err != nil {
			slog.Error("failed to flush pending sessions", "error", err)
		}
		closeAdapters(injector)
		return nil
	})
	return g.Wait()
}

// closeAdapters releases database pools and REST clients held by the graph.
func closeAdapters(injector do.Injector) {
	if repo, err := do.Invoke[repository.Repository](injector); err == nil {
		if c, ok := repo.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Error("repository close failed", "error", err)
			}
		}
	}
	if notifier, err := do.Invoke[discordpkg.Notifier](injector); err == nil {
		if c, ok := notifier.(io.Closer); ok {
			if err := c.Close(); err != nil {
				slog.Error("discord close failed", "error", err)
			}
		}
	}
}
