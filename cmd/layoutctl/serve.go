package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/fiber/v2"
	router "github.com/goliatone/go-router"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-gridlayout/components/layout"
	"github.com/goliatone/go-gridlayout/components/layout/gorouter"
	"github.com/goliatone/go-gridlayout/components/layout/httpapi"
	facade "github.com/goliatone/go-gridlayout/pkg/layout"
)

type serveCmd struct {
	Addr       string `help:"Listen address (overrides addr from config)."`
	EventsAddr string `name:"events-addr" help:"Listen address for SSE and WebSocket change streams."`
	Manifest   string `type:"path" help:"Page manifest (overrides manifest from config)."`
	Watch      bool   `default:"true" negatable:"" help:"Reload the manifest when it changes on disk."`
}

func (cmd *serveCmd) Run(ctx context.Context, g *Globals, std *stdio) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}
	if cmd.Addr != "" {
		cfg.Addr = cmd.Addr
	}
	if cmd.EventsAddr != "" {
		cfg.EventsAddr = cmd.EventsAddr
	}
	if cmd.Manifest != "" {
		cfg.Manifest = cmd.Manifest
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}

	logger, closeLog, err := newLogger(cfg.Log, std.err)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer closeRepo()
	if cfg.Store.CacheTTL > 0 {
		repo = layout.NewCachedRepository(repo, cfg.Store.CacheTTL)
	}

	registry := layout.NewRegistry()
	if cfg.Manifest != "" {
		if _, err := registry.LoadManifestFile(cfg.Manifest); err != nil {
			return err
		}
	}

	hook := layout.NewBroadcastHook()
	telemetry := layout.LogTelemetry{Logger: logger}
	service := facade.NewService(facade.Options{
		Repository: repo,
		ChangeHook: hook,
		Telemetry:  telemetry,
		Logger:     logger,
		UndoDepth:  cfg.UndoDepth,
	})
	handlers := httpapi.NewHandlers(service, registry, telemetry)

	server := router.NewFiberAdapter()
	if err := gorouter.Register(gorouter.Config[*fiber.App]{
		Router:    server.Router(),
		API:       handlers.Executor(),
		Broadcast: hook,
		BasePath:  cfg.BasePath,
	}); err != nil {
		return fmt.Errorf("layoutctl: register routes: %w", err)
	}

	group, gctx := errgroup.WithContext(ctx)
	if cmd.Watch && cfg.Manifest != "" {
		group.Go(func() error {
			return watchManifest(gctx, cfg.Manifest, registry, logger)
		})
	}
	if cfg.EventsAddr != "" {
		events := &http.Server{
			Addr:              cfg.EventsAddr,
			Handler:           eventsMux(hook),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return gctx },
		}
		group.Go(func() error {
			if err := events.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("layoutctl: events listener: %w", err)
			}
			return nil
		})
		group.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return events.Shutdown(shutdownCtx)
		})
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(cfg.Addr)
	}()
	logger.Info("layout api ready",
		"addr", cfg.Addr,
		"base_path", cfg.BasePath,
		"events_addr", cfg.EventsAddr,
		"store", cfg.Store.Driver,
		"pages", registry.Pages(),
	)

	select {
	case err = <-serveErr:
	case <-gctx.Done():
		logger.Info("shutting down")
		err = stopServer(server, serveErr, 5*time.Second)
	}
	stop()
	if werr := group.Wait(); werr != nil && !errors.Is(werr, context.Canceled) {
		logger.Warn("background task stopped", "error", werr)
	}
	return err
}

// stopServer shuts the API server down and waits for Serve to return.
func stopServer(server router.Server[*fiber.App], serveErr <-chan error, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("layoutctl: shutdown api: %w", err)
	}
	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
		return fmt.Errorf("layoutctl: api did not stop: %w", ctx.Err())
	}
}

// eventsMux exposes the broadcast hook over plain net/http. Both endpoints
// accept a client_id query parameter.
func eventsMux(hook *layout.BroadcastHook) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/events", hook.ServeSSE)
	mux.HandleFunc("/events/ws", hook.ServeWebSocket)
	return mux
}

// watchManifest reloads the registry whenever the manifest is written or
// replaced. The parent directory is watched so editors that rename into place
// are picked up.
func watchManifest(ctx context.Context, path string, registry *layout.Registry, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("layoutctl: create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("layoutctl: watch %s: %w", filepath.Dir(abs), err)
	}

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(evt.Name) != abs {
				continue
			}
			if evt.Has(fsnotify.Write) || evt.Has(fsnotify.Create) || evt.Has(fsnotify.Rename) {
				debounce = time.After(150 * time.Millisecond)
			}
		case <-debounce:
			debounce = nil
			if _, err := registry.LoadManifestFile(abs); err != nil {
				logger.Warn("manifest reload failed", "path", abs, "error", err)
				continue
			}
			logger.Info("manifest reloaded", "path", abs, "pages", registry.Pages())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("manifest watcher error", "error", err)
		}
	}
}
