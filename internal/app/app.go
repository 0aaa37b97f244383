package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/ircserv/internal/auth"
	"github.com/vovakirdan/ircserv/internal/config"
	"github.com/vovakirdan/ircserv/internal/core"
	transporthttp "github.com/vovakirdan/ircserv/internal/transport/http"
	"github.com/vovakirdan/ircserv/internal/transport/irc"
)

// Version is reported in the welcome burst.
const Version = "ircserv-1.0"

// ErrShutdownTimeout is returned when connections outlive the shutdown grace period.
var ErrShutdownTimeout = errors.New("shutdown timed out")

// App wires together core and transport layers.
type App struct {
	hub             *core.Hub
	irc             *irc.Server
	status          *stdhttp.Server
	shutdownTimeout time.Duration
	log             *zerolog.Logger

	ready      chan struct{}
	mu         sync.Mutex
	statusAddr net.Addr
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	verifier, err := auth.NewVerifier(cfg.Password, cfg.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("init auth: %w", err)
	}

	hub := core.NewHub(core.Options{
		ServerName:   cfg.ServerName,
		Version:      Version,
		Capabilities: cfg.Capabilities,
		Created:      time.Now(),
	}, verifier, logger)

	ircServer := irc.NewServer(irc.Config{
		Addr:           cfg.ListenAddr(),
		MaxClients:     cfg.MaxClients,
		MaxLineLength:  cfg.MaxLineLength,
		SendQueueLimit: cfg.SendQueueLimit,
		WriteTimeout:   cfg.WriteTimeout,
		FloodRate:      cfg.FloodRate,
		FloodBurst:     cfg.FloodBurst,
	}, hub, logger)

	a := &App{
		hub:             hub,
		irc:             ircServer,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
		ready:           make(chan struct{}),
	}
	if cfg.HTTPAddr != "" {
		a.status = transporthttp.NewServer(cfg.HTTPAddr, hub, logger)
	}
	return a, nil
}

// Ready is closed once every listener is bound.
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// IRCAddr returns the bound IRC address once Ready has fired.
func (a *App) IRCAddr() net.Addr {
	return a.irc.Addr()
}

// StatusAddr returns the bound status address, or nil when disabled.
func (a *App) StatusAddr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.statusAddr
}

// Run binds the listeners and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	if err := a.irc.Listen(); err != nil {
		return err
	}
	var statusLn net.Listener
	if a.status != nil {
		ln, err := net.Listen("tcp", a.status.Addr)
		if err != nil {
			return fmt.Errorf("listen status %s: %w", a.status.Addr, err)
		}
		statusLn = ln
		a.mu.Lock()
		a.statusAddr = ln.Addr()
		a.mu.Unlock()
		a.log.Info().Str("addr", ln.Addr().String()).Msg("status server started")
	}
	close(a.ready)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.hub.Run(gctx) })
	g.Go(func() error { return a.irc.Serve(gctx) })
	if statusLn != nil {
		g.Go(func() error {
			if err := a.status.Serve(statusLn); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
			defer cancel()
			a.log.Info().Msg("shutting down status server")
			return a.status.Shutdown(shutdownCtx)
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	select {
	case err := <-done:
		return err
	case <-time.After(a.shutdownTimeout):
		return ErrShutdownTimeout
	}
}
