package irc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircserv/internal/core"
)

const (
	serverFullLine = "ERROR :Server full. Maximum number of clients reached.\r\n"

	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Config tunes the listener and per-connection buffers.
type Config struct {
	Addr string
	// MaxClients bounds concurrent connections; 0 means unlimited.
	MaxClients     int
	MaxLineLength  int
	SendQueueLimit int
	WriteTimeout   time.Duration
	// FloodRate is the sustained lines per second a client may send; 0 disables throttling.
	FloodRate  float64
	FloodBurst int
}

// Server accepts TCP connections and hands each one to its own goroutine pair.
type Server struct {
	cfg Config
	hub Hub
	log zerolog.Logger

	mu sync.Mutex
	ln net.Listener

	nextID atomic.Uint64
	active atomic.Int64
	wg     sync.WaitGroup
}

// NewServer creates a server bound to hub. Call Listen, then Serve.
func NewServer(cfg Config, hub Hub, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Server{
		cfg: cfg,
		hub: hub,
		log: logger.With().Str("component", "irc").Logger(),
	}
}

// Listen binds the configured address.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("irc listener started")
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Active returns the number of live connections.
func (s *Server) Active() int {
	return int(s.active.Load())
}

// Serve accepts connections until ctx is cancelled, then waits for every
// connection goroutine to finish.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return ErrServerClosed
	}

	stop := context.AfterFunc(ctx, func() {
		_ = ln.Close()
	})
	defer stop()

	err := s.acceptLoop(ctx, ln)
	s.wg.Wait()
	s.log.Info().Msg("irc listener stopped")
	return err
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) error {
	var backoff time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			if !isRetryableAccept(err) {
				return fmt.Errorf("accept: %w", err)
			}
			backoff = nextBackoff(backoff)
			s.log.Warn().Err(err).Dur("backoff", backoff).Msg("accept failed, retrying")
			select {
			case <-time.After(backoff):
				continue
			case <-ctx.Done():
				return nil
			}
		}
		backoff = 0

		if s.cfg.MaxClients > 0 && s.active.Load() >= int64(s.cfg.MaxClients) {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.reject(nc)
			}()
			continue
		}

		id := core.ConnID(s.nextID.Add(1))
		c := newConn(id, nc, s.hub, s.cfg, s.log)
		s.active.Add(1)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.active.Add(-1)
			c.serve(ctx)
		}()
	}
}

// reject turns away a connection that arrived at capacity.
func (s *Server) reject(nc net.Conn) {
	s.log.Warn().Str("remote", nc.RemoteAddr().String()).Int("max_clients", s.cfg.MaxClients).Msg("server full, rejecting")
	_ = nc.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = nc.Write([]byte(serverFullLine))
	_ = nc.Close()
}

func nextBackoff(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptBackoff
	}
	d *= 2
	if d > maxAcceptBackoff {
		return maxAcceptBackoff
	}
	return d
}
