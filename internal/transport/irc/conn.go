package irc

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/vovakirdan/ircserv/internal/core"
	"github.com/vovakirdan/ircserv/internal/utils"
)

const readBufferSize = 4096

// Hub is the part of core.Hub a connection talks to.
type Hub interface {
	Attach(ctx context.Context, s core.Session) error
	Submit(ctx context.Context, s core.Session, line string) error
	Detach(ctx context.Context, s core.Session, reason string) error
	Done() <-chan struct{}
}

// Conn bridges one TCP connection to the hub. It implements core.Session.
type Conn struct {
	id      core.ConnID
	nc      net.Conn
	host    string
	hub     Hub
	cfg     Config
	framer  *framer
	out     *outbox
	limiter *rate.Limiter
	log     zerolog.Logger

	closeOnce  sync.Once
	closing    chan struct{}
	writerDone chan struct{}
}

func newConn(id core.ConnID, nc net.Conn, hub Hub, cfg Config, logger zerolog.Logger) *Conn {
	host := nc.RemoteAddr().String()
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	c := &Conn{
		id:         id,
		nc:         nc,
		host:       host,
		hub:        hub,
		cfg:        cfg,
		framer:     newFramer(cfg.MaxLineLength),
		out:        newOutbox(cfg.SendQueueLimit),
		closing:    make(chan struct{}),
		writerDone: make(chan struct{}),
	}
	if cfg.FloodRate > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.FloodRate), max(cfg.FloodBurst, 1))
	}
	c.log = logger.With().
		Uint64("conn_id", uint64(id)).
		Str("session", utils.NewID()).
		Str("remote", host).
		Logger()
	return c
}

// ID implements core.Session.
func (c *Conn) ID() core.ConnID { return c.id }

// RemoteHost implements core.Session.
func (c *Conn) RemoteHost() string { return c.host }

// Send queues one serialized line for the writer goroutine.
func (c *Conn) Send(line string) error {
	return c.out.Push(line)
}

// Close stops accepting output; the writer flushes what is queued and then
// closes the socket.
func (c *Conn) Close() {
	c.closeOnce.Do(func() {
		c.out.Close()
		close(c.closing)
	})
}

// serve runs the connection until either side gives up.
func (c *Conn) serve(ctx context.Context) {
	if err := c.hub.Attach(ctx, c); err != nil {
		c.log.Debug().Err(err).Msg("attach refused")
		_ = c.nc.Close()
		return
	}
	c.log.Debug().Msg("connection attached")

	go c.writeLoop()
	go func() {
		select {
		case <-c.hub.Done():
			c.Close()
		case <-c.closing:
		}
	}()

	reason := c.readLoop(ctx)
	if err := c.hub.Detach(ctx, c, reason); err != nil {
		c.log.Debug().Err(err).Msg("detach skipped")
	}
	c.Close()
	<-c.writerDone
	c.log.Debug().Str("reason", reason).Msg("connection finished")
}

// readLoop frames inbound bytes and submits lines in arrival order. It returns
// the reason the connection ended.
func (c *Conn) readLoop(ctx context.Context) string {
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.nc.Read(buf)
		if n > 0 {
			lines, dropped := c.framer.Feed(buf[:n])
			if dropped > 0 {
				c.log.Warn().Int("dropped", dropped).Msg("discarded overlong line")
			}
			for _, line := range lines {
				if c.limiter != nil {
					if werr := c.limiter.Wait(ctx); werr != nil {
						return "Server shutting down"
					}
				}
				if serr := c.hub.Submit(ctx, c, line); serr != nil {
					return "Server shutting down"
				}
			}
		}
		if err == nil {
			continue
		}
		switch {
		case errors.Is(err, io.EOF):
			return "Client disconnected"
		case c.isClosing():
			return "Connection closed"
		case isTransient(err):
			continue
		default:
			c.log.Warn().Err(err).Msg("read failed")
			return "Read error"
		}
	}
}

func (c *Conn) writeLoop() {
	defer close(c.writerDone)
	defer func() {
		_ = c.nc.Close()
	}()

	for range c.out.Ready() {
		done, err := c.flush()
		if err != nil {
			c.log.Warn().Err(err).Msg("write failed")
			c.Close()
			return
		}
		if done {
			return
		}
	}
}

// flush writes everything currently queued. done is true once the outbox is
// closed and drained.
func (c *Conn) flush() (done bool, err error) {
	data, closed := c.out.Take()
	for len(data) > 0 {
		if c.cfg.WriteTimeout > 0 {
			_ = c.nc.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
		}
		n, werr := c.nc.Write(data)
		data = data[n:]
		if werr == nil {
			continue
		}
		if isTransient(werr) && !closed {
			// Peer is not reading; keep the remainder and retry on the next pass.
			c.out.Requeue(data)
			return false, nil
		}
		return true, werr
	}
	return closed && c.out.Len() == 0, nil
}

func (c *Conn) isClosing() bool {
	select {
	case <-c.closing:
		return true
	default:
		return false
	}
}
