package core

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircserv/internal/proto"
)

const commandQueueSize = 256

// PasswordVerifier checks the connection password sent with PASS.
type PasswordVerifier interface {
	Verify(password string) bool
}

// Options tunes protocol-visible hub behaviour.
type Options struct {
	ServerName   string
	Version      string
	Capabilities []string
	Created      time.Time
}

// Hub owns the registry. Every command runs to completion on the Run goroutine
// before the next one starts, so handlers need no locking.
type Hub struct {
	opts     Options
	caps     map[string]struct{}
	verifier PasswordVerifier
	registry *Registry
	routes   map[string]route
	commands chan Command
	done     chan struct{}
	log      zerolog.Logger

	// doomed collects disconnects requested while a handler is running.
	doomed []pendingDisconnect
}

type pendingDisconnect struct {
	id     ConnID
	reason string
}

// NewHub creates a new chat hub instance.
func NewHub(opts Options, verifier PasswordVerifier, logger *zerolog.Logger) *Hub {
	if opts.ServerName == "" {
		opts.ServerName = "ircserv"
	}
	if opts.Version == "" {
		opts.Version = "ircserv-1.0"
	}
	if opts.Created.IsZero() {
		opts.Created = time.Now()
	}
	caps := make(map[string]struct{}, len(opts.Capabilities))
	for _, name := range opts.Capabilities {
		caps[name] = struct{}{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	h := &Hub{
		opts:     opts,
		caps:     caps,
		verifier: verifier,
		registry: NewRegistry(),
		commands: make(chan Command, commandQueueSize),
		done:     make(chan struct{}),
		log:      logger.With().Str("component", "hub").Logger(),
	}
	h.routes = defaultRoutes()
	return h
}

// Run processes commands until ctx is cancelled, then closes every session.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return nil
		case cmd := <-h.commands:
			h.apply(cmd)
		}
	}
}

// Attach announces a newly accepted session.
func (h *Hub) Attach(ctx context.Context, s Session) error {
	return h.enqueue(ctx, Command{Kind: CommandAttach, Session: s})
}

// Submit hands one framed line to the hub. Lines from one session must be
// submitted from a single goroutine to keep their order.
func (h *Hub) Submit(ctx context.Context, s Session, line string) error {
	return h.enqueue(ctx, Command{Kind: CommandLine, Session: s, Line: line})
}

// Detach reports that the transport lost the session.
func (h *Hub) Detach(ctx context.Context, s Session, reason string) error {
	return h.enqueue(ctx, Command{Kind: CommandDetach, Session: s, Reason: reason})
}

// Stats returns a registry snapshot taken on the hub goroutine.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	if err := h.enqueue(ctx, Command{Kind: CommandStats, stats: reply}); err != nil {
		return Stats{}, err
	}
	select {
	case st := <-reply:
		return st, nil
	case <-h.done:
		return Stats{}, ErrHubClosed
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

func (h *Hub) enqueue(ctx context.Context, cmd Command) error {
	select {
	case h.commands <- cmd:
		return nil
	case <-h.done:
		return ErrHubClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) apply(cmd Command) {
	switch cmd.Kind {
	case CommandAttach:
		h.attach(cmd.Session)
	case CommandLine:
		h.handleLine(cmd.Session, cmd.Line)
	case CommandDetach:
		if c, ok := h.lookup(cmd.Session); ok {
			h.disconnect(c.ID, cmd.Reason)
		}
	case CommandStats:
		cmd.stats <- h.snapshot()
	}
	h.reap()
}

func (h *Hub) attach(s Session) {
	c := NewClient(s)
	h.registry.Add(c)
	h.log.Info().Uint64("conn_id", uint64(c.ID)).Str("host", c.Host).Msg("client connected")
}

// lookup resolves a session to its live client, ignoring stale sessions.
func (h *Hub) lookup(s Session) (*Client, bool) {
	if s == nil {
		return nil, false
	}
	c, ok := h.registry.Client(s.ID())
	if !ok || c.session != s {
		return nil, false
	}
	return c, true
}

func (h *Hub) handleLine(s Session, line string) {
	c, ok := h.lookup(s)
	if !ok {
		return
	}
	msg, ok := proto.Parse(line)
	if !ok {
		h.log.Debug().Uint64("conn_id", uint64(c.ID)).Msg("dropping empty line")
		return
	}
	h.dispatch(c, msg)
}

// disconnect removes a client from the registry and every channel, tells its
// channel peers, and closes the session. A second call for the same id is a no-op.
func (h *Hub) disconnect(id ConnID, reason string) {
	c, ok := h.registry.Client(id)
	if !ok {
		return
	}
	if reason == "" {
		reason = "Client disconnected"
	}
	if c.Welcomed {
		h.sendPeers(c, proto.NewMessage(c.Mask(), proto.CmdQuit, reason))
	}
	h.registry.Remove(id)
	c.session.Close()
	h.log.Info().
		Uint64("conn_id", uint64(id)).
		Str("nick", c.Nick).
		Str("reason", reason).
		Msg("client disconnected")
}

// schedule defers a disconnect until the running handler has finished.
func (h *Hub) schedule(id ConnID, reason string) {
	h.doomed = append(h.doomed, pendingDisconnect{id: id, reason: reason})
}

func (h *Hub) reap() {
	for len(h.doomed) > 0 {
		next := h.doomed[0]
		h.doomed = h.doomed[1:]
		h.disconnect(next.id, next.reason)
	}
}

func (h *Hub) shutdown() {
	for _, c := range h.registry.Clients() {
		_ = c.session.Send(proto.NewMessage("", proto.CmdError, "Server shutting down").Line())
		h.registry.Remove(c.ID)
		c.session.Close()
	}
	h.log.Info().Msg("hub stopped")
}

func (h *Hub) snapshot() Stats {
	st := Stats{Clients: h.registry.Len(), Channels: h.registry.ChannelCount()}
	for _, c := range h.registry.Clients() {
		if c.Welcomed {
			st.Registered++
		}
	}
	return st
}

// send enqueues msg for one client; queue overflow schedules a disconnect.
func (h *Hub) send(c *Client, msg proto.Message) {
	err := c.session.Send(msg.Line())
	if err == nil {
		return
	}
	if errors.Is(err, ErrSendQueueFull) {
		h.log.Warn().Uint64("conn_id", uint64(c.ID)).Msg("send queue exceeded")
		h.schedule(c.ID, "SendQ exceeded")
		return
	}
	h.log.Debug().Err(err).Uint64("conn_id", uint64(c.ID)).Msg("send dropped")
}

// reply sends a numeric addressed to c.
func (h *Hub) reply(c *Client, code string, params ...string) {
	args := append([]string{c.Target()}, params...)
	h.send(c, proto.NewMessage(h.opts.ServerName, code, args...))
}

// replyPlain sends a numeric whose last parameter is not marked as trailing.
func (h *Hub) replyPlain(c *Client, code string, params ...string) {
	h.send(c, proto.Message{
		Prefix:  h.opts.ServerName,
		Command: code,
		Params:  append([]string{c.Target()}, params...),
	})
}

func (h *Hub) replyError(c *Client, err *NumericError) {
	h.reply(c, err.Code, append(append([]string(nil), err.Params...), err.Text)...)
}

func (h *Hub) notice(c *Client, text string) {
	h.send(c, proto.NewMessage(h.opts.ServerName, proto.CmdNotice, c.Target(), text))
}

// broadcast delivers msg to every member of ch except the given id.
func (h *Hub) broadcast(ch *Channel, msg proto.Message, except ConnID) {
	for _, id := range ch.Members() {
		if id == except {
			continue
		}
		if member, ok := h.registry.Client(id); ok {
			h.send(member, msg)
		}
	}
}

// sendPeers delivers msg once to every client sharing a channel with c, c excluded.
func (h *Hub) sendPeers(c *Client, msg proto.Message) {
	seen := map[ConnID]struct{}{c.ID: {}}
	for _, key := range c.Channels() {
		ch, ok := h.registry.channels[key]
		if !ok {
			continue
		}
		for _, id := range ch.Members() {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if peer, ok := h.registry.Client(id); ok {
				h.send(peer, msg)
			}
		}
	}
}
