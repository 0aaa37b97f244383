package core

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/ircserv/internal/proto"
)

const testPassword = "secret"

var errSessionClosed = errors.New("session closed")

// fakeSession records every line the hub sends.
type fakeSession struct {
	id   ConnID
	host string
	// limit caps buffered lines; 0 means unlimited.
	limit int

	mu     sync.Mutex
	lines  []string
	closed bool
}

func (s *fakeSession) ID() ConnID         { return s.id }
func (s *fakeSession) RemoteHost() string { return s.host }

func (s *fakeSession) Send(line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errSessionClosed
	}
	if s.limit > 0 && len(s.lines) >= s.limit {
		return ErrSendQueueFull
	}
	s.lines = append(s.lines, strings.TrimSuffix(line, "\r\n"))
	return nil
}

func (s *fakeSession) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

func (s *fakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Take returns the recorded lines parsed, and forgets them.
func (s *fakeSession) Take() []proto.Message {
	s.mu.Lock()
	lines := s.lines
	s.lines = nil
	s.mu.Unlock()

	out := make([]proto.Message, 0, len(lines))
	for _, l := range lines {
		if msg, ok := proto.Parse(l); ok {
			out = append(out, msg)
		}
	}
	return out
}

type passwordFunc func(string) bool

func (f passwordFunc) Verify(p string) bool { return f(p) }

type testHub struct {
	t      *testing.T
	ctx    context.Context
	hub    *Hub
	cancel context.CancelFunc
	nextID ConnID
}

func startHub(t *testing.T) *testHub {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	hub := NewHub(Options{ServerName: "irc.test", Capabilities: []string{"multi-prefix"}},
		passwordFunc(func(p string) bool { return p == testPassword }), nil)
	go hub.Run(ctx)
	th := &testHub{t: t, ctx: ctx, hub: hub, cancel: cancel}
	t.Cleanup(th.stop)
	return th
}

// stop cancels the hub and waits for Run to return.
func (th *testHub) stop() {
	th.cancel()
	<-th.hub.Done()
}

func (th *testHub) connect() *fakeSession {
	th.t.Helper()
	th.nextID++
	s := &fakeSession{id: th.nextID, host: "127.0.0.1"}
	if err := th.hub.Attach(th.ctx, s); err != nil {
		th.t.Fatalf("attach: %v", err)
	}
	return s
}

func (th *testHub) send(s Session, lines ...string) {
	th.t.Helper()
	for _, l := range lines {
		if err := th.hub.Submit(th.ctx, s, l); err != nil {
			th.t.Fatalf("submit %q: %v", l, err)
		}
	}
}

// sync returns once every previously submitted command has been applied.
func (th *testHub) sync() Stats {
	th.t.Helper()
	st, err := th.hub.Stats(th.ctx)
	if err != nil {
		th.t.Fatalf("stats: %v", err)
	}
	return st
}

// register connects a fully welcomed client and discards its welcome burst.
func (th *testHub) register(nick string) *fakeSession {
	th.t.Helper()
	s := th.connect()
	th.send(s, "PASS "+testPassword, "NICK "+nick, "USER "+nick+" 0 * :"+nick+" Real")
	th.sync()
	if count(s.Take(), proto.RplWelcome) != 1 {
		th.t.Fatalf("%s was not welcomed", nick)
	}
	return s
}

// exchange submits lines from s and returns what s received in response.
func (th *testHub) exchange(s *fakeSession, lines ...string) []proto.Message {
	th.t.Helper()
	th.send(s, lines...)
	th.sync()
	return s.Take()
}

func count(msgs []proto.Message, command string) int {
	n := 0
	for _, m := range msgs {
		if m.Command == command {
			n++
		}
	}
	return n
}

func mustCommand(t *testing.T, msgs []proto.Message, command string) proto.Message {
	t.Helper()
	for _, m := range msgs {
		if m.Command == command {
			return m
		}
	}
	t.Fatalf("expected %s, got %v", command, commands(msgs))
	return proto.Message{}
}

func commands(msgs []proto.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Command)
	}
	return out
}
