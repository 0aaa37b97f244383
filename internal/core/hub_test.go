package core

import (
	"strings"
	"testing"

	"github.com/vovakirdan/ircserv/internal/proto"
)

func TestRegistrationWelcomesOnce(t *testing.T) {
	th := startHub(t)
	s := th.connect()

	got := th.exchange(s, "PASS "+testPassword, "NICK alice", "USER alice 0 * :Alice A")
	for _, code := range []string{proto.RplWelcome, proto.RplYourHost, proto.RplCreated, proto.RplMyInfo, proto.RplISupport, proto.ErrNoMotd} {
		if count(got, code) != 1 {
			t.Fatalf("expected one %s, got %v", code, commands(got))
		}
	}
	welcome := mustCommand(t, got, proto.RplWelcome)
	if welcome.Param(0) != "alice" || !strings.HasSuffix(welcome.Trailing, "alice!alice@127.0.0.1") {
		t.Fatalf("unexpected welcome: %q", welcome.String())
	}

	got = th.exchange(s, "USER again 0 * :x", "PASS "+testPassword, "NICK alice")
	if count(got, proto.RplWelcome) != 0 {
		t.Fatalf("welcome sent twice: %v", commands(got))
	}
	if count(got, proto.ErrAlreadyRegistered) != 2 {
		t.Fatalf("expected two 462, got %v", commands(got))
	}

	if st := th.sync(); st.Clients != 1 || st.Registered != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
}

func TestRegistrationAnyOrder(t *testing.T) {
	th := startHub(t)
	s := th.connect()

	got := th.exchange(s, "USER bob 0 * :Bob", "NICK bob")
	if count(got, proto.RplWelcome) != 0 {
		t.Fatal("welcomed without password")
	}
	got = th.exchange(s, "PASS "+testPassword)
	mustCommand(t, got, proto.RplWelcome)
}

func TestPasswordMismatchClosesLink(t *testing.T) {
	th := startHub(t)
	s := th.connect()

	got := th.exchange(s, "PASS wrong")
	mustCommand(t, got, proto.ErrPasswordMismatch)
	errLine := mustCommand(t, got, proto.CmdError)
	if !strings.HasPrefix(errLine.Trailing, "Closing Link") {
		t.Fatalf("unexpected ERROR line: %q", errLine.String())
	}
	if !s.Closed() {
		t.Fatal("session should be closed")
	}
	if st := th.sync(); st.Clients != 0 {
		t.Fatalf("client still registered: %+v", st)
	}
}

func TestCommandsGatedUntilRegistered(t *testing.T) {
	th := startHub(t)
	s := th.connect()

	got := th.exchange(s, "JOIN #a", "FOO bar", "PING tok")
	if count(got, proto.ErrNotRegistered) != 1 {
		t.Fatalf("expected 451, got %v", commands(got))
	}
	if count(got, proto.ErrUnknownCommand) != 1 {
		t.Fatalf("expected 421, got %v", commands(got))
	}
	pong := mustCommand(t, got, proto.CmdPong)
	if pong.Trailing != "tok" {
		t.Fatalf("unexpected pong: %q", pong.String())
	}
}

func TestEmptyLinesIgnored(t *testing.T) {
	th := startHub(t)
	s := th.connect()

	if got := th.exchange(s, "", "   "); len(got) != 0 {
		t.Fatalf("expected no replies, got %v", commands(got))
	}
}

func TestCapNegotiationDefersRegistration(t *testing.T) {
	th := startHub(t)
	s := th.connect()

	got := th.exchange(s, "CAP LS 302")
	ls := mustCommand(t, got, proto.CmdCap)
	if ls.Param(1) != "LS" || ls.Trailing != "multi-prefix" {
		t.Fatalf("unexpected CAP LS: %q", ls.String())
	}

	got = th.exchange(s, "PASS "+testPassword, "NICK carol", "USER carol 0 * :Carol", "NAMES")
	if len(got) != 0 {
		t.Fatalf("expected silence while negotiating, got %v", commands(got))
	}

	got = th.exchange(s, "CAP REQ :multi-prefix", "CAP REQ :bogus")
	if len(got) != 2 || got[0].Param(1) != "ACK" || got[1].Param(1) != "NAK" {
		t.Fatalf("unexpected CAP replies: %v", got)
	}

	got = th.exchange(s, "CAP LIST")
	if got[0].Trailing != "multi-prefix" {
		t.Fatalf("unexpected CAP LIST: %q", got[0].String())
	}

	got = th.exchange(s, "CAP END")
	if count(got, proto.RplWelcome) != 1 {
		t.Fatalf("expected welcome after CAP END, got %v", commands(got))
	}
}

func TestNickCollisionRejected(t *testing.T) {
	th := startHub(t)
	th.register("alice")
	s := th.connect()

	got := th.exchange(s, "PASS "+testPassword, "NICK ALICE", "USER x 0 * :x")
	mustCommand(t, got, proto.ErrNicknameInUse)
	if count(got, proto.RplWelcome) != 0 {
		t.Fatal("colliding client was welcomed")
	}

	got = th.exchange(s, "NICK alice2")
	mustCommand(t, got, proto.RplWelcome)
}

func TestNickValidation(t *testing.T) {
	th := startHub(t)
	s := th.connect()

	got := th.exchange(s, "NICK", "NICK 9lives", "NICK bad*nick")
	if count(got, proto.ErrNoNicknameGiven) != 1 || count(got, proto.ErrErroneusNickname) != 2 {
		t.Fatalf("unexpected replies: %v", commands(got))
	}
}

func TestNickChangeReachesPeers(t *testing.T) {
	th := startHub(t)
	alice := th.register("alice")
	bob := th.register("bob")
	th.exchange(alice, "JOIN #a")
	th.exchange(bob, "JOIN #a")
	alice.Take()

	got := th.exchange(alice, "NICK alicia")
	change := mustCommand(t, got, proto.CmdNick)
	if change.Trailing != "alicia" || !strings.HasPrefix(change.Prefix, "alice!") {
		t.Fatalf("unexpected NICK echo: %q", change.String())
	}
	if count(bob.Take(), proto.CmdNick) != 1 {
		t.Fatal("bob did not see the nick change")
	}

	carol := th.connect()
	got = th.exchange(carol, "PASS "+testPassword, "NICK alice", "USER c 0 * :c")
	mustCommand(t, got, proto.RplWelcome)
}

func TestPingWithoutToken(t *testing.T) {
	th := startHub(t)
	s := th.register("alice")

	got := th.exchange(s, "PING")
	mustCommand(t, got, proto.ErrNoOrigin)
}

func TestQuitNotifiesPeers(t *testing.T) {
	th := startHub(t)
	alice := th.register("alice")
	bob := th.register("bob")
	th.exchange(alice, "JOIN #a")
	th.exchange(bob, "JOIN #a")
	alice.Take()

	got := th.exchange(bob, "QUIT :bye")
	mustCommand(t, got, proto.CmdError)
	if !bob.Closed() {
		t.Fatal("bob not closed")
	}
	quit := mustCommand(t, alice.Take(), proto.CmdQuit)
	if quit.Trailing != "bye" {
		t.Fatalf("unexpected quit reason: %q", quit.Trailing)
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	th := startHub(t)
	alice := th.register("alice")
	bob := th.register("bob")
	th.exchange(alice, "JOIN #a")
	th.exchange(bob, "JOIN #a")
	alice.Take()

	for range 2 {
		if err := th.hub.Detach(th.ctx, bob, "connection reset"); err != nil {
			t.Fatalf("detach: %v", err)
		}
	}
	st := th.sync()
	if st.Clients != 1 || st.Channels != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	if count(alice.Take(), proto.CmdQuit) != 1 {
		t.Fatal("expected exactly one QUIT")
	}

	got := th.exchange(alice, "NAMES #a")
	names := mustCommand(t, got, proto.RplNamReply)
	if names.Trailing != "@alice" {
		t.Fatalf("bob still listed: %q", names.Trailing)
	}
}

func TestStaleSessionIgnored(t *testing.T) {
	th := startHub(t)
	alice := th.register("alice")

	impostor := &fakeSession{id: alice.id, host: "10.0.0.1"}
	th.send(impostor, "QUIT :stolen")
	if err := th.hub.Detach(th.ctx, impostor, "gone"); err != nil {
		t.Fatal(err)
	}
	if st := th.sync(); st.Clients != 1 {
		t.Fatalf("stale session affected the registry: %+v", st)
	}
	if alice.Closed() {
		t.Fatal("alice closed by stale session")
	}
}

func TestSendQueueOverflowDisconnects(t *testing.T) {
	th := startHub(t)
	alice := th.register("alice")
	bob := th.register("bob")
	th.exchange(alice, "JOIN #a")
	th.exchange(bob, "JOIN #a")

	bob.mu.Lock()
	bob.limit = len(bob.lines) + 1
	bob.mu.Unlock()

	th.send(alice, "PRIVMSG #a :one", "PRIVMSG #a :two")
	st := th.sync()
	if !bob.Closed() {
		t.Fatal("bob should have been dropped")
	}
	if st.Clients != 1 {
		t.Fatalf("unexpected stats: %+v", st)
	}
	quit := mustCommand(t, alice.Take(), proto.CmdQuit)
	if quit.Trailing != "SendQ exceeded" {
		t.Fatalf("unexpected quit reason: %q", quit.Trailing)
	}
}

func TestShutdownClosesSessions(t *testing.T) {
	th := startHub(t)
	alice := th.register("alice")

	th.stop()
	if !alice.Closed() {
		t.Fatal("session left open after shutdown")
	}
	errLine := mustCommand(t, alice.Take(), proto.CmdError)
	if errLine.Trailing != "Server shutting down" {
		t.Fatalf("unexpected ERROR line: %q", errLine.String())
	}
}

func TestHelpSendsNotices(t *testing.T) {
	th := startHub(t)
	s := th.connect()

	got := th.exchange(s, "HELP")
	if count(got, proto.CmdNotice) != len(helpLines) {
		t.Fatalf("expected %d notices, got %v", len(helpLines), commands(got))
	}
}
