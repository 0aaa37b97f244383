package core

import (
	"testing"

	"github.com/vovakirdan/ircserv/internal/proto"
)

func TestModeQuery(t *testing.T) {
	th := startHub(t)
	sessions := th.room("#a", "alice")
	alice := sessions[0]
	outsider := th.register("bob")

	th.exchange(alice, "MODE #a +tkl key 5")
	got := th.exchange(alice, "MODE #a")
	is := mustCommand(t, got, proto.RplChannelModeIs)
	if is.String() != ":irc.test 324 alice #a +tkl key 5" {
		t.Fatalf("unexpected 324: %q", is.String())
	}

	got = th.exchange(outsider, "MODE #a")
	is = mustCommand(t, got, proto.RplChannelModeIs)
	if len(is.Params) != 3 || is.Params[2] != "+tkl" {
		t.Fatalf("non-member saw arguments: %q", is.String())
	}
}

func TestModeOperatorGrant(t *testing.T) {
	th := startHub(t)
	sessions := th.room("#a", "alice", "bob")
	alice, bob := sessions[0], sessions[1]

	got := th.exchange(bob, "MODE #a +i")
	mustCommand(t, got, proto.ErrChanOPrivsNeeded)

	th.exchange(alice, "MODE #a +o bob")
	mode := mustCommand(t, bob.Take(), proto.CmdMode)
	if mode.String() != ":alice!alice@127.0.0.1 MODE #a +o bob" {
		t.Fatalf("unexpected MODE broadcast: %q", mode.String())
	}

	got = th.exchange(bob, "MODE #a -o alice")
	mustCommand(t, got, proto.CmdMode)
	got = th.exchange(alice, "MODE #a +t")
	mustCommand(t, got, proto.ErrChanOPrivsNeeded)
}

func TestModeBroadcastsOnlyChanges(t *testing.T) {
	th := startHub(t)
	sessions := th.room("#a", "alice", "bob")
	alice, bob := sessions[0], sessions[1]

	th.exchange(alice, "MODE #a +i")
	if count(bob.Take(), proto.CmdMode) != 1 {
		t.Fatal("expected one MODE")
	}
	th.exchange(alice, "MODE #a +i", "MODE #a -k", "MODE #a -l", "MODE #a +o alice")
	if msgs := bob.Take(); len(msgs) != 0 {
		t.Fatalf("no-op modes were broadcast: %v", msgs)
	}
}

func TestModeOperatorNoOps(t *testing.T) {
	th := startHub(t)
	sessions := th.room("#a", "alice", "bob")
	alice, bob := sessions[0], sessions[1]

	th.exchange(alice, "MODE #a +o alice", "MODE #a -o bob")
	if msgs := bob.Take(); len(msgs) != 0 {
		t.Fatalf("unchanged operator status was broadcast: %v", msgs)
	}

	th.exchange(alice, "MODE #a +o bob", "MODE #a +o bob")
	if n := count(bob.Take(), proto.CmdMode); n != 1 {
		t.Fatalf("expected one MODE for a repeated grant, got %d", n)
	}
}

func TestModeRejectsMalformedKey(t *testing.T) {
	th := startHub(t)
	sessions := th.room("#a", "alice", "bob")
	alice, bob := sessions[0], sessions[1]
	carol := th.register("carol")

	for _, line := range []string{"MODE #a +k :two words", "MODE #a +k a,b", "MODE #a +k ::x", "MODE #a +k :"} {
		got := th.exchange(alice, line)
		invalid := mustCommand(t, got, proto.ErrInvalidKey)
		if invalid.Param(1) != "#a" {
			t.Fatalf("unexpected 525: %q", invalid.String())
		}
		if count(got, proto.CmdMode) != 0 {
			t.Fatalf("%q changed the key", line)
		}
	}
	if msgs := bob.Take(); len(msgs) != 0 {
		t.Fatalf("rejected keys were broadcast: %v", msgs)
	}

	got := th.exchange(carol, "JOIN #a")
	mustCommand(t, got, proto.CmdJoin)

	th.exchange(alice, "MODE #a +ik good")
	if n := count(bob.Take(), proto.CmdMode); n != 2 {
		t.Fatalf("valid flags next to the key were not applied: %d", n)
	}
}

func TestModeArgumentErrors(t *testing.T) {
	th := startHub(t)
	sessions := th.room("#a", "alice", "bob")
	alice := sessions[0]
	th.register("carol")

	got := th.exchange(alice, "MODE #a +ik")
	mustCommand(t, got, proto.ErrNeedMoreParams)
	if count(got, proto.CmdMode) != 0 {
		t.Fatal("flags applied despite missing argument")
	}

	got = th.exchange(alice, "MODE #a +l zero", "MODE #a +l -3")
	if count(got, proto.ErrNeedMoreParams) != 2 || count(got, proto.CmdMode) != 0 {
		t.Fatalf("unexpected replies: %v", commands(got))
	}

	got = th.exchange(alice, "MODE #a +xi")
	unknown := mustCommand(t, got, proto.ErrUModeUnknownFlag)
	if unknown.Param(1) != "x" {
		t.Fatalf("unexpected 501: %q", unknown.String())
	}
	mustCommand(t, got, proto.CmdMode)

	got = th.exchange(alice, "MODE #a +o ghost", "MODE #a +o carol", "MODE #nope +i", "MODE")
	for _, code := range []string{proto.ErrNoSuchNick, proto.ErrUserNotInChannel, proto.ErrNoSuchChannel, proto.ErrNeedMoreParams} {
		mustCommand(t, got, code)
	}
}

func TestUserMode(t *testing.T) {
	th := startHub(t)
	alice := th.register("alice")
	th.register("bob")

	got := th.exchange(alice, "MODE alice", "MODE bob", "MODE ghost")
	is := mustCommand(t, got, proto.RplUModeIs)
	if is.Param(1) != "+" {
		t.Fatalf("unexpected 221: %q", is.String())
	}
	mustCommand(t, got, proto.ErrUsersDontMatch)
	mustCommand(t, got, proto.ErrNoSuchNick)
}

func TestModeArgsNeeded(t *testing.T) {
	tests := []struct {
		flags string
		want  int
	}{
		{"+i", 0},
		{"+k", 1},
		{"-k", 0},
		{"+kl", 2},
		{"-l+o", 1},
		{"-o", 1},
		{"+i-t+k-o", 2},
	}
	for _, tt := range tests {
		if got := modeArgsNeeded(tt.flags); got != tt.want {
			t.Errorf("modeArgsNeeded(%q) = %d, want %d", tt.flags, got, tt.want)
		}
	}
}
