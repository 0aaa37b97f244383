package core

import (
	"slices"
	"strconv"

	"github.com/vovakirdan/ircserv/internal/proto"
)

// Channel groups clients under one name. Members are referenced by ConnID only;
// operators and invited are kept as subsets keyed the same way.
type Channel struct {
	Name           string
	Topic          string
	InviteOnly     bool
	TopicProtected bool
	Key            string
	// Limit caps membership; 0 means unlimited.
	Limit int

	members   map[ConnID]struct{}
	operators map[ConnID]struct{}
	invited   map[ConnID]struct{}
}

// NewChannel constructs a channel with no members.
func NewChannel(name string) *Channel {
	return &Channel{
		Name:      name,
		members:   make(map[ConnID]struct{}),
		operators: make(map[ConnID]struct{}),
		invited:   make(map[ConnID]struct{}),
	}
}

// AddMember inserts a connection. Returns true if newly added.
// A pending invite is consumed.
func (ch *Channel) AddMember(id ConnID) bool {
	if _, exists := ch.members[id]; exists {
		return false
	}
	ch.members[id] = struct{}{}
	delete(ch.invited, id)
	return true
}

// RemoveMember deletes a connection along with its operator status and invite.
// Returns true if it was a member.
func (ch *Channel) RemoveMember(id ConnID) bool {
	delete(ch.operators, id)
	delete(ch.invited, id)
	if _, exists := ch.members[id]; !exists {
		return false
	}
	delete(ch.members, id)
	return true
}

// IsMember reports channel membership.
func (ch *Channel) IsMember(id ConnID) bool {
	_, ok := ch.members[id]
	return ok
}

// IsOperator reports operator status.
func (ch *Channel) IsOperator(id ConnID) bool {
	_, ok := ch.operators[id]
	return ok
}

// Grant makes a member an operator. Non-members are refused so that operators
// stay a subset of members. Returns true if status changed.
func (ch *Channel) Grant(id ConnID) bool {
	if !ch.IsMember(id) || ch.IsOperator(id) {
		return false
	}
	ch.operators[id] = struct{}{}
	return true
}

// Revoke removes operator status. Returns true if status changed.
func (ch *Channel) Revoke(id ConnID) bool {
	if !ch.IsOperator(id) {
		return false
	}
	delete(ch.operators, id)
	return true
}

// Invite grants a one-time bypass of invite-only.
func (ch *Channel) Invite(id ConnID) {
	ch.invited[id] = struct{}{}
}

// IsInvited reports a pending invite.
func (ch *Channel) IsInvited(id ConnID) bool {
	_, ok := ch.invited[id]
	return ok
}

// Members returns member ids in ascending order.
func (ch *Channel) Members() []ConnID {
	return sortedIDs(ch.members)
}

// Operators returns operator ids in ascending order.
func (ch *Channel) Operators() []ConnID {
	return sortedIDs(ch.operators)
}

// Len returns the member count.
func (ch *Channel) Len() int {
	return len(ch.members)
}

// Empty returns true if no clients are in the channel.
func (ch *Channel) Empty() bool {
	return len(ch.members) == 0
}

// Full reports whether the member limit is reached.
func (ch *Channel) Full() bool {
	return ch.Limit > 0 && len(ch.members) >= ch.Limit
}

// Admit checks whether id may join with the supplied key.
func (ch *Channel) Admit(id ConnID, key string) error {
	if ch.IsMember(id) {
		return numericError(proto.ErrUserOnChannel, "is already on channel", ch.Name)
	}
	if ch.InviteOnly && !ch.IsInvited(id) {
		return numericError(proto.ErrInviteOnlyChan, "Cannot join channel (+i)", ch.Name)
	}
	if ch.Key != "" && key != ch.Key {
		return numericError(proto.ErrBadChannelKey, "Cannot join channel (+k)", ch.Name)
	}
	if ch.Full() {
		return numericError(proto.ErrChannelIsFull, "Cannot join channel (+l)", ch.Name)
	}
	return nil
}

// Modes renders the mode string and, when withArgs is set, the key and limit values.
func (ch *Channel) Modes(withArgs bool) (string, []string) {
	modes := "+"
	var args []string
	if ch.InviteOnly {
		modes += "i"
	}
	if ch.TopicProtected {
		modes += "t"
	}
	if ch.Key != "" {
		modes += "k"
		if withArgs {
			args = append(args, ch.Key)
		}
	}
	if ch.Limit > 0 {
		modes += "l"
		if withArgs {
			args = append(args, strconv.Itoa(ch.Limit))
		}
	}
	return modes, args
}

func sortedIDs(m map[ConnID]struct{}) []ConnID {
	out := make([]ConnID, 0, len(m))
	for id := range m {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}
