package core

import (
	"strconv"
	"strings"

	"github.com/vovakirdan/ircserv/internal/proto"
)

func handleMode(h *Hub, c *Client, msg proto.Message) error {
	target := msg.Param(0)
	if target == "" {
		return errNeedMoreParams(proto.CmdMode)
	}

	if !proto.IsChannelName(target) {
		return h.userMode(c, target)
	}

	ch, ok := h.registry.Channel(target)
	if !ok {
		return errNoSuchChannel(target)
	}

	flags := msg.Param(1)
	if flags == "" {
		modes, args := ch.Modes(ch.IsMember(c.ID))
		h.replyPlain(c, proto.RplChannelModeIs, append([]string{ch.Name, modes}, args...)...)
		return nil
	}
	if !ch.IsOperator(c.ID) {
		return errChanOPrivsNeeded(ch.Name)
	}

	args := append([]string(nil), msg.Params[2:]...)
	if msg.HasTrailing {
		args = append(args, msg.Trailing)
	}
	if modeArgsNeeded(flags) > len(args) {
		return errNeedMoreParams(proto.CmdMode)
	}

	h.applyModes(c, ch, flags, args)
	return nil
}

// modeArgsNeeded counts the arguments a flag string consumes.
func modeArgsNeeded(flags string) int {
	need := 0
	adding := true
	for _, f := range flags {
		switch f {
		case '+':
			adding = true
		case '-':
			adding = false
		case 'o':
			need++
		case 'k', 'l':
			if adding {
				need++
			}
		}
	}
	return need
}

// applyModes walks flags left to right, consuming args only for flags that take
// one, and broadcasts each change that altered channel state.
func (h *Hub) applyModes(c *Client, ch *Channel, flags string, args []string) {
	adding := true
	next := 0
	take := func() string {
		arg := args[next]
		next++
		return arg
	}
	announce := func(flag rune, arg string) {
		sign := "-"
		if adding {
			sign = "+"
		}
		params := []string{ch.Name, sign + string(flag)}
		if arg != "" {
			params = append(params, arg)
		}
		h.broadcast(ch, proto.Message{Prefix: c.Mask(), Command: proto.CmdMode, Params: params}, noConn)
	}

	for _, f := range flags {
		switch f {
		case '+':
			adding = true
		case '-':
			adding = false
		case 'i':
			if ch.InviteOnly != adding {
				ch.InviteOnly = adding
				announce(f, "")
			}
		case 't':
			if ch.TopicProtected != adding {
				ch.TopicProtected = adding
				announce(f, "")
			}
		case 'k':
			if adding {
				key := take()
				if !validKey(key) {
					h.replyError(c, numericError(proto.ErrInvalidKey, "Key is not well-formed", ch.Name))
					continue
				}
				if ch.Key != key {
					ch.Key = key
					announce(f, key)
				}
			} else if ch.Key != "" {
				ch.Key = ""
				announce(f, "")
			}
		case 'l':
			if adding {
				raw := take()
				limit, err := strconv.Atoi(raw)
				if err != nil || limit <= 0 {
					h.replyError(c, numericError(proto.ErrNeedMoreParams, "Invalid limit "+raw, proto.CmdMode))
					continue
				}
				if ch.Limit != limit {
					ch.Limit = limit
					announce(f, raw)
				}
			} else if ch.Limit != 0 {
				ch.Limit = 0
				announce(f, "")
			}
		case 'o':
			nick := take()
			target, ok := h.registry.ByNick(nick)
			if !ok {
				h.replyError(c, errNoSuchNick(nick))
				continue
			}
			if !ch.IsMember(target.ID) {
				h.replyError(c, numericError(proto.ErrUserNotInChannel, "They aren't on that channel", target.Nick, ch.Name))
				continue
			}
			var changed bool
			if adding {
				changed = ch.Grant(target.ID)
			} else {
				changed = ch.Revoke(target.ID)
			}
			if changed {
				announce(f, target.Nick)
			}
		default:
			h.replyError(c, numericError(proto.ErrUModeUnknownFlag, "Unknown MODE flag", string(f)))
		}
	}
}

// validKey reports whether key survives as a single middle parameter and as
// one element of a JOIN key list.
func validKey(key string) bool {
	if key == "" || key[0] == ':' {
		return false
	}
	return !strings.ContainsAny(key, " ,")
}

// userMode answers MODE for a nickname. No user modes are kept.
func (h *Hub) userMode(c *Client, nick string) error {
	other, ok := h.registry.ByNick(nick)
	if !ok {
		return errNoSuchNick(nick)
	}
	if other.ID != c.ID {
		return numericError(proto.ErrUsersDontMatch, "Cant change mode for other users")
	}
	h.replyPlain(c, proto.RplUModeIs, "+")
	return nil
}
