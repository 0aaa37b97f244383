package core

import (
	"github.com/vovakirdan/ircserv/internal/proto"
)

func handlePrivmsg(h *Hub, c *Client, msg proto.Message) error {
	return h.deliver(c, msg, false)
}

// NOTICE never triggers automatic replies, errors included.
func handleNotice(h *Hub, c *Client, msg proto.Message) error {
	return h.deliver(c, msg, true)
}

func (h *Hub) deliver(c *Client, msg proto.Message, quiet bool) error {
	fail := func(err *NumericError) {
		if !quiet {
			h.replyError(c, err)
		}
	}

	targets := msg.Param(0)
	text := msg.Trailing
	if !msg.HasTrailing && len(msg.Params) >= 2 {
		text = msg.Params[1]
	}
	if targets == "" {
		fail(numericError(proto.ErrNoRecipient, "No recipient given ("+msg.Command+")"))
		return nil
	}
	if text == "" {
		fail(numericError(proto.ErrNoTextToSend, "No text to send"))
		return nil
	}

	for _, target := range splitList(targets) {
		if proto.IsChannelName(target) {
			ch, ok := h.registry.Channel(target)
			if !ok {
				fail(errNoSuchChannel(target))
				continue
			}
			if !ch.IsMember(c.ID) {
				fail(errNotOnChannel(ch.Name))
				continue
			}
			h.broadcast(ch, proto.NewMessage(c.Mask(), msg.Command, ch.Name, text), c.ID)
			continue
		}

		peer, ok := h.registry.ByNick(target)
		if !ok {
			fail(errNoSuchNick(target))
			continue
		}
		h.send(peer, proto.NewMessage(c.Mask(), msg.Command, peer.Nick, text))
	}
	return nil
}

func handleWho(h *Hub, c *Client, msg proto.Message) error {
	mask := msg.Param(0)

	switch {
	case mask == "" || mask == "*" || mask == "0":
		for _, other := range h.registry.Clients() {
			h.whoReply(c, other, "*", false)
		}
		mask = "*"
	case proto.IsChannelName(mask):
		ch, ok := h.registry.Channel(mask)
		if !ok {
			return errNoSuchChannel(mask)
		}
		for _, id := range ch.Members() {
			if member, ok := h.registry.Client(id); ok {
				h.whoReply(c, member, ch.Name, ch.IsOperator(id))
			}
		}
	default:
		other, ok := h.registry.ByNick(mask)
		if !ok {
			return errNoSuchNick(mask)
		}
		h.whoReply(c, other, "*", false)
	}

	h.reply(c, proto.RplEndOfWho, mask, "End of WHO list")
	return nil
}

// whoReply emits one 352 line carrying nickname, username and realname.
func (h *Hub) whoReply(c, about *Client, channel string, op bool) {
	flags := "H"
	if op {
		flags += "@"
	}
	h.reply(c, proto.RplWhoReply,
		channel, orStar(about.User), about.Host, h.opts.ServerName, about.Target(), flags,
		"0 "+about.Realname)
}

func orStar(s string) string {
	if s == "" {
		return "*"
	}
	return s
}
