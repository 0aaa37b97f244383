package core

import (
	"strconv"
	"strings"

	"github.com/vovakirdan/ircserv/internal/proto"
)

func handleJoin(h *Hub, c *Client, msg proto.Message) error {
	if len(msg.Params) == 0 && msg.Trailing == "" {
		return errNeedMoreParams(proto.CmdJoin)
	}
	names := splitList(firstArg(msg))
	keys := splitList(msg.Param(1))
	for i, name := range names {
		key := ""
		if i < len(keys) {
			key = keys[i]
		}
		if err := h.join(c, name, key); err != nil {
			h.fail(c, err)
		}
	}
	return nil
}

func (h *Hub) join(c *Client, name, key string) error {
	if !validChannelName(name) {
		return errNoSuchChannel(name)
	}

	ch, exists := h.registry.Channel(name)
	if !exists {
		ch = h.registry.CreateChannel(name, c)
		h.log.Info().Str("channel", ch.Name).Str("nick", c.Nick).Msg("channel created")
	} else {
		if err := ch.Admit(c.ID, key); err != nil {
			return err
		}
		h.registry.Join(c, ch)
	}

	h.broadcast(ch, proto.Message{Prefix: c.Mask(), Command: proto.CmdJoin, Params: []string{ch.Name}}, noConn)
	if ch.Topic != "" {
		h.reply(c, proto.RplTopic, ch.Name, ch.Topic)
	}
	h.sendNames(c, ch)
	return nil
}

func handlePart(h *Hub, c *Client, msg proto.Message) error {
	if len(msg.Params) == 0 {
		return errNeedMoreParams(proto.CmdPart)
	}
	for _, name := range splitList(msg.Params[0]) {
		ch, ok := h.registry.Channel(name)
		if !ok {
			h.replyError(c, errNoSuchChannel(name))
			continue
		}
		if !ch.IsMember(c.ID) {
			h.replyError(c, errNotOnChannel(ch.Name))
			continue
		}
		part := proto.Message{Prefix: c.Mask(), Command: proto.CmdPart, Params: []string{ch.Name}}
		if msg.Trailing != "" {
			part.Trailing, part.HasTrailing = msg.Trailing, true
		}
		h.broadcast(ch, part, noConn)
		if h.registry.Part(c, ch) {
			h.log.Info().Str("channel", ch.Name).Msg("channel removed")
		}
	}
	return nil
}

func handleTopic(h *Hub, c *Client, msg proto.Message) error {
	name := msg.Param(0)
	if name == "" {
		return errNeedMoreParams(proto.CmdTopic)
	}
	ch, ok := h.registry.Channel(name)
	if !ok {
		return errNoSuchChannel(name)
	}

	if !msg.HasTrailing && len(msg.Params) < 2 {
		if ch.Topic == "" {
			h.reply(c, proto.RplNoTopic, ch.Name, "No topic is set")
		} else {
			h.reply(c, proto.RplTopic, ch.Name, ch.Topic)
		}
		return nil
	}

	text := msg.Trailing
	if !msg.HasTrailing {
		text = msg.Params[1]
	}
	if !ch.IsMember(c.ID) {
		return errNotOnChannel(ch.Name)
	}
	if ch.TopicProtected && !ch.IsOperator(c.ID) {
		return errChanOPrivsNeeded(ch.Name)
	}
	ch.Topic = text
	h.broadcast(ch, proto.NewMessage(c.Mask(), proto.CmdTopic, ch.Name, text), noConn)
	return nil
}

func handleKick(h *Hub, c *Client, msg proto.Message) error {
	if len(msg.Params) < 2 {
		return errNeedMoreParams(proto.CmdKick)
	}
	ch, ok := h.registry.Channel(msg.Params[0])
	if !ok {
		return errNoSuchChannel(msg.Params[0])
	}
	if !ch.IsMember(c.ID) {
		return errNotOnChannel(ch.Name)
	}

	reason := msg.Trailing
	if reason == "" {
		reason = msg.Param(2)
	}
	if reason == "" {
		reason = "No reason given"
	}

	for _, nick := range splitList(msg.Params[1]) {
		target, ok := h.registry.ByNick(nick)
		if !ok {
			h.replyError(c, errNoSuchNick(nick))
			continue
		}
		if target.ID == c.ID {
			h.replyError(c, numericError(proto.ErrChanOPrivsNeeded, "You cannot kick yourself", ch.Name))
			continue
		}
		if !ch.IsOperator(c.ID) {
			h.replyError(c, errChanOPrivsNeeded(ch.Name))
			continue
		}
		if !ch.IsMember(target.ID) {
			h.replyError(c, numericError(proto.ErrUserNotInChannel, "They aren't on that channel", target.Nick, ch.Name))
			continue
		}

		h.broadcast(ch, proto.NewMessage(c.Mask(), proto.CmdKick, ch.Name, target.Nick, reason), noConn)
		h.registry.Part(target, ch)
		h.log.Info().Str("channel", ch.Name).Str("by", c.Nick).Str("target", target.Nick).Msg("member kicked")
	}
	return nil
}

func handleInvite(h *Hub, c *Client, msg proto.Message) error {
	if len(msg.Params) < 2 {
		return errNeedMoreParams(proto.CmdInvite)
	}
	name, nick := msg.Params[0], msg.Params[1]
	if !proto.IsChannelName(name) && proto.IsChannelName(nick) {
		name, nick = nick, name
	}

	ch, ok := h.registry.Channel(name)
	if !ok {
		return errNoSuchChannel(name)
	}
	if !ch.IsMember(c.ID) {
		return errNotOnChannel(ch.Name)
	}
	if !ch.IsOperator(c.ID) {
		return errChanOPrivsNeeded(ch.Name)
	}
	target, ok := h.registry.ByNick(nick)
	if !ok {
		return errNoSuchNick(nick)
	}
	if ch.IsMember(target.ID) {
		return numericError(proto.ErrUserOnChannel, "is already on channel", target.Nick, ch.Name)
	}

	ch.Invite(target.ID)
	h.replyPlain(c, proto.RplInviting, target.Nick, ch.Name)
	h.send(target, proto.NewMessage(c.Mask(), proto.CmdInvite, target.Nick, ch.Name))
	return nil
}

func handleNames(h *Hub, c *Client, msg proto.Message) error {
	if len(msg.Params) == 0 {
		for _, ch := range h.registry.Channels() {
			h.sendNames(c, ch)
		}
		return nil
	}
	for _, name := range splitList(msg.Params[0]) {
		if ch, ok := h.registry.Channel(name); ok {
			h.sendNames(c, ch)
			continue
		}
		h.reply(c, proto.RplEndOfNames, name, "End of /NAMES list")
	}
	return nil
}

func handleList(h *Hub, c *Client, _ proto.Message) error {
	h.reply(c, proto.RplListStart, "Channel", "Users  Name")
	for _, ch := range h.registry.Channels() {
		h.reply(c, proto.RplList, ch.Name, strconv.Itoa(ch.Len()), ch.Topic)
	}
	h.reply(c, proto.RplListEnd, "End of /LIST")
	return nil
}

func (h *Hub) sendNames(c *Client, ch *Channel) {
	names := make([]string, 0, ch.Len())
	for _, id := range ch.Members() {
		member, ok := h.registry.Client(id)
		if !ok {
			continue
		}
		if ch.IsOperator(id) {
			names = append(names, "@"+member.Nick)
		} else {
			names = append(names, member.Nick)
		}
	}
	h.reply(c, proto.RplNamReply, "=", ch.Name, strings.Join(names, " "))
	h.reply(c, proto.RplEndOfNames, ch.Name, "End of /NAMES list")
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
