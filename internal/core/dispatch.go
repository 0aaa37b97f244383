package core

import (
	"errors"

	"github.com/vovakirdan/ircserv/internal/proto"
)

type handlerFunc func(h *Hub, c *Client, msg proto.Message) error

type route struct {
	handle handlerFunc
	// open routes run before registration completes.
	open bool
}

// capAllowed lists the commands honoured while CAP negotiation is in progress.
var capAllowed = map[string]struct{}{
	proto.CmdCap: {}, proto.CmdPass: {}, proto.CmdNick: {}, proto.CmdUser: {},
	proto.CmdJoin: {}, proto.CmdPart: {}, proto.CmdPrivmsg: {}, proto.CmdPing: {},
	proto.CmdQuit: {}, proto.CmdHelp: {}, proto.CmdWho: {}, proto.CmdKick: {},
	proto.CmdInvite: {}, proto.CmdTopic: {}, proto.CmdMode: {},
}

func defaultRoutes() map[string]route {
	return map[string]route{
		proto.CmdCap:     {handle: handleCap, open: true},
		proto.CmdPass:    {handle: handlePass, open: true},
		proto.CmdNick:    {handle: handleNick, open: true},
		proto.CmdUser:    {handle: handleUser, open: true},
		proto.CmdPing:    {handle: handlePing, open: true},
		proto.CmdPong:    {handle: handlePong, open: true},
		proto.CmdQuit:    {handle: handleQuit, open: true},
		proto.CmdHelp:    {handle: handleHelp, open: true},
		proto.CmdJoin:    {handle: handleJoin},
		proto.CmdPart:    {handle: handlePart},
		proto.CmdPrivmsg: {handle: handlePrivmsg},
		proto.CmdNotice:  {handle: handleNotice},
		proto.CmdTopic:   {handle: handleTopic},
		proto.CmdMode:    {handle: handleMode},
		proto.CmdKick:    {handle: handleKick},
		proto.CmdInvite:  {handle: handleInvite},
		proto.CmdWho:     {handle: handleWho},
		proto.CmdNames:   {handle: handleNames},
		proto.CmdList:    {handle: handleList},
	}
}

func (h *Hub) dispatch(c *Client, msg proto.Message) {
	log := h.log.With().Uint64("conn_id", uint64(c.ID)).Str("command", msg.Command).Logger()

	if c.CapNegotiating {
		if _, ok := capAllowed[msg.Command]; !ok {
			log.Debug().Msg("dropped during CAP negotiation")
			return
		}
	}

	r, ok := h.routes[msg.Command]
	if !ok {
		log.Debug().Msg("unknown command")
		h.reply(c, proto.ErrUnknownCommand, msg.Command, "Unknown command")
		return
	}
	if !r.open && !c.Welcomed {
		h.reply(c, proto.ErrNotRegistered, "You have not registered")
		return
	}

	log.Debug().Strs("params", msg.Args()).Msg("dispatch")
	if err := r.handle(h, c, msg); err != nil {
		h.fail(c, err)
	}
}

// fail reports a handler error to the invoking client.
func (h *Hub) fail(c *Client, err error) {
	var numeric *NumericError
	switch {
	case errors.As(err, &numeric):
		h.replyError(c, numeric)
	case errors.Is(err, ErrPasswordMismatch):
		h.reply(c, proto.ErrPasswordMismatch, "Password incorrect")
		h.log.Warn().Uint64("conn_id", uint64(c.ID)).Msg("bad connection password")
		h.closeLink(c, "Bad password")
	default:
		h.log.Error().Err(err).Uint64("conn_id", uint64(c.ID)).Msg("handler failed")
	}
}
