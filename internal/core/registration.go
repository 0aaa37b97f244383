package core

import (
	"strings"

	"github.com/vovakirdan/ircserv/internal/proto"
)

const nickMaxLen = 30

var helpLines = []string{
	"Available commands:",
	"PASS <password> - Authenticate with the server",
	"NICK <nickname> - Set your nickname",
	"USER <username> <hostname> <servername> :<realname> - Register your username",
	"CAP LS|LIST|REQ|END - Negotiate capabilities",
	"JOIN <#channel>[,<#channel>] [<key>[,<key>]] - Join channels",
	"PART <#channel> [:<reason>] - Leave a channel",
	"PRIVMSG <target> :<message> - Message a user or channel",
	"NOTICE <target> :<message> - Notice a user or channel",
	"TOPIC <#channel> [:<topic>] - Show or set the topic",
	"MODE <#channel> [+|-]itklo [args] - Show or change channel modes",
	"KICK <#channel> <nick> [:<reason>] - Remove a member (operators)",
	"INVITE <nick> <#channel> - Invite a user (operators)",
	"WHO [<#channel>|<nick>] - List users",
	"NAMES [<#channel>] - List channel members",
	"LIST - List channels",
	"PING <token> - Ping the server",
	"QUIT [:<message>] - Disconnect from the server",
	"HELP - Show this help message",
}

func handlePass(h *Hub, c *Client, msg proto.Message) error {
	if c.Welcomed {
		return numericError(proto.ErrAlreadyRegistered, "You may not reregister")
	}
	password := firstArg(msg)
	if password == "" {
		return errNeedMoreParams(proto.CmdPass)
	}
	if h.verifier == nil || !h.verifier.Verify(password) {
		return ErrPasswordMismatch
	}
	c.Authenticated = true
	h.log.Debug().Uint64("conn_id", uint64(c.ID)).Msg("password accepted")
	h.tryRegister(c)
	return nil
}

func handleNick(h *Hub, c *Client, msg proto.Message) error {
	nick := firstArg(msg)
	if nick == "" {
		return numericError(proto.ErrNoNicknameGiven, "No nickname given")
	}
	if !validNick(nick) {
		return numericError(proto.ErrErroneusNickname, "Erroneous nickname", nick)
	}
	if nick == c.Nick {
		return nil
	}

	oldMask := c.Mask()
	if err := h.registry.SetNick(c, nick); err != nil {
		return numericError(proto.ErrNicknameInUse, "Nickname is already in use", nick)
	}

	if c.Welcomed {
		change := proto.NewMessage(oldMask, proto.CmdNick, nick)
		h.send(c, change)
		h.sendPeers(c, change)
	}
	h.tryRegister(c)
	return nil
}

func handleUser(h *Hub, c *Client, msg proto.Message) error {
	if c.Welcomed {
		return numericError(proto.ErrAlreadyRegistered, "You may not reregister")
	}
	if len(msg.Params) < 3 || msg.Trailing == "" {
		return errNeedMoreParams(proto.CmdUser)
	}
	// hostname and servername are accepted but unused.
	c.User = msg.Params[0]
	c.Realname = msg.Trailing
	h.tryRegister(c)
	return nil
}

func handleCap(h *Hub, c *Client, msg proto.Message) error {
	sub := strings.ToUpper(msg.Param(0))
	if sub == "" {
		return errNeedMoreParams(proto.CmdCap)
	}
	if sub != "END" && !c.Welcomed {
		c.CapNegotiating = true
	}

	switch sub {
	case "LS":
		h.send(c, h.capReply(c, "LS", strings.Join(h.opts.Capabilities, " ")))
	case "LIST":
		h.send(c, h.capReply(c, "LIST", strings.Join(c.Capabilities(), " ")))
	case "REQ":
		requested := msg.Trailing
		if !msg.HasTrailing {
			requested = strings.Join(msg.Params[1:], " ")
		}
		tokens := strings.Fields(requested)
		if len(tokens) == 0 {
			return errNeedMoreParams(proto.CmdCap)
		}
		for _, tok := range tokens {
			if _, ok := h.caps[strings.TrimPrefix(tok, "-")]; !ok {
				h.send(c, h.capReply(c, "NAK", requested))
				return nil
			}
		}
		for _, tok := range tokens {
			if name, disable := strings.CutPrefix(tok, "-"); disable {
				c.RemoveCapability(name)
			} else {
				c.AddCapability(tok)
			}
		}
		h.send(c, h.capReply(c, "ACK", strings.Join(tokens, " ")))
	case "END":
		c.CapNegotiating = false
		h.tryRegister(c)
	default:
		h.send(c, h.capReply(c, "NAK", msg.Param(0)))
	}
	return nil
}

func (h *Hub) capReply(c *Client, sub, text string) proto.Message {
	return proto.NewMessage(h.opts.ServerName, proto.CmdCap, c.Target(), sub, text)
}

func handlePing(h *Hub, c *Client, msg proto.Message) error {
	args := msg.Args()
	if len(args) == 0 || args[len(args)-1] == "" {
		return numericError(proto.ErrNoOrigin, "No origin specified")
	}
	token := args[len(args)-1]
	h.send(c, proto.NewMessage(h.opts.ServerName, proto.CmdPong, h.opts.ServerName, token))
	return nil
}

func handlePong(*Hub, *Client, proto.Message) error {
	return nil
}

func handleQuit(h *Hub, c *Client, msg proto.Message) error {
	reason := msg.Trailing
	if reason == "" {
		reason = msg.Param(0)
	}
	if reason == "" {
		reason = "Client disconnected"
	}
	h.closeLink(c, reason)
	return nil
}

func handleHelp(h *Hub, c *Client, _ proto.Message) error {
	for _, line := range helpLines {
		h.notice(c, line)
	}
	return nil
}

// closeLink tells the client why it is being dropped and disconnects it.
func (h *Hub) closeLink(c *Client, reason string) {
	h.send(c, proto.NewMessage("", proto.CmdError, "Closing Link: "+c.Host+" ("+reason+")"))
	h.disconnect(c.ID, reason)
}

// tryRegister completes registration once PASS, NICK and USER are all in and
// negotiation has ended. The welcome burst goes out at most once.
func (h *Hub) tryRegister(c *Client) {
	if !c.readyToRegister() {
		return
	}
	c.Welcomed = true

	name := h.opts.ServerName
	h.reply(c, proto.RplWelcome, "Welcome to the Internet Relay Network "+c.Mask())
	h.reply(c, proto.RplYourHost, "Your host is "+name+", running version "+h.opts.Version)
	h.reply(c, proto.RplCreated, "This server was created "+h.opts.Created.UTC().Format("Mon Jan 2 2006 at 15:04:05 UTC"))
	h.replyPlain(c, proto.RplMyInfo, name, h.opts.Version, "i", "iklot")
	h.reply(c, proto.RplISupport,
		"CHANTYPES=#&", "PREFIX=(o)@", "CHANMODES=,k,l,it", "NICKLEN=30", "CHANNELLEN=50", "CASEMAPPING=ascii",
		"are supported by this server")
	h.reply(c, proto.ErrNoMotd, "MOTD File is missing")

	h.log.Info().Uint64("conn_id", uint64(c.ID)).Str("nick", c.Nick).Str("user", c.User).Msg("client registered")
}

// firstArg returns the first parameter, falling back to the trailing one.
func firstArg(msg proto.Message) string {
	if len(msg.Params) > 0 {
		return msg.Params[0]
	}
	return msg.Trailing
}

func validNick(nick string) bool {
	if len(nick) > nickMaxLen {
		return false
	}
	for i := 0; i < len(nick); i++ {
		ch := nick[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', strings.IndexByte("[]\\`_^{|}", ch) >= 0:
		case i > 0 && (ch >= '0' && ch <= '9' || ch == '-'):
		default:
			return false
		}
	}
	return true
}

func validChannelName(name string) bool {
	if len(name) < 2 || len(name) > 50 || !proto.IsChannelName(name) {
		return false
	}
	return !strings.ContainsAny(name, " ,\a:")
}
