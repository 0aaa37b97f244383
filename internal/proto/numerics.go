package proto

// Numeric replies used by the server.
const (
	RplWelcome       = "001"
	RplYourHost      = "002"
	RplCreated       = "003"
	RplMyInfo        = "004"
	RplISupport      = "005"
	RplUModeIs       = "221"
	RplEndOfWho      = "315"
	RplListStart     = "321"
	RplList          = "322"
	RplListEnd       = "323"
	RplChannelModeIs = "324"
	RplNoTopic       = "331"
	RplTopic         = "332"
	RplInviting      = "341"
	RplWhoReply      = "352"
	RplNamReply      = "353"
	RplEndOfNames    = "366"

	ErrNoSuchNick        = "401"
	ErrNoSuchChannel     = "403"
	ErrNoOrigin          = "409"
	ErrNoRecipient       = "411"
	ErrNoTextToSend      = "412"
	ErrUnknownCommand    = "421"
	ErrNoMotd            = "422"
	ErrNoNicknameGiven   = "431"
	ErrErroneusNickname  = "432"
	ErrNicknameInUse     = "433"
	ErrUserNotInChannel  = "441"
	ErrNotOnChannel      = "442"
	ErrUserOnChannel     = "443"
	ErrNotRegistered     = "451"
	ErrNeedMoreParams    = "461"
	ErrAlreadyRegistered = "462"
	ErrPasswordMismatch  = "464"
	ErrChannelIsFull     = "471"
	ErrInviteOnlyChan    = "473"
	ErrBadChannelKey     = "475"
	ErrChanOPrivsNeeded  = "482"
	ErrUModeUnknownFlag  = "501"
	ErrUsersDontMatch    = "502"
	ErrInvalidKey        = "525"
)

// Command keywords.
const (
	CmdCap     = "CAP"
	CmdPass    = "PASS"
	CmdNick    = "NICK"
	CmdUser    = "USER"
	CmdJoin    = "JOIN"
	CmdPart    = "PART"
	CmdPrivmsg = "PRIVMSG"
	CmdNotice  = "NOTICE"
	CmdPing    = "PING"
	CmdPong    = "PONG"
	CmdQuit    = "QUIT"
	CmdHelp    = "HELP"
	CmdWho     = "WHO"
	CmdKick    = "KICK"
	CmdInvite  = "INVITE"
	CmdTopic   = "TOPIC"
	CmdMode    = "MODE"
	CmdNames   = "NAMES"
	CmdList    = "LIST"
	CmdError   = "ERROR"
)

// Mask formats a client source as nick!user@host, leaving out empty parts.
func Mask(nick, user, host string) string {
	if nick == "" {
		nick = "*"
	}
	s := nick
	if user != "" {
		s += "!" + user
	}
	if host != "" {
		s += "@" + host
	}
	return s
}

// IsChannelName reports whether target carries a channel sigil.
func IsChannelName(target string) bool {
	return target != "" && (target[0] == '#' || target[0] == '&')
}
