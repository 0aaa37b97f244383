package core

import (
	"errors"
	"strings"

	"github.com/vovakirdan/ircserv/internal/proto"
)

var (
	ErrNicknameInUse    = errors.New("nickname in use")
	ErrPasswordMismatch = errors.New("password mismatch")
	ErrHubClosed        = errors.New("hub closed")
)

// NumericError is a protocol violation reported back to the client as a numeric reply.
// Params go between the client's nick and the trailing Text.
type NumericError struct {
	Code   string
	Params []string
	Text   string
}

func (e *NumericError) Error() string {
	if len(e.Params) == 0 {
		return e.Code + " " + e.Text
	}
	return e.Code + " " + strings.Join(e.Params, " ") + " " + e.Text
}

func numericError(code, text string, params ...string) *NumericError {
	return &NumericError{Code: code, Params: params, Text: text}
}

func errNeedMoreParams(command string) *NumericError {
	return numericError(proto.ErrNeedMoreParams, "Not enough parameters", command)
}

func errNoSuchChannel(name string) *NumericError {
	return numericError(proto.ErrNoSuchChannel, "No such channel", name)
}

func errNoSuchNick(nick string) *NumericError {
	return numericError(proto.ErrNoSuchNick, "No such nick/channel", nick)
}

func errNotOnChannel(name string) *NumericError {
	return numericError(proto.ErrNotOnChannel, "You're not on that channel", name)
}

func errChanOPrivsNeeded(name string) *NumericError {
	return numericError(proto.ErrChanOPrivsNeeded, "You're not channel operator", name)
}
