package proto

import "strings"

// Message is one parsed protocol line.
type Message struct {
	Prefix  string
	Command string
	// Params holds the middle parameters in order.
	Params []string
	// Trailing is the colon-introduced final parameter. HasTrailing tells an
	// empty trailing ("TOPIC #a :") apart from an absent one ("TOPIC #a").
	Trailing    string
	HasTrailing bool
}

// Parse turns one line without its terminator into a Message.
// The boolean is false when the line carries no command; the returned
// Message is still usable and has an empty Command.
func Parse(line string) (Message, bool) {
	var msg Message
	pos := 0

	if strings.HasPrefix(line, ":") {
		end := tokenEnd(line, 0)
		msg.Prefix = line[1:end]
		pos = end
	}
	pos = skipSpace(line, pos)

	if pos < len(line) {
		end := tokenEnd(line, pos)
		msg.Command = line[pos:end]
		pos = skipSpace(line, end)
	}

	for pos < len(line) {
		if line[pos] == ':' {
			msg.Trailing = line[pos+1:]
			msg.HasTrailing = true
			break
		}
		end := tokenEnd(line, pos)
		msg.Params = append(msg.Params, line[pos:end])
		pos = skipSpace(line, end)
	}

	return msg, msg.Command != ""
}

// NewMessage builds a message whose last argument becomes the trailing parameter.
func NewMessage(prefix, command string, params ...string) Message {
	msg := Message{Prefix: prefix, Command: command}
	if len(params) == 0 {
		return msg
	}
	last := len(params) - 1
	msg.Params = append([]string(nil), params[:last]...)
	msg.Trailing = params[last]
	msg.HasTrailing = true
	return msg
}

// Param returns the i-th middle parameter or "" when absent.
func (m Message) Param(i int) string {
	if i < 0 || i >= len(m.Params) {
		return ""
	}
	return m.Params[i]
}

// Args returns the middle parameters followed by the trailing one, if any.
func (m Message) Args() []string {
	args := append([]string(nil), m.Params...)
	if m.HasTrailing {
		args = append(args, m.Trailing)
	}
	return args
}

// String serializes the message as `:prefix COMMAND mid1 mid2 :trailing`
// without a line terminator.
func (m Message) String() string {
	var b strings.Builder
	if m.Prefix != "" {
		b.WriteByte(':')
		b.WriteString(m.Prefix)
		b.WriteByte(' ')
	}
	b.WriteString(m.Command)
	for _, p := range m.Params {
		b.WriteByte(' ')
		b.WriteString(p)
	}
	if m.HasTrailing {
		b.WriteString(" :")
		b.WriteString(m.Trailing)
	}
	return b.String()
}

// Line is String plus the CRLF terminator.
func (m Message) Line() string {
	return m.String() + "\r\n"
}

func isSpace(c byte) bool {
	return c == ' '
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func tokenEnd(s string, i int) int {
	for i < len(s) && !isSpace(s[i]) {
		i++
	}
	return i
}
