package core

import (
	"sort"

	"github.com/vovakirdan/ircserv/internal/proto"
)

// Client is a chat participant as seen by the core layer.
type Client struct {
	ID       ConnID
	Nick     string
	User     string
	Realname string
	Host     string

	Authenticated  bool
	CapNegotiating bool
	Welcomed       bool

	caps     map[string]struct{}
	channels map[string]struct{}
	session  Session
}

// NewClient constructs a client bound to its session.
func NewClient(s Session) *Client {
	host := s.RemoteHost()
	if host == "" {
		host = "unknown"
	}
	return &Client{
		ID:       s.ID(),
		Host:     host,
		caps:     make(map[string]struct{}),
		channels: make(map[string]struct{}),
		session:  s,
	}
}

// Registered reports whether the welcome burst was sent.
func (c *Client) Registered() bool {
	return c.Welcomed
}

// readyToRegister is true exactly once: when every registration field is in
// place, negotiation is over and no welcome has been sent yet.
func (c *Client) readyToRegister() bool {
	return !c.Welcomed && !c.CapNegotiating && c.Authenticated && c.Nick != "" && c.User != ""
}

// Mask returns the nick!user@host source used for messages the client originates.
func (c *Client) Mask() string {
	return proto.Mask(c.Nick, c.User, c.Host)
}

// Target is the name numeric replies are addressed to.
func (c *Client) Target() string {
	if c.Nick == "" {
		return "*"
	}
	return c.Nick
}

// AddCapability records a negotiated capability. Returns true if it was new.
func (c *Client) AddCapability(name string) bool {
	if _, ok := c.caps[name]; ok {
		return false
	}
	c.caps[name] = struct{}{}
	return true
}

// RemoveCapability drops a negotiated capability.
func (c *Client) RemoveCapability(name string) {
	delete(c.caps, name)
}

// HasCapability reports whether name was negotiated.
func (c *Client) HasCapability(name string) bool {
	_, ok := c.caps[name]
	return ok
}

// Capabilities returns the negotiated capabilities sorted by name.
func (c *Client) Capabilities() []string {
	return sortedKeys(c.caps)
}

func (c *Client) joinChannel(key string) {
	c.channels[key] = struct{}{}
}

func (c *Client) leaveChannel(key string) {
	delete(c.channels, key)
}

// InChannel reports membership by folded channel key.
func (c *Client) InChannel(key string) bool {
	_, ok := c.channels[key]
	return ok
}

// Channels returns the folded keys of joined channels, sorted.
func (c *Client) Channels() []string {
	return sortedKeys(c.channels)
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
