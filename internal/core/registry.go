package core

import "slices"

// Registry indexes clients by connection id and nickname, and channels by name.
// It is owned by the hub goroutine and is not safe for concurrent use.
type Registry struct {
	clients  map[ConnID]*Client
	nicks    map[string]ConnID
	channels map[string]*Channel
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		clients:  make(map[ConnID]*Client),
		nicks:    make(map[string]ConnID),
		channels: make(map[string]*Channel),
	}
}

// Fold maps nicknames and channel names to their lookup key. Only ASCII
// letters are folded, matching CASEMAPPING=ascii.
func Fold(name string) string {
	b := []byte(name)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + 'a' - 'A'
		}
	}
	return string(b)
}

// Add registers a freshly accepted client.
func (r *Registry) Add(c *Client) {
	r.clients[c.ID] = c
}

// Client looks a client up by connection id.
func (r *Registry) Client(id ConnID) (*Client, bool) {
	c, ok := r.clients[id]
	return c, ok
}

// ByNick looks a client up by nickname.
func (r *Registry) ByNick(nick string) (*Client, bool) {
	id, ok := r.nicks[Fold(nick)]
	if !ok {
		return nil, false
	}
	return r.Client(id)
}

// SetNick changes a client's nickname keeping the nick index consistent.
// A nickname held by another client yields ErrNicknameInUse.
func (r *Registry) SetNick(c *Client, nick string) error {
	key := Fold(nick)
	if holder, ok := r.nicks[key]; ok && holder != c.ID {
		return ErrNicknameInUse
	}
	if c.Nick != "" {
		delete(r.nicks, Fold(c.Nick))
	}
	c.Nick = nick
	r.nicks[key] = c.ID
	return nil
}

// Remove drops a client from every index and every channel it belongs to,
// deleting channels left without members.
func (r *Registry) Remove(id ConnID) (*Client, bool) {
	c, ok := r.clients[id]
	if !ok {
		return nil, false
	}
	for _, key := range c.Channels() {
		if ch, exists := r.channels[key]; exists {
			r.Part(c, ch)
		}
	}
	// Pending invites live on channels the client never joined.
	for key, ch := range r.channels {
		ch.RemoveMember(id)
		if ch.Empty() {
			delete(r.channels, key)
		}
	}
	if c.Nick != "" && r.nicks[Fold(c.Nick)] == id {
		delete(r.nicks, Fold(c.Nick))
	}
	delete(r.clients, id)
	return c, true
}

// Channel looks a channel up by name.
func (r *Registry) Channel(name string) (*Channel, bool) {
	ch, ok := r.channels[Fold(name)]
	return ch, ok
}

// CreateChannel adds a channel with creator as its first member and operator.
func (r *Registry) CreateChannel(name string, creator *Client) *Channel {
	ch := NewChannel(name)
	r.channels[Fold(name)] = ch
	r.Join(creator, ch)
	ch.Grant(creator.ID)
	return ch
}

// Join records membership on both sides.
func (r *Registry) Join(c *Client, ch *Channel) {
	ch.AddMember(c.ID)
	c.joinChannel(Fold(ch.Name))
}

// Part removes membership on both sides and deletes the channel once empty.
// Returns true if the channel was deleted.
func (r *Registry) Part(c *Client, ch *Channel) bool {
	ch.RemoveMember(c.ID)
	c.leaveChannel(Fold(ch.Name))
	if ch.Empty() {
		delete(r.channels, Fold(ch.Name))
		return true
	}
	return false
}

// Clients returns every client ordered by connection id.
func (r *Registry) Clients() []*Client {
	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *Client) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Channels returns every channel ordered by folded name.
func (r *Registry) Channels() []*Channel {
	keys := make([]string, 0, len(r.channels))
	for k := range r.channels {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]*Channel, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.channels[k])
	}
	return out
}

// Len returns the number of connected clients.
func (r *Registry) Len() int {
	return len(r.clients)
}

// ChannelCount returns the number of live channels.
func (r *Registry) ChannelCount() int {
	return len(r.channels)
}
