package core

import "errors"

// ConnID identifies one accepted connection for its whole lifetime.
type ConnID uint64

// noConn is never assigned to a connection.
const noConn ConnID = 0

// ErrSendQueueFull is returned by Session.Send when the outbound queue is over its limit.
var ErrSendQueueFull = errors.New("send queue full")

// Session is the transport side of a client connection as seen by the hub.
type Session interface {
	ID() ConnID
	RemoteHost() string
	// Send enqueues one serialized line. It must not block.
	Send(line string) error
	// Close flushes what is queued and closes the connection. Safe to call twice.
	Close()
}
