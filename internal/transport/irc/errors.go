package irc

import (
	"errors"
	"net"
	"os"
	"syscall"
)

var (
	// ErrServerClosed is returned by Serve when Listen was never called.
	ErrServerClosed = errors.New("irc: server not listening")

	errConnClosed = errors.New("irc: connection closed")
)

// isTransient reports I/O errors after which the same call may be retried.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EWOULDBLOCK) ||
		errors.Is(err, syscall.EINTR) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// isRetryableAccept covers resource exhaustion and aborted handshakes, which
// should not stop the listener.
func isRetryableAccept(err error) bool {
	return isTransient(err) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE) ||
		errors.Is(err, syscall.ENOBUFS) ||
		errors.Is(err, syscall.ENOMEM)
}
