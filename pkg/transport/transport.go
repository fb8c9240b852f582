package transport

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by operations on a closed connection.
	ErrClosed = errors.New("transport: connection closed")
	// ErrBinaryFrame is returned by Receive when the peer sent a non-text
	// frame. The connection stays usable.
	ErrBinaryFrame = errors.New("transport: binary frame")
)

// Conn is an ordered, reliable, frame-delimited duplex connection. Send and
// Close may be called concurrently with each other and with Receive; Receive
// must only be called from one goroutine at a time.
type Conn interface {
	// Send writes one frame.
	Send(ctx context.Context, frame []byte) error
	// Receive blocks until the next frame arrives.
	Receive(ctx context.Context) ([]byte, error)
	// Close releases the connection. Pending and later calls fail.
	Close() error
}

// Dialer opens a Conn to address.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// DialerFunc adapts a plain function to the Dialer interface.
type DialerFunc func(ctx context.Context, address string) (Conn, error)

// Dial calls the underlying function.
func (f DialerFunc) Dial(ctx context.Context, address string) (Conn, error) {
	return f(ctx, address)
}
