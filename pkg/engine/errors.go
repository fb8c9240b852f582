package engine

import (
	"errors"
	"fmt"

	"github.com/germanamz/texto/pkg/envelope"
)

var (
	// ErrHandshakeRejected is wrapped by *HandshakeError.
	ErrHandshakeRejected = errors.New("engine: handshake rejected")
	// ErrConnectionClosed is wrapped by *ClosedError. Every request pending
	// when the connection goes away is rejected with it.
	ErrConnectionClosed = errors.New("engine: connection closed")
	// ErrAlreadyConnecting is returned by Connect while a handshake is in progress.
	ErrAlreadyConnecting = errors.New("engine: already connecting")
	// ErrAlreadyConnected is returned by Connect once a session is established.
	ErrAlreadyConnected = errors.New("engine: already connected")
	// ErrNotConnected is returned by SendMessage without an established session.
	ErrNotConnected = errors.New("engine: not connected")
	// ErrRequestTimeout rejects requests that outlive Config.RequestTimeout.
	ErrRequestTimeout = errors.New("engine: request timed out")
)

// HandshakeError reports that the server's first envelope was not a
// connection envelope.
type HandshakeError struct {
	Kind        envelope.Kind // Kind of the envelope received instead.
	Code        string        // Server error code, for error envelopes.
	Description string        // Server description, for error envelopes.
}

func (e *HandshakeError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", ErrHandshakeRejected, e.Description)
	}
	return fmt.Sprintf("%s: unexpected %s envelope", ErrHandshakeRejected, e.Kind)
}

func (e *HandshakeError) Unwrap() error { return ErrHandshakeRejected }

// RemoteError is the rejection of a single request by the server. Its
// message is the server-supplied description.
type RemoteError struct {
	Code        string
	Description string
}

func (e *RemoteError) Error() string { return e.Description }

func newRemoteError(env envelope.Envelope) *RemoteError {
	p := env.ErrorPayload()
	return &RemoteError{Code: p.Code, Description: p.Description}
}

// ClosedError reports the loss of the connection and what caused it. A nil
// Cause means the engine was closed by its owner.
type ClosedError struct {
	Cause error
}

func (e *ClosedError) Error() string {
	if e.Cause == nil {
		return ErrConnectionClosed.Error()
	}
	return fmt.Sprintf("%s: %v", ErrConnectionClosed, e.Cause)
}

func (e *ClosedError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrConnectionClosed}
	}
	return []error{ErrConnectionClosed, e.Cause}
}
