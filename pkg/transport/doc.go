// Package transport is the connection boundary of the texto engine.
//
// A [Conn] moves whole text frames in order over a reliable duplex
// connection; a [Dialer] opens one. [WebSocket] dials the texto endpoint
// over WebSocket and [Pipe] returns a connected in-memory pair.
package transport
