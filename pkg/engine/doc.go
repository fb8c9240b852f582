// Package engine is the texto client engine. An [Engine] owns one
// connection at a time: it dials the transport, waits for the server's
// handshake, correlates responses to the requests it sent and acknowledges
// messages the server pushes to the local session.
//
// Inbound frames are processed one at a time, in delivery order, by a single
// dispatch goroutine per connection. Sending never waits for a response:
// [Engine.SendMessage] returns a [correlation.Call] that completes when the
// dispatcher sees the matching envelope, or when the connection is lost.
package engine
