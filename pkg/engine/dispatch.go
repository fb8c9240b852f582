package engine

import (
	"errors"
	"fmt"

	"github.com/germanamz/texto/pkg/envelope"
	"github.com/germanamz/texto/pkg/transport"
)

// inboundBuffer is the number of frames read ahead of the dispatcher.
const inboundBuffer = 32

// run reads frames from the link's transport and dispatches them one at a
// time, in delivery order, until the transport fails or the link is closed.
func (e *Engine) run(l *link) {
	frames := make(chan []byte, inboundBuffer)

	var readErr error
	go func() {
		defer close(frames)
		for {
			frame, err := l.conn.Receive(l.ctx)
			if errors.Is(err, transport.ErrBinaryFrame) {
				e.drop("", err.Error())
				continue
			}
			if err != nil {
				readErr = err
				return
			}
			frames <- frame
		}
	}()

	for frame := range frames {
		e.dispatch(l, frame)
	}

	e.closeLink(l, readErr)
}

// dispatch routes one inbound frame: to the handshake while one is awaited,
// then to the pending request it answers, then to the push path.
func (e *Engine) dispatch(l *link, frame []byte) {
	env, err := envelope.Unmarshal(frame)
	if err != nil {
		e.drop("", err.Error())
		return
	}

	e.mu.Lock()
	current := e.link == l
	state := e.state
	session := e.session
	e.mu.Unlock()

	if !current || state == Closed {
		return
	}

	if state == AwaitingHandshake {
		e.handshake(l, env)
		return
	}

	if env.ID == "" {
		e.drop("", fmt.Sprintf("%s envelope without id", env.Kind))
		return
	}

	if env.Kind == envelope.KindError {
		rerr := newRemoteError(env)
		if l.table.Reject(env.ID, rerr) {
			e.log.Debug("request rejected", "id", env.ID, "code", rerr.Code, "error", rerr.Description)
			return
		}
	} else if l.table.Resolve(env.ID, env.Data) {
		e.log.Debug("request resolved", "id", env.ID, "kind", env.Kind.String())
		return
	}

	if env.Kind == envelope.KindReceive {
		e.push(l, session, env)
		return
	}

	e.drop(env.ID, fmt.Sprintf("uncorrelated %s envelope", env.Kind))
}

// handshake binds the session announced by the server's first envelope, or
// fails the connection if that envelope is anything but a connection.
func (e *Engine) handshake(l *link, env envelope.Envelope) {
	if env.Kind != envelope.KindConnection {
		herr := &HandshakeError{Kind: env.Kind}
		if env.Kind == envelope.KindError {
			p := env.ErrorPayload()
			herr.Code = p.Code
			herr.Description = p.Description
		}
		l.finishHandshake(herr)
		e.closeLink(l, herr)
		return
	}

	session := env.SessionTag
	if session == "" {
		var p envelope.ConnectionPayload
		if err := env.Decode(&p); err == nil {
			session = p.ClientID
		}
	}
	if session == "" {
		herr := &HandshakeError{Kind: env.Kind, Description: "connection envelope carries no session"}
		l.finishHandshake(herr)
		e.closeLink(l, herr)
		return
	}

	e.mu.Lock()
	if e.link == l && e.state == AwaitingHandshake {
		e.session = session
		e.setStateLocked(Established)
	}
	e.mu.Unlock()

	l.finishHandshake(nil)
}

// push acknowledges a receive envelope with its own id, then hands its
// payload to the push handler.
func (e *Engine) push(l *link, session string, env envelope.Envelope) {
	if err := e.write(l, envelope.NewAck(env.ID, session)); err != nil {
		e.log.Warn("ack failed", "id", env.ID, "error", err)
		e.events.Publish(newEvent(EventError, session, err))
	}

	var p envelope.ReceivePayload
	if err := env.Decode(&p); err != nil {
		e.drop(env.ID, err.Error())
		return
	}

	e.log.Debug("push received", "id", env.ID, "sender", p.SenderID)
	e.events.Publish(newEvent(EventPush, session, p))

	if err := e.deliver(p); err != nil {
		e.log.Error("push handler failed", "id", env.ID, "error", err)
		e.events.Publish(newEvent(EventError, session, err))
	}
}

// deliver calls the push handler, converting a panic into an error so a
// faulty handler cannot stop the dispatch loop.
func (e *Engine) deliver(p envelope.ReceivePayload) (err error) {
	if e.onPush == nil {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine: push handler panicked: %v", r)
		}
	}()

	e.onPush(p)

	return nil
}

// drop logs and announces a frame the dispatcher will not act on.
func (e *Engine) drop(id, reason string) {
	e.log.Warn("dropping frame", "id", id, "reason", reason)
	e.events.Publish(newEvent(EventFrameDropped, "", DroppedFrame{ID: id, Reason: reason}))
}
