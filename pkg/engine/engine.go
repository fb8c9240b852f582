package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/germanamz/texto/pkg/correlation"
	"github.com/germanamz/texto/pkg/envelope"
	"github.com/germanamz/texto/pkg/transport"
)

// PushHandler receives the payload of every message the server pushes to the
// local session. It runs on the dispatch goroutine, in delivery order, after
// the push has been acknowledged.
type PushHandler func(envelope.ReceivePayload)

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithDialer replaces the default WebSocket dialer.
func WithDialer(d transport.Dialer) Option {
	return func(e *Engine) { e.dialer = d }
}

// WithPushHandler sets the sink for pushed messages.
func WithPushHandler(h PushHandler) Option {
	return func(e *Engine) { e.onPush = h }
}

// WithEventBus makes the engine publish on bus instead of a private one.
func WithEventBus(bus *EventBus) Option {
	return func(e *Engine) { e.events = bus }
}

// Engine is a texto client. It is safe for concurrent use; independent
// Engines share no state.
type Engine struct {
	cfg    Config
	log    *slog.Logger
	dialer transport.Dialer
	events *EventBus
	onPush PushHandler

	mu      sync.Mutex
	state   State
	session string
	link    *link
}

// link is one connection attempt and everything scoped to it.
type link struct {
	conn   transport.Conn
	table  *correlation.Table
	ctx    context.Context
	cancel context.CancelFunc

	closed    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}

	handshake     chan error
	handshakeOnce sync.Once
}

var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

func newLink() *link {
	ctx, cancel := context.WithCancel(context.Background())
	return &link{
		table:     correlation.NewTable(),
		ctx:       ctx,
		cancel:    cancel,
		handshake: make(chan error, 1),
		done:      make(chan struct{}),
	}
}

// finishHandshake hands the handshake outcome to Connect. Only the first
// outcome counts.
func (l *link) finishHandshake(err error) {
	l.handshakeOnce.Do(func() { l.handshake <- err })
}

// New creates a disconnected Engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}

	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	if e.events == nil {
		e.events = NewEventBus()
	}
	if e.dialer == nil {
		e.dialer = &transport.WebSocket{Path: cfg.Path, ReadLimit: cfg.ReadLimit}
	}

	return e, nil
}

// Events returns the engine's event bus.
func (e *Engine) Events() *EventBus { return e.events }

// State returns the current connection state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.state
}

// Session returns the session bound by the last successful handshake, or ""
// if none is established.
func (e *Engine) Session() string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Established {
		return ""
	}
	return e.session
}

// Done returns a channel closed once the current connection has been torn
// down. Without a connection the channel is already closed.
func (e *Engine) Done() <-chan struct{} {
	e.mu.Lock()
	l := e.link
	e.mu.Unlock()

	if l == nil {
		return closedChan
	}
	return l.done
}

// Pending returns the number of requests awaiting a response.
func (e *Engine) Pending() int {
	e.mu.Lock()
	l := e.link
	e.mu.Unlock()

	if l == nil {
		return 0
	}
	return l.table.Len()
}

// Connect opens the transport and waits for the server's handshake. It
// returns nil once a session is bound, a *HandshakeError if the server's
// first envelope is not a connection envelope, or the error that closed the
// connection. Connect from Closed starts a new connection.
func (e *Engine) Connect(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case Connecting, AwaitingHandshake:
		e.mu.Unlock()
		return ErrAlreadyConnecting
	case Established:
		e.mu.Unlock()
		return ErrAlreadyConnected
	}

	l := newLink()
	e.link = l
	e.session = ""
	e.setStateLocked(Connecting)
	e.mu.Unlock()

	if d := e.cfg.handshakeTimeout(); d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	e.log.Info("connecting", "address", e.cfg.Address)

	conn, err := e.dialer.Dial(ctx, e.cfg.Address)
	if err != nil {
		err = fmt.Errorf("engine: connect: %w", err)
		e.closeLink(l, err)
		return err
	}

	e.mu.Lock()
	if e.link != l || l.closed.Load() {
		e.mu.Unlock()
		_ = conn.Close()
		return &ClosedError{}
	}
	l.conn = conn
	e.setStateLocked(AwaitingHandshake)
	e.mu.Unlock()

	go e.run(l)

	if e.cfg.Register {
		if err := e.register(l); err != nil {
			e.closeLink(l, err)
			return err
		}
	}

	select {
	case err := <-l.handshake:
		if err != nil {
			// Wait for the teardown so State reports Closed on return.
			e.closeLink(l, err)
			return err
		}
		e.log.Info("connected", "session", e.Session())
		return nil
	case <-ctx.Done():
		err := fmt.Errorf("engine: connect: %w", ctx.Err())
		e.closeLink(l, err)
		return err
	}
}

// register sends the registration probe that asks the server for a session.
func (e *Engine) register(l *link) error {
	probe, err := envelope.New("", envelope.KindRegistration, nil)
	if err != nil {
		return fmt.Errorf("engine: register: %w", err)
	}

	if err := e.write(l, probe); err != nil {
		return fmt.Errorf("engine: register: %w", err)
	}

	return nil
}

// SendMessage sends text to the session recipientID and returns without
// waiting for the response. The returned Call resolves with the server's
// response data, or rejects with a *RemoteError, a *ClosedError or
// ErrRequestTimeout. ctx bounds only the transport write.
func (e *Engine) SendMessage(ctx context.Context, recipientID, text string) (*correlation.Call, error) {
	e.mu.Lock()
	if e.state != Established {
		e.mu.Unlock()
		return nil, ErrNotConnected
	}
	l := e.link
	session := e.session
	e.mu.Unlock()

	env, err := envelope.New(session, envelope.KindSend, envelope.SendPayload{
		ReceiverID: recipientID,
		Text:       text,
	})
	if err != nil {
		return nil, fmt.Errorf("engine: send: %w", err)
	}

	call := correlation.NewCall(env.ID)
	if err := l.table.RegisterWithDeadline(env.ID, call, e.cfg.requestTimeout(), ErrRequestTimeout); err != nil {
		return nil, fmt.Errorf("engine: send: %w", err)
	}

	// closeLink marks the link closed before draining, so an entry
	// registered after the drain is caught here.
	if l.closed.Load() {
		l.table.Remove(env.ID)
		return nil, &ClosedError{}
	}

	if err := e.writeCtx(ctx, l, env); err != nil {
		l.table.Remove(env.ID)
		return nil, fmt.Errorf("engine: send: %w", err)
	}

	e.log.Debug("request sent", "id", env.ID, "recipient", recipientID)

	return call, nil
}

// Send sends text to recipientID and waits for the response.
func (e *Engine) Send(ctx context.Context, recipientID, text string) (json.RawMessage, error) {
	call, err := e.SendMessage(ctx, recipientID, text)
	if err != nil {
		return nil, err
	}
	return call.Wait(ctx)
}

// Close ends the current connection, if any, and rejects every pending
// request with ErrConnectionClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	l := e.link
	if l == nil {
		e.setStateLocked(Closed)
	}
	e.mu.Unlock()

	if l != nil {
		e.closeLink(l, nil)
	}

	return nil
}

// closeLink tears l down: the engine moves to Closed if l is still its
// current connection, the transport is closed, pending requests are
// rejected and a Connect still waiting for the handshake is released.
func (e *Engine) closeLink(l *link, cause error) {
	l.closeOnce.Do(func() {
		l.closed.Store(true)

		e.mu.Lock()
		if e.link == l {
			e.setStateLocked(Closed)
		}
		session := e.session
		conn := l.conn
		e.mu.Unlock()

		l.cancel()
		if conn != nil {
			if err := conn.Close(); err != nil {
				e.log.Debug("transport close failed", "error", err)
			}
		}

		closedErr := &ClosedError{Cause: cause}
		n := l.table.DrainRejecting(closedErr)
		l.finishHandshake(closedErr)
		close(l.done)

		if cause != nil {
			e.log.Warn("connection closed", "session", session, "pending_rejected", n, "error", cause)
		} else {
			e.log.Info("connection closed", "session", session, "pending_rejected", n)
		}
	})
}

func (e *Engine) write(l *link, env envelope.Envelope) error {
	return e.writeCtx(l.ctx, l, env)
}

func (e *Engine) writeCtx(ctx context.Context, l *link, env envelope.Envelope) error {
	frame, err := envelope.Marshal(env)
	if err != nil {
		return err
	}
	return l.conn.Send(ctx, frame)
}
