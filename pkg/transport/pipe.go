package transport

import (
	"context"
	"sync"
)

// pipeBuffer is the number of frames each direction holds before Send blocks.
const pipeBuffer = 64

// Pipe returns two connected in-memory Conns. Frames sent on one end are
// received, in order, on the other. Closing either end closes both.
func Pipe() (Conn, Conn) {
	ab := make(chan []byte, pipeBuffer)
	ba := make(chan []byte, pipeBuffer)
	shared := &pipeState{closed: make(chan struct{})}

	return &pipeConn{in: ba, out: ab, state: shared},
		&pipeConn{in: ab, out: ba, state: shared}
}

type pipeState struct {
	once   sync.Once
	closed chan struct{}
}

type pipeConn struct {
	in    <-chan []byte
	out   chan<- []byte
	state *pipeState
}

func (p *pipeConn) Send(ctx context.Context, frame []byte) error {
	select {
	case <-p.state.closed:
		return ErrClosed
	default:
	}

	b := make([]byte, len(frame))
	copy(b, frame)

	select {
	case p.out <- b:
		return nil
	case <-p.state.closed:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *pipeConn) Receive(ctx context.Context) ([]byte, error) {
	// Frames queued before Close are still delivered.
	select {
	case b := <-p.in:
		return b, nil
	default:
	}

	select {
	case b := <-p.in:
		return b, nil
	case <-p.state.closed:
		select {
		case b := <-p.in:
			return b, nil
		default:
			return nil, ErrClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *pipeConn) Close() error {
	p.state.once.Do(func() { close(p.state.closed) })
	return nil
}
