package correlation

import (
	"context"
	"encoding/json"
	"sync"
)

// Call is the completion handle of one in-flight request.
type Call struct {
	id   string
	done chan struct{}
	once sync.Once

	data json.RawMessage
	err  error
}

// NewCall returns a pending Call for the request identified by id.
func NewCall(id string) *Call {
	return &Call{id: id, done: make(chan struct{})}
}

// ID returns the envelope id the call is correlated with.
func (c *Call) ID() string { return c.id }

// Done is closed once the call has been resolved or rejected.
func (c *Call) Done() <-chan struct{} { return c.done }

// Wait blocks until the call completes or ctx is done. Giving up on ctx does
// not cancel the request: its table entry stays until resolved, rejected or
// drained.
func (c *Call) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-c.done:
		return c.data, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Completed reports whether the call has been resolved or rejected.
func (c *Call) Completed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// complete records the outcome. Only the first invocation has any effect.
func (c *Call) complete(data json.RawMessage, err error) bool {
	completed := false
	c.once.Do(func() {
		c.data = data
		c.err = err
		close(c.done)
		completed = true
	})
	return completed
}
