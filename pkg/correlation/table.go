package correlation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrDuplicateID is returned by Register when the id is already pending.
var ErrDuplicateID = errors.New("correlation: duplicate id")

type entry struct {
	call  *Call
	timer *time.Timer
}

// Table holds the pending requests of one connection. It is safe for
// concurrent use.
type Table struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewTable creates an empty Table.
func NewTable() *Table {
	return &Table{entries: make(map[string]entry)}
}

// Register adds call under id.
func (t *Table) Register(id string, call *Call) error {
	return t.register(id, call, 0, nil)
}

// RegisterWithDeadline adds call under id and rejects it with onExpire if it
// is still pending after d. A non-positive d behaves like Register.
func (t *Table) RegisterWithDeadline(id string, call *Call, d time.Duration, onExpire error) error {
	return t.register(id, call, d, onExpire)
}

func (t *Table) register(id string, call *Call, d time.Duration, onExpire error) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, dup := t.entries[id]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}

	e := entry{call: call}
	if d > 0 {
		e.timer = time.AfterFunc(d, func() { t.Reject(id, onExpire) })
	}
	t.entries[id] = e

	return nil
}

// take removes and returns the entry for id.
func (t *Table) take(id string) (entry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[id]
	if !ok {
		return entry{}, false
	}
	delete(t.entries, id)
	if e.timer != nil {
		e.timer.Stop()
	}

	return e, true
}

// Resolve completes the call registered under id with data and removes it.
// It reports false if no such call is pending.
func (t *Table) Resolve(id string, data json.RawMessage) bool {
	e, ok := t.take(id)
	if !ok {
		return false
	}
	return e.call.complete(data, nil)
}

// Reject fails the call registered under id with err and removes it. It
// reports false if no such call is pending.
func (t *Table) Reject(id string, err error) bool {
	e, ok := t.take(id)
	if !ok {
		return false
	}
	return e.call.complete(nil, err)
}

// Remove drops the entry for id without completing its call.
func (t *Table) Remove(id string) *Call {
	e, ok := t.take(id)
	if !ok {
		return nil
	}
	return e.call
}

// DrainRejecting rejects every pending call with err, empties the table and
// returns the number of calls rejected.
func (t *Table) DrainRejecting(err error) int {
	t.mu.Lock()
	drained := t.entries
	t.entries = make(map[string]entry)
	t.mu.Unlock()

	n := 0
	for _, e := range drained {
		if e.timer != nil {
			e.timer.Stop()
		}
		if e.call.complete(nil, err) {
			n++
		}
	}

	return n
}

// Has reports whether id is pending.
func (t *Table) Has(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.entries[id]
	return ok
}

// Len returns the number of pending calls.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}
