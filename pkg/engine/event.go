package engine

import (
	"sync"
	"time"
)

// EventKind identifies the type of engine event.
type EventKind string

const (
	EventStateChanged EventKind = "state_changed"
	EventPush         EventKind = "push"
	EventFrameDropped EventKind = "frame_dropped"
	EventError        EventKind = "error"
)

// Event is an immutable notification of engine activity.
type Event struct {
	Kind      EventKind
	Session   string
	Timestamp time.Time
	Data      any
}

func newEvent(kind EventKind, session string, data any) Event {
	return Event{
		Kind:      kind,
		Session:   session,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// DroppedFrame is the data of an EventFrameDropped event.
type DroppedFrame struct {
	ID     string // Envelope id, empty when the frame could not be decoded.
	Reason string
}

// Subscription is one consumer's view of an engine's events.
type Subscription struct {
	C  <-chan Event
	ch chan Event
}

// EventBus carries state transitions, pushes and dropped frames from the
// dispatch goroutine to any number of observers. It is safe for concurrent use.
type EventBus struct {
	mu   sync.RWMutex
	subs map[*Subscription]struct{}
}

// NewEventBus returns a bus with no subscribers.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[*Subscription]struct{}),
	}
}

// Subscribe registers a consumer whose channel buffers bufSize events. Size it
// for the bursts the consumer cannot keep up with; events that do not fit are
// lost for that consumer.
func (b *EventBus) Subscribe(bufSize int) *Subscription {
	ch := make(chan Event, bufSize)
	sub := &Subscription{C: ch, ch: ch}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe stops delivery to sub and closes sub.C. Calling it twice is safe.
func (b *EventBus) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
}

// Publish offers e to every subscriber. It runs on the dispatch goroutine and
// must never wait on a consumer, so a full buffer loses e for that subscriber
// only. Consumers that must not miss the end of a connection watch
// Engine.Done instead.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subs {
		select {
		case sub.ch <- e:
		default:
		}
	}
}
