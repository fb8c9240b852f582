package engine

// State is the phase of the engine's current connection.
//
//	Disconnected -> Connecting -> AwaitingHandshake -> Established
//	      any state -> Closed
//
// Closed ends the connection; Connect from Closed starts a new one.
type State int

const (
	Disconnected State = iota
	Connecting
	AwaitingHandshake
	Established
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case AwaitingHandshake:
		return "awaiting_handshake"
	case Established:
		return "established"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// StateChange is the data of an EventStateChanged event.
type StateChange struct {
	From State
	To   State
}

// setStateLocked records a transition. The caller must hold e.mu.
func (e *Engine) setStateLocked(s State) {
	prev := e.state
	if prev == s {
		return
	}
	e.state = s

	e.log.Debug("state changed", "from", prev.String(), "to", s.String(), "session", e.session)
	e.events.Publish(newEvent(EventStateChanged, e.session, StateChange{From: prev, To: s}))
}
