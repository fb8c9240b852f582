package envelope

// Kind tags the purpose of an envelope. The set of kinds is closed.
type Kind string

const (
	// KindError is sent whenever an error prevents a request from being processed.
	KindError Kind = "error"
	// KindRegistration is the optional probe a client sends right after the
	// transport opens.
	KindRegistration Kind = "registration"
	// KindConnection is the server's handshake reply; its client_id is the
	// session bound to the connection.
	KindConnection Kind = "connection"
	// KindSend carries a message from the local session to another session.
	KindSend Kind = "send"
	// KindReceive is pushed by the server when another session sent us a message.
	KindReceive Kind = "receive"
	// KindAck acknowledges a send or a receive.
	KindAck Kind = "ack"
)

// Kinds lists every kind in the enumeration.
var Kinds = []Kind{KindError, KindRegistration, KindConnection, KindSend, KindReceive, KindAck}

// Valid reports whether k belongs to the enumeration.
func (k Kind) Valid() bool {
	switch k {
	case KindError, KindRegistration, KindConnection, KindSend, KindReceive, KindAck:
		return true
	}
	return false
}

func (k Kind) String() string { return string(k) }
