package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/germanamz/texto/pkg/identity"
)

// ErrMalformed is wrapped by every Unmarshal failure.
var ErrMalformed = errors.New("envelope: malformed")

// Envelope is one protocol message.
type Envelope struct {
	// ID identifies one request, or the request being acknowledged. Server
	// handshake envelopes may omit it.
	ID string
	// SessionTag is the sender's session; empty before a session is bound
	// and encoded as null on the wire.
	SessionTag string
	Kind       Kind
	// Data is the kind-dependent payload in compact JSON, nil when absent.
	Data json.RawMessage
}

// wireEnvelope is the JSON shape of an Envelope.
type wireEnvelope struct {
	ID       string          `json:"id"`
	ClientID *string         `json:"client_id"`
	Kind     Kind            `json:"kind"`
	Data     json.RawMessage `json:"data"`
}

// New creates an envelope with a fresh identity. payload is marshaled to
// compact JSON; a nil payload leaves Data nil.
func New(sessionTag string, kind Kind, payload any) (Envelope, error) {
	return NewWithID(identity.New(), sessionTag, kind, payload)
}

// NewWithID creates an envelope that reuses id. It is used for
// acknowledgments, which carry the identity of the envelope they acknowledge.
func NewWithID(id, sessionTag string, kind Kind, payload any) (Envelope, error) {
	if !kind.Valid() {
		return Envelope{}, fmt.Errorf("envelope: unknown kind %q", kind)
	}

	data, err := encodeData(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("envelope: encode %s payload: %w", kind, err)
	}

	return Envelope{
		ID:         id,
		SessionTag: sessionTag,
		Kind:       kind,
		Data:       data,
	}, nil
}

// NewAck builds the acknowledgment of the envelope identified by id.
func NewAck(id, sessionTag string) Envelope {
	return Envelope{ID: id, SessionTag: sessionTag, Kind: KindAck}
}

func encodeData(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(bytes.TrimSpace(p)) == 0 {
			return nil, nil
		}
	}

	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return normalizeData(b), nil
}

// normalizeData maps an absent or null payload to nil.
func normalizeData(b []byte) json.RawMessage {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return json.RawMessage(b)
}

// Marshal encodes e as a single compact JSON text frame.
func Marshal(e Envelope) ([]byte, error) {
	w := wireEnvelope{
		ID:   e.ID,
		Kind: e.Kind,
		Data: e.Data,
	}
	if e.SessionTag != "" {
		tag := e.SessionTag
		w.ClientID = &tag
	}

	b, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("envelope: marshal: %w", err)
	}

	return b, nil
}

// Unmarshal decodes one frame. It fails with an error wrapping ErrMalformed
// when the frame is not a JSON object, kind is missing or not part of the
// enumeration, or data does not match the shape its kind requires. A missing
// id decodes as ""; such an envelope correlates with nothing.
func Unmarshal(frame []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(frame, &w); err != nil {
		return Envelope{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if w.Kind == "" {
		return Envelope{}, fmt.Errorf("%w: missing kind", ErrMalformed)
	}
	if !w.Kind.Valid() {
		return Envelope{}, fmt.Errorf("%w: unknown kind %q", ErrMalformed, w.Kind)
	}

	e := Envelope{
		ID:   w.ID,
		Kind: w.Kind,
		Data: normalizeData(w.Data),
	}
	if w.ClientID != nil {
		e.SessionTag = *w.ClientID
	}

	if err := checkPayload(e); err != nil {
		return Envelope{}, fmt.Errorf("%w: %s data: %w", ErrMalformed, e.Kind, err)
	}

	return e, nil
}

// checkPayload verifies that data decodes into the typed payload of its kind.
func checkPayload(e Envelope) error {
	if e.Data == nil {
		return nil
	}

	var target any
	switch e.Kind {
	case KindError:
		target = &ErrorPayload{}
	case KindSend:
		target = &SendPayload{}
	case KindReceive:
		target = &ReceivePayload{}
	case KindConnection:
		target = &ConnectionPayload{}
	default:
		return nil
	}

	return json.Unmarshal(e.Data, target)
}

// Decode unmarshals the envelope's data into v. An absent payload leaves v
// untouched.
func (e Envelope) Decode(v any) error {
	if e.Data == nil {
		return nil
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("envelope: decode %s data: %w", e.Kind, err)
	}
	return nil
}

// ErrorPayload returns the decoded payload of an error envelope. Decoding
// failures yield a zero payload.
func (e Envelope) ErrorPayload() ErrorPayload {
	var p ErrorPayload
	_ = e.Decode(&p)
	return p
}

// String renders the envelope's wire form, for logging.
func (e Envelope) String() string {
	b, err := Marshal(e)
	if err != nil {
		return fmt.Sprintf("envelope(%s %s)", e.Kind, e.ID)
	}
	return string(b)
}
