package envelope

// SendPayload is the data of a send envelope.
type SendPayload struct {
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
}

// ReceivePayload is the data of a receive envelope.
type ReceivePayload struct {
	SenderID string `json:"sender_id"`
	Text     string `json:"text"`
}

// ErrorPayload contains the code and the human-readable description of an error.
type ErrorPayload struct {
	Code        string `json:"code,omitempty"`
	Description string `json:"description"`
}

// ConnectionPayload is the data of a connection envelope. Servers may omit
// it and rely on the envelope's client_id alone.
type ConnectionPayload struct {
	ClientID string `json:"client_id"`
}
