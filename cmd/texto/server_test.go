package main

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/coder/websocket"

	"github.com/germanamz/texto/pkg/envelope"
	"github.com/germanamz/texto/pkg/identity"
)

// newTextoServer starts a minimal texto server: registration gets a fresh
// session, sends to "nobody" fail with ECID, every other send is
// acknowledged and echoed back to the sender.
func newTextoServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.CloseNow()

		ctx := r.Context()
		session := identity.New()

		var mu sync.Mutex
		write := func(env envelope.Envelope, err error) bool {
			if err != nil {
				return false
			}
			b, err := envelope.Marshal(env)
			if err != nil {
				return false
			}
			mu.Lock()
			defer mu.Unlock()
			return conn.Write(ctx, websocket.MessageText, b) == nil
		}

		for {
			_, frame, err := conn.Read(ctx)
			if err != nil {
				return
			}
			env, err := envelope.Unmarshal(frame)
			if err != nil {
				return
			}

			switch env.Kind {
			case envelope.KindRegistration:
				if !write(envelope.NewWithID(env.ID, session, envelope.KindConnection,
					envelope.ConnectionPayload{ClientID: session})) {
					return
				}
			case envelope.KindSend:
				var p envelope.SendPayload
				if err := env.Decode(&p); err != nil {
					return
				}
				if p.ReceiverID == "nobody" {
					if !write(envelope.NewWithID(env.ID, session, envelope.KindError,
						envelope.ErrorPayload{Code: "ECID", Description: "unknown recipient"})) {
						return
					}
					continue
				}
				if !write(envelope.NewAck(env.ID, session), nil) {
					return
				}
				if !write(envelope.New(session, envelope.KindReceive,
					envelope.ReceivePayload{SenderID: session, Text: p.Text})) {
					return
				}
			}
		}
	}))
	t.Cleanup(srv.Close)

	return srv
}
