package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebSocket_URL(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		address string
		want    string
	}{
		{"bare host", "", "localhost:8080", "ws://localhost:8080/v1/texto"},
		{"http", "", "http://chat.example.com", "ws://chat.example.com/v1/texto"},
		{"https", "", "https://chat.example.com", "wss://chat.example.com/v1/texto"},
		{"ws keeps path", "", "ws://chat.example.com/custom", "ws://chat.example.com/custom"},
		{"wss root", "", "wss://chat.example.com/", "wss://chat.example.com/v1/texto"},
		{"custom default path", "/v2/texto", "localhost:9000", "ws://localhost:9000/v2/texto"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &WebSocket{Path: tt.path}
			got, err := w.URL(tt.address)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWebSocket_URLWithoutHost(t *testing.T) {
	var w WebSocket
	_, err := w.URL("ws://")
	assert.Error(t, err)
}

// echoServer upgrades /v1/texto and echoes text frames; a frame reading
// "binary" is answered with a binary frame.
func echoServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(DefaultPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.CloseNow() }()

		for {
			typ, data, err := conn.Read(r.Context())
			if err != nil {
				return
			}
			if string(data) == "binary" {
				typ = websocket.MessageBinary
			}
			if err := conn.Write(r.Context(), typ, data); err != nil {
				return
			}
		}
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestWebSocket_DialSendReceive(t *testing.T) {
	srv := echoServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var w WebSocket
	conn, err := w.Dial(ctx, srv.URL)
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.Send(ctx, []byte(`{"id":"X","kind":"ack"}`)))

	got, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"id":"X","kind":"ack"}`, string(got))
}

func TestWebSocket_BinaryFrameRejected(t *testing.T) {
	srv := echoServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	w := WebSocket{ReadLimit: 1 << 16}
	conn, err := w.Dial(ctx, strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.Send(ctx, []byte("binary")))
	_, err = conn.Receive(ctx)
	assert.ErrorIs(t, err, ErrBinaryFrame)

	// The connection stays usable after a binary frame.
	require.NoError(t, conn.Send(ctx, []byte("text")))
	got, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "text", string(got))
}

func TestWebSocket_DialFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var w WebSocket
	_, err := w.Dial(ctx, srv.URL)
	assert.Error(t, err)
}

func TestWebSocket_CloseIdempotent(t *testing.T) {
	srv := echoServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var w WebSocket
	conn, err := w.Dial(ctx, srv.URL)
	require.NoError(t, err)

	first := conn.Close()
	assert.Equal(t, first, conn.Close())

	_, err = conn.Receive(ctx)
	assert.Error(t, err)
}
