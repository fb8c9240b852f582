package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/coder/websocket"
)

// DefaultPath is the endpoint path appended to bare host addresses.
const DefaultPath = "/v1/texto"

// WebSocket dials texto servers over WebSocket. The zero value is ready to
// use.
type WebSocket struct {
	Path       string       // Endpoint path for bare addresses (default: DefaultPath).
	HTTPClient *http.Client // Client used for the opening handshake; nil uses http.DefaultClient.
	Header     http.Header  // Extra headers sent with the opening handshake.
	ReadLimit  int64        // Maximum inbound frame size in bytes; 0 keeps the library default.
}

// URL converts address to a WebSocket URL. A bare "host:port" becomes
// "ws://host:port" plus the endpoint path; https becomes wss and http becomes
// ws. URLs that already use ws/wss are left unchanged, and the endpoint path
// is only added when the URL has none.
func (w *WebSocket) URL(address string) (string, error) {
	u := address

	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + u[len("https://"):]
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + u[len("http://"):]
	case strings.HasPrefix(u, "ws://"), strings.HasPrefix(u, "wss://"):
	default:
		u = "ws://" + u
	}

	parsed, err := url.Parse(u)
	if err != nil {
		return "", fmt.Errorf("transport: parse address %q: %w", address, err)
	}
	if parsed.Host == "" {
		return "", fmt.Errorf("transport: address %q has no host", address)
	}

	if parsed.Path == "" || parsed.Path == "/" {
		path := w.Path
		if path == "" {
			path = DefaultPath
		}
		parsed.Path = path
	}

	return parsed.String(), nil
}

// Dial opens the WebSocket connection.
func (w *WebSocket) Dial(ctx context.Context, address string) (Conn, error) {
	u, err := w.URL(address)
	if err != nil {
		return nil, err
	}

	conn, resp, err := websocket.Dial(ctx, u, &websocket.DialOptions{
		HTTPClient: w.HTTPClient,
		HTTPHeader: w.Header,
	})
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("transport: dial websocket: %w", err)
	}

	if w.ReadLimit > 0 {
		conn.SetReadLimit(w.ReadLimit)
	}

	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn

	closeOnce sync.Once
	closeErr  error
}

func (c *wsConn) Send(ctx context.Context, frame []byte) error {
	if err := c.conn.Write(ctx, websocket.MessageText, frame); err != nil {
		return wrapClosed("write", err)
	}
	return nil
}

func (c *wsConn) Receive(ctx context.Context) ([]byte, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		return nil, wrapClosed("read", err)
	}
	if typ != websocket.MessageText {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBinaryFrame, len(data))
	}
	return data, nil
}

func (c *wsConn) Close() error {
	c.closeOnce.Do(func() {
		err := c.conn.Close(websocket.StatusNormalClosure, "")
		if err != nil && websocket.CloseStatus(err) == -1 {
			c.closeErr = fmt.Errorf("transport: close: %w", err)
		}
	})
	return c.closeErr
}

// wrapClosed marks errors caused by a close handshake with ErrClosed.
func wrapClosed(op string, err error) error {
	if websocket.CloseStatus(err) != -1 {
		return fmt.Errorf("transport: %s: %w: %w", op, ErrClosed, err)
	}
	return fmt.Errorf("transport: %s: %w", op, err)
}
