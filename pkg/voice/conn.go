package voice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	handshakeTimeout = 10 * time.Second
	closeGrace       = time.Second
)

// ErrClosed is returned by Send after Close
var ErrClosed = errors.New("voice connection closed")

// Conn is a voice websocket. Writes are serialized; reads must come from a
// single goroutine.
type Conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	closed  bool
}

// Dial opens the voice socket at rawURL, passing token as a query
// parameter when set
func Dial(ctx context.Context, rawURL, token string) (*Conn, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid voice url: %w", err)
	}
	if token != "" {
		q := u.Query()
		q.Set("token", token)
		u.RawQuery = q.Encode()
	}

	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}
	ws, resp, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("voice handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect voice socket: %w", err)
	}
	return &Conn{ws: ws}, nil
}

// Send writes one event
func (c *Conn) Send(e Event) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if err := c.ws.WriteJSON(e); err != nil {
		return fmt.Errorf("failed to send %s: %w", e.Type, err)
	}
	return nil
}

// Next blocks for the next inbound event
func (c *Conn) Next() (Event, error) {
	var e Event
	if err := c.ws.ReadJSON(&e); err != nil {
		return Event{}, err
	}
	return e, nil
}

// Close sends a normal close frame and closes the socket
func (c *Conn) Close() error {
	c.writeMu.Lock()
	if c.closed {
		c.writeMu.Unlock()
		return nil
	}
	c.closed = true
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeGrace))
	c.writeMu.Unlock()
	return c.ws.Close()
}

// IsNormalClose reports whether err is the peer ending the session cleanly
func IsNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
