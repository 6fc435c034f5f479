package ws

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Native readiness values of a transport channel. Phases mirror them
// one-to-one so comparisons stay order-preserving.
const (
	ReadyStateConnecting = 0
	ReadyStateOpen       = 1
	ReadyStateClosing    = 2
	ReadyStateClosed     = 3
)

// Channel is one live transport handle.
type Channel interface {
	ReadyState() int
	Send(v any) error
	Close() error
}

// Callbacks are attached before the channel starts connecting, so no event
// can fire without a handler in place.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(data []byte)
	OnClose   func()
	OnError   func(err error)
}

// Dialer creates channels. Injected so tests can substitute fakes.
type Dialer interface {
	Dial(ctx context.Context, url string, cb Callbacks) Channel
}

// GorillaDialer opens websocket channels with browser-like semantics:
// Dial returns immediately and the connect happens in the background,
// reported through the callbacks.
type GorillaDialer struct {
	dialer *websocket.Dialer
}

func NewGorillaDialer() *GorillaDialer {
	return &GorillaDialer{dialer: websocket.DefaultDialer}
}

func (d *GorillaDialer) Dial(ctx context.Context, url string, cb Callbacks) Channel {
	ch := &gorillaChannel{cb: cb}
	ch.readyState.Store(ReadyStateConnecting)
	go ch.connect(ctx, d.dialer, url)
	return ch
}

type gorillaChannel struct {
	readyState atomic.Int32
	cb         Callbacks

	mu   sync.Mutex // guards conn writes and Close
	conn *websocket.Conn
}

func (c *gorillaChannel) connect(ctx context.Context, dialer *websocket.Dialer, url string) {
	conn, _, err := dialer.DialContext(ctx, url, http.Header{})
	if err != nil {
		c.readyState.Store(ReadyStateClosed)
		if c.cb.OnError != nil {
			c.cb.OnError(err)
		}
		if c.cb.OnClose != nil {
			c.cb.OnClose()
		}
		return
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.readyState.Store(ReadyStateOpen)
	if c.cb.OnOpen != nil {
		c.cb.OnOpen()
	}

	c.readLoop(conn)
}

func (c *gorillaChannel) readLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			// Reads fail with a close error after a local Close too;
			// only an unexpected failure is an error event.
			if c.readyState.Load() < ReadyStateClosing && c.cb.OnError != nil {
				c.cb.OnError(err)
			}
			c.readyState.Store(ReadyStateClosed)
			if c.cb.OnClose != nil {
				c.cb.OnClose()
			}
			return
		}
		if c.cb.OnMessage != nil {
			c.cb.OnMessage(data)
		}
	}
}

func (c *gorillaChannel) ReadyState() int {
	return int(c.readyState.Load())
}

func (c *gorillaChannel) Send(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrChannelNotOpen
	}
	return c.conn.WriteJSON(v)
}

func (c *gorillaChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		c.readyState.Store(ReadyStateClosed)
		return nil
	}
	c.readyState.Store(ReadyStateClosing)
	return c.conn.Close()
}
