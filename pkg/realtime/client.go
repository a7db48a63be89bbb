// Package realtime maintains the single push-channel connection to the
// backend and fans incoming events out to subscribers by event name.
//
// Delivery is at-most-once and best-effort: a dropped connection is
// non-fatal, handlers simply stop firing until the channel redials, and
// events emitted during the gap are lost. Callers observe connection health
// by polling IsConnected on their own interval; no status event is pushed.
package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/sinditur/odonto/pkg/domain"
)

// redialInterval is the fixed delay between reconnection attempts after a
// connection drop. There is no backoff; the channel is low-volume.
const redialInterval = 5 * time.Second

// ErrClosed is returned by Connect after Disconnect has been called.
var ErrClosed = errors.New("realtime: client closed")

// envelope is the wire format: one JSON object per websocket text message.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Client is the push-channel client. One Client holds at most one websocket
// connection; all screens share it and register interest through Subscribe.
type Client struct {
	url   string
	token string
	log   logrus.FieldLogger
	reg   *registry

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	closed    bool
	done      chan struct{}
}

// New creates a client for the websocket endpoint at url. log may be nil.
func New(url, token string, log logrus.FieldLogger) *Client {
	if log == nil {
		l := logrus.New()
		l.SetOutput(nopWriter{})
		log = l
	}
	return &Client{
		url:   url,
		token: token,
		log:   log,
		reg:   newRegistry(),
		done:  make(chan struct{}),
	}
}

// Subscribe registers handler for the named event and returns an idempotent
// unsubscribe function. Handlers run on the connection's read goroutine;
// they must hand work off rather than block.
func (c *Client) Subscribe(event string, handler Handler) func() {
	return c.reg.subscribe(event, handler)
}

// Connect dials the channel and starts dispatching events. It is a no-op if
// already connected and returns ErrClosed after Disconnect.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	if c.connected {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	conn, err := c.dial(ctx)
	if err != nil {
		return errors.Wrap(err, "realtime: connect")
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		conn.Close() //nolint:errcheck
		return ErrClosed
	}
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	c.log.WithField("url", c.url).Info("realtime channel connected")
	go c.readLoop(conn)
	return nil
}

// Disconnect tears the channel down permanently. Safe to call twice.
func (c *Client) Disconnect() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.connected = false
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	close(c.done)
	if conn != nil {
		conn.Close() //nolint:errcheck
	}
	c.log.Info("realtime channel closed")
}

// IsConnected reports whether the channel currently holds a live
// connection. Callers poll this on a fixed interval for status display.
func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck
	}
	return conn, err
}

// readLoop decodes envelopes and dispatches until the connection drops.
// On drop it flips the connected flag and hands off to the redial loop.
func (c *Client) readLoop(conn *websocket.Conn) {
	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			conn.Close() //nolint:errcheck

			c.mu.Lock()
			closed := c.closed
			if c.conn == conn {
				c.conn = nil
				c.connected = false
			}
			c.mu.Unlock()

			if closed {
				return
			}
			c.log.WithError(err).Warn("realtime channel dropped")
			go c.redialLoop()
			return
		}
		c.reg.dispatch(decodeEvent(env))
	}
}

// redialLoop retries the connection every redialInterval until it succeeds
// or the client is closed. Events emitted while disconnected are lost.
func (c *Client) redialLoop() {
	for {
		select {
		case <-c.done:
			return
		case <-time.After(redialInterval):
		}

		conn, err := c.dial(context.Background())
		if err != nil {
			c.log.WithError(err).Debug("realtime redial failed")
			continue
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			conn.Close() //nolint:errcheck
			return
		}
		c.conn = conn
		c.connected = true
		c.mu.Unlock()

		c.log.Info("realtime channel reconnected")
		go c.readLoop(conn)
		return
	}
}

// decodeEvent is permissive: a payload that fails to decode, or is missing
// fields, still yields an event carrying the name; consumers render
// placeholders for whatever is absent.
func decodeEvent(env envelope) domain.Event {
	var ev domain.Event
	if len(env.Data) > 0 {
		_ = json.Unmarshal(env.Data, &ev) //nolint:errcheck
	}
	ev.Type = env.Event
	return ev
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
