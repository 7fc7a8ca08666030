package socket

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const defaultReconnectDelay = 2 * time.Second

// Client is the push-channel connection to the backend. It is explicitly
// owned: created for a session, started once, closed on session end —
// never a module-level singleton. Frames are raw JSON payloads; typing
// happens downstream at the event merge boundary.
//
// The connection reconnects with a fixed delay after read errors. The
// backend redelivers on reconnect (at-least-once), which downstream
// dedupe absorbs.
type Client struct {
	URL            string
	AuthToken      string
	ReconnectDelay time.Duration

	events    chan []byte
	done      chan struct{}
	closeOnce sync.Once
	started   bool
	mu        sync.Mutex
}

// NewClient creates a push client for the given websocket URL
// (e.g. ws://host:port/ws?userId=u1).
func NewClient(url, authToken string) *Client {
	return &Client{
		URL:            url,
		AuthToken:      authToken,
		ReconnectDelay: defaultReconnectDelay,
		events:         make(chan []byte, 64),
		done:           make(chan struct{}),
	}
}

// Events returns the incoming frame stream. The channel closes after
// Close.
func (c *Client) Events() <-chan []byte {
	return c.events
}

// Connect starts the connection loop. Calling it twice is a no-op.
func (c *Client) Connect() {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	go c.run()
}

func (c *Client) run() {
	defer close(c.events)

	connect := func() (*websocket.Conn, error) {
		header := http.Header{}
		if c.AuthToken != "" {
			header.Set("Authorization", "Bearer "+c.AuthToken)
		}
		ws, _, err := websocket.DefaultDialer.Dial(c.URL, header)
		return ws, err
	}

	for {
		select {
		case <-c.done:
			return
		default:
		}

		ws, err := connect()
		if err != nil {
			log.Warn().Err(err).Str("url", c.URL).Msg("⚠️ Push channel dial failed, retrying")
			select {
			case <-c.done:
				return
			case <-time.After(c.ReconnectDelay):
			}
			continue
		}
		log.Info().Str("url", c.URL).Msg("✅ Push channel connected")

		c.readLoop(ws)
		ws.Close()

		select {
		case <-c.done:
			return
		case <-time.After(c.ReconnectDelay):
		}
	}
}

// readLoop pumps frames until the connection breaks or the client closes.
func (c *Client) readLoop(ws *websocket.Conn) {
	// Unblock ReadMessage when Close is called.
	stopPing := make(chan struct{})
	defer close(stopPing)
	go func() {
		select {
		case <-c.done:
			ws.Close()
		case <-stopPing:
		}
	}()

	for {
		messageType, data, err := ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.Warn().Err(err).Msg("⚠️ Push channel read failed, reconnecting")
			}
			return
		}
		if messageType != websocket.TextMessage && messageType != websocket.BinaryMessage {
			continue
		}

		select {
		case c.events <- data:
		case <-c.done:
			return
		}
	}
}

// Close tears the connection down and closes the event stream. Safe to
// call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}
