package ws

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"pegfall/internal/logger"
	"pegfall/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 30 * time.Second
	pingPeriod     = 25 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 256
)

var errClientClosed = errors.New("client closed")

// Client bridges one gorilla websocket connection to a room. It implements
// Conn for the room side.
type Client struct {
	ID      string
	Subject string

	conn *websocket.Conn
	room *Room
	send chan Frame
	log  *slog.Logger

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func NewClient(conn *websocket.Conn, subject string) *Client {
	id := uuid.NewString()
	return &Client{
		ID:      id,
		Subject: subject,
		conn:    conn,
		send:    make(chan Frame, sendBuffer),
		log:     logger.With("component", "client", "conn", id),
		done:    make(chan struct{}),
	}
}

// Send queues f without blocking.
func (c *Client) Send(f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errClientClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrSlowConsumer
	}
}

// Close stops the write pump, which closes the socket.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
	return nil
}

// Run pumps between the socket and room until the socket closes. The
// connect for c must already be queued on room.
func (c *Client) Run(room *Room) {
	c.room = room
	c.log = c.log.With("room", room.Code)
	go c.writePump()
	c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		c.room.Submit(Disconnect{ConnID: c.ID})
		_ = c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		typ, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("read error", "error", err)
			}
			return
		}

		ev, err := DecodeEvent(Frame{Binary: typ == websocket.BinaryMessage, Data: msg})
		if err != nil {
			metrics.DecodeErrors.Inc()
			c.log.Debug("dropping inbound frame", "error", err)
			if f, ferr := textFrame(MsgError, ErrorPayload{Code: CodeBadMessage, Message: err.Error()}); ferr == nil {
				_ = c.Send(f)
			}
			continue
		}
		if !c.room.Submit(FromClient{ConnID: c.ID, Event: ev}) {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case f := <-c.send:
			if err := c.write(f); err != nil {
				c.log.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.flush()
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-c.room.Done():
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "room closed"))
			return
		}
	}
}

// flush writes frames that were queued before Close.
func (c *Client) flush() {
	for {
		select {
		case f := <-c.send:
			if c.write(f) != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) write(f Frame) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	typ := websocket.TextMessage
	if f.Binary {
		typ = websocket.BinaryMessage
	}
	return c.conn.WriteMessage(typ, f.Data)
}
