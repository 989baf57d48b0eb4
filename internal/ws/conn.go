package ws

import "errors"

// ErrSlowConsumer is returned by Send when a connection cannot accept more
// frames without blocking.
var ErrSlowConsumer = errors.New("connection send buffer full")

// Frame is one websocket message. Binary frames carry wire-encoded
// messages, text frames carry JSON.
type Frame struct {
	Binary bool
	Data   []byte
}

// Conn is what a room needs from a connection. Send must never block.
type Conn interface {
	Send(Frame) error
	Close() error
}
