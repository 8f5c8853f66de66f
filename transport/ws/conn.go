// Package ws exposes the messaging core over gorilla websockets.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"snappy-chat/domain"
	"snappy-chat/errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Conn adapts a websocket to contract.Connection.
// Writes are serialized by a mutex. Close may race with writes,
// gorilla allows WriteControl and Close concurrently with other methods.
type Conn struct {
	id           string
	ws           *websocket.Conn
	writeTimeout time.Duration
	writeMu      sync.Mutex
	closeOnce    sync.Once
	closed       chan struct{}
}

func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	return &Conn{
		id:           uuid.NewString(),
		ws:           ws,
		writeTimeout: writeTimeout,
		closed:       make(chan struct{}),
	}
}

func (c *Conn) ID() string { return c.id }

// Send writes frame as one JSON text message.
// The write deadline is the earliest of ctx's deadline and the write timeout.
func (c *Conn) Send(ctx context.Context, frame any) error {
	select {
	case <-c.closed:
		return errors.ErrConnectionClosed
	default:
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransportSend, err)
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err = c.ws.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransportSend, err)
	}
	if err = c.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrTransportSend, err)
	}
	return nil
}

// Close sends a close frame with code and reason, then drops the socket.
// Only the first call has an effect.
func (c *Conn) Close(code int, reason string) error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		deadline := time.Now().Add(c.writeTimeout)
		controlErr := c.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
		if controlErr != nil && controlErr != websocket.ErrCloseSent {
			err = controlErr
		}
		if closeErr := c.ws.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	})
	return err
}

// ReadFrame blocks until the next inbound frame.
// A frame that is not a JSON object of the expected shape yields
// ErrMalformedFrame, any other error means the connection is gone.
func (c *Conn) ReadFrame() (domain.InboundFrame, error) {
	messageType, payload, err := c.ws.ReadMessage()
	if err != nil {
		return domain.InboundFrame{}, err
	}
	if messageType != websocket.TextMessage {
		return domain.InboundFrame{}, fmt.Errorf("%w: binary message", errors.ErrMalformedFrame)
	}
	var frame domain.InboundFrame
	if err = json.Unmarshal(payload, &frame); err != nil {
		return domain.InboundFrame{}, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	return frame, nil
}

func (c *Conn) SetReadLimit(limit int64) {
	if limit > 0 {
		c.ws.SetReadLimit(limit)
	}
}
