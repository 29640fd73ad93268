package ws

import (
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/synapse-live/relay-service/internal/protocol"
)

const writeWait = 5 * time.Second

// wsConn wraps the raw socket for one participant. Send serializes writers
// through a 1-slot channel; closed signals the write pump to stop.
type wsConn struct {
	conn      *websocket.Conn
	roomID    string
	userID    string
	sendMu    chan struct{}
	closeOnce sync.Once
	closed    chan struct{}
}

func newWSConn(c *websocket.Conn, roomID, userID string) *wsConn {
	return &wsConn{
		conn:   c,
		roomID: roomID,
		userID: userID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

// Send writes one broadcast event to the socket. Sync relay events go out as
// binary frames, everything else as JSON text.
func (c *wsConn) Send(msg protocol.ServerMessage) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

	if msg.Type == protocol.TypeSyncRelay {
		p, ok := msg.Payload.(protocol.SyncRelayPayload)
		if !ok {
			return fmt.Errorf("sync relay event with %T payload", msg.Payload)
		}
		frame, err := protocol.EncodeRelayFrame(p.UserID, p.Data)
		if err != nil {
			return err
		}
		return c.conn.WriteMessage(websocket.BinaryMessage, frame)
	}

	data, err := protocol.EncodeServerMessage(msg)
	if err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close is safe for concurrent use: both pumps call it when the socket dies.
// The first call signals the write pump, every call closes the underlying
// socket.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.conn.Close()
}
