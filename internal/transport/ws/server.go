// Package ws runs one connection session per upgraded socket: join the room,
// pump frames both ways, leave exactly once when either pump stops.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/synapse-live/relay-service/internal/protocol"
	"github.com/synapse-live/relay-service/internal/room"
)

// Config tunes per-connection behavior. Zero values fall back to defaults.
type Config struct {
	PingInterval   time.Duration // server ping period; read deadline is twice this
	MaxMessageSize int64         // per-frame read limit in bytes
	RatePerSecond  float64       // inbound events per second per connection
	RateBurst      int
}

func (c Config) withDefaults() Config {
	if c.PingInterval <= 0 {
		c.PingInterval = 15 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 1 << 20
	}
	// Cursor streams are chatty; the default has to accommodate a busy board.
	if c.RatePerSecond <= 0 {
		c.RatePerSecond = 120
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 240
	}
	return c
}

type Server struct {
	upgrader websocket.Upgrader
	registry *room.Registry
	cfg      Config
}

func NewServer(registry *room.Registry, cfg Config) *Server {
	return &Server{
		registry: registry,
		cfg:      cfg.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// WS endpoint: GET /ws/{id}
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	userID := uuid.New().String()
	c := newWSConn(conn, roomID, userID)

	pub, sub := s.registry.JoinRoom(roomID, userID)
	slog.Info("ws connected", "room", roomID, "user", userID)

	go s.writeLoop(r.Context(), c, sub)
	s.readLoop(c, pub)

	// Единственная точка финализации: the read pump has ended — either its own
	// socket read failed or the write pump closed the socket under it — so the
	// leave below runs exactly once per connection.
	sub.Cancel()
	s.registry.LeaveRoom(roomID, userID)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "user", userID, "err", err)
	}
	slog.Info("ws disconnected", "room", roomID, "user", userID)
}

func (s *Server) readLoop(c *wsConn, pub *room.Fanout) {
	defer func() { _ = c.Close() }()

	limiter := rate.NewLimiter(rate.Limit(s.cfg.RatePerSecond), s.cfg.RateBurst)

	c.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingInterval))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.cfg.PingInterval))
	})
	c.conn.SetPingHandler(func(appData string) error {
		// A failed pong means the peer is gone; returning the error ends the
		// read pump.
		err := c.conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err != nil && err != websocket.ErrCloseSent {
			return err
		}
		return nil
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		if !limiter.Allow() {
			slog.Debug("ws rate limit exceeded", "room", c.roomID, "user", c.userID)
			continue
		}

		switch mt {
		case websocket.BinaryMessage:
			// Opaque sync payload — relayed, never parsed.
			pub.Publish(protocol.ServerMessage{
				Type:    protocol.TypeSyncRelay,
				Payload: protocol.SyncRelayPayload{UserID: c.userID, Data: data},
			})
		case websocket.TextMessage:
			s.handleText(c, pub, data)
		}
	}
}

// handleText decodes and translates one client event. Malformed frames are
// dropped without an answer; the connection lives on.
func (s *Server) handleText(c *wsConn, pub *room.Fanout, data []byte) {
	msg, err := protocol.DecodeClientMessage(data)
	if err != nil {
		slog.Debug("ws drop malformed frame", "room", c.roomID, "user", c.userID, "err", err)
		return
	}

	out, ok := protocol.Translate(msg, c.userID)
	if !ok {
		slog.Debug("ws drop unrecognized event", "room", c.roomID, "user", c.userID, "type", msg.Type)
		return
	}

	switch out.Type {
	case protocol.TypeRoomState:
		// The translator cannot see the member set; take the snapshot here.
		out.Payload = protocol.RoomStatePayload{Users: s.registry.RoomUsers(c.roomID)}
	case protocol.TypeUserJoined:
		p, ok := out.Payload.(protocol.UserJoinedPayload)
		if !ok {
			return
		}
		renamed, err := s.registry.Rename(c.roomID, c.userID, p.User.Name)
		if err != nil {
			// The sender is no longer a member; nothing to announce.
			slog.Debug("ws drop rename", "room", c.roomID, "user", c.userID, "err", err)
			return
		}
		out.Payload = protocol.UserJoinedPayload{User: renamed}
	}

	pub.Publish(out)
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn, sub *room.Subscription) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg := <-sub.C():
			if err := c.Send(msg); err != nil {
				slog.Debug("ws write failed", "room", c.roomID, "user", c.userID, "err", err)
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.Close()
				return
			}
		case <-c.closed:
			return
		case <-ctx.Done():
			_ = c.Close()
			return
		}
	}
}
