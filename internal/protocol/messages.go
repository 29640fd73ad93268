// Package protocol defines the message vocabulary exchanged with whiteboard
// clients and the pure translation from inbound client events to the events
// broadcast inside a room.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/synapse-live/relay-service/internal/domain"
)

// Типы событий от клиента.
const (
	TypeCursorMove  = "CursorMove"
	TypeDraw        = "Draw"
	TypeSyncRequest = "SyncRequest"
	TypeUpdateName  = "UpdateName"
)

// Типы событий сервера.
const (
	TypeUserJoined   = "UserJoined"
	TypeUserLeft     = "UserLeft"
	TypeCursorUpdate = "CursorUpdate"
	TypeDrawUpdate   = "DrawUpdate"
	TypeRoomState    = "RoomState"
	TypeSyncRelay    = "SyncRelay" // goes out as a binary frame, see binary.go
	TypeError        = "Error"
)

// Draw operation tags carried in the op_type field.
const (
	OpPathStart = "PathStart"
	OpPathPoint = "PathPoint"
	OpPathEnd   = "PathEnd"
	OpShape     = "Shape"
	OpErase     = "Erase"
	OpClear     = "Clear"
)

// Shape variants for OpShape.
const (
	ShapeRectangle = "Rectangle"
	ShapeEllipse   = "Ellipse"
	ShapeLine      = "Line"
	ShapeArrow     = "Arrow"
)

// ClientMessage is the envelope of an inbound text frame. The payload stays
// raw until the type tag is matched.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ServerMessage is the envelope of an outbound event. Payload holds one of the
// *Payload structs below.
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type CursorMovePayload struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type DrawPayload struct {
	Operation DrawOperation `json:"operation"`
}

type UpdateNamePayload struct {
	Name string `json:"name"`
}

type UserJoinedPayload struct {
	User domain.Participant `json:"user"`
}

type UserLeftPayload struct {
	UserID string `json:"user_id"`
}

type CursorUpdatePayload struct {
	UserID string  `json:"user_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type DrawUpdatePayload struct {
	UserID    string        `json:"user_id"`
	Operation DrawOperation `json:"operation"`
}

type RoomStatePayload struct {
	Users []domain.Participant `json:"users"`
}

// SyncRelayPayload carries opaque binary sync data through the fan-out
// channel. It never appears in a text frame: the write pump encodes it with
// EncodeRelayFrame instead.
type SyncRelayPayload struct {
	UserID string `json:"user_id"`
	Data   []byte `json:"data"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// DrawOperation is the tagged union of canvas operations. Which fields are
// meaningful depends on Op; the relay treats the geometry as opaque and only
// checks the tag.
type DrawOperation struct {
	Op          string  `json:"op_type"`
	ID          string  `json:"id,omitempty"`
	X           float64 `json:"x,omitempty"`
	Y           float64 `json:"y,omitempty"`
	Width       float64 `json:"width,omitempty"`
	Height      float64 `json:"height,omitempty"`
	Color       string  `json:"color,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
	ShapeType   string  `json:"shape_type,omitempty"`
}

// Validate checks the operation tag and the per-tag required fields.
func (op DrawOperation) Validate() error {
	switch op.Op {
	case OpClear:
		return nil
	case OpPathStart, OpPathPoint, OpPathEnd, OpErase:
		if op.ID == "" {
			return fmt.Errorf("draw op %s: missing id", op.Op)
		}
		return nil
	case OpShape:
		if op.ID == "" {
			return fmt.Errorf("draw op %s: missing id", op.Op)
		}
		switch op.ShapeType {
		case ShapeRectangle, ShapeEllipse, ShapeLine, ShapeArrow:
			return nil
		default:
			return fmt.Errorf("draw op %s: unknown shape_type %q", op.Op, op.ShapeType)
		}
	default:
		return fmt.Errorf("unknown draw op_type %q", op.Op)
	}
}

// DecodeClientMessage parses the envelope of an inbound text frame. The
// payload is validated later, when the type tag is matched in Translate.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("decode client message: %w", err)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("decode client message: missing type")
	}
	return msg, nil
}

// EncodeServerMessage serializes an outbound event for a text frame.
func EncodeServerMessage(msg ServerMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode server message: %w", err)
	}
	return data, nil
}

// DecodeServerMessage parses an outbound event back into its typed payload.
// Exists for client-side consumers and round-trip tests.
func DecodeServerMessage(data []byte) (ServerMessage, error) {
	var env struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload,omitempty"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return ServerMessage{}, fmt.Errorf("decode server message: %w", err)
	}

	msg := ServerMessage{Type: env.Type}
	var err error
	switch env.Type {
	case TypeUserJoined:
		var p UserJoinedPayload
		err = json.Unmarshal(env.Payload, &p)
		msg.Payload = p
	case TypeUserLeft:
		var p UserLeftPayload
		err = json.Unmarshal(env.Payload, &p)
		msg.Payload = p
	case TypeCursorUpdate:
		var p CursorUpdatePayload
		err = json.Unmarshal(env.Payload, &p)
		msg.Payload = p
	case TypeDrawUpdate:
		var p DrawUpdatePayload
		err = json.Unmarshal(env.Payload, &p)
		msg.Payload = p
	case TypeRoomState:
		var p RoomStatePayload
		err = json.Unmarshal(env.Payload, &p)
		msg.Payload = p
	case TypeSyncRelay:
		var p SyncRelayPayload
		err = json.Unmarshal(env.Payload, &p)
		msg.Payload = p
	case TypeError:
		var p ErrorPayload
		err = json.Unmarshal(env.Payload, &p)
		msg.Payload = p
	default:
		return ServerMessage{}, fmt.Errorf("decode server message: unknown type %q", env.Type)
	}
	if err != nil {
		return ServerMessage{}, fmt.Errorf("decode server message payload: %w", err)
	}
	return msg, nil
}
