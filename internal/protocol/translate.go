package protocol

import (
	"encoding/json"
	"strings"

	"github.com/synapse-live/relay-service/internal/domain"
)

// Translate maps an inbound client event to the event broadcast to the room,
// stamping the sender's identity. The second return is false when the event is
// malformed or unrecognized; such events are silently dropped by the caller
// and never tear down the connection.
//
// Translate is stateless. RoomState comes back with a nil user list — the
// membership snapshot lives in the room registry, so the connection session
// fills Users before publishing. Likewise UpdateName carries the sender's
// derived color; the session replaces the whole participant with the
// registry's renamed record when one exists.
func Translate(msg ClientMessage, userID string) (ServerMessage, bool) {
	switch msg.Type {
	case TypeCursorMove:
		var p CursorMovePayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return ServerMessage{}, false
		}
		return ServerMessage{
			Type:    TypeCursorUpdate,
			Payload: CursorUpdatePayload{UserID: userID, X: p.X, Y: p.Y},
		}, true

	case TypeDraw:
		var p DrawPayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return ServerMessage{}, false
		}
		if p.Operation.Validate() != nil {
			return ServerMessage{}, false
		}
		return ServerMessage{
			Type:    TypeDrawUpdate,
			Payload: DrawUpdatePayload{UserID: userID, Operation: p.Operation},
		}, true

	case TypeSyncRequest:
		return ServerMessage{
			Type:    TypeRoomState,
			Payload: RoomStatePayload{},
		}, true

	case TypeUpdateName:
		var p UpdateNamePayload
		if json.Unmarshal(msg.Payload, &p) != nil {
			return ServerMessage{}, false
		}
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return ServerMessage{}, false
		}
		return ServerMessage{
			Type: TypeUserJoined,
			Payload: UserJoinedPayload{User: domain.Participant{
				ID:    userID,
				Name:  name,
				Color: domain.ColorFor(userID),
			}},
		}, true
	}

	return ServerMessage{}, false
}
