package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/synapse-live/relay-service/internal/domain"
)

func clientMsg(t *testing.T, typ string, payload any) ClientMessage {
	t.Helper()
	if payload == nil {
		return ClientMessage{Type: typ}
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return ClientMessage{Type: typ, Payload: raw}
}

func TestTranslate_CursorMove(t *testing.T) {
	out, ok := Translate(clientMsg(t, TypeCursorMove, CursorMovePayload{X: 10, Y: 20}), "u1")
	require.True(t, ok)
	assert.Equal(t, TypeCursorUpdate, out.Type)
	assert.Equal(t, CursorUpdatePayload{UserID: "u1", X: 10, Y: 20}, out.Payload)
}

func TestTranslate_DrawPassesOperationThrough(t *testing.T) {
	op := DrawOperation{Op: OpPathStart, ID: "p1", X: 5, Y: 6, Color: "#123456", StrokeWidth: 3}
	out, ok := Translate(clientMsg(t, TypeDraw, DrawPayload{Operation: op}), "u1")
	require.True(t, ok)
	assert.Equal(t, TypeDrawUpdate, out.Type)
	assert.Equal(t, DrawUpdatePayload{UserID: "u1", Operation: op}, out.Payload)
}

func TestTranslate_DrawRejectsInvalidOperation(t *testing.T) {
	_, ok := Translate(clientMsg(t, TypeDraw, DrawPayload{Operation: DrawOperation{Op: "Scribble"}}), "u1")
	assert.False(t, ok)
}

func TestTranslate_SyncRequestLeavesUsersToCaller(t *testing.T) {
	out, ok := Translate(clientMsg(t, TypeSyncRequest, nil), "u1")
	require.True(t, ok)
	assert.Equal(t, TypeRoomState, out.Type)
	assert.Equal(t, RoomStatePayload{}, out.Payload, "the stateless translator cannot know the member set")
}

func TestTranslate_UpdateNameStampsIdentityAndColor(t *testing.T) {
	out, ok := Translate(clientMsg(t, TypeUpdateName, UpdateNamePayload{Name: "  Alice  "}), "u1")
	require.True(t, ok)
	assert.Equal(t, TypeUserJoined, out.Type)
	assert.Equal(t, UserJoinedPayload{User: domain.Participant{
		ID:    "u1",
		Name:  "Alice",
		Color: domain.ColorFor("u1"),
	}}, out.Payload)
}

func TestTranslate_Drops(t *testing.T) {
	tests := []struct {
		name string
		msg  ClientMessage
	}{
		{"unknown type", clientMsg(t, "Teleport", nil)},
		{"cursor move without payload", clientMsg(t, TypeCursorMove, nil)},
		{"draw with malformed payload", ClientMessage{Type: TypeDraw, Payload: json.RawMessage(`"x"`)}},
		{"blank name", clientMsg(t, TypeUpdateName, UpdateNamePayload{Name: "   "})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Translate(tt.msg, "u1")
			assert.False(t, ok)
		})
	}
}
