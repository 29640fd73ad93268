package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	relayHeaderSize = 4
	maxRelaySize    = 1 << 20 // matches the per-frame read limit
)

// EncodeRelayFrame packs a sender ID and an opaque sync payload into one
// binary frame: a 4-byte big-endian ID length, the ID bytes, then the payload
// untouched.
func EncodeRelayFrame(userID string, data []byte) ([]byte, error) {
	if userID == "" {
		return nil, errors.New("relay frame: empty sender id")
	}
	if len(data) > maxRelaySize {
		return nil, fmt.Errorf("relay frame: payload size %d exceeds maximum %d bytes", len(data), maxRelaySize)
	}

	out := make([]byte, relayHeaderSize+len(userID)+len(data))
	binary.BigEndian.PutUint32(out[:relayHeaderSize], uint32(len(userID)))
	copy(out[relayHeaderSize:], userID)
	copy(out[relayHeaderSize+len(userID):], data)
	return out, nil
}

// DecodeRelayFrame splits a binary relay frame back into sender ID and
// payload. The payload slice references the input data.
func DecodeRelayFrame(frame []byte) (string, []byte, error) {
	if len(frame) < relayHeaderSize {
		return "", nil, errors.New("relay frame: too short")
	}
	idLen := int(binary.BigEndian.Uint32(frame[:relayHeaderSize]))
	if idLen == 0 || relayHeaderSize+idLen > len(frame) {
		return "", nil, fmt.Errorf("relay frame: invalid sender id length %d", idLen)
	}
	userID := string(frame[relayHeaderSize : relayHeaderSize+idLen])
	return userID, frame[relayHeaderSize+idLen:], nil
}
