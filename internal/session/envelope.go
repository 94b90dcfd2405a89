// Package session owns the relay transport: connection lifecycle,
// heartbeats, reconnects, and inbound message dispatch. It is the only
// place transport state lives; everything else sees discrete events.
package session

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// Message kinds on the relay channel.
const (
	TypeConnected     = "CONNECTED"
	TypeNewToken      = "NEW_TOKEN"
	TypeBatchUpdate   = "BATCH_UPDATE"
	TypeHeartbeat     = "HEARTBEAT"
	TypeHeartbeatAck  = "HEARTBEAT_ACK"
	TypeRequestTokens = "REQUEST_INITIAL_TOKENS"
)

// Message is the transport envelope. NEW_TOKEN carries one raw record
// in Token, BATCH_UPDATE carries an array in Data.
type Message struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Token     json.RawMessage `json:"token,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// maxCompressedPayload caps how much a compressed frame may inflate
// to, guarding against malformed length prefixes.
const maxCompressedPayload = 16 << 20

// DecodeMessage parses a wire frame. Plain JSON is tried first; on
// failure the frame is treated as a length-prefixed zlib blob (4-byte
// big-endian plaintext length, then the compressed stream). Both
// failing means the message is undecodable and should be dropped.
func DecodeMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err == nil && msg.Type != "" {
		return msg, nil
	}

	plain, err := decompress(data)
	if err != nil {
		return Message{}, fmt.Errorf("message is neither JSON nor compressed: %w", err)
	}
	if err := json.Unmarshal(plain, &msg); err != nil {
		return Message{}, fmt.Errorf("decompressed payload is not JSON: %w", err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("decompressed message has no type")
	}
	return msg, nil
}

// decompress inflates a length-prefixed zlib frame.
func decompress(data []byte) ([]byte, error) {
	if len(data) < 5 {
		return nil, fmt.Errorf("frame too short (%d bytes)", len(data))
	}

	size := binary.BigEndian.Uint32(data[:4])
	if size == 0 || size > maxCompressedPayload {
		return nil, fmt.Errorf("implausible plaintext length %d", size)
	}

	r, err := zlib.NewReader(bytes.NewReader(data[4:]))
	if err != nil {
		return nil, fmt.Errorf("open zlib stream: %w", err)
	}
	defer r.Close()

	plain, err := io.ReadAll(io.LimitReader(r, int64(size)+1))
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if len(plain) != int(size) {
		return nil, fmt.Errorf("plaintext length %d does not match prefix %d", len(plain), size)
	}
	return plain, nil
}

// EncodeCompressed produces a length-prefixed zlib frame. The client
// itself always sends plain JSON; this exists for the decoder's tests
// and any relay that wants the compact form.
func EncodeCompressed(plain []byte) ([]byte, error) {
	var buf bytes.Buffer
	var prefix [4]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(plain)))
	buf.Write(prefix[:])

	w := zlib.NewWriter(&buf)
	if _, err := w.Write(plain); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
