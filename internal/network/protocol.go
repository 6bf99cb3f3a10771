package network

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/amalg/go-tetris/internal/game"
)

// MsgType identifies the type of network message.
type MsgType string

const (
	MsgHello    MsgType = "hello"
	MsgWelcome  MsgType = "welcome"
	MsgSnapshot MsgType = "snapshot"
	MsgError    MsgType = "error"
)

// MaxMessageSize bounds a single frame body.
const MaxMessageSize = 1 << 20

// Envelope wraps all messages with a type discriminator for deserialization.
type Envelope struct {
	Type    MsgType         `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// --- Watcher → Host Messages ---

// HelloMsg is sent by a watcher when it connects.
type HelloMsg struct {
	Name string `json:"name"`
}

// --- Host → Watcher Messages ---

// WelcomeMsg is sent to a watcher after its hello.
type WelcomeMsg struct {
	SessionID string      `json:"session_id"`
	Host      string      `json:"host"`
	Config    game.Config `json:"config"`
}

// SnapshotMsg carries the full renderable state of the host's game.
type SnapshotMsg struct {
	Snapshot game.Snapshot `json:"snapshot"`
}

// ErrorMsg notifies a watcher of an error.
type ErrorMsg struct {
	Message string `json:"message"`
}

// Encode serializes a message and writes it to the writer.
// Format: [4-byte big-endian length][JSON body]
func Encode(w io.Writer, msgType MsgType, payload interface{}) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	env := Envelope{
		Type:    msgType,
		Payload: json.RawMessage(payloadBytes),
	}

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if len(body) > MaxMessageSize {
		return fmt.Errorf("message too large: %d bytes", len(body))
	}

	length := uint32(len(body))
	if err := binary.Write(w, binary.BigEndian, length); err != nil {
		return fmt.Errorf("write length: %w", err)
	}

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}

	return nil
}

// Decode reads a length-prefixed JSON message from the reader.
func Decode(r io.Reader) (*Envelope, error) {
	// Read 4-byte length header
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return nil, fmt.Errorf("read length: %w", err)
	}

	if length > MaxMessageSize {
		return nil, fmt.Errorf("message too large: %d bytes", length)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	return &env, nil
}

// DecodePayload unmarshals the payload from an envelope into the target struct.
func DecodePayload(env *Envelope, target interface{}) error {
	return json.Unmarshal(env.Payload, target)
}
