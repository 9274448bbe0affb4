package server

import (
	"encoding/json"
	"errors"
)

// Kind classifies an inbound message by its type tag. Unrecognized tags
// fall through to KindUnknown and are answered with an echo.
type Kind int

const (
	KindUnknown Kind = iota
	KindPing
	KindTest
	KindHeartbeat
	KindAudioStream
)

// unknownType is the tag assigned to messages without a usable type field.
const unknownType = "unknown"

var errNotAnObject = errors.New("expected a JSON object")

// Envelope is one decoded inbound message. Decoding happens exactly once,
// at the transport boundary; everything downstream works with the typed
// envelope instead of re-parsing raw bytes.
type Envelope struct {
	Kind      Kind
	Type      string         // raw type tag, "unknown" when absent
	Timestamp any            // echoed verbatim into pong replies
	Data      string         // data field when present and a string
	Raw       map[string]any // full decoded object, embedded into echo replies
}

// decodeEnvelope parses raw bytes into an Envelope. Anything that is not
// a JSON object is a decode error; the connection answers with a
// structured error message and stays open.
func decodeEnvelope(raw []byte) (Envelope, error) {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Envelope{}, err
	}
	if obj == nil {
		return Envelope{}, errNotAnObject
	}

	env := Envelope{
		Kind: KindUnknown,
		Type: unknownType,
		Raw:  obj,
	}
	if t, ok := obj["type"].(string); ok && t != "" {
		env.Type = t
	}
	env.Timestamp = obj["timestamp"]
	if d, ok := obj["data"].(string); ok {
		env.Data = d
	}

	switch env.Type {
	case "ping":
		env.Kind = KindPing
	case "test":
		env.Kind = KindTest
	case "heartbeat":
		env.Kind = KindHeartbeat
	case "audio_stream":
		env.Kind = KindAudioStream
	}
	return env, nil
}

// Outbound message shapes. Every message the server emits carries a type
// tag as its first field.

type welcomeMessage struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	ConnectionID string `json:"connection_id"`
	ServerTime   int64  `json:"server_time"`
}

type pongResponse struct {
	Type              string  `json:"type"`
	Timestamp         int64   `json:"timestamp"`
	OriginalTimestamp any     `json:"original_timestamp"`
	ServerConnTime    float64 `json:"server_connection_time"`
}

type connectionStats struct {
	ID               string  `json:"id"`
	MessagesReceived int64   `json:"messages_received"`
	Uptime           float64 `json:"uptime"`
}

type testResponse struct {
	Type       string          `json:"type"`
	Message    string          `json:"message"`
	EchoData   string          `json:"echo_data"`
	ServerTime int64           `json:"server_time"`
	Stats      connectionStats `json:"connection_stats"`
}

type heartbeatAck struct {
	Type      string  `json:"type"`
	Timestamp int64   `json:"timestamp"`
	Uptime    float64 `json:"connection_uptime"`
}

type audioReceived struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Size      int    `json:"size"`
	Timestamp int64  `json:"timestamp"`
}

type echoResponse struct {
	Type         string         `json:"type"`
	OriginalType string         `json:"original_type"`
	Message      string         `json:"message"`
	Original     map[string]any `json:"original_message"`
	Timestamp    int64          `json:"timestamp"`
}

type errorResponse struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
