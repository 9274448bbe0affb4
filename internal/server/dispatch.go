package server

import (
	"fmt"
	"time"

	"github.com/hidatara-ds/Websocket-AI/internal/registry"
)

// respond computes the reply for one decoded message. It is a pure
// function of its inputs: connection state arrives through stats, the
// clock through now, and it performs no I/O and touches no registry.
func respond(env Envelope, stats registry.Stats, now time.Time) any {
	switch env.Kind {
	case KindPing:
		return pongResponse{
			Type:              "pong",
			Timestamp:         now.Unix(),
			OriginalTimestamp: env.Timestamp,
			ServerConnTime:    now.Sub(stats.ConnectedAt).Seconds(),
		}

	case KindTest:
		return testResponse{
			Type:       "test_response",
			Message:    "Test successful!",
			EchoData:   env.Data,
			ServerTime: now.Unix(),
			Stats: connectionStats{
				ID:               stats.ID,
				MessagesReceived: stats.MessageCount,
				Uptime:           now.Sub(stats.ConnectedAt).Seconds(),
			},
		}

	case KindHeartbeat:
		return heartbeatAck{
			Type:      "heartbeat_ack",
			Timestamp: now.Unix(),
			Uptime:    now.Sub(stats.ConnectedAt).Seconds(),
		}

	case KindAudioStream:
		// The payload is sized, never decoded.
		size := len(env.Data)
		return audioReceived{
			Type:      "audio_received",
			Message:   fmt.Sprintf("Audio chunk received (%d bytes)", size),
			Size:      size,
			Timestamp: now.Unix(),
		}

	default:
		return echoResponse{
			Type:         "echo",
			OriginalType: env.Type,
			Message:      "Echo: " + env.Type,
			Original:     env.Raw,
			Timestamp:    now.Unix(),
		}
	}
}
