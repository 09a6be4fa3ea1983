// Package call owns per-call sessions: the wire protocol for both channel
// kinds, the session registry, and the orchestrator that bridges inbound
// audio to the speech gateways and back.
package call

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// ChannelKind identifies the media transport for a call.
type ChannelKind string

const (
	ChannelTelephony ChannelKind = "telephony"
	ChannelWebRTC    ChannelKind = "webrtc"
)

// TelephonyFrame is the vendor's media-stream JSON framing. Inbound events
// are start, media, and stop; outbound frames mirror media and add mark
// completion markers.
type TelephonyFrame struct {
	Event     string          `json:"event"`
	StreamSID string          `json:"streamSid,omitempty"`
	Start     *TelephonyStart `json:"start,omitempty"`
	Media     *TelephonyMedia `json:"media,omitempty"`
	Mark      *TelephonyMark  `json:"mark,omitempty"`
}

// TelephonyStart carries the identifiers from the stream's start event.
type TelephonyStart struct {
	CallSID   string `json:"callSid"`
	StreamSID string `json:"streamSid"`
}

// TelephonyMedia carries one base64 μ-law payload.
type TelephonyMedia struct {
	Payload string `json:"payload"`
}

// TelephonyMark names a playout completion marker.
type TelephonyMark struct {
	Name string `json:"name"`
}

// WebRTCFrame is the browser signaling framing.
type WebRTCFrame struct {
	Type      string          `json:"type"` // start-call | signal | audio-data | end-call
	SessionID string          `json:"sessionId,omitempty"`
	Audio     string          `json:"audio,omitempty"` // base64 PCM16 little-endian
	Text      string          `json:"text,omitempty"`
	Signal    json.RawMessage `json:"signal,omitempty"`
}

// EventKind classifies a decoded inbound event.
type EventKind int

const (
	// EventStart opens a session for a call id.
	EventStart EventKind = iota
	// EventAudio carries one decoded audio frame.
	EventAudio
	// EventStop is the terminal signal for a call.
	EventStop
	// EventSignal carries opaque signaling passed through untouched.
	EventSignal
)

// Event is one decoded inbound frame, normalized across channel kinds.
// Audio is raw μ-law bytes for telephony and PCM16 bytes for WebRTC; the
// channel adapter converts before the event reaches the session buffer.
type Event struct {
	Kind   EventKind
	CallID string
	Audio  []byte
}

// DecodeTelephonyFrame parses one inbound telephony message.
func DecodeTelephonyFrame(data []byte) (Event, error) {
	var frame TelephonyFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Event{}, fmt.Errorf("telephony frame: %w", err)
	}

	switch frame.Event {
	case "start":
		id := frame.StreamSID
		if frame.Start != nil && frame.Start.StreamSID != "" {
			id = frame.Start.StreamSID
		}
		if strings.TrimSpace(id) == "" {
			return Event{}, fmt.Errorf("telephony start without streamSid")
		}
		return Event{Kind: EventStart, CallID: id}, nil
	case "media":
		if frame.Media == nil {
			return Event{}, fmt.Errorf("telephony media without payload")
		}
		payload, err := base64.StdEncoding.DecodeString(frame.Media.Payload)
		if err != nil {
			return Event{}, fmt.Errorf("telephony payload: %w", err)
		}
		return Event{Kind: EventAudio, CallID: frame.StreamSID, Audio: payload}, nil
	case "stop":
		return Event{Kind: EventStop, CallID: frame.StreamSID}, nil
	case "connected":
		// Transport-level hello preceding start; nothing to do yet.
		return Event{Kind: EventSignal}, nil
	case "mark":
		// Playout acknowledgement; nothing for the session to do.
		return Event{Kind: EventSignal, CallID: frame.StreamSID}, nil
	default:
		return Event{}, fmt.Errorf("telephony event %q unknown", frame.Event)
	}
}

// DecodeWebRTCFrame parses one inbound browser message.
func DecodeWebRTCFrame(data []byte) (Event, error) {
	var frame WebRTCFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		return Event{}, fmt.Errorf("webrtc frame: %w", err)
	}
	if strings.TrimSpace(frame.SessionID) == "" {
		return Event{}, fmt.Errorf("webrtc frame without sessionId")
	}

	switch frame.Type {
	case "start-call":
		return Event{Kind: EventStart, CallID: frame.SessionID}, nil
	case "audio-data":
		audio, err := base64.StdEncoding.DecodeString(frame.Audio)
		if err != nil {
			return Event{}, fmt.Errorf("webrtc audio: %w", err)
		}
		return Event{Kind: EventAudio, CallID: frame.SessionID, Audio: audio}, nil
	case "end-call":
		return Event{Kind: EventStop, CallID: frame.SessionID}, nil
	case "signal":
		return Event{Kind: EventSignal, CallID: frame.SessionID, Audio: frame.Signal}, nil
	default:
		return Event{}, fmt.Errorf("webrtc type %q unknown", frame.Type)
	}
}
