package call

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestDecodeTelephonyStart(t *testing.T) {
	raw := []byte(`{"event":"start","start":{"callSid":"CA123","streamSid":"MZ456"}}`)
	ev, err := DecodeTelephonyFrame(raw)
	if err != nil {
		t.Fatalf("decode start: %v", err)
	}
	if ev.Kind != EventStart {
		t.Fatalf("kind = %v, want EventStart", ev.Kind)
	}
	if ev.CallID != "MZ456" {
		t.Fatalf("call id = %q, want MZ456", ev.CallID)
	}
}

func TestDecodeTelephonyMedia(t *testing.T) {
	payload := []byte{0xff, 0x7f, 0x00, 0x80}
	raw := []byte(`{"event":"media","streamSid":"MZ456","media":{"payload":"` +
		base64.StdEncoding.EncodeToString(payload) + `"}}`)

	ev, err := DecodeTelephonyFrame(raw)
	if err != nil {
		t.Fatalf("decode media: %v", err)
	}
	if ev.Kind != EventAudio {
		t.Fatalf("kind = %v, want EventAudio", ev.Kind)
	}
	if !bytes.Equal(ev.Audio, payload) {
		t.Fatalf("audio = %x, want %x", ev.Audio, payload)
	}
}

func TestDecodeTelephonyStop(t *testing.T) {
	ev, err := DecodeTelephonyFrame([]byte(`{"event":"stop","streamSid":"MZ456"}`))
	if err != nil {
		t.Fatalf("decode stop: %v", err)
	}
	if ev.Kind != EventStop {
		t.Fatalf("kind = %v, want EventStop", ev.Kind)
	}
}

func TestDecodeTelephonyRejectsUnknownEvent(t *testing.T) {
	if _, err := DecodeTelephonyFrame([]byte(`{"event":"dtmf"}`)); err == nil {
		t.Fatal("expected error for unknown event")
	}
	if _, err := DecodeTelephonyFrame([]byte(`{"event":"start"}`)); err == nil {
		t.Fatal("expected error for start without streamSid")
	}
	if _, err := DecodeTelephonyFrame([]byte(`not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestDecodeWebRTCFrames(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}

	tests := []struct {
		name string
		raw  string
		kind EventKind
	}{
		{"start", `{"type":"start-call","sessionId":"web-1"}`, EventStart},
		{"audio", `{"type":"audio-data","sessionId":"web-1","audio":"` +
			base64.StdEncoding.EncodeToString(pcm) + `"}`, EventAudio},
		{"end", `{"type":"end-call","sessionId":"web-1"}`, EventStop},
		{"signal", `{"type":"signal","sessionId":"web-1","signal":{"sdp":"x"}}`, EventSignal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := DecodeWebRTCFrame([]byte(tt.raw))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if ev.Kind != tt.kind {
				t.Fatalf("kind = %v, want %v", ev.Kind, tt.kind)
			}
			if ev.CallID != "web-1" {
				t.Fatalf("call id = %q, want web-1", ev.CallID)
			}
			if tt.kind == EventAudio && !bytes.Equal(ev.Audio, pcm) {
				t.Fatalf("audio = %x, want %x", ev.Audio, pcm)
			}
		})
	}
}

func TestDecodeWebRTCRequiresSessionID(t *testing.T) {
	if _, err := DecodeWebRTCFrame([]byte(`{"type":"start-call"}`)); err == nil {
		t.Fatal("expected error for missing sessionId")
	}
}
