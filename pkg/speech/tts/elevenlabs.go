// Package tts provides text-to-speech gateway implementations.
package tts

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dentalline/voicecore/pkg/speech"
)

const elevenLabsDefaultWSBase = "wss://api.elevenlabs.io/v1/text-to-speech/{voice_id}/stream-input"

// ElevenLabs streams incremental text into the stream-input websocket API and
// receives PCM16 audio chunks back as they are generated.
type ElevenLabs struct {
	apiKey     string
	voiceID    string
	wsBaseURL  string
	sampleRate int
	dialer     *websocket.Dialer
}

// NewElevenLabs creates a streaming synthesizer for the given voice.
func NewElevenLabs(apiKey, voiceID string) *ElevenLabs {
	return &ElevenLabs{
		apiKey:     strings.TrimSpace(apiKey),
		voiceID:    strings.TrimSpace(voiceID),
		wsBaseURL:  elevenLabsDefaultWSBase,
		sampleRate: 16000,
		dialer:     websocket.DefaultDialer,
	}
}

// WithWSBaseURL overrides the websocket endpoint, used by tests.
func (e *ElevenLabs) WithWSBaseURL(base string) *ElevenLabs {
	base = strings.TrimSpace(base)
	if base != "" {
		e.wsBaseURL = base
	}
	return e
}

// WithSampleRate selects the PCM output rate requested from the API.
func (e *ElevenLabs) WithSampleRate(rate int) *ElevenLabs {
	if rate > 0 {
		e.sampleRate = rate
	}
	return e
}

type elevenLabsStream struct {
	conn       *websocket.Conn
	sampleRate int

	audio chan []byte
	done  chan struct{}

	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// NewStream opens one incremental synthesis session.
func (e *ElevenLabs) NewStream(ctx context.Context) (speech.SynthesisStream, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("elevenlabs api key is required")
	}
	if e.voiceID == "" {
		return nil, fmt.Errorf("elevenlabs voice id is required")
	}
	wsURL, err := buildElevenLabsWSURL(e.wsBaseURL, e.voiceID, e.sampleRate)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	header.Set("xi-api-key", e.apiKey)
	conn, _, err := e.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs dial: %w", err)
	}

	s := &elevenLabsStream{
		conn:       conn,
		sampleRate: e.sampleRate,
		audio:      make(chan []byte, 100),
		done:       make(chan struct{}),
	}

	// Initial frame primes the voice context.
	if err := conn.WriteJSON(map[string]any{
		"text":     " ",
		"voice_id": e.voiceID,
	}); err != nil {
		_ = s.Close()
		return nil, err
	}

	go s.readLoop(ctx)
	return s, nil
}

func (s *elevenLabsStream) readLoop(ctx context.Context) {
	defer close(s.audio)
	for {
		select {
		case <-ctx.Done():
			s.setErr(ctx.Err())
			return
		case <-s.done:
			return
		default:
		}

		_, data, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
				// Expected read failure after Close.
			default:
				s.setErr(err)
			}
			return
		}
		var msg map[string]json.RawMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if audioB64 := decodeStringRaw(msg["audio"]); audioB64 != "" {
			audio, err := base64.StdEncoding.DecodeString(audioB64)
			if err == nil && len(audio) > 0 {
				select {
				case s.audio <- audio:
				case <-s.done:
					return
				}
			}
		}
		if decodeBoolRaw(msg["isFinal"]) || decodeBoolRaw(msg["is_final"]) {
			return
		}
	}
}

func (s *elevenLabsStream) SendText(text string, isFinal bool) error {
	payload := map[string]any{}
	trimmed := strings.TrimSpace(text)
	if trimmed != "" {
		trimmed += " "
	}
	payload["text"] = trimmed
	if isFinal {
		payload["flush"] = true
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return s.conn.WriteJSON(payload)
}

func (s *elevenLabsStream) Audio() <-chan []byte { return s.audio }

func (s *elevenLabsStream) SampleRate() int { return s.sampleRate }

func (s *elevenLabsStream) Err() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *elevenLabsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}

func (s *elevenLabsStream) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

func buildElevenLabsWSURL(base, voiceID string, sampleRate int) (string, error) {
	if strings.TrimSpace(base) == "" {
		base = elevenLabsDefaultWSBase
	}
	base = strings.ReplaceAll(base, "{voice_id}", url.PathEscape(voiceID))
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid elevenlabs ws url: %w", err)
	}
	if u.Scheme == "" {
		u.Scheme = "wss"
	}
	q := u.Query()
	if q.Get("model_id") == "" {
		q.Set("model_id", "eleven_flash_v2_5")
	}
	if q.Get("output_format") == "" {
		q.Set("output_format", "pcm_"+strconv.Itoa(sampleRate))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func decodeStringRaw(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var out string
	if err := json.Unmarshal(raw, &out); err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}

func decodeBoolRaw(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var out bool
	if err := json.Unmarshal(raw, &out); err != nil {
		return false
	}
	return out
}

var _ speech.StreamingSynthesizer = (*ElevenLabs)(nil)
