package call

import (
	"encoding/base64"
	"fmt"
	"sync"

	"github.com/dentalline/voicecore/pkg/audio"
)

// FrameWriter is the outbound side of a media websocket. *websocket.Conn
// satisfies it directly.
type FrameWriter interface {
	WriteJSON(v any) error
	Close() error
}

// Channel is the outbound half of a call's media transport. Implementations
// convert PCM16 to their wire format; callers hand over audio at whatever
// sample rate they produced and the channel resamples as needed.
type Channel interface {
	Kind() ChannelKind
	SendAudio(pcm []byte, sampleRate int) error
	SendText(text string) error
	EndUtterance() error
	Close() error
}

// TelephonyChannel writes media-stream frames: PCM16 is downsampled to the
// telephony rate, μ-law encoded, and base64 wrapped. A mark frame follows
// each finished utterance so the far end can report playout completion.
type TelephonyChannel struct {
	streamSID string

	mu    sync.Mutex
	w     FrameWriter
	marks int
}

// NewTelephonyChannel wraps w for the given stream id.
func NewTelephonyChannel(streamSID string, w FrameWriter) *TelephonyChannel {
	return &TelephonyChannel{streamSID: streamSID, w: w}
}

func (c *TelephonyChannel) Kind() ChannelKind { return ChannelTelephony }

func (c *TelephonyChannel) SendAudio(pcm []byte, sampleRate int) error {
	samples := audio.BytesToPCM(pcm)
	if sampleRate != audio.TelephonyRate {
		samples = audio.Resample(samples, sampleRate, audio.TelephonyRate)
	}
	payload := base64.StdEncoding.EncodeToString(audio.EncodeMuLaw(samples))

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.WriteJSON(TelephonyFrame{
		Event:     "media",
		StreamSID: c.streamSID,
		Media:     &TelephonyMedia{Payload: payload},
	})
}

// SendText is a no-op: the telephony leg carries audio only.
func (c *TelephonyChannel) SendText(string) error { return nil }

func (c *TelephonyChannel) EndUtterance() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marks++
	return c.w.WriteJSON(TelephonyFrame{
		Event:     "mark",
		StreamSID: c.streamSID,
		Mark:      &TelephonyMark{Name: fmt.Sprintf("utterance-%d", c.marks)},
	})
}

func (c *TelephonyChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Close()
}

// WebRTCChannel writes browser frames: PCM16 at the speech rate, base64
// wrapped, plus transcript text frames so the UI can render the exchange.
type WebRTCChannel struct {
	sessionID string

	mu sync.Mutex
	w  FrameWriter
}

// NewWebRTCChannel wraps w for the given session id.
func NewWebRTCChannel(sessionID string, w FrameWriter) *WebRTCChannel {
	return &WebRTCChannel{sessionID: sessionID, w: w}
}

func (c *WebRTCChannel) Kind() ChannelKind { return ChannelWebRTC }

func (c *WebRTCChannel) SendAudio(pcm []byte, sampleRate int) error {
	if sampleRate != audio.SpeechRate {
		samples := audio.Resample(audio.BytesToPCM(pcm), sampleRate, audio.SpeechRate)
		pcm = audio.PCMToBytes(samples)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.WriteJSON(WebRTCFrame{
		Type:      "audio-data",
		SessionID: c.sessionID,
		Audio:     base64.StdEncoding.EncodeToString(pcm),
	})
}

func (c *WebRTCChannel) SendText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.WriteJSON(WebRTCFrame{
		Type:      "transcript",
		SessionID: c.sessionID,
		Text:      text,
	})
}

func (c *WebRTCChannel) EndUtterance() error { return nil }

func (c *WebRTCChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.w.Close()
}
