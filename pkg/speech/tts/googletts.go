package tts

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"

	"github.com/dentalline/voicecore/pkg/audio"
	"github.com/dentalline/voicecore/pkg/speech"
)

// GoogleTTS is a batch synthesizer backed by the Cloud Text-to-Speech API.
// It is used for short canned utterances (greeting, fallback, emergency)
// where streaming buys nothing.
type GoogleTTS struct {
	client     *texttospeech.Client
	voice      string
	language   string
	sampleRate int
	encoding   texttospeechpb.AudioEncoding
	timeout    time.Duration
}

// NewGoogleTTS wraps an initialized Cloud TTS client.
func NewGoogleTTS(client *texttospeech.Client, voice string) *GoogleTTS {
	language := "en-US"
	if parts := strings.SplitN(voice, "-", 3); len(parts) >= 2 {
		language = parts[0] + "-" + parts[1]
	}
	return &GoogleTTS{
		client:     client,
		voice:      voice,
		language:   language,
		sampleRate: 16000,
		encoding:   texttospeechpb.AudioEncoding_LINEAR16,
		timeout:    10 * time.Second,
	}
}

// WithMP3 requests MP3 output, decoded to PCM via go-mp3.
func (g *GoogleTTS) WithMP3() *GoogleTTS {
	g.encoding = texttospeechpb.AudioEncoding_MP3
	return g
}

// WithSampleRate sets the requested output rate.
func (g *GoogleTTS) WithSampleRate(rate int) *GoogleTTS {
	if rate > 0 {
		g.sampleRate = rate
	}
	return g
}

// Synthesize converts text to PCM16 audio, returning the sample rate.
func (g *GoogleTTS) Synthesize(ctx context.Context, text string) ([]byte, int, error) {
	if g.client == nil {
		return nil, 0, fmt.Errorf("google tts client is not initialized")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, g.sampleRate, nil
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.SynthesizeSpeech(ctx, &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: g.language,
			Name:         g.voice,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding:   g.encoding,
			SampleRateHertz: int32(g.sampleRate),
		},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("google tts synthesize: %w", err)
	}
	if len(resp.AudioContent) == 0 {
		return nil, 0, speech.ErrNoResponse
	}

	if g.encoding == texttospeechpb.AudioEncoding_MP3 {
		pcm, rate, err := audio.DecodeMP3(bytes.NewReader(resp.AudioContent))
		if err != nil {
			return nil, 0, err
		}
		return audio.PCMToBytes(pcm), rate, nil
	}

	// LINEAR16 responses carry a WAV header.
	return stripWAVHeader(resp.AudioContent), g.sampleRate, nil
}

// stripWAVHeader returns the PCM payload of a RIFF/WAVE blob, or the input
// unchanged when no container is present.
func stripWAVHeader(data []byte) []byte {
	if len(data) < 12 || !bytes.HasPrefix(data, []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return data
	}
	// Walk the chunk list looking for "data".
	pos := 12
	for pos+8 <= len(data) {
		id := data[pos : pos+4]
		size := int(binary.LittleEndian.Uint32(data[pos+4 : pos+8]))
		body := pos + 8
		if bytes.Equal(id, []byte("data")) {
			end := body + size
			if end > len(data) {
				end = len(data)
			}
			return data[body:end]
		}
		pos = body + size
	}
	return data
}

var _ speech.Synthesizer = (*GoogleTTS)(nil)
