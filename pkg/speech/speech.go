// Package speech defines the gateway boundary to the external speech
// services: transcription, dialog, and synthesis. All implementations are
// fallible network calls; callers treat timeout or error as "no good
// response" and degrade to a fallback utterance.
package speech

import (
	"context"
	"errors"
)

// ErrNoResponse is returned when a gateway produced nothing usable within
// its deadline. Callers speak a fallback phrase instead of failing the call.
var ErrNoResponse = errors.New("speech: no usable response")

// Transcriber converts a complete audio segment to text.
type Transcriber interface {
	// Transcribe converts PCM16 audio at the given sample rate to text.
	Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error)
}

// DialogTurn is one prior exchange handed to the dialog agent.
type DialogTurn struct {
	Role string // "user" or "assistant"
	Text string
}

// DialogAgent produces the assistant's next utterance from conversation
// context.
type DialogAgent interface {
	Reply(ctx context.Context, system string, history []DialogTurn) (string, error)
}

// Synthesizer converts text to a complete audio clip.
type Synthesizer interface {
	// Synthesize returns PCM16 audio and its sample rate.
	Synthesize(ctx context.Context, text string) ([]byte, int, error)
}

// StreamingSynthesizer opens an incremental synthesis session: text is sent
// in chunks as it is generated and audio streams back before the full reply
// exists.
type StreamingSynthesizer interface {
	NewStream(ctx context.Context) (SynthesisStream, error)
}

// SynthesisStream is one incremental synthesis session.
type SynthesisStream interface {
	// SendText queues a text chunk; isFinal signals the last chunk.
	SendText(text string, isFinal bool) error
	// Audio emits PCM16 chunks; closed when synthesis completes.
	Audio() <-chan []byte
	// SampleRate of the emitted audio.
	SampleRate() int
	// Err reports the stream's terminal error, if any.
	Err() error
	// Close tears the session down.
	Close() error
}
