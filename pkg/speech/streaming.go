package speech

import (
	"fmt"
	"strings"
	"sync"
)

// StreamingSpeech turns streamed dialog text deltas into a streaming audio
// feed using SentenceBuffer chunking, so synthesis starts before the full
// reply is generated.
type StreamingSpeech struct {
	stream SynthesisStream
	buf    *SentenceBuffer

	audioCh  chan []byte
	doneCh   chan struct{}
	quitCh   chan struct{}
	quitOnce sync.Once

	errMu sync.Mutex
	err   error
}

// NewStreamingSpeech wraps an open synthesis stream.
func NewStreamingSpeech(stream SynthesisStream) *StreamingSpeech {
	s := &StreamingSpeech{
		stream:  stream,
		buf:     NewSentenceBuffer(),
		audioCh: make(chan []byte, 100),
		doneCh:  make(chan struct{}),
		quitCh:  make(chan struct{}),
	}
	go s.forwardAudio()
	return s
}

func (s *StreamingSpeech) forwardAudio() {
	defer close(s.audioCh)
	defer close(s.doneCh)

	if s.stream == nil {
		s.setErr(fmt.Errorf("synthesis stream is nil"))
		return
	}

	// Once Close fires, the consumer is gone; keep draining the provider
	// so it can shut down, but stop forwarding.
	drop := false
	for chunk := range s.stream.Audio() {
		if drop || len(chunk) == 0 {
			continue
		}
		select {
		case s.audioCh <- chunk:
		case <-s.quitCh:
			drop = true
		}
	}
	if err := s.stream.Err(); err != nil {
		s.setErr(err)
	}
}

// OnTextDelta consumes incremental dialog text and sends completed sentences
// to the synthesis stream.
func (s *StreamingSpeech) OnTextDelta(text string) error {
	if s == nil || s.stream == nil {
		return fmt.Errorf("streaming speech is not initialized")
	}
	if err := s.Err(); err != nil {
		return err
	}
	for _, sentence := range s.buf.Add(text) {
		if err := s.stream.SendText(sentence, false); err != nil {
			s.setErr(err)
			_ = s.stream.Close()
			return err
		}
	}
	return nil
}

// Flush sends any remaining buffered text and signals completion.
func (s *StreamingSpeech) Flush() error {
	if s == nil || s.stream == nil {
		return fmt.Errorf("streaming speech is not initialized")
	}
	if err := s.Err(); err != nil {
		return err
	}

	remaining := strings.TrimSpace(s.buf.Flush())
	if err := s.stream.SendText(remaining, true); err != nil {
		s.setErr(err)
		return err
	}
	return nil
}

// Audio returns the forwarded audio channel; closed when synthesis ends.
func (s *StreamingSpeech) Audio() <-chan []byte {
	if s == nil {
		ch := make(chan []byte)
		close(ch)
		return ch
	}
	return s.audioCh
}

// SampleRate reports the underlying stream's output rate.
func (s *StreamingSpeech) SampleRate() int {
	if s == nil || s.stream == nil {
		return 0
	}
	return s.stream.SampleRate()
}

// Close closes the underlying stream and waits for forwarding to finish.
// It returns even when the caller stopped draining Audio mid-reply;
// undelivered chunks are dropped.
func (s *StreamingSpeech) Close() error {
	if s == nil || s.stream == nil {
		return nil
	}
	s.quitOnce.Do(func() { close(s.quitCh) })
	_ = s.stream.Close()
	<-s.doneCh
	return s.Err()
}

// Err returns the first error observed.
func (s *StreamingSpeech) Err() error {
	if s == nil {
		return nil
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *StreamingSpeech) setErr(err error) {
	if err == nil {
		return
	}
	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}
