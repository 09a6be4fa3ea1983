package call

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/dentalline/voicecore/pkg/audio"
	"github.com/dentalline/voicecore/pkg/conversation"
	"github.com/dentalline/voicecore/pkg/vad"
)

const (
	// eventQueueSize bounds inbound frames waiting on the session loop.
	// 256 frames at 20ms is over five seconds of backlog.
	eventQueueSize = 256

	// maxUtteranceMs caps the utterance buffer at 30s of speech.
	maxUtteranceMs = 30_000

	// prerollMs of audio from just before speech onset is prepended to
	// each utterance so transcription does not start mid-word.
	prerollMs = 300
)

// Session is the per-call state. All fields except the atomics are owned
// by the orchestrator goroutine running the session loop; other goroutines
// interact only through Deliver, Hangup, and Done.
type Session struct {
	ID        string
	Kind      ChannelKind
	StartedAt time.Time

	channel  Channel
	conv     *conversation.State
	buf      *audio.Buffer
	preroll  *audio.RingBuffer
	det      *vad.Detector
	inSpeech bool

	processing atomic.Bool
	lastAudio  atomic.Int64
	turns      sync.WaitGroup

	events     chan Event
	hangup     chan string
	hangupOnce sync.Once
	done       chan struct{}
}

// NewSession builds a session for one call over the given channel.
func NewSession(id string, kind ChannelKind, ch Channel, vadCfg vad.Config) *Session {
	s := &Session{
		ID:        id,
		Kind:      kind,
		StartedAt: time.Now(),
		channel:   ch,
		conv:      conversation.NewState(),
		buf:       audio.NewBuffer(audio.DefaultConfig(), maxUtteranceMs),
		preroll:   audio.NewRingBuffer(audio.DefaultConfig(), prerollMs),
		det:       vad.New(vadCfg),
		events:    make(chan Event, eventQueueSize),
		hangup:    make(chan string, 1),
		done:      make(chan struct{}),
	}
	s.lastAudio.Store(time.Now().UnixNano())
	return s
}

// Deliver queues one inbound event for the session loop. Frames arriving
// faster than the loop drains them are dropped; the return value reports
// whether the event was accepted.
func (s *Session) Deliver(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	default:
		return false
	}
}

// Hangup asks the session loop to tear down. Safe to call any number of
// times from any goroutine; only the first reason is recorded.
func (s *Session) Hangup(reason string) {
	s.hangupOnce.Do(func() {
		s.hangup <- reason
	})
}

// Done is closed once teardown has completed.
func (s *Session) Done() <-chan struct{} { return s.done }

// Conversation exposes the dialog state for inspection after the call.
func (s *Session) Conversation() *conversation.State { return s.conv }

// ingest converts one wire frame to speech-rate PCM, runs voice activity
// detection, and accumulates the utterance. Frames outside speech go to
// the preroll ring instead; on speech onset its contents are prepended so
// the utterance includes the instant before the detector tripped.
func (s *Session) ingest(frame []byte) vad.Result {
	var pcm []int16
	switch s.Kind {
	case ChannelTelephony:
		pcm = audio.Resample(audio.DecodeMuLaw(frame), audio.TelephonyRate, audio.SpeechRate)
	default:
		pcm = audio.BytesToPCM(frame)
	}

	b := audio.PCMToBytes(pcm)
	s.lastAudio.Store(time.Now().UnixNano())

	res := s.det.Detect(b)
	if res.Speaking {
		if !s.inSpeech {
			s.inSpeech = true
			if pre := s.preroll.Read(); len(pre) > 0 {
				s.buf.Write(pre)
			}
			s.preroll.Clear()
		}
		s.buf.Write(b)
	} else {
		s.inSpeech = false
		s.preroll.Write(b)
	}
	return res
}

// idleFor reports how long ago the last inbound audio frame arrived.
func (s *Session) idleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastAudio.Load()))
}
