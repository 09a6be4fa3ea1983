package call

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dentalline/voicecore/pkg/audio"
	"github.com/dentalline/voicecore/pkg/booking"
	"github.com/dentalline/voicecore/pkg/conversation"
	"github.com/dentalline/voicecore/pkg/speech"
	"github.com/dentalline/voicecore/pkg/store"
	"github.com/dentalline/voicecore/pkg/vad"
)

// Config tunes the per-call loop.
type Config struct {
	VAD vad.Config
	// MinSpeechMs drops segments shorter than this before transcription.
	MinSpeechMs int
	// ChunkMs is the playback pacing interval.
	ChunkMs int
	// GatewayTimeout bounds each speech service call.
	GatewayTimeout time.Duration
	// IdleTimeout hangs up a call with no inbound audio.
	IdleTimeout time.Duration
	// SystemPrompt overrides the dialog agent persona when set.
	SystemPrompt string
}

// DefaultConfig returns the production tuning.
func DefaultConfig() Config {
	return Config{
		VAD:            vad.DefaultConfig(),
		MinSpeechMs:    300,
		ChunkMs:        20,
		GatewayTimeout: 8 * time.Second,
		IdleTimeout:    90 * time.Second,
	}
}

// Deps are the collaborators an orchestrator drives. StreamingSynthesizer
// is optional; when nil, replies are synthesized in one batch call.
type Deps struct {
	Transcriber          speech.Transcriber
	Dialog               speech.DialogAgent
	Synthesizer          speech.Synthesizer
	StreamingSynthesizer speech.StreamingSynthesizer
	Store                store.Store
	Booker               *booking.Coordinator
	Registry             *Registry
	Logger               *slog.Logger
}

// Orchestrator runs the session loop for each call: inbound frames feed
// the voice activity detector, completed utterances go through the speech
// gateways, and replies stream back over the call's channel.
type Orchestrator struct {
	cfg  Config
	deps Deps
	pace *pacer
}

func NewOrchestrator(cfg Config, deps Deps) *Orchestrator {
	if cfg.MinSpeechMs <= 0 {
		cfg.MinSpeechMs = 300
	}
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 8 * time.Second
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 90 * time.Second
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Registry == nil {
		deps.Registry = NewRegistry()
	}
	return &Orchestrator{cfg: cfg, deps: deps, pace: newPacer(cfg.ChunkMs)}
}

// StartSession builds and registers a session for one call.
func (o *Orchestrator) StartSession(ctx context.Context, id string, kind ChannelKind, ch Channel) *Session {
	s := NewSession(id, kind, ch, o.cfg.VAD)
	if err := o.deps.Store.CreateCall(ctx, store.Call{
		ID:        id,
		Channel:   string(kind),
		StartedAt: s.StartedAt,
		Status:    store.CallStatusActive,
	}); err != nil {
		o.deps.Logger.Error("create call record", "call_id", id, "error", err)
	}
	return s
}

// Run drives the session loop until the caller hangs up, the context is
// canceled, or the idle timeout fires. It always tears the session down
// exactly once before returning.
func (o *Orchestrator) Run(ctx context.Context, s *Session) {
	unregister := o.deps.Registry.Register(s)

	ctx, cancel := context.WithCancel(ctx)
	status := store.CallStatusIncomplete
	reason := "context canceled"

	defer func() {
		cancel()
		// Let an in-flight turn observe the cancellation and finish
		// before the transcript snapshot.
		s.turns.Wait()
		o.teardown(s, reason, status)
		unregister()
		close(s.done)
	}()

	o.deps.Logger.Info("call started", "call_id", s.ID, "channel", s.Kind)
	o.speak(ctx, s, conversation.GreetingReply)

	idle := time.NewTicker(5 * time.Second)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case r := <-s.hangup:
			reason, status = r, store.CallStatusCompleted
			return
		case <-idle.C:
			if s.idleFor(time.Now()) > o.cfg.IdleTimeout {
				reason, status = "idle timeout", store.CallStatusIncomplete
				return
			}
		case ev := <-s.events:
			switch ev.Kind {
			case EventAudio:
				o.handleAudio(ctx, s, ev.Audio)
			case EventStop:
				reason, status = "caller hung up", store.CallStatusCompleted
				return
			}
		}
	}
}

func (o *Orchestrator) handleAudio(ctx context.Context, s *Session, frame []byte) {
	res := s.ingest(frame)
	if !res.EndOfSpeech {
		return
	}
	if s.buf.DurationMs() < o.cfg.MinSpeechMs {
		// Too short to be an utterance; likely a cough or line noise.
		s.buf.Clear()
		return
	}
	if !s.processing.CompareAndSwap(false, true) {
		// A turn is already in flight; keep buffering.
		return
	}
	s.turns.Add(1)
	go func() {
		defer s.turns.Done()
		defer s.processing.Store(false)
		o.processTurn(ctx, s)
	}()
}

// processTurn runs one caller utterance through transcription, routing,
// and reply playback.
func (o *Orchestrator) processTurn(ctx context.Context, s *Session) {
	pcm := s.buf.Drain()
	if len(pcm) == 0 {
		return
	}

	tctx, cancel := context.WithTimeout(ctx, o.cfg.GatewayTimeout)
	text, err := o.deps.Transcriber.Transcribe(tctx, pcm, audio.SpeechRate)
	cancel()
	if err != nil {
		o.deps.Logger.Warn("transcription failed", "call_id", s.ID, "error", err)
		o.speak(ctx, s, conversation.FallbackReply)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	intent := s.conv.Observe(text)
	o.deps.Logger.Info("caller turn",
		"call_id", s.ID, "intent", intent.String(), "stage", s.conv.Stage().String())

	reply := o.replyFor(ctx, s, intent)
	if reply != "" {
		o.speak(ctx, s, reply)
	}
	if s.conv.Stage() == conversation.StageEmergency {
		// Emergency guidance ends the automated call.
		s.Hangup("emergency routing")
	}
}

// replyFor picks the assistant's next utterance. Emergencies and handoffs
// never reach the dialog model; booking flows are deterministic while any
// required field is missing or a draft is pending.
func (o *Orchestrator) replyFor(ctx context.Context, s *Session, intent conversation.Intent) string {
	switch intent {
	case conversation.IntentEmergency:
		return conversation.EmergencyReply
	case conversation.IntentHumanHandoff:
		return conversation.HandoffReply
	}

	if draft := s.conv.Draft(); draft != nil && !draft.Confirmed && s.conv.Info().BookingComplete() {
		return o.bookDraft(ctx, s, draft)
	}

	if s.conv.Stage() == conversation.StageBooking {
		if prompt := conversation.PromptForMissing(s.conv.Info()); prompt != "" {
			return prompt
		}
	}

	if s.conv.Stage() == conversation.StageClosing {
		return conversation.ClosingReply
	}

	return o.dialogReply(ctx, s)
}

func (o *Orchestrator) bookDraft(ctx context.Context, s *Session, draft *conversation.AppointmentDraft) string {
	bctx, cancel := context.WithTimeout(ctx, o.cfg.GatewayTimeout)
	defer cancel()

	res, err := o.deps.Booker.Book(bctx, s.ID, draft)
	if err != nil {
		o.deps.Logger.Error("booking failed", "call_id", s.ID, "error", err)
		return conversation.BookingTroubleReply
	}
	if !res.Booked {
		return conversation.AlternateSlotsReply(res.AlternateStrings())
	}

	s.conv.ConfirmDraft(res.AppointmentID)
	return conversation.BookingConfirmedReply(draft.PatientName, draft.Day, draft.TimeOfDay)
}

func (o *Orchestrator) dialogReply(ctx context.Context, s *Session) string {
	if o.deps.Dialog == nil {
		return conversation.FallbackReply
	}

	var history []speech.DialogTurn
	for _, turn := range s.conv.Transcript() {
		role := "user"
		if turn.Role == conversation.RoleAssistant {
			role = "assistant"
		}
		history = append(history, speech.DialogTurn{Role: role, Text: turn.Text})
	}

	dctx, cancel := context.WithTimeout(ctx, o.cfg.GatewayTimeout)
	defer cancel()

	reply, err := o.deps.Dialog.Reply(dctx, o.cfg.SystemPrompt, history)
	if err != nil || strings.TrimSpace(reply) == "" {
		o.deps.Logger.Warn("dialog agent unavailable", "call_id", s.ID, "error", err)
		return conversation.FallbackReply
	}
	return reply
}

// speak synthesizes text and plays it over the session's channel at
// real-time pace, preferring the streaming synthesizer when configured.
func (o *Orchestrator) speak(ctx context.Context, s *Session, text string) {
	s.conv.Append(conversation.RoleAssistant, text)
	if err := s.channel.SendText(text); err != nil {
		o.deps.Logger.Warn("send transcript text", "call_id", s.ID, "error", err)
	}

	if o.deps.StreamingSynthesizer != nil {
		err := o.speakStreaming(ctx, s, text)
		if err == nil {
			return
		}
		o.deps.Logger.Warn("streaming synthesis failed, falling back to batch",
			"call_id", s.ID, "error", err)
	}
	o.speakBatch(ctx, s, text)
}

func (o *Orchestrator) speakStreaming(ctx context.Context, s *Session, text string) error {
	stream, err := o.deps.StreamingSynthesizer.NewStream(ctx)
	if err != nil {
		return err
	}
	ss := speech.NewStreamingSpeech(stream)
	defer ss.Close()

	if err := ss.OnTextDelta(text); err != nil {
		return err
	}
	if err := ss.Flush(); err != nil {
		return err
	}

	err = o.pace.PlayStream(ctx, ss.Audio(), ss.SampleRate(), func(chunk []byte) error {
		return s.channel.SendAudio(chunk, ss.SampleRate())
	})
	if err != nil {
		return err
	}
	if err := ss.Err(); err != nil {
		return err
	}
	return s.channel.EndUtterance()
}

func (o *Orchestrator) speakBatch(ctx context.Context, s *Session, text string) {
	if o.deps.Synthesizer == nil {
		return
	}

	tctx, cancel := context.WithTimeout(ctx, o.cfg.GatewayTimeout)
	pcm, rate, err := o.deps.Synthesizer.Synthesize(tctx, text)
	cancel()
	if err != nil {
		o.deps.Logger.Warn("synthesis failed", "call_id", s.ID, "error", err)
		return
	}

	err = o.pace.Play(ctx, pcm, rate, func(chunk []byte) error {
		return s.channel.SendAudio(chunk, rate)
	})
	if err != nil {
		o.deps.Logger.Warn("playback interrupted", "call_id", s.ID, "error", err)
		return
	}
	if err := s.channel.EndUtterance(); err != nil {
		o.deps.Logger.Warn("end utterance", "call_id", s.ID, "error", err)
	}
}

// teardown persists the final call record. Run guarantees it is invoked
// exactly once per session.
func (o *Orchestrator) teardown(s *Session, reason, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	endedAt := time.Now()
	duration := int(endedAt.Sub(s.StartedAt).Seconds())

	if turns := s.conv.Transcript(); len(turns) > 0 {
		if err := o.deps.Store.AppendTranscript(ctx, s.ID, turns); err != nil {
			o.deps.Logger.Error("persist transcript", "call_id", s.ID, "error", err)
		}
	}
	if err := o.deps.Store.FinishCall(ctx, s.ID, endedAt, duration, s.conv.Summary(), status); err != nil {
		o.deps.Logger.Error("finish call record", "call_id", s.ID, "error", err)
	}
	if err := s.channel.Close(); err != nil {
		o.deps.Logger.Debug("close channel", "call_id", s.ID, "error", err)
	}

	o.deps.Logger.Info("call ended",
		"call_id", s.ID, "reason", reason, "status", status, "duration_s", duration)
}
