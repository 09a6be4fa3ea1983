package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"github.com/joho/godotenv"
	"google.golang.org/genai"

	"github.com/dentalline/voicecore/pkg/booking"
	"github.com/dentalline/voicecore/pkg/call"
	"github.com/dentalline/voicecore/pkg/config"
	"github.com/dentalline/voicecore/pkg/notify"
	"github.com/dentalline/voicecore/pkg/server"
	"github.com/dentalline/voicecore/pkg/speech/dialog"
	"github.com/dentalline/voicecore/pkg/speech/stt"
	"github.com/dentalline/voicecore/pkg/speech/tts"
	"github.com/dentalline/voicecore/pkg/store"
	"github.com/dentalline/voicecore/pkg/vad"
)

func run(ctx context.Context, logger *slog.Logger) error {
	cfg := config.LoadFromEnv()

	st, err := buildStore(ctx, cfg, logger)
	if err != nil {
		return err
	}

	var sender notify.Sender
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sender, err = notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber)
		if err != nil {
			return fmt.Errorf("twilio sender: %w", err)
		}
	} else {
		logger.Warn("twilio credentials not set, SMS confirmations disabled")
		sender = notify.NopSender{}
	}

	deps := call.Deps{
		Store:    st,
		Booker:   booking.NewCoordinator(st, sender, logger),
		Registry: call.NewRegistry(),
		Logger:   logger,
	}

	if cfg.DeepgramAPIKey != "" {
		deps.Transcriber = stt.NewDeepgram(cfg.DeepgramAPIKey)
	} else {
		return errors.New("DEEPGRAM_API_KEY is required")
	}

	if cfg.GeminiAPIKey != "" {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.GeminiAPIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return fmt.Errorf("gemini client: %w", err)
		}
		deps.Dialog = dialog.NewGemini(client, cfg.GeminiModel)
	} else {
		logger.Warn("GEMINI_API_KEY not set, free-form turns use the fallback reply")
	}

	if cfg.ElevenLabsAPIKey != "" {
		deps.StreamingSynthesizer = tts.NewElevenLabs(cfg.ElevenLabsAPIKey, cfg.ElevenLabsVoice)
	}
	if cfg.GoogleTTSVoice != "" {
		client, err := texttospeech.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("google tts client: %w", err)
		}
		defer client.Close()
		deps.Synthesizer = tts.NewGoogleTTS(client, cfg.GoogleTTSVoice)
	}
	if deps.StreamingSynthesizer == nil && deps.Synthesizer == nil {
		return errors.New("no synthesizer configured, set ELEVENLABS_API_KEY or GOOGLE_TTS_VOICE")
	}

	orch := call.NewOrchestrator(call.Config{
		VAD: vad.Config{
			EnergyThreshold: cfg.VADEnergyThreshold,
			SilenceDuration: cfg.VADSilenceDuration,
		},
		MinSpeechMs:    int(cfg.MinSpeechDuration / time.Millisecond),
		GatewayTimeout: cfg.GatewayTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		SystemPrompt:   dialog.DefaultSystemPrompt,
	}, deps)

	srv := &server.Server{
		Orchestrator: orch,
		Registry:     deps.Registry,
		Logger:       logger,
	}
	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}

	logger.Info("starting voicecore", "addr", cfg.Addr)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	deps.Registry.HangupAll("server shutting down")
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !deps.Registry.Wait(waitCtx) {
		logger.Warn("some sessions did not drain before the grace period ended")
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("voicecore stopped")
	return nil
}

func buildStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Store, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("VOICECORE_DATABASE_URL not set, using in-memory store")
		return store.NewMemory(), nil
	}
	if err := store.Migrate(cfg.DatabaseURL); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pg, err := store.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return pg, nil
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "voicecore: load .env: %v\n", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := run(context.Background(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "voicecore: %v\n", err)
		os.Exit(1)
	}
}
