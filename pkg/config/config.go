// Package config loads service configuration from the environment.
// Every knob has a working default; credentials default to empty and the
// adapters that need them stay disabled until they are set.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// Postgres connection string. Empty runs the service without
	// persistence, which is only useful in local development.
	DatabaseURL string

	// Speech gateway credentials.
	DeepgramAPIKey   string
	ElevenLabsAPIKey string
	ElevenLabsVoice  string
	GeminiAPIKey     string
	GeminiModel      string

	// Batch synthesis fallback. Uses application default credentials;
	// empty voice leaves it off.
	GoogleTTSVoice string

	// SMS confirmations.
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFromNumber string

	// Voice activity detection.
	VADEnergyThreshold float64
	VADSilenceDuration time.Duration

	// Turn handling.
	MinSpeechDuration time.Duration
	GatewayTimeout    time.Duration
	IdleTimeout       time.Duration

	// HTTP server.
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() Config {
	return Config{
		Addr:        envOr("VOICECORE_ADDR", ":8080"),
		DatabaseURL: envOr("VOICECORE_DATABASE_URL", ""),

		DeepgramAPIKey:   envOr("DEEPGRAM_API_KEY", ""),
		ElevenLabsAPIKey: envOr("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoice:  envOr("ELEVENLABS_VOICE_ID", ""),
		GeminiAPIKey:     envOr("GEMINI_API_KEY", ""),
		GeminiModel:      envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		GoogleTTSVoice:   envOr("GOOGLE_TTS_VOICE", ""),

		TwilioAccountSID: envOr("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  envOr("TWILIO_AUTH_TOKEN", ""),
		TwilioFromNumber: envOr("TWILIO_FROM_NUMBER", ""),

		VADEnergyThreshold: envFloat64Or("VOICECORE_VAD_THRESHOLD", 0.02),
		VADSilenceDuration: envDurationOr("VOICECORE_VAD_SILENCE", 800*time.Millisecond),

		MinSpeechDuration: envDurationOr("VOICECORE_MIN_SPEECH", 300*time.Millisecond),
		GatewayTimeout:    envDurationOr("VOICECORE_GATEWAY_TIMEOUT", 8*time.Second),
		IdleTimeout:       envDurationOr("VOICECORE_IDLE_TIMEOUT", 90*time.Second),

		ReadHeaderTimeout:   envDurationOr("VOICECORE_READ_HEADER_TIMEOUT", 5*time.Second),
		ShutdownGracePeriod: envDurationOr("VOICECORE_SHUTDOWN_GRACE", 15*time.Second),
	}
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envFloat64Or(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}
