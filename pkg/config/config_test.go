package config

import (
	"testing"
	"time"
)

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg := LoadFromEnv()

	if cfg.Addr != ":8080" {
		t.Fatalf("Addr = %q, want :8080", cfg.Addr)
	}
	if cfg.VADEnergyThreshold != 0.02 {
		t.Fatalf("VADEnergyThreshold = %v, want 0.02", cfg.VADEnergyThreshold)
	}
	if cfg.VADSilenceDuration != 800*time.Millisecond {
		t.Fatalf("VADSilenceDuration = %v, want 800ms", cfg.VADSilenceDuration)
	}
	if cfg.GatewayTimeout != 8*time.Second {
		t.Fatalf("GatewayTimeout = %v, want 8s", cfg.GatewayTimeout)
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	t.Setenv("VOICECORE_ADDR", ":9090")
	t.Setenv("VOICECORE_VAD_THRESHOLD", "0.05")
	t.Setenv("VOICECORE_VAD_SILENCE", "1s")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-pro")

	cfg := LoadFromEnv()
	if cfg.Addr != ":9090" {
		t.Fatalf("Addr = %q, want :9090", cfg.Addr)
	}
	if cfg.VADEnergyThreshold != 0.05 {
		t.Fatalf("VADEnergyThreshold = %v, want 0.05", cfg.VADEnergyThreshold)
	}
	if cfg.VADSilenceDuration != time.Second {
		t.Fatalf("VADSilenceDuration = %v, want 1s", cfg.VADSilenceDuration)
	}
	if cfg.GeminiModel != "gemini-2.5-pro" {
		t.Fatalf("GeminiModel = %q", cfg.GeminiModel)
	}
}

func TestLoadFromEnvIgnoresMalformedValues(t *testing.T) {
	t.Setenv("VOICECORE_VAD_THRESHOLD", "loud")
	t.Setenv("VOICECORE_GATEWAY_TIMEOUT", "soon")

	cfg := LoadFromEnv()
	if cfg.VADEnergyThreshold != 0.02 {
		t.Fatalf("VADEnergyThreshold = %v, want default", cfg.VADEnergyThreshold)
	}
	if cfg.GatewayTimeout != 8*time.Second {
		t.Fatalf("GatewayTimeout = %v, want default", cfg.GatewayTimeout)
	}
}
