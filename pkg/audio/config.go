// Package audio provides the PCM/μ-law codec, resampling, energy math, and
// bounded buffering used by the call pipeline.
package audio

// Telephony and speech-service sample rates used across the pipeline.
const (
	TelephonyRate = 8000
	SpeechRate    = 16000
	WidebandRate  = 48000
)

// Config specifies audio format parameters.
type Config struct {
	// SampleRate in Hz. Common values: 8000, 16000, 24000, 48000.
	SampleRate int `json:"sample_rate"`

	// Channels: 1 for mono, 2 for stereo.
	Channels int `json:"channels"`

	// BitsPerSample: typically 16 for PCM.
	BitsPerSample int `json:"bits_per_sample"`
}

// DefaultConfig returns the pipeline's internal audio configuration
// (16 kHz mono PCM16, the speech-service rate).
func DefaultConfig() Config {
	return Config{
		SampleRate:    SpeechRate,
		Channels:      1,
		BitsPerSample: 16,
	}
}

// TelephonyConfig returns the carrier-leg audio configuration
// (8 kHz mono, μ-law on the wire, PCM16 once decoded).
func TelephonyConfig() Config {
	return Config{
		SampleRate:    TelephonyRate,
		Channels:      1,
		BitsPerSample: 16,
	}
}

// BytesPerSecond returns the audio byte rate.
func (c Config) BytesPerSecond() int {
	return c.SampleRate * c.Channels * (c.BitsPerSample / 8)
}

// DurationMs returns the duration in milliseconds for the given byte count.
func (c Config) DurationMs(bytes int) int {
	if c.BytesPerSecond() == 0 {
		return 0
	}
	return (bytes * 1000) / c.BytesPerSecond()
}

// BytesForDurationMs returns the byte count for the given duration in milliseconds.
func (c Config) BytesForDurationMs(ms int) int {
	return (c.BytesPerSecond() * ms) / 1000
}
