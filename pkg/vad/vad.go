// Package vad implements RMS-energy voice activity detection with a
// silence-hangover timer for end-of-speech segmentation.
package vad

import (
	"time"

	"github.com/dentalline/voicecore/pkg/audio"
)

// Config tunes the detector.
type Config struct {
	// EnergyThreshold is the RMS level (0.0–1.0) above which a frame counts
	// as speech.
	EnergyThreshold float64 `json:"energy_threshold"`

	// SilenceDuration is how long accumulated silence must last after speech
	// before EndOfSpeech fires.
	SilenceDuration time.Duration `json:"silence_duration"`
}

// DefaultConfig returns thresholds tuned for 16 kHz 20ms telephony frames.
func DefaultConfig() Config {
	return Config{
		EnergyThreshold: 0.02,
		SilenceDuration: 800 * time.Millisecond,
	}
}

// Result is the outcome of processing one frame.
type Result struct {
	// Speaking reports whether the detector currently considers the caller
	// to be mid-utterance.
	Speaking bool

	// EndOfSpeech fires exactly once per speech segment, when accumulated
	// silence exceeds the configured hangover after a speaking period.
	EndOfSpeech bool

	// Energy is the RMS level of the processed frame.
	Energy float64
}

// Detector segments caller audio into speech runs. It is a pure function of
// frame energy and its internal timer state; it performs no I/O. Not safe
// for concurrent use; each session owns its own Detector.
type Detector struct {
	cfg Config
	now func() time.Time

	speaking       bool
	everSpoke      bool
	lastSpeechTime time.Time
}

// New creates a Detector with the given configuration.
func New(cfg Config) *Detector {
	if cfg.EnergyThreshold <= 0 {
		cfg.EnergyThreshold = DefaultConfig().EnergyThreshold
	}
	if cfg.SilenceDuration <= 0 {
		cfg.SilenceDuration = DefaultConfig().SilenceDuration
	}
	return &Detector{cfg: cfg, now: time.Now}
}

// NewWithClock creates a Detector with an injected clock for tests.
func NewWithClock(cfg Config, now func() time.Time) *Detector {
	d := New(cfg)
	if now != nil {
		d.now = now
	}
	return d
}

// Detect processes one PCM16 little-endian frame.
func (d *Detector) Detect(pcmFrame []byte) Result {
	energy := audio.CalculateRMSEnergy(pcmFrame)
	now := d.now()

	if energy >= d.cfg.EnergyThreshold {
		d.speaking = true
		d.everSpoke = true
		d.lastSpeechTime = now
		return Result{Speaking: true, Energy: energy}
	}

	if !d.speaking {
		return Result{Energy: energy}
	}

	// In a segment's hangover window: still "speaking" until silence
	// outlasts the configured duration.
	if now.Sub(d.lastSpeechTime) < d.cfg.SilenceDuration {
		return Result{Speaking: true, Energy: energy}
	}

	d.speaking = false
	return Result{EndOfSpeech: true, Energy: energy}
}

// Speaking reports whether the detector is inside a speech segment.
func (d *Detector) Speaking() bool {
	return d.speaking
}

// Reset clears segment state for a new turn.
func (d *Detector) Reset() {
	d.speaking = false
	d.everSpoke = false
	d.lastSpeechTime = time.Time{}
}
