// Package stt provides speech-to-text gateway implementations.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dentalline/voicecore/pkg/speech"
)

const deepgramDefaultBaseURL = "https://api.deepgram.com/v1/listen"

// Deepgram transcribes batch PCM segments over the prerecorded HTTP API.
type Deepgram struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	language   string
	timeout    time.Duration
}

// NewDeepgram creates a transcriber with the given API key.
func NewDeepgram(apiKey string) *Deepgram {
	return &Deepgram{
		apiKey:     strings.TrimSpace(apiKey),
		httpClient: &http.Client{},
		baseURL:    deepgramDefaultBaseURL,
		model:      "nova-2",
		language:   "en",
		timeout:    10 * time.Second,
	}
}

// NewDeepgramWithClient creates a transcriber with a custom HTTP client.
func NewDeepgramWithClient(apiKey string, client *http.Client) *Deepgram {
	d := NewDeepgram(apiKey)
	if client != nil {
		d.httpClient = client
	}
	return d
}

// WithBaseURL overrides the API endpoint, used by tests.
func (d *Deepgram) WithBaseURL(base string) *Deepgram {
	base = strings.TrimSpace(base)
	if base != "" {
		d.baseURL = base
	}
	return d
}

// WithTimeout bounds each transcription call.
func (d *Deepgram) WithTimeout(timeout time.Duration) *Deepgram {
	if timeout > 0 {
		d.timeout = timeout
	}
	return d
}

type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe sends raw linear16 PCM and returns the best transcript.
func (d *Deepgram) Transcribe(ctx context.Context, pcm []byte, sampleRate int) (string, error) {
	if d.apiKey == "" {
		return "", fmt.Errorf("deepgram api key is required")
	}
	if len(pcm) == 0 {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	q := url.Values{}
	q.Set("model", d.model)
	q.Set("language", d.language)
	q.Set("encoding", "linear16")
	q.Set("sample_rate", strconv.Itoa(sampleRate))
	q.Set("punctuate", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"?"+q.Encode(), bytes.NewReader(pcm))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Token "+d.apiKey)
	req.Header.Set("Content-Type", "audio/raw")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("deepgram request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("deepgram response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("deepgram status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var parsed deepgramResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("deepgram decode: %w", err)
	}
	if len(parsed.Results.Channels) == 0 || len(parsed.Results.Channels[0].Alternatives) == 0 {
		return "", speech.ErrNoResponse
	}
	return strings.TrimSpace(parsed.Results.Channels[0].Alternatives[0].Transcript), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

var _ speech.Transcriber = (*Deepgram)(nil)
