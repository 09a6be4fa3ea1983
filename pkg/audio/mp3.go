package audio

import (
	"fmt"
	"io"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// DecodeMP3 decodes an MP3 stream to mono PCM16 samples and reports the
// decoder's sample rate. Synthesis providers that only return MP3 are
// normalized through this path before entering the pipeline.
func DecodeMP3(r io.Reader) ([]int16, int, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 decode: %w", err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, 0, fmt.Errorf("mp3 read: %w", err)
	}

	// go-mp3 always emits 16-bit stereo; fold to mono by averaging channels.
	frames := len(raw) / 4
	pcm := make([]int16, frames)
	for i := 0; i < frames; i++ {
		left := int16(raw[i*4]) | int16(raw[i*4+1])<<8
		right := int16(raw[i*4+2]) | int16(raw[i*4+3])<<8
		pcm[i] = int16((int32(left) + int32(right)) / 2)
	}
	return pcm, dec.SampleRate(), nil
}
