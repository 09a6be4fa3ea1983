package call

import (
	"context"
	"time"
)

// pacer delivers PCM16 audio to a send func in fixed-duration chunks at
// real-time rate, so the far end never has to buffer more than one chunk.
type pacer struct {
	chunkMs int
	sleep   func(time.Duration)
}

func newPacer(chunkMs int) *pacer {
	if chunkMs <= 0 {
		chunkMs = 20
	}
	return &pacer{chunkMs: chunkMs, sleep: time.Sleep}
}

// chunkBytes is the size of one chunk of PCM16 at the given rate.
func (p *pacer) chunkBytes(sampleRate int) int {
	n := sampleRate * 2 * p.chunkMs / 1000
	// Keep sample alignment.
	if n%2 != 0 {
		n++
	}
	if n == 0 {
		n = 2
	}
	return n
}

// Play sends pcm in paced chunks, stopping early if ctx is canceled.
func (p *pacer) Play(ctx context.Context, pcm []byte, sampleRate int, send func([]byte) error) error {
	size := p.chunkBytes(sampleRate)
	interval := time.Duration(p.chunkMs) * time.Millisecond

	for off := 0; off < len(pcm); off += size {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := off + size
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := send(pcm[off:end]); err != nil {
			return err
		}
		if end < len(pcm) {
			p.sleep(interval)
		}
	}
	return nil
}

// PlayStream paces audio arriving on chunks, re-slicing to the chunk size.
// It drains until the channel closes or ctx is canceled.
func (p *pacer) PlayStream(ctx context.Context, chunks <-chan []byte, sampleRate int, send func([]byte) error) error {
	size := p.chunkBytes(sampleRate)
	interval := time.Duration(p.chunkMs) * time.Millisecond

	var pending []byte
	flush := func(final bool) error {
		for len(pending) >= size || (final && len(pending) > 0) {
			if err := ctx.Err(); err != nil {
				return err
			}
			end := size
			if end > len(pending) {
				end = len(pending)
			}
			if err := send(pending[:end]); err != nil {
				return err
			}
			pending = pending[end:]
			if len(pending) > 0 || !final {
				p.sleep(interval)
			}
		}
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-chunks:
			if !ok {
				return flush(true)
			}
			pending = append(pending, chunk...)
			if err := flush(false); err != nil {
				return err
			}
		}
	}
}
