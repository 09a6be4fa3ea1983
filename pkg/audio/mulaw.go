package audio

// G.711 μ-law companding. The carrier leg delivers 8-bit μ-law at 8 kHz;
// everything past the channel boundary is 16-bit linear PCM.

const (
	muLawBias = 0x84
	muLawClip = 32635
)

// EncodeMuLaw converts 16-bit linear PCM samples to 8-bit μ-law bytes.
// Empty input yields empty output.
func EncodeMuLaw(pcm []int16) []byte {
	out := make([]byte, len(pcm))
	for i, s := range pcm {
		out[i] = linearToMuLaw(s)
	}
	return out
}

// DecodeMuLaw converts 8-bit μ-law bytes to 16-bit linear PCM samples.
// The output sample count equals the input byte count.
func DecodeMuLaw(data []byte) []int16 {
	out := make([]int16, len(data))
	for i, b := range data {
		out[i] = muLawToLinear(b)
	}
	return out
}

func linearToMuLaw(sample int16) byte {
	sign := byte(0)
	s := int(sample)
	if s < 0 {
		s = -s
		sign = 0x80
	}
	if s > muLawClip {
		s = muLawClip
	}
	s += muLawBias

	exp := byte(7)
	for mask := 0x4000; (s&mask) == 0 && exp > 0; mask >>= 1 {
		exp--
	}
	mant := byte((s >> (uint(exp) + 3)) & 0x0F)
	return ^(sign | (exp << 4) | mant)
}

func muLawToLinear(u byte) int16 {
	u = ^u
	sign := u & 0x80
	exp := (u >> 4) & 0x07
	mant := u & 0x0F
	value := (int(mant) << 3) + muLawBias
	value <<= uint(exp)
	value -= muLawBias
	if sign != 0 {
		return int16(-value)
	}
	return int16(value)
}

// Resample converts PCM between sample rates using nearest-neighbor
// interpolation. Sample order is preserved. Identical rates, an empty
// input, or a non-positive rate return the input unchanged.
func Resample(pcm []int16, fromRate, toRate int) []int16 {
	if fromRate == toRate || len(pcm) == 0 || fromRate <= 0 || toRate <= 0 {
		return pcm
	}
	outLen := int(int64(len(pcm)) * int64(toRate) / int64(fromRate))
	if outLen == 0 {
		return []int16{}
	}
	out := make([]int16, outLen)
	for i := range out {
		src := int(int64(i) * int64(fromRate) / int64(toRate))
		if src >= len(pcm) {
			src = len(pcm) - 1
		}
		out[i] = pcm[src]
	}
	return out
}

// PCMToBytes serializes PCM16 samples to little-endian bytes.
func PCMToBytes(pcm []int16) []byte {
	out := make([]byte, len(pcm)*2)
	for i, s := range pcm {
		out[i*2] = byte(s)
		out[i*2+1] = byte(uint16(s) >> 8)
	}
	return out
}

// BytesToPCM parses little-endian bytes into PCM16 samples.
// A trailing odd byte is ignored.
func BytesToPCM(data []byte) []int16 {
	out := make([]int16, len(data)/2)
	for i := range out {
		out[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return out
}
