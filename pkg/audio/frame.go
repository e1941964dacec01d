// Package audio defines the per-frame audio snapshot effects consume and
// the analyzer that derives it from raw PCM.
package audio

// Frame shape. Effects and scripts address channels as 0=left, 1=right
// and read fixed offsets into the 576-sample span.
const (
	Channels    = 2
	SampleCount = 576
)

// Frame is one render frame's worth of analyzed audio. Spectrum holds
// coarse 8-bit magnitudes from low to high frequency; Waveform holds the
// newest raw samples quantized to 8 bits. Beat is the analyzer's onset
// flag for this frame. Consumers only read Frames; the analyzer hands out
// fresh copies.
type Frame struct {
	Spectrum [Channels][SampleCount]uint8
	Waveform [Channels][SampleCount]int8
	Beat     bool
}
