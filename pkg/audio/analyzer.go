package audio

import (
	"math"
	"sync"
)

const (
	fftSize = 1024

	// Beat detection: low-band energy must exceed the rolling average by
	// this factor, and two beats can never be closer than the refractory
	// interval.
	beatBands       = 8
	beatSensitivity = 1.7
	beatRefractory  = 0.18 // seconds
	energyHistory   = 64
	energyWarmup    = 8
)

// Analyzer turns a live PCM stream into per-frame Frames. PCM arrives
// from the audio callback goroutine via PushPCM; the render loop calls
// Snapshot once per frame. The two sides share only the rolling sample
// window, guarded by one mutex.
type Analyzer struct {
	mu         sync.Mutex
	sampleRate int

	window  [Channels][fftSize]float64 // rolling, window[c][pos] is the oldest
	pos     int
	clock   uint64 // total samples pushed per channel, the analyzer's time base
	scratch []complex128

	energies    [energyHistory]float64
	energyCount int
	energyPos   int
	lastBeat    uint64 // clock value at the last reported beat
}

// NewAnalyzer creates an Analyzer for the given PCM sample rate.
func NewAnalyzer(sampleRate int) *Analyzer {
	return &Analyzer{
		sampleRate: sampleRate,
		scratch:    make([]complex128, fftSize),
		lastBeat:   ^uint64(0) >> 1, // far future until the first beat
	}
}

// PushPCM feeds interleaved stereo int16 samples into the rolling window.
// Call from the audio producer goroutine only.
func (a *Analyzer) PushPCM(samples []int16) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := 0; i+1 < len(samples); i += 2 {
		a.window[0][a.pos] = float64(samples[i]) / 32768
		a.window[1][a.pos] = float64(samples[i+1]) / 32768
		a.pos = (a.pos + 1) % fftSize
		a.clock++
	}
}

// Snapshot analyzes the current window and returns one Frame. Call from
// the render loop only.
func (a *Analyzer) Snapshot() Frame {
	a.mu.Lock()
	defer a.mu.Unlock()

	var f Frame
	var linear [Channels][fftSize]float64
	for c := 0; c < Channels; c++ {
		for i := 0; i < fftSize; i++ {
			linear[c][i] = a.window[c][(a.pos+i)%fftSize]
		}
	}

	// Waveform: the newest SampleCount samples, quantized.
	for c := 0; c < Channels; c++ {
		base := fftSize - SampleCount
		for i := 0; i < SampleCount; i++ {
			v := linear[c][base+i] * 127
			if v > 127 {
				v = 127
			} else if v < -128 {
				v = -128
			}
			f.Waveform[c][i] = int8(v)
		}
	}

	var lowEnergy float64
	for c := 0; c < Channels; c++ {
		mags := a.magnitudes(&linear[c])
		for j := 0; j < SampleCount; j++ {
			bin := j * (fftSize / 2) / SampleCount
			v := math.Sqrt(mags[bin]) * 255
			if v > 255 {
				v = 255
			}
			f.Spectrum[c][j] = uint8(v)
		}
		if c == 0 {
			for b := 1; b <= beatBands; b++ {
				lowEnergy += mags[b] * mags[b]
			}
			lowEnergy /= beatBands
		}
	}

	f.Beat = a.detectBeat(lowEnergy)
	return f
}

// magnitudes runs a Hann-windowed FFT and returns normalized magnitudes
// for the lower half of the spectrum.
func (a *Analyzer) magnitudes(samples *[fftSize]float64) [fftSize / 2]float64 {
	for i := 0; i < fftSize; i++ {
		w := 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/(fftSize-1)))
		a.scratch[i] = complex(samples[i]*w, 0)
	}
	fft(a.scratch)

	var mags [fftSize / 2]float64
	for k := 0; k < fftSize/2; k++ {
		re, im := real(a.scratch[k]), imag(a.scratch[k])
		mags[k] = math.Hypot(re, im) / (fftSize / 4)
	}
	return mags
}

// detectBeat compares the instant low-band energy against its rolling
// average, with a refractory interval measured on the sample clock so
// detection does not depend on wall time.
func (a *Analyzer) detectBeat(energy float64) bool {
	beat := false
	if a.energyCount >= energyWarmup {
		var sum float64
		for i := 0; i < a.energyCount; i++ {
			sum += a.energies[i]
		}
		mean := sum / float64(a.energyCount)
		quiet := a.clock-a.lastBeat >= uint64(beatRefractory*float64(a.sampleRate))
		if a.lastBeat > a.clock {
			quiet = true // no beat seen yet
		}
		if energy > beatSensitivity*mean && energy > 1e-8 && quiet {
			beat = true
			a.lastBeat = a.clock
		}
	}

	a.energies[a.energyPos] = energy
	a.energyPos = (a.energyPos + 1) % energyHistory
	if a.energyCount < energyHistory {
		a.energyCount++
	}
	return beat
}

// fft is an in-place iterative radix-2 transform. len(buf) must be a
// power of two.
func fft(buf []complex128) {
	n := len(buf)
	for i, j := 1, 0; i < n; i++ {
		bit := n >> 1
		for ; j&bit != 0; bit >>= 1 {
			j ^= bit
		}
		j ^= bit
		if i < j {
			buf[i], buf[j] = buf[j], buf[i]
		}
	}
	for length := 2; length <= n; length <<= 1 {
		ang := -2 * math.Pi / float64(length)
		step := complex(math.Cos(ang), math.Sin(ang))
		for i := 0; i < n; i += length {
			w := complex(1, 0)
			for j := 0; j < length/2; j++ {
				u := buf[i+j]
				v := buf[i+j+length/2] * w
				buf[i+j] = u + v
				buf[i+j+length/2] = u - v
				w *= step
			}
		}
	}
}
