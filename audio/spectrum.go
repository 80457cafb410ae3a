package audio

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
	"github.com/sirupsen/logrus"
)

// FFT size limits. Sizes are powers of two; anything else falls back to
// DefaultFFTSize.
const (
	MinFFTSize     = 256
	MaxFFTSize     = 32768
	DefaultFFTSize = 2048
)

// Spectrum is the upstream analysis primitive: it owns the transform size,
// the windowing, and the inter-frame smoothing of the raw spectrum. Output
// bins are normalized to 0-1. Scratch buffers are reused so a tick never
// allocates.
type Spectrum struct {
	sampleRate float64
	size       int
	smoothing  float64

	win      []float64
	input    []float64
	smoothed []float64

	log *logrus.Entry
}

// NewSpectrum creates a Spectrum for the given sample rate. Invalid sizes
// fall back to DefaultFFTSize with a warning.
func NewSpectrum(sampleRate float64, size int, smoothing float64) *Spectrum {
	s := &Spectrum{
		sampleRate: sampleRate,
		log:        logrus.WithField("component", "spectrum"),
	}
	s.SetSize(size)
	s.SetSmoothing(smoothing)
	return s
}

func validFFTSize(n int) bool {
	return n >= MinFFTSize && n <= MaxFFTSize && n&(n-1) == 0
}

// SetSize reconfigures the transform size. Non-power-of-two or out-of-range
// requests are non-fatal: the size falls back to DefaultFFTSize.
func (s *Spectrum) SetSize(n int) {
	if !validFFTSize(n) {
		s.log.WithField("size", n).Warn("invalid FFT size, falling back to 2048")
		n = DefaultFFTSize
	}
	if n == s.size {
		return
	}
	s.size = n
	s.win = window.Hann(n)
	s.input = make([]float64, n)
	s.smoothed = make([]float64, n/2)
}

// SetSmoothing sets the inter-frame decay coefficient, clamped to [0,1].
// 0 means no smoothing; values near 1 decay slowly.
func (s *Spectrum) SetSmoothing(k float64) {
	if k < 0 {
		k = 0
	} else if k > 1 {
		k = 1
	}
	s.smoothing = k
}

// Size returns the current transform size.
func (s *Spectrum) Size() int { return s.size }

// SampleRate returns the configured sample rate.
func (s *Spectrum) SampleRate() float64 { return s.sampleRate }

// BinCount returns the number of output bins (size/2).
func (s *Spectrum) BinCount() int { return s.size / 2 }

// Analyze windows the most recent size samples, transforms them, and folds
// the magnitudes into the smoothed spectrum. The returned slice is owned by
// the Spectrum and valid until the next Analyze call.
func (s *Spectrum) Analyze(samples []float64) []float64 {
	n := s.size
	if len(samples) >= n {
		copy(s.input, samples[len(samples)-n:])
	} else {
		for i := range s.input {
			s.input[i] = 0
		}
		copy(s.input[n-len(samples):], samples)
	}
	for i := range s.input {
		s.input[i] *= s.win[i]
	}

	spec := fft.FFTReal(s.input)
	// Hann window halves the coherent gain; fold that back in so a
	// full-scale sine lands near 1.0.
	norm := 4.0 / float64(n)
	k := s.smoothing
	for i := 0; i < n/2; i++ {
		mag := cmplx.Abs(spec[i]) * norm
		if mag > 1 {
			mag = 1
		}
		s.smoothed[i] = k*s.smoothed[i] + (1-k)*mag
	}
	return s.smoothed
}

// Reset clears the smoothed spectrum.
func (s *Spectrum) Reset() {
	for i := range s.smoothed {
		s.smoothed[i] = 0
	}
}

// binWindow maps a Hz range onto a contiguous bin index range.
// Returns ok=false when the window is empty or out of range.
func (s *Spectrum) binWindow(lowHz, highHz float64) (lo, hi int, ok bool) {
	nyquist := s.sampleRate / 2
	bins := s.BinCount()
	lo = int(math.Floor(lowHz / nyquist * float64(bins)))
	hi = int(math.Ceil(highHz / nyquist * float64(bins)))
	if lo < 0 {
		lo = 0
	}
	if hi > bins {
		hi = bins
	}
	if lo >= hi {
		return 0, 0, false
	}
	return lo, hi, true
}
