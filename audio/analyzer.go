package audio

import (
	"math"
	"sync"
	"time"
)

// Band indices into level arrays.
const (
	BandSubBass = iota
	BandBass
	BandLowMid
	BandMid
	BandHighMid
	BandTreble
	BandPresence
	BandAir

	NumBands
)

// Band is one fixed frequency range analyzed independently.
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
}

// Bands is the fixed band table.
var Bands = [NumBands]Band{
	{"sub-bass", 20, 60},
	{"bass", 60, 250},
	{"low-mid", 250, 500},
	{"mid", 500, 2000},
	{"high-mid", 2000, 4000},
	{"treble", 4000, 6000},
	{"presence", 6000, 10000},
	{"air", 10000, 20000},
}

// smoothWindow is the trailing-window length for jitter damping.
const smoothWindow = 5

// DefaultPeakHold is how long a band's peak holds before falling back.
const DefaultPeakHold = time.Second

// BandLevel is one band's calibrated reading for the current tick.
type BandLevel struct {
	Band
	Level float64
	Peak  float64
}

// Analyzer turns one raw spectrum sample into a calibrated semantic
// summary: 8 named band levels with peak-hold, RMS, peak bin, and an
// overall level.
type Analyzer struct {
	spectrum *Spectrum
	holdFor  time.Duration

	mu         sync.Mutex
	levels     [NumBands]float64
	peaks      [NumBands]float64
	peakTimers [NumBands]*time.Timer
	peakGens   [NumBands]uint64
	history    [NumBands][smoothWindow]float64
	histN      int
	histIdx    int
	rms        float64
	peakBin    float64
	overall    float64
}

// NewAnalyzer binds an analyzer to the spectrum primitive that feeds it.
func NewAnalyzer(spectrum *Spectrum) *Analyzer {
	return &Analyzer{
		spectrum: spectrum,
		holdFor:  DefaultPeakHold,
	}
}

// Process consumes one spectrum sample (normalized 0-1 bins) and updates
// every derived reading.
func (a *Analyzer) Process(bins []float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var bandSum float64
	for i, band := range Bands {
		level := 0.0
		if lo, hi, ok := a.spectrum.binWindow(band.LowHz, band.HighHz); ok && hi <= len(bins) {
			sum := 0.0
			for b := lo; b < hi; b++ {
				sum += bins[b]
			}
			level = sum / float64(hi-lo)
		}
		level = clamp01(level)
		a.levels[i] = level
		a.history[i][a.histIdx] = level
		bandSum += level

		if level > a.peaks[i] {
			a.peaks[i] = level
			a.armPeakHold(i)
		}
	}
	a.histIdx = (a.histIdx + 1) % smoothWindow
	if a.histN < smoothWindow {
		a.histN++
	}
	a.overall = bandSum / NumBands

	var sq, peak float64
	for _, m := range bins {
		sq += m * m
		if m > peak {
			peak = m
		}
	}
	if len(bins) > 0 {
		a.rms = clamp01(math.Sqrt(sq / float64(len(bins))))
	} else {
		a.rms = 0
	}
	a.peakBin = clamp01(peak)
}

// armPeakHold schedules the fall-back for band i, cancelling any pending
// one so a fresh maximum always restarts the hold. The generation counter
// identifies the hold: a superseded timer that already fired and is waiting
// on the mutex sees a newer generation and leaves the state alone. Caller
// holds the mutex.
func (a *Analyzer) armPeakHold(i int) {
	if t := a.peakTimers[i]; t != nil {
		t.Stop()
	}
	a.peakGens[i]++
	gen := a.peakGens[i]
	a.peakTimers[i] = time.AfterFunc(a.holdFor, func() { a.holdExpired(i, gen) })
}

// holdExpired snaps band i's peak down to the instantaneous level, unless
// the hold identified by gen has been superseded by a re-arm or a Reset.
func (a *Analyzer) holdExpired(i int, gen uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.peakGens[i] {
		return
	}
	a.peaks[i] = a.levels[i]
	a.peakTimers[i] = nil
}

// SetPeakHold changes the hold duration for subsequent peaks.
func (a *Analyzer) SetPeakHold(d time.Duration) {
	a.mu.Lock()
	a.holdFor = d
	a.mu.Unlock()
}

// Levels returns the instantaneous band levels.
func (a *Analyzer) Levels() [NumBands]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.levels
}

// SmoothedLevels returns the trailing-window mean per band, damping jitter
// for visual consumers.
func (a *Analyzer) SmoothedLevels() [NumBands]float64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out [NumBands]float64
	if a.histN == 0 {
		return out
	}
	for i := range out {
		sum := 0.0
		for j := 0; j < a.histN; j++ {
			sum += a.history[i][j]
		}
		out[i] = sum / float64(a.histN)
	}
	return out
}

// BandLevels returns the full per-band readings with names and Hz edges.
func (a *Analyzer) BandLevels() [NumBands]BandLevel {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out [NumBands]BandLevel
	for i, band := range Bands {
		out[i] = BandLevel{Band: band, Level: a.levels[i], Peak: a.peaks[i]}
	}
	return out
}

// RMS returns the root-mean-square over all bins.
func (a *Analyzer) RMS() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.rms
}

// Peak returns the single highest bin.
func (a *Analyzer) Peak() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.peakBin
}

// Overall returns the arithmetic mean of the 8 band levels.
func (a *Analyzer) Overall() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.overall
}

// Reset clears all levels, peaks, and pending hold timers.
func (a *Analyzer) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i := range a.peakTimers {
		if a.peakTimers[i] != nil {
			a.peakTimers[i].Stop()
			a.peakTimers[i] = nil
		}
		a.peakGens[i]++
		a.levels[i] = 0
		a.peaks[i] = 0
		a.history[i] = [smoothWindow]float64{}
	}
	a.histN = 0
	a.histIdx = 0
	a.rms = 0
	a.peakBin = 0
	a.overall = 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
