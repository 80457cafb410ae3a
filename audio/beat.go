package audio

import (
	"math"
	"time"
)

const (
	// energyWindow is ~1s of history at a 60Hz tick rate.
	energyWindow = 43

	// DefaultMinBeatInterval debounces the general beat event.
	DefaultMinBeatInterval = 100 * time.Millisecond

	// absoluteThreshold is the energy floor below which silence never
	// registers as a beat, whatever the adaptive statistics say.
	absoluteThreshold = 0.02
)

// BeatState is one tick's detector output. The sub-detectors are
// independent boolean evaluations; a tick can report beat, kick, and hihat
// simultaneously. Only Beat is debounced.
type BeatState struct {
	Beat       bool
	Kick       bool
	Snare      bool
	HiHat      bool
	Energy     float64
	Confidence float64
}

// Detector maintains a rolling energy statistic over band levels and emits
// beat, kick, snare, and hi-hat events with tunable sensitivity.
type Detector struct {
	history     []float64
	sensitivity float64
	minInterval time.Duration
	lastBeat    time.Time

	// now is swapped by tests to drive the debounce clock.
	now func() time.Time
}

// NewDetector creates a detector with sensitivity 1.0.
func NewDetector() *Detector {
	return &Detector{
		history:     make([]float64, 0, energyWindow),
		sensitivity: 1.0,
		minInterval: DefaultMinBeatInterval,
		now:         time.Now,
	}
}

// SetSensitivity sets the detection sensitivity, clamped to [0.1, 2.0].
func (d *Detector) SetSensitivity(s float64) {
	if s < 0.1 {
		s = 0.1
	} else if s > 2.0 {
		s = 2.0
	}
	d.sensitivity = s
}

// Sensitivity returns the current sensitivity.
func (d *Detector) Sensitivity() float64 { return d.sensitivity }

// Process consumes one tick's band levels and evaluates all detectors.
func (d *Detector) Process(levels [NumBands]float64) BeatState {
	bass := levels[BandBass]
	subBass := levels[BandSubBass]
	lowMid := levels[BandLowMid]
	mid := levels[BandMid]
	presence := levels[BandPresence]
	air := levels[BandAir]

	energy := 0.7*bass + 0.3*lowMid

	if len(d.history) == energyWindow {
		d.history = d.history[1:]
	}
	d.history = append(d.history, energy)

	mean := 0.0
	for _, e := range d.history {
		mean += e
	}
	mean /= float64(len(d.history))

	variance := 0.0
	for _, e := range d.history {
		dev := e - mean
		variance += dev * dev
	}
	variance = math.Sqrt(variance / float64(len(d.history)))

	state := BeatState{
		Energy: energy,
		Kick:   bass+0.5*subBass > 0.4*d.sensitivity && bass > 1.2*mid,
		Snare:  lowMid+0.5*mid > 0.35*d.sensitivity && mid > 0.8*bass,
		HiHat:  presence+0.5*air > 0.25*d.sensitivity && presence > 0.5*mid,
	}

	if mean > 0 {
		state.Confidence = clamp01((energy/mean - 1) / 2)
	}

	threshold := mean + variance*d.sensitivity*1.5
	if energy > threshold && energy > absoluteThreshold {
		now := d.now()
		if d.lastBeat.IsZero() || now.Sub(d.lastBeat) >= d.minInterval {
			state.Beat = true
			d.lastBeat = now
		}
	}

	return state
}

// Reset clears the history and debounce timer; used when the audio input
// is disposed or reinitialized.
func (d *Detector) Reset() {
	d.history = d.history[:0]
	d.lastBeat = time.Time{}
}
