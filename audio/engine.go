package audio

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// EngineState tracks the live-input connection lifecycle.
type EngineState int

const (
	Uninitialized EngineState = iota
	Initializing
	Ready
	Running
	Disposed
)

func (s EngineState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initializing:
		return "initializing"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Disposed:
		return "disposed"
	}
	return "unknown"
}

// Snapshot is the composite analysis result for one tick.
type Snapshot struct {
	Levels         [NumBands]float64
	SmoothedLevels [NumBands]float64
	Beat           BeatState
	IsBeat         bool
	Spectrum       []float64
	RMS            float64
	Peak           float64
	Overall        float64
}

// Config carries the tunables the engine forwards to its sub-components.
type Config struct {
	SampleRate  int
	FFTSize     int
	Smoothing   float64
	Sensitivity float64
	Gain        float64
	// Capture launches the PCM capture process.
	Capture []string
}

// Engine owns the live audio connection and drives one analysis tick per
// Update call. It is pull-based: the render loop calls Update once per
// frame and gets back the composite snapshot, or nil when not running.
type Engine struct {
	mu    sync.Mutex
	state EngineState
	cfg   Config

	source   Source
	spectrum *Spectrum
	analyzer *Analyzer
	detector *Detector

	gain  float64
	frame []float64

	// openSource is swapped by tests to avoid spawning a process.
	openSource func(ctx context.Context, cfg Config) (Source, error)

	log *logrus.Entry
}

// NewEngine creates an engine in the Uninitialized state.
func NewEngine(cfg Config) *Engine {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 44100
	}
	if cfg.Smoothing == 0 {
		cfg.Smoothing = 0.8
	}
	if cfg.Sensitivity == 0 {
		cfg.Sensitivity = 1.0
	}
	if cfg.Gain == 0 {
		cfg.Gain = 1.0
	}
	return &Engine{
		cfg:  cfg,
		gain: cfg.Gain,
		openSource: func(ctx context.Context, cfg Config) (Source, error) {
			size := cfg.FFTSize
			if !validFFTSize(size) {
				size = DefaultFFTSize
			}
			return StartCommand(ctx, cfg.Capture, size)
		},
		log: logrus.WithField("component", "audio"),
	}
}

// State returns the current lifecycle state.
func (e *Engine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Initialize acquires the capture device and builds the analysis chain.
// Calling it while already running is a no-op; a failed attempt returns the
// engine to Uninitialized and may be retried.
func (e *Engine) Initialize(ctx context.Context) error {
	e.mu.Lock()
	switch e.state {
	case Running, Ready:
		// Re-entry while a session is live is deliberately a no-op;
		// callers must Dispose first to re-acquire the device.
		e.mu.Unlock()
		return nil
	case Initializing:
		e.mu.Unlock()
		return nil
	}
	e.state = Initializing
	cfg := e.cfg
	e.mu.Unlock()

	source, err := e.openSource(ctx, cfg)
	if err != nil {
		e.mu.Lock()
		e.state = Uninitialized
		e.mu.Unlock()
		return err
	}

	spectrum := NewSpectrum(float64(cfg.SampleRate), cfg.FFTSize, cfg.Smoothing)
	analyzer := NewAnalyzer(spectrum)
	detector := NewDetector()
	detector.SetSensitivity(cfg.Sensitivity)

	e.mu.Lock()
	e.source = source
	e.spectrum = spectrum
	e.analyzer = analyzer
	e.detector = detector
	e.frame = make([]float64, spectrum.Size())
	e.state = Ready
	e.mu.Unlock()

	e.log.WithFields(logrus.Fields{
		"sampleRate": cfg.SampleRate,
		"fftSize":    spectrum.Size(),
	}).Info("audio input initialized")
	return nil
}

// Start enables analysis ticks. No-op unless the engine is Ready.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.state == Ready {
		e.state = Running
	}
	e.mu.Unlock()
}

// Stop suspends analysis without releasing the device.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state == Running {
		e.state = Ready
	}
	e.mu.Unlock()
}

// Update runs one analysis tick and returns the composite snapshot, or nil
// when the engine is not running. Scratch buffers are reused; calling this
// at frame rate does not allocate beyond the returned snapshot.
func (e *Engine) Update() *Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Running {
		return nil
	}

	n := e.source.Latest(e.frame)
	if e.gain != 1.0 {
		for i := 0; i < n; i++ {
			e.frame[i] *= e.gain
		}
	}

	bins := e.spectrum.Analyze(e.frame[:n])
	e.analyzer.Process(bins)
	levels := e.analyzer.Levels()
	beat := e.detector.Process(levels)

	return &Snapshot{
		Levels:         levels,
		SmoothedLevels: e.analyzer.SmoothedLevels(),
		Beat:           beat,
		IsBeat:         beat.Beat,
		Spectrum:       bins,
		RMS:            e.analyzer.RMS(),
		Peak:           e.analyzer.Peak(),
		Overall:        e.analyzer.Overall(),
	}
}

// Analyzer exposes the band analyzer for consumers that need peak-hold
// readings between updates. Nil until initialized.
func (e *Engine) Analyzer() *Analyzer {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.analyzer
}

// SetFFTSize reconfigures the transform size (invalid sizes fall back).
func (e *Engine) SetFFTSize(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.FFTSize = n
	if e.spectrum != nil {
		e.spectrum.SetSize(n)
		e.frame = make([]float64, e.spectrum.Size())
	}
}

// SetSmoothing forwards the spectrum smoothing coefficient.
func (e *Engine) SetSmoothing(k float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Smoothing = k
	if e.spectrum != nil {
		e.spectrum.SetSmoothing(k)
	}
}

// SetSensitivity forwards the beat sensitivity.
func (e *Engine) SetSensitivity(s float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cfg.Sensitivity = s
	if e.detector != nil {
		e.detector.SetSensitivity(s)
	}
}

// SetGain sets the input gain, clamped to [0, 2].
func (e *Engine) SetGain(g float64) {
	if g < 0 {
		g = 0
	} else if g > 2 {
		g = 2
	}
	e.mu.Lock()
	e.gain = g
	e.mu.Unlock()
}

// Dispose stops analysis, releases the capture device, and resets the
// sub-components. Safe to call multiple times; Initialize may be called
// again afterwards.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == Disposed || e.state == Uninitialized {
		e.state = Disposed
		return
	}
	if e.source != nil {
		e.source.Close()
		e.source = nil
	}
	if e.analyzer != nil {
		e.analyzer.Reset()
	}
	if e.detector != nil {
		e.detector.Reset()
	}
	if e.spectrum != nil {
		e.spectrum.Reset()
	}
	e.state = Disposed
	e.log.Info("audio input disposed")
}
