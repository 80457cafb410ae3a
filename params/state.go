package params

import "sync"

// State holds the current value of every visual parameter. It is the single
// handoff point between the mapping engine and the rendering layer: the
// mapper writes scaled CC values in, the render tick reads a resolved frame
// out. All access is safe from the tick loop and device callbacks.
type State struct {
	mu     sync.RWMutex
	values [NumTargets]float64
}

// NewState returns a State with every target at zero. Callers normally
// follow up with SetAll from the mapper's defaults.
func NewState() *State {
	return &State{}
}

// Set stores the value for a single target.
func (s *State) Set(t Target, v float64) {
	if t < 0 || int(t) >= NumTargets {
		return
	}
	s.mu.Lock()
	s.values[t] = v
	s.mu.Unlock()
}

// Get returns the current value for a target.
func (s *State) Get(t Target) float64 {
	if t < 0 || int(t) >= NumTargets {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[t]
}

// Snapshot returns a copy of all values keyed by target path, for presets.
func (s *State) Snapshot() map[string]float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]float64, NumTargets)
	for t := 0; t < NumTargets; t++ {
		out[Target(t).Path()] = s.values[t]
	}
	return out
}

// Restore overwrites values from a snapshot. Unknown paths are skipped.
func (s *State) Restore(snap map[string]float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for path, v := range snap {
		if t, ok := TargetForPath(path); ok {
			s.values[t] = v
		}
	}
}

// AudioInput is the per-tick analysis summary the reactive mapping consumes.
type AudioInput struct {
	Bass    float64
	Mid     float64
	Treble  float64
	Overall float64
	Kick    bool
}

// Frame is the per-tick resolved parameter set handed to the renderer.
// Audio-reactive modulation and global intensity are already folded in.
type Frame struct {
	Values [NumTargets]float64
}

// Get returns a resolved value from the frame.
func (f *Frame) Get(t Target) float64 {
	if t < 0 || int(t) >= NumTargets {
		return 0
	}
	return f.Values[t]
}

// Resolve produces the render frame for one tick. Base values come from the
// mapper-driven state; the audio.* routing parameters then modulate their
// destinations from the live analysis, and global intensity scales the
// visually additive parameters. Audio analysis for the tick must already be
// complete when this runs.
func (s *State) Resolve(in AudioInput) Frame {
	s.mu.RLock()
	var f Frame
	f.Values = s.values
	s.mu.RUnlock()

	f.Values[ParticleSize] += in.Bass * f.Values[AudioBassToSize] * f.Values[ParticleSize]
	f.Values[ParticleColorHue] += in.Mid * f.Values[AudioMidToColor] * 180
	f.Values[PostBloom] += in.Treble * f.Values[AudioTrebleToBloom]
	if in.Kick {
		f.Values[VideoBrightness] += 0.5 * f.Values[AudioKickToFlash]
	}
	f.Values[GeoMeshScale] += in.Overall * f.Values[AudioOverallToScale] * f.Values[GeoMeshScale]

	intensity := f.Values[AudioGlobalIntensity]
	f.Values[PostBloom] *= intensity
	f.Values[PostGlitch] *= intensity
	f.Values[CamShake] *= intensity

	return f
}
