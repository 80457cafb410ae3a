// Package app is the composition root: it owns one instance of every core
// component and wires the signal path raw device → controller → learn →
// mapper → parameter state → render tick. No global singleton; whatever
// drives the render tick holds the App by reference.
package app

import (
	"context"

	"github.com/sirupsen/logrus"

	"go-vizmix/audio"
	"go-vizmix/config"
	"go-vizmix/midi"
	"go-vizmix/params"
	"go-vizmix/preset"
	"go-vizmix/store"
	"go-vizmix/video"
)

// App bundles the live components.
type App struct {
	Config     *config.Config
	Store      *store.Store
	Params     *params.State
	Mapper     *midi.Mapper
	Learn      *midi.Learn
	Controller *midi.Controller
	Audio      *audio.Engine
	Videos     *video.Manager
	Presets    *preset.Manager

	// Changes mirrors mapper notifications for the UI, non-blocking.
	Changes chan midi.Change

	log *logrus.Entry
}

// New constructs and wires the components. Device access is not requested
// here; call StartDevices once the caller is ready to degrade gracefully.
func New(cfg *config.Config, decoder video.Decoder) (*App, error) {
	dir, err := store.DefaultDir()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(dir)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:     cfg,
		Store:      st,
		Params:     params.NewState(),
		Mapper:     midi.NewMapper(st),
		Controller: midi.NewController(),
		Videos:     video.NewManager(decoder),
		Changes:    make(chan midi.Change, 16),
		log:        logrus.WithField("component", "app"),
	}
	a.Learn = midi.NewLearn(a.Mapper, st)
	a.Audio = audio.NewEngine(audio.Config{
		SampleRate:  cfg.Audio.SampleRate,
		FFTSize:     cfg.Audio.FFTSize,
		Smoothing:   cfg.Audio.Smoothing,
		Sensitivity: cfg.Audio.BeatSensitivity,
		Gain:        cfg.Audio.InputGain,
		Capture:     cfg.Audio.CaptureCommand,
	})
	a.Presets = preset.NewManager(st, a.Params, a.Mapper, a.Videos)
	a.Videos.SetPlaybackRate(cfg.Video.PlaybackRate)

	a.wire()

	// Defaults first, then whatever the last session persisted.
	a.Mapper.ApplyDefaults(a.Params)
	if err := a.Mapper.LoadValues(); err == nil {
		a.pushValues()
	}

	return a, nil
}

// wire connects the event path. The mapper commits a value before any of
// these subscribers run, so none of them can observe a stale read.
func (a *App) wire() {
	a.Controller.Subscribe(func(ev midi.CCEvent) {
		a.Learn.ProcessCC(ev.CC, ev.Value)
	})

	a.Mapper.Subscribe(func(ch midi.Change) {
		a.Params.Set(ch.Mapping.Target, ch.Scaled)
	})

	// A handful of CCs control the engine itself rather than a shader
	// uniform; route them to their components.
	a.Mapper.Subscribe(func(ch midi.Change) {
		switch ch.Mapping.Target {
		case params.VideoSpeed:
			a.Videos.SetPlaybackRate(ch.Scaled)
		case params.AudioSmoothing:
			a.Audio.SetSmoothing(ch.Scaled)
		case params.AudioBeatSensitivity:
			a.Audio.SetSensitivity(ch.Scaled)
		}
	})

	a.Mapper.Subscribe(func(ch midi.Change) {
		select {
		case a.Changes <- ch:
		default:
		}
	})
}

// pushValues re-applies every set active value to the parameter state,
// used after a bulk load or import.
func (a *App) pushValues() {
	for _, st := range a.Mapper.Mappings() {
		if st.Set {
			a.Params.Set(st.Target, st.Current)
		}
	}
}

// StartDevices requests audio and MIDI access. Both are one-shot
// asynchronous grants: a refusal leaves the feature inactive and the rest
// of the application running.
func (a *App) StartDevices(ctx context.Context) {
	if err := a.Controller.Initialize(); err != nil {
		a.log.WithError(err).Warn("MIDI inactive")
	} else {
		go a.Controller.Run(ctx)
	}

	if err := a.Audio.Initialize(ctx); err != nil {
		a.log.WithError(err).Warn("audio inactive")
	} else {
		a.Audio.Start()
	}
}

// Tick runs one render tick: audio analysis completes first, then the
// parameter frame resolves against it. Returns the frame and the audio
// snapshot (nil when audio is inactive).
func (a *App) Tick() (params.Frame, *audio.Snapshot) {
	snap := a.Audio.Update()

	var in params.AudioInput
	if snap != nil {
		in = params.AudioInput{
			Bass:    snap.SmoothedLevels[audio.BandBass],
			Mid:     snap.SmoothedLevels[audio.BandMid],
			Treble:  snap.SmoothedLevels[audio.BandTreble],
			Overall: snap.Overall,
			Kick:    snap.Beat.Kick,
		}
	}
	return a.Params.Resolve(in), snap
}

// Shutdown persists session state and releases every device. Idempotent.
func (a *App) Shutdown() {
	if err := a.Mapper.SaveValues(); err != nil {
		a.log.WithError(err).Warn("final CC value save failed")
	}
	a.Config.Video.PlaybackRate = a.Videos.PlaybackRate()
	if err := a.Config.Save(); err != nil {
		a.log.WithError(err).Warn("config save failed")
	}
	a.Audio.Dispose()
	a.Controller.Dispose()
	a.Videos.Dispose()
}
