// Package preset captures and restores application snapshots: the full
// parameter state, the exported CC values, and the playlist position.
// Named presets and the numbered quick slots share the same shape under
// distinct store keys.
package preset

import (
	"strconv"
	"strings"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/ftag"

	"go-vizmix/errkind"
	"go-vizmix/midi"
	"go-vizmix/params"
	"go-vizmix/store"
	"go-vizmix/video"
)

const (
	namedPrefix = "preset:"
	slotPrefix  = "slot:"

	// NumSlots is the count of numbered quick slots (1-9).
	NumSlots = 9
)

// VideoState is the playlist portion of a snapshot.
type VideoState struct {
	VideoCount   int     `json:"videoCount"`
	CurrentIndex int     `json:"currentIndex"`
	IsPlaying    bool    `json:"isPlaying"`
	PlaybackRate float64 `json:"playbackRate"`
	CurrentVideo string  `json:"currentVideo,omitempty"`
}

// Snapshot is one persisted application state.
type Snapshot struct {
	Params       map[string]float64 `json:"params"`
	MIDIMappings midi.ExportDoc     `json:"midiMappings"`
	VideoState   VideoState         `json:"videoState"`
}

// Manager wires snapshots to the live components and the store.
type Manager struct {
	st     *store.Store
	state  *params.State
	mapper *midi.Mapper
	videos *video.Manager
}

// NewManager creates a preset manager over the live components.
func NewManager(st *store.Store, state *params.State, mapper *midi.Mapper, videos *video.Manager) *Manager {
	return &Manager{st: st, state: state, mapper: mapper, videos: videos}
}

// Capture reads the current application state into a snapshot.
func (m *Manager) Capture() Snapshot {
	snap := Snapshot{
		Params:       m.state.Snapshot(),
		MIDIMappings: m.mapper.Export(),
	}
	snap.VideoState = VideoState{
		VideoCount:   len(m.videos.Entries()),
		CurrentIndex: m.videos.CurrentIndex(),
		IsPlaying:    m.videos.State() == video.Playing,
		PlaybackRate: m.videos.PlaybackRate(),
	}
	if cur := m.videos.Current(); cur != nil {
		snap.VideoState.CurrentVideo = cur.Name
	}
	return snap
}

// Apply restores a snapshot into the live components. The playlist itself
// is not reconstructed (files are not part of a snapshot); position, rate,
// and the play/pause state are re-applied when they still fit the loaded
// playlist.
func (m *Manager) Apply(snap Snapshot) {
	m.state.Restore(snap.Params)
	m.mapper.Import(snap.MIDIMappings)
	m.videos.SetPlaybackRate(snap.VideoState.PlaybackRate)
	m.videos.Jump(snap.VideoState.CurrentIndex)
	if snap.VideoState.IsPlaying {
		m.videos.Play()
	} else {
		m.videos.Pause()
	}
}

// SaveNamed persists the current state under a preset name.
func (m *Manager) SaveNamed(name string) error {
	if name == "" {
		return fault.New("empty preset name",
			ftag.With(errkind.PersistenceFailure))
	}
	return m.st.Save(namedPrefix+name, m.Capture())
}

// LoadNamed restores a named preset. Unknown names report ok=false.
func (m *Manager) LoadNamed(name string) (bool, error) {
	var snap Snapshot
	ok, err := m.st.Load(namedPrefix+name, &snap)
	if err != nil || !ok {
		return false, err
	}
	m.Apply(snap)
	return true, nil
}

// DeleteNamed removes a named preset.
func (m *Manager) DeleteNamed(name string) error {
	return m.st.Delete(namedPrefix + name)
}

// ListNamed returns the saved preset names.
func (m *Manager) ListNamed() ([]string, error) {
	keys, err := m.st.List(namedPrefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(keys))
	for _, k := range keys {
		names = append(names, strings.TrimPrefix(k, strings.ReplaceAll(namedPrefix, ":", "_")))
	}
	return names, nil
}

// SaveSlot persists the current state to a numbered quick slot.
func (m *Manager) SaveSlot(n int) error {
	if n < 1 || n > NumSlots {
		return fault.New("quick slot out of range",
			ftag.With(errkind.PersistenceFailure))
	}
	return m.st.Save(slotPrefix+strconv.Itoa(n), m.Capture())
}

// LoadSlot restores a numbered quick slot. Empty slots report ok=false.
func (m *Manager) LoadSlot(n int) (bool, error) {
	if n < 1 || n > NumSlots {
		return false, nil
	}
	var snap Snapshot
	ok, err := m.st.Load(slotPrefix+strconv.Itoa(n), &snap)
	if err != nil || !ok {
		return false, err
	}
	m.Apply(snap)
	return true, nil
}
