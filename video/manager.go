package video

import (
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PlayState is the playlist-level playback state.
type PlayState int

const (
	Empty PlayState = iota
	Playing
	Paused
)

func (s PlayState) String() string {
	switch s {
	case Empty:
		return "empty"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "unknown"
}

// Playback rate bounds.
const (
	MinRate = 0.25
	MaxRate = 4.0
)

// Entry is one playlist item. Entries append at the end only; upload order
// is preserved for the life of the playlist.
type Entry struct {
	ID       string
	Name     string
	Clip     Clip
	Duration float64
	Width    int
	Height   int
}

// Manager owns the ordered playlist and its sequential, seamless, looping
// playback with one-ahead preloading.
type Manager struct {
	decoder Decoder

	mu        sync.Mutex
	entries   []*Entry
	index     int
	state     PlayState
	rate      float64
	preloaded *Entry

	// UpdateChan signals playlist changes to the UI, non-blocking.
	UpdateChan chan struct{}

	log *logrus.Entry
}

// NewManager creates an empty playlist over the given decoder.
func NewManager(decoder Decoder) *Manager {
	return &Manager{
		decoder:    decoder,
		rate:       1.0,
		UpdateChan: make(chan struct{}, 1),
		log:        logrus.WithField("component", "video"),
	}
}

func (m *Manager) notify() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}

// AddVideo validates the file, opens a playable handle, and appends it to
// the end of the playlist. The first entry added starts playing
// immediately. Unsupported or corrupt files reject only this call.
func (m *Manager) AddVideo(path string) (*Entry, error) {
	meta, err := Probe(path)
	if err != nil {
		return nil, err
	}

	clip, err := m.decoder.Open(path)
	if err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:       uuid.New().String(),
		Name:     filepath.Base(path),
		Clip:     clip,
		Duration: clip.Duration(),
		Width:    meta.Width,
		Height:   meta.Height,
	}
	if entry.Duration == 0 {
		entry.Duration = meta.DurationSeconds
	}
	if w, h := clip.Dimensions(); w > 0 {
		entry.Width, entry.Height = w, h
	}
	clip.OnEnded(func() { m.autoAdvance(entry) })

	m.mu.Lock()
	m.entries = append(m.entries, entry)
	first := len(m.entries) == 1
	if first {
		m.index = 0
		m.playLocked()
	} else {
		// A new tail entry may now be the wrap target.
		m.preloadLocked()
	}
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"name":     entry.Name,
		"duration": entry.Duration,
	}).Info("video added")
	m.notify()
	return entry, nil
}

// playLocked starts the current entry and preloads its successor.
func (m *Manager) playLocked() {
	if len(m.entries) == 0 {
		m.state = Empty
		return
	}
	current := m.entries[m.index]
	current.Clip.SetRate(m.rate)
	if err := current.Clip.Play(); err != nil {
		m.log.WithError(err).WithField("name", current.Name).Warn("play failed")
		return
	}
	m.state = Playing
	m.preloadLocked()
}

// preloadLocked points the one-ahead preload at (index+1) mod len. A stale
// preload target is simply superseded; the hint is advisory.
func (m *Manager) preloadLocked() {
	if len(m.entries) <= 1 {
		m.preloaded = nil
		return
	}
	next := m.entries[(m.index+1)%len(m.entries)]
	if next == m.entries[m.index] || next == m.preloaded {
		return
	}
	m.preloaded = next
	next.Clip.Preload()
}

// autoAdvance handles a natural end: advance with wraparound and play the
// new current entry immediately.
func (m *Manager) autoAdvance(ended *Entry) {
	m.mu.Lock()
	if m.state != Playing || len(m.entries) == 0 ||
		m.entries[m.index] != ended {
		// The ended clip is no longer current (removed or jumped away);
		// a stale notification must not move the index.
		m.mu.Unlock()
		return
	}
	m.index = (m.index + 1) % len(m.entries)
	m.playLocked()
	m.mu.Unlock()
	m.notify()
}

// Play resumes playback of the current entry.
func (m *Manager) Play() {
	m.mu.Lock()
	if m.state == Paused {
		m.playLocked()
	}
	m.mu.Unlock()
	m.notify()
}

// Pause suspends playback, keeping the current position.
func (m *Manager) Pause() {
	m.mu.Lock()
	if m.state == Playing {
		m.entries[m.index].Clip.Pause()
		m.state = Paused
	}
	m.mu.Unlock()
	m.notify()
}

// Toggle flips between Playing and Paused.
func (m *Manager) Toggle() {
	m.mu.Lock()
	switch m.state {
	case Playing:
		m.entries[m.index].Clip.Pause()
		m.state = Paused
	case Paused:
		m.playLocked()
	}
	m.mu.Unlock()
	m.notify()
}

// Next pauses the current entry and plays the following one (wrapping).
func (m *Manager) Next() {
	m.jumpBy(1)
}

// Previous pauses the current entry and plays the preceding one (wrapping).
func (m *Manager) Previous() {
	m.jumpBy(-1)
}

func (m *Manager) jumpBy(delta int) {
	m.mu.Lock()
	if len(m.entries) == 0 {
		m.mu.Unlock()
		return
	}
	m.entries[m.index].Clip.Pause()
	m.index = (m.index + delta + len(m.entries)) % len(m.entries)
	m.playLocked()
	m.mu.Unlock()
	m.notify()
}

// Jump pauses the current entry and plays the entry at idx.
func (m *Manager) Jump(idx int) {
	m.mu.Lock()
	if idx < 0 || idx >= len(m.entries) {
		m.mu.Unlock()
		return
	}
	if len(m.entries) > 0 {
		m.entries[m.index].Clip.Pause()
	}
	m.index = idx
	m.playLocked()
	m.mu.Unlock()
	m.notify()
}

// RemoveVideo releases an entry's resources and drops it from the
// playlist. The current index keeps pointing at the same logical entry
// when possible; removing the current entry clamps and restarts playback
// on the new current. A paused playlist stays paused: the new current
// entry is selected and preloaded but does not start until Play. The
// preload target is re-issued for the reshaped playlist.
func (m *Manager) RemoveVideo(id string) bool {
	m.mu.Lock()
	idx := -1
	for i, e := range m.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		m.mu.Unlock()
		return false
	}

	removed := m.entries[idx]
	wasCurrent := idx == m.index
	wasPlaying := m.state == Playing
	removed.Clip.Release()
	if m.preloaded == removed {
		m.preloaded = nil
	}
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)

	switch {
	case len(m.entries) == 0:
		m.index = 0
		m.state = Empty
		m.preloaded = nil
	case idx < m.index:
		m.index--
		m.preloadLocked()
	case wasCurrent:
		if m.index >= len(m.entries) {
			m.index = len(m.entries) - 1
		}
		if wasPlaying {
			m.playLocked()
		} else {
			m.preloadLocked()
		}
	default:
		m.preloadLocked()
	}
	m.mu.Unlock()

	m.log.WithField("name", removed.Name).Info("video removed")
	m.notify()
	return true
}

// Reorder moves an entry to newIndex. The current index is adjusted so the
// same logical entry stays current; reordering never switches videos.
func (m *Manager) Reorder(id string, newIndex int) bool {
	m.mu.Lock()
	idx := -1
	for i, e := range m.entries {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 || newIndex < 0 || newIndex >= len(m.entries) {
		m.mu.Unlock()
		return false
	}

	current := m.entries[m.index]
	moved := m.entries[idx]
	m.entries = append(m.entries[:idx], m.entries[idx+1:]...)
	m.entries = append(m.entries[:newIndex],
		append([]*Entry{moved}, m.entries[newIndex:]...)...)

	for i, e := range m.entries {
		if e == current {
			m.index = i
			break
		}
	}
	m.preloadLocked()
	m.mu.Unlock()
	m.notify()
	return true
}

// SetPlaybackRate clamps rate to [MinRate, MaxRate], applies it to the
// current entry immediately, and remembers it for future plays.
func (m *Manager) SetPlaybackRate(rate float64) {
	if rate < MinRate {
		rate = MinRate
	} else if rate > MaxRate {
		rate = MaxRate
	}
	m.mu.Lock()
	m.rate = rate
	if m.state == Playing && len(m.entries) > 0 {
		m.entries[m.index].Clip.SetRate(rate)
	}
	m.mu.Unlock()
}

// PlaybackRate returns the remembered rate.
func (m *Manager) PlaybackRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rate
}

// State returns the playlist playback state.
func (m *Manager) State() PlayState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// CurrentIndex returns the current position.
func (m *Manager) CurrentIndex() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index
}

// Current returns the current entry, or nil when empty.
func (m *Manager) Current() *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) == 0 {
		return nil
	}
	return m.entries[m.index]
}

// Entries returns a snapshot of the playlist in order.
func (m *Manager) Entries() []*Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// PreloadTarget returns the entry currently hinted for preload, or nil.
func (m *Manager) PreloadTarget() *Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preloaded
}

// Dispose releases every entry, clears the playlist, and resets state.
// Safe to call multiple times.
func (m *Manager) Dispose() {
	m.mu.Lock()
	for _, e := range m.entries {
		e.Clip.Release()
	}
	m.entries = nil
	m.index = 0
	m.state = Empty
	m.preloaded = nil
	m.mu.Unlock()
	m.notify()
}
