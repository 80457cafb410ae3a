package video

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Southclaws/fault/ftag"

	"go-vizmix/errkind"
)

type fakeClip struct {
	playing   bool
	rate      float64
	preloads  int
	released  bool
	onEnded   func()
	playCalls int
}

func (c *fakeClip) Play() error {
	c.playing = true
	c.playCalls++
	return nil
}
func (c *fakeClip) Pause()               { c.playing = false }
func (c *fakeClip) SetRate(rate float64) { c.rate = rate }
func (c *fakeClip) Preload()             { c.preloads++ }
func (c *fakeClip) Duration() float64    { return 10 }
func (c *fakeClip) Dimensions() (int, int) {
	return 1920, 1080
}
func (c *fakeClip) OnEnded(fn func()) { c.onEnded = fn }
func (c *fakeClip) Release() {
	c.released = true
	c.playing = false
}

// end simulates the clip reaching its natural end.
func (c *fakeClip) end() {
	c.playing = false
	if c.onEnded != nil {
		c.onEnded()
	}
}

type fakeDecoder struct {
	clips map[string]*fakeClip
}

func (d *fakeDecoder) Open(path string) (Clip, error) {
	c := &fakeClip{rate: 1.0}
	if d.clips == nil {
		d.clips = make(map[string]*fakeClip)
	}
	d.clips[filepath.Base(path)] = c
	return c, nil
}

// stubWebM writes a minimal file that the container probe accepts.
func stubWebM(t *testing.T, dir, name string) string {
	t.Helper()
	head := append([]byte{0x1A, 0x45, 0xDF, 0xA3}, []byte("webm")...)
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, head, 0644); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	return path
}

func playlist(t *testing.T, n int) (*Manager, *fakeDecoder, []*Entry) {
	t.Helper()
	dir := t.TempDir()
	dec := &fakeDecoder{}
	m := NewManager(dec)
	entries := make([]*Entry, n)
	for i := 0; i < n; i++ {
		name := string(rune('a'+i)) + ".webm"
		e, err := m.AddVideo(stubWebM(t, dir, name))
		if err != nil {
			t.Fatalf("AddVideo %s: %v", name, err)
		}
		entries[i] = e
	}
	return m, dec, entries
}

func clipOf(e *Entry) *fakeClip { return e.Clip.(*fakeClip) }

func TestFirstAddAutoplays(t *testing.T) {
	m, _, entries := playlist(t, 1)
	if m.State() != Playing {
		t.Fatalf("state = %v, want playing", m.State())
	}
	if !clipOf(entries[0]).playing {
		t.Fatal("first clip not playing")
	}
	if m.PreloadTarget() != nil {
		t.Fatal("single-entry playlist should not preload")
	}
}

func TestSecondAddDoesNotInterrupt(t *testing.T) {
	m, _, entries := playlist(t, 2)
	if m.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want 0", m.CurrentIndex())
	}
	if clipOf(entries[1]).playing {
		t.Fatal("appended clip started playing")
	}
	if m.PreloadTarget() != entries[1] {
		t.Fatal("successor not preloaded")
	}
	if clipOf(entries[1]).preloads == 0 {
		t.Fatal("Preload never called on successor")
	}
}

func TestEndedAdvancesWithWraparound(t *testing.T) {
	m, _, entries := playlist(t, 3)
	m.Jump(2)
	if m.CurrentIndex() != 2 {
		t.Fatalf("index = %d, want 2", m.CurrentIndex())
	}

	clipOf(entries[2]).end()

	if m.CurrentIndex() != 0 {
		t.Fatalf("index after wrap = %d, want 0", m.CurrentIndex())
	}
	if m.State() != Playing {
		t.Fatalf("state = %v, want playing", m.State())
	}
	if !clipOf(entries[0]).playing {
		t.Fatal("wrapped-to clip not playing")
	}
}

func TestStaleEndedIsIgnored(t *testing.T) {
	m, _, entries := playlist(t, 3)
	// Jump away, then deliver the old clip's ended event late.
	m.Jump(1)
	clipOf(entries[0]).end()
	if m.CurrentIndex() != 1 {
		t.Fatalf("index = %d, stale ended moved it", m.CurrentIndex())
	}
}

func TestEndedWhilePausedDoesNotAdvance(t *testing.T) {
	m, _, entries := playlist(t, 2)
	m.Pause()
	clipOf(entries[0]).end()
	if m.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want 0", m.CurrentIndex())
	}
	if m.State() != Paused {
		t.Fatalf("state = %v, want paused", m.State())
	}
}

func TestNextPreviousWrap(t *testing.T) {
	m, _, _ := playlist(t, 3)
	m.Previous()
	if m.CurrentIndex() != 2 {
		t.Fatalf("Previous from 0: index = %d, want 2", m.CurrentIndex())
	}
	m.Next()
	if m.CurrentIndex() != 0 {
		t.Fatalf("Next from 2: index = %d, want 0", m.CurrentIndex())
	}
}

func TestToggle(t *testing.T) {
	m, _, entries := playlist(t, 1)
	m.Toggle()
	if m.State() != Paused || clipOf(entries[0]).playing {
		t.Fatal("toggle did not pause")
	}
	m.Toggle()
	if m.State() != Playing || !clipOf(entries[0]).playing {
		t.Fatal("toggle did not resume")
	}
}

func TestRemoveCurrentClampsAndRestarts(t *testing.T) {
	m, _, entries := playlist(t, 2)
	m.Jump(1)

	if !m.RemoveVideo(entries[1].ID) {
		t.Fatal("remove failed")
	}
	if !clipOf(entries[1]).released {
		t.Fatal("removed clip not released")
	}
	if m.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want clamp to 0", m.CurrentIndex())
	}
	if m.State() != Playing || !clipOf(entries[0]).playing {
		t.Fatal("playback did not restart on the remaining entry")
	}
}

func TestRemoveCurrentWhilePausedStaysPaused(t *testing.T) {
	m, _, entries := playlist(t, 3)
	m.Pause()

	m.RemoveVideo(entries[0].ID)

	if m.State() != Paused {
		t.Fatalf("state = %v, want paused", m.State())
	}
	if m.Current() != entries[1] {
		t.Fatal("new current entry wrong after paused removal")
	}
	if clipOf(entries[1]).playing {
		t.Fatal("paused removal started playback")
	}
	if m.PreloadTarget() != entries[2] {
		t.Fatal("preload not re-issued after paused removal")
	}

	// Play resumes on the new current entry.
	m.Play()
	if m.State() != Playing || !clipOf(entries[1]).playing {
		t.Fatal("resume after paused removal failed")
	}
}

func TestRemoveBeforeCurrentShiftsIndex(t *testing.T) {
	m, _, entries := playlist(t, 3)
	m.Jump(2)

	m.RemoveVideo(entries[0].ID)

	if m.CurrentIndex() != 1 {
		t.Fatalf("index = %d, want 1", m.CurrentIndex())
	}
	if m.Current() != entries[2] {
		t.Fatal("current entry changed on removal before it")
	}
}

func TestRemoveRetargetsPreload(t *testing.T) {
	m, _, entries := playlist(t, 3)
	if m.PreloadTarget() != entries[1] {
		t.Fatal("initial preload target wrong")
	}

	m.RemoveVideo(entries[1].ID)

	if m.PreloadTarget() != entries[2] {
		t.Fatal("preload not re-targeted after removal")
	}
}

func TestRemoveLastEmptiesPlaylist(t *testing.T) {
	m, _, entries := playlist(t, 1)
	m.RemoveVideo(entries[0].ID)
	if m.State() != Empty {
		t.Fatalf("state = %v, want empty", m.State())
	}
	if m.Current() != nil {
		t.Fatal("current entry after emptying")
	}
}

func TestReorderKeepsLogicalCurrent(t *testing.T) {
	m, _, entries := playlist(t, 3)
	m.Jump(1)

	if !m.Reorder(entries[1].ID, 0) {
		t.Fatal("reorder failed")
	}
	if m.CurrentIndex() != 0 {
		t.Fatalf("index = %d, want 0", m.CurrentIndex())
	}
	if m.Current() != entries[1] {
		t.Fatal("current entry changed by reorder")
	}
	got := m.Entries()
	want := []*Entry{entries[1], entries[0], entries[2]}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order[%d] = %s, want %s", i, got[i].Name, want[i].Name)
		}
	}
}

func TestRateClampAndApply(t *testing.T) {
	m, _, entries := playlist(t, 1)
	m.SetPlaybackRate(10)
	if m.PlaybackRate() != MaxRate {
		t.Fatalf("rate = %v, want %v", m.PlaybackRate(), MaxRate)
	}
	if clipOf(entries[0]).rate != MaxRate {
		t.Fatal("rate not applied to playing clip")
	}
	m.SetPlaybackRate(0.01)
	if m.PlaybackRate() != MinRate {
		t.Fatalf("rate = %v, want %v", m.PlaybackRate(), MinRate)
	}
}

func TestRatePersistsAcrossAdvance(t *testing.T) {
	m, _, entries := playlist(t, 2)
	m.SetPlaybackRate(2.0)
	clipOf(entries[0]).end()
	if clipOf(entries[1]).rate != 2.0 {
		t.Fatalf("advanced clip rate = %v, want 2.0", clipOf(entries[1]).rate)
	}
}

func TestAddRejectsUnsupportedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("not a video at all"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	m, _, _ := playlist(t, 1)
	if _, err := m.AddVideo(path); ftag.Get(err) != errkind.UnsupportedFormat {
		t.Fatalf("err kind = %v, want UnsupportedFormat", ftag.Get(err))
	}
	if len(m.Entries()) != 1 {
		t.Fatal("rejected file changed the playlist")
	}
}

func TestDisposeReleasesAll(t *testing.T) {
	m, _, entries := playlist(t, 3)
	m.Dispose()
	m.Dispose()
	for i, e := range entries {
		if !clipOf(e).released {
			t.Fatalf("entry %d not released", i)
		}
	}
	if m.State() != Empty {
		t.Fatalf("state = %v, want empty", m.State())
	}
}
