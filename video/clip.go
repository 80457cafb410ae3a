package video

import (
	"sync"
	"time"
)

// Clip is the playable handle the decode/display collaborator exposes. The
// manager owns sequencing and index state; decoding and presentation stay
// behind this interface.
type Clip interface {
	// Play begins or resumes presentation.
	Play() error
	// Pause suspends presentation, keeping position.
	Pause()
	// SetRate applies a playback rate immediately.
	SetRate(rate float64)
	// Preload hints that this clip plays next and should buffer.
	Preload()
	// Duration reports the clip length in seconds.
	Duration() float64
	// Dimensions reports pixel width and height.
	Dimensions() (w, h int)
	// OnEnded registers the natural-end notification.
	OnEnded(fn func())
	// Release stops playback and frees transient resources. Idempotent.
	Release()
}

// Decoder opens a source file into a playable clip. Opening waits for
// metadata availability and fails with a typed error when it can't.
type Decoder interface {
	Open(path string) (Clip, error)
}

// HeadlessClip simulates presentation timing for environments without a
// display layer: it honors play/pause/rate and fires the ended callback
// when the (rate-scaled) duration elapses. Metadata comes from the probe.
type HeadlessClip struct {
	meta Metadata

	mu        sync.Mutex
	rate      float64
	remaining time.Duration
	startedAt time.Time
	timer     *time.Timer
	playing   bool
	onEnded   func()
	released  bool
}

// NewHeadlessClip builds a clip over probed metadata.
func NewHeadlessClip(meta Metadata) *HeadlessClip {
	return &HeadlessClip{
		meta:      meta,
		rate:      1.0,
		remaining: time.Duration(meta.DurationSeconds * float64(time.Second)),
	}
}

// HeadlessDecoder opens clips that only simulate timing.
type HeadlessDecoder struct{}

// Open probes the file and wraps its metadata in a headless clip.
func (HeadlessDecoder) Open(path string) (Clip, error) {
	meta, err := Probe(path)
	if err != nil {
		return nil, err
	}
	return NewHeadlessClip(meta), nil
}

func (c *HeadlessClip) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.released || c.playing {
		return nil
	}
	if c.remaining <= 0 {
		c.remaining = time.Duration(c.meta.DurationSeconds * float64(time.Second))
	}
	c.playing = true
	c.startedAt = time.Now()
	c.armLocked()
	return nil
}

// armLocked schedules the ended event for the scaled remaining time.
func (c *HeadlessClip) armLocked() {
	if c.timer != nil {
		c.timer.Stop()
	}
	wait := c.remaining
	if c.rate > 0 {
		wait = time.Duration(float64(c.remaining) / c.rate)
	}
	c.timer = time.AfterFunc(wait, c.fireEnded)
}

func (c *HeadlessClip) fireEnded() {
	c.mu.Lock()
	if !c.playing || c.released {
		c.mu.Unlock()
		return
	}
	c.playing = false
	c.remaining = time.Duration(c.meta.DurationSeconds * float64(time.Second))
	fn := c.onEnded
	c.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (c *HeadlessClip) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.playing {
		return
	}
	c.playing = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	elapsed := time.Duration(float64(time.Since(c.startedAt)) * c.rate)
	c.remaining -= elapsed
	if c.remaining < 0 {
		c.remaining = 0
	}
}

func (c *HeadlessClip) SetRate(rate float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rate <= 0 {
		rate = 1.0
	}
	if c.playing {
		// Re-baseline the remaining time before the rate changes.
		elapsed := time.Duration(float64(time.Since(c.startedAt)) * c.rate)
		c.remaining -= elapsed
		if c.remaining < 0 {
			c.remaining = 0
		}
		c.startedAt = time.Now()
		c.rate = rate
		c.armLocked()
		return
	}
	c.rate = rate
}

func (c *HeadlessClip) Preload() {}

func (c *HeadlessClip) Duration() float64 { return c.meta.DurationSeconds }

func (c *HeadlessClip) Dimensions() (int, int) { return c.meta.Width, c.meta.Height }

func (c *HeadlessClip) OnEnded(fn func()) {
	c.mu.Lock()
	c.onEnded = fn
	c.mu.Unlock()
}

func (c *HeadlessClip) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released = true
	c.playing = false
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
