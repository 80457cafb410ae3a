package audio

import (
	"testing"
	"time"
)

// fakeClock drives the detector's debounce deterministically.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func quiet() [NumBands]float64 { return [NumBands]float64{} }

func spike() [NumBands]float64 {
	var l [NumBands]float64
	l[BandBass] = 1.0
	l[BandLowMid] = 1.0
	return l
}

func newTestDetector() (*Detector, *fakeClock) {
	d := NewDetector()
	clock := &fakeClock{t: time.Unix(1000, 0)}
	d.now = clock.now
	return d, clock
}

func TestBeatDebounce(t *testing.T) {
	d, clock := newTestDetector()

	for i := 0; i < 20; i++ {
		d.Process(quiet())
	}

	first := d.Process(spike())
	if !first.Beat {
		t.Fatal("first spike did not fire")
	}

	clock.advance(50 * time.Millisecond) // inside the debounce window
	second := d.Process(spike())
	if second.Beat {
		t.Fatal("second spike fired inside minTimeBetweenBeats")
	}

	clock.advance(200 * time.Millisecond)
	for i := 0; i < 10; i++ {
		d.Process(quiet())
	}
	third := d.Process(spike())
	if !third.Beat {
		t.Fatal("spike after debounce window did not fire")
	}
}

func TestSilenceNeverBeats(t *testing.T) {
	d, _ := newTestDetector()
	for i := 0; i < 100; i++ {
		if st := d.Process(quiet()); st.Beat {
			t.Fatal("beat fired on silence")
		}
	}
}

func TestKickDetector(t *testing.T) {
	d, _ := newTestDetector()

	var l [NumBands]float64
	l[BandBass] = 0.6
	l[BandSubBass] = 0.2
	l[BandMid] = 0.1
	if st := d.Process(l); !st.Kick {
		t.Fatalf("kick did not fire: %+v", st)
	}

	// Heavy mids defeat the bass-dominance condition.
	l[BandMid] = 0.9
	if st := d.Process(l); st.Kick {
		t.Fatal("kick fired without bass dominance")
	}
}

func TestSnareDetector(t *testing.T) {
	d, _ := newTestDetector()

	var l [NumBands]float64
	l[BandLowMid] = 0.4
	l[BandMid] = 0.3
	l[BandBass] = 0.1
	if st := d.Process(l); !st.Snare {
		t.Fatalf("snare did not fire: %+v", st)
	}

	l[BandBass] = 0.9
	if st := d.Process(l); st.Snare {
		t.Fatal("snare fired with dominant bass")
	}
}

func TestHiHatDetector(t *testing.T) {
	d, _ := newTestDetector()

	var l [NumBands]float64
	l[BandPresence] = 0.3
	l[BandAir] = 0.2
	l[BandMid] = 0.1
	if st := d.Process(l); !st.HiHat {
		t.Fatalf("hihat did not fire: %+v", st)
	}

	l[BandPresence] = 0.04
	l[BandAir] = 0.0
	if st := d.Process(l); st.HiHat {
		t.Fatal("hihat fired below threshold")
	}
}

func TestSubDetectorsNotDebounced(t *testing.T) {
	d, _ := newTestDetector()

	var l [NumBands]float64
	l[BandBass] = 0.6
	l[BandSubBass] = 0.2
	// Back-to-back ticks: the kick fires both times; only the general
	// beat has a refractory period.
	if st := d.Process(l); !st.Kick {
		t.Fatal("first kick missing")
	}
	if st := d.Process(l); !st.Kick {
		t.Fatal("second kick suppressed")
	}
}

func TestConfidence(t *testing.T) {
	d, _ := newTestDetector()

	// Zero mean: confidence must be zero, not NaN.
	if st := d.Process(quiet()); st.Confidence != 0 {
		t.Fatalf("confidence %v on empty history", st.Confidence)
	}

	for i := 0; i < 30; i++ {
		d.Process(quiet())
	}
	st := d.Process(spike())
	if st.Confidence <= 0 || st.Confidence > 1 {
		t.Fatalf("confidence %v outside (0,1]", st.Confidence)
	}
}

func TestSensitivityClamped(t *testing.T) {
	d, _ := newTestDetector()
	d.SetSensitivity(5)
	if d.Sensitivity() != 2.0 {
		t.Fatalf("sensitivity %v, want clamp to 2.0", d.Sensitivity())
	}
	d.SetSensitivity(0)
	if d.Sensitivity() != 0.1 {
		t.Fatalf("sensitivity %v, want clamp to 0.1", d.Sensitivity())
	}
}

func TestHistoryBounded(t *testing.T) {
	d, _ := newTestDetector()
	for i := 0; i < energyWindow*3; i++ {
		d.Process(spike())
	}
	if len(d.history) != energyWindow {
		t.Fatalf("history grew to %d, want %d", len(d.history), energyWindow)
	}
}

func TestDetectorReset(t *testing.T) {
	d, clock := newTestDetector()
	for i := 0; i < 20; i++ {
		d.Process(quiet())
	}
	d.Process(spike())
	d.Reset()

	if len(d.history) != 0 {
		t.Fatal("history survived reset")
	}
	// Debounce timer cleared: a fresh spike can fire immediately.
	clock.advance(time.Millisecond)
	for i := 0; i < 20; i++ {
		d.Process(quiet())
	}
	if st := d.Process(spike()); !st.Beat {
		t.Fatal("beat suppressed after reset")
	}
}
